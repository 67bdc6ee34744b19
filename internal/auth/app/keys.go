package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/grc/pkg/cryptox"
	"github.com/aussiebroadwan/grc/pkg/jwtx"
)

var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET is required outside dev")

// AuthKeys is the HMAC signer/verifier pair shared by every token path.
type AuthKeys struct {
	Signer   *jwtx.HMACSigner
	Verifier *jwtx.HMACVerifier
}

// InitAuthKeys builds the token signer and verifier from the configured
// secret. In dev an empty secret is replaced by a random one, so tokens do
// not survive a restart.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*AuthKeys, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.Env != "dev" {
			return nil, ErrMissingJWTSecret
		}
		generated, err := cryptox.GenerateToken(jwtx.MinSecretLength)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		secret = generated
		logger.Warn("using an ephemeral jwt secret - tokens will not survive restarts")
	}

	signer, err := jwtx.NewHMACSigner(cfg.JWTAlgorithm, []byte(secret))
	if err != nil {
		return nil, fmt.Errorf("jwt signer: %w", err)
	}
	verifier, err := jwtx.NewHMACVerifier(cfg.JWTAlgorithm, []byte(secret), jwtx.VerifyOptions{
		Issuer: cfg.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("jwt verifier: %w", err)
	}

	logger.Info("jwt keys initialised", "algorithm", signer.Alg(), "issuer", cfg.Issuer)
	return &AuthKeys{Signer: signer, Verifier: verifier}, nil
}
