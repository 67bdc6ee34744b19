package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Leeway allows small clock skew when validating exp/iat.
	Leeway time.Duration

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrWrongType   = errors.New("jwtx: wrong token type")

	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HMACVerifier checks tokens produced by an HMACSigner with the same secret.
type HMACVerifier struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	opts   VerifyOptions
}

// NewHMACVerifier creates a verifier that only accepts alg.
func NewHMACVerifier(alg string, secret []byte, opts VerifyOptions) (*HMACVerifier, error) {
	method, err := signingMethod(alg)
	if err != nil {
		return nil, err
	}
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &HMACVerifier{method: method, secret: secret, opts: opts}, nil
}

// Verify validates the JWT string and returns its parsed Claims. Expiry is
// reported as ErrExpired so callers can log it apart from tampering.
func (v *HMACVerifier) Verify(tokenStr string) (Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithTimeFunc(v.opts.Now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if v.opts.Leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(v.opts.Leeway))
	}
	if v.opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.opts.Issuer))
	}

	var claims Claims
	token, err := jwt.NewParser(parserOpts...).ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidClaim
	}
	return claims, nil
}

// VerifyType verifies tokenStr and requires its token_type to be want.
func (v *HMACVerifier) VerifyType(tokenStr string, want TokenType) (Claims, error) {
	claims, err := v.Verify(tokenStr)
	if err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateType(want); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// classify maps jwt library errors onto the package sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %w", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %w", ErrIssuer, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}
}
