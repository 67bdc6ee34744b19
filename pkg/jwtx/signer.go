package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret accepted.
const MinSecretLength = 32

var ErrWeakSecret = fmt.Errorf("jwtx: secret shorter than %d bytes", MinSecretLength)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HMACSigner signs tokens with a shared secret (HS256, HS384 or HS512).
type HMACSigner struct {
	method *jwt.SigningMethodHMAC
	secret []byte
}

// signingMethod maps an algorithm name onto its HMAC implementation.
func signingMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	switch alg {
	case "", jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", alg)
	}
}

// NewHMACSigner creates a signer for alg. An empty alg means HS256.
func NewHMACSigner(alg string, secret []byte) (*HMACSigner, error) {
	method, err := signingMethod(alg)
	if err != nil {
		return nil, err
	}
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &HMACSigner{method: method, secret: secret}, nil
}

func (s *HMACSigner) Alg() string { return s.method.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HMACSigner) Sign(claims Claims) (string, error) {
	if claims.TokenType == "" {
		return "", errors.New("jwtx: token_type is required")
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}
