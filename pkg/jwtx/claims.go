package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token lifetimes. Services may override them through config.
const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType distinguishes access tokens from refresh tokens. Both share the
// same claim shape, so the type claim is what stops a refresh token from
// being accepted as a bearer credential and vice versa.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Identity is the set of user attributes embedded in every token.
type Identity struct {
	UserID    int64
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// Claims are the JWT claims issued by the GRC auth service.
type Claims struct {
	jwt.RegisteredClaims

	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	TokenType TokenType `json:"token_type"`
}

// NewClaims builds claims for id valid from now until now+ttl.
func NewClaims(id Identity, typ TokenType, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		UserID:    id.UserID,
		Username:  id.Username,
		Email:     id.Email,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		TokenType: typ,
	}
}

// NewJTI returns a fresh value for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// Identity returns the identity carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:    c.UserID,
		Username:  c.Username,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateType checks the token_type claim.
func (c *Claims) ValidateType(want TokenType) error {
	if c.TokenType != want {
		return ErrWrongType
	}
	return nil
}
