package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/grc/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id := jwtx.Identity{UserID: 42, Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Liddell"}

	c := jwtx.NewClaims(id, jwtx.TokenTypeAccess, "grc-auth", time.Hour, now)

	require.Equal(t, "grc-auth", c.Issuer)
	require.Equal(t, now, c.IssuedAt.Time)
	require.Equal(t, now.Add(time.Hour), c.Expiry())
	require.NotEmpty(t, c.ID)
	require.Equal(t, id, c.Identity())
	require.Equal(t, jwtx.TokenTypeAccess, c.TokenType)
}

func TestNewJTIUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 1000 {
		jti := jwtx.NewJTI()
		_, dup := seen[jti]
		require.False(t, dup, "duplicate jti %s", jti)
		seen[jti] = struct{}{}
	}
}

func TestValidateType(t *testing.T) {
	c := &jwtx.Claims{TokenType: jwtx.TokenTypeRefresh}

	require.NoError(t, c.ValidateType(jwtx.TokenTypeRefresh))
	require.ErrorIs(t, c.ValidateType(jwtx.TokenTypeAccess), jwtx.ErrWrongType)
}

func TestExpiryAbsent(t *testing.T) {
	c := &jwtx.Claims{}
	require.True(t, c.Expiry().IsZero())
}
