package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/grc/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newPair(t *testing.T, alg string, now func() time.Time) (*jwtx.HMACSigner, *jwtx.HMACVerifier) {
	t.Helper()
	s, err := jwtx.NewHMACSigner(alg, testSecret)
	require.NoError(t, err)
	v, err := jwtx.NewHMACVerifier(alg, testSecret, jwtx.VerifyOptions{Issuer: "grc-auth", Now: now})
	require.NoError(t, err)
	return s, v
}

func TestHMACRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	clock := func() time.Time { return now }

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run(alg, func(t *testing.T) {
			s, v := newPair(t, alg, clock)
			require.Equal(t, alg, s.Alg())

			id := jwtx.Identity{UserID: 7, Username: "alice", Email: "a@example.com"}
			tok, err := s.Sign(jwtx.NewClaims(id, jwtx.TokenTypeAccess, "grc-auth", time.Hour, now))
			require.NoError(t, err)

			got, err := v.Verify(tok)
			require.NoError(t, err)
			require.Equal(t, id, got.Identity())
			require.Equal(t, jwtx.TokenTypeAccess, got.TokenType)
		})
	}
}

func TestHMACDefaultsToHS256(t *testing.T) {
	s, err := jwtx.NewHMACSigner("", testSecret)
	require.NoError(t, err)
	require.Equal(t, "HS256", s.Alg())
}

func TestHMACRejectsBadConfig(t *testing.T) {
	_, err := jwtx.NewHMACSigner("RS256", testSecret)
	require.Error(t, err)

	_, err = jwtx.NewHMACSigner("HS256", []byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)

	_, err = jwtx.NewHMACVerifier("HS256", []byte("short"), jwtx.VerifyOptions{})
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestSignRequiresType(t *testing.T) {
	s, _ := newPair(t, "HS256", time.Now)
	_, err := s.Sign(jwtx.Claims{})
	require.Error(t, err)
}

func TestHMACVerifyFailures(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	clock := func() time.Time { return now }
	s, v := newPair(t, "HS256", clock)
	id := jwtx.Identity{UserID: 1, Username: "bob"}

	t.Run("expired", func(t *testing.T) {
		tok, err := s.Sign(jwtx.NewClaims(id, jwtx.TokenTypeAccess, "grc-auth", time.Hour, now.Add(-2*time.Hour)))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("expires as the clock moves", func(t *testing.T) {
		current := now
		_, v := newPair(t, "HS256", func() time.Time { return current })
		tok, err := s.Sign(jwtx.NewClaims(id, jwtx.TokenTypeAccess, "grc-auth", time.Hour, now))
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.NoError(t, err)

		current = now.Add(time.Hour + time.Second)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("tampered signature", func(t *testing.T) {
		tok, err := s.Sign(jwtx.NewClaims(id, jwtx.TokenTypeAccess, "grc-auth", time.Hour, now))
		require.NoError(t, err)
		parts := strings.Split(tok, ".")
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		_, err = v.Verify(parts[0] + "." + parts[1] + "." + string(sig))
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := jwtx.NewHMACSigner("HS256", []byte("ffffffffffffffffffffffffffffffff"))
		require.NoError(t, err)
		tok, err := other.Sign(jwtx.NewClaims(id, jwtx.TokenTypeAccess, "grc-auth", time.Hour, now))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("algorithm mismatch", func(t *testing.T) {
		hs512, err := jwtx.NewHMACSigner("HS512", testSecret)
		require.NoError(t, err)
		tok, err := hs512.Sign(jwtx.NewClaims(id, jwtx.TokenTypeAccess, "grc-auth", time.Hour, now))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("none algorithm", func(t *testing.T) {
		c := jwtx.NewClaims(id, jwtx.TokenTypeAccess, "grc-auth", time.Hour, now)
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := v.Verify("not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		tok, err := s.Sign(jwtx.NewClaims(id, jwtx.TokenTypeAccess, "someone-else", time.Hour, now))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong type", func(t *testing.T) {
		tok, err := s.Sign(jwtx.NewClaims(id, jwtx.TokenTypeRefresh, "grc-auth", time.Hour, now))
		require.NoError(t, err)
		_, err = v.VerifyType(tok, jwtx.TokenTypeAccess)
		require.ErrorIs(t, err, jwtx.ErrWrongType)

		got, err := v.VerifyType(tok, jwtx.TokenTypeRefresh)
		require.NoError(t, err)
		require.Equal(t, int64(1), got.UserID)
	})
}

func TestHMACLeeway(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	s, err := jwtx.NewHMACSigner("HS256", testSecret)
	require.NoError(t, err)
	v, err := jwtx.NewHMACVerifier("HS256", testSecret, jwtx.VerifyOptions{
		Leeway: 30 * time.Second,
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)

	tok, err := s.Sign(jwtx.NewClaims(jwtx.Identity{UserID: 3}, jwtx.TokenTypeAccess, "", time.Minute, now.Add(-70*time.Second)))
	require.NoError(t, err)
	_, err = v.Verify(tok)
	require.NoError(t, err)
}

func TestHMACRoundTripProperty(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	s, v := newPair(t, "HS256", func() time.Time { return now })

	rapid.Check(t, func(rt *rapid.T) {
		id := jwtx.Identity{
			UserID:    rapid.Int64Range(1, 1<<53).Draw(rt, "user_id"),
			Username:  rapid.StringMatching(`[a-z][a-z0-9_.]{0,30}`).Draw(rt, "username"),
			Email:     rapid.StringMatching(`[a-z]{1,10}@[a-z]{1,10}\.com`).Draw(rt, "email"),
			FirstName: rapid.String().Draw(rt, "first_name"),
			LastName:  rapid.String().Draw(rt, "last_name"),
		}

		tok, err := s.Sign(jwtx.NewClaims(id, jwtx.TokenTypeAccess, "grc-auth", time.Hour, now))
		require.NoError(rt, err)

		got, err := v.Verify(tok)
		require.NoError(rt, err)

		// Re-issuing from the verified claims keeps the identity intact.
		again, err := s.Sign(jwtx.NewClaims(got.Identity(), jwtx.TokenTypeAccess, "grc-auth", time.Hour, now))
		require.NoError(rt, err)
		got2, err := v.Verify(again)
		require.NoError(rt, err)
		require.Equal(rt, id.UserID, got2.UserID)
		require.Equal(rt, id.Username, got2.Username)
		require.Equal(rt, id.Email, got2.Email)
	})
}
