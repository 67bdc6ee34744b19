package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/pkg/jwtx"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "correct horse")

	pair, err := env.tokens.Issue(alice)
	require.NoError(t, err)
	require.WithinDuration(t, env.clock.Now().Add(jwtx.DefaultAccessTokenTTL), pair.AccessExpiresAt, time.Second)
	require.WithinDuration(t, env.clock.Now().Add(jwtx.DefaultRefreshTokenTTL), pair.RefreshExpiresAt, time.Second)

	claims, err := env.tokens.VerifyAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, alice.ID, claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "alice@example.com", claims.Email)

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := env.tokens.VerifyAccess(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered token", func(t *testing.T) {
		_, err := env.tokens.VerifyAccess(ctx, pair.AccessToken+"x")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired after the access lifetime", func(t *testing.T) {
		env.clock.Advance(jwtx.DefaultAccessTokenTTL + time.Second)
		_, err := env.tokens.VerifyAccess(ctx, pair.AccessToken)
		require.ErrorIs(t, err, ErrTokenExpired)
		require.NotErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenService_RoundTripPreservesIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		u := domain.User{
			ID:        rapid.Int64Range(1, 1<<40).Draw(t, "id"),
			Username:  rapid.StringMatching(`[a-z][a-z0-9_.]{0,20}`).Draw(t, "username"),
			Email:     rapid.StringMatching(`[a-z]{1,10}@[a-z]{1,10}\.com`).Draw(t, "email"),
			FirstName: rapid.StringMatching(`[A-Za-z' -]{0,20}`).Draw(t, "first"),
			LastName:  rapid.StringMatching(`[A-Za-z' -]{0,20}`).Draw(t, "last"),
		}

		pair, err := env.tokens.Issue(u)
		require.NoError(t, err)
		claims, err := env.tokens.VerifyAccess(ctx, pair.AccessToken)
		require.NoError(t, err)

		again, err := env.tokens.Issue(domain.User{
			ID:        claims.UserID,
			Username:  claims.Username,
			Email:     claims.Email,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
		})
		require.NoError(t, err)
		reclaims, err := env.tokens.VerifyAccess(ctx, again.AccessToken)
		require.NoError(t, err)

		require.Equal(t, u.ID, reclaims.UserID)
		require.Equal(t, u.Username, reclaims.Username)
		require.Equal(t, u.Email, reclaims.Email)
		require.Equal(t, claims.Identity(), reclaims.Identity())
	})
}

func TestTokenService_RefreshRotates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "correct horse")

	pair, err := env.tokens.Issue(alice)
	require.NoError(t, err)

	next, u, err := env.tokens.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, alice.ID, u.ID)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, _, err = env.tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	t.Run("new refresh token still works", func(t *testing.T) {
		_, _, err := env.tokens.Refresh(ctx, next.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, _, err := env.tokens.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := env.tokens.Refresh(ctx, "not-a-jwt")
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestTokenService_RefreshRejectsMissingAndInactiveUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	carol := env.createUser(t, "carol", "pw-carol-123", inactive)

	pair, err := env.tokens.Issue(carol)
	require.NoError(t, err)
	_, _, err = env.tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrUserInactive)

	ghost, err := env.tokens.Issue(domain.User{ID: 9999, Username: "ghost"})
	require.NoError(t, err)
	_, _, err = env.tokens.Refresh(ctx, ghost.RefreshToken)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenService_ConcurrentRefreshSingleWinner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "correct horse")

	pair, err := env.tokens.Issue(alice)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		wins    atomic.Int32
		rejects atomic.Int32
	)
	start := make(chan struct{})
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, err := env.tokens.Refresh(ctx, pair.RefreshToken)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrInvalidRefresh):
				rejects.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
	require.Equal(t, int32(15), rejects.Load())
}

func TestTokenService_RevokeRefresh(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "correct horse")

	pair, err := env.tokens.Issue(alice)
	require.NoError(t, err)

	require.NoError(t, env.tokens.RevokeRefresh(ctx, pair.RefreshToken))
	_, _, err = env.tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Tokens that do not verify are ignored.
	require.NoError(t, env.tokens.RevokeRefresh(ctx, "garbage"))
	require.NoError(t, env.tokens.RevokeRefresh(ctx, pair.RefreshToken))
}
