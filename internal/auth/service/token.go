package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/metrics"
	"github.com/aussiebroadwan/grc/internal/auth/store"
	"github.com/aussiebroadwan/grc/pkg/jwtx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

// TokenVerifier is satisfied by *jwtx.HMACVerifier.
type TokenVerifier interface {
	VerifyType(token string, want jwtx.TokenType) (jwtx.Claims, error)
}

type TokenService struct {
	Signer     jwtx.Signer
	Verifier   TokenVerifier
	Store      store.Store
	Users      *UserService
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func identityOf(u domain.User) jwtx.Identity {
	return jwtx.Identity{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Issue mints an access/refresh pair carrying the user's identity claims.
func (s *TokenService) Issue(u domain.User) (domain.TokenPair, error) {
	now := s.now()
	id := identityOf(u)

	accessClaims := jwtx.NewClaims(id, jwtx.TokenTypeAccess, s.Issuer, s.accessTTL(), now)
	access, err := s.Signer.Sign(accessClaims)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshClaims := jwtx.NewClaims(id, jwtx.TokenTypeRefresh, s.Issuer, s.refreshTTL(), now)
	refresh, err := s.Signer.Sign(refreshClaims)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.Expiry(),
		RefreshExpiresAt: refreshClaims.Expiry(),
	}, nil
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// VerifyAccess validates an access token. Expiry yields ErrTokenExpired and
// every other failure ErrInvalidToken; both wrap the underlying jwtx error.
func (s *TokenService) VerifyAccess(ctx context.Context, token string) (jwtx.Claims, error) {
	claims, err := s.Verifier.VerifyType(token, jwtx.TokenTypeAccess)
	if err == nil {
		return claims, nil
	}

	l := slogx.FromContext(ctx)
	if errors.Is(err, jwtx.ErrExpired) {
		l.Debug("access token expired")
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}
	l.Warn("access token rejected", slog.Any("err", err))
	return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// blacklisted before the new pair is signed; of several concurrent callers
// holding the same token only the one whose blacklist insert lands wins.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, domain.User, error) {
	pair, u, err := s.refresh(ctx, refreshToken)
	switch {
	case err == nil:
		metrics.RecordRefresh(metrics.RefreshSuccess)
	case errors.Is(err, ErrInvalidRefresh), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrUserInactive):
		metrics.RecordRefresh(metrics.RefreshRejected)
	default:
		metrics.RecordRefresh(metrics.RefreshError)
	}
	return pair, u, err
}

func (s *TokenService) refresh(ctx context.Context, refreshToken string) (domain.TokenPair, domain.User, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Verifier.VerifyType(refreshToken, jwtx.TokenTypeRefresh)
	if err != nil {
		l.Debug("refresh token rejected", slog.Any("err", err))
		return domain.TokenPair{}, domain.User{}, fmt.Errorf("%w: %w", ErrInvalidRefresh, err)
	}
	if claims.UserID == 0 || claims.ID == "" {
		return domain.TokenPair{}, domain.User{}, ErrInvalidRefresh
	}

	u, err := s.Users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}
	if !u.IsActive {
		return domain.TokenPair{}, domain.User{}, ErrUserInactive
	}

	won, err := s.Store.RefreshTokens().BlacklistRefreshToken(ctx, domain.BlacklistedToken{
		JTI:           claims.ID,
		UserID:        u.ID,
		ExpiresAt:     claims.Expiry(),
		BlacklistedAt: s.now(),
	})
	if err != nil {
		return domain.TokenPair{}, domain.User{}, fmt.Errorf("blacklist refresh token: %w", err)
	}
	if !won {
		l.Warn("refresh token reuse", slog.Int64("user_id", u.ID))
		return domain.TokenPair{}, domain.User{}, ErrInvalidRefresh
	}

	pair, err := s.Issue(u)
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}
	return pair, u, nil
}

// RevokeRefresh blacklists a refresh token on logout. Tokens that no longer
// verify are already unusable and are ignored.
func (s *TokenService) RevokeRefresh(ctx context.Context, refreshToken string) error {
	claims, err := s.Verifier.VerifyType(refreshToken, jwtx.TokenTypeRefresh)
	if err != nil || claims.ID == "" {
		return nil
	}
	_, err = s.Store.RefreshTokens().BlacklistRefreshToken(ctx, domain.BlacklistedToken{
		JTI:           claims.ID,
		UserID:        claims.UserID,
		ExpiresAt:     claims.Expiry(),
		BlacklistedAt: s.now(),
	})
	return err
}
