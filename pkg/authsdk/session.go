package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// refreshSkew refreshes slightly before the server-side expiry.
const refreshSkew = 30 * time.Second

// Session represents an authenticated session with automatic token refresh.
// All Session methods automatically handle token expiration and refresh when needed.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(client *SDKClient, pair TokenPair) *Session {
	s := &Session{client: client}
	s.store(pair)
	return s
}

// store records pair. Callers must hold s.mu or own s exclusively.
func (s *Session) store(pair TokenPair) {
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken

	// An unparseable expiry forces a refresh on first use.
	exp, err := time.Parse(time.RFC3339, pair.AccessTokenExpires)
	if err != nil {
		s.expiresAt = time.Time{}
		return
	}
	s.expiresAt = exp.Add(-refreshSkew)
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", errors.New("access token expired and no refresh token available")
	}

	resp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	s.store(resp.TokenPair)

	return s.accessToken, nil
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Verify returns the user the session belongs to.
func (s *Session) Verify(ctx context.Context) (*VerifyResponse, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Verify(ctx, token)
}

// AcceptConsent records consent for the session's user.
func (s *Session) AcceptConsent(ctx context.Context) (*ConsentResponse, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.AcceptConsent(ctx, token)
}

// Permissions lists the caller's role and permissions.
func (s *Session) Permissions(ctx context.Context) (*PermissionsResponse, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.doJSON(ctx, http.MethodGet, "/api/rbac/permissions", nil, token)
	if err != nil {
		return nil, err
	}

	var out PermissionsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// HasPermission asks the server whether the caller holds permission.
func (s *Session) HasPermission(ctx context.Context, permission string) (bool, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return false, err
	}

	path := "/api/rbac/permissions/check?permission=" + url.QueryEscape(permission)
	resp, err := s.client.doJSON(ctx, http.MethodGet, path, nil, token)
	if err != nil {
		return false, err
	}

	var out PermissionCheckResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Allowed, nil
}

// Logout ends the session server-side and revokes its refresh token.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	access, refresh := s.accessToken, s.refreshToken
	s.accessToken, s.refreshToken, s.expiresAt = "", "", time.Time{}
	s.mu.Unlock()

	return s.client.Logout(ctx, access, refresh)
}
