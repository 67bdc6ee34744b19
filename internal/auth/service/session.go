package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aussiebroadwan/grc/pkg/cryptox"
	"github.com/aussiebroadwan/grc/pkg/kvx"
)

const (
	DefaultSessionTTL = 24 * time.Hour

	sessionPrefix = "session:"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionService keeps server-side sessions in kvx. Only a fingerprint of
// the session id is used as the key, so a dump of the store cannot be
// replayed as cookies.
type SessionService struct {
	KV  kvx.Store
	TTL time.Duration
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultSessionTTL
}

func sessionKey(id string) string {
	return sessionPrefix + cryptox.FingerprintToken(id)
}

// Create starts a session for userID and returns the opaque session id.
func (s *SessionService) Create(ctx context.Context, userID int64) (string, error) {
	id, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	if err := s.KV.Set(ctx, sessionKey(id), strconv.FormatInt(userID, 10), s.ttl()); err != nil {
		return "", err
	}
	return id, nil
}

// Resolve returns the user id bound to a session.
func (s *SessionService) Resolve(ctx context.Context, id string) (int64, error) {
	if id == "" {
		return 0, ErrSessionNotFound
	}
	raw, err := s.KV.Get(ctx, sessionKey(id))
	if errors.Is(err, kvx.ErrNotFound) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrSessionNotFound
	}
	return userID, nil
}

// Destroy ends a session. Unknown ids are ignored.
func (s *SessionService) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.KV.Del(ctx, sessionKey(id))
}

// Lifetime is the TTL given to new sessions.
func (s *SessionService) Lifetime() time.Duration { return s.ttl() }
