package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aussiebroadwan/grc/pkg/kvx"
)

const (
	LoginIPPrefix   = "login_rate_limit_ip:"
	RefreshIPPrefix = "refresh_rate_limit_ip:"
)

// AttemptLimiter is a fixed-threshold counter per key. Each allowed attempt
// restarts the window, and rejected attempts leave it alone so a blocked
// client is released once the window lapses.
type AttemptLimiter struct {
	KV     kvx.Store
	Prefix string
	Limit  int
	Window time.Duration
}

// Allow records an attempt for key. When the limit has been reached it
// returns false and the time left until the window lapses.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := l.Prefix + key

	raw, err := l.KV.Get(ctx, k)
	switch {
	case errors.Is(err, kvx.ErrNotFound):
		raw = "0"
	case err != nil:
		return false, 0, err
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		count = 0
	}

	if count >= l.Limit {
		ttl, err := l.KV.TTL(ctx, k)
		if err != nil && !errors.Is(err, kvx.ErrNotFound) {
			return false, 0, err
		}
		if ttl <= 0 {
			ttl = l.Window
		}
		return false, ttl, nil
	}

	if _, err := l.KV.Incr(ctx, k, l.Window); err != nil {
		return false, 0, err
	}
	return true, 0, nil
}
