package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/pkg/kvx"
)

const (
	DefaultMaxLoginFailures = 5
	DefaultLockoutDuration  = 15 * time.Minute

	failedAttemptsPrefix = "login_failed_attempts:"
	lockedUntilPrefix    = "login_locked_until:"
)

// LockoutStatus describes the lockout state of one username.
type LockoutStatus struct {
	Locked    bool
	Until     time.Time
	Remaining time.Duration
}

// RemainingSeconds rounds Remaining up so a client never retries early.
func (s LockoutStatus) RemainingSeconds() int {
	return int(math.Ceil(s.Remaining.Seconds()))
}

// FailureResult is the outcome of recording a failed login.
type FailureResult struct {
	Attempts int
	Locked   bool
	Until    time.Time
}

// LockoutService tracks failed logins per username.
//
// A username moves from clear to accumulating on its first failure. Every
// failure extends the counter's window. Reaching MaxFailures writes a lock
// that expires after Duration and drops the counter. An elapsed lock is
// removed the next time Status is asked about it, and a successful login
// clears everything.
type LockoutService struct {
	KV          kvx.Store
	MaxFailures int
	Duration    time.Duration

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

func (s *LockoutService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *LockoutService) maxFailures() int {
	if s.MaxFailures > 0 {
		return s.MaxFailures
	}
	return DefaultMaxLoginFailures
}

func (s *LockoutService) duration() time.Duration {
	if s.Duration > 0 {
		return s.Duration
	}
	return DefaultLockoutDuration
}

func lockoutKeys(username string) (failures, locked string) {
	u := domain.NormalizeUsername(username)
	return failedAttemptsPrefix + u, lockedUntilPrefix + u
}

// Status reports whether username is locked.
func (s *LockoutService) Status(ctx context.Context, username string) (LockoutStatus, error) {
	failKey, lockKey := lockoutKeys(username)

	raw, err := s.KV.Get(ctx, lockKey)
	if errors.Is(err, kvx.ErrNotFound) {
		return LockoutStatus{}, nil
	}
	if err != nil {
		return LockoutStatus{}, err
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return LockoutStatus{}, fmt.Errorf("corrupt lockout value for %q: %w", lockKey, err)
	}
	until := time.UnixMilli(ms)

	now := s.now()
	if !now.Before(until) {
		return LockoutStatus{}, s.KV.Del(ctx, lockKey, failKey)
	}
	return LockoutStatus{Locked: true, Until: until, Remaining: until.Sub(now)}, nil
}

// RecordFailure counts a failed login and locks the username once the
// threshold is reached.
func (s *LockoutService) RecordFailure(ctx context.Context, username string) (FailureResult, error) {
	failKey, lockKey := lockoutKeys(username)

	n, err := s.KV.Incr(ctx, failKey, s.duration())
	if err != nil {
		return FailureResult{}, err
	}
	res := FailureResult{Attempts: int(n)}
	if res.Attempts < s.maxFailures() {
		return res, nil
	}

	until := s.now().Add(s.duration())
	if err := s.KV.Set(ctx, lockKey, strconv.FormatInt(until.UnixMilli(), 10), s.duration()); err != nil {
		return FailureResult{}, err
	}
	if err := s.KV.Del(ctx, failKey); err != nil {
		return FailureResult{}, err
	}
	res.Locked = true
	res.Until = until
	return res, nil
}

// Reset clears both the counter and any lock for username.
func (s *LockoutService) Reset(ctx context.Context, username string) error {
	failKey, lockKey := lockoutKeys(username)
	return s.KV.Del(ctx, failKey, lockKey)
}
