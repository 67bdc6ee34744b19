package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/store"
)

// Sweeper is implemented by kv stores that purge expired keys on demand.
type Sweeper interface {
	Sweep() int
}

// HousekeepingService periodically removes rows that can no longer matter:
// blacklist entries for refresh tokens that have expired anyway, and
// password resets that were used or have lapsed.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// KV is swept on every run when set.
	KV Sweeper

	// Now overrides the clock, mostly for tests.
	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// CleanupReport counts what one run removed.
type CleanupReport struct {
	BlacklistRows  int64
	PasswordResets int64
	KVKeys         int
}

// RunOnce performs a single cleanup pass. Each step is independent; a
// failure is logged and the remaining steps still run.
func (s *HousekeepingService) RunOnce(ctx context.Context) CleanupReport {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	var rep CleanupReport

	n, err := s.Store.RefreshTokens().DeleteExpiredBlacklist(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired refresh blacklist rows", slog.Any("err", err))
	} else {
		rep.BlacklistRows = n
	}

	n, err = s.Store.PasswordResets().DeleteStalePasswordResets(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete stale password resets", slog.Any("err", err))
	} else {
		rep.PasswordResets = n
	}

	if s.KV != nil {
		rep.KVKeys = s.KV.Sweep()
	}

	s.Logger.Info("housekeeping cleanup completed",
		"blacklist_rows", rep.BlacklistRows,
		"password_resets", rep.PasswordResets,
		"kv_keys", rep.KVKeys,
	)
	return rep
}
