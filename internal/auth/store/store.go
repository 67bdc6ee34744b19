package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so a Tx-scoped Store cannot open a nested transaction.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Permissions() Permissions
	PasswordResets() PasswordResets

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used by the password reset flow. Matching is
	// case-insensitive.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a user and returns its id. Provisioning lives
	// outside this service; this exists for the bootstrap administrator
	// and for tests.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	// ReplacePasswordHash swaps the stored password only if it still equals
	// oldHash. It reports whether the row was updated.
	ReplacePasswordHash(ctx context.Context, id int64, oldHash, newHash string) (bool, error)

	// UpdatePasswordHash sets the password unconditionally.
	UpdatePasswordHash(ctx context.Context, id int64, newHash string) error

	// SetConsentAccepted records that the user accepted the terms.
	SetConsentAccepted(ctx context.Context, id int64) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	// BlacklistRefreshToken records t.JTI as consumed. It returns false when
	// the jti was already blacklisted, which makes it the atomic
	// check-and-set for refresh rotation.
	BlacklistRefreshToken(ctx context.Context, t domain.BlacklistedToken) (bool, error)

	// IsBlacklisted reports whether jti has been consumed.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// DeleteExpiredBlacklist removes entries for tokens that expired before
	// now and returns how many were removed.
	DeleteExpiredBlacklist(ctx context.Context, now time.Time) (int64, error)
}

type Permissions interface {
	// GetRBACByUserID returns the authorization record for a user.
	GetRBACByUserID(ctx context.Context, userID int64) (domain.RBACEntry, error)

	// UpsertRBAC creates or replaces the record for e.UserID.
	UpsertRBAC(ctx context.Context, e domain.RBACEntry) error
}

type PasswordResets interface {
	// CreatePasswordReset stores a new reset challenge.
	CreatePasswordReset(ctx context.Context, r domain.PasswordReset) error

	// GetLatestPasswordReset returns the newest unused, unexpired challenge
	// for the user.
	GetLatestPasswordReset(ctx context.Context, userID int64, now time.Time) (domain.PasswordReset, error)

	// IncrementPasswordResetAttempts bumps the failed attempt counter and
	// returns the new count.
	IncrementPasswordResetAttempts(ctx context.Context, id string) (int, error)

	// MarkPasswordResetUsed flips used only if it was unused, reporting
	// whether this caller won.
	MarkPasswordResetUsed(ctx context.Context, id string) (bool, error)

	// DeleteStalePasswordResets removes used or expired challenges.
	DeleteStalePasswordResets(ctx context.Context, now time.Time) (int64, error)
}
