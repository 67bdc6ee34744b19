package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var userCols = []string{
	"id", "username", "email", "first_name", "last_name", "password", "is_active",
	"license_key", "consent_accepted", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return NewStoreWithPool(mock, ""), mock
}

func TestUsers_GetUserByID(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(7), "alice", "alice@example.com", "Alice", "Smith", "hash", "y", "LIC-1", "1", now, now))

	u, err := s.Users().GetUserByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.True(t, u.IsActive)
	require.True(t, u.ConsentAccepted)
	require.Equal(t, "LIC-1", u.LicenseKey)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(8)).
		WillReturnError(pgx.ErrNoRows)

	_, err = s.Users().GetUserByID(ctx, 8)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_InactiveWhenFlagMissing(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`FROM users WHERE username = \$1`).
		WithArgs("bob").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(2), "bob", "", "", "", "hash", nil, "", "0", now, now))

	u, err := s.Users().GetUserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	require.False(t, u.IsActive)
}

func TestUsers_CreateUser(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	u := domain.User{Username: "carol", Email: "c@example.com", PasswordHash: "h", IsActive: true}

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("carol", "c@example.com", "", "", "h", "Y", "", "0").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := s.Users().CreateUser(ctx, u)
	require.NoError(t, err)
	require.EqualValues(t, 3, id)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("carol", "c@example.com", "", "", "h", "Y", "", "0").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = s.Users().CreateUser(ctx, u)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsers_ReplacePasswordHash(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE users SET password = \$1`).
		WithArgs("new", int64(1), "old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	ok, err := s.Users().ReplacePasswordHash(ctx, 1, "old", "new")
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExec(`UPDATE users SET password = \$1`).
		WithArgs("new", int64(1), "old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	ok, err = s.Users().ReplacePasswordHash(ctx, 1, "old", "new")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUsers_SetConsentAccepted(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE users SET consent_accepted = '1'`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.Users().SetConsentAccepted(context.Background(), 5)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokens_Blacklist(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()
	entry := domain.BlacklistedToken{JTI: "j1", UserID: 1, ExpiresAt: now.Add(time.Hour), BlacklistedAt: now}

	mock.ExpectExec(`INSERT INTO refresh_token_blacklist`).
		WithArgs("j1", int64(1), entry.ExpiresAt, entry.BlacklistedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	won, err := s.RefreshTokens().BlacklistRefreshToken(ctx, entry)
	require.NoError(t, err)
	require.True(t, won)

	mock.ExpectExec(`INSERT INTO refresh_token_blacklist`).
		WithArgs("j1", int64(1), entry.ExpiresAt, entry.BlacklistedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	won, err = s.RefreshTokens().BlacklistRefreshToken(ctx, entry)
	require.NoError(t, err)
	require.False(t, won)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("j1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	listed, err := s.RefreshTokens().IsBlacklisted(ctx, "j1")
	require.NoError(t, err)
	require.True(t, listed)

	mock.ExpectExec(`DELETE FROM refresh_token_blacklist`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	n, err := s.RefreshTokens().DeleteExpiredBlacklist(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
}

func TestPermissions_GetRBACByUserID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM rbac WHERE user_id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "role", "permissions", "is_active"}).
			AddRow(int64(9), "dave", "Auditor", "conduct_audit bogus review_audit", "Y"))

	e, err := s.Permissions().GetRBACByUserID(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, e.IsActive)
	require.Equal(t, []domain.Permission{domain.PermConductAudit, domain.PermReviewAudit}, e.Permissions)
}

func TestPasswordResets_Increment(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE password_resets SET attempts = attempts \+ 1`).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{"attempts"}).AddRow(3))

	n, err := s.PasswordResets().IncrementPasswordResetAttempts(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestWithTx(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET consent_accepted`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().SetConsentAccepted(ctx, 1)
	}))

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.WithTx(ctx, func(tx store.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestApplyMigrations_RequiresDSN(t *testing.T) {
	s, _ := newMockStore(t)
	require.Error(t, s.ApplyMigrations())
}
