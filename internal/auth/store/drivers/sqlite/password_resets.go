package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/jmoiron/sqlx"
)

type passwordResetRow struct {
	ID        string `db:"id"`
	UserID    int64  `db:"user_id"`
	Email     string `db:"email"`
	Secret    string `db:"secret"`
	ExpiresAt int64  `db:"expires_at"`
	Attempts  int    `db:"attempts"`
	Used      bool   `db:"used"`
	CreatedAt int64  `db:"created_at"`
}

type passwordResetsRepo struct {
	q querier
}

func (r *passwordResetsRepo) CreatePasswordReset(ctx context.Context, p domain.PasswordReset) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO password_resets (id, user_id, email, secret, expires_at, attempts, used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Email, p.Secret, p.ExpiresAt.Unix(), p.Attempts, p.Used, p.CreatedAt.Unix(),
	)
	return mapConstraint(err)
}

func (r *passwordResetsRepo) GetLatestPasswordReset(
	ctx context.Context,
	userID int64,
	now time.Time,
) (domain.PasswordReset, error) {
	var row passwordResetRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT id, user_id, email, secret, expires_at, attempts, used, created_at
		FROM password_resets
		WHERE user_id = ? AND used = 0 AND expires_at > ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, userID, now.Unix())
	if err != nil {
		return domain.PasswordReset{}, mapNotFound(err)
	}
	return domain.PasswordReset{
		ID:        row.ID,
		UserID:    row.UserID,
		Email:     row.Email,
		Secret:    row.Secret,
		ExpiresAt: unixTime(row.ExpiresAt),
		Attempts:  row.Attempts,
		Used:      row.Used,
		CreatedAt: unixTime(row.CreatedAt),
	}, nil
}

func (r *passwordResetsRepo) IncrementPasswordResetAttempts(ctx context.Context, id string) (int, error) {
	var attempts int
	err := sqlx.GetContext(ctx, r.q, &attempts,
		`UPDATE password_resets SET attempts = attempts + 1 WHERE id = ? RETURNING attempts`, id)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return attempts, nil
}

func (r *passwordResetsRepo) MarkPasswordResetUsed(ctx context.Context, id string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE password_resets SET used = 1 WHERE id = ? AND used = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *passwordResetsRepo) DeleteStalePasswordResets(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM password_resets WHERE used = 1 OR expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
