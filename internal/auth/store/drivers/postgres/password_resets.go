package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
)

type passwordResetsRepo struct {
	q querier
}

func (r *passwordResetsRepo) CreatePasswordReset(ctx context.Context, p domain.PasswordReset) error {
	const q = `
INSERT INTO password_resets (id, user_id, email, secret, expires_at, attempts, used, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, q, p.ID, p.UserID, p.Email, p.Secret, p.ExpiresAt, p.Attempts, p.Used, p.CreatedAt)
	return mapConstraint(err)
}

func (r *passwordResetsRepo) GetLatestPasswordReset(
	ctx context.Context,
	userID int64,
	now time.Time,
) (domain.PasswordReset, error) {
	const q = `
SELECT id, user_id, email, secret, expires_at, attempts, used, created_at
FROM password_resets
WHERE user_id = $1 AND used = FALSE AND expires_at > $2
ORDER BY created_at DESC, id DESC
LIMIT 1`
	var p domain.PasswordReset
	err := r.q.QueryRow(ctx, q, userID, now).Scan(
		&p.ID, &p.UserID, &p.Email, &p.Secret, &p.ExpiresAt, &p.Attempts, &p.Used, &p.CreatedAt)
	if err != nil {
		return domain.PasswordReset{}, mapNotFound(err)
	}
	return p, nil
}

func (r *passwordResetsRepo) IncrementPasswordResetAttempts(ctx context.Context, id string) (int, error) {
	const q = `UPDATE password_resets SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`
	var attempts int
	if err := r.q.QueryRow(ctx, q, id).Scan(&attempts); err != nil {
		return 0, mapNotFound(err)
	}
	return attempts, nil
}

func (r *passwordResetsRepo) MarkPasswordResetUsed(ctx context.Context, id string) (bool, error) {
	tag, err := r.q.Exec(ctx, `UPDATE password_resets SET used = TRUE WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *passwordResetsRepo) DeleteStalePasswordResets(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM password_resets WHERE used = TRUE OR expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
