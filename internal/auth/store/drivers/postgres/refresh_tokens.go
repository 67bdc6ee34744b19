package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
)

type refreshTokensRepo struct {
	q querier
}

func (r *refreshTokensRepo) BlacklistRefreshToken(ctx context.Context, t domain.BlacklistedToken) (bool, error) {
	const q = `
INSERT INTO refresh_token_blacklist (jti, user_id, expires_at, blacklisted_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (jti) DO NOTHING`
	tag, err := r.q.Exec(ctx, q, t.JTI, t.UserID, t.ExpiresAt, t.BlacklistedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *refreshTokensRepo) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM refresh_token_blacklist WHERE jti = $1)`
	var exists bool
	if err := r.q.QueryRow(ctx, q, jti).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *refreshTokensRepo) DeleteExpiredBlacklist(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM refresh_token_blacklist WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
