package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/jmoiron/sqlx"
)

type refreshTokensRepo struct {
	q querier
}

func (r *refreshTokensRepo) BlacklistRefreshToken(ctx context.Context, t domain.BlacklistedToken) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_token_blacklist (jti, user_id, expires_at, blacklisted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (jti) DO NOTHING`,
		t.JTI, t.UserID, t.ExpiresAt.Unix(), t.BlacklistedAt.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *refreshTokensRepo) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var n int64
	if err := sqlx.GetContext(ctx, r.q, &n,
		`SELECT COUNT(1) FROM refresh_token_blacklist WHERE jti = ?`, jti); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *refreshTokensRepo) DeleteExpiredBlacklist(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_token_blacklist WHERE expires_at < ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
