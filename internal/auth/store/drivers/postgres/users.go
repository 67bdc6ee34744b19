package postgres

import (
	"context"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

const selectUser = `SELECT id, username, email, first_name, last_name, password, is_active,
	COALESCE(license_key, ''), consent_accepted, created_at, updated_at FROM users`

type usersRepo struct {
	q querier
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u       domain.User
		active  any
		consent any
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&active, &u.LicenseKey, &consent, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.IsActive = domain.NormalizeActive(active)
	u.ConsentAccepted = domain.NormalizeActive(consent)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, selectUser+` WHERE username = $1`, username))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, selectUser+` WHERE lower(email) = lower($1) ORDER BY id LIMIT 1`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	const q = `
INSERT INTO users (username, email, first_name, last_name, password, is_active, license_key, consent_accepted)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
RETURNING id`
	var id int64
	err := r.q.QueryRow(ctx, q, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash,
		u.ActiveFlag(), u.LicenseKey, u.ConsentFlag()).Scan(&id)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return id, nil
}

func (r *usersRepo) ReplacePasswordHash(ctx context.Context, id int64, oldHash, newHash string) (bool, error) {
	const q = `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2 AND password = $3`
	tag, err := r.q.Exec(ctx, q, newHash, id, oldHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id int64, newHash string) error {
	const q = `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`
	return requireRow(r.q.Exec(ctx, q, newHash, id))
}

func (r *usersRepo) SetConsentAccepted(ctx context.Context, id int64) error {
	const q = `UPDATE users SET consent_accepted = '1', updated_at = NOW() WHERE id = $1`
	return requireRow(r.q.Exec(ctx, q, id))
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists); err != nil {
		return false, err
	}
	return !exists, nil
}
