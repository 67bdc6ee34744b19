package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, email, first_name, last_name, password, is_active,
	license_key, consent_accepted, created_at, updated_at`

type userRow struct {
	ID              int64          `db:"id"`
	Username        string         `db:"username"`
	Email           string         `db:"email"`
	FirstName       string         `db:"first_name"`
	LastName        string         `db:"last_name"`
	Password        string         `db:"password"`
	IsActive        any            `db:"is_active"`
	LicenseKey      sql.NullString `db:"license_key"`
	ConsentAccepted any            `db:"consent_accepted"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:              r.ID,
		Username:        r.Username,
		Email:           r.Email,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		PasswordHash:    r.Password,
		IsActive:        domain.NormalizeActive(r.IsActive),
		LicenseKey:      mapNullString(r.LicenseKey),
		ConsentAccepted: domain.NormalizeActive(r.ConsentAccepted),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type usersRepo struct {
	q querier
}

func (r *usersRepo) get(ctx context.Context, where string, arg any) (domain.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return r.get(ctx, `id = ?`, id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.get(ctx, `username = ?`, username)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.get(ctx, `lower(email) = lower(?) ORDER BY id LIMIT 1`, email)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password, is_active, license_key, consent_accepted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash,
		u.ActiveFlag(), mapStringNull(u.LicenseKey), u.ConsentFlag(),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) ReplacePasswordHash(ctx context.Context, id int64, oldHash, newHash string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET password = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND password = ?`,
		newHash, id, oldHash,
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

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id int64, newHash string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, newHash, id)
	return requireRow(res, err)
}

func (r *usersRepo) SetConsentAccepted(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET consent_accepted = '1', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return requireRow(res, err)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int64
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(1) FROM users`); err != nil {
		return false, err
	}
	return n == 0, nil
}

// requireRow maps a zero-row UPDATE onto store.ErrNotFound.
func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
