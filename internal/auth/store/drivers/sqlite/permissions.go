package sqlite

import (
	"context"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/jmoiron/sqlx"
)

type rbacRow struct {
	UserID      int64  `db:"user_id"`
	Username    string `db:"username"`
	Role        string `db:"role"`
	Permissions string `db:"permissions"`
	IsActive    any    `db:"is_active"`
}

type permissionsRepo struct {
	q querier
}

func (r *permissionsRepo) GetRBACByUserID(ctx context.Context, userID int64) (domain.RBACEntry, error) {
	var row rbacRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT user_id, username, role, permissions, is_active
		FROM rbac WHERE user_id = ?`, userID)
	if err != nil {
		return domain.RBACEntry{}, mapNotFound(err)
	}
	return domain.RBACEntry{
		UserID:      row.UserID,
		Username:    row.Username,
		Role:        row.Role,
		Permissions: domain.ParsePermissions(row.Permissions),
		IsActive:    domain.NormalizeActive(row.IsActive),
	}, nil
}

func (r *permissionsRepo) UpsertRBAC(ctx context.Context, e domain.RBACEntry) error {
	active := "N"
	if e.IsActive {
		active = "Y"
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO rbac (user_id, username, role, permissions, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			username = excluded.username,
			role = excluded.role,
			permissions = excluded.permissions,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP`,
		e.UserID, e.Username, e.Role, domain.JoinPermissions(e.Permissions), active,
	)
	return err
}
