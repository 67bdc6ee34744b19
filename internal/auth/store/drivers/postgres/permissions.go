package postgres

import (
	"context"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
)

type permissionsRepo struct {
	q querier
}

func (r *permissionsRepo) GetRBACByUserID(ctx context.Context, userID int64) (domain.RBACEntry, error) {
	const q = `SELECT user_id, username, role, permissions, is_active FROM rbac WHERE user_id = $1`
	var (
		e      domain.RBACEntry
		perms  string
		active any
	)
	if err := r.q.QueryRow(ctx, q, userID).Scan(&e.UserID, &e.Username, &e.Role, &perms, &active); err != nil {
		return domain.RBACEntry{}, mapNotFound(err)
	}
	e.Permissions = domain.ParsePermissions(perms)
	e.IsActive = domain.NormalizeActive(active)
	return e, nil
}

func (r *permissionsRepo) UpsertRBAC(ctx context.Context, e domain.RBACEntry) error {
	const q = `
INSERT INTO rbac (user_id, username, role, permissions, is_active)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
	username = EXCLUDED.username,
	role = EXCLUDED.role,
	permissions = EXCLUDED.permissions,
	is_active = EXCLUDED.is_active,
	updated_at = NOW()`
	active := "N"
	if e.IsActive {
		active = "Y"
	}
	_, err := r.q.Exec(ctx, q, e.UserID, e.Username, e.Role, domain.JoinPermissions(e.Permissions), active)
	return err
}
