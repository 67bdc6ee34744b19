package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/store"
	"github.com/aussiebroadwan/grc/pkg/kvx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
)

const (
	DefaultRBACCacheTTL = 5 * time.Minute

	rbacCachePrefix = "rbac:"
)

// PermissionResolver answers authorization questions for a user.
type PermissionResolver interface {
	Permissions(ctx context.Context, userID int64) (domain.RBACEntry, error)
	HasPermission(ctx context.Context, userID int64, perm domain.Permission) (bool, error)
}

// RBACService resolves permissions from the rbac table, caching the
// resolved entry in kvx. A user without a row resolves to an inactive entry
// that grants nothing.
type RBACService struct {
	Store    store.Store
	KV       kvx.Store
	CacheTTL time.Duration
}

var _ PermissionResolver = (*RBACService)(nil)

type cachedEntry struct {
	Username    string              `json:"username"`
	Role        string              `json:"role"`
	Permissions []domain.Permission `json:"permissions"`
	IsActive    bool                `json:"is_active"`
}

func rbacKey(userID int64) string {
	return rbacCachePrefix + strconv.FormatInt(userID, 10)
}

func (s *RBACService) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return DefaultRBACCacheTTL
}

// Permissions returns the user's RBAC entry.
func (s *RBACService) Permissions(ctx context.Context, userID int64) (domain.RBACEntry, error) {
	l := slogx.FromContext(ctx)

	if s.KV != nil {
		if raw, err := s.KV.Get(ctx, rbacKey(userID)); err == nil {
			var c cachedEntry
			if err := json.Unmarshal([]byte(raw), &c); err == nil {
				return domain.RBACEntry{
					UserID:      userID,
					Username:    c.Username,
					Role:        c.Role,
					Permissions: c.Permissions,
					IsActive:    c.IsActive,
				}, nil
			}
			l.Warn("dropping unreadable rbac cache entry", slog.Int64("user_id", userID))
		} else if !errors.Is(err, kvx.ErrNotFound) {
			l.Warn("rbac cache read failed", slog.Int64("user_id", userID), slog.Any("err", err))
		}
	}

	entry, err := s.Store.Permissions().GetRBACByUserID(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		entry = domain.RBACEntry{UserID: userID}
	case err != nil:
		return domain.RBACEntry{}, err
	}

	if s.KV != nil {
		raw, _ := json.Marshal(cachedEntry{
			Username:    entry.Username,
			Role:        entry.Role,
			Permissions: entry.Permissions,
			IsActive:    entry.IsActive,
		})
		if err := s.KV.Set(ctx, rbacKey(userID), string(raw), s.cacheTTL()); err != nil {
			l.Warn("rbac cache write failed", slog.Int64("user_id", userID), slog.Any("err", err))
		}
	}
	return entry, nil
}

// HasPermission reports whether the user holds perm.
func (s *RBACService) HasPermission(ctx context.Context, userID int64, perm domain.Permission) (bool, error) {
	entry, err := s.Permissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return entry.Has(perm), nil
}

// Invalidate drops the cached entry for userID.
func (s *RBACService) Invalidate(ctx context.Context, userID int64) error {
	if s.KV == nil {
		return nil
	}
	return s.KV.Del(ctx, rbacKey(userID))
}

// Assign writes the user's RBAC row and drops the cached copy.
func (s *RBACService) Assign(ctx context.Context, e domain.RBACEntry) error {
	if err := s.Store.Permissions().UpsertRBAC(ctx, e); err != nil {
		return err
	}
	return s.Invalidate(ctx, e.UserID)
}
