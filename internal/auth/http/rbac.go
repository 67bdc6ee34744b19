package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/service"
	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/aussiebroadwan/grc/pkg/httpx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
)

// RequirePermission admits requests whose principal holds every listed
// permission. It must run behind the gate.
func RequirePermission(resolver service.PermissionResolver, perms ...domain.Permission) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, ok := httpx.PrincipalFromContext(ctx)
			if !ok {
				authsdk.AuthenticationFailure("Authentication required").WriteError(w)
				return
			}

			for _, perm := range perms {
				allowed, err := resolver.HasPermission(ctx, p.UserID, perm)
				if err != nil {
					slogx.FromContext(ctx).Error("permission lookup failed", slog.Any("err", err))
					authsdk.ErrInternal.WriteError(w)
					return
				}
				if !allowed {
					slogx.FromContext(ctx).Warn("permission denied", slog.String("permission", string(perm)))
					authsdk.AuthorizationDenied("You do not have permission to perform this action").WriteError(w)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RBACHandler reports the caller's own permissions.
type RBACHandler struct {
	Resolver service.PermissionResolver
}

// HandlePermissions handles GET /api/rbac/permissions
//
//	@Summary		List the caller's permissions
//	@Description	Returns the caller's role and effective permissions. A GRC Administrator holds every permission.
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.PermissionsResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Not authenticated"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal error"
//	@Router			/api/rbac/permissions [get]
func (h *RBACHandler) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := httpx.PrincipalFromContext(ctx)
	if !ok {
		authsdk.AuthenticationFailure("Authentication required").WriteError(w)
		return
	}

	entry, err := h.Resolver.Permissions(ctx, p.UserID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to resolve permissions", slog.Any("err", err))
		authsdk.ErrInternal.WriteError(w)
		return
	}

	perms := entry.Effective()
	names := make([]string, 0, len(perms))
	for _, perm := range perms {
		names = append(names, string(perm))
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.PermissionsResponse{
		Status:      "success",
		UserID:      p.UserID,
		Role:        entry.Role,
		Permissions: names,
	})
}

// HandleCheck handles GET /api/rbac/permissions/check
//
//	@Summary		Check one permission
//	@Description	Reports whether the caller holds the named permission.
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Param			permission	query		string	true	"Permission name, e.g. create_risk"
//	@Success		200			{object}	authsdk.PermissionCheckResponse
//	@Failure		400			{object}	authsdk.ErrorResponse	"Unknown or missing permission"
//	@Failure		401			{object}	authsdk.ErrorResponse	"Not authenticated"
//	@Failure		500			{object}	authsdk.ErrorResponse	"Internal error"
//	@Router			/api/rbac/permissions/check [get]
func (h *RBACHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := httpx.PrincipalFromContext(ctx)
	if !ok {
		authsdk.AuthenticationFailure("Authentication required").WriteError(w)
		return
	}

	perm := domain.Permission(strings.TrimSpace(r.URL.Query().Get("permission")))
	if perm == "" {
		authsdk.ClientInput("permission is required").WriteError(w)
		return
	}
	if !perm.IsKnown() {
		authsdk.ClientInput("Unknown permission").WriteError(w)
		return
	}

	allowed, err := h.Resolver.HasPermission(ctx, p.UserID, perm)
	if err != nil {
		slogx.FromContext(ctx).Error("permission check failed", slog.Any("err", err))
		authsdk.ErrInternal.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.PermissionCheckResponse{
		Status:     "success",
		Permission: string(perm),
		Allowed:    allowed,
	})
}
