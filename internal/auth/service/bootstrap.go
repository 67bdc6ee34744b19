package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/store"
	"github.com/aussiebroadwan/grc/pkg/cryptox"
	"github.com/aussiebroadwan/grc/pkg/slogx"
	"github.com/go-playground/validator/v10"
)

var (
	ErrBootstrapAlready             = errors.New("system already bootstrapped")
	ErrBootstrapInvalid             = errors.New("invalid bootstrap data")
	ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin user")
)

var bootstrapValidate = validator.New(validator.WithRequiredStructEnabled())

// BootstrapService seeds the first GRC Administrator into an empty store.
type BootstrapService struct {
	Store store.Store
}

// IsBootstrapped reports whether any user exists.
func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the administrator and its RBAC row in one transaction
// and returns the new user id.
func (s *BootstrapService) Bootstrap(ctx context.Context, req domain.BootstrapData) (int64, error) {
	l := slogx.FromContext(ctx)

	if err := bootstrapValidate.Struct(req); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBootstrapInvalid, err)
	}

	if done, err := s.IsBootstrapped(ctx); err != nil {
		return 0, err
	} else if done {
		return 0, ErrBootstrapAlready
	}

	passHash, err := cryptox.HashPassword(req.AdminPassword)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("err", err))
		return 0, ErrBootstrapFailedToCreateAdmin
	}

	var adminID int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		id, err := tx.Users().CreateUser(ctx, domain.User{
			Username:        req.AdminUsername,
			Email:           req.AdminEmail,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			PasswordHash:    passHash,
			IsActive:        true,
			LicenseKey:      req.LicenseKey,
			ConsentAccepted: false,
		})
		if err != nil {
			l.Error("failed to create admin user", slog.Any("err", err))
			return ErrBootstrapFailedToCreateAdmin
		}

		err = tx.Permissions().UpsertRBAC(ctx, domain.RBACEntry{
			UserID:   id,
			Username: req.AdminUsername,
			Role:     domain.RoleAdministrator,
			IsActive: true,
		})
		if err != nil {
			l.Error("failed to assign administrator role", slog.Any("err", err))
			return ErrBootstrapFailedToCreateAdmin
		}

		adminID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.Info("successfully bootstrapped system", slog.Int64("admin_user_id", adminID))
	return adminID, nil
}
