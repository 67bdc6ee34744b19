package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func validBootstrap() domain.BootstrapData {
	return domain.BootstrapData{
		AdminUsername: "admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "change-me-now",
		FirstName:     "GRC",
		LastName:      "Administrator",
	}
}

func TestBootstrap_SeedsAdministratorOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := &BootstrapService{Store: env.store}

	done, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, done)

	id, err := svc.Bootstrap(ctx, validBootstrap())
	require.NoError(t, err)
	require.NotZero(t, id)

	done, err = svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.True(t, done)

	res, err := env.login.Login(ctx, loginAs("admin", "change-me-now"))
	require.NoError(t, err)
	require.Equal(t, id, res.User.ID)

	ok, err := env.rbac.HasPermission(ctx, id, domain.PermApproveFramework)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Bootstrap(ctx, validBootstrap())
	require.ErrorIs(t, err, ErrBootstrapAlready)
}

func TestBootstrap_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := &BootstrapService{Store: env.store}

	tests := []struct {
		name   string
		mutate func(*domain.BootstrapData)
	}{
		{"short username", func(d *domain.BootstrapData) { d.AdminUsername = "ab" }},
		{"bad email", func(d *domain.BootstrapData) { d.AdminEmail = "not-an-email" }},
		{"short password", func(d *domain.BootstrapData) { d.AdminPassword = "short" }},
		{"missing password", func(d *domain.BootstrapData) { d.AdminPassword = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validBootstrap()
			tt.mutate(&req)
			_, err := svc.Bootstrap(ctx, req)
			require.ErrorIs(t, err, ErrBootstrapInvalid)
		})
	}

	done, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, done)
}
