//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStore_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "grc",
				"POSTGRES_PASSWORD": "grc",
				"POSTGRES_DB":       "grc",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://grc:grc@%s:%s/grc?sslmode=disable", host, port.Port())

	s, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(ctx))

	id, err := s.Users().CreateUser(ctx, domain.User{Username: "alice", Email: "alice@example.com", IsActive: true})
	require.NoError(t, err)

	u, err := s.Users().GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.True(t, u.IsActive)

	now := time.Now()
	entry := domain.BlacklistedToken{JTI: "jti", UserID: id, ExpiresAt: now.Add(time.Hour), BlacklistedAt: now}
	won, err := s.RefreshTokens().BlacklistRefreshToken(ctx, entry)
	require.NoError(t, err)
	require.True(t, won)
	won, err = s.RefreshTokens().BlacklistRefreshToken(ctx, entry)
	require.NoError(t, err)
	require.False(t, won)
}
