package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"AUTH_JWT_ALGORITHM", "AUTH_ISSUER", "AUTH_DATABASE_DRIVER", "AUTH_KV_BACKEND",
		"LOGIN_IP_MAX_ATTEMPTS", "LOGIN_LOCKOUT_DURATION", "LICENSE_CHECK_ENABLED",
		"GATE_BYPASS_PATHS", "CORS_ALLOWED_ORIGINS", "TRUSTED_PROXIES", "SESSION_COOKIE_NAME", "PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	require.Equal(t, "HS256", cfg.JWTAlgorithm)
	require.Equal(t, "grc-auth", cfg.Issuer)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, "memory", cfg.KVBackend)
	require.Equal(t, 10, cfg.LoginIPMaxAttempts)
	require.Equal(t, 15*time.Minute, cfg.LoginLockoutDuration)
	require.True(t, cfg.LicenseCheckEnabled)
	require.Nil(t, cfg.BypassPaths)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.Nil(t, cfg.TrustedProxies)
	require.Equal(t, "sessionid", cfg.SessionCookieName)
	require.Equal(t, 8080, cfg.Port)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_ALGORITHM", "HS512")
	t.Setenv("AUTH_KV_BACKEND", "redis")
	t.Setenv("AUTH_REDIS_DB", "3")
	t.Setenv("LOGIN_IP_WINDOW", "90")
	t.Setenv("LOGIN_LOCKOUT_DURATION", "30m")
	t.Setenv("LICENSE_CHECK_ENABLED", "false")
	t.Setenv("GATE_BYPASS_PATHS", " /api/policies/ , ,/api/events")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://grc.example.com")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")

	cfg := LoadConfig()
	require.Equal(t, "HS512", cfg.JWTAlgorithm)
	require.Equal(t, "redis", cfg.KVBackend)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, 90*time.Second, cfg.LoginIPWindow)
	require.Equal(t, 30*time.Minute, cfg.LoginLockoutDuration)
	require.False(t, cfg.LicenseCheckEnabled)
	require.Equal(t, []string{"/api/policies/", "/api/events"}, cfg.BypassPaths)
	require.Equal(t, []string{"https://grc.example.com"}, cfg.AllowedOrigins)
	require.True(t, cfg.SessionCookieSecure)
	require.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.TrustedProxies)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		origins []string
		wantErr bool
	}{
		{"dev allows wildcard", "dev", []string{"*"}, false},
		{"prod refuses wildcard", "prod", []string{"*"}, true},
		{"prod refuses wildcard among others", "staging", []string{"https://grc.example.com", "*"}, true},
		{"prod refuses empty list", "prod", nil, true},
		{"prod accepts explicit origins", "prod", []string{"https://grc.example.com"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Config{Env: tt.env, AllowedOrigins: tt.origins}.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrWildcardOrigin)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNew_RefusesWildcardOriginOutsideDev(t *testing.T) {
	cfg := LoadConfig()
	cfg.Env = "prod"
	cfg.AllowedOrigins = []string{"*"}

	_, err := New(cfg)
	require.ErrorIs(t, err, ErrWildcardOrigin)
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("GRC_TEST_INT", "many")
	t.Setenv("GRC_TEST_BOOL", "perhaps")
	t.Setenv("GRC_TEST_DURATION", "soon")
	t.Setenv("GRC_TEST_LIST", " , ")

	require.Equal(t, 7, getEnvIntOrDefault("GRC_TEST_INT", 7))
	require.True(t, getEnvBoolOrDefault("GRC_TEST_BOOL", true))
	require.Equal(t, time.Hour, getEnvDurationOrDefault("GRC_TEST_DURATION", time.Hour))
	require.Equal(t, []string{"x"}, getEnvListOrDefault("GRC_TEST_LIST", []string{"x"}))
}
