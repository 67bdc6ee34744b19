package app

import (
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	JWTSecret    string        // Optional in dev: HMAC signing secret (default: random per process)
	JWTAlgorithm string        // Optional: HS256, HS384 or HS512 (default: HS256)
	Issuer       string        // Optional: issuer claim for tokens (default: grc-auth)
	AccessTTL    time.Duration // Optional: access token lifetime (default: 1h)
	RefreshTTL   time.Duration // Optional: refresh token lifetime (default: 168h)

	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: grc-auth.db)
	DatabaseURL    string // Required for postgres: connection string
	Pepper         string // Optional: pepper for password hashing, wins over PepperFile
	PepperFile     string // Optional: path to file containing pepper (default: ./pepper)

	KVBackend     string // Optional: memory or redis (default: memory)
	RedisAddr     string // Optional: redis address (default: localhost:6379)
	RedisPassword string // Optional: redis password
	RedisDB       int    // Optional: redis database (default: 0)

	LoginIPMaxAttempts   int           // Optional: login attempts per IP per window (default: 10)
	LoginIPWindow        time.Duration // Optional: per-IP login window (default: 60s)
	LoginMaxFailures     int           // Optional: failures before a username locks (default: 5)
	LoginLockoutDuration time.Duration // Optional: lockout length (default: 15m)
	RefreshIPMaxAttempts int           // Optional: refreshes per IP per window (default: 100)
	RefreshIPWindow      time.Duration // Optional: per-IP refresh window (default: 60s)

	LicenseCheckEnabled bool          // Optional: verify license keys at login (default: true)
	LicenseServiceURL   string        // Optional: license verification endpoint
	LicenseServiceToken string        // Optional: bearer token for the license service
	LicenseTimeout      time.Duration // Optional: license request timeout (default: 10s)

	BypassPaths         []string      // Optional: public path prefixes (default: built-in list)
	SessionTTL          time.Duration // Optional: session lifetime (default: 24h)
	SessionCookieName   string        // Optional: session cookie name (default: sessionid)
	SessionCookieSecure bool          // Optional: mark the session cookie Secure (default: false)
	AllowedOrigins      []string      // Optional: CORS origins, required outside dev (default: * in dev)
	TrustedProxies      []string      // Optional: proxies whose X-Forwarded-For is believed (CIDRs or IPs)
	RBACCacheTTL        time.Duration // Optional: permission cache lifetime (default: 5m)
	PasswordResetTTL    time.Duration // Optional: reset code lifetime (default: 10m)

	BootstrapUsername string // Optional: seeds a GRC Administrator into an empty store
	BootstrapEmail    string // Optional: email for the seeded administrator
	BootstrapPassword string // Optional: password for the seeded administrator

	SentryDSN            string        // Optional: error reporting, disabled when empty
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		JWTSecret:    os.Getenv("AUTH_JWT_SECRET"),
		JWTAlgorithm: getEnvOrDefault("AUTH_JWT_ALGORITHM", "HS256"),
		Issuer:       getEnvOrDefault("AUTH_ISSUER", "grc-auth"),
		AccessTTL:    getEnvDurationOrDefault("AUTH_ACCESS_TTL", time.Hour),
		RefreshTTL:   getEnvDurationOrDefault("AUTH_REFRESH_TTL", 7*24*time.Hour),

		DatabaseDriver: getEnvOrDefault("AUTH_DATABASE_DRIVER", "sqlite"),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "grc-auth.db"),
		DatabaseURL:    os.Getenv("AUTH_DATABASE_URL"),
		Pepper:         os.Getenv("AUTH_PEPPER"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		KVBackend:     getEnvOrDefault("AUTH_KV_BACKEND", "memory"),
		RedisAddr:     getEnvOrDefault("AUTH_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("AUTH_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("AUTH_REDIS_DB", 0),

		LoginIPMaxAttempts:   getEnvIntOrDefault("LOGIN_IP_MAX_ATTEMPTS", 10),
		LoginIPWindow:        getEnvDurationOrDefault("LOGIN_IP_WINDOW", time.Minute),
		LoginMaxFailures:     getEnvIntOrDefault("LOGIN_MAX_FAILURES", 5),
		LoginLockoutDuration: getEnvDurationOrDefault("LOGIN_LOCKOUT_DURATION", 15*time.Minute),
		RefreshIPMaxAttempts: getEnvIntOrDefault("REFRESH_IP_MAX_ATTEMPTS", 100),
		RefreshIPWindow:      getEnvDurationOrDefault("REFRESH_IP_WINDOW", time.Minute),

		LicenseCheckEnabled: getEnvBoolOrDefault("LICENSE_CHECK_ENABLED", true),
		LicenseServiceURL:   os.Getenv("LICENSE_SERVICE_URL"),
		LicenseServiceToken: os.Getenv("LICENSE_SERVICE_TOKEN"),
		LicenseTimeout:      getEnvDurationOrDefault("LICENSE_TIMEOUT", 10*time.Second),

		BypassPaths:         getEnvListOrDefault("GATE_BYPASS_PATHS", nil),
		SessionTTL:          getEnvDurationOrDefault("SESSION_TTL", 24*time.Hour),
		SessionCookieName:   getEnvOrDefault("SESSION_COOKIE_NAME", "sessionid"),
		SessionCookieSecure: getEnvBoolOrDefault("SESSION_COOKIE_SECURE", false),
		AllowedOrigins:      getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:      getEnvListOrDefault("TRUSTED_PROXIES", nil),
		RBACCacheTTL:        getEnvDurationOrDefault("RBAC_CACHE_TTL", 5*time.Minute),
		PasswordResetTTL:    getEnvDurationOrDefault("PASSWORD_RESET_TTL", 10*time.Minute),

		BootstrapUsername: os.Getenv("AUTH_BOOTSTRAP_USERNAME"),
		BootstrapEmail:    os.Getenv("AUTH_BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("AUTH_BOOTSTRAP_PASSWORD"),

		SentryDSN:            os.Getenv("SENTRY_DSN"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

var ErrWildcardOrigin = errors.New("CORS_ALLOWED_ORIGINS must list explicit origins outside dev")

// Validate rejects settings that are only acceptable on a developer machine.
func (c Config) Validate() error {
	if c.Env != "dev" && (len(c.AllowedOrigins) == 0 || slices.Contains(c.AllowedOrigins, "*")) {
		return ErrWildcardOrigin
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds, matching the *_WINDOW_SEC style elsewhere
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
