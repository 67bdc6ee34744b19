package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/grc/pkg/cryptox"
	"github.com/aussiebroadwan/grc/pkg/jwtx"
	"github.com/aussiebroadwan/grc/pkg/kvx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	clock *fakeClock
	store *sqlite.Store
	kv    *kvx.Memory

	users    *UserService
	tokens   *TokenService
	lockout  *LockoutService
	ipLimit  *AttemptLimiter
	sessions *SessionService
	rbac     *RBACService
	login    *LoginService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	clock := newFakeClock()
	kv := kvx.NewMemory(clock.Now)

	signer, err := jwtx.NewHMACSigner("HS256", testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewHMACVerifier("HS256", testSecret, jwtx.VerifyOptions{
		Issuer: "grc-test",
		Now:    clock.Now,
	})
	require.NoError(t, err)

	env := &testEnv{clock: clock, store: st, kv: kv}
	env.users = &UserService{Store: st}
	env.tokens = &TokenService{
		Signer:   signer,
		Verifier: verifier,
		Store:    st,
		Users:    env.users,
		Issuer:   "grc-test",
		Now:      clock.Now,
	}
	env.lockout = &LockoutService{KV: kv, Now: clock.Now}
	env.ipLimit = &AttemptLimiter{KV: kv, Prefix: LoginIPPrefix, Limit: 10, Window: time.Minute}
	env.sessions = &SessionService{KV: kv}
	env.rbac = &RBACService{Store: st, KV: kv}
	env.login = &LoginService{
		Users:     env.users,
		Tokens:    env.tokens,
		Lockout:   env.lockout,
		IPLimiter: env.ipLimit,
		Sessions:  env.sessions,
	}
	return env
}

// createUser stores an active user with an argon2id hash of password.
func (e *testEnv) createUser(t *testing.T, username, password string, opts ...func(*domain.User)) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "First",
		LastName:     "Last",
		PasswordHash: hash,
		IsActive:     true,
	}
	for _, opt := range opts {
		opt(&u)
	}

	id, err := e.store.Users().CreateUser(context.Background(), u)
	require.NoError(t, err)
	u.ID = id
	return u
}

func withPasswordHash(hash string) func(*domain.User) {
	return func(u *domain.User) { u.PasswordHash = hash }
}

func inactive(u *domain.User) { u.IsActive = false }

func withLicense(key string) func(*domain.User) {
	return func(u *domain.User) { u.LicenseKey = key }
}

func withConsent(u *domain.User) { u.ConsentAccepted = true }
