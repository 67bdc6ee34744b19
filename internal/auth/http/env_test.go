package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/service"
	"github.com/aussiebroadwan/grc/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/grc/pkg/cryptox"
	"github.com/aussiebroadwan/grc/pkg/jwtx"
	"github.com/aussiebroadwan/grc/pkg/kvx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("fedcba9876543210fedcba9876543210")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type codeBox struct {
	mu   sync.Mutex
	last string
}

func (b *codeBox) SendResetCode(_ context.Context, _ domain.User, code string, _ time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = code
	return nil
}

func (b *codeBox) code() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

type testServer struct {
	clock  *testClock
	store  *sqlite.Store
	kv     *kvx.Memory
	router *Router
	codes  *codeBox
}

// newTestServer wires the full router over an in-memory store. Extra
// bypass paths are added to the defaults.
func newTestServer(t *testing.T, extraBypass ...string) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}
	kv := kvx.NewMemory(clock.Now)

	signer, err := jwtx.NewHMACSigner("HS256", testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewHMACVerifier("HS256", testSecret, jwtx.VerifyOptions{
		Issuer: "grc-http-test",
		Now:    clock.Now,
	})
	require.NoError(t, err)

	users := &service.UserService{Store: st}
	tokens := &service.TokenService{
		Signer:   signer,
		Verifier: verifier,
		Store:    st,
		Users:    users,
		Issuer:   "grc-http-test",
		Now:      clock.Now,
	}
	lockout := &service.LockoutService{KV: kv, Now: clock.Now}
	sessions := &service.SessionService{KV: kv}
	codes := &codeBox{}

	r := NewRouter(st, kv, slogx.Discard())
	r.UserService = users
	r.TokenService = tokens
	r.SessionService = sessions
	r.RBACService = &service.RBACService{Store: st, KV: kv}
	r.LoginService = &service.LoginService{
		Users:     users,
		Tokens:    tokens,
		Lockout:   lockout,
		IPLimiter: &service.AttemptLimiter{KV: kv, Prefix: service.LoginIPPrefix, Limit: 10, Window: time.Minute},
		Sessions:  sessions,
	}
	r.PasswordResetService = &service.PasswordResetService{
		Store:    st,
		Users:    users,
		Lockout:  lockout,
		Notifier: codes,
		Now:      clock.Now,
	}
	r.RefreshLimiter = &service.AttemptLimiter{KV: kv, Prefix: service.RefreshIPPrefix, Limit: 100, Window: time.Minute}
	r.BypassPaths = append(append([]string(nil), DefaultBypassPaths...), extraBypass...)
	r.SessionCookie = SessionCookie{Name: "sessionid", TTL: time.Hour}
	r.AllowedOrigins = []string{"*"}
	r.ApplyRoutes()

	return &testServer{clock: clock, store: st, kv: kv, router: r, codes: codes}
}

func (s *testServer) createUser(t *testing.T, username, password string, active bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)
	u := domain.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: hash,
		IsActive:     active,
	}
	id, err := s.store.Users().CreateUser(context.Background(), u)
	require.NoError(t, err)
	u.ID = id
	return u
}

// do sends a request through the whole middleware chain. body is JSON
// encoded unless nil.
func (s *testServer) do(t *testing.T, method, target string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.RemoteAddr = "198.51.100.7:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func sessionCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sessionid" {
			return c
		}
	}
	return nil
}
