package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/aussiebroadwan/grc/internal/auth/metrics"
	"github.com/aussiebroadwan/grc/internal/auth/service"
	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/aussiebroadwan/grc/pkg/httpx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
	"github.com/getsentry/sentry-go"
)

// DefaultBypassPaths are reachable without credentials. The jwt endpoints
// authenticate the caller themselves.
var DefaultBypassPaths = []string{
	"/api/login",
	"/api/jwt/login",
	"/api/jwt/refresh",
	"/api/jwt/verify",
	"/api/jwt/logout",
	"/api/jwt/accept-consent",
	"/api/jwt/password-reset",
	"/oauth/callback",
	"/livez",
	"/readyz",
	"/metrics",
	"/swagger",
}

// BypassList matches request paths against public prefixes. An entry
// matches itself and every path below it, segment by segment: "/api/users"
// covers "/api/users/7" but not "/api/users-export".
type BypassList struct {
	prefixes []string
}

// NewBypassList normalises entries. Empty entries and "/" are dropped so a
// stray separator can never open the whole API.
func NewBypassList(paths []string) *BypassList {
	b := &BypassList{}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		p = strings.TrimRight(path.Clean(p), "/")
		if p == "" {
			continue
		}
		b.prefixes = append(b.prefixes, p)
	}
	return b
}

// Match reports whether p is public.
func (b *BypassList) Match(p string) bool {
	if b == nil {
		return false
	}
	p = path.Clean("/" + p)
	for _, prefix := range b.prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// Paths returns the normalised entries.
func (b *BypassList) Paths() []string {
	return append([]string(nil), b.prefixes...)
}

// Gate authenticates every request that is not on the bypass list. A bearer
// token wins over a session cookie; with neither the request is refused.
// Every refusal is a 401 carrying one of a fixed set of reasons.
type Gate struct {
	Tokens   *service.TokenService
	Users    *service.UserService
	Sessions *service.SessionService
	Bypass   *BypassList

	// CookieName is the session cookie consulted when no bearer token is
	// sent.
	CookieName string
}

var (
	errGateInvalidPayload = authsdk.AuthenticationFailure("Invalid token payload")
	errGateUserNotFound   = authsdk.AuthenticationFailure("User not found")
	errGateInactive       = authsdk.AuthenticationFailure("User account is inactive")
	errGateRequired       = authsdk.AuthenticationFailure("Authentication required")
	errGateInternal       = authsdk.AuthenticationFailure("Authentication error")
)

// Middleware returns the gate as an httpx.Middleware.
func (g *Gate) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.Bypass.Match(r.URL.Path) {
				metrics.RecordGate(metrics.GateBypass)
				next.ServeHTTP(w, r)
				return
			}

			p, decision, apiErr := g.authenticate(r)
			metrics.RecordGate(decision)
			if apiErr != nil {
				apiErr.WriteError(w)
				return
			}

			ctx := httpx.WithPrincipal(r.Context(), p)
			ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With(slog.Int64("user_id", p.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (g *Gate) authenticate(r *http.Request) (httpx.Principal, string, *authsdk.APIError) {
	ctx := r.Context()
	l := slogx.FromContext(ctx).With(slog.String("path", r.URL.Path))

	if token, ok := httpx.BearerToken(r); ok {
		claims, err := g.Tokens.VerifyAccess(ctx, token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				l.Info("gate refused expired token")
			} else {
				l.Warn("gate refused invalid token")
			}
			return httpx.Principal{}, metrics.GateReject, errGateInvalidPayload
		}
		if claims.UserID <= 0 {
			l.Warn("token without user id")
			return httpx.Principal{}, metrics.GateReject, errGateInvalidPayload
		}
		return g.admit(ctx, l, claims.UserID, httpx.AuthSourceBearer)
	}

	if g.Sessions != nil && g.CookieName != "" {
		if c, err := r.Cookie(g.CookieName); err == nil && c.Value != "" {
			userID, err := g.Sessions.Resolve(ctx, c.Value)
			switch {
			case err == nil:
				return g.admit(ctx, l, userID, httpx.AuthSourceSession)
			case !errors.Is(err, service.ErrSessionNotFound):
				l.Error("session lookup failed", slog.Any("err", err))
				sentry.CaptureException(err)
				return httpx.Principal{}, metrics.GateError, errGateInternal
			}
		}
	}

	l.Info("no credentials presented")
	return httpx.Principal{}, metrics.GateReject, errGateRequired
}

// admit re-loads the user behind a credential and refuses missing or
// inactive accounts.
func (g *Gate) admit(ctx context.Context, l *slog.Logger, userID int64, src httpx.AuthSource) (httpx.Principal, string, *authsdk.APIError) {
	u, err := g.Users.GetUserByID(ctx, userID)
	if errors.Is(err, service.ErrUserNotFound) {
		l.Warn("credential for unknown user", slog.Int64("user_id", userID))
		return httpx.Principal{}, metrics.GateReject, errGateUserNotFound
	}
	if err != nil {
		l.Error("user lookup failed", slog.Int64("user_id", userID), slog.Any("err", err))
		sentry.CaptureException(err)
		return httpx.Principal{}, metrics.GateError, errGateInternal
	}
	if !u.IsActive {
		l.Warn("inactive user refused", slog.Int64("user_id", userID), slog.String("source", string(src)))
		return httpx.Principal{}, metrics.GateReject, errGateInactive
	}

	decision := metrics.GateBearer
	if src == httpx.AuthSourceSession {
		decision = metrics.GateSession
	}
	return httpx.Principal{UserID: u.ID, Username: u.Username, Source: src}, decision, nil
}
