package http

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/aussiebroadwan/grc/internal/auth/metrics"
	"github.com/aussiebroadwan/grc/internal/auth/service"
	"github.com/aussiebroadwan/grc/internal/auth/store"
	"github.com/aussiebroadwan/grc/pkg/httpx"
	"github.com/aussiebroadwan/grc/pkg/kvx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	_ "github.com/aussiebroadwan/grc/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	logger *slog.Logger
	store  store.Store
	kv     kvx.Store

	UserService          *service.UserService
	TokenService         *service.TokenService
	LoginService         *service.LoginService
	SessionService       *service.SessionService
	RBACService          *service.RBACService
	PasswordResetService *service.PasswordResetService

	// RefreshLimiter throttles POST /api/jwt/refresh per client IP.
	RefreshLimiter *service.AttemptLimiter

	// BypassPaths are served without authentication. Nil means
	// DefaultBypassPaths.
	BypassPaths []string

	// ClientIP resolves caller addresses for every per-IP limit. Nil
	// trusts no proxy and keys on the peer address.
	ClientIP *httpx.ClientIP

	// AllowedOrigins feeds CORS. "*" echoes any origin back, with
	// credentials, and is refused by the app outside dev. Empty allows no
	// cross-origin caller.
	AllowedOrigins []string

	SessionCookie SessionCookie
}

func NewRouter(st store.Store, kv kvx.Store, logger *slog.Logger) *Router {
	return &Router{
		Mux:    http.NewServeMux(),
		logger: logger,
		store:  st,
		kv:     kv,
	}
}

// ApplyRoutes registers every route and builds the global middleware chain.
// Services must be set before it is called.
func (r *Router) ApplyRoutes() {
	r.registerJWT()
	r.registerPasswordReset()
	r.registerRBAC()
	r.registerSystem()

	bypass := r.BypassPaths
	if bypass == nil {
		bypass = DefaultBypassPaths
	}
	gate := &Gate{
		Tokens:     r.TokenService,
		Users:      r.UserService,
		Sessions:   r.SessionService,
		Bypass:     NewBypassList(bypass),
		CookieName: r.SessionCookie.name(),
	}

	r.middlewares = []httpx.Middleware{
		middleware.StripSlashes,
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
		r.cors(),
		metrics.Middleware(r.routeOf),
		gate.Middleware(),
	}
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						GRC Authentication Service API
//	@version					0.1.0
//	@description				JWT login, refresh and verification for the GRC platform, with per-IP throttling, username lockout, license checks and RBAC lookups.
//	@description
//	@description				Access and refresh tokens are HMAC-signed JWTs. Every route outside the public list requires a bearer token or a session cookie.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/grc
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// routeOf labels metrics with the matched mux pattern so ids in paths do
// not explode label cardinality.
func (r *Router) routeOf(req *http.Request) string {
	_, pattern := r.Mux.Handler(req)
	return pattern
}

func (r *Router) cors() httpx.Middleware {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRFToken", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	switch {
	case slices.Contains(r.AllowedOrigins, "*"):
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	case len(r.AllowedOrigins) == 0:
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	default:
		opts.AllowedOrigins = r.AllowedOrigins
	}
	return cors.Handler(opts)
}

func (r *Router) registerJWT() {
	// POST /login - the service applies its own per-IP and per-username limits
	r.Mux.Handle("POST /api/jwt/login", &LoginHandler{
		Login:    r.LoginService,
		Cookie:   r.SessionCookie,
		ClientIP: r.clientIP,
	})

	// POST /refresh - per-IP attempt limiter inside the handler
	r.Mux.Handle("POST /api/jwt/refresh", &RefreshHandler{
		Tokens:   r.TokenService,
		Limiter:  r.RefreshLimiter,
		ClientIP: r.clientIP,
	})

	r.Mux.Handle("GET /api/jwt/verify",
		httpx.Chain(&VerifyHandler{Tokens: r.TokenService, Users: r.UserService},
			r.throttleByIP(LenientThrottle),
		),
	)

	r.Mux.Handle("POST /api/jwt/logout",
		httpx.Chain(&LogoutHandler{
			Tokens:   r.TokenService,
			Sessions: r.SessionService,
			Cookie:   r.SessionCookie,
		},
			r.throttleByIP(ModerateThrottle),
		),
	)

	r.Mux.Handle("POST /api/jwt/accept-consent",
		httpx.Chain(&AcceptConsentHandler{Tokens: r.TokenService, Users: r.UserService},
			r.throttleByIP(ModerateThrottle),
		),
	)
}

func (r *Router) registerPasswordReset() {
	if r.PasswordResetService == nil {
		return
	}
	h := &PasswordResetHandler{Resets: r.PasswordResetService}

	// Both endpoints are public; strict limits keep code guessing slow
	r.Mux.Handle("POST /api/jwt/password-reset/request",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			r.throttleByIP(StrictThrottle),
		),
	)
	r.Mux.Handle("POST /api/jwt/password-reset/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			r.throttleByIP(StrictThrottle),
		),
	)
}

func (r *Router) registerRBAC() {
	if r.RBACService == nil {
		return
	}
	h := &RBACHandler{Resolver: r.RBACService}

	// Gate-protected - lenient rate limit by user
	r.Mux.Handle("GET /api/rbac/permissions",
		httpx.Chain(http.HandlerFunc(h.HandlePermissions),
			r.throttleByUser(LenientThrottle),
		),
	)
	r.Mux.Handle("GET /api/rbac/permissions/check",
		httpx.Chain(http.HandlerFunc(h.HandleCheck),
			r.throttleByUser(LenientThrottle),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(),
			r.throttleByIP(LenientThrottle),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(map[string]Pinger{"database": r.store, "kv": r.kv}),
			r.throttleByIP(LenientThrottle),
		),
	)

	r.Mux.Handle("GET /metrics", metrics.Handler())

	// StripSlashes turns "/swagger/" into "/swagger", so that path gets an
	// explicit redirect instead of the mux's own.
	r.Mux.HandleFunc("GET /swagger", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
}
