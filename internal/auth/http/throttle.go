package http

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/aussiebroadwan/grc/pkg/httpx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
	"golang.org/x/time/rate"
)

// ThrottleProfile is a token bucket: Requests per Window, with Burst
// requests available up front.
type ThrottleProfile struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Generic endpoint throttles. Each can be overridden with
// RATELIMIT_<NAME>_REQUESTS, RATELIMIT_<NAME>_WINDOW_SEC and
// RATELIMIT_<NAME>_BURST.
var (
	// StrictThrottle guards the public password reset endpoints.
	StrictThrottle = ThrottleProfile{Requests: 5, Window: time.Minute, Burst: 5}

	// ModerateThrottle guards logout and consent.
	ModerateThrottle = ThrottleProfile{Requests: 20, Window: time.Minute, Burst: 20}

	// LenientThrottle guards verify, RBAC lookups and health checks.
	LenientThrottle = ThrottleProfile{Requests: 100, Window: time.Minute, Burst: 100}
)

func init() {
	StrictThrottle = ThrottleFromEnv("STRICT", StrictThrottle)
	ModerateThrottle = ThrottleFromEnv("MODERATE", ModerateThrottle)
	LenientThrottle = ThrottleFromEnv("LENIENT", LenientThrottle)
}

// ThrottleFromEnv applies RATELIMIT_<name>_* overrides to def. Values that
// are not positive integers are ignored.
func ThrottleFromEnv(name string, def ThrottleProfile) ThrottleProfile {
	p := def
	if n, ok := positiveEnv("RATELIMIT_" + name + "_REQUESTS"); ok {
		p.Requests = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + name + "_WINDOW_SEC"); ok {
		p.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + name + "_BURST"); ok {
		p.Burst = n
	}
	return p
}

func positiveEnv(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// throttle keeps one token bucket per key. Buckets idle for longer than
// idle are dropped on the next sweep.
type throttle struct {
	profile ThrottleProfile
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	idle      time.Duration
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newThrottle(p ThrottleProfile, now func() time.Time) *throttle {
	if now == nil {
		now = time.Now
	}
	return &throttle{
		profile:   p,
		now:       now,
		buckets:   make(map[string]*bucket),
		idle:      max(2*p.Window, time.Minute),
		lastSweep: now(),
	}
}

// allow takes a token for key. When none is left it reports how long until
// the next one.
func (t *throttle) allow(key string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) >= t.idle {
		for k, b := range t.buckets {
			if now.Sub(b.lastSeen) >= t.idle {
				delete(t.buckets, k)
			}
		}
		t.lastSweep = now
	}

	b, ok := t.buckets[key]
	if !ok {
		every := t.profile.Window / time.Duration(max(t.profile.Requests, 1))
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), t.profile.Burst)}
		t.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return true, 0
	}
	res := b.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

// throttleBy rate limits requests grouped by key. Requests without a key
// pass through.
func throttleBy(p ThrottleProfile, key func(*http.Request) string) httpx.Middleware {
	t := newThrottle(p, nil)
	limit := strconv.Itoa(p.Requests)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := t.allow(k)
			if !ok {
				secs := int((wait + time.Second - 1) / time.Second)
				slogx.FromContext(r.Context()).Warn("request throttled",
					"key", k,
					"path", r.URL.Path,
					"retry_after", secs,
				)
				w.Header().Set("X-RateLimit-Limit", limit)
				w.Header().Set("X-RateLimit-Window", p.Window.String())
				authsdk.RateLimited("Too many requests. Please try again later.", secs).WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the caller's address through the configured proxies.
func (r *Router) clientIP(req *http.Request) string {
	return r.ClientIP.Resolve(req)
}

// userOrIPKey groups authenticated callers by user and everyone else by
// address.
func (r *Router) userOrIPKey(req *http.Request) string {
	if p, ok := httpx.PrincipalFromContext(req.Context()); ok {
		return "user:" + strconv.FormatInt(p.UserID, 10)
	}
	return "ip:" + r.clientIP(req)
}

func (r *Router) throttleByIP(p ThrottleProfile) httpx.Middleware {
	return throttleBy(p, r.clientIP)
}

func (r *Router) throttleByUser(p ThrottleProfile) httpx.Middleware {
	return throttleBy(p, r.userOrIPKey)
}
