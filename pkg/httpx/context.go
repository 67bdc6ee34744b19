package httpx

import "context"

type ctxKey string

const (
	CtxKeyPrincipal ctxKey = "principal"
)

// AuthSource records how a principal was authenticated.
type AuthSource string

const (
	AuthSourceBearer  AuthSource = "bearer"
	AuthSourceSession AuthSource = "session"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID   int64
	Username string
	Source   AuthSource
}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, CtxKeyPrincipal, p)
}

// PrincipalFromContext returns the principal set by the request gate.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(Principal)
	return p, ok
}
