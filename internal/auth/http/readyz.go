package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/aussiebroadwan/grc/pkg/httpx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
)

// Pinger is anything readiness depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyzTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Pings the credential store and the key-value store. Any failure answers 503 with status "degraded".
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Failure		503	{object}	authsdk.HealthResponse
//	@Router			/readyz [get]
func ReadyzHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		resp := authsdk.HealthResponse{Status: "ok", Checks: make(map[string]string, len(deps))}
		code := http.StatusOK

		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				slogx.FromContext(ctx).Warn("readiness check failed", "check", name, "err", err)
				resp.Checks[name] = "error: " + err.Error()
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		httpx.WriteJSON(w, code, resp)
	}
}
