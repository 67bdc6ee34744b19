package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/metrics"
	"github.com/aussiebroadwan/grc/internal/auth/service"
	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/aussiebroadwan/grc/pkg/httpx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
	"github.com/getsentry/sentry-go"
)

// RefreshHandler serves POST /api/jwt/refresh.
type RefreshHandler struct {
	Tokens *service.TokenService

	// Limiter throttles refreshes per client IP. Optional.
	Limiter *service.AttemptLimiter

	// ClientIP keys Limiter.
	ClientIP func(*http.Request) string
}

// ServeHTTP godoc
//
//	@Summary		Rotate a refresh token
//	@Description	Consumes the refresh token and issues a new access/refresh pair. A refresh token works exactly once.
//	@Tags			JWT
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.RefreshResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Refresh token is required"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid, expired or reused refresh token"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many refresh attempts"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal error"
//	@Router			/api/jwt/refresh [post]
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if h.Limiter != nil {
		allowed, wait, err := h.Limiter.Allow(ctx, h.ClientIP(r))
		if err != nil {
			log.Error("refresh limiter failed", slog.Any("err", err))
			metrics.RecordRefresh(metrics.RefreshError)
			authsdk.UpstreamFailure("Token refresh failed").WriteError(w)
			return
		}
		if !allowed {
			metrics.RecordRefresh(metrics.RefreshRateLimited)
			authsdk.RateLimited(
				"Too many refresh attempts. Please wait before trying again.",
				int(wait.Round(time.Second).Seconds()),
			).WriteError(w)
			return
		}
	}

	var req authsdk.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errBadBody) {
			authsdk.ErrInvalidBody.WriteError(w)
			return
		}
		authsdk.ClientInput("Refresh token is required").WriteError(w)
		return
	}

	pair, _, err := h.Tokens.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefresh):
			authsdk.AuthenticationFailure("Invalid refresh token").WriteError(w)
		case errors.Is(err, service.ErrUserNotFound):
			authsdk.AuthenticationFailure("User not found").WriteError(w)
		case errors.Is(err, service.ErrUserInactive):
			authsdk.AuthenticationFailure("User account is inactive").WriteError(w)
		default:
			log.Error("token refresh failed", slog.Any("err", err))
			sentry.CaptureException(err)
			authsdk.UpstreamFailure("Token refresh failed").WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RefreshResponse{
		Status:    "success",
		Message:   "Token refreshed successfully",
		TokenPair: tokenPair(pair),
	})
}
