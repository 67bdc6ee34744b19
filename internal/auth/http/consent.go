package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/grc/internal/auth/service"
	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/aussiebroadwan/grc/pkg/httpx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
)

// AcceptConsentHandler serves POST /api/jwt/accept-consent. The route
// bypasses the gate, so the bearer token is checked here.
type AcceptConsentHandler struct {
	Tokens *service.TokenService
	Users  *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Accept the usage consent
//	@Description	Records that the bearer's user accepted the consent notice. Subsequent logins report consent_required=false.
//	@Tags			JWT
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.ConsentResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or invalid token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Failed to accept consent"
//	@Router			/api/jwt/accept-consent [post]
func (h *AcceptConsentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	u, err := bearerUser(ctx, r, h.Tokens, h.Users)
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) {
			apiErr.WriteError(w)
			return
		}
		authsdk.UpstreamFailure("Failed to accept consent").WriteError(w)
		return
	}

	updated, err := h.Users.AcceptConsent(ctx, u.ID)
	if err != nil {
		log.Error("failed to store consent", slog.Int64("user_id", u.ID), slog.Any("err", err))
		authsdk.UpstreamFailure("Failed to accept consent").WriteError(w)
		return
	}

	log.Info("consent accepted", slog.Int64("user_id", updated.ID))
	httpx.WriteJSON(w, http.StatusOK, authsdk.ConsentResponse{
		Status:          "success",
		Message:         "Consent accepted successfully",
		ConsentAccepted: updated.ConsentFlag(),
		User:            userSummary(updated),
	})
}
