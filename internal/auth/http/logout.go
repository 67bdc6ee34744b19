package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/grc/internal/auth/service"
	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/aussiebroadwan/grc/pkg/httpx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
)

// LogoutHandler serves POST /api/jwt/logout. It ends the server-side
// session and, when the body names one, revokes a refresh token. Unknown
// sessions and tokens that do not verify are ignored, so the endpoint never
// reveals whether a credential was valid.
type LogoutHandler struct {
	Tokens   *service.TokenService
	Sessions *service.SessionService
	Cookie   SessionCookie
}

// ServeHTTP godoc
//
//	@Summary		Log out
//	@Description	Destroys the session behind the session cookie and revokes the refresh token in the body, if any.
//	@Tags			JWT
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LogoutRequest	false	"Refresh token to revoke"
//	@Success		200		{object}	authsdk.StatusResponse
//	@Failure		500		{object}	authsdk.ErrorResponse	"Logout failed"
//	@Router			/api/jwt/logout [post]
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LogoutRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug("ignoring unreadable logout body", slog.Any("err", err))
	}

	if h.Sessions != nil {
		if c, err := r.Cookie(h.Cookie.name()); err == nil {
			if err := h.Sessions.Destroy(ctx, c.Value); err != nil {
				log.Error("failed to destroy session", slog.Any("err", err))
				authsdk.UpstreamFailure("Logout failed").WriteError(w)
				return
			}
		}
	}
	h.Cookie.clear(w)

	if req.RefreshToken != "" {
		if err := h.Tokens.RevokeRefresh(ctx, req.RefreshToken); err != nil {
			log.Error("failed to revoke refresh token", slog.Any("err", err))
			authsdk.UpstreamFailure("Logout failed").WriteError(w)
			return
		}
	}

	log.Info("logout completed")
	httpx.WriteJSON(w, http.StatusOK, authsdk.StatusResponse{
		Status:  "success",
		Message: "Logout successful",
	})
}
