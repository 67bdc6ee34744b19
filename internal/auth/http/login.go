package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/grc/internal/auth/service"
	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/aussiebroadwan/grc/pkg/httpx"
)

// LoginHandler serves POST /api/jwt/login.
type LoginHandler struct {
	Login  *service.LoginService
	Cookie SessionCookie

	// ClientIP keys the per-IP attempt limit.
	ClientIP func(*http.Request) string
}

// ServeHTTP godoc
//
//	@Summary		Log in with a password
//	@Description	Checks the per-IP throttle and the username lockout, verifies the password and the user's license, then issues an access/refresh pair.
//	@Description	login_type "userid" treats username as the numeric user id. A server-side session cookie is set as well.
//	@Tags			JWT
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing fields or malformed user id"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Bad credentials or inactive account"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Locked out or license denied"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many attempts from this IP"
//	@Failure		500		{object}	authsdk.ErrorResponse	"License service or internal error"
//	@Router			/api/jwt/login [post]
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errBadBody) {
			authsdk.ErrInvalidBody.WriteError(w)
			return
		}
		authsdk.ClientInput(validationMessage(err)).WriteError(w)
		return
	}

	res, err := h.Login.Login(r.Context(), service.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		LoginType: req.LoginType,
		ClientIP:  h.ClientIP(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if res.SessionID != "" {
		h.Cookie.set(w, res.SessionID)
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Status:          "success",
		Message:         "Login successful",
		LicenseVerified: res.LicenseVerified,
		TokenPair:       tokenPair(res.Tokens),
		ConsentRequired: res.ConsentRequired,
		User:            userSummary(res.User),
	})
}
