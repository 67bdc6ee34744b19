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

const resetRequestedMessage = "If an account exists for that email, a reset code has been sent."

// PasswordResetHandler serves the two password reset endpoints.
type PasswordResetHandler struct {
	Resets *service.PasswordResetService
}

// HandleRequest handles POST /api/jwt/password-reset/request
//
//	@Summary		Request a password reset code
//	@Description	Sends a one-time code to the account's email. The answer is identical whether or not the account exists.
//	@Tags			Password Reset
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.PasswordResetRequest	true	"Account email"
//	@Success		200		{object}	authsdk.StatusResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed email"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal error"
//	@Router			/api/jwt/password-reset/request [post]
func (h *PasswordResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.PasswordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errBadBody) {
			authsdk.ErrInvalidBody.WriteError(w)
			return
		}
		authsdk.ClientInput(validationMessage(err)).WriteError(w)
		return
	}

	if err := h.Resets.Request(ctx, req.Email); err != nil {
		slogx.FromContext(ctx).Error("password reset request failed", slog.Any("err", err))
		authsdk.ErrInternal.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.StatusResponse{
		Status:  "success",
		Message: resetRequestedMessage,
	})
}

// HandleConfirm handles POST /api/jwt/password-reset/confirm
//
//	@Summary		Set a new password with a reset code
//	@Description	Redeems the latest reset code for the account. Five wrong codes invalidate it.
//	@Tags			Password Reset
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.PasswordResetConfirm	true	"Email, code and new password"
//	@Success		200		{object}	authsdk.StatusResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid or expired code, or weak password"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal error"
//	@Router			/api/jwt/password-reset/confirm [post]
func (h *PasswordResetHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.PasswordResetConfirm
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errBadBody) {
			authsdk.ErrInvalidBody.WriteError(w)
			return
		}
		authsdk.ClientInput(validationMessage(err)).WriteError(w)
		return
	}

	err := h.Resets.Confirm(ctx, req.Email, req.Code, req.NewPassword)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidResetCode):
		authsdk.ClientInput("Invalid or expired code").WriteError(w)
		return
	case errors.Is(err, service.ErrWeakPassword):
		authsdk.ClientInput("Password does not meet requirements").WriteError(w)
		return
	default:
		slogx.FromContext(ctx).Error("password reset confirm failed", slog.Any("err", err))
		authsdk.ErrInternal.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.StatusResponse{
		Status:  "success",
		Message: "Password has been reset",
	})
}
