package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/service"
	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/aussiebroadwan/grc/pkg/httpx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
)

// bearerUser authenticates r from its bearer token alone. The jwt
// endpoints that bypass the gate use it to re-verify the caller.
func bearerUser(ctx context.Context, r *http.Request, tokens *service.TokenService, users *service.UserService) (domain.User, error) {
	log := slogx.FromContext(ctx)

	token, ok := httpx.BearerToken(r)
	if !ok {
		return domain.User{}, authsdk.AuthenticationFailure("Authorization header with Bearer token is required")
	}

	claims, err := tokens.VerifyAccess(ctx, token)
	if err != nil {
		return domain.User{}, authsdk.AuthenticationFailure("Invalid or expired token")
	}
	if claims.UserID <= 0 {
		return domain.User{}, authsdk.AuthenticationFailure("Invalid token payload")
	}

	u, err := users.GetUserByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return domain.User{}, authsdk.AuthenticationFailure("User not found")
	case err != nil:
		log.Error("user lookup failed", slog.Int64("user_id", claims.UserID), slog.Any("err", err))
		return domain.User{}, err
	case !u.IsActive:
		return domain.User{}, authsdk.AuthenticationFailure("User account is inactive")
	}
	return u, nil
}

// VerifyHandler serves GET /api/jwt/verify.
type VerifyHandler struct {
	Tokens *service.TokenService
	Users  *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Verify an access token
//	@Description	Validates the bearer token and returns the current state of the user it names.
//	@Tags			JWT
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.VerifyResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing, invalid or expired token, or unknown user"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Token verification failed"
//	@Router			/api/jwt/verify [get]
func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u, err := bearerUser(r.Context(), r, h.Tokens, h.Users)
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) {
			apiErr.WriteError(w)
			return
		}
		authsdk.UpstreamFailure("Token verification failed").WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{
		Status:  "success",
		Message: "Token is valid",
		User:    userSummary(u),
	})
}
