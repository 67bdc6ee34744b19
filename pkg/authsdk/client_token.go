package authsdk

import (
	"context"
	"net/http"
)

// Login calls POST /api/jwt/login.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/jwt/login", req, "")
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is
// unusable afterwards.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/jwt/refresh", RefreshRequest{RefreshToken: refreshToken}, "")
	if err != nil {
		return nil, err
	}

	var out RefreshResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify calls GET /api/jwt/verify with accessToken.
func (c *SDKClient) Verify(ctx context.Context, accessToken string) (*VerifyResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/api/jwt/verify", nil, accessToken)
	if err != nil {
		return nil, err
	}

	var out VerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout calls POST /api/jwt/logout. A non-empty refreshToken is revoked
// as well.
func (c *SDKClient) Logout(ctx context.Context, accessToken, refreshToken string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/jwt/logout", LogoutRequest{RefreshToken: refreshToken}, accessToken)
	if err != nil {
		return err
	}

	var out StatusResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// AcceptConsent calls POST /api/jwt/accept-consent.
func (c *SDKClient) AcceptConsent(ctx context.Context, accessToken string) (*ConsentResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/jwt/accept-consent", nil, accessToken)
	if err != nil {
		return nil, err
	}

	var out ConsentResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestPasswordReset asks for a reset code to be sent to email.
func (c *SDKClient) RequestPasswordReset(ctx context.Context, email string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/jwt/password-reset/request", PasswordResetRequest{Email: email}, "")
	if err != nil {
		return err
	}

	var out StatusResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// ConfirmPasswordReset sets a new password using a reset code.
func (c *SDKClient) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirm) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/jwt/password-reset/confirm", req, "")
	if err != nil {
		return err
	}

	var out StatusResponse
	return decodeJSON(resp, &out, http.StatusOK)
}
