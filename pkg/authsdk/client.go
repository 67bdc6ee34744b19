package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the GRC authentication service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AuthenticateWithPassword logs in and wraps the resulting tokens in a Session.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, req LoginRequest) (*Session, *LoginResponse, error) {
	resp, err := c.Login(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return newSession(c, resp.TokenPair), resp, nil
}

// NewSessionFromTokens creates an authenticated session from existing tokens.
// The session will still perform auto-refresh when the access token expires.
func (c *SDKClient) NewSessionFromTokens(pair TokenPair) *Session {
	return newSession(c, pair)
}
