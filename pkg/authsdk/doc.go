/*
Package authsdk provides a client SDK for the GRC authentication service and
the error envelope the service itself writes.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (login, refresh, password reset, health)
  - Session: authenticated operations with automatic token refresh

Logging in:

	client := authsdk.NewSDKClient("https://grc.example.com")

	session, login, err := client.AuthenticateWithPassword(ctx, authsdk.LoginRequest{
		Username: "alice",
		Password: "s3cret",
	})
	if login.ConsentRequired {
		_, err = session.AcceptConsent(ctx)
	}

Logging in by numeric user id:

	_, _, err := client.AuthenticateWithPassword(ctx, authsdk.LoginRequest{
		Username:  "42",
		Password:  "s3cret",
		LoginType: authsdk.LoginTypeUserID,
	})

Refresh tokens are single use. A Session refreshes transparently when its
access token is about to expire and keeps the rotated refresh token.

# Errors

Every failure from the service decodes into *APIError. Its Kind mirrors the
HTTP status:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case authsdk.KindRateLimited, authsdk.KindAuthorizationDenied:
			// lockout or throttling; RemainingSeconds says how long to wait
		case authsdk.KindAuthenticationFailure:
			// bad credentials or an invalid token
		}
	}

On the server side the same type is written with WriteError, which produces

	{"status":"error","message":"...","remaining_seconds":840}
*/
package authsdk
