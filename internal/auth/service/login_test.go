package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

type stubLicense struct {
	err   error
	calls int
}

func (s *stubLicense) VerifyLicense(context.Context, string) error {
	s.calls++
	return s.err
}

func requireAPIError(t *testing.T, err error, kind authsdk.ErrorKind, message string) *authsdk.APIError {
	t.Helper()
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, kind, apiErr.Kind)
	if message != "" {
		require.Equal(t, message, apiErr.Message)
	}
	return apiErr
}

func loginAs(username, password string) LoginInput {
	return LoginInput{Username: username, Password: password, ClientIP: "192.0.2.10"}
}

func TestLogin_ActiveUserWithoutLicenseCheck(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice-password")

	res, err := env.login.Login(ctx, loginAs("alice", "alice-password"))
	require.NoError(t, err)
	require.Equal(t, alice.ID, res.User.ID)
	require.True(t, res.LicenseVerified)
	require.True(t, res.ConsentRequired)
	require.NotEmpty(t, res.Tokens.AccessToken)
	require.NotEmpty(t, res.Tokens.RefreshToken)

	claims, err := env.tokens.VerifyAccess(ctx, res.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, alice.ID, claims.UserID)

	userID, err := env.sessions.Resolve(ctx, res.SessionID)
	require.NoError(t, err)
	require.Equal(t, alice.ID, userID)

	t.Run("consent flag follows the stored value", func(t *testing.T) {
		env.createUser(t, "dave", "dave-password", withConsent)
		res, err := env.login.Login(ctx, loginAs("dave", "dave-password"))
		require.NoError(t, err)
		require.False(t, res.ConsentRequired)
	})
}

func TestLogin_RepeatedSuccessDoesNotAccumulate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice-password")

	_, err := env.login.Login(ctx, loginAs("alice", "wrong"))
	require.Error(t, err)

	for range 2 {
		_, err := env.login.Login(ctx, loginAs("alice", "alice-password"))
		require.NoError(t, err)
	}

	_, err = env.login.Login(ctx, loginAs("alice", "wrong"))
	apiErr := requireAPIError(t, err, authsdk.KindAuthenticationFailure, "Invalid username or password. (1/5 attempts)")
	require.Equal(t, 1, apiErr.Attempts)
}

func TestLogin_LockoutAfterFiveFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, "bob", "bob-password")

	for i := 1; i < 5; i++ {
		_, err := env.login.Login(ctx, loginAs("bob", "nope"))
		requireAPIError(t, err, authsdk.KindAuthenticationFailure,
			fmt.Sprintf("Invalid username or password. (%d/5 attempts)", i))
	}

	_, err := env.login.Login(ctx, loginAs("bob", "nope"))
	requireAPIError(t, err, authsdk.KindAuthorizationDenied,
		"Too many failed login attempts. Account locked for 15 minutes. (Attempt 5/5)")

	env.clock.Advance(14 * time.Minute)

	// Even the right password is refused while locked.
	_, err = env.login.Login(ctx, loginAs("bob", "bob-password"))
	apiErr := requireAPIError(t, err, authsdk.KindAuthorizationDenied,
		"Account temporarily locked due to too many failed login attempts. Please try again in 2 minute(s).")
	require.Equal(t, 60, apiErr.RemainingSeconds)
	require.NotEmpty(t, apiErr.LockedUntil)

	env.clock.Advance(time.Minute)
	_, err = env.login.Login(ctx, loginAs("bob", "bob-password"))
	require.NoError(t, err)
}

func TestLogin_InactiveUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, "carol", "carol-password", inactive)

	_, err := env.login.Login(ctx, loginAs("carol", "carol-password"))
	requireAPIError(t, err, authsdk.KindAuthenticationFailure, "User account is inactive")

	// The inactive check follows a password match, so no failure was counted.
	res, err := env.lockout.RecordFailure(ctx, "carol")
	require.NoError(t, err)
	require.Equal(t, 1, res.Attempts)
}

func TestLogin_UnknownUserCountsAsFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.login.Login(ctx, loginAs("ghost", "whatever"))
	requireAPIError(t, err, authsdk.KindAuthenticationFailure, "Invalid username or password. (1/5 attempts)")
}

func TestLogin_ByUserID(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice-password")

	in := LoginInput{
		Username:  strconv.FormatInt(alice.ID, 10),
		Password:  "alice-password",
		LoginType: authsdk.LoginTypeUserID,
	}
	res, err := env.login.Login(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "alice", res.User.Username)

	in.Username = "alice"
	_, err = env.login.Login(ctx, in)
	requireAPIError(t, err, authsdk.KindClientInput, "Invalid user ID format. Please enter a valid number.")

	in.Username = strconv.FormatInt(alice.ID, 10)
	in.Password = "wrong"
	_, err = env.login.Login(ctx, in)
	requireAPIError(t, err, authsdk.KindAuthenticationFailure, "Invalid userid or password. (1/5 attempts)")
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.login.Login(context.Background(), LoginInput{Username: "alice"})
	requireAPIError(t, err, authsdk.KindClientInput, "Username and password are required")
}

func TestLogin_IPRateLimit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice-password")

	for range 10 {
		_, err := env.login.Login(ctx, loginAs("alice", "alice-password"))
		require.NoError(t, err)
	}

	_, err := env.login.Login(ctx, loginAs("alice", "alice-password"))
	apiErr := requireAPIError(t, err, authsdk.KindRateLimited,
		"Too many login attempts from this IP. Please wait 1 minute and try again.")
	require.Equal(t, 60, apiErr.RemainingSeconds)

	other := loginAs("alice", "alice-password")
	other.ClientIP = "192.0.2.11"
	_, err = env.login.Login(ctx, other)
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	_, err = env.login.Login(ctx, loginAs("alice", "alice-password"))
	require.NoError(t, err)
}

func TestLogin_License(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, verifierErr error) (*testEnv, *stubLicense) {
		env := newTestEnv(t)
		stub := &stubLicense{err: verifierErr}
		env.login.License = stub
		env.login.LicenseCheckEnabled = true
		return env, stub
	}

	t.Run("verified", func(t *testing.T) {
		env, stub := setup(t, nil)
		env.createUser(t, "alice", "alice-password", withLicense("LIC-0001-ABCDEFGH"))

		res, err := env.login.Login(ctx, loginAs("alice", "alice-password"))
		require.NoError(t, err)
		require.True(t, res.LicenseVerified)
		require.Equal(t, 1, stub.calls)
	})

	t.Run("no key assigned", func(t *testing.T) {
		env, stub := setup(t, nil)
		env.createUser(t, "alice", "alice-password")

		_, err := env.login.Login(ctx, loginAs("alice", "alice-password"))
		requireAPIError(t, err, authsdk.KindAuthorizationDenied,
			"No license key assigned to this user. Please contact your administrator.")
		require.Zero(t, stub.calls)
	})

	t.Run("rejected", func(t *testing.T) {
		env, _ := setup(t, &LicenseRejectedError{Reason: "<b>License expired</b>"})
		env.createUser(t, "alice", "alice-password", withLicense("LIC-0001-ABCDEFGH"))

		_, err := env.login.Login(ctx, loginAs("alice", "alice-password"))
		apiErr := requireAPIError(t, err, authsdk.KindAuthorizationDenied,
			"License verification failed. Please contact your administrator.")
		require.Equal(t, "License expired", apiErr.LicenseError)
	})

	t.Run("upstream failure", func(t *testing.T) {
		env, _ := setup(t, fmt.Errorf("%w: connection refused", ErrLicenseUpstream))
		env.createUser(t, "alice", "alice-password", withLicense("LIC-0001-ABCDEFGH"))

		_, err := env.login.Login(ctx, loginAs("alice", "alice-password"))
		apiErr := requireAPIError(t, err, authsdk.KindUpstreamFailure,
			"License verification error. Please contact your administrator.")
		require.Contains(t, apiErr.LicenseError, "connection refused")
	})

	t.Run("disabled skips the verifier", func(t *testing.T) {
		env, stub := setup(t, errors.New("must not be called"))
		env.login.LicenseCheckEnabled = false
		env.createUser(t, "alice", "alice-password")

		res, err := env.login.Login(ctx, loginAs("alice", "alice-password"))
		require.NoError(t, err)
		require.True(t, res.LicenseVerified)
		require.Zero(t, stub.calls)
	})
}

func TestLogin_PlaintextPasswordIsMigrated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "legacy", "", withPasswordHash("old-plain-pass"))

	_, err := env.login.Login(ctx, loginAs("legacy", "old-plain-pass"))
	require.NoError(t, err)

	stored, err := env.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotEqual(t, "old-plain-pass", stored.PasswordHash)

	_, err = env.login.Login(ctx, loginAs("legacy", "old-plain-pass"))
	require.NoError(t, err)
}
