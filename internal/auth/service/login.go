package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/metrics"
	"github.com/aussiebroadwan/grc/pkg/authsdk"
	"github.com/aussiebroadwan/grc/pkg/slogx"
	"github.com/getsentry/sentry-go"
)

// LoginInput is one login attempt as received from the client.
type LoginInput struct {
	Username  string
	Password  string
	LoginType string // authsdk.LoginTypeUsername (default) or authsdk.LoginTypeUserID
	ClientIP  string
}

// LoginResult is a successful login.
type LoginResult struct {
	User            domain.User
	Tokens          domain.TokenPair
	SessionID       string
	LicenseVerified bool
	ConsentRequired bool
}

// LoginService composes throttling, lockout, credential checks, license
// verification and token issuance into the login flow. Every error it
// returns is an *authsdk.APIError.
type LoginService struct {
	Users     *UserService
	Tokens    *TokenService
	Lockout   *LockoutService
	IPLimiter *AttemptLimiter

	// Sessions is optional. When set, a successful login also opens a
	// server-side session.
	Sessions *SessionService

	License             LicenseVerifier
	LicenseCheckEnabled bool
}

// Login runs one login attempt.
func (s *LoginService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	res, outcome, err := s.login(ctx, in)
	metrics.RecordLogin(outcome)
	return res, err
}

func (s *LoginService) login(ctx context.Context, in LoginInput) (*LoginResult, string, error) {
	l := slogx.FromContext(ctx)

	if in.Username == "" || in.Password == "" {
		return nil, metrics.LoginInvalidInput, authsdk.ClientInput("Username and password are required")
	}
	loginType := in.LoginType
	if loginType == "" {
		loginType = authsdk.LoginTypeUsername
	}

	if s.IPLimiter != nil {
		ip := in.ClientIP
		if ip == "" {
			ip = "unknown"
		}
		allowed, wait, err := s.IPLimiter.Allow(ctx, ip)
		if err != nil {
			return nil, metrics.LoginError, s.internal(ctx, "login ip limiter", err)
		}
		if !allowed {
			l.Warn("login rate limited", slog.String("client_ip", ip))
			return nil, metrics.LoginRateLimited, authsdk.RateLimited(
				"Too many login attempts from this IP. Please wait 1 minute and try again.",
				int(wait.Round(time.Second).Seconds()),
			)
		}
	}

	status, err := s.Lockout.Status(ctx, in.Username)
	if err != nil {
		return nil, metrics.LoginError, s.internal(ctx, "lockout status", err)
	}
	if status.Locked {
		secs := status.RemainingSeconds()
		apiErr := authsdk.AuthorizationDenied(fmt.Sprintf(
			"Account temporarily locked due to too many failed login attempts. Please try again in %d minute(s).",
			secs/60+1,
		))
		apiErr.RemainingSeconds = secs
		apiErr.LockedUntil = status.Until.UTC().Format(time.RFC3339)
		return nil, metrics.LoginLocked, apiErr
	}

	u, found, err := s.lookup(ctx, in.Username, loginType)
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) {
			return nil, metrics.LoginInvalidInput, apiErr
		}
		return nil, metrics.LoginError, s.internal(ctx, "user lookup", err)
	}

	if !found || !s.Users.VerifyPassword(ctx, u, in.Password) {
		outcome, err := s.failure(ctx, in.Username, loginType)
		return nil, outcome, err
	}

	if !u.IsActive {
		l.Info("login refused for inactive user", slog.Int64("user_id", u.ID))
		return nil, metrics.LoginInactive, authsdk.AuthenticationFailure("User account is inactive")
	}

	if outcome, err := s.checkLicense(ctx, u); err != nil {
		return nil, outcome, err
	}

	if err := s.Lockout.Reset(ctx, in.Username); err != nil {
		l.Warn("failed to clear lockout counters", slog.Int64("user_id", u.ID), slog.Any("err", err))
	}

	tokens, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, metrics.LoginError, s.internal(ctx, "issue tokens", err)
	}

	res := &LoginResult{
		User:            u,
		Tokens:          tokens,
		LicenseVerified: true,
		ConsentRequired: !u.ConsentAccepted,
	}

	if s.Sessions != nil {
		id, err := s.Sessions.Create(ctx, u.ID)
		if err != nil {
			l.Warn("failed to create session", slog.Int64("user_id", u.ID), slog.Any("err", err))
		} else {
			res.SessionID = id
		}
	}

	l.Info("login succeeded",
		slog.Int64("user_id", u.ID),
		slog.String("username", u.Username),
		slog.String("login_type", loginType),
	)
	return res, metrics.LoginSuccess, nil
}

// lookup resolves the candidate user. A missing user is not an error; a
// malformed numeric id is reported as client input.
func (s *LoginService) lookup(ctx context.Context, username, loginType string) (domain.User, bool, error) {
	var (
		u   domain.User
		err error
	)
	if loginType == authsdk.LoginTypeUserID {
		id, perr := strconv.ParseInt(strings.TrimSpace(username), 10, 64)
		if perr != nil {
			slogx.FromContext(ctx).Warn("login with malformed user id")
			return domain.User{}, false, authsdk.ClientInput("Invalid user ID format. Please enter a valid number.")
		}
		u, err = s.Users.GetUserByID(ctx, id)
	} else {
		u, err = s.Users.GetUserByUsername(ctx, username)
	}

	if errors.Is(err, ErrUserNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return u, true, nil
}

// failure records a bad credential and builds the response for it.
func (s *LoginService) failure(ctx context.Context, username, loginType string) (string, error) {
	l := slogx.FromContext(ctx)
	maxFailures := s.Lockout.maxFailures()

	res, err := s.Lockout.RecordFailure(ctx, username)
	if err != nil {
		return metrics.LoginError, s.internal(ctx, "record login failure", err)
	}

	if res.Locked {
		metrics.Lockouts.Inc()
		l.Warn("username locked after repeated failures",
			slog.String("username", domain.NormalizeUsername(username)),
			slog.Int("attempts", res.Attempts),
		)
		apiErr := authsdk.AuthorizationDenied(fmt.Sprintf(
			"Too many failed login attempts. Account locked for %d minutes. (Attempt %d/%d)",
			int(s.Lockout.duration().Minutes()), res.Attempts, maxFailures,
		))
		apiErr.Attempts = res.Attempts
		apiErr.RemainingSeconds = int(s.Lockout.duration().Seconds())
		apiErr.LockedUntil = res.Until.UTC().Format(time.RFC3339)
		return metrics.LoginLocked, apiErr
	}

	apiErr := authsdk.AuthenticationFailure(fmt.Sprintf(
		"Invalid %s or password. (%d/%d attempts)", loginType, res.Attempts, maxFailures,
	))
	apiErr.Attempts = res.Attempts
	return metrics.LoginBadCredentials, apiErr
}

func (s *LoginService) checkLicense(ctx context.Context, u domain.User) (string, error) {
	l := slogx.FromContext(ctx).With(slog.Int64("user_id", u.ID))

	if !s.LicenseCheckEnabled || s.License == nil {
		l.Debug("license check disabled")
		return "", nil
	}
	if strings.TrimSpace(u.LicenseKey) == "" {
		l.Warn("login refused, no license key assigned")
		return metrics.LoginLicenseDenied, authsdk.AuthorizationDenied(
			"No license key assigned to this user. Please contact your administrator.")
	}

	l = l.With(slog.String("license_key", licenseKeyPrefix(u.LicenseKey)))
	err := s.License.VerifyLicense(ctx, u.LicenseKey)
	if err == nil {
		l.Info("license verified")
		return "", nil
	}

	var rejected *LicenseRejectedError
	switch {
	case errors.As(err, &rejected):
		reason := SanitizeLicenseError(rejected.Reason)
		if reason == "" {
			reason = "Unknown license error"
		}
		l.Warn("license rejected", slog.String("reason", reason))
		apiErr := authsdk.AuthorizationDenied("License verification failed. Please contact your administrator.")
		apiErr.LicenseError = reason
		return metrics.LoginLicenseDenied, apiErr
	case errors.Is(err, ErrNoLicenseKey):
		return metrics.LoginLicenseDenied, authsdk.AuthorizationDenied(
			"No license key assigned to this user. Please contact your administrator.")
	default:
		l.Error("license verification error", slog.Any("err", err))
		sentry.CaptureException(err)
		apiErr := authsdk.UpstreamFailure("License verification error. Please contact your administrator.")
		apiErr.LicenseError = SanitizeLicenseError(err.Error())
		return metrics.LoginError, apiErr
	}
}

// internal logs and reports an unexpected failure and hides it behind the
// generic login error.
func (s *LoginService) internal(ctx context.Context, op string, err error) error {
	slogx.FromContext(ctx).Error("login failed", slog.String("op", op), slog.Any("err", err))
	sentry.CaptureException(fmt.Errorf("%s: %w", op, err))
	return authsdk.UpstreamFailure("Login failed")
}
