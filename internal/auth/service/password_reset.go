package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/store"
	"github.com/aussiebroadwan/grc/pkg/idx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const DefaultPasswordResetTTL = 10 * time.Minute

var (
	ErrInvalidResetCode = errors.New("invalid or expired code")
	ErrWeakPassword     = errors.New("password does not meet requirements")
)

var resetOTPOpts = hotp.ValidateOpts{
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// ResetNotifier delivers a reset code to the user.
type ResetNotifier interface {
	SendResetCode(ctx context.Context, u domain.User, code string, expiresAt time.Time) error
}

// LogResetNotifier records that a code was issued without revealing it.
type LogResetNotifier struct{}

func (LogResetNotifier) SendResetCode(ctx context.Context, u domain.User, _ string, expiresAt time.Time) error {
	slogx.FromContext(ctx).Info("password reset code issued",
		slog.Int64("user_id", u.ID),
		slog.Time("expires_at", expiresAt),
	)
	return nil
}

// PasswordResetService runs the forgot-password flow: a one-time code is
// derived from a per-request secret and redeemed against the newest live
// challenge for the account.
type PasswordResetService struct {
	Store    store.Store
	Users    *UserService
	Lockout  *LockoutService
	Notifier ResetNotifier
	Issuer   string
	TTL      time.Duration

	// MinPasswordLength defaults to 8.
	MinPasswordLength int

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

func (s *PasswordResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PasswordResetService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultPasswordResetTTL
}

// Request issues a reset code for email. Unknown or inactive accounts are
// silently ignored so callers cannot probe which emails exist.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)
	email = strings.TrimSpace(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		l.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		l.Info("password reset requested for inactive user", slog.Int64("user_id", u.ID))
		return nil
	}

	key, err := hotp.Generate(hotp.GenerateOpts{
		Issuer:      s.issuer(),
		AccountName: u.Username,
		SecretSize:  20,
		Digits:      resetOTPOpts.Digits,
		Algorithm:   resetOTPOpts.Algorithm,
	})
	if err != nil {
		return err
	}

	now := s.now()
	reset := domain.PasswordReset{
		ID:        idx.NewAt(now).String(),
		UserID:    u.ID,
		Email:     u.Email,
		Secret:    key.Secret(),
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	}
	if err := s.Store.PasswordResets().CreatePasswordReset(ctx, reset); err != nil {
		return err
	}

	code, err := hotp.GenerateCodeCustom(reset.Secret, 0, resetOTPOpts)
	if err != nil {
		return err
	}
	return s.notifier().SendResetCode(ctx, u, code, reset.ExpiresAt)
}

// Confirm redeems code and sets newPassword. Every failure that a client
// could cause is reported as ErrInvalidResetCode.
func (s *PasswordResetService) Confirm(ctx context.Context, email, code, newPassword string) error {
	l := slogx.FromContext(ctx)

	if len(newPassword) < s.minPasswordLength() {
		return ErrWeakPassword
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidResetCode
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		l.Info("password reset confirm refused for inactive user", slog.Int64("user_id", u.ID))
		return ErrInvalidResetCode
	}

	now := s.now()
	reset, err := s.Store.PasswordResets().GetLatestPasswordReset(ctx, u.ID, now)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidResetCode
	}
	if err != nil {
		return err
	}
	if !reset.Usable(now) {
		return ErrInvalidResetCode
	}

	ok, err := hotp.ValidateCustom(strings.TrimSpace(code), 0, reset.Secret, resetOTPOpts)
	if err != nil || !ok {
		attempts, incErr := s.Store.PasswordResets().IncrementPasswordResetAttempts(ctx, reset.ID)
		if incErr != nil {
			return incErr
		}
		if attempts >= domain.MaxPasswordResetAttempts {
			if _, err := s.Store.PasswordResets().MarkPasswordResetUsed(ctx, reset.ID); err != nil {
				return err
			}
			l.Warn("password reset burned after too many attempts", slog.Int64("user_id", u.ID))
		}
		return ErrInvalidResetCode
	}

	won, err := s.Store.PasswordResets().MarkPasswordResetUsed(ctx, reset.ID)
	if err != nil {
		return err
	}
	if !won {
		return ErrInvalidResetCode
	}

	if err := s.Users.SetPassword(ctx, u.ID, newPassword); err != nil {
		return err
	}
	if s.Lockout != nil {
		if err := s.Lockout.Reset(ctx, u.Username); err != nil {
			l.Warn("failed to clear lockout after password reset", slog.Int64("user_id", u.ID), slog.Any("err", err))
		}
	}

	l.Info("password reset completed", slog.Int64("user_id", u.ID))
	return nil
}

func (s *PasswordResetService) issuer() string {
	if s.Issuer != "" {
		return s.Issuer
	}
	return "GRC"
}

func (s *PasswordResetService) notifier() ResetNotifier {
	if s.Notifier != nil {
		return s.Notifier
	}
	return LogResetNotifier{}
}

func (s *PasswordResetService) minPasswordLength() int {
	if s.MinPasswordLength > 0 {
		return s.MinPasswordLength
	}
	return 8
}
