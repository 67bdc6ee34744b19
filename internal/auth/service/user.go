package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/internal/auth/store"
	"github.com/aussiebroadwan/grc/pkg/cryptox"
	"github.com/aussiebroadwan/grc/pkg/slogx"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user account is inactive")
)

// UserService is the credential store used by login, refresh and the gate.
type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// GetUserByUsername fetches a user by exact username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// GetActiveUser loads a user and rejects inactive accounts.
func (s *UserService) GetActiveUser(ctx context.Context, userID int64) (domain.User, error) {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if !u.IsActive {
		return domain.User{}, ErrUserInactive
	}
	return u, nil
}

// VerifyPassword checks password against the user's stored credential.
//
// Hashes in a legacy format are upgraded to argon2id after a match. A stored
// value that equals the password verbatim also matches; it is replaced with a
// hash through a conditional update so concurrent logins cannot clobber each
// other. Upgrade failures are logged and never fail the login.
func (s *UserService) VerifyPassword(ctx context.Context, u domain.User, password string) bool {
	l := slogx.FromContext(ctx)

	scheme, err := cryptox.CheckPassword(password, u.PasswordHash)
	if err == nil {
		if scheme.NeedsRehash() {
			s.upgradeHash(ctx, u, password, string(scheme))
		}
		return true
	}
	if !errors.Is(err, cryptox.ErrMismatch) && !errors.Is(err, cryptox.ErrUnknownHash) {
		l.Warn("stored password hash is unreadable", slog.Int64("user_id", u.ID), slog.Any("err", err))
	}

	if cryptox.MatchPlaintext(password, u.PasswordHash) {
		l.Warn("password stored in plain text, rehashing", slog.Int64("user_id", u.ID))
		s.upgradeHash(ctx, u, password, "plaintext")
		return true
	}
	return false
}

func (s *UserService) upgradeHash(ctx context.Context, u domain.User, password, from string) {
	l := slogx.FromContext(ctx).With(slog.Int64("user_id", u.ID), slog.String("from", from))

	newHash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Error("failed to hash password for upgrade", slog.Any("err", err))
		return
	}

	ok, err := s.Store.Users().ReplacePasswordHash(ctx, u.ID, u.PasswordHash, newHash)
	switch {
	case err != nil:
		l.Error("failed to persist upgraded password hash", slog.Any("err", err))
	case !ok:
		l.Info("password hash already changed, skipping upgrade")
	default:
		l.Info("password hash upgraded")
	}
}

// SetPassword replaces the password with a fresh argon2id hash.
func (s *UserService) SetPassword(ctx context.Context, userID int64, password string) error {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// AcceptConsent records consent and returns the updated user.
func (s *UserService) AcceptConsent(ctx context.Context, userID int64) (domain.User, error) {
	if err := s.Store.Users().SetConsentAccepted(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return s.GetUserByID(ctx, userID)
}
