package domain

import "time"

// MaxPasswordResetAttempts burns a reset record after this many bad codes.
const MaxPasswordResetAttempts = 5

// PasswordReset is a pending forgot-password challenge. The one-time code is
// derived from Secret and never stored.
type PasswordReset struct {
	ID        string // ULID
	UserID    int64
	Email     string
	Secret    string // base32
	ExpiresAt time.Time
	Attempts  int
	Used      bool
	CreatedAt time.Time
}

// Usable reports whether the record can still be redeemed at now.
func (r PasswordReset) Usable(now time.Time) bool {
	return !r.Used && r.Attempts < MaxPasswordResetAttempts && now.Before(r.ExpiresAt)
}
