package domain

import "time"

// TokenPair is what login and refresh hand back to the caller.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// BlacklistedToken marks a refresh token as consumed. Rows outlive the
// token only until housekeeping removes them after ExpiresAt.
type BlacklistedToken struct {
	JTI           string
	UserID        int64
	ExpiresAt     time.Time
	BlacklistedAt time.Time
}
