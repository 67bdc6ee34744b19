package domain

import (
	"strings"
	"time"
)

// User is an authenticable principal. IsActive is already normalised; the
// raw column value never leaves the store driver.
type User struct {
	ID              int64
	Username        string
	Email           string
	FirstName       string
	LastName        string
	PasswordHash    string // argon2id, or a legacy format awaiting upgrade
	IsActive        bool
	LicenseKey      string
	ConsentAccepted bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeActive maps the stored active flag onto a strict boolean. The
// column has historically held 'Y'/'N' strings, booleans or nothing at all.
// Anything unrecognised is treated as inactive.
func NormalizeActive(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case *bool:
		return t != nil && *t
	case string:
		return activeString(t)
	case *string:
		return t != nil && activeString(*t)
	case []byte:
		return activeString(string(t))
	case int64:
		return t == 1
	case int:
		return t == 1
	default:
		return false
	}
}

func activeString(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y", "YES", "TRUE", "T", "1":
		return true
	default:
		return false
	}
}

// ActiveFlag renders IsActive the way the GRC frontend expects it.
func (u User) ActiveFlag() string {
	if u.IsActive {
		return "Y"
	}
	return "N"
}

// ConsentFlag renders ConsentAccepted as "1" or "0".
func (u User) ConsentFlag() string {
	if u.ConsentAccepted {
		return "1"
	}
	return "0"
}

// NormalizeUsername is the key used for lockout bookkeeping.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
