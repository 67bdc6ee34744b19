package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	"github.com/aussiebroadwan/grc/pkg/authsdk"
)

// writeError writes err when it is an *authsdk.APIError and the generic
// internal error otherwise.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) {
		apiErr.WriteError(w)
		return
	}
	authsdk.ErrInternal.WriteError(w)
}

func userSummary(u domain.User) authsdk.UserSummary {
	return authsdk.UserSummary{
		UserID:          u.ID,
		UserName:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		IsActive:        u.ActiveFlag(),
		ConsentAccepted: u.ConsentFlag(),
		LicenseKey:      u.LicenseKey,
	}
}

func tokenPair(p domain.TokenPair) authsdk.TokenPair {
	return authsdk.TokenPair{
		AccessToken:         p.AccessToken,
		RefreshToken:        p.RefreshToken,
		AccessTokenExpires:  p.AccessExpiresAt.UTC().Format(time.RFC3339),
		RefreshTokenExpires: p.RefreshExpiresAt.UTC().Format(time.RFC3339),
	}
}

// SessionCookie describes the cookie carrying the server-side session id.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// DefaultSessionCookieName matches the name GRC frontends already send.
const DefaultSessionCookieName = "sessionid"

func (c SessionCookie) name() string {
	if c.Name != "" {
		return c.Name
	}
	return DefaultSessionCookieName
}

func (c SessionCookie) set(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    id,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookie) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
