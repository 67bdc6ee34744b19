package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultLicenseTimeout = 10 * time.Second

	maxLicenseErrorLen = 200
)

var (
	ErrNoLicenseKey = errors.New("no license key assigned")

	// ErrLicenseUpstream wraps transport and protocol failures talking to
	// the license service.
	ErrLicenseUpstream = errors.New("license service error")
)

// LicenseRejectedError is returned when the license service answers but
// refuses the key.
type LicenseRejectedError struct {
	Reason string
}

func (e *LicenseRejectedError) Error() string {
	return "license rejected: " + e.Reason
}

// LicenseVerifier checks a license key with an external authority.
type LicenseVerifier interface {
	VerifyLicense(ctx context.Context, key string) error
}

// HTTPLicenseVerifier calls the licensing service over HTTP.
type HTTPLicenseVerifier struct {
	URL    string
	Token  string
	Client *http.Client
}

type licenseRequest struct {
	LicenseKey string `json:"license_key"`
}

type licenseResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewHTTPLicenseVerifier builds a verifier with its own client timeout.
func NewHTTPLicenseVerifier(url, token string, timeout time.Duration) *HTTPLicenseVerifier {
	if timeout <= 0 {
		timeout = DefaultLicenseTimeout
	}
	return &HTTPLicenseVerifier{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: timeout},
	}
}

func (v *HTTPLicenseVerifier) VerifyLicense(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrNoLicenseKey
	}
	if v.URL == "" {
		return fmt.Errorf("%w: license service url not configured", ErrLicenseUpstream)
	}

	body, err := json.Marshal(licenseRequest{LicenseKey: key})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLicenseUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if v.Token != "" {
		req.Header.Set("Authorization", "Bearer "+v.Token)
	}

	resp, err := v.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLicenseUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLicenseUpstream, err)
	}

	var out licenseResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("%w: status %d: unreadable response", ErrLicenseUpstream, resp.StatusCode)
	}

	switch {
	case out.Success && resp.StatusCode < 300:
		return nil
	case !out.Success && resp.StatusCode < 500 && out.Error != "":
		return &LicenseRejectedError{Reason: out.Error}
	case !out.Success && resp.StatusCode < 300:
		return &LicenseRejectedError{Reason: "Unknown license error"}
	default:
		return fmt.Errorf("%w: status %d", ErrLicenseUpstream, resp.StatusCode)
	}
}

var licensePolicy = bluemonday.StrictPolicy()

// SanitizeLicenseError strips markup from text produced by the license
// service before it is echoed to a client.
func SanitizeLicenseError(s string) string {
	s = strings.TrimSpace(licensePolicy.Sanitize(s))
	if len(s) > maxLicenseErrorLen {
		s = s[:maxLicenseErrorLen]
	}
	return s
}

// licenseKeyPrefix is the only part of a key that may be logged.
func licenseKeyPrefix(key string) string {
	if len(key) > 10 {
		return key[:10] + "..."
	}
	return key
}
