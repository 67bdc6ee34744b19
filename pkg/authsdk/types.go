package authsdk

// ============================================================================
// Login / Token Types
// ============================================================================

// Login types accepted by POST /api/jwt/login.
const (
	LoginTypeUsername = "username"
	LoginTypeUserID   = "userid"
)

// LoginRequest is the body of POST /api/jwt/login.
type LoginRequest struct {
	// Username carries the numeric user id when LoginType is "userid".
	Username  string `json:"username"`
	Password  string `json:"password"`
	LoginType string `json:"login_type,omitempty" validate:"omitempty,oneof=username userid"`
}

// UserSummary is the user block returned by login and verify. Field names
// follow the GRC frontend's expectations.
type UserSummary struct {
	UserID          int64  `json:"UserId"`
	UserName        string `json:"UserName"`
	Email           string `json:"Email"`
	FirstName       string `json:"FirstName"`
	LastName        string `json:"LastName"`
	IsActive        string `json:"IsActive"`
	ConsentAccepted string `json:"consent_accepted"`
	LicenseKey      string `json:"license_key,omitempty"`
}

// TokenPair is the token block of login and refresh responses.
type TokenPair struct {
	AccessToken         string `json:"access_token"`
	RefreshToken        string `json:"refresh_token"`
	AccessTokenExpires  string `json:"access_token_expires"`
	RefreshTokenExpires string `json:"refresh_token_expires"`
}

// LoginResponse is returned from POST /api/jwt/login.
type LoginResponse struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	LicenseVerified bool   `json:"license_verified"`
	TokenPair
	ConsentRequired bool        `json:"consent_required"`
	User            UserSummary `json:"user"`
}

// RefreshRequest is the body of POST /api/jwt/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse is returned from POST /api/jwt/refresh.
type RefreshResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	TokenPair
}

// VerifyResponse is returned from GET /api/jwt/verify.
type VerifyResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

// LogoutRequest is the optional body of POST /api/jwt/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ConsentResponse is returned from POST /api/jwt/accept-consent.
type ConsentResponse struct {
	Status          string      `json:"status"`
	Message         string      `json:"message"`
	ConsentAccepted string      `json:"consent_accepted"`
	User            UserSummary `json:"user"`
}

// StatusResponse is the plain success envelope.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ============================================================================
// Password Reset Types
// ============================================================================

// PasswordResetRequest is the body of POST /api/jwt/password-reset/request.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirm is the body of POST /api/jwt/password-reset/confirm.
type PasswordResetConfirm struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ============================================================================
// RBAC Types
// ============================================================================

// PermissionsResponse is returned from GET /api/rbac/permissions.
type PermissionsResponse struct {
	Status      string   `json:"status"`
	UserID      int64    `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// PermissionCheckResponse is returned from GET /api/rbac/permissions/check.
type PermissionCheckResponse struct {
	Status     string `json:"status"`
	Permission string `json:"permission"`
	Allowed    bool   `json:"allowed"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ============================================================================
// Error Envelope
// ============================================================================

// ErrorResponse is the body of every error response. The optional fields
// are only present for the failures that carry them.
type ErrorResponse struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
	LockedUntil      string `json:"locked_until,omitempty"`
	LicenseError     string `json:"license_error,omitempty"`
	Attempts         int    `json:"attempts,omitempty"`
}
