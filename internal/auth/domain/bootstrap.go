package domain

// BootstrapData describes the first administrator, seeded when the user
// table is empty.
type BootstrapData struct {
	AdminUsername string `validate:"required,min=3,max=150"`
	AdminEmail    string `validate:"required,email"`
	AdminPassword string `validate:"required,min=8"`
	FirstName     string
	LastName      string
	LicenseKey    string
}
