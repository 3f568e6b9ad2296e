package registration

import (
	"github.com/google/uuid"

	"healthfirst/internal/domain"
)

// AddressInput mirrors the JSON address object shared by both forms.
type AddressInput struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// EmergencyContactInput is optional and only accepted on patient forms.
type EmergencyContactInput struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// ProviderInput is the provider registration request body plus the request
// metadata the pipeline needs (client IP for rate limiting, user agent for
// the attempt log).
type ProviderInput struct {
	FirstName         string       `json:"first_name"`
	LastName          string       `json:"last_name"`
	Email             string       `json:"email"`
	PhoneNumber       string       `json:"phone_number"`
	Password          string       `json:"password"`
	ConfirmPassword   string       `json:"confirm_password"`
	Specialization    string       `json:"specialization"`
	LicenseNumber     string       `json:"license_number"`
	YearsOfExperience int          `json:"years_of_experience"`
	ClinicAddress     AddressInput `json:"clinic_address"`

	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
}

// PatientInput is the patient registration request body; no license or
// specialization, but an address and an optional emergency contact.
type PatientInput struct {
	FirstName        string                 `json:"first_name"`
	LastName         string                 `json:"last_name"`
	Email            string                 `json:"email"`
	PhoneNumber      string                 `json:"phone_number"`
	Password         string                 `json:"password"`
	ConfirmPassword  string                 `json:"confirm_password"`
	Address          AddressInput           `json:"address"`
	EmergencyContact *EmergencyContactInput `json:"emergency_contact,omitempty"`

	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
}

// RegisterResult is the success payload returned to clients.
type RegisterResult struct {
	ID                 uuid.UUID                 `json:"id"`
	Email              string                    `json:"email"`
	VerificationStatus domain.VerificationStatus `json:"verification_status"`
}

// LoginResult carries a signed access token.
type LoginResult struct {
	RecordID    uuid.UUID `json:"record_id"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
}
