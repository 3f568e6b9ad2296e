package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two registrable identities.
type Kind string

const (
	KindProvider Kind = "provider"
	KindPatient  Kind = "patient"
)

// VerificationStatus tracks the account review lifecycle. Records start
// pending and move to verified on email confirmation or rejected by an admin
// action.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// Address is owned by its record and lives and dies with it.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// EmergencyContact is optional and only used for patient records.
type EmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// Record is a provider or patient identity entity. The password hash is never
// serialized and a record must never be persisted with an empty hash.
type Record struct {
	ID                uuid.UUID          `json:"id"`
	Kind              Kind               `json:"kind"`
	FirstName         string             `json:"first_name"`
	LastName          string             `json:"last_name"`
	Email             string             `json:"email"`
	Phone             string             `json:"phone_number"`
	LicenseNumber     string             `json:"license_number,omitempty"`
	Specialization    string             `json:"specialization,omitempty"`
	YearsOfExperience int                `json:"years_of_experience,omitempty"`
	PasswordHash      string             `json:"-"`
	Address           Address            `json:"address"`
	EmergencyContact  *EmergencyContact  `json:"emergency_contact,omitempty"`
	Status            VerificationStatus `json:"verification_status"`
	EmailVerified     bool               `json:"email_verified"`
	IsActive          bool               `json:"is_active"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func (r *Record) FullName() string {
	return r.FirstName + " " + r.LastName
}
