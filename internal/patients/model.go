package patients

import (
	"strings"
	"time"
)

// Type distinguishes first-time patients from returning ones.
type Type string

const (
	TypeNew       Type = "new"
	TypeReturning Type = "returning"
)

// Patient is a person who has booked at least one appointment.
type Patient struct {
	ID                    string     `json:"id"`
	UserID                *string    `json:"user_id,omitempty"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	Email                 string     `json:"email"`
	Phone                 string     `json:"phone,omitempty"`
	DateOfBirth           *time.Time `json:"date_of_birth,omitempty"`
	Address               string     `json:"address,omitempty"`
	EmergencyContactName  string     `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string     `json:"emergency_contact_phone,omitempty"`
	InsuranceCarrier      string     `json:"insurance_carrier,omitempty"`
	InsuranceGroupNumber  string     `json:"insurance_group_number,omitempty"`
	InsuranceMemberID     string     `json:"insurance_member_id,omitempty"`
	PatientType           Type       `json:"patient_type"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// FullName joins first and last name.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// UpsertInput carries the booking form fields that describe the patient.
type UpsertInput struct {
	FirstName             string
	LastName              string
	Email                 string
	Phone                 string
	DateOfBirth           *time.Time
	EmergencyContactName  string
	EmergencyContactPhone string
	InsuranceCarrier      string
}

// Validate checks the fields the schema requires.
func (in *UpsertInput) Validate() error {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return ErrNameRequired
	}
	if NormalizeEmail(in.Email) == "" {
		return ErrEmailRequired
	}
	return nil
}

// UpsertResult reports the stored row and whether it already existed.
type UpsertResult struct {
	Patient *Patient
	Existed bool
}

// ListFilter narrows the admin patient listing.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// NormalizeEmail is the identity key used to recognise a returning patient.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Matches reports whether the search term appears in "first last email", ignoring case.
func (p *Patient) Matches(search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	haystack := strings.ToLower(p.FirstName + " " + p.LastName + " " + p.Email)
	return strings.Contains(haystack, search)
}
