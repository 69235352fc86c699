package patients

import "errors"

var (
	// ErrNameRequired is returned when first or last name is blank
	ErrNameRequired = errors.New("first and last name are required")

	// ErrEmailRequired is returned when the email is blank
	ErrEmailRequired = errors.New("email is required")

	// ErrPatientNotFound is returned when a patient is not found
	ErrPatientNotFound = errors.New("patient not found")
)
