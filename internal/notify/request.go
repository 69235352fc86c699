package notify

import (
	"errors"
	"fmt"
	"strings"
)

// Type selects the notification template.
type Type string

const (
	TypeConfirmation Type = "confirmation"
	TypeReminder     Type = "reminder"
)

var (
	// ErrMissingRecipient is returned when the patient email is blank.
	ErrMissingRecipient = errors.New("notify: patient email is required")

	// ErrUnknownType is returned for types other than confirmation and reminder.
	ErrUnknownType = errors.New("notify: unknown notification type")
)

// Request is the payload accepted by the notification function.
type Request struct {
	PatientEmail    string `json:"patientEmail"`
	PatientName     string `json:"patientName"`
	DoctorName      string `json:"doctorName"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	Type            Type   `json:"type"`
}

// Validate checks the recipient and type.
func (r Request) Validate() error {
	if strings.TrimSpace(r.PatientEmail) == "" {
		return ErrMissingRecipient
	}
	switch r.Type {
	case TypeConfirmation, TypeReminder:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, r.Type)
	}
}

// Result reports a delivered notification.
type Result struct {
	Success bool   `json:"success"`
	EmailID string `json:"emailId,omitempty"`
}
