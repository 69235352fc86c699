package appointments

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire and storage format of appointment dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of appointment start times.
	TimeLayout = "15:04"

	NewPatientDuration       = 60
	ReturningPatientDuration = 30
)

// Appointment is a booked visit.
type Appointment struct {
	ID               string    `json:"id"`
	PatientID        string    `json:"patient_id"`
	DoctorID         string    `json:"doctor_id"`
	AppointmentDate  string    `json:"appointment_date"`
	AppointmentTime  string    `json:"appointment_time"`
	DurationMinutes  int       `json:"duration_minutes"`
	ReasonForVisit   string    `json:"reason_for_visit,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	Status           Status    `json:"status"`
	ReminderSent     bool      `json:"reminder_sent"`
	ConfirmationSent bool      `json:"confirmation_sent"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StartsAt combines date and time in the clinic location.
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return StartTime(a.AppointmentDate, a.AppointmentTime, loc)
}

// StartTime parses a date and HH:MM time in loc.
func StartTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointments: parse start time %q %q: %w", date, clock, err)
	}
	return t, nil
}

// DurationFor returns the slot length for a new or returning patient.
func DurationFor(returning bool) int {
	if returning {
		return ReturningPatientDuration
	}
	return NewPatientDuration
}

// CreateInput is what the booking flow persists.
type CreateInput struct {
	PatientID       string
	DoctorID        string
	AppointmentDate string
	AppointmentTime string
	DurationMinutes int
	ReasonForVisit  string
}

// Details is an appointment joined with the patient and doctor fields the dashboard shows.
type Details struct {
	Appointment
	Patient PatientSummary `json:"patients"`
	Doctor  DoctorSummary  `json:"doctors"`
}

// PatientSummary is the patient side of an appointment listing.
type PatientSummary struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	PatientType string `json:"patient_type"`
}

// DoctorSummary is the doctor side of an appointment listing.
type DoctorSummary struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Specialty string `json:"specialty"`
}

// ListFilter narrows ListWithDetails.
type ListFilter struct {
	Statuses []Status
	Limit    int
}
