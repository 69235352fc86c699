package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medibook/clinic-booking/internal/appointments"
)

// ErrDoctorRequired is returned when no doctor was selected.
var ErrDoctorRequired = errors.New("booking: a doctor must be selected")

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range fieldOrder {
		if msg, ok := e.Fields[name]; ok {
			parts = append(parts, name+": "+msg)
		}
	}
	return "booking: invalid form: " + strings.Join(parts, "; ")
}

// Form is the patient booking form.
type Form struct {
	DoctorID              string `json:"doctor_id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Email                 string `json:"email"`
	Phone                 string `json:"phone"`
	DateOfBirth           string `json:"date_of_birth"`
	AppointmentDate       string `json:"appointment_date"`
	AppointmentTime       string `json:"appointment_time"`
	ReasonForVisit        string `json:"reason_for_visit"`
	InsuranceCarrier      string `json:"insurance_carrier"`
	EmergencyContactName  string `json:"emergency_contact_name"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`
}

var fieldOrder = []string{
	"first_name", "last_name", "email", "phone", "date_of_birth",
	"appointment_date", "appointment_time", "reason_for_visit",
	"emergency_contact_name", "emergency_contact_phone",
}

// Validate checks required fields and the date/time formats. Everything else is
// free-form. A valid appointment time is rewritten as zero-padded HH:MM.
func (f *Form) Validate() error {
	errs := map[string]string{}
	required := map[string]string{
		"first_name":              f.FirstName,
		"last_name":               f.LastName,
		"email":                   f.Email,
		"phone":                   f.Phone,
		"date_of_birth":           f.DateOfBirth,
		"appointment_date":        f.AppointmentDate,
		"appointment_time":        f.AppointmentTime,
		"reason_for_visit":        f.ReasonForVisit,
		"emergency_contact_name":  f.EmergencyContactName,
		"emergency_contact_phone": f.EmergencyContactPhone,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			errs[name] = "is required"
		}
	}
	if _, ok := errs["email"]; !ok && !strings.Contains(f.Email, "@") {
		errs["email"] = "must be an email address"
	}
	if _, ok := errs["date_of_birth"]; !ok {
		if _, err := time.Parse(appointments.DateLayout, strings.TrimSpace(f.DateOfBirth)); err != nil {
			errs["date_of_birth"] = "must be YYYY-MM-DD"
		}
	}
	if _, ok := errs["appointment_date"]; !ok {
		if _, err := time.Parse(appointments.DateLayout, strings.TrimSpace(f.AppointmentDate)); err != nil {
			errs["appointment_date"] = "must be YYYY-MM-DD"
		}
	}
	if _, ok := errs["appointment_time"]; !ok {
		if t, err := time.Parse(appointments.TimeLayout, strings.TrimSpace(f.AppointmentTime)); err != nil {
			errs["appointment_time"] = "must be HH:MM"
		} else {
			f.AppointmentTime = t.Format(appointments.TimeLayout)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func (f *Form) dateOfBirth() *time.Time {
	t, err := time.Parse(appointments.DateLayout, strings.TrimSpace(f.DateOfBirth))
	if err != nil {
		return nil
	}
	return &t
}

func (f *Form) patientName() string {
	return strings.TrimSpace(strings.TrimSpace(f.FirstName) + " " + strings.TrimSpace(f.LastName))
}

// SuccessMessage is shown to the patient after a booking is stored.
func SuccessMessage(doctorFirst, doctorLast, date, clock string) string {
	return fmt.Sprintf("Your appointment with Dr. %s %s has been scheduled for %s at %s. Confirmation email sent!",
		doctorFirst, doctorLast, date, clock)
}
