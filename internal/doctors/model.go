package doctors

import (
	"errors"
	"strings"
	"time"
)

// ErrDoctorNotFound is returned when no doctor matches the id.
var ErrDoctorNotFound = errors.New("doctor not found")

// Doctor is the full clinic record, visible to admins.
type Doctor struct {
	ID              string    `json:"id"`
	UserID          *string   `json:"user_id,omitempty"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Specialty       string    `json:"specialty"`
	Rating          float64   `json:"rating"`
	YearsExperience int       `json:"years_experience"`
	ConsultationFee float64   `json:"consultation_fee"`
	IsAvailable     bool      `json:"is_available"`
	Bio             string    `json:"bio,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Safe strips fields that are not shown to patients.
func (d *Doctor) Safe() SafeDoctor {
	return SafeDoctor{
		ID:              d.ID,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Specialty:       d.Specialty,
		Rating:          d.Rating,
		YearsExperience: d.YearsExperience,
		ConsultationFee: d.ConsultationFee,
		IsAvailable:     d.IsAvailable,
		Bio:             d.Bio,
		AvatarURL:       d.AvatarURL,
	}
}

// SafeDoctor mirrors the safe_doctors view served to the public directory.
type SafeDoctor struct {
	ID              string  `json:"id"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Specialty       string  `json:"specialty"`
	Rating          float64 `json:"rating"`
	YearsExperience int     `json:"years_experience"`
	ConsultationFee float64 `json:"consultation_fee"`
	IsAvailable     bool    `json:"is_available"`
	Bio             string  `json:"bio,omitempty"`
	AvatarURL       string  `json:"avatar_url,omitempty"`
}

// Doctor widens the view back into a Doctor for callers that only need names.
func (s SafeDoctor) Doctor() *Doctor {
	return &Doctor{
		ID:              s.ID,
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		Specialty:       s.Specialty,
		Rating:          s.Rating,
		YearsExperience: s.YearsExperience,
		ConsultationFee: s.ConsultationFee,
		IsAvailable:     s.IsAvailable,
		Bio:             s.Bio,
		AvatarURL:       s.AvatarURL,
	}
}

// Schedule is one weekly working window for a doctor. DayOfWeek 0 is Sunday.
type Schedule struct {
	ID          string `json:"id"`
	DoctorID    string `json:"doctor_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// Profile is the public detail payload: the doctor plus weekly hours.
type Profile struct {
	SafeDoctor
	Schedules []Schedule `json:"schedules"`
}

// Fallback is the built-in directory shown when the store is unreachable.
func Fallback() []SafeDoctor {
	return []SafeDoctor{
		{ID: "6f1c2a64-7b1e-4d55-9a43-3c1c7f0d0003", FirstName: "Emily", LastName: "Rodriguez", Specialty: "Pediatrics", Rating: 4.9, YearsExperience: 10, ConsultationFee: 100, IsAvailable: true},
		{ID: "6f1c2a64-7b1e-4d55-9a43-3c1c7f0d0002", FirstName: "Michael", LastName: "Chen", Specialty: "Neurology", Rating: 4.8, YearsExperience: 12, ConsultationFee: 110, IsAvailable: true},
		{ID: "6f1c2a64-7b1e-4d55-9a43-3c1c7f0d0001", FirstName: "Sarah", LastName: "Johnson", Specialty: "Cardiology", Rating: 4.9, YearsExperience: 15, ConsultationFee: 120, IsAvailable: true},
	}
}
