package dashboard

import (
	"context"
	"time"

	"github.com/medibook/clinic-booking/internal/appointments"
	"github.com/medibook/clinic-booking/internal/archive"
	"github.com/medibook/clinic-booking/internal/doctors"
	"github.com/medibook/clinic-booking/internal/patients"
)

// Stats are the headline counters on the admin dashboard.
type Stats struct {
	TotalPatients       int `json:"total_patients"`
	NewPatients         int `json:"new_patients"`
	ActiveDoctors       int `json:"active_doctors"`
	TotalDoctors        int `json:"total_doctors"`
	TotalAppointments   int `json:"total_appointments"`
	PendingAppointments int `json:"pending_appointments"`
}

// Snapshot is everything the admin dashboard renders.
type Snapshot struct {
	Patients     []patients.Patient     `json:"patients"`
	Doctors      []doctors.Doctor       `json:"doctors"`
	Appointments []appointments.Details `json:"appointments"`
	Stats        Stats                  `json:"stats"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// Source reads the aggregated dashboard rows.
type Source interface {
	Patients(ctx context.Context, filter patients.ListFilter) ([]patients.Patient, error)
	Doctors(ctx context.Context) ([]doctors.Doctor, error)
	Appointments(ctx context.Context, filter appointments.ListFilter) ([]appointments.Details, error)
	Stats(ctx context.Context) (*Stats, error)
}

// StatusUpdater changes one appointment's status.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status appointments.Status) (*appointments.Appointment, error)
}

// ReportArchiver stores exported reports.
type ReportArchiver interface {
	PutReport(ctx context.Context, r *archive.Report) (string, error)
}
