package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/medibook/clinic-booking/internal/appointments"
	"github.com/medibook/clinic-booking/internal/doctors"
	"github.com/medibook/clinic-booking/internal/patients"
)

const defaultPatientLimit = 500

// SQLStore reads the dashboard through database/sql.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	if db == nil {
		panic("dashboard: sql db required")
	}
	return &SQLStore{db: db}
}

func (s *SQLStore) Patients(ctx context.Context, filter patients.ListFilter) ([]patients.Patient, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPatientLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := `SELECT id::text, first_name, last_name, email, COALESCE(phone, ''),
		COALESCE(insurance_carrier, ''), patient_type::text, created_at, updated_at
		FROM patients`
	args := []any{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query += ` WHERE (first_name || ' ' || last_name || ' ' || email) ILIKE $1`
		args = append(args, "%"+escapeLike(search)+"%")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dashboard: query patients: %w", err)
	}
	defer rows.Close()

	out := []patients.Patient{}
	for rows.Next() {
		var p patients.Patient
		var typ string
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
			&p.InsuranceCarrier, &typ, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("dashboard: scan patient: %w", err)
		}
		p.PatientType = patients.Type(typ)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) Doctors(ctx context.Context) ([]doctors.Doctor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id::text, first_name, last_name, specialty, rating::float8, years_experience,
			consultation_fee::float8, is_available, COALESCE(bio, ''), COALESCE(avatar_url, ''),
			created_at, updated_at
		FROM doctors
		ORDER BY first_name`)
	if err != nil {
		return nil, fmt.Errorf("dashboard: query doctors: %w", err)
	}
	defer rows.Close()

	out := []doctors.Doctor{}
	for rows.Next() {
		var d doctors.Doctor
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Specialty, &d.Rating, &d.YearsExperience,
			&d.ConsultationFee, &d.IsAvailable, &d.Bio, &d.AvatarURL, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("dashboard: scan doctor: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Appointments joins each appointment with its patient and doctor, latest date first.
func (s *SQLStore) Appointments(ctx context.Context, filter appointments.ListFilter) ([]appointments.Details, error) {
	query := `
		SELECT a.id::text, a.patient_id::text, a.doctor_id::text,
			to_char(a.appointment_date, 'YYYY-MM-DD'), a.appointment_time, a.duration_minutes,
			COALESCE(a.reason_for_visit, ''), COALESCE(a.notes, ''), a.status::text,
			a.reminder_sent, a.confirmation_sent, a.created_at, a.updated_at,
			p.first_name, p.last_name, p.email, COALESCE(p.phone, ''), p.patient_type::text,
			d.first_name, d.last_name, d.specialty
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id`
	args := []any{}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, pq.Array(statuses))
		query += ` WHERE a.status::text = ANY($1)`
	}
	query += ` ORDER BY a.appointment_date DESC, a.appointment_time DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dashboard: query appointments: %w", err)
	}
	defer rows.Close()

	out := []appointments.Details{}
	for rows.Next() {
		var d appointments.Details
		var status string
		if err := rows.Scan(
			&d.ID, &d.PatientID, &d.DoctorID,
			&d.AppointmentDate, &d.AppointmentTime, &d.DurationMinutes,
			&d.ReasonForVisit, &d.Notes, &status,
			&d.ReminderSent, &d.ConfirmationSent, &d.CreatedAt, &d.UpdatedAt,
			&d.Patient.FirstName, &d.Patient.LastName, &d.Patient.Email, &d.Patient.Phone, &d.Patient.PatientType,
			&d.Doctor.FirstName, &d.Doctor.LastName, &d.Doctor.Specialty,
		); err != nil {
			return nil, fmt.Errorf("dashboard: scan appointment: %w", err)
		}
		d.Status = appointments.Status(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM patients),
			(SELECT count(*) FROM patients WHERE patient_type = 'new'),
			(SELECT count(*) FROM doctors WHERE is_available),
			(SELECT count(*) FROM doctors),
			(SELECT count(*) FROM appointments),
			(SELECT count(*) FROM appointments WHERE status = 'pending')`,
	).Scan(&st.TotalPatients, &st.NewPatients, &st.ActiveDoctors, &st.TotalDoctors,
		&st.TotalAppointments, &st.PendingAppointments)
	if err != nil {
		return nil, fmt.Errorf("dashboard: query stats: %w", err)
	}
	return &st, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
