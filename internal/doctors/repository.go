package doctors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Directory is the read side the booking flow and public endpoints need.
type Directory interface {
	ListAvailable(ctx context.Context) ([]SafeDoctor, error)
	GetSafe(ctx context.Context, id string) (*SafeDoctor, error)
}

// Repository reads doctors. Writes happen through migrations or the database console.
type Repository struct {
	db DB
}

// NewRepository wraps a pgx pool.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("doctors: pgx pool required")
	}
	return &Repository{db: db}
}

const safeColumns = `id::text, first_name, last_name, specialty, rating::float8, years_experience,
	consultation_fee::float8, is_available, COALESCE(bio, ''), COALESCE(avatar_url, '')`

// ListAvailable returns bookable doctors ordered by first name.
func (r *Repository) ListAvailable(ctx context.Context) ([]SafeDoctor, error) {
	rows, err := r.db.Query(ctx, `SELECT `+safeColumns+`
		FROM safe_doctors
		WHERE is_available = TRUE
		ORDER BY first_name`)
	if err != nil {
		return nil, fmt.Errorf("doctors: list available: %w", err)
	}
	defer rows.Close()

	var out []SafeDoctor
	for rows.Next() {
		var d SafeDoctor
		if err := rows.Scan(safeDest(&d)...); err != nil {
			return nil, fmt.Errorf("doctors: scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: list available: %w", err)
	}
	return out, nil
}

// GetSafe fetches one doctor from the public view.
func (r *Repository) GetSafe(ctx context.Context, id string) (*SafeDoctor, error) {
	var d SafeDoctor
	err := r.db.QueryRow(ctx, `SELECT `+safeColumns+` FROM safe_doctors WHERE id::text = $1`, id).Scan(safeDest(&d)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: get: %w", err)
	}
	return &d, nil
}

// ListAll returns every doctor, available or not, for the admin dashboard.
func (r *Repository) ListAll(ctx context.Context) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, user_id::text, first_name, last_name, specialty, rating::float8, years_experience,
			consultation_fee::float8, is_available, COALESCE(bio, ''), COALESCE(avatar_url, ''), created_at, updated_at
		FROM doctors
		ORDER BY first_name`)
	if err != nil {
		return nil, fmt.Errorf("doctors: list all: %w", err)
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.FirstName, &d.LastName, &d.Specialty, &d.Rating, &d.YearsExperience,
			&d.ConsultationFee, &d.IsAvailable, &d.Bio, &d.AvatarURL, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("doctors: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Schedules lists the weekly hours of a doctor.
func (r *Repository) Schedules(ctx context.Context, doctorID string) ([]Schedule, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, doctor_id::text, day_of_week, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), is_available
		FROM doctor_schedules
		WHERE doctor_id::text = $1
		ORDER BY day_of_week, start_time`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("doctors: schedules: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsAvailable); err != nil {
			return nil, fmt.Errorf("doctors: scan schedule: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func safeDest(d *SafeDoctor) []any {
	return []any{
		&d.ID, &d.FirstName, &d.LastName, &d.Specialty, &d.Rating, &d.YearsExperience,
		&d.ConsultationFee, &d.IsAvailable, &d.Bio, &d.AvatarURL,
	}
}
