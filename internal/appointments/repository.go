package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the appointment store used by booking, reminders and the dashboard.
type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error)
	MarkConfirmationSent(ctx context.Context, id string) error
	MarkReminderSent(ctx context.Context, id string) error
}

// Option configures a store.
type Option func(*storeOptions)

type storeOptions struct {
	strict bool
}

// WithStrictTransitions rejects status changes that are not in the lifecycle table.
func WithStrictTransitions(strict bool) Option {
	return func(o *storeOptions) { o.strict = strict }
}

// PostgresRepository stores appointments in Postgres.
type PostgresRepository struct {
	db     DB
	strict bool
}

// NewPostgresRepository wraps a pgx pool.
func NewPostgresRepository(db DB, opts ...Option) *PostgresRepository {
	if db == nil {
		panic("appointments: pgx pool required")
	}
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &PostgresRepository{db: db, strict: o.strict}
}

const appointmentColumns = `id::text, patient_id::text, doctor_id::text,
	to_char(appointment_date, 'YYYY-MM-DD'), appointment_time, duration_minutes,
	COALESCE(reason_for_visit, ''), COALESCE(notes, ''), status::text,
	reminder_sent, confirmation_sent, created_at, updated_at`

// Create inserts a pending appointment.
func (r *PostgresRepository) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	var reason *string
	if strings.TrimSpace(in.ReasonForVisit) != "" {
		reason = &in.ReasonForVisit
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, appointment_time, duration_minutes, reason_for_visit, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING `+appointmentColumns,
		in.PatientID, in.DoctorID, in.AppointmentDate, in.AppointmentTime, in.DurationMinutes, reason,
	)
	var a Appointment
	if err := row.Scan(scanDest(&a)...); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	return &a, nil
}

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	var a Appointment
	err := r.db.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id::text = $1`, id).Scan(scanDest(&a)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return &a, nil
}

// UpdateStatus stores status as given. In strict mode the row must currently
// be in a state that may move to status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var row pgx.Row
	if r.strict {
		allowed := make([]string, 0, 4)
		for _, s := range AllowedFrom(status) {
			allowed = append(allowed, string(s))
		}
		row = r.db.QueryRow(ctx, `
			UPDATE appointments SET status = $1, updated_at = now()
			WHERE id::text = $2 AND status::text = ANY($3)
			RETURNING `+appointmentColumns, string(status), id, allowed)
	} else {
		row = r.db.QueryRow(ctx, `
			UPDATE appointments SET status = $1, updated_at = now()
			WHERE id::text = $2
			RETURNING `+appointmentColumns, string(status), id)
	}

	var a Appointment
	if err := row.Scan(scanDest(&a)...); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("appointments: update status: %w", err)
		}
		if !r.strict {
			return nil, ErrAppointmentNotFound
		}
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}
	return &a, nil
}

// MarkConfirmationSent flags that the confirmation notification was delivered.
func (r *PostgresRepository) MarkConfirmationSent(ctx context.Context, id string) error {
	return r.markFlag(ctx, "confirmation_sent", id)
}

// MarkReminderSent flags that the reminder notification was delivered.
func (r *PostgresRepository) MarkReminderSent(ctx context.Context, id string) error {
	return r.markFlag(ctx, "reminder_sent", id)
}

func (r *PostgresRepository) markFlag(ctx context.Context, column, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET `+column+` = TRUE, updated_at = now() WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: mark %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func scanDest(a *Appointment) []any {
	return []any{
		&a.ID, &a.PatientID, &a.DoctorID,
		&a.AppointmentDate, &a.AppointmentTime, &a.DurationMinutes,
		&a.ReasonForVisit, &a.Notes, &a.Status,
		&a.ReminderSent, &a.ConfirmationSent, &a.CreatedAt, &a.UpdatedAt,
	}
}
