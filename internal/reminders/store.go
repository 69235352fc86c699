package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the durable queue of scheduled reminders.
type Repository interface {
	Schedule(ctx context.Context, r *Reminder) error
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]Reminder, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
	MarkSkipped(ctx context.Context, id string, reason string) error
	Stats(ctx context.Context) (*Stats, error)
}

// Store persists reminders in scheduled_notifications.
type Store struct {
	db DB
}

// NewStore creates a reminder store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Schedule inserts a pending reminder and fills in its id.
func (s *Store) Schedule(ctx context.Context, r *Reminder) error {
	if r.Kind == "" {
		r.Kind = KindReminder
	}
	payload, err := encodePayload(r.Payload)
	if err != nil {
		return err
	}
	err = s.db.QueryRow(ctx, `
		INSERT INTO scheduled_notifications (appointment_id, kind, due_at, payload, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id::text, created_at`,
		r.AppointmentID, r.Kind, r.DueAt.UTC(), payload,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("reminders: schedule: %w", err)
	}
	r.Status = StatusPending
	return nil
}

// ClaimDue moves due pending rows, and processing rows whose claim is older
// than lease, to processing and returns them. SKIP LOCKED keeps concurrent
// workers from claiming the same row.
func (s *Store) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]Reminder, error) {
	if limit <= 0 {
		limit = 50
	}
	now = now.UTC()
	rows, err := s.db.Query(ctx, `
		UPDATE scheduled_notifications AS sn
		SET status = 'processing', claimed_at = $1, attempts = sn.attempts + 1, updated_at = $1
		WHERE sn.id IN (
			SELECT id FROM scheduled_notifications
			WHERE (status = 'pending' AND due_at <= $1)
			   OR (status = 'processing' AND claimed_at < $2)
			ORDER BY due_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING sn.id::text, sn.appointment_id::text, sn.kind, sn.due_at, sn.payload,
			sn.status::text, sn.attempts, sn.claimed_at, sn.created_at`,
		now, now.Add(-lease), limit)
	if err != nil {
		return nil, fmt.Errorf("reminders: claim due: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var r Reminder
		var payload []byte
		if err := rows.Scan(&r.ID, &r.AppointmentID, &r.Kind, &r.DueAt, &payload,
			&r.Status, &r.Attempts, &r.ClaimedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("reminders: scan claimed: %w", err)
		}
		if err := decodePayload(payload, &r.Payload); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reminders: claim due: %w", err)
	}
	return out, nil
}

// MarkSent settles a processing reminder as delivered.
func (s *Store) MarkSent(ctx context.Context, id string, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE scheduled_notifications SET status = 'sent', sent_at = $1, last_error = NULL, updated_at = $1
		WHERE id::text = $2 AND status = 'processing'`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("reminders: mark sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reminders: mark sent %s: %w", id, ErrReminderNotFound)
	}
	return nil
}

// MarkFailed settles a processing reminder as failed. Failed reminders are not retried.
func (s *Store) MarkFailed(ctx context.Context, id string, reason string) error {
	return s.settle(ctx, "failed", id, reason)
}

// MarkSkipped settles a processing reminder that no longer applies.
func (s *Store) MarkSkipped(ctx context.Context, id string, reason string) error {
	return s.settle(ctx, "skipped", id, reason)
}

func (s *Store) settle(ctx context.Context, status, id, reason string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE scheduled_notifications SET status = $1, last_error = $2, updated_at = now()
		WHERE id::text = $3 AND status = 'processing'`, status, reason, id)
	if err != nil {
		return fmt.Errorf("reminders: mark %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reminders: mark %s %s: %w", status, id, ErrReminderNotFound)
	}
	return nil
}

// Stats returns per-status counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'skipped')
		FROM scheduled_notifications`).Scan(&st.Pending, &st.Processing, &st.Sent, &st.Failed, &st.Skipped)
	if err != nil {
		return nil, fmt.Errorf("reminders: stats: %w", err)
	}
	return &st, nil
}

var _ Repository = (*Store)(nil)
