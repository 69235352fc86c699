package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var appointmentCols = []string{
	"id", "patient_id", "doctor_id", "appointment_date", "appointment_time", "duration_minutes",
	"reason_for_visit", "notes", "status", "reminder_sent", "confirmation_sent", "created_at", "updated_at",
}

func appointmentRow(id string, status Status) []any {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return []any{id, "p-1", "d-1", "2025-03-10", "09:00", 60, "checkup", "", status, false, false, now, now}
}

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs("p-1", "d-1", "2025-03-10", "09:00", 60, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(appointmentCols).AddRow(appointmentRow("a-1", StatusPending)...))

	repo := NewPostgresRepository(mock)
	a, err := repo.Create(context.Background(), CreateInput{
		PatientID: "p-1", DoctorID: "d-1", AppointmentDate: "2025-03-10", AppointmentTime: "09:00",
		DurationMinutes: 60, ReasonForVisit: "checkup",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != StatusPending || a.DurationMinutes != 60 {
		t.Fatalf("unexpected appointment %#v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_UpdateStatusStoresValue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("UPDATE appointments SET status").
		WithArgs("cancelled", "a-1").
		WillReturnRows(pgxmock.NewRows(appointmentCols).AddRow(appointmentRow("a-1", StatusCancelled)...))

	repo := NewPostgresRepository(mock)
	a, err := repo.UpdateStatus(context.Background(), "a-1", StatusCancelled)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if a.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", a.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_UpdateStatusNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("UPDATE appointments SET status").
		WithArgs("confirmed", "missing").
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock)
	if _, err := repo.UpdateStatus(context.Background(), "missing", StatusConfirmed); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestPostgresRepository_StrictRejectsTransition(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("status::text = ANY").
		WithArgs("confirmed", "a-1", []string{"pending", "confirmed"}).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM appointments WHERE").
		WithArgs("a-1").
		WillReturnRows(pgxmock.NewRows(appointmentCols).AddRow(appointmentRow("a-1", StatusCancelled)...))

	repo := NewPostgresRepository(mock, WithStrictTransitions(true))
	_, err = repo.UpdateStatus(context.Background(), "a-1", StatusConfirmed)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_MarkReminderSent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("UPDATE appointments SET reminder_sent = TRUE").
		WithArgs("a-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE appointments SET confirmation_sent = TRUE").
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepository(mock)
	if err := repo.MarkReminderSent(context.Background(), "a-1"); err != nil {
		t.Fatalf("mark reminder: %v", err)
	}
	if err := repo.MarkConfirmationSent(context.Background(), "gone"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
