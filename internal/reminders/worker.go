package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medibook/clinic-booking/internal/appointments"
	"github.com/medibook/clinic-booking/internal/notify"
	"github.com/medibook/clinic-booking/internal/observability/metrics"
	"github.com/medibook/clinic-booking/pkg/logging"
)

// AppointmentSource is what the worker needs from the appointment store.
type AppointmentSource interface {
	GetByID(ctx context.Context, id string) (*appointments.Appointment, error)
	MarkReminderSent(ctx context.Context, id string) error
}

// maxClaims bounds how often a reminder can be re-claimed after a worker died holding it.
const maxClaims = 3

// Worker fires due reminders. Each claimed reminder gets one send attempt.
type Worker struct {
	store        Repository
	appointments AppointmentSource
	notifier     notify.Notifier
	metrics      *metrics.ClinicMetrics
	logger       *logging.Logger
	interval     time.Duration
	lease        time.Duration
	batchSize    int
	now          func() time.Time
}

// NewWorker creates a reminder worker with a one minute poll interval.
func NewWorker(store Repository, appts AppointmentSource, notifier notify.Notifier, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		store:        store,
		appointments: appts,
		notifier:     notifier,
		logger:       logger,
		interval:     time.Minute,
		lease:        5 * time.Minute,
		batchSize:    50,
		now:          time.Now,
	}
}

func (w *Worker) WithInterval(interval time.Duration) *Worker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

func (w *Worker) WithLease(lease time.Duration) *Worker {
	if lease > 0 {
		w.lease = lease
	}
	return w
}

func (w *Worker) WithBatchSize(size int) *Worker {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

func (w *Worker) WithMetrics(m *metrics.ClinicMetrics) *Worker {
	w.metrics = m
	return w
}

// Run drains once immediately, then on every tick until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	if w.store == nil || w.notifier == nil {
		return
	}
	w.logger.Info("reminder worker started", "interval", w.interval.String(), "lease", w.lease.String())
	w.drain(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	if _, err := w.ProcessDue(ctx); err != nil {
		w.logger.Error("reminder worker: process due", "error", err)
	}
}

// ProcessDue claims due reminders and settles each one. It returns how many were sent.
func (w *Worker) ProcessDue(ctx context.Context) (int, error) {
	claimed, err := w.store.ClaimDue(ctx, w.now().UTC(), w.lease, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("reminder worker: claim: %w", err)
	}
	if len(claimed) == 0 {
		return 0, nil
	}
	w.logger.Info("reminder worker: processing due reminders", "count", len(claimed))

	sent := 0
	for i := range claimed {
		outcome, err := w.processOne(ctx, &claimed[i])
		w.metrics.ObserveReminder(outcome)
		if err != nil {
			w.logger.Error("reminder worker: failed to process reminder",
				"id", claimed[i].ID, "appointment_id", claimed[i].AppointmentID, "outcome", outcome, "error", err)
			continue
		}
		if outcome == string(StatusSent) {
			sent++
		}
	}
	return sent, nil
}

func (w *Worker) processOne(ctx context.Context, r *Reminder) (string, error) {
	if r.Attempts > maxClaims {
		reason := fmt.Sprintf("abandoned after %d claims", r.Attempts)
		return string(StatusFailed), w.store.MarkFailed(ctx, r.ID, reason)
	}

	if w.appointments != nil {
		appt, err := w.appointments.GetByID(ctx, r.AppointmentID)
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			return string(StatusSkipped), w.store.MarkSkipped(ctx, r.ID, "appointment not found")
		case err != nil:
			_ = w.store.MarkFailed(ctx, r.ID, err.Error())
			return string(StatusFailed), fmt.Errorf("load appointment: %w", err)
		case appt.Status == appointments.StatusCancelled || appt.Status == appointments.StatusCompleted:
			return string(StatusSkipped), w.store.MarkSkipped(ctx, r.ID, "appointment "+string(appt.Status))
		}
	}

	req := r.Payload
	req.Type = notify.TypeReminder
	if _, err := w.notifier.Notify(ctx, req); err != nil {
		if markErr := w.store.MarkFailed(ctx, r.ID, err.Error()); markErr != nil {
			w.logger.Error("reminder worker: mark failed", "id", r.ID, "error", markErr)
		}
		return string(StatusFailed), fmt.Errorf("send reminder: %w", err)
	}

	if err := w.store.MarkSent(ctx, r.ID, w.now()); err != nil {
		return string(StatusSent), fmt.Errorf("mark sent: %w", err)
	}
	if w.appointments != nil {
		if err := w.appointments.MarkReminderSent(ctx, r.AppointmentID); err != nil {
			w.logger.Warn("reminder worker: flag appointment", "appointment_id", r.AppointmentID, "error", err)
		}
	}
	w.logger.Info("reminder worker: reminder sent", "id", r.ID, "appointment_id", r.AppointmentID, "to", req.PatientEmail)
	return string(StatusSent), nil
}
