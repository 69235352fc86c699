package bootstrap

import (
	appconfig "github.com/medibook/clinic-booking/internal/config"
	"github.com/medibook/clinic-booking/internal/notify"
	"github.com/medibook/clinic-booking/internal/observability/metrics"
	"github.com/medibook/clinic-booking/internal/reminders"
	"github.com/medibook/clinic-booking/pkg/logging"
)

// BuildReminderWorker wires the reminder worker with the configured cadence.
func BuildReminderWorker(cfg *appconfig.Config, stores *Stores, notifier notify.Notifier, m *metrics.ClinicMetrics, logger *logging.Logger) *reminders.Worker {
	w := reminders.NewWorker(stores.Reminders, stores.Appointments, notifier, logger).WithMetrics(m)
	if cfg == nil {
		return w
	}
	return w.WithInterval(cfg.ReminderPollInterval).
		WithLease(cfg.ReminderClaimLease).
		WithBatchSize(cfg.ReminderBatchSize)
}
