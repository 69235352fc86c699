package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/medibook/clinic-booking/internal/observability/metrics"
	"github.com/medibook/clinic-booking/pkg/logging"
)

// Notifier is what the booking flow and reminder worker call.
type Notifier interface {
	Notify(ctx context.Context, req Request) (*Result, error)
}

// Dispatcher renders a notification and hands it to a single EmailSender.
// It makes one attempt per call.
type Dispatcher struct {
	sender  EmailSender
	metrics *metrics.ClinicMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewDispatcher creates a dispatcher. A nil sender falls back to the stub.
func NewDispatcher(sender EmailSender, m *metrics.ClinicMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	return &Dispatcher{sender: sender, metrics: m, logger: logger, now: time.Now}
}

// Notify renders and sends req.
func (d *Dispatcher) Notify(ctx context.Context, req Request) (*Result, error) {
	rendered, err := Render(req, d.now())
	if err != nil {
		d.metrics.ObserveNotification(string(req.Type), "invalid")
		return nil, err
	}

	id, err := d.sender.Send(ctx, EmailMessage{
		To:      req.PatientEmail,
		ToName:  req.PatientName,
		Subject: rendered.Subject,
		Body:    rendered.Text,
		HTML:    rendered.HTML,
	})
	if err != nil {
		d.metrics.ObserveNotification(string(req.Type), "failed")
		d.logger.Error("notification send failed", "type", req.Type, "to", req.PatientEmail, "error", err)
		return nil, fmt.Errorf("notify: send %s: %w", req.Type, err)
	}

	d.metrics.ObserveNotification(string(req.Type), "sent")
	d.logger.Info("notification sent", "type", req.Type, "to", req.PatientEmail, "email_id", id)
	return &Result{Success: true, EmailID: id}, nil
}

var _ Notifier = (*Dispatcher)(nil)
