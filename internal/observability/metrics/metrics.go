package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "medibook"

// ClinicMetrics exposes counters/histograms for booking, notification and reminder flows.
type ClinicMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	bookingLatency     prometheus.Histogram
	notificationsTotal *prometheus.CounterVec
	remindersTotal     *prometheus.CounterVec
	statusUpdatesTotal *prometheus.CounterVec
}

// NewClinicMetrics registers the collectors on reg, or the default registerer when nil.
func NewClinicMetrics(reg prometheus.Registerer) *ClinicMetrics {
	m := &ClinicMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by patient type and outcome",
		}, []string{"patient_type", "status"}),
		bookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "submit_seconds",
			Help:      "Latency of the booking submission flow",
			Buckets:   prometheus.DefBuckets,
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Notification dispatch attempts by type and outcome",
		}, []string{"type", "status"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "processed_total",
			Help:      "Scheduled reminders processed by outcome",
		}, []string{"outcome"}),
		statusUpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "status_updates_total",
			Help:      "Appointment status updates by target status and outcome",
		}, []string{"status", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.bookingLatency, m.notificationsTotal, m.remindersTotal, m.statusUpdatesTotal)
	return m
}

func (m *ClinicMetrics) ObserveBooking(patientType, status string, seconds float64) {
	if m == nil {
		return
	}
	if patientType == "" {
		patientType = "unknown"
	}
	m.bookingsTotal.WithLabelValues(patientType, status).Inc()
	m.bookingLatency.Observe(seconds)
}

func (m *ClinicMetrics) ObserveNotification(kind, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind, status).Inc()
}

func (m *ClinicMetrics) ObserveReminder(outcome string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(outcome).Inc()
}

func (m *ClinicMetrics) ObserveStatusUpdate(status, result string) {
	if m == nil {
		return
	}
	m.statusUpdatesTotal.WithLabelValues(status, result).Inc()
}
