package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medibook/clinic-booking/internal/appointments"
	"github.com/medibook/clinic-booking/internal/archive"
	"github.com/medibook/clinic-booking/internal/observability/metrics"
	"github.com/medibook/clinic-booking/internal/patients"
	"github.com/medibook/clinic-booking/pkg/logging"
)

// ExportColumns is the CSV header of the appointment export.
var ExportColumns = []string{"Date", "Time", "Patient", "Doctor", "Specialty", "Status", "Reason"}

// Export is a rendered appointment CSV.
type Export struct {
	FileName   string
	Body       []byte
	Rows       int
	ArchiveKey string
}

// Service serves the admin dashboard.
type Service struct {
	source   Source
	updater  StatusUpdater
	archive  ReportArchiver
	metrics  *metrics.ClinicMetrics
	logger   *logging.Logger
	location *time.Location
	now      func() time.Time
}

// Config wires a Service. Archive and Metrics are optional.
type Config struct {
	Source   Source
	Updater  StatusUpdater
	Archive  ReportArchiver
	Metrics  *metrics.ClinicMetrics
	Logger   *logging.Logger
	Location *time.Location
}

func NewService(cfg Config) *Service {
	if cfg.Source == nil || cfg.Updater == nil {
		panic("dashboard: source and status updater required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		source:   cfg.Source,
		updater:  cfg.Updater,
		archive:  cfg.Archive,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		location: cfg.Location,
		now:      time.Now,
	}
}

// Snapshot reads patients, doctors, joined appointments and stats.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	pats, err := s.source.Patients(ctx, patients.ListFilter{})
	if err != nil {
		return nil, err
	}
	docs, err := s.source.Doctors(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := s.source.Appointments(ctx, appointments.ListFilter{})
	if err != nil {
		return nil, err
	}
	stats, err := s.source.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Patients:     pats,
		Doctors:      docs,
		Appointments: appts,
		Stats:        *stats,
		GeneratedAt:  s.now().UTC(),
	}, nil
}

// UpdateStatus stores the new status and returns a freshly read snapshot.
func (s *Service) UpdateStatus(ctx context.Context, id, raw string) (*Snapshot, error) {
	status, err := appointments.ParseStatus(strings.TrimSpace(raw))
	if err != nil {
		s.metrics.ObserveStatusUpdate(raw, "invalid")
		return nil, err
	}
	if _, err := s.updater.UpdateStatus(ctx, id, status); err != nil {
		result := "error"
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			result = "not_found"
		case errors.Is(err, appointments.ErrInvalidTransition):
			result = "rejected"
		}
		s.metrics.ObserveStatusUpdate(string(status), result)
		return nil, err
	}
	s.metrics.ObserveStatusUpdate(string(status), "ok")
	s.logger.Info("appointment status updated", "appointment_id", id, "status", status)
	return s.Snapshot(ctx)
}

// SearchPatients matches name or email, ignoring case.
func (s *Service) SearchPatients(ctx context.Context, filter patients.ListFilter) ([]patients.Patient, error) {
	return s.source.Patients(ctx, filter)
}

// ExportAppointments renders the appointment list as CSV and, when upload is
// set and an archive is configured, stores a copy.
func (s *Service) ExportAppointments(ctx context.Context, statuses []appointments.Status, upload bool) (*Export, error) {
	rows, err := s.source.Appointments(ctx, appointments.ListFilter{Statuses: statuses})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ExportColumns); err != nil {
		return nil, fmt.Errorf("dashboard: write csv: %w", err)
	}
	for _, a := range rows {
		record := []string{
			a.AppointmentDate,
			a.AppointmentTime,
			strings.TrimSpace(a.Patient.FirstName + " " + a.Patient.LastName),
			strings.TrimSpace("Dr. " + a.Doctor.FirstName + " " + a.Doctor.LastName),
			a.Doctor.Specialty,
			string(a.Status),
			a.ReasonForVisit,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("dashboard: write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("dashboard: write csv: %w", err)
	}

	now := s.now().In(s.location)
	export := &Export{
		FileName: fmt.Sprintf("appointments-%s.csv", now.Format(appointments.DateLayout)),
		Body:     buf.Bytes(),
		Rows:     len(rows),
	}
	if upload && s.archive != nil {
		key, err := s.archive.PutReport(ctx, &archive.Report{
			Kind:        "appointments",
			FileName:    export.FileName,
			ContentType: "text/csv",
			Body:        export.Body,
			Rows:        export.Rows,
			CreatedAt:   now,
		})
		if err != nil {
			s.logger.Error("failed to archive export", "file", export.FileName, "error", err)
		} else {
			export.ArchiveKey = key
		}
	}
	return export, nil
}
