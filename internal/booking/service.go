package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/medibook/clinic-booking/internal/appointments"
	"github.com/medibook/clinic-booking/internal/doctors"
	"github.com/medibook/clinic-booking/internal/notify"
	"github.com/medibook/clinic-booking/internal/observability/metrics"
	"github.com/medibook/clinic-booking/internal/patients"
	"github.com/medibook/clinic-booking/internal/reminders"
	"github.com/medibook/clinic-booking/pkg/logging"
)

var bookingTracer = otel.Tracer("medibook.internal.booking")

// ReminderScheduler persists a reminder for later delivery.
type ReminderScheduler interface {
	Schedule(ctx context.Context, r *reminders.Reminder) error
}

// Result is returned to the patient after a successful booking.
type Result struct {
	Message          string                    `json:"message"`
	Patient          *patients.Patient         `json:"patient"`
	Appointment      *appointments.Appointment `json:"appointment"`
	ReturningPatient bool                      `json:"returning_patient"`
	ConfirmationSent bool                      `json:"confirmation_sent"`
	ReminderAt       *time.Time                `json:"reminder_at,omitempty"`
}

// Service runs the booking flow: resolve the patient, store the appointment,
// confirm by email and schedule the reminder.
type Service struct {
	patients     patients.Repository
	appointments appointments.Repository
	directory    doctors.Directory
	notifier     notify.Notifier
	reminders    ReminderScheduler
	metrics      *metrics.ClinicMetrics
	logger       *logging.Logger
	location     *time.Location
	leadTime     time.Duration
	now          func() time.Time
}

// Config wires a Service.
type Config struct {
	Patients     patients.Repository
	Appointments appointments.Repository
	Directory    doctors.Directory
	Notifier     notify.Notifier
	Reminders    ReminderScheduler
	Metrics      *metrics.ClinicMetrics
	Logger       *logging.Logger
	Location     *time.Location
	// ReminderLeadTime is how long before the appointment the reminder fires. Defaults to 2h.
	ReminderLeadTime time.Duration
}

// NewService constructs a booking service.
func NewService(cfg Config) *Service {
	if cfg.Patients == nil || cfg.Appointments == nil {
		panic("booking: patient and appointment repositories required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ReminderLeadTime <= 0 {
		cfg.ReminderLeadTime = 2 * time.Hour
	}
	return &Service{
		patients:     cfg.Patients,
		appointments: cfg.Appointments,
		directory:    cfg.Directory,
		notifier:     cfg.Notifier,
		reminders:    cfg.Reminders,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		location:     cfg.Location,
		leadTime:     cfg.ReminderLeadTime,
		now:          time.Now,
	}
}

// SubmitBookingByDoctorID resolves the doctor and submits the booking.
// An unknown doctor is treated the same as no doctor.
func (s *Service) SubmitBookingByDoctorID(ctx context.Context, form Form) (*Result, error) {
	id := strings.TrimSpace(form.DoctorID)
	if id == "" || s.directory == nil {
		return nil, ErrDoctorRequired
	}
	doc, err := s.directory.GetSafe(ctx, id)
	if err != nil {
		if errors.Is(err, doctors.ErrDoctorNotFound) {
			return nil, ErrDoctorRequired
		}
		return nil, fmt.Errorf("booking: load doctor: %w", err)
	}
	return s.SubmitBooking(ctx, form, doc.Doctor())
}

// SubmitBooking stores the patient and appointment and triggers notifications.
// Patient and appointment writes are not wrapped in a transaction: if the
// appointment insert fails the patient row stays updated. Notification and
// reminder scheduling failures are logged and never fail the booking.
func (s *Service) SubmitBooking(ctx context.Context, form Form, doctor *doctors.Doctor) (*Result, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.submit")
	defer span.End()
	started := s.now()

	if doctor == nil {
		s.metrics.ObserveBooking("", "invalid", s.now().Sub(started).Seconds())
		return nil, ErrDoctorRequired
	}
	span.SetAttributes(attribute.String("medibook.doctor_id", doctor.ID))
	if err := form.Validate(); err != nil {
		s.metrics.ObserveBooking("", "invalid", s.now().Sub(started).Seconds())
		return nil, err
	}

	upsert, err := s.patients.Upsert(ctx, patients.UpsertInput{
		FirstName:             strings.TrimSpace(form.FirstName),
		LastName:              strings.TrimSpace(form.LastName),
		Email:                 form.Email,
		Phone:                 strings.TrimSpace(form.Phone),
		DateOfBirth:           form.dateOfBirth(),
		EmergencyContactName:  strings.TrimSpace(form.EmergencyContactName),
		EmergencyContactPhone: strings.TrimSpace(form.EmergencyContactPhone),
		InsuranceCarrier:      strings.TrimSpace(form.InsuranceCarrier),
	})
	if err != nil {
		return nil, s.fail(span, started, "", fmt.Errorf("booking: resolve patient: %w", err))
	}
	patient := upsert.Patient
	patientType := string(patients.TypeNew)
	if upsert.Existed {
		patientType = string(patients.TypeReturning)
	}
	span.SetAttributes(
		attribute.String("medibook.patient_id", patient.ID),
		attribute.Bool("medibook.returning_patient", upsert.Existed),
	)

	date := strings.TrimSpace(form.AppointmentDate)
	clock := strings.TrimSpace(form.AppointmentTime)
	appt, err := s.appointments.Create(ctx, appointments.CreateInput{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: date,
		AppointmentTime: clock,
		DurationMinutes: appointments.DurationFor(upsert.Existed),
		ReasonForVisit:  strings.TrimSpace(form.ReasonForVisit),
	})
	if err != nil {
		return nil, s.fail(span, started, patientType, fmt.Errorf("booking: create appointment: %w", err))
	}

	result := &Result{
		Message:          SuccessMessage(doctor.FirstName, doctor.LastName, date, clock),
		Patient:          patient,
		Appointment:      appt,
		ReturningPatient: upsert.Existed,
	}

	req := notify.Request{
		PatientEmail:    patient.Email,
		PatientName:     form.patientName(),
		DoctorName:      doctor.FullName(),
		AppointmentDate: date,
		AppointmentTime: clock,
		Type:            notify.TypeConfirmation,
	}
	result.ConfirmationSent = s.sendConfirmation(ctx, appt, req)
	result.ReminderAt = s.scheduleReminder(ctx, appt, req)

	s.metrics.ObserveBooking(patientType, "success", s.now().Sub(started).Seconds())
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"patient_id", patient.ID,
		"doctor_id", doctor.ID,
		"patient_type", patientType,
		"duration_minutes", appt.DurationMinutes,
	)
	return result, nil
}

func (s *Service) fail(span trace.Span, started time.Time, patientType string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.metrics.ObserveBooking(patientType, "error", s.now().Sub(started).Seconds())
	s.logger.Error("booking failed", "error", err)
	return err
}

func (s *Service) sendConfirmation(ctx context.Context, appt *appointments.Appointment, req notify.Request) bool {
	if s.notifier == nil {
		return false
	}
	if _, err := s.notifier.Notify(ctx, req); err != nil {
		s.logger.Error("failed to send confirmation", "appointment_id", appt.ID, "error", err)
		return false
	}
	if err := s.appointments.MarkConfirmationSent(ctx, appt.ID); err != nil {
		s.logger.Warn("failed to flag confirmation sent", "appointment_id", appt.ID, "error", err)
	}
	appt.ConfirmationSent = true
	return true
}

// scheduleReminder persists a reminder when its fire time is still ahead.
func (s *Service) scheduleReminder(ctx context.Context, appt *appointments.Appointment, req notify.Request) *time.Time {
	if s.reminders == nil {
		return nil
	}
	start, err := appt.StartsAt(s.location)
	if err != nil {
		s.logger.Warn("cannot compute reminder time", "appointment_id", appt.ID, "error", err)
		return nil
	}
	due := reminders.ReminderTime(start, s.leadTime)
	if !due.After(s.now()) {
		s.logger.Debug("reminder time already passed", "appointment_id", appt.ID, "due_at", due)
		return nil
	}

	req.Type = notify.TypeReminder
	r := &reminders.Reminder{
		AppointmentID: appt.ID,
		Kind:          reminders.KindReminder,
		DueAt:         due,
		Payload:       req,
	}
	if err := s.reminders.Schedule(ctx, r); err != nil {
		s.logger.Error("failed to schedule reminder", "appointment_id", appt.ID, "error", err)
		return nil
	}
	return &due
}
