package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/medibook/clinic-booking/internal/accounts"
	"github.com/medibook/clinic-booking/internal/appointments"
	"github.com/medibook/clinic-booking/internal/booking"
	"github.com/medibook/clinic-booking/internal/chat"
	"github.com/medibook/clinic-booking/internal/dashboard"
	"github.com/medibook/clinic-booking/internal/doctors"
	"github.com/medibook/clinic-booking/internal/notify"
	"github.com/medibook/clinic-booking/internal/patients"
	"github.com/medibook/clinic-booking/internal/reminders"
	"github.com/medibook/clinic-booking/pkg/logging"
)

const (
	adminEmail    = "admin@medibook.com"
	adminPassword = "admin-password"
)

type testStack struct {
	router   http.Handler
	accounts *accounts.Service
	appts    *appointments.InMemoryRepository
}

func newTestStack(t *testing.T, opts ...func(*Config)) *testStack {
	t.Helper()

	logger := logging.Default()
	pats := patients.NewInMemoryRepository()
	appts := appointments.NewInMemoryRepository()
	directory := doctors.NewStaticDirectory(doctors.Fallback())
	notifier := notify.NewDispatcher(notify.NewStubEmailSender(logger), nil, logger)

	var docs []doctors.Doctor
	for _, d := range doctors.Fallback() {
		docs = append(docs, *d.Doctor())
	}

	bookingSvc := booking.NewService(booking.Config{
		Patients:     pats,
		Appointments: appts,
		Directory:    directory,
		Notifier:     notifier,
		Reminders:    reminders.NewMemoryStore(),
		Logger:       logger,
	})
	accountSvc := accounts.NewService(accounts.NewInMemoryRepository(), accounts.NewTokenIssuer("router-secret", time.Hour), nil, logger)
	if _, err := accountSvc.EnsureAdmin(context.Background(), adminEmail, adminPassword); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	dashboardSvc := dashboard.NewService(dashboard.Config{
		Source:  dashboard.NewMemorySource(pats, appts, docs),
		Updater: appts,
		Logger:  logger,
	})

	cfg := &Config{
		Logger:           logger,
		DoctorsHandler:   doctors.NewHandler(directory, nil, logger),
		BookingHandler:   booking.NewHandler(bookingSvc, logger),
		ChatHandler:      chat.NewHandler(chat.NewEngine(chat.DefaultRules), nil, logger),
		NotifyHandler:    notify.NewHandler(notifier, logger),
		AccountsHandler:  accounts.NewHandler(accountSvc, logger),
		DashboardHandler: dashboard.NewHandler(dashboardSvc, logger),
		Authenticator:    accountSvc,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &testStack{
		router:   New(cfg),
		accounts: accountSvc,
		appts:    appts,
	}
}

func (s *testStack) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testStack) signIn(t *testing.T, email, password string) string {
	t.Helper()
	session, err := s.accounts.SignIn(context.Background(), accounts.SignInInput{Email: email, Password: password})
	if err != nil {
		t.Fatalf("sign in %s: %v", email, err)
	}
	return session.Token
}

func TestRouterHealthEndpoint(t *testing.T) {
	s := newTestStack(t)

	rr := s.do(t, http.MethodGet, "/health", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterHealthDegraded(t *testing.T) {
	r := New(&Config{HealthCheck: func(context.Context) error { return errors.New("db down") }})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "db down") {
		t.Errorf("expected error in body, got %s", rr.Body.String())
	}
}

func TestRouterDoctorsEndpoint(t *testing.T) {
	s := newTestStack(t)

	rr := s.do(t, http.MethodGet, "/api/doctors", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Johnson") {
		t.Errorf("expected Dr. Johnson in directory, got %s", rr.Body.String())
	}
}

// Book as a patient, then cancel the appointment from the admin dashboard.
func TestRouterBookingAndAdminCancel(t *testing.T) {
	s := newTestStack(t)

	form := booking.Form{
		DoctorID:              doctors.Fallback()[2].ID,
		FirstName:             "Jane",
		LastName:              "Doe",
		Email:                 "new@example.com",
		Phone:                 "555-0100",
		DateOfBirth:           "1990-05-01",
		AppointmentDate:       "2025-03-10",
		AppointmentTime:       "09:00",
		ReasonForVisit:        "Chest pain follow-up",
		EmergencyContactName:  "John Doe",
		EmergencyContactPhone: "555-0101",
	}
	rr := s.do(t, http.MethodPost, "/api/appointments", form, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	list, err := s.appts.List(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one stored appointment, got %d (%v)", len(list), err)
	}
	id := list[0].ID
	path := "/admin/appointments/" + id + "/status"
	body := map[string]string{"status": "cancelled"}

	if rr := s.do(t, http.MethodPatch, path, body, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	if _, err := s.accounts.SignUp(context.Background(), accounts.SignUpInput{
		Email: "patient@example.com", Password: "patient-password", FirstName: "Pat", LastName: "Ient",
	}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	patientToken := s.signIn(t, "patient@example.com", "patient-password")
	if rr := s.do(t, http.MethodPatch, path, body, patientToken); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for patient role, got %d", rr.Code)
	}

	rr = s.do(t, http.MethodPatch, path, body, s.signIn(t, adminEmail, adminPassword))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var snap dashboard.Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Appointments) != 1 || snap.Appointments[0].Status != appointments.StatusCancelled {
		t.Fatalf("expected cancelled appointment in snapshot, got %+v", snap.Appointments)
	}
	if snap.Stats.PendingAppointments != 0 {
		t.Errorf("expected no pending appointments, got %d", snap.Stats.PendingAppointments)
	}
}

func TestRouterSignOutRevokesAdminAccess(t *testing.T) {
	s := newTestStack(t)
	token := s.signIn(t, adminEmail, adminPassword)

	if rr := s.do(t, http.MethodGet, "/admin/dashboard", nil, token); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 before sign out, got %d", rr.Code)
	}
	if rr := s.do(t, http.MethodPost, "/auth/signout", nil, token); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from sign out, got %d", rr.Code)
	}
	if rr := s.do(t, http.MethodGet, "/admin/dashboard", nil, token); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after sign out, got %d", rr.Code)
	}
}

var notificationRequest = notify.Request{
	PatientEmail:    "new@example.com",
	PatientName:     "Jane Doe",
	DoctorName:      "Dr. Sarah Johnson",
	AppointmentDate: "2025-03-10",
	AppointmentTime: "09:00",
	Type:            notify.TypeConfirmation,
}

func TestRouterNotificationFunction(t *testing.T) {
	s := newTestStack(t)

	rr := s.do(t, http.MethodOptions, "/functions/send-appointment-notification", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected preflight 200, got %d", rr.Code)
	}

	rr = s.do(t, http.MethodPost, "/functions/send-appointment-notification", notificationRequest, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous send, got %d", rr.Code)
	}

	if _, err := s.accounts.SignUp(context.Background(), accounts.SignUpInput{
		Email: "patient@example.com", Password: "patient-password", FirstName: "Pat", LastName: "Ient",
	}); err != nil {
		t.Fatalf("sign up patient: %v", err)
	}
	patientToken := s.signIn(t, "patient@example.com", "patient-password")
	rr = s.do(t, http.MethodPost, "/functions/send-appointment-notification", notificationRequest, patientToken)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for patient send, got %d", rr.Code)
	}

	adminToken := s.signIn(t, adminEmail, adminPassword)
	rr = s.do(t, http.MethodPost, "/functions/send-appointment-notification", notificationRequest, adminToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"success":true`) {
		t.Errorf("expected success body, got %s", rr.Body.String())
	}
}

func TestRouterNotificationFunctionRateLimited(t *testing.T) {
	s := newTestStack(t, func(cfg *Config) {
		cfg.RateLimitRPS = 0.01
		cfg.RateLimitBurst = 2
	})

	limited := 0
	for i := 0; i < 10; i++ {
		rr := s.do(t, http.MethodPost, "/functions/send-appointment-notification", notificationRequest, "")
		switch rr.Code {
		case http.StatusUnauthorized:
		case http.StatusTooManyRequests:
			limited++
		default:
			t.Fatalf("unexpected status %d", rr.Code)
		}
	}
	if limited != 8 {
		t.Fatalf("expected 8 limited requests, got %d", limited)
	}
}

func TestRouterNotificationFunctionMissingWithoutAuthenticator(t *testing.T) {
	logger := logging.Default()
	notifier := notify.NewDispatcher(notify.NewStubEmailSender(logger), nil, logger)
	r := New(&Config{Logger: logger, NotifyHandler: notify.NewHandler(notifier, logger)})

	body, _ := json.Marshal(notificationRequest)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/functions/send-appointment-notification", bytes.NewReader(body)))
	if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected send to be unavailable without accounts, got %d", rr.Code)
	}
}

func TestRouterChatMessage(t *testing.T) {
	s := newTestStack(t)

	rr := s.do(t, http.MethodPost, "/chat/message", map[string]string{"text": "What are your hours?"}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"topic":"hours"`) {
		t.Errorf("expected hours topic, got %s", rr.Body.String())
	}
}

// Without an authenticator the admin surface must not exist at all.
func TestRouterAdminMissingWithoutAuthenticator(t *testing.T) {
	r := New(&Config{Logger: logging.Default()})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when no authenticator is configured, got %d", rr.Code)
	}
}
