package notify

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleRequest(kind Type) Request {
	return Request{
		PatientEmail:    "new@example.com",
		PatientName:     "Jane Doe",
		DoctorName:      "Sarah Johnson",
		AppointmentDate: "2025-03-10",
		AppointmentTime: "09:00",
		Type:            kind,
	}
}

func TestRenderConfirmation(t *testing.T) {
	out, err := Render(sampleRequest(TypeConfirmation), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Subject != "Appointment Confirmation - MediBook" {
		t.Fatalf("unexpected subject %q", out.Subject)
	}
	for _, want := range []string{
		"Appointment Confirmed!",
		"Dear Jane Doe,",
		"Dr. Sarah Johnson",
		"Monday, March 10, 2025",
		"09:00",
		"Please arrive 15 minutes early",
		"(555) 123-4567",
		"#dbeafe",
	} {
		if !strings.Contains(out.HTML, want) {
			t.Errorf("confirmation html missing %q", want)
		}
	}
	if !strings.Contains(out.Text, "Dr. Sarah Johnson") {
		t.Errorf("text body missing doctor")
	}
}

func TestRenderReminder(t *testing.T) {
	out, err := Render(sampleRequest(TypeReminder), time.Now())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Subject != "Appointment Reminder - MediBook" {
		t.Fatalf("unexpected subject %q", out.Subject)
	}
	if !strings.Contains(out.HTML, "in a few hours") {
		t.Errorf("reminder html missing notice")
	}
	if strings.Contains(out.HTML, "arrive 15 minutes early") {
		t.Errorf("reminder should not carry confirmation notice")
	}
}

func TestRenderEscapesNames(t *testing.T) {
	req := sampleRequest(TypeConfirmation)
	req.PatientName = "<script>x</script>"
	out, err := Render(req, time.Now())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out.HTML, "<script>") {
		t.Fatalf("patient name was not escaped")
	}
}

func TestRenderRejectsInvalidRequests(t *testing.T) {
	req := sampleRequest("followup")
	if _, err := Render(req, time.Now()); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	req = sampleRequest(TypeReminder)
	req.PatientEmail = " "
	if _, err := Render(req, time.Now()); !errors.Is(err, ErrMissingRecipient) {
		t.Fatalf("expected ErrMissingRecipient, got %v", err)
	}
}

func TestFormatLongDate(t *testing.T) {
	if got := FormatLongDate("2025-03-10"); got != "Monday, March 10, 2025" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatLongDate("next tuesday"); got != "next tuesday" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
