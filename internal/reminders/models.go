package reminders

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/medibook/clinic-booking/internal/notify"
)

// Status tracks a scheduled notification.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// KindReminder is the only kind the booking flow schedules today.
const KindReminder = "reminder"

// ErrReminderNotFound is returned when an update targets a missing or already settled row.
var ErrReminderNotFound = errors.New("scheduled reminder not found")

// Reminder is a persisted notification that fires at DueAt.
type Reminder struct {
	ID            string         `json:"id"`
	AppointmentID string         `json:"appointment_id"`
	Kind          string         `json:"kind"`
	DueAt         time.Time      `json:"due_at"`
	Payload       notify.Request `json:"payload"`
	Status        Status         `json:"status"`
	Attempts      int            `json:"attempts"`
	ClaimedAt     *time.Time     `json:"claimed_at,omitempty"`
	SentAt        *time.Time     `json:"sent_at,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Stats counts reminders per status.
type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Skipped    int64 `json:"skipped"`
}

// ReminderTime is the moment a reminder for an appointment starting at start should fire.
func ReminderTime(start time.Time, lead time.Duration) time.Time {
	return start.Add(-lead)
}

func encodePayload(req notify.Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("reminders: encode payload: %w", err)
	}
	return data, nil
}

func decodePayload(data []byte, dest *notify.Request) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("reminders: decode payload: %w", err)
	}
	return nil
}
