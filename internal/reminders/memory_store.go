package reminders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Repository for local runs and tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*Reminder
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*Reminder)}
}

func (m *MemoryStore) Schedule(ctx context.Context, r *Reminder) error {
	if r.Kind == "" {
		r.Kind = KindReminder
	}
	r.ID = uuid.New().String()
	r.Status = StatusPending
	r.CreatedAt = time.Now().UTC()
	cp := *r
	m.mu.Lock()
	m.items[r.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]Reminder, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*Reminder
	for _, r := range m.items {
		switch {
		case r.Status == StatusPending && !r.DueAt.After(now):
			due = append(due, r)
		case r.Status == StatusProcessing && r.ClaimedAt != nil && r.ClaimedAt.Before(now.Add(-lease)):
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].DueAt.Before(due[j].DueAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	out := make([]Reminder, 0, len(due))
	for _, r := range due {
		claimed := now
		r.Status = StatusProcessing
		r.ClaimedAt = &claimed
		r.Attempts++
		out = append(out, *r)
	}
	return out, nil
}

func (m *MemoryStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	return m.settle(id, func(r *Reminder) {
		r.Status = StatusSent
		r.SentAt = &at
		r.LastError = ""
	})
}

func (m *MemoryStore) MarkFailed(ctx context.Context, id string, reason string) error {
	return m.settle(id, func(r *Reminder) {
		r.Status = StatusFailed
		r.LastError = reason
	})
}

func (m *MemoryStore) MarkSkipped(ctx context.Context, id string, reason string) error {
	return m.settle(id, func(r *Reminder) {
		r.Status = StatusSkipped
		r.LastError = reason
	})
}

func (m *MemoryStore) settle(id string, fn func(*Reminder)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok || r.Status != StatusProcessing {
		return fmt.Errorf("reminders: settle %s: %w", id, ErrReminderNotFound)
	}
	fn(r)
	return nil
}

func (m *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st Stats
	for _, r := range m.items {
		switch r.Status {
		case StatusPending:
			st.Pending++
		case StatusProcessing:
			st.Processing++
		case StatusSent:
			st.Sent++
		case StatusFailed:
			st.Failed++
		case StatusSkipped:
			st.Skipped++
		}
	}
	return &st, nil
}

// Get returns a copy of one reminder.
func (m *MemoryStore) Get(id string) (Reminder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return Reminder{}, false
	}
	return *r, true
}

var _ Repository = (*MemoryStore)(nil)
