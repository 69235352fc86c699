package appointments

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository keeps appointments in a map.
type InMemoryRepository struct {
	mu     sync.RWMutex
	items  map[string]*Appointment
	strict bool
	now    func() time.Time
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository(opts ...Option) *InMemoryRepository {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &InMemoryRepository{
		items:  make(map[string]*Appointment),
		strict: o.strict,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	if in.PatientID == "" || in.DoctorID == "" {
		return nil, fmt.Errorf("appointments: insert failed: patient and doctor are required")
	}
	now := r.now()
	a := &Appointment{
		ID:              uuid.New().String(),
		PatientID:       in.PatientID,
		DoctorID:        in.DoctorID,
		AppointmentDate: in.AppointmentDate,
		AppointmentTime: in.AppointmentTime,
		DurationMinutes: in.DurationMinutes,
		ReasonForVisit:  in.ReasonForVisit,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.mu.Lock()
	r.items[a.ID] = a
	r.mu.Unlock()
	cp := *a
	return &cp, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if r.strict && !CanTransition(a.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, status)
	}
	a.Status = status
	a.UpdatedAt = r.now()
	cp := *a
	return &cp, nil
}

func (r *InMemoryRepository) MarkConfirmationSent(ctx context.Context, id string) error {
	return r.mark(id, func(a *Appointment) { a.ConfirmationSent = true })
}

func (r *InMemoryRepository) MarkReminderSent(ctx context.Context, id string) error {
	return r.mark(id, func(a *Appointment) { a.ReminderSent = true })
}

func (r *InMemoryRepository) mark(id string, fn func(*Appointment)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	fn(a)
	a.UpdatedAt = r.now()
	return nil
}

// List returns every appointment, latest appointment date first.
func (r *InMemoryRepository) List(ctx context.Context) ([]Appointment, error) {
	r.mu.RLock()
	out := make([]Appointment, 0, len(r.items))
	for _, a := range r.items {
		out = append(out, *a)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].AppointmentDate != out[j].AppointmentDate {
			return out[i].AppointmentDate > out[j].AppointmentDate
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
