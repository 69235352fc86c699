package patients

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines patient storage.
type Repository interface {
	// Upsert inserts a new patient keyed by email, or overwrites the mutable
	// fields of the existing one and marks it returning.
	Upsert(ctx context.Context, in UpsertInput) (*UpsertResult, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	List(ctx context.Context, filter ListFilter) ([]*Patient, error)
}

// InMemoryRepository keeps patients in a map. Used in tests and local runs without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Patient
	byEmail map[string]string
	now     func() time.Time
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*Patient),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepository) Upsert(ctx context.Context, in UpsertInput) (*UpsertResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byEmail[email]; ok {
		p := r.byID[id]
		applyInput(p, in)
		p.PatientType = TypeReturning
		p.UpdatedAt = now
		cp := *p
		return &UpsertResult{Patient: &cp, Existed: true}, nil
	}

	p := &Patient{
		ID:          uuid.New().String(),
		Email:       email,
		PatientType: TypeNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyInput(p, in)
	r.byID[p.ID] = p
	r.byEmail[email] = p.ID
	cp := *p
	return &UpsertResult{Patient: &cp, Existed: false}, nil
}

func applyInput(p *Patient, in UpsertInput) {
	p.FirstName = in.FirstName
	p.LastName = in.LastName
	p.Phone = in.Phone
	p.DateOfBirth = in.DateOfBirth
	p.EmergencyContactName = in.EmergencyContactName
	p.EmergencyContactPhone = in.EmergencyContactPhone
	p.InsuranceCarrier = in.InsuranceCarrier
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

// List returns patients newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Patient, error) {
	r.mu.RLock()
	var out []*Patient
	for _, p := range r.byID {
		if p.Matches(filter.Search) {
			cp := *p
			out = append(out, &cp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*Patient{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
