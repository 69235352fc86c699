package accounts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists user profiles.
type Repository interface {
	Create(ctx context.Context, p *Profile) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	UpsertAdmin(ctx context.Context, p *Profile) (*Profile, error)
}

// DB abstracts the pgx query interface so pgxpool.Pool and pgxmock both fit.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads and writes user_profiles.
type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("accounts: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const profileColumns = `
	id::text, user_id::text, email, first_name, last_name,
	COALESCE(phone, ''), COALESCE(avatar_url, ''), role::text, password_hash,
	created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, p *Profile) (*Profile, error) {
	query := `
		INSERT INTO user_profiles (email, first_name, last_name, phone, role, password_hash)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING ` + profileColumns
	row := r.db.QueryRow(ctx, query,
		normalizeEmail(p.Email), p.FirstName, p.LastName, p.Phone, string(p.Role), p.PasswordHash)
	out, err := scanProfile(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("accounts: create profile: %w", err)
	}
	return out, nil
}

// UpsertAdmin creates the admin profile or resets its password and role.
func (r *PostgresRepository) UpsertAdmin(ctx context.Context, p *Profile) (*Profile, error) {
	query := `
		INSERT INTO user_profiles (email, first_name, last_name, role, password_hash)
		VALUES ($1, $2, $3, 'admin', $4)
		ON CONFLICT (email) DO UPDATE SET
			role = 'admin',
			password_hash = EXCLUDED.password_hash,
			updated_at = now()
		RETURNING ` + profileColumns
	row := r.db.QueryRow(ctx, query, normalizeEmail(p.Email), p.FirstName, p.LastName, p.PasswordHash)
	out, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("accounts: upsert admin: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE email = $1`, normalizeEmail(email))
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("accounts: load profile: %w", err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var role string
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Email, &p.FirstName, &p.LastName,
		&p.Phone, &p.AvatarURL, &role, &p.PasswordHash,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Role = Role(role)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// InMemoryRepository is used in development and tests.
type InMemoryRepository struct {
	mu      sync.Mutex
	byEmail map[string]*Profile
	now     func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byEmail: map[string]*Profile{}, now: time.Now}
}

func (r *InMemoryRepository) Create(_ context.Context, p *Profile) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := normalizeEmail(p.Email)
	if _, ok := r.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}
	stored := r.fresh(p, email)
	r.byEmail[email] = stored
	cp := *stored
	return &cp, nil
}

func (r *InMemoryRepository) UpsertAdmin(_ context.Context, p *Profile) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := normalizeEmail(p.Email)
	stored, ok := r.byEmail[email]
	if !ok {
		stored = r.fresh(p, email)
		r.byEmail[email] = stored
	}
	stored.Role = RoleAdmin
	stored.PasswordHash = p.PasswordHash
	stored.UpdatedAt = r.now()
	cp := *stored
	return &cp, nil
}

func (r *InMemoryRepository) fresh(p *Profile, email string) *Profile {
	now := r.now()
	cp := *p
	cp.ID = uuid.NewString()
	cp.UserID = uuid.NewString()
	cp.Email = email
	if cp.Role == "" {
		cp.Role = RolePatient
	}
	cp.CreatedAt = now
	cp.UpdatedAt = now
	return &cp
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *InMemoryRepository) GetByUserID(_ context.Context, userID string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byEmail {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrProfileNotFound
}
