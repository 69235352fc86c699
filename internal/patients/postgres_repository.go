package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface so pgxpool.Pool and pgxmock both fit.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores patients in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const patientColumns = `
	id::text, user_id::text, first_name, last_name, email,
	COALESCE(phone, ''), date_of_birth, COALESCE(address, ''),
	COALESCE(emergency_contact_name, ''), COALESCE(emergency_contact_phone, ''),
	COALESCE(insurance_carrier, ''), COALESCE(insurance_group_number, ''), COALESCE(insurance_member_id, ''),
	patient_type::text, created_at, updated_at`

// Upsert resolves the patient in a single statement. xmax is zero only for
// freshly inserted tuples, which tells us whether the email was already known.
func (r *PostgresRepository) Upsert(ctx context.Context, in UpsertInput) (*UpsertResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO patients (
			first_name, last_name, email, phone, date_of_birth,
			emergency_contact_name, emergency_contact_phone, insurance_carrier, patient_type
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'new')
		ON CONFLICT (email) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			date_of_birth = EXCLUDED.date_of_birth,
			emergency_contact_name = EXCLUDED.emergency_contact_name,
			emergency_contact_phone = EXCLUDED.emergency_contact_phone,
			insurance_carrier = EXCLUDED.insurance_carrier,
			patient_type = 'returning',
			updated_at = now()
		RETURNING ` + patientColumns + `, (xmax = 0) AS inserted`

	row := r.db.QueryRow(ctx, query,
		in.FirstName,
		in.LastName,
		NormalizeEmail(in.Email),
		nullable(in.Phone),
		in.DateOfBirth,
		nullable(in.EmergencyContactName),
		nullable(in.EmergencyContactPhone),
		nullable(in.InsuranceCarrier),
	)

	var p Patient
	var inserted bool
	dest := append(patientScanDest(&p), &inserted)
	if err := row.Scan(dest...); err != nil {
		return nil, fmt.Errorf("patients: upsert failed: %w", err)
	}
	return &UpsertResult{Patient: &p, Existed: !inserted}, nil
}

// GetByID fetches a patient by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
}

// GetByEmail fetches a patient by normalized email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE email = $1`, NormalizeEmail(email))
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*Patient, error) {
	var p Patient
	if err := r.db.QueryRow(ctx, query, arg).Scan(patientScanDest(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: select failed: %w", err)
	}
	return &p, nil
}

// List returns patients newest first, optionally filtered by a name/email search term.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Patient, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		rows pgx.Rows
		err  error
	)
	search := strings.TrimSpace(filter.Search)
	if search == "" {
		rows, err = r.db.Query(ctx, `SELECT `+patientColumns+`
			FROM patients
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		rows, err = r.db.Query(ctx, `SELECT `+patientColumns+`
			FROM patients
			WHERE (first_name || ' ' || last_name || ' ' || email) ILIKE $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`, "%"+escapeLike(search)+"%", limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(patientScanDest(&p)...); err != nil {
			return nil, fmt.Errorf("patients: scan failed: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	return out, nil
}

func patientScanDest(p *Patient) []any {
	return []any{
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Email,
		&p.Phone, &p.DateOfBirth, &p.Address,
		&p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.InsuranceCarrier, &p.InsuranceGroupNumber, &p.InsuranceMemberID,
		&p.PatientType, &p.CreatedAt, &p.UpdatedAt,
	}
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
