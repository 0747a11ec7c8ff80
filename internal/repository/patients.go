package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/klinikops/sgk-docflow/internal/common"
	"github.com/klinikops/sgk-docflow/internal/entity"
)

// PatientRepository is the patient directory read/write model. Snapshot and
// GetByNationalID satisfy the identity engine's Directory interface.
type PatientRepository interface {
	Snapshot(ctx context.Context) ([]*entity.Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Patient, error)
	GetByNationalID(ctx context.Context, nationalID string) (*entity.Patient, error)
	Upsert(ctx context.Context, p *entity.Patient) (*entity.Patient, error)
}

type patientRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPatientRepository(db *sql.DB, logger *slog.Logger) PatientRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &patientRepository{db: db, logger: logger}
}

const patientCols = "id, first_name, last_name, national_id, birth_date, phone, created_at, updated_at"

func (r *patientRepository) Snapshot(ctx context.Context) ([]*entity.Patient, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+patientCols+" FROM patients ORDER BY last_name, first_name")
	if err != nil {
		r.logger.Error("failed to load patient directory", "error", err)
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var out []*entity.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, wrapStoreErr(err)
		}
		out = append(out, p)
	}
	return out, wrapStoreErr(rows.Err())
}

func (r *patientRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Patient, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+patientCols+" FROM patients WHERE id = ?", id.String())
	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return p, nil
}

func (r *patientRepository) GetByNationalID(ctx context.Context, nationalID string) (*entity.Patient, error) {
	if nationalID == "" {
		return nil, common.ErrInvalidInput
	}
	row := r.db.QueryRowContext(ctx, "SELECT "+patientCols+" FROM patients WHERE national_id = ?", nationalID)
	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return p, nil
}

func (r *patientRepository) Upsert(ctx context.Context, p *entity.Patient) (*entity.Patient, error) {
	now := time.Now().UTC()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	var birth any
	if p.BirthDate != nil {
		birth = p.BirthDate.UTC().Format(time.RFC3339)
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO patients (id, first_name, last_name, national_id, birth_date, phone, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	first_name = excluded.first_name,
	last_name = excluded.last_name,
	national_id = excluded.national_id,
	birth_date = excluded.birth_date,
	phone = excluded.phone,
	updated_at = excluded.updated_at`,
		p.ID.String(), p.FirstName, p.LastName, p.NationalID, birth, p.Phone,
		p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Error("failed to upsert patient", "patient_id", p.ID, "error", err)
		return nil, wrapStoreErr(err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*entity.Patient, error) {
	var p entity.Patient
	var id string
	var birth sql.NullString
	var created, updated string
	if err := row.Scan(&id, &p.FirstName, &p.LastName, &p.NationalID, &birth, &p.Phone, &created, &updated); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	p.ID = parsed
	if birth.Valid && birth.String != "" {
		if t, err := time.Parse(time.RFC3339, birth.String); err == nil {
			p.BirthDate = &t
		}
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		p.UpdatedAt = t
	}
	return &p, nil
}
