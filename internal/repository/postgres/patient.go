package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carelink/referral-api/pkg/metrics"

	"github.com/carelink/referral-api/internal/model"
	"github.com/carelink/referral-api/internal/repository"
)

type patientRepository struct {
	db      *sqlx.DB
	metrics repoMetrics
}

func NewPatientRepository(db *sqlx.DB, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{db: db, metrics: newRepoMetrics("patient", m)}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	defer r.metrics.track("create")()
	query := `
		INSERT INTO patients (id, name, age, gender, phone_number, address, medical_history, registered_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Age,
		patient.Gender,
		patient.PhoneNumber,
		patient.Address,
		patient.MedicalHistory,
		patient.RegisteredBy,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	defer r.metrics.track("get")()
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, translateNoRows(err)
	}
	return &patient, nil
}

// ListByOrganization returns patients registered by any worker under the
// given admin, newest first.
func (r *patientRepository) ListByOrganization(ctx context.Context, adminID uuid.UUID) ([]*model.Patient, error) {
	defer r.metrics.track("list_by_org")()
	query := `
		SELECT p.* FROM patients p
		JOIN workers w ON w.id = p.registered_by
		WHERE w.added_by = $1
		ORDER BY p.created_at DESC
	`
	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, query, adminID); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
