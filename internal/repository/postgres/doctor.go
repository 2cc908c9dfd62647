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

type doctorRepository struct {
	db      *sqlx.DB
	metrics repoMetrics
}

func NewDoctorRepository(db *sqlx.DB, m *metrics.Metrics) repository.DoctorRepository {
	return &doctorRepository{db: db, metrics: newRepoMetrics("doctor", m)}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	defer r.metrics.track("create")()
	query := `
		INSERT INTO doctors (id, name, email, phone_number, password_hash, specialization, qualifications, is_available, added_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.Name,
		doctor.Email,
		doctor.PhoneNumber,
		doctor.PasswordHash,
		doctor.Specialization,
		doctor.Qualifications,
		doctor.IsAvailable,
		doctor.AddedBy,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	defer r.metrics.track("get")()
	query := `SELECT * FROM doctors WHERE id = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, translateNoRows(err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	defer r.metrics.track("get_by_email")()
	query := `SELECT * FROM doctors WHERE email = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, email); err != nil {
		return nil, translateNoRows(err)
	}
	return &doctor, nil
}

func (r *doctorRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	defer r.metrics.track("exists")()
	query := `SELECT EXISTS (SELECT 1 FROM doctors WHERE email = $1 OR phone_number = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, phone); err != nil {
		return false, fmt.Errorf("failed to check doctor existence: %w", err)
	}
	return exists, nil
}

func (r *doctorRepository) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*model.Doctor, error) {
	defer r.metrics.track("list_by_admin")()
	query := `SELECT * FROM doctors WHERE added_by = $1 ORDER BY name ASC`
	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query, adminID); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) ListAll(ctx context.Context) ([]*model.Doctor, error) {
	defer r.metrics.track("list_all")()
	query := `SELECT * FROM doctors ORDER BY name ASC`
	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID, adminID uuid.UUID) error {
	defer r.metrics.track("delete")()
	query := `DELETE FROM doctors WHERE id = $1 AND added_by = $2`
	res, err := r.db.ExecContext(ctx, query, id, adminID)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
