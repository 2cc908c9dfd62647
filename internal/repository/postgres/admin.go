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

type adminRepository struct {
	db      *sqlx.DB
	metrics repoMetrics
}

func NewAdminRepository(db *sqlx.DB, m *metrics.Metrics) repository.AdminRepository {
	return &adminRepository{db: db, metrics: newRepoMetrics("admin", m)}
}

func (r *adminRepository) Create(ctx context.Context, admin *model.Admin) error {
	defer r.metrics.track("create")()
	query := `
		INSERT INTO admins (id, name, email, phone_number, location, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		admin.ID,
		admin.Name,
		admin.Email,
		admin.PhoneNumber,
		admin.Location,
		admin.PasswordHash,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (r *adminRepository) Get(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	defer r.metrics.track("get")()
	query := `SELECT * FROM admins WHERE id = $1`
	var admin model.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		return nil, translateNoRows(err)
	}
	return &admin, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	defer r.metrics.track("get_by_email")()
	query := `SELECT * FROM admins WHERE email = $1`
	var admin model.Admin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		return nil, translateNoRows(err)
	}
	return &admin, nil
}

func (r *adminRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	defer r.metrics.track("exists")()
	query := `SELECT EXISTS (SELECT 1 FROM admins WHERE email = $1 OR phone_number = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, phone); err != nil {
		return false, fmt.Errorf("failed to check admin existence: %w", err)
	}
	return exists, nil
}
