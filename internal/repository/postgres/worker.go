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

type workerRepository struct {
	db      *sqlx.DB
	metrics repoMetrics
}

func NewWorkerRepository(db *sqlx.DB, m *metrics.Metrics) repository.WorkerRepository {
	return &workerRepository{db: db, metrics: newRepoMetrics("worker", m)}
}

func (r *workerRepository) Create(ctx context.Context, worker *model.Worker) error {
	defer r.metrics.track("create")()
	query := `
		INSERT INTO workers (id, name, email, phone_number, password_hash, qualifications, specialization, added_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	worker.CreatedAt = time.Now()
	worker.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		worker.ID,
		worker.Name,
		worker.Email,
		worker.PhoneNumber,
		worker.PasswordHash,
		worker.Qualifications,
		worker.Specialization,
		worker.AddedBy,
		worker.CreatedAt,
		worker.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return nil
}

func (r *workerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	defer r.metrics.track("get")()
	query := `SELECT * FROM workers WHERE id = $1`
	var worker model.Worker
	if err := r.db.GetContext(ctx, &worker, query, id); err != nil {
		return nil, translateNoRows(err)
	}
	return &worker, nil
}

func (r *workerRepository) GetByEmail(ctx context.Context, email string) (*model.Worker, error) {
	defer r.metrics.track("get_by_email")()
	query := `SELECT * FROM workers WHERE email = $1`
	var worker model.Worker
	if err := r.db.GetContext(ctx, &worker, query, email); err != nil {
		return nil, translateNoRows(err)
	}
	return &worker, nil
}

func (r *workerRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	defer r.metrics.track("exists")()
	query := `SELECT EXISTS (SELECT 1 FROM workers WHERE email = $1 OR phone_number = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, phone); err != nil {
		return false, fmt.Errorf("failed to check worker existence: %w", err)
	}
	return exists, nil
}

func (r *workerRepository) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*model.Worker, error) {
	defer r.metrics.track("list_by_admin")()
	query := `SELECT * FROM workers WHERE added_by = $1 ORDER BY created_at DESC`
	workers := []*model.Worker{}
	if err := r.db.SelectContext(ctx, &workers, query, adminID); err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	return workers, nil
}

func (r *workerRepository) Delete(ctx context.Context, id uuid.UUID, adminID uuid.UUID) error {
	defer r.metrics.track("delete")()
	query := `DELETE FROM workers WHERE id = $1 AND added_by = $2`
	res, err := r.db.ExecContext(ctx, query, id, adminID)
	if err != nil {
		return fmt.Errorf("failed to delete worker: %w", err)
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
