package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/referral-api/internal/model"
)

// ErrNotFound is returned when a record does not exist. Services translate it
// into the user-facing taxonomy.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict is returned when a versioned update matched no row,
// meaning a concurrent writer got there first.
var ErrVersionConflict = errors.New("record was modified concurrently")

type AdminRepository interface {
	Create(ctx context.Context, admin *model.Admin) error
	Get(ctx context.Context, id uuid.UUID) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
}

type WorkerRepository interface {
	Create(ctx context.Context, worker *model.Worker) error
	Get(ctx context.Context, id uuid.UUID) (*model.Worker, error)
	GetByEmail(ctx context.Context, email string) (*model.Worker, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*model.Worker, error)
	Delete(ctx context.Context, id uuid.UUID, adminID uuid.UUID) error
}

type DoctorRepository interface {
	Create(ctx context.Context, doctor *model.Doctor) error
	Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*model.Doctor, error)
	ListAll(ctx context.Context) ([]*model.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID, adminID uuid.UUID) error
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	ListByOrganization(ctx context.Context, adminID uuid.UUID) ([]*model.Patient, error)
}

type ConsultationRepository interface {
	Create(ctx context.Context, consultation *model.Consultation) error
	Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
	// Update writes all mutable columns guarded by the version column and
	// returns ErrVersionConflict when the row changed underneath the caller.
	Update(ctx context.Context, consultation *model.Consultation) error
	ListByOrganization(ctx context.Context, adminID uuid.UUID) ([]*model.Consultation, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Consultation, error)
	ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Consultation, error)
}

// TokenRepository is the revoked-session store backing logout.
type TokenRepository interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
