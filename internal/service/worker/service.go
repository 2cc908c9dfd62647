package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carelink/referral-api/pkg/auth"
	apperrors "github.com/carelink/referral-api/pkg/errors"
	"github.com/carelink/referral-api/pkg/security"

	"github.com/carelink/referral-api/internal/email"
	"github.com/carelink/referral-api/internal/model"
	"github.com/carelink/referral-api/internal/repository"
	"github.com/carelink/referral-api/internal/service/org"
)

type Service struct {
	repo     repository.WorkerRepository
	orgSvc   *org.Service
	hasher   security.PasswordHasher
	jwtSvc   auth.JWTService
	emailSvc email.Service
}

func NewService(
	repo repository.WorkerRepository,
	orgSvc *org.Service,
	hasher security.PasswordHasher,
	jwtSvc auth.JWTService,
	emailSvc email.Service,
) *Service {
	return &Service{
		repo:     repo,
		orgSvc:   orgSvc,
		hasher:   hasher,
		jwtSvc:   jwtSvc,
		emailSvc: emailSvc,
	}
}

// Create provisions a worker under the given admin.
func (s *Service) Create(ctx context.Context, req *model.CreateWorkerRequest, adminID uuid.UUID) (*model.Worker, error) {
	exists, err := s.repo.ExistsByEmailOrPhone(ctx, req.Email, req.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check worker existence: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict("worker with this email or phone number already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	worker := &model.Worker{
		Base:           model.Base{ID: uuid.New()},
		Name:           req.Name,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		PasswordHash:   hash,
		Qualifications: req.Qualifications,
		Specialization: req.Specialization,
		AddedBy:        adminID,
	}

	if err := s.repo.Create(ctx, worker); err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	if err := s.emailSvc.SendCredentials(worker.Email, worker.Name, "health worker", req.Password); err != nil {
		log.Warn().Err(err).Str("email", worker.Email).Msg("failed to send credentials email")
	}

	return worker, nil
}

// ListByAdmin returns all workers provisioned by the admin.
func (s *Service) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*model.Worker, error) {
	return s.repo.ListByAdmin(ctx, adminID)
}

// Delete removes a worker. The admin scoping lives in the query; a foreign
// worker id reports not found rather than leaking existence.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, adminID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, adminID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("worker")
		}
		return fmt.Errorf("failed to delete worker: %w", err)
	}
	s.orgSvc.Invalidate(auth.RoleWorker, id)
	return nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (string, *model.Worker, error) {
	worker, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperrors.Unauthenticated("invalid email or password")
		}
		return "", nil, fmt.Errorf("failed to look up worker: %w", err)
	}

	if err := s.hasher.Compare(worker.PasswordHash, req.Password); err != nil {
		return "", nil, apperrors.Unauthenticated("invalid email or password")
	}

	token, err := s.jwtSvc.Generate(worker.ID, auth.RoleWorker)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, worker, nil
}

func (s *Service) TokenExpiry() time.Duration {
	return s.jwtSvc.Expiry()
}
