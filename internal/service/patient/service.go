package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/carelink/referral-api/pkg/errors"

	"github.com/carelink/referral-api/internal/model"
	"github.com/carelink/referral-api/internal/repository"
)

type Service struct {
	repo   repository.PatientRepository
	orgSvc OrgResolver
}

// OrgResolver resolves a worker to its organization id.
type OrgResolver interface {
	ResolveWorker(ctx context.Context, workerID uuid.UUID) (uuid.UUID, error)
}

func NewService(repo repository.PatientRepository, orgSvc OrgResolver) *Service {
	return &Service{repo: repo, orgSvc: orgSvc}
}

// Create registers a patient under the requesting worker. Patients are
// immutable afterwards; no update or delete exists.
func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest, workerID uuid.UUID) (*model.Patient, error) {
	patient := &model.Patient{
		Base:           model.Base{ID: uuid.New()},
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		PhoneNumber:    req.PhoneNumber,
		Address:        req.Address,
		MedicalHistory: req.MedicalHistory,
		RegisteredBy:   workerID,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

// ListForWorker returns all patients registered within the worker's
// organization. An unknown worker yields an empty set, not an error.
func (s *Service) ListForWorker(ctx context.Context, workerID uuid.UUID) ([]*model.Patient, error) {
	orgID, err := s.orgSvc.ResolveWorker(ctx, workerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []*model.Patient{}, nil
		}
		return nil, err
	}
	return s.repo.ListByOrganization(ctx, orgID)
}

// Get returns a single patient by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}
