package doctor

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
	repo      repository.DoctorRepository
	adminRepo repository.AdminRepository
	orgSvc    *org.Service
	hasher    security.PasswordHasher
	jwtSvc    auth.JWTService
	emailSvc  email.Service
}

func NewService(
	repo repository.DoctorRepository,
	adminRepo repository.AdminRepository,
	orgSvc *org.Service,
	hasher security.PasswordHasher,
	jwtSvc auth.JWTService,
	emailSvc email.Service,
) *Service {
	return &Service{
		repo:      repo,
		adminRepo: adminRepo,
		orgSvc:    orgSvc,
		hasher:    hasher,
		jwtSvc:    jwtSvc,
		emailSvc:  emailSvc,
	}
}

// Create provisions a doctor under the given admin.
func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest, adminID uuid.UUID) (*model.Doctor, error) {
	exists, err := s.repo.ExistsByEmailOrPhone(ctx, req.Email, req.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check doctor existence: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict("doctor with this email or phone number already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	doctor := &model.Doctor{
		Base:           model.Base{ID: uuid.New()},
		Name:           req.Name,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		PasswordHash:   hash,
		Specialization: req.Specialization,
		Qualifications: req.Qualifications,
		IsAvailable:    true,
		AddedBy:        adminID,
	}

	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}

	if err := s.emailSvc.SendCredentials(doctor.Email, doctor.Name, "doctor", req.Password); err != nil {
		log.Warn().Err(err).Str("email", doctor.Email).Msg("failed to send credentials email")
	}

	return doctor, nil
}

// ListByAdmin returns the doctors provisioned by the admin.
func (s *Service) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*model.Doctor, error) {
	return s.repo.ListByAdmin(ctx, adminID)
}

// ListForEscalation returns the doctors a principal may escalate to: those in
// the requester's organization, or every doctor when the organization cannot
// be resolved.
func (s *Service) ListForEscalation(ctx context.Context, role auth.Role, principalID uuid.UUID) ([]*model.Doctor, error) {
	orgID, err := s.orgSvc.Resolve(ctx, role, principalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.repo.ListAll(ctx)
		}
		return nil, err
	}
	return s.repo.ListByAdmin(ctx, orgID)
}

// Delete removes a doctor provisioned by the admin.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, adminID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, adminID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("doctor")
		}
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	s.orgSvc.Invalidate(auth.RoleDoctor, id)
	return nil
}

// Login verifies credentials and issues a session token. The profile includes
// the owning admin's location when it resolves.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (string, *model.DoctorProfile, error) {
	doctor, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperrors.Unauthenticated("invalid email or password")
		}
		return "", nil, fmt.Errorf("failed to look up doctor: %w", err)
	}

	if err := s.hasher.Compare(doctor.PasswordHash, req.Password); err != nil {
		return "", nil, apperrors.Unauthenticated("invalid email or password")
	}

	token, err := s.jwtSvc.Generate(doctor.ID, auth.RoleDoctor)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	profile := &model.DoctorProfile{
		ID:             doctor.ID.String(),
		Name:           doctor.Name,
		Email:          doctor.Email,
		PhoneNumber:    doctor.PhoneNumber,
		Specialization: doctor.Specialization,
		Qualifications: doctor.Qualifications,
	}
	if admin, err := s.adminRepo.Get(ctx, doctor.AddedBy); err == nil {
		profile.Location = &admin.Location
	}

	return token, profile, nil
}

func (s *Service) TokenExpiry() time.Duration {
	return s.jwtSvc.Expiry()
}
