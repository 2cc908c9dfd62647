package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/referral-api/pkg/auth"
	apperrors "github.com/carelink/referral-api/pkg/errors"
	"github.com/carelink/referral-api/pkg/security"

	"github.com/carelink/referral-api/internal/model"
	"github.com/carelink/referral-api/internal/repository"
)

type Service struct {
	repo   repository.AdminRepository
	hasher security.PasswordHasher
	jwtSvc auth.JWTService
}

func NewService(repo repository.AdminRepository, hasher security.PasswordHasher, jwtSvc auth.JWTService) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		jwtSvc: jwtSvc,
	}
}

// Register creates a new admin, the root of a fresh organization.
func (s *Service) Register(ctx context.Context, req *model.RegisterAdminRequest) (*model.Admin, error) {
	exists, err := s.repo.ExistsByEmailOrPhone(ctx, req.Email, req.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict("admin with this email or phone number already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	admin := &model.Admin{
		Base:         model.Base{ID: uuid.New()},
		Name:         req.Name,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		Location:     req.Location,
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (string, *model.Admin, error) {
	admin, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperrors.Unauthenticated("invalid email or password")
		}
		return "", nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if err := s.hasher.Compare(admin.PasswordHash, req.Password); err != nil {
		return "", nil, apperrors.Unauthenticated("invalid email or password")
	}

	token, err := s.jwtSvc.Generate(admin.ID, auth.RoleAdmin)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, admin, nil
}

// Profile returns the admin document for the authenticated principal.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	admin, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("admin")
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

// TokenExpiry exposes the session window for cookie max-age.
func (s *Service) TokenExpiry() time.Duration {
	return s.jwtSvc.Expiry()
}
