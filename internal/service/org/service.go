package org

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/carelink/referral-api/pkg/auth"

	"github.com/carelink/referral-api/internal/repository"
)

// Service resolves a principal to its organization (the owning admin's id).
// Worker and doctor lookups are cached; the chain never changes after
// provisioning, so a short TTL only bounds staleness after deletions.
type Service struct {
	workerRepo repository.WorkerRepository
	doctorRepo repository.DoctorRepository
	cache      *cache.Cache
}

// Config controls the resolution cache.
type Config struct {
	CacheDuration   time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		CacheDuration:   5 * time.Minute,
		CleanupInterval: 15 * time.Minute,
	}
}

func NewService(workerRepo repository.WorkerRepository, doctorRepo repository.DoctorRepository, cfg Config) *Service {
	return &Service{
		workerRepo: workerRepo,
		doctorRepo: doctorRepo,
		cache:      cache.New(cfg.CacheDuration, cfg.CleanupInterval),
	}
}

// Resolve returns the organization id for a principal. Admins are their own
// organization.
func (s *Service) Resolve(ctx context.Context, role auth.Role, id uuid.UUID) (uuid.UUID, error) {
	switch role {
	case auth.RoleAdmin:
		return id, nil
	case auth.RoleWorker:
		return s.resolveWorker(ctx, id)
	case auth.RoleDoctor:
		return s.resolveDoctor(ctx, id)
	default:
		return uuid.Nil, fmt.Errorf("cannot resolve organization for role %q", role)
	}
}

// ResolveWorker returns the owning admin id for a worker.
func (s *Service) ResolveWorker(ctx context.Context, workerID uuid.UUID) (uuid.UUID, error) {
	return s.resolveWorker(ctx, workerID)
}

func (s *Service) resolveWorker(ctx context.Context, workerID uuid.UUID) (uuid.UUID, error) {
	key := "worker:" + workerID.String()
	if v, ok := s.cache.Get(key); ok {
		return v.(uuid.UUID), nil
	}

	worker, err := s.workerRepo.Get(ctx, workerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, repository.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve worker organization: %w", err)
	}

	s.cache.SetDefault(key, worker.AddedBy)
	return worker.AddedBy, nil
}

func (s *Service) resolveDoctor(ctx context.Context, doctorID uuid.UUID) (uuid.UUID, error) {
	key := "doctor:" + doctorID.String()
	if v, ok := s.cache.Get(key); ok {
		return v.(uuid.UUID), nil
	}

	doctor, err := s.doctorRepo.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, repository.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve doctor organization: %w", err)
	}

	s.cache.SetDefault(key, doctor.AddedBy)
	return doctor.AddedBy, nil
}

// SameOrganization reports whether two workers share an owning admin.
func (s *Service) SameOrganization(ctx context.Context, workerA, workerB uuid.UUID) (bool, error) {
	orgA, err := s.resolveWorker(ctx, workerA)
	if err != nil {
		return false, err
	}
	orgB, err := s.resolveWorker(ctx, workerB)
	if err != nil {
		return false, err
	}
	return orgA == orgB, nil
}

// Invalidate drops a principal's cached resolution, used after deletions.
func (s *Service) Invalidate(role auth.Role, id uuid.UUID) {
	switch role {
	case auth.RoleWorker:
		s.cache.Delete("worker:" + id.String())
	case auth.RoleDoctor:
		s.cache.Delete("doctor:" + id.String())
	}
}
