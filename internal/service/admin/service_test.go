package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/referral-api/pkg/auth"
	apperrors "github.com/carelink/referral-api/pkg/errors"
	"github.com/carelink/referral-api/pkg/security"

	"github.com/carelink/referral-api/internal/model"
	"github.com/carelink/referral-api/internal/repository"
)

type fakeAdminRepo struct {
	byID    map[uuid.UUID]*model.Admin
	byEmail map[string]*model.Admin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{
		byID:    make(map[uuid.UUID]*model.Admin),
		byEmail: make(map[string]*model.Admin),
	}
}

func (r *fakeAdminRepo) Create(_ context.Context, a *model.Admin) error {
	r.byID[a.ID] = a
	r.byEmail[a.Email] = a
	return nil
}

func (r *fakeAdminRepo) Get(_ context.Context, id uuid.UUID) (*model.Admin, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	a, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (r *fakeAdminRepo) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	if _, ok := r.byEmail[email]; ok {
		return true, nil
	}
	for _, a := range r.byID {
		if a.PhoneNumber == phone {
			return true, nil
		}
	}
	return false, nil
}

func newTestService() (*Service, *fakeAdminRepo) {
	repo := newFakeAdminRepo()
	svc := NewService(repo, security.NewBcryptHasher(4), auth.NewJWTService("test-secret", time.Hour))
	return svc, repo
}

func registerReq() *model.RegisterAdminRequest {
	return &model.RegisterAdminRequest{
		Name:        "Priya",
		Email:       "priya@example.com",
		PhoneNumber: "+911234567890",
		Password:    "s3cret-pass",
		Location:    "Pune",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()

	admin, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, admin.ID)
	assert.NotEqual(t, "s3cret-pass", admin.PasswordHash, "password must be hashed")

	token, got, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "priya@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, admin.ID, got.ID)
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerReq())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "priya@example.com",
		Password: "wrong-password",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthenticated))

	_, _, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret-pass",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthenticated))
}

func TestProfile(t *testing.T) {
	svc, _ := newTestService()

	admin, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	got, err := svc.Profile(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.Email, got.Email)

	_, err = svc.Profile(context.Background(), uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}
