package org

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/referral-api/pkg/auth"

	"github.com/carelink/referral-api/internal/model"
	"github.com/carelink/referral-api/internal/repository"
)

type countingWorkerRepo struct {
	workers map[uuid.UUID]*model.Worker
	gets    int
}

func (r *countingWorkerRepo) Create(_ context.Context, w *model.Worker) error {
	r.workers[w.ID] = w
	return nil
}

func (r *countingWorkerRepo) Get(_ context.Context, id uuid.UUID) (*model.Worker, error) {
	r.gets++
	w, ok := r.workers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return w, nil
}

func (r *countingWorkerRepo) GetByEmail(context.Context, string) (*model.Worker, error) {
	return nil, repository.ErrNotFound
}

func (r *countingWorkerRepo) ExistsByEmailOrPhone(context.Context, string, string) (bool, error) {
	return false, nil
}

func (r *countingWorkerRepo) ListByAdmin(context.Context, uuid.UUID) ([]*model.Worker, error) {
	return nil, nil
}

func (r *countingWorkerRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stubDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (r *stubDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	r.doctors[d.ID] = d
	return nil
}

func (r *stubDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (r *stubDoctorRepo) GetByEmail(context.Context, string) (*model.Doctor, error) {
	return nil, repository.ErrNotFound
}

func (r *stubDoctorRepo) ExistsByEmailOrPhone(context.Context, string, string) (bool, error) {
	return false, nil
}

func (r *stubDoctorRepo) ListByAdmin(context.Context, uuid.UUID) ([]*model.Doctor, error) {
	return nil, nil
}

func (r *stubDoctorRepo) ListAll(context.Context) ([]*model.Doctor, error) { return nil, nil }

func (r *stubDoctorRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func TestResolveWorkerCaches(t *testing.T) {
	adminID := uuid.New()
	workerID := uuid.New()

	workers := &countingWorkerRepo{workers: map[uuid.UUID]*model.Worker{
		workerID: {Base: model.Base{ID: workerID}, AddedBy: adminID},
	}}
	svc := NewService(workers, &stubDoctorRepo{doctors: map[uuid.UUID]*model.Doctor{}}, DefaultConfig())

	for i := 0; i < 3; i++ {
		org, err := svc.ResolveWorker(context.Background(), workerID)
		require.NoError(t, err)
		assert.Equal(t, adminID, org)
	}
	assert.Equal(t, 1, workers.gets, "repeated resolutions must hit the cache")
}

func TestResolveAdminIsIdentity(t *testing.T) {
	svc := NewService(
		&countingWorkerRepo{workers: map[uuid.UUID]*model.Worker{}},
		&stubDoctorRepo{doctors: map[uuid.UUID]*model.Doctor{}},
		DefaultConfig(),
	)

	adminID := uuid.New()
	org, err := svc.Resolve(context.Background(), auth.RoleAdmin, adminID)
	require.NoError(t, err)
	assert.Equal(t, adminID, org)
}

func TestSameOrganization(t *testing.T) {
	adminA := uuid.New()
	adminB := uuid.New()
	w1, w2, w3 := uuid.New(), uuid.New(), uuid.New()

	workers := &countingWorkerRepo{workers: map[uuid.UUID]*model.Worker{
		w1: {Base: model.Base{ID: w1}, AddedBy: adminA},
		w2: {Base: model.Base{ID: w2}, AddedBy: adminA},
		w3: {Base: model.Base{ID: w3}, AddedBy: adminB},
	}}
	svc := NewService(workers, &stubDoctorRepo{doctors: map[uuid.UUID]*model.Doctor{}}, DefaultConfig())

	same, err := svc.SameOrganization(context.Background(), w1, w2)
	require.NoError(t, err)
	assert.True(t, same)

	same, err = svc.SameOrganization(context.Background(), w1, w3)
	require.NoError(t, err)
	assert.False(t, same)

	_, err = svc.SameOrganization(context.Background(), w1, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvalidateDropsCacheEntry(t *testing.T) {
	adminID := uuid.New()
	workerID := uuid.New()

	workers := &countingWorkerRepo{workers: map[uuid.UUID]*model.Worker{
		workerID: {Base: model.Base{ID: workerID}, AddedBy: adminID},
	}}
	svc := NewService(workers, &stubDoctorRepo{doctors: map[uuid.UUID]*model.Doctor{}}, DefaultConfig())

	_, err := svc.ResolveWorker(context.Background(), workerID)
	require.NoError(t, err)

	svc.Invalidate(auth.RoleWorker, workerID)
	delete(workers.workers, workerID)

	_, err = svc.ResolveWorker(context.Background(), workerID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
