package consultation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/referral-api/pkg/auth"
	apperrors "github.com/carelink/referral-api/pkg/errors"

	"github.com/carelink/referral-api/internal/model"
	"github.com/carelink/referral-api/internal/repository"
)

type fakeConsultationRepo struct {
	records          map[uuid.UUID]model.Consultation
	conflictOnUpdate bool
}

func newFakeConsultationRepo() *fakeConsultationRepo {
	return &fakeConsultationRepo{records: make(map[uuid.UUID]model.Consultation)}
}

func (r *fakeConsultationRepo) Create(_ context.Context, c *model.Consultation) error {
	c.Version = 1
	r.records[c.ID] = *c
	return nil
}

func (r *fakeConsultationRepo) Get(_ context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec := c
	return &rec, nil
}

func (r *fakeConsultationRepo) Update(_ context.Context, c *model.Consultation) error {
	if r.conflictOnUpdate {
		return repository.ErrVersionConflict
	}
	stored, ok := r.records[c.ID]
	if !ok || stored.Version != c.Version {
		return repository.ErrVersionConflict
	}
	c.Version++
	r.records[c.ID] = *c
	return nil
}

func (r *fakeConsultationRepo) ListByOrganization(context.Context, uuid.UUID) ([]*model.Consultation, error) {
	return nil, nil
}

func (r *fakeConsultationRepo) ListByDoctor(context.Context, uuid.UUID) ([]*model.Consultation, error) {
	return nil, nil
}

func (r *fakeConsultationRepo) ListPendingByDoctor(context.Context, uuid.UUID) ([]*model.Consultation, error) {
	return nil, nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (r *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakePatientRepo) ListByOrganization(context.Context, uuid.UUID) ([]*model.Patient, error) {
	return nil, nil
}

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (r *fakeDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	r.doctors[d.ID] = d
	return nil
}

func (r *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (r *fakeDoctorRepo) GetByEmail(context.Context, string) (*model.Doctor, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeDoctorRepo) ExistsByEmailOrPhone(context.Context, string, string) (bool, error) {
	return false, nil
}

func (r *fakeDoctorRepo) ListByAdmin(context.Context, uuid.UUID) ([]*model.Doctor, error) {
	return nil, nil
}

func (r *fakeDoctorRepo) ListAll(context.Context) ([]*model.Doctor, error) { return nil, nil }

func (r *fakeDoctorRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type fakeOrgResolver struct {
	orgs map[uuid.UUID]uuid.UUID
}

func (f *fakeOrgResolver) ResolveWorker(_ context.Context, workerID uuid.UUID) (uuid.UUID, error) {
	org, ok := f.orgs[workerID]
	if !ok {
		return uuid.Nil, repository.ErrNotFound
	}
	return org, nil
}

func (f *fakeOrgResolver) SameOrganization(ctx context.Context, a, b uuid.UUID) (bool, error) {
	orgA, err := f.ResolveWorker(ctx, a)
	if err != nil {
		return false, err
	}
	orgB, err := f.ResolveWorker(ctx, b)
	if err != nil {
		return false, err
	}
	return orgA == orgB, nil
}

type fakeBlobStore struct {
	uploads []string
	fail    bool
}

func (f *fakeBlobStore) Upload(_ context.Context, folder, filename, _ string, _ []byte) (string, error) {
	if f.fail {
		return "", errors.New("upstream unavailable")
	}
	url := fmt.Sprintf("s3://test-bucket/%s/%s", folder, filename)
	f.uploads = append(f.uploads, url)
	return url, nil
}

type fixture struct {
	svc       *Service
	repo      *fakeConsultationRepo
	blobs     *fakeBlobStore
	orgs      *fakeOrgResolver
	patientID uuid.UUID
	workerID  uuid.UUID
	peerID    uuid.UUID
	outsider  uuid.UUID
	doctorID  uuid.UUID
	adminID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:      newFakeConsultationRepo(),
		blobs:     &fakeBlobStore{},
		patientID: uuid.New(),
		workerID:  uuid.New(),
		peerID:    uuid.New(),
		outsider:  uuid.New(),
		doctorID:  uuid.New(),
		adminID:   uuid.New(),
	}

	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{
		f.patientID: {Base: model.Base{ID: f.patientID}, Name: "Asha", Age: 34, Gender: model.GenderFemale},
	}}
	doctors := &fakeDoctorRepo{doctors: map[uuid.UUID]*model.Doctor{
		f.doctorID: {Base: model.Base{ID: f.doctorID}, Name: "Dr. Rao", AddedBy: f.adminID},
	}}
	f.orgs = &fakeOrgResolver{orgs: map[uuid.UUID]uuid.UUID{
		f.workerID: f.adminID,
		f.peerID:   f.adminID,
		f.outsider: uuid.New(),
	}}

	f.svc = NewService(f.repo, patients, doctors, f.orgs, f.blobs, nil)
	return f
}

func (f *fixture) submit(t *testing.T) *model.Consultation {
	t.Helper()
	c, err := f.svc.Create(context.Background(), &CreateInput{
		PatientID: f.patientID,
		Symptoms:  []string{"fever", "cough"},
	}, f.workerID)
	require.NoError(t, err)
	return c
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	notes := "persistent for three days"
	c, err := f.svc.Create(context.Background(), &CreateInput{
		PatientID: f.patientID,
		Symptoms:  []string{"fever", "cough"},
		Notes:     &notes,
		Attachments: []UploadFile{
			{Name: "xray.png", ContentType: "image/png", Data: []byte("png")},
		},
	}, f.workerID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, c.Status)
	assert.Equal(t, f.workerID, c.SubmittedBy)
	assert.Len(t, c.Attachments, 1)
	assert.Len(t, f.blobs.uploads, 1)
	assert.Nil(t, c.WorkerDecision)
}

func TestCreateUnknownPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), &CreateInput{
		PatientID: uuid.New(),
		Symptoms:  []string{"fever"},
	}, f.workerID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestCreateUploadFailureAbortsSubmission(t *testing.T) {
	f := newFixture(t)
	f.blobs.fail = true

	_, err := f.svc.Create(context.Background(), &CreateInput{
		PatientID: f.patientID,
		Symptoms:  []string{"fever"},
		Attachments: []UploadFile{
			{Name: "scan.pdf", ContentType: "application/pdf", Data: []byte("pdf")},
		},
	}, f.workerID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUpstream))
	assert.Empty(t, f.repo.records, "no record may be written when an upload fails")
}

func TestAcceptClosesConsultation(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	got, err := f.svc.Accept(context.Background(), c.ID, f.workerID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, got.Status)
	require.NotNil(t, got.WorkerDecision)
	assert.Equal(t, model.DecisionAccepted, *got.WorkerDecision)
}

func TestAcceptRequiresSubmitter(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	_, err := f.svc.Accept(context.Background(), c.ID, f.peerID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
}

func TestAcceptTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	_, err := f.svc.Accept(context.Background(), c.ID, f.workerID)
	require.NoError(t, err)

	_, err = f.svc.Accept(context.Background(), c.ID, f.workerID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestEscalate(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	got, err := f.svc.Escalate(context.Background(), c.ID, f.doctorID, f.peerID, "unclear imaging")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, got.Status)
	require.NotNil(t, got.AssignedDoctor)
	assert.Equal(t, f.doctorID, *got.AssignedDoctor)
	require.NotNil(t, got.WorkerDecision)
	assert.Equal(t, model.DecisionEscalated, *got.WorkerDecision)
	require.NotNil(t, got.EscalationReason)
	assert.Equal(t, "unclear imaging", *got.EscalationReason)
}

func TestEscalateCrossOrganizationForbidden(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	_, err := f.svc.Escalate(context.Background(), c.ID, f.doctorID, f.outsider, "second look")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
}

func TestEscalateClosedConflicts(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	_, err := f.svc.Accept(context.Background(), c.ID, f.workerID)
	require.NoError(t, err)

	_, err = f.svc.Escalate(context.Background(), c.ID, f.doctorID, f.workerID, "too late")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestEscalateUnknownDoctor(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	_, err := f.svc.Escalate(context.Background(), c.ID, uuid.New(), f.workerID, "second look")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestRespond(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	_, err := f.svc.Escalate(context.Background(), c.ID, f.doctorID, f.workerID, "second look")
	require.NoError(t, err)

	got, err := f.svc.Respond(context.Background(), c.ID, f.doctorID, &model.RespondRequest{
		Diagnosis:      "viral bronchitis",
		Recommendation: "rest and fluids",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusReviewed, got.Status)
	require.NotNil(t, got.SecondOpinion)
	assert.Equal(t, "viral bronchitis", got.SecondOpinion.Diagnosis)
	assert.False(t, got.SecondOpinion.RespondedAt.IsZero())
}

func TestRespondRequiresAssignedDoctor(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	// Not yet escalated: no doctor is assigned.
	_, err := f.svc.Respond(context.Background(), c.ID, f.doctorID, &model.RespondRequest{
		Diagnosis:      "x",
		Recommendation: "y",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	_, err = f.svc.Escalate(context.Background(), c.ID, f.doctorID, f.workerID, "second look")
	require.NoError(t, err)

	_, err = f.svc.Respond(context.Background(), c.ID, uuid.New(), &model.RespondRequest{
		Diagnosis:      "x",
		Recommendation: "y",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
}

func TestAnalysisStoresLastWriteWins(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	_, err := f.svc.StoreMLAnalysis(context.Background(), c.ID, &model.MLResult{
		Disease: "influenza", Confidence: 0.6,
	})
	require.NoError(t, err)

	got, err := f.svc.StoreMLAnalysis(context.Background(), c.ID, &model.MLResult{
		Disease: "pneumonia", Confidence: 0.9, Precautions: []string{"chest x-ray"},
	})
	require.NoError(t, err)

	require.NotNil(t, got.MLAnalysis)
	assert.Equal(t, "pneumonia", got.MLAnalysis.Disease)
	assert.InDelta(t, 0.9, got.MLAnalysis.Confidence, 1e-9)
}

func TestAnalysisAllowedAfterClose(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	_, err := f.svc.Accept(context.Background(), c.ID, f.workerID)
	require.NoError(t, err)

	got, err := f.svc.StoreVerdict(context.Background(), c.ID, "low risk, self-care")
	require.NoError(t, err)
	require.NotNil(t, got.FinalVerdict)
	assert.Equal(t, "low risk, self-care", got.FinalVerdict.Conclusion)
}

func TestAnalysisRoundTripsThroughStorage(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	_, err := f.svc.StoreLLMAnalysis(context.Background(), c.ID, &model.LLMResult{
		Summary:         "likely viral infection",
		Recommendations: []string{"hydration", "follow up in 48h"},
		RiskLevel:       model.RiskModerate,
	})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), c.ID, auth.RoleWorker, f.workerID)
	require.NoError(t, err)
	require.NotNil(t, got.LLMAnalysis)
	assert.Equal(t, model.RiskModerate, got.LLMAnalysis.RiskLevel)
	assert.Len(t, got.LLMAnalysis.Recommendations, 2)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	// Same-organization peer sees the record.
	_, err := f.svc.Get(context.Background(), c.ID, auth.RoleWorker, f.peerID)
	require.NoError(t, err)

	// A worker from another organization gets not found, not forbidden.
	_, err = f.svc.Get(context.Background(), c.ID, auth.RoleWorker, f.outsider)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	// Doctors see only consultations assigned to them.
	_, err = f.svc.Get(context.Background(), c.ID, auth.RoleDoctor, f.doctorID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	_, err = f.svc.Escalate(context.Background(), c.ID, f.doctorID, f.workerID, "second look")
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), c.ID, auth.RoleDoctor, f.doctorID)
	assert.NoError(t, err)
}

func TestStoreReportUploadsPDF(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	got, err := f.svc.StoreReport(context.Background(), c.ID, []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NotNil(t, got.AnalysisReport)
	assert.Contains(t, *got.AnalysisReport, "analysis-report.pdf")
	assert.Len(t, f.blobs.uploads, 1)
}

func TestListForWorkerUnknownWorkerIsEmpty(t *testing.T) {
	f := newFixture(t)

	list, err := f.svc.ListForWorker(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestVersionConflictSurfacesAsConflict(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t)

	f.repo.conflictOnUpdate = true
	_, err := f.svc.Accept(context.Background(), c.ID, f.workerID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestParseSymptoms(t *testing.T) {
	assert.Equal(t, []string{"fever", "cough"}, ParseSymptoms(`["fever","cough"]`))
	assert.Equal(t, []string{"fever", "cough"}, ParseSymptoms("fever, cough"))
	assert.Equal(t, []string{"fever"}, ParseSymptoms("  fever  "))
	assert.Empty(t, ParseSymptoms(""))
	assert.Empty(t, ParseSymptoms(" , , "))
	assert.Equal(t, []string{"sore throat"}, ParseSymptoms(`[" sore throat "]`))
}
