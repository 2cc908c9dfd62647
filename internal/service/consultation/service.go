package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/referral-api/pkg/auth"
	apperrors "github.com/carelink/referral-api/pkg/errors"
	"github.com/carelink/referral-api/pkg/metrics"
	"github.com/carelink/referral-api/pkg/storage"

	"github.com/carelink/referral-api/internal/model"
	"github.com/carelink/referral-api/internal/repository"
)

const (
	folderAttachments = "consultations/attachments"
	folderAIReports   = "consultations/ai-reports"
	folderAnalysis    = "consultations/analysis-reports"
)

// OrgResolver answers the organization questions the state machine needs.
type OrgResolver interface {
	ResolveWorker(ctx context.Context, workerID uuid.UUID) (uuid.UUID, error)
	SameOrganization(ctx context.Context, workerA, workerB uuid.UUID) (bool, error)
}

type Service struct {
	repo        repository.ConsultationRepository
	patientRepo repository.PatientRepository
	doctorRepo  repository.DoctorRepository
	orgSvc      OrgResolver
	blobs       storage.BlobStore
	metrics     *metrics.Metrics
}

func NewService(
	repo repository.ConsultationRepository,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	orgSvc OrgResolver,
	blobs storage.BlobStore,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		orgSvc:      orgSvc,
		blobs:       blobs,
		metrics:     m,
	}
}

// UploadFile is an in-memory file buffered from a multipart request.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateInput carries everything a worker submits for a new consultation.
type CreateInput struct {
	PatientID   uuid.UUID
	Symptoms    []string
	Notes       *string
	Attachments []UploadFile
	AIReport    *UploadFile
}

// Create submits a new consultation. Every attachment must upload before the
// record is written; any upload failure aborts the whole creation.
func (s *Service) Create(ctx context.Context, in *CreateInput, workerID uuid.UUID) (*model.Consultation, error) {
	if len(in.Symptoms) == 0 {
		return nil, apperrors.Validation("at least one symptom is required")
	}

	if _, err := s.patientRepo.Get(ctx, in.PatientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to look up patient: %w", err)
	}

	attachmentURLs := model.StringList{}
	for _, f := range in.Attachments {
		url, err := s.upload(ctx, folderAttachments, f)
		if err != nil {
			return nil, err
		}
		attachmentURLs = append(attachmentURLs, url)
	}

	var aiReportURL *string
	if in.AIReport != nil {
		url, err := s.upload(ctx, folderAIReports, *in.AIReport)
		if err != nil {
			return nil, err
		}
		aiReportURL = &url
	}

	c := &model.Consultation{
		Base:        model.Base{ID: uuid.New()},
		PatientID:   in.PatientID,
		SubmittedBy: workerID,
		Symptoms:    in.Symptoms,
		Notes:       in.Notes,
		Attachments: attachmentURLs,
		AIReport:    aiReportURL,
		Status:      model.StatusPending,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create consultation: %w", err)
	}

	s.countTransition("create", "success")
	return c, nil
}

// Get returns a single consultation by id. Workers see records from their own
// organization; doctors see only records assigned to them. A record outside
// the caller's visibility reports not found rather than leaking existence.
func (s *Service) Get(ctx context.Context, id uuid.UUID, role auth.Role, principalID uuid.UUID) (*model.Consultation, error) {
	c, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	switch role {
	case auth.RoleWorker:
		same, err := s.orgSvc.SameOrganization(ctx, principalID, c.SubmittedBy)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if err != nil || !same {
			return nil, apperrors.NotFound("consultation")
		}
	case auth.RoleDoctor:
		if c.AssignedDoctor == nil || *c.AssignedDoctor != principalID {
			return nil, apperrors.NotFound("consultation")
		}
	}

	return c, nil
}

// ListForWorker returns every consultation in the worker's organization. An
// unknown worker yields an empty set.
func (s *Service) ListForWorker(ctx context.Context, workerID uuid.UUID) ([]*model.Consultation, error) {
	orgID, err := s.orgSvc.ResolveWorker(ctx, workerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []*model.Consultation{}, nil
		}
		return nil, err
	}
	return s.listByOrganization(ctx, orgID)
}

// ListForAdmin returns every consultation submitted within the admin's
// organization.
func (s *Service) ListForAdmin(ctx context.Context, adminID uuid.UUID) ([]*model.Consultation, error) {
	return s.listByOrganization(ctx, adminID)
}

// ListForDoctor returns all consultations assigned to the doctor.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Consultation, error) {
	list, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return s.unmarshalAll(list)
}

// ListPendingForDoctor returns escalated consultations still awaiting the
// doctor's review.
func (s *Service) ListPendingForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Consultation, error) {
	list, err := s.repo.ListPendingByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return s.unmarshalAll(list)
}

// Accept closes a consultation: the submitting worker takes the AI result as
// final. Only the submitter may accept.
func (s *Service) Accept(ctx context.Context, id, workerID uuid.UUID) (*model.Consultation, error) {
	c, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.SubmittedBy != workerID {
		s.countTransition("accept", "forbidden")
		return nil, apperrors.Forbidden("not authorized to close this consultation")
	}
	if c.Status == model.StatusClosed {
		s.countTransition("accept", "conflict")
		return nil, apperrors.Conflict("consultation is already closed")
	}

	decision := model.DecisionAccepted
	c.WorkerDecision = &decision
	c.Status = model.StatusClosed

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.countTransition("accept", "success")
	return c, nil
}

// Escalate assigns a doctor for a second opinion. Any worker in the
// submitter's organization may escalate; the status returns to pending, now
// meaning "awaiting doctor review".
func (s *Service) Escalate(ctx context.Context, id, doctorID, workerID uuid.UUID, reason string) (*model.Consultation, error) {
	c, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Status == model.StatusClosed {
		s.countTransition("escalate", "conflict")
		return nil, apperrors.Conflict("consultation is already closed")
	}

	same, err := s.orgSvc.SameOrganization(ctx, workerID, c.SubmittedBy)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.countTransition("escalate", "forbidden")
			return nil, apperrors.Forbidden("not authorized to escalate this consultation")
		}
		return nil, err
	}
	if !same {
		s.countTransition("escalate", "forbidden")
		return nil, apperrors.Forbidden("not authorized to escalate this consultation")
	}

	if _, err := s.doctorRepo.Get(ctx, doctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, fmt.Errorf("failed to look up doctor: %w", err)
	}

	decision := model.DecisionEscalated
	c.AssignedDoctor = &doctorID
	c.EscalationReason = &reason
	c.WorkerDecision = &decision
	c.Status = model.StatusPending

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.countTransition("escalate", "success")
	return c, nil
}

// Respond records a doctor's second opinion and marks the consultation
// reviewed. Only the assigned doctor may respond.
func (s *Service) Respond(ctx context.Context, id, doctorID uuid.UUID, req *model.RespondRequest) (*model.Consultation, error) {
	c, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.AssignedDoctor == nil || *c.AssignedDoctor != doctorID {
		s.countTransition("respond", "forbidden")
		return nil, apperrors.Forbidden("consultation is not assigned to you")
	}
	if c.Status == model.StatusClosed {
		s.countTransition("respond", "conflict")
		return nil, apperrors.Conflict("consultation is already closed")
	}

	c.SecondOpinion = &model.SecondOpinion{
		Diagnosis:      req.Diagnosis,
		Recommendation: req.Recommendation,
		RespondedAt:    time.Now(),
	}
	c.Status = model.StatusReviewed

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.countTransition("respond", "success")
	return c, nil
}

// StoreMLAnalysis replaces the staged ML result. Last write wins; analysis
// writes are accepted regardless of status.
func (s *Service) StoreMLAnalysis(ctx context.Context, id uuid.UUID, result *model.MLResult) (*model.Consultation, error) {
	c, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	c.MLAnalysis = &model.MLAnalysis{
		Disease:     result.Disease,
		Confidence:  result.Confidence,
		Precautions: result.Precautions,
		AnalyzedAt:  time.Now(),
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// StoreLLMAnalysis replaces the staged LLM result.
func (s *Service) StoreLLMAnalysis(ctx context.Context, id uuid.UUID, result *model.LLMResult) (*model.Consultation, error) {
	c, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	c.LLMAnalysis = &model.LLMAnalysis{
		Summary:         result.Summary,
		Recommendations: result.Recommendations,
		RiskLevel:       result.RiskLevel,
		AnalyzedAt:      time.Now(),
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// StoreVerdict replaces the combined-analysis conclusion.
func (s *Service) StoreVerdict(ctx context.Context, id uuid.UUID, verdict string) (*model.Consultation, error) {
	c, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	c.FinalVerdict = &model.FinalVerdict{
		Conclusion:  verdict,
		GeneratedAt: time.Now(),
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// StoreReport uploads the generated analysis PDF and records its URL.
func (s *Service) StoreReport(ctx context.Context, id uuid.UUID, pdf []byte) (*model.Consultation, error) {
	c, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.upload(ctx, folderAnalysis, UploadFile{
		Name:        "analysis-report.pdf",
		ContentType: "application/pdf",
		Data:        pdf,
	})
	if err != nil {
		return nil, err
	}
	c.AnalysisReport = &url

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseSymptoms accepts a JSON array string or a comma-separated list and
// returns the normalized ordered symptom list.
func ParseSymptoms(raw string) []string {
	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		parsed = strings.Split(raw, ",")
	}

	out := make([]string, 0, len(parsed))
	for _, s := range parsed {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *Service) fetch(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("consultation")
		}
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	if err := s.unmarshalAnalysisFields(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal consultation %s: %w", c.ID, err)
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *model.Consultation) error {
	if err := s.marshalAnalysisFields(c); err != nil {
		return fmt.Errorf("failed to marshal analysis fields: %w", err)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.Conflict("consultation was modified concurrently, please retry")
		}
		return fmt.Errorf("failed to update consultation: %w", err)
	}
	return nil
}

func (s *Service) listByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Consultation, error) {
	list, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.unmarshalAll(list)
}

func (s *Service) unmarshalAll(list []*model.Consultation) ([]*model.Consultation, error) {
	for _, c := range list {
		if err := s.unmarshalAnalysisFields(c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal consultation %s: %w", c.ID, err)
		}
	}
	return list, nil
}

func (s *Service) marshalAnalysisFields(c *model.Consultation) error {
	var err error
	if c.MLAnalysis != nil {
		if c.MLAnalysisRaw, err = json.Marshal(c.MLAnalysis); err != nil {
			return err
		}
	}
	if c.LLMAnalysis != nil {
		if c.LLMAnalysisRaw, err = json.Marshal(c.LLMAnalysis); err != nil {
			return err
		}
	}
	if c.FinalVerdict != nil {
		if c.FinalVerdictRaw, err = json.Marshal(c.FinalVerdict); err != nil {
			return err
		}
	}
	if c.SecondOpinion != nil {
		if c.SecondOpinionRaw, err = json.Marshal(c.SecondOpinion); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) unmarshalAnalysisFields(c *model.Consultation) error {
	if len(c.MLAnalysisRaw) > 0 {
		c.MLAnalysis = &model.MLAnalysis{}
		if err := json.Unmarshal(c.MLAnalysisRaw, c.MLAnalysis); err != nil {
			return err
		}
	}
	if len(c.LLMAnalysisRaw) > 0 {
		c.LLMAnalysis = &model.LLMAnalysis{}
		if err := json.Unmarshal(c.LLMAnalysisRaw, c.LLMAnalysis); err != nil {
			return err
		}
	}
	if len(c.FinalVerdictRaw) > 0 {
		c.FinalVerdict = &model.FinalVerdict{}
		if err := json.Unmarshal(c.FinalVerdictRaw, c.FinalVerdict); err != nil {
			return err
		}
	}
	if len(c.SecondOpinionRaw) > 0 {
		c.SecondOpinion = &model.SecondOpinion{}
		if err := json.Unmarshal(c.SecondOpinionRaw, c.SecondOpinion); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) upload(ctx context.Context, folder string, f UploadFile) (string, error) {
	start := time.Now()
	url, err := s.blobs.Upload(ctx, folder, f.Name, f.ContentType, f.Data)
	if s.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		s.metrics.BlobUploads.WithLabelValues(folder, outcome).Inc()
		s.metrics.BlobUploadLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return "", apperrors.Upstream("failed to upload attachment", err)
	}
	return url, nil
}

func (s *Service) countTransition(transition, outcome string) {
	if s.metrics != nil {
		s.metrics.ConsultationTransitions.WithLabelValues(transition, outcome).Inc()
	}
}
