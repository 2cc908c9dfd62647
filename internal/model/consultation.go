package model

import (
	"time"

	"github.com/google/uuid"
)

// Consultation status values. "pending" covers two waiting states: awaiting
// the worker's decision, and awaiting doctor review once escalated. The
// worker_decision and assigned_doctor fields disambiguate.
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusClosed   = "closed"
)

// Worker decision values
const (
	DecisionAccepted  = "accepted"
	DecisionEscalated = "escalated"
)

// Risk levels reported by the LLM analysis
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
)

// MLAnalysis is the staged ML prediction result.
type MLAnalysis struct {
	Disease     string    `json:"disease"`
	Confidence  float64   `json:"confidence"`
	Precautions []string  `json:"precautions"`
	AnalyzedAt  time.Time `json:"analyzedAt"`
}

// LLMAnalysis is the staged LLM summary result.
type LLMAnalysis struct {
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations"`
	RiskLevel       string    `json:"riskLevel"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
}

// FinalVerdict is the combined-analysis conclusion.
type FinalVerdict struct {
	Conclusion  string    `json:"conclusion"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// SecondOpinion is a doctor's response to an escalated consultation.
type SecondOpinion struct {
	Diagnosis      string    `json:"diagnosis"`
	Recommendation string    `json:"recommendation"`
	RespondedAt    time.Time `json:"respondedAt"`
}

// Consultation is the central case record. The nested analysis payloads are
// stored as JSONB; the service layer marshals them into the *Raw fields
// before writes and back out after reads.
type Consultation struct {
	Base
	PatientID        uuid.UUID  `json:"patient" db:"patient_id"`
	SubmittedBy      uuid.UUID  `json:"submittedBy" db:"submitted_by"`
	AssignedDoctor   *uuid.UUID `json:"assignedDoctor,omitempty" db:"assigned_doctor"`
	Symptoms         StringList `json:"symptoms" db:"symptoms"`
	Notes            *string    `json:"notes,omitempty" db:"notes"`
	Attachments      StringList `json:"attachments" db:"attachments"`
	AIReport         *string    `json:"aiReport,omitempty" db:"ai_report"`
	AnalysisReport   *string    `json:"analysisReport,omitempty" db:"analysis_report"`
	Status           string     `json:"status" db:"status"`
	WorkerDecision   *string    `json:"workerDecision,omitempty" db:"worker_decision"`
	EscalationReason *string    `json:"escalationReason,omitempty" db:"escalation_reason"`
	Version          int        `json:"-" db:"version"`

	MLAnalysisRaw    []byte `json:"-" db:"ml_analysis"`
	LLMAnalysisRaw   []byte `json:"-" db:"llm_analysis"`
	FinalVerdictRaw  []byte `json:"-" db:"final_verdict"`
	SecondOpinionRaw []byte `json:"-" db:"second_opinion"`

	MLAnalysis    *MLAnalysis    `json:"mlAnalysis,omitempty" db:"-"`
	LLMAnalysis   *LLMAnalysis   `json:"llmAnalysis,omitempty" db:"-"`
	FinalVerdict  *FinalVerdict  `json:"finalVerdict,omitempty" db:"-"`
	SecondOpinion *SecondOpinion `json:"secondOpinion,omitempty" db:"-"`

	// Populated on listings only
	Patient   *PatientSummary `json:"patientDetails,omitempty" db:"-"`
	Submitter *PersonSummary  `json:"submitterDetails,omitempty" db:"-"`
	Doctor    *PersonSummary  `json:"doctorDetails,omitempty" db:"-"`
}

// PatientSummary is the embedded patient view on consultation listings.
type PatientSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	MedicalHistory *string   `json:"medicalHistory,omitempty"`
}

// PersonSummary is the embedded submitter/doctor view on listings.
type PersonSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Specialization *string   `json:"specialization,omitempty"`
}

// EscalateRequest represents a worker's escalation of a consultation
type EscalateRequest struct {
	DoctorID string `json:"doctorId" binding:"required,uuid"`
	Reason   string `json:"reason"`
}

// RespondRequest represents a doctor's second opinion
type RespondRequest struct {
	Diagnosis      string `json:"diagnosis" binding:"required"`
	Recommendation string `json:"recommendation" binding:"required"`
}

// MLResult is the payload of the store-ML-analysis endpoint
type MLResult struct {
	Disease     string   `json:"disease" binding:"required"`
	Confidence  float64  `json:"confidence"`
	Precautions []string `json:"precautions"`
}

// LLMResult is the payload of the store-LLM-analysis endpoint
type LLMResult struct {
	Summary         string   `json:"summary" binding:"required"`
	Recommendations []string `json:"recommendations"`
	RiskLevel       string   `json:"riskLevel" binding:"omitempty,oneof=low moderate high"`
}

// StoreMLRequest wraps MLResult to keep the original wire shape
type StoreMLRequest struct {
	MLResult *MLResult `json:"mlResult" binding:"required"`
}

// StoreLLMRequest wraps LLMResult to keep the original wire shape
type StoreLLMRequest struct {
	LLMResult *LLMResult `json:"llmResult" binding:"required"`
}

// StoreVerdictRequest carries the combined-analysis conclusion
type StoreVerdictRequest struct {
	Verdict string `json:"verdict" binding:"required"`
}

// StoreReportRequest carries the generated analysis PDF
type StoreReportRequest struct {
	PDFBase64 string `json:"pdfBase64" binding:"required"`
}
