package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carelink/referral-api/pkg/metrics"

	"github.com/carelink/referral-api/internal/model"
	"github.com/carelink/referral-api/internal/repository"
)

type consultationRepository struct {
	db      *sqlx.DB
	metrics repoMetrics
}

func NewConsultationRepository(db *sqlx.DB, m *metrics.Metrics) repository.ConsultationRepository {
	return &consultationRepository{db: db, metrics: newRepoMetrics("consultation", m)}
}

func (r *consultationRepository) Create(ctx context.Context, c *model.Consultation) error {
	defer r.metrics.track("create")()
	query := `
		INSERT INTO consultations (
			id, patient_id, submitted_by, assigned_doctor, symptoms, notes,
			attachments, ai_report, analysis_report, status, worker_decision,
			escalation_reason, ml_analysis, llm_analysis, final_verdict,
			second_opinion, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)
	`
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	c.Version = 1

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.PatientID,
		c.SubmittedBy,
		c.AssignedDoctor,
		c.Symptoms,
		c.Notes,
		c.Attachments,
		c.AIReport,
		c.AnalysisReport,
		c.Status,
		c.WorkerDecision,
		c.EscalationReason,
		nullableJSON(c.MLAnalysisRaw),
		nullableJSON(c.LLMAnalysisRaw),
		nullableJSON(c.FinalVerdictRaw),
		nullableJSON(c.SecondOpinionRaw),
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	defer r.metrics.track("get")()
	query := `SELECT * FROM consultations WHERE id = $1`
	var c model.Consultation
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, translateNoRows(err)
	}
	return &c, nil
}

// Update is a compare-and-swap on the version column. A zero row count means
// a concurrent writer advanced the version first.
func (r *consultationRepository) Update(ctx context.Context, c *model.Consultation) error {
	defer r.metrics.track("update")()
	query := `
		UPDATE consultations SET
			assigned_doctor = $1,
			ai_report = $2,
			analysis_report = $3,
			status = $4,
			worker_decision = $5,
			escalation_reason = $6,
			ml_analysis = $7,
			llm_analysis = $8,
			final_verdict = $9,
			second_opinion = $10,
			version = version + 1,
			updated_at = $11
		WHERE id = $12 AND version = $13
	`
	c.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, query,
		c.AssignedDoctor,
		c.AIReport,
		c.AnalysisReport,
		c.Status,
		c.WorkerDecision,
		c.EscalationReason,
		nullableJSON(c.MLAnalysisRaw),
		nullableJSON(c.LLMAnalysisRaw),
		nullableJSON(c.FinalVerdictRaw),
		nullableJSON(c.SecondOpinionRaw),
		c.UpdatedAt,
		c.ID,
		c.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update consultation: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrVersionConflict
	}

	c.Version++
	return nil
}

// consultationRow carries a consultation plus the joined summary columns.
type consultationRow struct {
	model.Consultation
	PatientName    *string `db:"patient_name"`
	PatientAge     *int    `db:"patient_age"`
	PatientGender  *string `db:"patient_gender"`
	PatientHistory *string `db:"patient_history"`
	WorkerName     *string `db:"worker_name"`
	WorkerEmail    *string `db:"worker_email"`
	DoctorName     *string `db:"doctor_name"`
	DoctorEmail    *string `db:"doctor_email"`
	DoctorSpec     *string `db:"doctor_spec"`
}

const listColumns = `
	c.*,
	p.name AS patient_name, p.age AS patient_age, p.gender AS patient_gender, p.medical_history AS patient_history,
	w.name AS worker_name, w.email AS worker_email,
	d.name AS doctor_name, d.email AS doctor_email, d.specialization AS doctor_spec
`

const listJoins = `
	FROM consultations c
	JOIN patients p ON p.id = c.patient_id
	JOIN workers w ON w.id = c.submitted_by
	LEFT JOIN doctors d ON d.id = c.assigned_doctor
`

func (r *consultationRepository) ListByOrganization(ctx context.Context, adminID uuid.UUID) ([]*model.Consultation, error) {
	defer r.metrics.track("list_by_org")()
	query := `SELECT ` + listColumns + listJoins + `
		WHERE w.added_by = $1
		ORDER BY c.created_at DESC`
	return r.list(ctx, query, adminID)
}

func (r *consultationRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Consultation, error) {
	defer r.metrics.track("list_by_doctor")()
	query := `SELECT ` + listColumns + listJoins + `
		WHERE c.assigned_doctor = $1
		ORDER BY c.created_at DESC`
	return r.list(ctx, query, doctorID)
}

func (r *consultationRepository) ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Consultation, error) {
	defer r.metrics.track("list_pending_by_doctor")()
	query := `SELECT ` + listColumns + listJoins + `
		WHERE c.assigned_doctor = $1 AND c.worker_decision = $2 AND c.status = $3
		ORDER BY c.created_at DESC`
	return r.list(ctx, query, doctorID, model.DecisionEscalated, model.StatusPending)
}

func (r *consultationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Consultation, error) {
	rows := []*consultationRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}

	consultations := make([]*model.Consultation, 0, len(rows))
	for _, row := range rows {
		c := row.Consultation
		if row.PatientName != nil {
			c.Patient = &model.PatientSummary{
				ID:             c.PatientID,
				Name:           *row.PatientName,
				Age:            derefInt(row.PatientAge),
				Gender:         derefString(row.PatientGender),
				MedicalHistory: row.PatientHistory,
			}
		}
		if row.WorkerName != nil {
			c.Submitter = &model.PersonSummary{
				ID:    c.SubmittedBy,
				Name:  *row.WorkerName,
				Email: derefString(row.WorkerEmail),
			}
		}
		if row.DoctorName != nil && c.AssignedDoctor != nil {
			c.Doctor = &model.PersonSummary{
				ID:             *c.AssignedDoctor,
				Name:           *row.DoctorName,
				Email:          derefString(row.DoctorEmail),
				Specialization: row.DoctorSpec,
			}
		}
		cc := c
		consultations = append(consultations, &cc)
	}
	return consultations, nil
}

// nullableJSON keeps empty payloads as SQL NULL instead of zero-length JSON.
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
