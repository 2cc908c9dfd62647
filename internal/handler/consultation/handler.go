package consultation

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelink/referral-api/internal/middleware"
	"github.com/carelink/referral-api/internal/model"
	consultationService "github.com/carelink/referral-api/internal/service/consultation"
	"github.com/carelink/referral-api/pkg/auth"
	apperrors "github.com/carelink/referral-api/pkg/errors"
	"github.com/carelink/referral-api/pkg/httputil"
)

const (
	maxAttachments = 5
	maxFileBytes   = 10 << 20

	// maxSubmissionBytes bounds a full multipart submission: five attachments
	// plus one AI report at the per-file limit, and slack for form fields and
	// multipart framing.
	maxSubmissionBytes = (maxAttachments+1)*maxFileBytes + 1<<20
)

var allowedContentTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
}

type Handler struct {
	service *consultationService.Service
}

func NewHandler(service *consultationService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	consultations := r.Group("/consultation", authMW.Authenticate())
	{
		workerOnly := authMW.RequireRoles(auth.RoleWorker)
		doctorOnly := authMW.RequireRoles(auth.RoleDoctor)
		adminOnly := authMW.RequireRoles(auth.RoleAdmin)

		consultations.POST("", workerOnly, middleware.SizeLimit(maxSubmissionBytes), h.Create)
		consultations.GET("/my", workerOnly, h.ListMine)
		consultations.PATCH("/:id/accept", workerOnly, h.Accept)
		consultations.PATCH("/:id/escalate", workerOnly, h.Escalate)

		consultations.GET("/admin/all", adminOnly, h.ListForAdmin)

		consultations.GET("/doctor/all", doctorOnly, h.ListForDoctor)
		consultations.GET("/pending", doctorOnly, h.ListPending)
		consultations.PATCH("/:id/respond", doctorOnly, h.Respond)

		consultations.GET("/:id",
			authMW.RequireRoles(auth.RoleWorker, auth.RoleDoctor), h.Get)

		analysis := consultations.Group("/:id/analysis", workerOnly)
		{
			analysis.POST("/ml", h.StoreML)
			analysis.POST("/llm", h.StoreLLM)
			analysis.POST("/verdict", h.StoreVerdict)
			analysis.POST("/report", h.StoreReport)
		}
	}
}

// Create accepts a multipart submission: patientId, symptoms (JSON array or
// comma-separated), optional notes, up to five attachments and one aiReport.
func (h *Handler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid multipart form"))
		return
	}

	patientID, err := uuid.Parse(c.PostForm("patientId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient id"))
		return
	}

	symptoms := consultationService.ParseSymptoms(c.PostForm("symptoms"))
	if len(symptoms) == 0 {
		httputil.RespondWithError(c, apperrors.Validation("at least one symptom is required"))
		return
	}

	var notes *string
	if v := c.PostForm("notes"); v != "" {
		notes = &v
	}

	attachments := form.File["attachments"]
	if len(attachments) > maxAttachments {
		httputil.RespondWithError(c,
			apperrors.Validation(fmt.Sprintf("at most %d attachments are allowed", maxAttachments)))
		return
	}
	aiReports := form.File["aiReport"]
	if len(aiReports) > 1 {
		httputil.RespondWithError(c, apperrors.Validation("at most one AI report is allowed"))
		return
	}

	in := &consultationService.CreateInput{
		PatientID: patientID,
		Symptoms:  symptoms,
		Notes:     notes,
	}

	for _, fh := range attachments {
		file, err := readUpload(fh)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		in.Attachments = append(in.Attachments, *file)
	}
	if len(aiReports) == 1 {
		file, err := readUpload(aiReports[0])
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		in.AIReport = file
	}

	workerID, _ := middleware.PrincipalFrom(c)
	consultation, err := h.service.Create(c.Request.Context(), in, workerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "consultation submitted successfully", consultation)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := h.consultationID(c)
	if !ok {
		return
	}

	principalID, _ := middleware.PrincipalFrom(c)
	role, _ := middleware.RoleFrom(c)
	consultation, err := h.service.Get(c.Request.Context(), id, role, principalID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", consultation)
}

func (h *Handler) ListMine(c *gin.Context) {
	workerID, _ := middleware.PrincipalFrom(c)
	list, err := h.service.ListForWorker(c.Request.Context(), workerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", gin.H{"consultations": list})
}

func (h *Handler) ListForAdmin(c *gin.Context) {
	adminID, _ := middleware.PrincipalFrom(c)
	list, err := h.service.ListForAdmin(c.Request.Context(), adminID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", gin.H{"consultations": list})
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	doctorID, _ := middleware.PrincipalFrom(c)
	list, err := h.service.ListForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", gin.H{"consultations": list})
}

func (h *Handler) ListPending(c *gin.Context) {
	doctorID, _ := middleware.PrincipalFrom(c)
	list, err := h.service.ListPendingForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", gin.H{"consultations": list})
}

func (h *Handler) Accept(c *gin.Context) {
	id, ok := h.consultationID(c)
	if !ok {
		return
	}

	workerID, _ := middleware.PrincipalFrom(c)
	consultation, err := h.service.Accept(c.Request.Context(), id, workerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "consultation closed successfully", consultation)
}

func (h *Handler) Escalate(c *gin.Context) {
	id, ok := h.consultationID(c)
	if !ok {
		return
	}

	var req model.EscalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor id"))
		return
	}

	workerID, _ := middleware.PrincipalFrom(c)
	consultation, err := h.service.Escalate(c.Request.Context(), id, doctorID, workerID, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "consultation escalated successfully", consultation)
}

func (h *Handler) Respond(c *gin.Context) {
	id, ok := h.consultationID(c)
	if !ok {
		return
	}

	var req model.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	doctorID, _ := middleware.PrincipalFrom(c)
	consultation, err := h.service.Respond(c.Request.Context(), id, doctorID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "second opinion recorded successfully", consultation)
}

func (h *Handler) StoreML(c *gin.Context) {
	id, ok := h.consultationID(c)
	if !ok {
		return
	}

	var req model.StoreMLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	consultation, err := h.service.StoreMLAnalysis(c.Request.Context(), id, req.MLResult)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "ML analysis stored successfully", consultation)
}

func (h *Handler) StoreLLM(c *gin.Context) {
	id, ok := h.consultationID(c)
	if !ok {
		return
	}

	var req model.StoreLLMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	consultation, err := h.service.StoreLLMAnalysis(c.Request.Context(), id, req.LLMResult)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "LLM analysis stored successfully", consultation)
}

func (h *Handler) StoreVerdict(c *gin.Context) {
	id, ok := h.consultationID(c)
	if !ok {
		return
	}

	var req model.StoreVerdictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	consultation, err := h.service.StoreVerdict(c.Request.Context(), id, req.Verdict)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "final verdict stored successfully", consultation)
}

func (h *Handler) StoreReport(c *gin.Context) {
	id, ok := h.consultationID(c)
	if !ok {
		return
	}

	var req model.StoreReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	pdf, err := base64.StdEncoding.DecodeString(req.PDFBase64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("pdfBase64 is not valid base64"))
		return
	}
	if len(pdf) > maxFileBytes {
		httputil.RespondWithError(c, apperrors.Validation("report exceeds the 10MB limit"))
		return
	}

	consultation, err := h.service.StoreReport(c.Request.Context(), id, pdf)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "analysis report stored successfully", consultation)
}

func (h *Handler) consultationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid consultation id"))
		return uuid.Nil, false
	}
	return id, true
}

// readUpload buffers a multipart file and enforces the per-file size and
// content-type limits.
func readUpload(fh *multipart.FileHeader) (*consultationService.UploadFile, error) {
	if fh.Size > maxFileBytes {
		return nil, apperrors.Validation(fmt.Sprintf("%s exceeds the 10MB limit", fh.Filename))
	}

	contentType := fh.Header.Get("Content-Type")
	if _, ok := allowedContentTypes[contentType]; !ok {
		return nil, apperrors.Validation(
			fmt.Sprintf("%s: only JPEG, PNG and PDF files are accepted", fh.Filename))
	}

	file, err := fh.Open()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxFileBytes+1))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(data) > maxFileBytes {
		return nil, apperrors.Validation(fmt.Sprintf("%s exceeds the 10MB limit", fh.Filename))
	}

	return &consultationService.UploadFile{
		Name:        fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
