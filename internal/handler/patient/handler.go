package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelink/referral-api/internal/middleware"
	"github.com/carelink/referral-api/internal/model"
	patientService "github.com/carelink/referral-api/internal/service/patient"
	"github.com/carelink/referral-api/pkg/auth"
	apperrors "github.com/carelink/referral-api/pkg/errors"
	"github.com/carelink/referral-api/pkg/httputil"
)

type Handler struct {
	service *patientService.Service
}

func NewHandler(service *patientService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	patients := r.Group("/patient", authMW.Authenticate(), authMW.RequireRoles(auth.RoleWorker))
	{
		patients.POST("", h.Create)
		patients.GET("", h.List)
		patients.GET("/:id", h.Get)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	workerID, _ := middleware.PrincipalFrom(c)
	patient, err := h.service.Create(c.Request.Context(), &req, workerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "patient registered successfully", patient)
}

func (h *Handler) List(c *gin.Context) {
	workerID, _ := middleware.PrincipalFrom(c)
	patients, err := h.service.ListForWorker(c.Request.Context(), workerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", gin.H{"patients": patients})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient id"))
		return
	}

	patient, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", patient)
}
