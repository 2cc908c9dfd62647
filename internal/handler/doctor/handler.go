package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelink/referral-api/internal/handler"
	"github.com/carelink/referral-api/internal/middleware"
	"github.com/carelink/referral-api/internal/model"
	doctorService "github.com/carelink/referral-api/internal/service/doctor"
	"github.com/carelink/referral-api/pkg/auth"
	apperrors "github.com/carelink/referral-api/pkg/errors"
	"github.com/carelink/referral-api/pkg/httputil"
)

type Handler struct {
	service  *doctorService.Service
	sessions *handler.Sessions
}

func NewHandler(service *doctorService.Service, sessions *handler.Sessions) *Handler {
	return &Handler{service: service, sessions: sessions}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	doctors := r.Group("/doctor")
	{
		doctors.POST("/login", h.Login)
		doctors.POST("/logout", h.sessions.Logout)

		doctors.GET("/list",
			authMW.Authenticate(),
			authMW.RequireRoles(auth.RoleWorker, auth.RoleAdmin),
			h.ListForEscalation)

		adminOnly := doctors.Group("", authMW.Authenticate(), authMW.RequireRoles(auth.RoleAdmin))
		{
			adminOnly.POST("", h.Create)
			adminOnly.GET("", h.List)
			adminOnly.DELETE("/:id", h.Delete)
		}
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	adminID, _ := middleware.PrincipalFrom(c)
	doctor, err := h.service.Create(c.Request.Context(), &req, adminID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "doctor created successfully", doctor)
}

func (h *Handler) List(c *gin.Context) {
	adminID, _ := middleware.PrincipalFrom(c)
	doctors, err := h.service.ListByAdmin(c.Request.Context(), adminID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", gin.H{"doctors": doctors})
}

// ListForEscalation serves the doctor picker shown when a worker escalates.
func (h *Handler) ListForEscalation(c *gin.Context) {
	principalID, _ := middleware.PrincipalFrom(c)
	role, _ := middleware.RoleFrom(c)

	doctors, err := h.service.ListForEscalation(c.Request.Context(), role, principalID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", gin.H{"doctors": doctors})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor id"))
		return
	}

	adminID, _ := middleware.PrincipalFrom(c)
	if err := h.service.Delete(c.Request.Context(), id, adminID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "doctor deleted successfully", nil)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	token, profile, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.sessions.SetCookie(c, token)
	httputil.RespondWithSuccess(c, http.StatusOK, "login successful", profile)
}
