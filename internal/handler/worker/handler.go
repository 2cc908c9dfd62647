package worker

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelink/referral-api/internal/handler"
	"github.com/carelink/referral-api/internal/middleware"
	"github.com/carelink/referral-api/internal/model"
	workerService "github.com/carelink/referral-api/internal/service/worker"
	"github.com/carelink/referral-api/pkg/auth"
	apperrors "github.com/carelink/referral-api/pkg/errors"
	"github.com/carelink/referral-api/pkg/httputil"
)

type Handler struct {
	service  *workerService.Service
	sessions *handler.Sessions
}

func NewHandler(service *workerService.Service, sessions *handler.Sessions) *Handler {
	return &Handler{service: service, sessions: sessions}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	workers := r.Group("/worker")
	{
		workers.POST("/login", h.Login)
		workers.POST("/logout", h.sessions.Logout)

		adminOnly := workers.Group("", authMW.Authenticate(), authMW.RequireRoles(auth.RoleAdmin))
		{
			adminOnly.POST("", h.Create)
			adminOnly.GET("", h.List)
			adminOnly.DELETE("/:id", h.Delete)
		}
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	adminID, _ := middleware.PrincipalFrom(c)
	worker, err := h.service.Create(c.Request.Context(), &req, adminID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "worker created successfully", worker)
}

func (h *Handler) List(c *gin.Context) {
	adminID, _ := middleware.PrincipalFrom(c)
	workers, err := h.service.ListByAdmin(c.Request.Context(), adminID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", gin.H{"workers": workers})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid worker id"))
		return
	}

	adminID, _ := middleware.PrincipalFrom(c)
	if err := h.service.Delete(c.Request.Context(), id, adminID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "worker deleted successfully", nil)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	token, worker, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.sessions.SetCookie(c, token)
	httputil.RespondWithSuccess(c, http.StatusOK, "login successful", worker)
}
