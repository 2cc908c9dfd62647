package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/referral-api/internal/handler"
	"github.com/carelink/referral-api/internal/middleware"
	"github.com/carelink/referral-api/internal/model"
	adminService "github.com/carelink/referral-api/internal/service/admin"
	"github.com/carelink/referral-api/pkg/auth"
	apperrors "github.com/carelink/referral-api/pkg/errors"
	"github.com/carelink/referral-api/pkg/httputil"
)

type Handler struct {
	service  *adminService.Service
	sessions *handler.Sessions
}

func NewHandler(service *adminService.Service, sessions *handler.Sessions) *Handler {
	return &Handler{service: service, sessions: sessions}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	admins := r.Group("/admin")
	{
		admins.POST("/register", h.Register)
		admins.POST("/login", h.Login)
		admins.POST("/logout", h.sessions.Logout)
		admins.GET("/profile",
			authMW.Authenticate(), authMW.RequireRoles(auth.RoleAdmin), h.Profile)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	admin, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "admin registered successfully", admin)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	token, admin, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.sessions.SetCookie(c, token)
	httputil.RespondWithSuccess(c, http.StatusOK, "login successful", admin)
}

func (h *Handler) Profile(c *gin.Context) {
	principalID, ok := middleware.PrincipalFrom(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthenticated("authentication required"))
		return
	}

	admin, err := h.service.Profile(c.Request.Context(), principalID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", admin)
}
