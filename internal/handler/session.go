package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carelink/referral-api/internal/middleware"
	"github.com/carelink/referral-api/internal/repository"
	"github.com/carelink/referral-api/pkg/httputil"
)

// Sessions issues and revokes the session cookie shared by all roles.
type Sessions struct {
	tokens repository.TokenRepository
	expiry time.Duration
}

func NewSessions(tokens repository.TokenRepository, expiry time.Duration) *Sessions {
	return &Sessions{tokens: tokens, expiry: expiry}
}

// SetCookie writes the session token as an httpOnly, SameSite=Strict cookie.
func (s *Sessions) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, token, int(s.expiry.Seconds()), "/", "", false, true)
}

func (s *Sessions) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
}

// Logout clears the cookie and denylists the token for the rest of its
// lifetime so it cannot be replayed.
func (s *Sessions) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookie); err == nil && token != "" {
		if err := s.tokens.Revoke(c.Request.Context(), token, s.expiry); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
	}
	s.clearCookie(c)
	httputil.RespondWithSuccess(c, http.StatusOK, "logged out successfully", nil)
}
