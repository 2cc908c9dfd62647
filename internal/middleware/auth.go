package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelink/referral-api/internal/repository"
	"github.com/carelink/referral-api/pkg/auth"
	"github.com/carelink/referral-api/pkg/httputil"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "token"

	ContextPrincipalID = "principal_id"
	ContextRole        = "role"
)

type AuthMiddleware struct {
	jwtSvc auth.JWTService
	tokens repository.TokenRepository
}

func NewAuthMiddleware(jwtSvc auth.JWTService, tokens repository.TokenRepository) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc, tokens: tokens}
}

// Authenticate validates the session cookie, rejects revoked tokens and sets
// the principal id and role in the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			abortUnauthorized(c, "authentication required")
			return
		}

		claims, err := m.jwtSvc.Validate(token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		if m.tokens != nil {
			revoked, err := m.tokens.IsRevoked(c.Request.Context(), token)
			if err == nil && revoked {
				abortUnauthorized(c, "session has been logged out")
				return
			}
		}

		principalID, err := claims.PrincipalID()
		if err != nil {
			abortUnauthorized(c, "invalid token subject")
			return
		}

		c.Set(ContextPrincipalID, principalID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRoles rejects principals whose role is not in the allowed set.
func (m *AuthMiddleware) RequireRoles(roles ...auth.Role) gin.HandlerFunc {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, ok := RoleFrom(c)
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
				Status:  "error",
				Message: "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal's id.
func PrincipalFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextPrincipalID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// RoleFrom returns the authenticated principal's role.
func RoleFrom(c *gin.Context) (auth.Role, bool) {
	v, ok := c.Get(ContextRole)
	if !ok {
		return "", false
	}
	role, ok := v.(auth.Role)
	return role, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
		Status:  "error",
		Message: message,
	})
}
