package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/referral-api/pkg/auth"
)

type fakeTokenRepo struct {
	revoked map[string]bool
}

func (f *fakeTokenRepo) Revoke(_ context.Context, token string, _ time.Duration) error {
	f.revoked[token] = true
	return nil
}

func (f *fakeTokenRepo) IsRevoked(_ context.Context, token string) (bool, error) {
	return f.revoked[token], nil
}

func setupRouter(t *testing.T, jwtSvc auth.JWTService, tokens *fakeTokenRepo, roles ...auth.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mw := NewAuthMiddleware(jwtSvc, tokens)
	r := gin.New()
	group := r.Group("", mw.Authenticate())
	if len(roles) > 0 {
		group.Use(mw.RequireRoles(roles...))
	}
	group.GET("/protected", func(c *gin.Context) {
		id, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"principal": id.String()})
	})
	return r
}

func doRequest(r *gin.Engine, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateMissingCookie(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	r := setupRouter(t, jwtSvc, &fakeTokenRepo{revoked: map[string]bool{}})

	w := doRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateValidToken(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	r := setupRouter(t, jwtSvc, &fakeTokenRepo{revoked: map[string]bool{}})

	token, err := jwtSvc.Generate(uuid.New(), auth.RoleWorker)
	require.NoError(t, err)

	w := doRequest(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticateGarbageToken(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	r := setupRouter(t, jwtSvc, &fakeTokenRepo{revoked: map[string]bool{}})

	w := doRequest(r, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRevokedToken(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	tokens := &fakeTokenRepo{revoked: map[string]bool{}}
	r := setupRouter(t, jwtSvc, tokens)

	token, err := jwtSvc.Generate(uuid.New(), auth.RoleWorker)
	require.NoError(t, err)
	require.NoError(t, tokens.Revoke(context.Background(), token, time.Hour))

	w := doRequest(r, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	tokens := &fakeTokenRepo{revoked: map[string]bool{}}
	r := setupRouter(t, jwtSvc, tokens, auth.RoleAdmin)

	workerToken, err := jwtSvc.Generate(uuid.New(), auth.RoleWorker)
	require.NoError(t, err)
	adminToken, err := jwtSvc.Generate(uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doRequest(r, workerToken).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, adminToken).Code)
}
