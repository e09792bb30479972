package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID"), "is_admin": c.GetBool("isAdmin")})
	})
	r.DELETE("/admin", AuthMiddleware(testSecret), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddlewareRoundTrip(t *testing.T) {
	router := setupAuthRouter()

	token, err := IssueToken(testSecret, "user-1", false, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	router := setupAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	router := setupAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOnly(t *testing.T) {
	router := setupAuthRouter()

	userToken, err := IssueToken(testSecret, "user-1", false, time.Hour)
	require.NoError(t, err)
	adminToken, err := IssueToken(testSecret, "admin-1", true, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
