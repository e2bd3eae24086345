package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"notesum-backend/internal/shared/auth"
)

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth())
	handler := func(c *gin.Context) {
		c.String(http.StatusOK, UserIDFromContext(c))
	}
	router.GET("/api/v1/documents", handler)
	router.GET("/api/v1/blobs/*key", handler)
	router.OPTIONS("/api/v1/documents", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	resp := httptest.NewRecorder()
	authRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodOptions, "/api/v1/documents", nil))
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestAuthGuestHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("X-Guest-Id", "device-1")
	resp := httptest.NewRecorder()
	authRouter().ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "guest:device-1", resp.Body.String())
}

func TestAuthBearerToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test")
	token, err := auth.SignJWT("user-7", time.Hour)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	authRouter().ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "user-7", resp.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Token "+token)
	resp = httptest.NewRecorder()
	authRouter().ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsMissingIdentity(t *testing.T) {
	resp := httptest.NewRecorder()
	authRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthSkipsSignedBlobs(t *testing.T) {
	resp := httptest.NewRecorder()
	authRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/blobs/u/a.pdf?exp=1&sig=x", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}
