package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hunteros-backend/config"
	"hunteros-backend/internal/services"
	"hunteros-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testRouter() *gin.Engine {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
	return NewRouter(&config.Config{
		CORSOrigins:          []string{"http://localhost:5173"},
		TemplatePollInterval: time.Second,
	})
}

func TestNewRouterPublicEndpoints(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hunteros_")
}

func TestNewRouterRequiresAuth(t *testing.T) {
	r := testRouter()

	for _, path := range []string{"/api/v1/widgets", "/api/v1/templates", "/api/v1/auth/user"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/templates/1/preview", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewRouterClampsPollInterval(t *testing.T) {
	testRouter()
	assert.Equal(t, 5*time.Second, services.TemplatePollInterval)
}
