package preview_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hunteros-backend/internal/api/v1/common/preview"
	"hunteros-backend/internal/sandbox"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, body interface{}) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	preview.RegisterRoutes(&r.RouterGroup)

	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, "/common/preview", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRenderPreview(t *testing.T) {
	w := post(t, preview.RenderRequest{Code: "<p>hi</p><script>localStorage.x=1</script>", Title: "Hi"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data preview.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, sandbox.ModeUntrustedPreview.String(), resp.Data.Mode)
	assert.Equal(t, sandbox.WrapDocument("<p>hi</p><script>localStorage.x=1</script>"), resp.Data.Document)
	assert.Contains(t, resp.Data.Iframe, `sandbox="allow-scripts"`)
	assert.NotEmpty(t, resp.Data.Warnings)
}

func TestRenderPreviewEmpty(t *testing.T) {
	w := post(t, preview.RenderRequest{Code: "  "})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data preview.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Empty)
	assert.Equal(t, sandbox.EmptyStateDocument, resp.Data.Document)
	assert.Equal(t, []string{}, resp.Data.Warnings)
}

func TestRenderPreviewRejectsSameOrigin(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, post(t, preview.RenderRequest{Code: "<p/>", Mode: "same-origin"}).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, preview.RenderRequest{Code: "<p/>", Mode: "bogus"}).Code)
}
