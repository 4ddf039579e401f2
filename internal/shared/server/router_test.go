package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valoris-backend/internal/shared/config"
)

func demoConfig() config.Config {
	return config.Config{
		Port:         "8080",
		Env:          "dev",
		NumberLocale: "auto",
		DemoEmail:    "demo@valoris.app",
		DemoPassword: "valoris2024",
	}
}

func TestRouterHealth(t *testing.T) {
	r := NewRouter(demoConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestRouterMetrics(t *testing.T) {
	r := NewRouter(demoConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ingest_started_total")
	assert.Contains(t, w.Body.String(), "analysis_duration_ms_bucket")
}

// Full demo-mode walkthrough: upload a spreadsheet, read the chat context,
// ask a question, log out.
func TestRouterUploadThenChatFlow(t *testing.T) {
	r := NewRouter(demoConfig())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "spend.csv")
	require.NoError(t, err)
	fw.Write([]byte("Supplier,spend\nAcme,100\nGlobex,50\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"source":"fallback"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/chat/context", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalVendors":2`)

	chatReq := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"what savings are there?"}`))
	chatReq.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, chatReq)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	logoutReq := httptest.NewRequest(http.MethodPost, "/api/v1/session/logout", strings.NewReader(`{}`))
	logoutReq.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, logoutReq)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files", nil))
	assert.Contains(t, w.Body.String(), `"files":[]`)
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr(""))
	assert.Equal(t, ":9000", Addr("9000"))
	assert.Equal(t, ":9000", Addr(":9000"))
}
