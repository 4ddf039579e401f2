package conversation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valoris-backend/internal/analysis"
)

type scriptedChatClient struct {
	reply string
	err   error
	calls int
}

func (s *scriptedChatClient) Send(ctx context.Context, message string, chatCtx ChatContext, history []ChatMessage) (string, error) {
	s.calls++
	return s.reply, s.err
}

func newChatRouter(store *Store, client ChatClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(store, client)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatEndpointRelaysReply(t *testing.T) {
	store := NewStore()
	store.StoreAnalysis("f1", "a.xlsx", singleVendorResult("Acme", "Software", 100, 8, 12), analysis.SourceRemote)
	client := &scriptedChatClient{reply: "start with Acme"}
	r := newChatRouter(store, client)

	w := postJSON(t, r, "/api/v1/chat", `{"fileId":"f1","message":"where should I start?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), "start with Acme")
	assert.Contains(t, w.Body.String(), `"relayed":true`)
	assert.Equal(t, 1, client.calls)

	history := store.History("f1")
	require.Len(t, history, 2, "user and assistant turns are both recorded")
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "start with Acme", history[1].Content)
}

func TestChatEndpointFallsBackOnRelayFailure(t *testing.T) {
	store := NewStore()
	store.StoreAnalysis("f1", "a.xlsx", singleVendorResult("Acme", "Software", 100, 8, 12), analysis.SourceRemote)
	client := &scriptedChatClient{err: errors.New("connection refused")}
	r := newChatRouter(store, client)

	w := postJSON(t, r, "/api/v1/chat", `{"fileId":"f1","message":"what savings are possible?"}`)
	require.Equal(t, http.StatusOK, w.Code, "relay failure must not fail the chat turn")
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"relayed":false`)
}

func TestChatEndpointWorksWithoutClient(t *testing.T) {
	store := NewStore()
	r := newChatRouter(store, nil)

	w := postJSON(t, r, "/api/v1/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "procurement assistant")
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	r := newChatRouter(NewStore(), nil)

	w := postJSON(t, r, "/api/v1/chat", `{"fileId":"f1","message":"  "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestChatContextEndpoint(t *testing.T) {
	store := NewStore()
	store.StoreAnalysis("f1", "a.xlsx", singleVendorResult("Acme", "Software", 100, 8, 12), analysis.SourceRemote)
	r := newChatRouter(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/context?fileId=f1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalSpend":100`)
	assert.Contains(t, w.Body.String(), `"currentFile"`)
	assert.Contains(t, w.Body.String(), "Acme")
}
