package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/container"
)

func testServer(t *testing.T, upstreamURL string) *Server {
	t.Helper()

	dir := t.TempDir()
	userConfigPath := filepath.Join(dir, "config.yaml")
	body := `
providers:
  - name: anthropic-direct
    type: anthropic
    base_url: ` + upstreamURL + `
    api_key: sk-ant-test
models:
  - alias: default
    id: claude-sonnet-4
    provider: anthropic-direct
routing:
  default: default
`
	require.NoError(t, os.WriteFile(userConfigPath, []byte(body), 0o600))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	cfgMgr, err := config.NewManager(userConfigPath, logger)
	require.NoError(t, err)

	containerMgr, err := container.NewManager(cfgMgr, time.Millisecond, nil, logger)
	require.NoError(t, err)

	serverCfg := &config.ServerConfig{Host: "127.0.0.1", Port: 0}

	return New(serverCfg, cfgMgr, containerMgr, logger)
}

func TestServer_Health_ReturnsOK(t *testing.T) {
	s := testServer(t, "http://unused.invalid")
	mux := s.setupRoutes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ClaudeMessages_RoutesThroughToUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "msg_1",
			"type":    "message",
			"content": []any{map[string]any{"type": "text", "text": "hi there"}},
		})
	}))
	defer upstream.Close()

	s := testServer(t, upstream.URL)
	mux := s.setupRoutes()

	reqBody := `{"model":"default","max_tokens":100,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/claude/v1/messages", strings.NewReader(reqBody))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	content := body["content"].([]any)
	assert.Equal(t, "hi there", content[0].(map[string]any)["text"])
}

func TestServer_ClaudeMessages_UnknownAliasReturnsBadRequest(t *testing.T) {
	s := testServer(t, "http://unused.invalid")
	mux := s.setupRoutes()

	reqBody := `{"model":"does-not-exist!","max_tokens":100,"messages":[]}`
	req := httptest.NewRequest(http.MethodPost, "/claude/v1/messages", strings.NewReader(reqBody))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ConfigStatus_ReportsProviderCount(t *testing.T) {
	s := testServer(t, "http://unused.invalid")
	mux := s.setupRoutes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["providers"], 1)
}

func TestServer_ConfigValidate_AcceptsJSONCandidateDocument(t *testing.T) {
	s := testServer(t, "http://unused.invalid")
	mux := s.setupRoutes()

	candidate := `{
		"providers": [{"name": "p1", "type": "anthropic", "base_url": "https://api.anthropic.com"}],
		"models": [{"alias": "default", "id": "claude-sonnet-4", "provider": "p1"}],
		"routing": {"default": "default"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/config/validate", strings.NewReader(candidate))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["valid"])
}

func TestServer_ConfigValidate_ReportsInvalidCandidateDocument(t *testing.T) {
	s := testServer(t, "http://unused.invalid")
	mux := s.setupRoutes()

	candidate := `{"providers": [], "models": [], "routing": {}}`
	req := httptest.NewRequest(http.MethodPost, "/api/config/validate", strings.NewReader(candidate))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["valid"])
}
