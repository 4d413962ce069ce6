package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/exchange"
	"github.com/mihaisavezi/llmgateway/internal/transformers"
)

func TestProviderClient_Execute_AnthropicHappyPath(t *testing.T) {
	var gotHeader string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("x-api-key")
		assert.Equal(t, "/v1/messages", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["stream"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "msg_1",
			"type":    "message",
			"content": []any{map[string]any{"type": "text", "text": "hi"}},
		})
	}))
	defer upstream.Close()

	cfg := config.ProviderConfig{Name: "anthropic-direct", Type: config.KindAnthropic, BaseURL: upstream.URL, APIKey: "sk-ant-test"}
	pc, err := NewProviderClient(cfg, transformers.NewLoader(nil), nil)
	require.NoError(t, err)

	req := exchange.NewRequest(exchange.ChannelClaude, exchange.OperationMessages,
		map[string]any{"model": "claude-sonnet-4", "max_tokens": float64(100), "stream": true}, nil)

	resp, err := pc.Execute(req, "messages")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "sk-ant-test", gotHeader)
	assert.Equal(t, "anthropic-direct", resp.Annotations["provider"])
}

func TestProviderClient_Execute_UpstreamErrorIsWrapped(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	}))
	defer upstream.Close()

	cfg := config.ProviderConfig{Name: "anthropic-direct", Type: config.KindAnthropic, BaseURL: upstream.URL, APIKey: "sk-ant-test"}
	pc, err := NewProviderClient(cfg, transformers.NewLoader(nil), nil)
	require.NoError(t, err)

	req := exchange.NewRequest(exchange.ChannelClaude, exchange.OperationMessages,
		map[string]any{"model": "claude-sonnet-4", "max_tokens": float64(100)}, nil)

	_, err = pc.Execute(req, "messages")
	require.Error(t, err)

	var exErr *exchange.Error
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, http.StatusTooManyRequests, exErr.Status)
	assert.Equal(t, "rate limited", exErr.Message)
}

func TestProviderClient_Execute_UnsupportedOperationErrors(t *testing.T) {
	cfg := config.ProviderConfig{Name: "gemini-direct", Type: config.KindGemini, BaseURL: "https://generativelanguage.googleapis.com", APIKey: "key-1"}
	pc, err := NewProviderClient(cfg, transformers.NewLoader(nil), nil)
	require.NoError(t, err)

	req := exchange.NewRequest(exchange.ChannelClaude, exchange.OperationMessages, map[string]any{}, nil)

	_, err = pc.Execute(req, "not-a-real-operation")
	assert.Error(t, err)
}

func TestProviderClient_Execute_RunsOpenAIChatTransformersRoundTrip(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		messages := body["messages"].([]any)
		first := messages[0].(map[string]any)
		assert.Equal(t, "system", first["role"])
		assert.NotContains(t, body, "max_tokens")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1",
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": "hello"},
				},
			},
		})
	}))
	defer upstream.Close()

	cfg := config.ProviderConfig{Name: "openai-direct", Type: config.KindOpenAI, BaseURL: upstream.URL, APIKey: "sk-test"}
	pc, err := NewProviderClient(cfg, transformers.NewLoader(nil), nil)
	require.NoError(t, err)

	req := exchange.NewRequest(exchange.ChannelClaude, exchange.OperationMessages,
		map[string]any{"model": "gpt-4o", "max_tokens": float64(256), "system": "be nice", "messages": []any{
			map[string]any{"role": "user", "content": "hi"},
		}}, nil)

	resp, err := pc.Execute(req, "messages")
	require.NoError(t, err)

	content := resp.Body["content"].([]any)
	require.Len(t, content, 1)
	assert.Equal(t, "hello", content[0].(map[string]any)["text"])
}
