package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/exchange"
)

func testUserConfig() *config.UserConfig {
	return &config.UserConfig{
		Providers: []config.ProviderConfig{
			{Name: "anthropic-direct", Type: config.KindAnthropic, BaseURL: "https://api.anthropic.com"},
			{Name: "openai-direct", Type: config.KindOpenAI, BaseURL: "https://api.openai.com"},
		},
		Models: []config.ModelAlias{
			{Alias: "default", ID: "claude-sonnet-4", Provider: "anthropic-direct"},
			{Alias: "fast", ID: "gpt-4o-mini", Provider: "openai-direct"},
			{Alias: "background-model", ID: "gpt-4o-mini", Provider: "openai-direct"},
		},
		Routing: config.RoutingTable{
			Default:    "default",
			Background: "background-model",
		},
	}
}

func TestRoute_ExplicitOverrideBypassesClassification(t *testing.T) {
	r := New(testUserConfig())

	req := exchange.NewRequest(exchange.ChannelClaude, exchange.OperationMessages,
		map[string]any{"model": "fast!", "max_tokens": float64(100)}, nil)

	result, err := r.Route(req)
	require.NoError(t, err)
	assert.Equal(t, "fast", result.Alias)
	assert.Equal(t, "override", result.RoutingKey)
	assert.Equal(t, "openai-direct", result.ProviderID)
	assert.Equal(t, "gpt-4o-mini", result.ResolvedModelID)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, "gpt-4o-mini", req.Payload["model"])
}

func TestRoute_AgentDirectiveOverridesClassification(t *testing.T) {
	r := New(testUserConfig())

	req := exchange.NewRequest(exchange.ChannelClaude, exchange.OperationMessages,
		map[string]any{
			"model":      "default",
			"max_tokens": float64(4096),
			"messages": []any{
				map[string]any{"role": "user", "content": "/model fast\nwhat's the weather"},
			},
		}, nil)

	result, err := r.Route(req)
	require.NoError(t, err)
	assert.Equal(t, "fast", result.Alias)
	assert.Equal(t, "override", result.RoutingKey)

	forwarded := req.Payload["messages"].([]any)[0].(map[string]any)["content"]
	assert.Equal(t, "what's the weather", forwarded)
	assert.NotContains(t, forwarded, "/model")
}

func TestRoute_ClassifiesToBackground(t *testing.T) {
	r := New(testUserConfig())

	req := exchange.NewRequest(exchange.ChannelClaude, exchange.OperationMessages,
		map[string]any{"model": "default", "max_tokens": float64(200)}, nil)

	result, err := r.Route(req)
	require.NoError(t, err)
	assert.Equal(t, "background", result.RoutingKey)
	assert.Equal(t, "background-model", result.Alias)
}

func TestRoute_UnknownOverrideAliasIsModelNotFound(t *testing.T) {
	r := New(testUserConfig())

	req := exchange.NewRequest(exchange.ChannelClaude, exchange.OperationMessages,
		map[string]any{"model": "unknown-model!", "max_tokens": float64(4096)}, nil)

	_, err := r.Route(req)
	var apiErr *exchange.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, exchange.ErrorModelNotFound, apiErr.Type)
	assert.Equal(t, 400, apiErr.Status)
}

func TestRoute_CodexChannelUsesModelAsAliasDirectly(t *testing.T) {
	r := New(testUserConfig())

	req := exchange.NewRequest(exchange.ChannelCodex, exchange.OperationResponses,
		map[string]any{"model": "fast"}, nil)

	result, err := r.Route(req)
	require.NoError(t, err)
	assert.Equal(t, "openai-direct", result.ProviderID)
	assert.Equal(t, "gpt-4o-mini", result.ResolvedModelID)
}

func TestRoute_CodexChannelUnknownAliasIsAnError(t *testing.T) {
	r := New(testUserConfig())

	req := exchange.NewRequest(exchange.ChannelCodex, exchange.OperationResponses,
		map[string]any{"model": "does-not-exist"}, nil)

	_, err := r.Route(req)
	require.Error(t, err)

	var exErr *exchange.Error
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, 400, exErr.Status)
}
