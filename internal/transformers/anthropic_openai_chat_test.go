package transformers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicToOpenAIChatRequest_SystemAndMaxTokens(t *testing.T) {
	payload := map[string]any{
		"system":     "be concise",
		"max_tokens": float64(1024),
		"messages": []any{
			map[string]any{"role": "user", "content": "hello"},
		},
	}

	out, _, err := anthropicToOpenAIChatRequest(payload, nil, nil)
	require.NoError(t, err)

	messages, ok := out["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)

	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "be concise", first["content"])

	assert.Equal(t, float64(1024), out["max_completion_tokens"])
	_, hasMaxTokens := out["max_tokens"]
	assert.False(t, hasMaxTokens)
}

func TestAnthropicToOpenAIChatRequest_ToolResultBecomesToolMessage(t *testing.T) {
	payload := map[string]any{
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "tool_result", "tool_use_id": "toolu_abc", "content": "42"},
				},
			},
		},
	}

	out, _, err := anthropicToOpenAIChatRequest(payload, nil, nil)
	require.NoError(t, err)

	messages := out["messages"].([]any)
	require.Len(t, messages, 1)

	toolMsg := messages[0].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_abc", toolMsg["tool_call_id"])
	assert.Equal(t, "42", toolMsg["content"])
}

func TestAnthropicToOpenAIChatRequest_DropsThinking(t *testing.T) {
	payload := map[string]any{
		"thinking": map[string]any{"budget_tokens": float64(2000)},
		"messages": []any{},
	}

	out, _, err := anthropicToOpenAIChatRequest(payload, nil, nil)
	require.NoError(t, err)

	_, has := out["thinking"]
	assert.False(t, has)
}

func TestOpenAIChatToAnthropicResponse_TextContent(t *testing.T) {
	body := map[string]any{
		"id":    "chatcmpl-1",
		"model": "gpt-4o",
		"choices": []any{
			map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "hi there"},
			},
		},
		"usage": map[string]any{"prompt_tokens": float64(10), "completion_tokens": float64(5)},
	}

	out, err := openAIChatToAnthropicResponse(body, nil)
	require.NoError(t, err)

	assert.Equal(t, "message", out["type"])
	content := out["content"].([]any)
	require.Len(t, content, 1)
	assert.Equal(t, "hi there", content[0].(map[string]any)["text"])
	assert.Equal(t, "end_turn", *out["stop_reason"].(*string))

	usage := out["usage"].(map[string]any)
	assert.Equal(t, float64(10), usage["input_tokens"])
	assert.Equal(t, float64(5), usage["output_tokens"])
}

func TestOpenAIChatToAnthropicResponse_ToolCallIDRewrite(t *testing.T) {
	body := map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []any{
						map[string]any{
							"id":       "call_123",
							"function": map[string]any{"name": "get_weather", "arguments": `{"city":"nyc"}`},
						},
					},
				},
			},
		},
	}

	out, err := openAIChatToAnthropicResponse(body, nil)
	require.NoError(t, err)

	content := out["content"].([]any)
	require.Len(t, content, 1)
	block := content[0].(map[string]any)
	assert.Equal(t, "toolu_123", block["id"])
	assert.Equal(t, "tool_use", block["type"])
}

func TestOpenAIChatToAnthropicResponse_ErrorPassthrough(t *testing.T) {
	body := map[string]any{
		"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
	}

	out, err := openAIChatToAnthropicResponse(body, nil)
	require.NoError(t, err)
	assert.Equal(t, "error", out["type"])
}

func TestOpenAIChatToAnthropicTokenCount(t *testing.T) {
	body := map[string]any{"usage": map[string]any{"prompt_tokens": float64(42)}}

	out, err := openAIChatToAnthropicTokenCount(body, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, out["input_tokens"])
}
