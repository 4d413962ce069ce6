package tokenest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate_CountsSystemAndMessageText(t *testing.T) {
	payload := map[string]any{
		"system": "you are a helpful assistant",
		"messages": []any{
			map[string]any{"role": "user", "content": "hello there"},
		},
	}

	got := Estimate(payload)
	assert.Greater(t, got, 0)
}

func TestEstimate_EmptyPayload(t *testing.T) {
	assert.Equal(t, 0, Estimate(map[string]any{}))
}

func TestEstimate_HandlesBlockContent(t *testing.T) {
	payload := map[string]any{
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": "explain recursion"},
					map[string]any{"type": "tool_result", "content": "42"},
				},
			},
		},
	}

	assert.Greater(t, Estimate(payload), 0)
}
