package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_BuiltinToolsTakesPrecedence(t *testing.T) {
	payload := map[string]any{
		"tools": []any{
			map[string]any{"type": "web_search_20241022"},
		},
		"thinking": map[string]any{"budget_tokens": float64(5000)},
	}

	assert.Equal(t, KeyBuiltinTools, Classify(payload))
}

func TestClassify_PlanAndThink(t *testing.T) {
	payload := map[string]any{
		"thinking": map[string]any{"budget_tokens": float64(1000)},
		"messages": []any{
			map[string]any{"role": "user", "content": planModeSentinel + "\ngo plan this"},
		},
	}

	assert.Equal(t, KeyPlanAndThink, Classify(payload))
}

func TestClassify_ThinkingOnly(t *testing.T) {
	payload := map[string]any{
		"thinking": map[string]any{"budget_tokens": float64(2000)},
	}
	assert.Equal(t, KeyThinking, Classify(payload))
}

func TestClassify_PlanningOnly(t *testing.T) {
	payload := map[string]any{
		"messages": []any{
			map[string]any{"role": "user", "content": planModeSentinel},
		},
	}
	assert.Equal(t, KeyPlanning, Classify(payload))
}

func TestClassify_BackgroundBelowThreshold(t *testing.T) {
	payload := map[string]any{"max_tokens": float64(500)}
	assert.Equal(t, KeyBackground, Classify(payload))
}

func TestClassify_BackgroundThresholdIsExclusive(t *testing.T) {
	payload := map[string]any{"max_tokens": float64(768)}
	assert.Equal(t, KeyDefault, Classify(payload))
}

func TestClassify_DefaultFallback(t *testing.T) {
	assert.Equal(t, KeyDefault, Classify(map[string]any{"max_tokens": float64(4096)}))
}

func TestExplicitOverride(t *testing.T) {
	alias, ok := ExplicitOverride("sonnet!")
	assert.True(t, ok)
	assert.Equal(t, "sonnet", alias)

	_, ok = ExplicitOverride("sonnet")
	assert.False(t, ok)
}

func TestAgentDirective_StringContent(t *testing.T) {
	payload := map[string]any{
		"messages": []any{
			map[string]any{"role": "user", "content": "/model fast-model\nrest of prompt"},
		},
	}
	alias, ok := AgentDirective(payload)
	assert.True(t, ok)
	assert.Equal(t, "fast-model", alias)
	assert.Equal(t, "rest of prompt", payload["messages"].([]any)[0].(map[string]any)["content"])
}

func TestAgentDirective_BlockContent(t *testing.T) {
	payload := map[string]any{
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": "/model background-model\nmore text"},
				},
			},
		},
	}
	alias, ok := AgentDirective(payload)
	assert.True(t, ok)
	assert.Equal(t, "background-model", alias)

	block := payload["messages"].([]any)[0].(map[string]any)["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "more text", block["text"])
}

func TestAgentDirective_IgnoresNonFirstUserMessage(t *testing.T) {
	payload := map[string]any{
		"messages": []any{
			map[string]any{"role": "user", "content": "no directive here"},
			map[string]any{"role": "assistant", "content": "ok"},
			map[string]any{"role": "user", "content": "/model fast-model\nmore"},
		},
	}
	_, ok := AgentDirective(payload)
	assert.False(t, ok)
}

func TestAgentDirective_NoDirective(t *testing.T) {
	payload := map[string]any{
		"messages": []any{
			map[string]any{"role": "user", "content": "just a regular prompt"},
		},
	}
	_, ok := AgentDirective(payload)
	assert.False(t, ok)
}

func TestAgentDirective_MissingMessages(t *testing.T) {
	_, ok := AgentDirective(map[string]any{})
	assert.False(t, ok)
}
