package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihaisavezi/llmgateway/internal/config"
)

func TestLookup_KnownKinds(t *testing.T) {
	for _, kind := range []config.ProviderKind{
		config.KindAnthropic,
		config.KindOpenAI,
		config.KindOpenAIResponses,
		config.KindGemini,
	} {
		desc, ok := Lookup(kind)
		require.True(t, ok, "expected descriptor for kind %s", kind)
		assert.Equal(t, kind, desc.Kind)
		assert.NotEmpty(t, desc.Operations, "kind %s should declare at least one operation", kind)
	}
}

func TestLookup_UnknownKind(t *testing.T) {
	_, ok := Lookup(config.ProviderKind("bogus"))
	assert.False(t, ok)
}

func TestOperationFor_Anthropic(t *testing.T) {
	op, ok := OperationFor(config.KindAnthropic, "messages")
	require.True(t, ok)
	assert.Equal(t, "/v1/messages", op.Suffix)
	assert.Empty(t, op.RequestTransformers, "anthropic-to-anthropic passthrough needs no transformers")
}

func TestOperationFor_OpenAIUsesChatTransformers(t *testing.T) {
	op, ok := OperationFor(config.KindOpenAI, "messages")
	require.True(t, ok)
	assert.Equal(t, "/chat/completions", op.Suffix)
	assert.Contains(t, op.RequestTransformers, "anthropic_to_openai_chat.Request")
	assert.Contains(t, op.ResponseTransformers, "anthropic_to_openai_chat.Response")
}

func TestOperationFor_GeminiCountTokens(t *testing.T) {
	op, ok := OperationFor(config.KindGemini, "count_tokens")
	require.True(t, ok)
	assert.Equal(t, ":countTokens", op.Suffix)
	assert.Contains(t, op.ResponseTransformers, "anthropic_to_gemini.TokenCountResponse")
}

func TestOperationFor_UnknownOperation(t *testing.T) {
	_, ok := OperationFor(config.KindAnthropic, "does_not_exist")
	assert.False(t, ok)
}

func TestGeminiAuthStyleIsQueryParam(t *testing.T) {
	desc, ok := Lookup(config.KindGemini)
	require.True(t, ok)
	assert.Equal(t, AuthQueryParamKey, desc.AuthStyle)
}
