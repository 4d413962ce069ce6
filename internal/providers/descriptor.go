// Package providers holds the static, per-kind provider descriptors: URL
// suffixes, default transformer stacks, and capability flags that do not
// vary between user-declared ProviderConfig entries of the same kind. The
// user-declared binding itself (base URL, API key, overrides) lives in
// internal/config.ProviderConfig; a descriptor plus a ProviderConfig
// together are everything internal/client needs to execute a call.
package providers

import "github.com/mihaisavezi/llmgateway/internal/config"

// OperationPath describes where a single upstream operation lives: the
// URL suffix appended to a provider's base_url, and the default
// transformer class names run for that operation absent any
// TransformerOverrides.
type OperationPath struct {
	Suffix             string
	RequestTransformers  []string
	ResponseTransformers []string
	StreamTransformers   []string
}

// Descriptor is the static template for one ProviderKind: which
// operations it supports and what it can do.
type Descriptor struct {
	Kind config.ProviderKind

	Operations map[string]OperationPath

	SupportsTools            bool
	SupportsThinking         bool
	SupportsBuiltinWebSearch bool
	AcceptsSystemAsTopLevel  bool
	AuthStyle                AuthStyle
}

// AuthStyle selects how internal/client injects credentials for a kind.
type AuthStyle string

const (
	AuthHeaderXAPIKey       AuthStyle = "x-api-key"
	AuthHeaderBearer        AuthStyle = "bearer"
	AuthQueryParamKey       AuthStyle = "query-key"
)

var registry = map[config.ProviderKind]Descriptor{
	config.KindAnthropic: {
		Kind: config.KindAnthropic,
		Operations: map[string]OperationPath{
			"messages": {
				Suffix:               "/v1/messages",
				RequestTransformers:  []string{},
				ResponseTransformers: []string{},
				StreamTransformers:   []string{},
			},
			"count_tokens": {
				Suffix:               "/v1/messages/count_tokens",
				RequestTransformers:  []string{},
				ResponseTransformers: []string{},
			},
		},
		SupportsTools:            true,
		SupportsThinking:         true,
		SupportsBuiltinWebSearch: true,
		AcceptsSystemAsTopLevel:  true,
		AuthStyle:                AuthHeaderXAPIKey,
	},
	config.KindOpenAI: {
		Kind: config.KindOpenAI,
		Operations: map[string]OperationPath{
			"messages": {
				Suffix: "/chat/completions",
				RequestTransformers: []string{
					"anthropic_to_openai_chat.Request",
				},
				ResponseTransformers: []string{
					"anthropic_to_openai_chat.Response",
				},
				StreamTransformers: []string{},
			},
			"count_tokens": {
				Suffix: "/chat/completions",
				RequestTransformers: []string{
					"anthropic_to_openai_chat.Request",
				},
				ResponseTransformers: []string{
					"anthropic_to_openai_chat.TokenCountResponse",
				},
			},
		},
		SupportsTools:            true,
		SupportsThinking:         false,
		SupportsBuiltinWebSearch: true,
		AcceptsSystemAsTopLevel:  false,
		AuthStyle:                AuthHeaderBearer,
	},
	config.KindOpenAIResponses: {
		Kind: config.KindOpenAIResponses,
		Operations: map[string]OperationPath{
			"messages": {
				Suffix: "/responses",
				RequestTransformers: []string{
					"anthropic_to_openai_responses.Request",
				},
				ResponseTransformers: []string{
					"anthropic_to_openai_responses.Response",
				},
				StreamTransformers: []string{},
			},
			"responses": {
				Suffix: "/responses",
				RequestTransformers: []string{
					"codex_passthrough.Request",
				},
				ResponseTransformers: []string{
					"codex_passthrough.Response",
				},
				StreamTransformers: []string{},
			},
		},
		SupportsTools:            true,
		SupportsThinking:         true,
		SupportsBuiltinWebSearch: true,
		AcceptsSystemAsTopLevel:  false,
		AuthStyle:                AuthHeaderBearer,
	},
	config.KindGemini: {
		Kind: config.KindGemini,
		Operations: map[string]OperationPath{
			"messages": {
				Suffix: ":generateContent",
				RequestTransformers: []string{
					"anthropic_to_gemini.Request",
				},
				ResponseTransformers: []string{
					"anthropic_to_gemini.Response",
				},
				StreamTransformers: []string{},
			},
			"count_tokens": {
				Suffix: ":countTokens",
				RequestTransformers: []string{
					"anthropic_to_gemini.Request",
				},
				ResponseTransformers: []string{
					"anthropic_to_gemini.TokenCountResponse",
				},
			},
		},
		SupportsTools:            true,
		SupportsThinking:         true,
		SupportsBuiltinWebSearch: false,
		AcceptsSystemAsTopLevel:  false,
		AuthStyle:                AuthQueryParamKey,
	},
}

// Lookup returns the static descriptor for a kind.
func Lookup(kind config.ProviderKind) (Descriptor, bool) {
	d, ok := registry[kind]
	return d, ok
}

// OperationFor returns the OperationPath for a kind+operation pair, or
// false if the kind does not expose that operation (e.g. KindAnthropic
// has no "responses" operation).
func OperationFor(kind config.ProviderKind, operation string) (OperationPath, bool) {
	d, ok := registry[kind]
	if !ok {
		return OperationPath{}, false
	}
	op, ok := d.Operations[operation]
	return op, ok
}
