package transformers

import (
	"net/http"

	"github.com/mihaisavezi/llmgateway/internal/providers"
)

// InjectAuth sets the credential header/query convention for a provider
// kind directly on the outgoing request headers. It is called from
// internal/client rather than registered as a loadable transformer,
// since the API key comes from ProviderConfig, not a TransformerRef
// params block, and must never be logged or dumped alongside the rest
// of the transformer pipeline.
func InjectAuth(style providers.AuthStyle, apiKey string, headers http.Header) {
	switch style {
	case providers.AuthHeaderXAPIKey:
		headers.Set("x-api-key", apiKey)
		headers.Set("anthropic-version", "2023-06-01")
	case providers.AuthHeaderBearer:
		headers.Set("Authorization", "Bearer "+apiKey)
	case providers.AuthQueryParamKey:
		// Gemini's key= query param is appended to the URL by
		// internal/client when it builds the request, not here.
	}
}
