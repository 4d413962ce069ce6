package transformers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mihaisavezi/llmgateway/internal/providers"
)

func TestInjectAuth_XAPIKeyStyle(t *testing.T) {
	headers := http.Header{}
	InjectAuth(providers.AuthHeaderXAPIKey, "sk-ant-test", headers)

	assert.Equal(t, "sk-ant-test", headers.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", headers.Get("anthropic-version"))
}

func TestInjectAuth_BearerStyle(t *testing.T) {
	headers := http.Header{}
	InjectAuth(providers.AuthHeaderBearer, "sk-test", headers)

	assert.Equal(t, "Bearer sk-test", headers.Get("Authorization"))
}

func TestInjectAuth_QueryParamStyleSetsNoHeaders(t *testing.T) {
	headers := http.Header{}
	InjectAuth(providers.AuthQueryParamKey, "key-123", headers)

	assert.Empty(t, headers)
}
