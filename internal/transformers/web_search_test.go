package transformers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicWebSearchToOpenAI_ReplacesToolWithSearchOptions(t *testing.T) {
	payload := map[string]any{
		"tools": []any{
			map[string]any{"type": "web_search_20241022"},
			map[string]any{"name": "calculator"},
		},
	}

	out, _, err := anthropicWebSearchToOpenAI(payload, nil, nil)
	require.NoError(t, err)

	tools := out["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "calculator", tools[0].(map[string]any)["name"])
	assert.NotNil(t, out["web_search_options"])
}

func TestAnthropicWebSearchToOpenAI_NoWebSearchToolIsANoop(t *testing.T) {
	payload := map[string]any{
		"tools": []any{map[string]any{"name": "calculator"}},
	}

	out, _, err := anthropicWebSearchToOpenAI(payload, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, payload["tools"], out["tools"])
	_, hasOptions := out["web_search_options"]
	assert.False(t, hasOptions)
}

func TestAnthropicWebSearchToOpenAI_NoToolsFieldIsANoop(t *testing.T) {
	payload := map[string]any{"model": "gpt-4o"}

	out, _, err := anthropicWebSearchToOpenAI(payload, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestAnthropicWebSearchToOpenAI_CarriesAllowedDomainsIntoFilters(t *testing.T) {
	payload := map[string]any{
		"model": "gpt-4o",
		"tools": []any{
			map[string]any{"type": "web_search_20241022", "allowed_domains": []any{"example.com", "docs.example.com"}},
		},
	}

	out, _, err := anthropicWebSearchToOpenAI(payload, nil, nil)
	require.NoError(t, err)

	options := out["web_search_options"].(map[string]any)
	filters := options["filters"].(map[string]any)
	assert.Equal(t, []any{"example.com", "docs.example.com"}, filters["allowed_domains"])
	_, hasBlocked := filters["blocked_domains"]
	assert.False(t, hasBlocked)
	assert.Equal(t, "medium", options["search_context_size"])
}

func TestAnthropicWebSearchToOpenAI_CarriesBlockedDomainsIntoFilters(t *testing.T) {
	payload := map[string]any{
		"tools": []any{
			map[string]any{"type": "web_search_20241022", "blocked_domains": []any{"spam.example"}},
		},
	}

	out, _, err := anthropicWebSearchToOpenAI(payload, nil, nil)
	require.NoError(t, err)

	options := out["web_search_options"].(map[string]any)
	filters := options["filters"].(map[string]any)
	assert.Equal(t, []any{"spam.example"}, filters["blocked_domains"])
}

func TestAnthropicWebSearchToOpenAI_BothAllowedAndBlockedDomainsIsAnError(t *testing.T) {
	payload := map[string]any{
		"tools": []any{
			map[string]any{
				"type":            "web_search_20241022",
				"allowed_domains": []any{"example.com"},
				"blocked_domains": []any{"spam.example"},
			},
		},
	}

	_, _, err := anthropicWebSearchToOpenAI(payload, nil, nil)
	assert.Error(t, err)
}

func TestAnthropicWebSearchToOpenAI_CarriesUserLocation(t *testing.T) {
	payload := map[string]any{
		"tools": []any{
			map[string]any{
				"type": "web_search_20241022",
				"user_location": map[string]any{
					"type":    "approximate",
					"city":    "Bucharest",
					"country": "RO",
				},
			},
		},
	}

	out, _, err := anthropicWebSearchToOpenAI(payload, nil, nil)
	require.NoError(t, err)

	options := out["web_search_options"].(map[string]any)
	location := options["user_location"].(map[string]any)
	assert.Equal(t, "approximate", location["type"])
	approximate := location["approximate"].(map[string]any)
	assert.Equal(t, "Bucharest", approximate["city"])
	assert.Equal(t, "RO", approximate["country"])
}

func TestAnthropicWebSearchToOpenAI_UpgradesModelToSearchCapableVariant(t *testing.T) {
	payload := map[string]any{
		"model": "gpt-4o-mini",
		"tools": []any{map[string]any{"type": "web_search_20241022"}},
	}

	out, _, err := anthropicWebSearchToOpenAI(payload, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini-search-preview", out["model"])
}

func TestAnthropicWebSearchToOpenAI_ModelAlreadySearchCapableIsUnchanged(t *testing.T) {
	payload := map[string]any{
		"model": "gpt-4o-search-preview",
		"tools": []any{map[string]any{"type": "web_search_20241022"}},
	}

	out, _, err := anthropicWebSearchToOpenAI(payload, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-search-preview", out["model"])
}

func TestStashWebSearchAnnotations_RecordsAnnotationsAndMessageContent(t *testing.T) {
	body := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": "See https://example.com for details."}},
		},
		"annotations": []any{
			map[string]any{"type": "url_citation", "url_citation": map[string]any{"url": "https://example.com", "title": "Example"}},
		},
	}
	metadata := map[string]any{}

	out, err := stashWebSearchAnnotations(body, metadata)
	require.NoError(t, err)
	assert.Equal(t, body, out)
	assert.Equal(t, body["annotations"], metadata["web_search_annotations"])
	assert.Equal(t, "See https://example.com for details.", metadata["web_search_content"])
}

func TestStashWebSearchAnnotations_NoAnnotationsIsANoop(t *testing.T) {
	body := map[string]any{"choices": []any{}}
	metadata := map[string]any{}

	_, err := stashWebSearchAnnotations(body, metadata)
	require.NoError(t, err)
	assert.Empty(t, metadata)
}

func TestAppendWebSearchCitations_AppendsResultBlockFromStashedAnnotations(t *testing.T) {
	body := map[string]any{
		"content": []any{map[string]any{"type": "text", "text": "See https://example.com for details."}},
	}
	metadata := map[string]any{
		"web_search_content": "See https://example.com for details.",
		"web_search_annotations": []any{
			map[string]any{
				"type": "url_citation",
				"url_citation": map[string]any{
					"url":         "https://example.com",
					"title":       "Example",
					"start_index": float64(4),
					"end_index":   float64(23),
				},
			},
		},
	}

	out, err := appendWebSearchCitations(body, metadata)
	require.NoError(t, err)

	content := out["content"].([]any)
	require.Len(t, content, 2)

	result := content[1].(map[string]any)
	assert.Equal(t, "web_search_tool_result", result["type"])
	resultContent := result["content"].(map[string]any)
	assert.Equal(t, "https://example.com", resultContent["url"])
	assert.Equal(t, "Example", resultContent["title"])
	assert.Equal(t, "https://example.com", resultContent["snippet"])
}

func TestAppendWebSearchCitations_NoStashedAnnotationsIsANoop(t *testing.T) {
	body := map[string]any{"content": []any{map[string]any{"type": "text", "text": "hi"}}}

	out, err := appendWebSearchCitations(body, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, body, out)
}

func TestAppendWebSearchCitations_MissingURLIsSkipped(t *testing.T) {
	body := map[string]any{"content": []any{}}
	metadata := map[string]any{
		"web_search_annotations": []any{
			map[string]any{"type": "url_citation", "url_citation": map[string]any{"title": "No URL"}},
		},
	}

	out, err := appendWebSearchCitations(body, metadata)
	require.NoError(t, err)
	assert.Empty(t, out["content"].([]any))
}
