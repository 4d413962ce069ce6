package transformers

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

func init() {
	register("web_search.AnthropicToOpenAI", func(params map[string]any) (any, error) {
		return RequestFunc(anthropicWebSearchToOpenAI), nil
	})
	register("web_search.StashAnnotations", func(params map[string]any) (any, error) {
		return ResponseFunc(stashWebSearchAnnotations), nil
	})
	register("web_search.CitationsFromAnnotations", func(params map[string]any) (any, error) {
		return ResponseFunc(appendWebSearchCitations), nil
	})
}

const searchPreviewSuffix = "-search-preview"

// searchCapableModels maps a base chat model to the search-capable
// variant OpenAI expects web_search_options to be paired with. A model
// not listed here falls back to appending searchPreviewSuffix.
var searchCapableModels = map[string]string{
	"gpt-4o":      "gpt-4o" + searchPreviewSuffix,
	"gpt-4o-mini": "gpt-4o-mini" + searchPreviewSuffix,
}

// anthropicWebSearchToOpenAI removes an Anthropic web_search tool
// definition and, if one was present, translates its configuration into
// OpenAI's web_search_options request parameter -- domain filters and
// user-location carry over -- and upgrades the upstream model to a
// search-capable variant when it doesn't already have one.
func anthropicWebSearchToOpenAI(payload map[string]any, headers http.Header, metadata map[string]any) (map[string]any, http.Header, error) {
	tools, ok := payload["tools"].([]any)
	if !ok {
		return payload, headers, nil
	}

	kept := make([]any, 0, len(tools))
	var searchTool map[string]any

	for _, t := range tools {
		toolMap, ok := t.(map[string]any)
		if !ok {
			kept = append(kept, t)
			continue
		}
		toolType, _ := toolMap["type"].(string)
		if toolType == "web_search" || hasPrefix(toolType, "web_search_") {
			searchTool = toolMap
			continue
		}
		kept = append(kept, t)
	}

	if searchTool == nil {
		return payload, headers, nil
	}

	options, err := webSearchOptions(searchTool)
	if err != nil {
		return nil, headers, err
	}

	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	out["tools"] = kept
	out["web_search_options"] = options

	if model, _ := out["model"].(string); model != "" {
		out["model"] = searchCapableModel(model)
	}

	return out, headers, nil
}

// webSearchOptions builds an OpenAI web_search_options object from an
// Anthropic web_search tool definition, carrying domain filters and
// user-location through and defaulting search_context_size to "medium".
func webSearchOptions(tool map[string]any) (map[string]any, error) {
	allowed := domainList(tool["allowed_domains"])
	blocked := domainList(tool["blocked_domains"])

	if len(allowed) > 0 && len(blocked) > 0 {
		return nil, fmt.Errorf("web_search: cannot use both allowed_domains and blocked_domains")
	}

	filters := map[string]any{}
	if len(allowed) > 0 {
		filters["allowed_domains"] = allowed
	}
	if len(blocked) > 0 {
		filters["blocked_domains"] = blocked
	}

	options := map[string]any{
		"filters":             filters,
		"search_context_size": "medium",
	}

	if location, ok := tool["user_location"].(map[string]any); ok {
		options["user_location"] = convertUserLocation(location)
	}

	return options, nil
}

func domainList(v any) []any {
	domains, _ := v.([]any)
	return domains
}

// convertUserLocation maps Anthropic's flat user_location object to
// OpenAI's approximate-location shape.
func convertUserLocation(location map[string]any) map[string]any {
	approximate := map[string]any{}
	for _, field := range []string{"country", "city", "region", "timezone"} {
		if v, ok := location[field]; ok {
			approximate[field] = v
		}
	}
	return map[string]any{"type": "approximate", "approximate": approximate}
}

// searchCapableModel returns the search-capable variant of model, or
// model unchanged if it already is one.
func searchCapableModel(model string) string {
	if strings.HasSuffix(model, searchPreviewSuffix) {
		return model
	}
	if variant, ok := searchCapableModels[model]; ok {
		return variant
	}
	return model + searchPreviewSuffix
}

// stashWebSearchAnnotations records the raw OpenAI response's
// url_citation annotations and the assistant message text they refer to
// onto the exchange metadata, before the main response transformer
// discards the raw OpenAI shape in favor of Anthropic's.
// web_search.CitationsFromAnnotations reads them back out once the
// response has been converted, so it must run as a PostResponse step
// after the main provider response transformer while this one runs as
// PreResponse.
func stashWebSearchAnnotations(body map[string]any, metadata map[string]any) (map[string]any, error) {
	annotations, ok := body["annotations"].([]any)
	if !ok || len(annotations) == 0 || metadata == nil {
		return body, nil
	}

	content := ""
	if choices, ok := body["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				content, _ = message["content"].(string)
			}
		}
	}

	metadata["web_search_annotations"] = annotations
	metadata["web_search_content"] = content

	return body, nil
}

// appendWebSearchCitations converts OpenAI url_citation annotations
// stashed by web_search.StashAnnotations into Anthropic
// web_search_tool_result blocks and appends them to the response's
// already-converted content array.
func appendWebSearchCitations(body map[string]any, metadata map[string]any) (map[string]any, error) {
	if metadata == nil {
		return body, nil
	}

	annotations, ok := metadata["web_search_annotations"].([]any)
	if !ok || len(annotations) == 0 {
		return body, nil
	}

	content, _ := metadata["web_search_content"].(string)

	results := make([]any, 0, len(annotations))
	for _, a := range annotations {
		annMap, ok := a.(map[string]any)
		if !ok || annMap["type"] != "url_citation" {
			continue
		}
		citation, _ := annMap["url_citation"].(map[string]any)
		if result := webSearchResultBlock(citation, content); result != nil {
			results = append(results, result)
		}
	}

	if len(results) == 0 {
		return body, nil
	}

	blocks, _ := body["content"].([]any)
	body["content"] = append(blocks, results...)

	return body, nil
}

func webSearchResultBlock(citation map[string]any, content string) map[string]any {
	url, _ := citation["url"].(string)
	if url == "" {
		return nil
	}

	title, _ := citation["title"].(string)
	if title == "" {
		title = "Untitled"
	}

	sum := md5.Sum([]byte(url))

	return map[string]any{
		"type": "web_search_tool_result",
		"id":   "search_" + hex.EncodeToString(sum[:])[:8],
		"content": map[string]any{
			"type":    "web_search_result",
			"url":     url,
			"title":   title,
			"snippet": extractSnippet(content, citation["start_index"], citation["end_index"]),
		},
	}
}

// extractSnippet slices content by the OpenAI citation's character
// indices, returning "" when they are missing or out of range rather
// than panicking on a malformed annotation.
func extractSnippet(content string, start, end any) string {
	startIdx, ok1 := toInt(start)
	endIdx, ok2 := toInt(end)
	if !ok1 || !ok2 || startIdx < 0 || endIdx > len(content) || startIdx > endIdx {
		return ""
	}
	return content[startIdx:endIdx]
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
