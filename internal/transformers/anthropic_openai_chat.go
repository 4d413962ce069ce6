package transformers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

func init() {
	register("anthropic_to_openai_chat.Request", func(params map[string]any) (any, error) {
		return RequestFunc(anthropicToOpenAIChatRequest), nil
	})
	register("anthropic_to_openai_chat.Response", func(params map[string]any) (any, error) {
		return ResponseFunc(openAIChatToAnthropicResponse), nil
	})
	register("anthropic_to_openai_chat.TokenCountResponse", func(params map[string]any) (any, error) {
		return ResponseFunc(openAIChatToAnthropicTokenCount), nil
	})
}

// anthropicToOpenAIChatRequest rewrites an Anthropic Messages payload
// into an OpenAI Chat Completions payload: system becomes a leading
// system message, max_tokens becomes max_completion_tokens, tool_use
// content blocks become tool_calls, and tools drop input_schema in
// favor of a function.parameters wrapper.
func anthropicToOpenAIChatRequest(payload map[string]any, headers http.Header, metadata map[string]any) (map[string]any, http.Header, error) {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}

	delete(out, "cache_control")

	messages, _ := out["messages"].([]any)
	converted := make([]any, 0, len(messages)+1)

	if system, hasSystem := out["system"]; hasSystem {
		converted = append(converted, map[string]any{
			"role":    "system",
			"content": flattenSystemContent(system),
		})
		delete(out, "system")
	}

	for _, m := range messages {
		msgMap, ok := m.(map[string]any)
		if !ok {
			continue
		}
		converted = append(converted, transformAnthropicMessageToOpenAI(msgMap)...)
	}

	out["messages"] = converted

	if maxTokens, ok := out["max_tokens"]; ok {
		out["max_completion_tokens"] = maxTokens
		delete(out, "max_tokens")
	}

	if tools, ok := out["tools"].([]any); ok {
		openaiTools, err := anthropicToolsToOpenAI(tools)
		if err != nil {
			return nil, headers, fmt.Errorf("transform tools: %w", err)
		}
		if len(openaiTools) == 0 {
			delete(out, "tool_choice")
		} else {
			out["tools"] = openaiTools
		}
	}

	if thinking, ok := out["thinking"]; ok {
		// OpenAI Chat Completions has no thinking-budget concept; drop it
		// rather than let it fail upstream validation.
		_ = thinking
		delete(out, "thinking")
	}

	return out, headers, nil
}

func flattenSystemContent(system any) string {
	switch v := system.(type) {
	case string:
		return v
	case []any:
		var b strings.Builder
		for _, block := range v {
			blockMap, ok := block.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := blockMap["text"].(string); ok {
				if b.Len() > 0 {
					b.WriteString("\n\n")
				}
				b.WriteString(text)
			}
		}
		return b.String()
	default:
		return ""
	}
}

// transformAnthropicMessageToOpenAI can expand one Anthropic message into
// more than one OpenAI message: a user turn carrying tool_result blocks
// becomes one "tool" message per block.
func transformAnthropicMessageToOpenAI(msg map[string]any) []any {
	role, _ := msg["role"].(string)

	content, ok := msg["content"].([]any)
	if !ok {
		// Already a plain string content message; pass through.
		return []any{msg}
	}

	if role == "user" {
		var textParts []any
		var toolMessages []any

		for _, block := range content {
			blockMap, ok := block.(map[string]any)
			if !ok {
				continue
			}
			switch blockMap["type"] {
			case "tool_result":
				toolMessages = append(toolMessages, map[string]any{
					"role":         "tool",
					"tool_call_id": anthropicToolIDToOpenAI(blockMap["tool_use_id"]),
					"content":      stringifyToolResultContent(blockMap["content"]),
				})
			default:
				textParts = append(textParts, block)
			}
		}

		out := make([]any, 0, 1+len(toolMessages))
		if len(textParts) > 0 {
			out = append(out, map[string]any{"role": "user", "content": textParts})
		}
		out = append(out, toolMessages...)

		return out
	}

	// assistant message: fold text + tool_use blocks into content/tool_calls
	var text strings.Builder
	var toolCalls []any

	for _, block := range content {
		blockMap, ok := block.(map[string]any)
		if !ok {
			continue
		}
		switch blockMap["type"] {
		case "text":
			if s, ok := blockMap["text"].(string); ok {
				text.WriteString(s)
			}
		case "tool_use":
			id, _ := blockMap["id"].(string)
			name, _ := blockMap["name"].(string)
			argsBytes, _ := json.Marshal(blockMap["input"])
			toolCalls = append(toolCalls, map[string]any{
				"id":   strings.Replace(id, "toolu_", "call_", 1),
				"type": "function",
				"function": map[string]any{
					"name":      name,
					"arguments": string(argsBytes),
				},
			})
		}
	}

	converted := map[string]any{"role": "assistant", "content": text.String()}
	if len(toolCalls) > 0 {
		converted["tool_calls"] = toolCalls
	}

	return []any{converted}
}

func anthropicToolIDToOpenAI(v any) string {
	s, _ := v.(string)
	return strings.Replace(s, "toolu_", "call_", 1)
}

func stringifyToolResultContent(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func anthropicToolsToOpenAI(tools []any) ([]any, error) {
	out := make([]any, 0, len(tools))

	for _, t := range tools {
		toolMap, ok := t.(map[string]any)
		if !ok {
			continue
		}

		name, hasName := toolMap["name"].(string)
		if !hasName {
			continue
		}

		fn := map[string]any{"name": name}
		if desc, ok := toolMap["description"].(string); ok {
			fn["description"] = desc
		}
		if schema, ok := toolMap["input_schema"]; ok {
			fn["parameters"] = schema
		}

		out = append(out, map[string]any{
			"type":     "function",
			"function": fn,
		})
	}

	return out, nil
}

// openAIChatToAnthropicResponse converts a materialized OpenAI Chat
// Completions response into an Anthropic Messages response document.
func openAIChatToAnthropicResponse(body map[string]any, metadata map[string]any) (map[string]any, error) {
	if errObj, ok := body["error"].(map[string]any); ok {
		msg, _ := errObj["message"].(string)
		return map[string]any{
			"type": "error",
			"error": map[string]any{
				"type":    mapOpenAIErrorType(fmt.Sprintf("%v", errObj["type"])),
				"message": msg,
			},
		}, nil
	}

	choices, _ := body["choices"].([]any)
	if len(choices) == 0 {
		return nil, fmt.Errorf("openai chat response has no choices")
	}

	choice, _ := choices[0].(map[string]any)
	message, _ := choice["message"].(map[string]any)
	if message == nil {
		return nil, fmt.Errorf("openai chat response choice has no message")
	}

	content := make([]any, 0, 2)

	if text, ok := message["content"].(string); ok && text != "" {
		content = append(content, map[string]any{"type": "text", "text": text})
	}

	if toolCalls, ok := message["tool_calls"].([]any); ok {
		for _, tc := range toolCalls {
			tcMap, ok := tc.(map[string]any)
			if !ok {
				continue
			}
			fn, _ := tcMap["function"].(map[string]any)
			var input map[string]any
			if argsStr, ok := fn["arguments"].(string); ok && argsStr != "" {
				_ = json.Unmarshal([]byte(argsStr), &input)
			}
			id, _ := tcMap["id"].(string)
			content = append(content, map[string]any{
				"type":  "tool_use",
				"id":    strings.Replace(id, "call_", "toolu_", 1),
				"name":  fn["name"],
				"input": input,
			})
		}
	}

	if len(content) == 0 {
		content = append(content, map[string]any{"type": "text", "text": ""})
	}

	var stopReason *string
	if fr, ok := choice["finish_reason"].(string); ok {
		stopReason = convertOpenAIFinishReason(fr)
	}

	resp := map[string]any{
		"id":          body["id"],
		"type":        "message",
		"role":        "assistant",
		"model":       body["model"],
		"content":     content,
		"stop_reason": stopReason,
	}

	if usage, ok := body["usage"].(map[string]any); ok {
		resp["usage"] = mapOpenAIUsageToAnthropic(usage)
	}

	return resp, nil
}

// openAIChatToAnthropicTokenCount adapts a Chat Completions response (or
// its usage block) into the {"input_tokens": N} shape expected by
// /claude/v1/messages/count_tokens. Providers with no native
// count_tokens endpoint are dispatched through a normal chat completion
// with max_tokens=1 upstream and only the input token count survives.
func openAIChatToAnthropicTokenCount(body map[string]any, metadata map[string]any) (map[string]any, error) {
	usage, _ := body["usage"].(map[string]any)
	inputTokens := 0
	if v, ok := usage["prompt_tokens"]; ok {
		if f, ok := v.(float64); ok {
			inputTokens = int(f)
		}
	}
	return map[string]any{"input_tokens": inputTokens}, nil
}

func mapOpenAIUsageToAnthropic(usage map[string]any) map[string]any {
	out := map[string]any{}
	if v, ok := usage["prompt_tokens"]; ok {
		out["input_tokens"] = v
	}
	if v, ok := usage["completion_tokens"]; ok {
		out["output_tokens"] = v
	}
	if details, ok := usage["prompt_tokens_details"].(map[string]any); ok {
		if cached, ok := details["cached_tokens"]; ok {
			out["cache_read_input_tokens"] = cached
		}
	}
	return out
}

func convertOpenAIFinishReason(reason string) *string {
	mapping := map[string]string{
		"stop":           "end_turn",
		"length":         "max_tokens",
		"tool_calls":     "tool_use",
		"function_call":  "tool_use",
		"content_filter": "stop_sequence",
	}
	mapped, ok := mapping[reason]
	if !ok {
		mapped = "end_turn"
	}
	return &mapped
}

func mapOpenAIErrorType(openaiType string) string {
	mapping := map[string]string{
		"invalid_request_error": "invalid_request_error",
		"authentication_error":  "authentication_error",
		"permission_error":      "permission_error",
		"not_found_error":       "not_found_error",
		"rate_limit_error":      "rate_limit_error",
		"insufficient_quota":    "rate_limit_error",
	}
	if mapped, ok := mapping[openaiType]; ok {
		return mapped
	}
	return "api_error"
}
