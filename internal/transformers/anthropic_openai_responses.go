package transformers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

func init() {
	register("anthropic_to_openai_responses.Request", func(params map[string]any) (any, error) {
		return RequestFunc(anthropicToOpenAIResponsesRequest), nil
	})
	register("anthropic_to_openai_responses.Response", func(params map[string]any) (any, error) {
		return ResponseFunc(openAIResponsesToAnthropicResponse), nil
	})
}

// anthropicToOpenAIResponsesRequest rewrites an Anthropic Messages
// payload into an OpenAI Responses payload: "messages" becomes "input"
// with the same per-block shape as chat, system becomes the top-level
// "instructions" field, and max_tokens becomes max_output_tokens.
func anthropicToOpenAIResponsesRequest(payload map[string]any, headers http.Header, metadata map[string]any) (map[string]any, http.Header, error) {
	out := map[string]any{}

	if system, ok := payload["system"]; ok {
		out["instructions"] = flattenSystemContent(system)
	}

	messages, _ := payload["messages"].([]any)
	input := make([]any, 0, len(messages))
	for _, m := range messages {
		msgMap, ok := m.(map[string]any)
		if !ok {
			continue
		}
		input = append(input, transformAnthropicMessageToOpenAI(msgMap)...)
	}
	out["input"] = input

	if model, ok := payload["model"]; ok {
		out["model"] = model
	}
	if maxTokens, ok := payload["max_tokens"]; ok {
		out["max_output_tokens"] = maxTokens
	}
	if tools, ok := payload["tools"].([]any); ok {
		openaiTools, err := anthropicToolsToOpenAI(tools)
		if err != nil {
			return nil, headers, fmt.Errorf("transform tools: %w", err)
		}
		out["tools"] = openaiTools
	}
	if thinking, ok := payload["thinking"].(map[string]any); ok {
		effort := "medium"
		if budget, ok := thinking["budget_tokens"].(float64); ok {
			switch {
			case budget >= 16000:
				effort = "high"
			case budget <= 4000:
				effort = "low"
			}
		}
		out["reasoning"] = map[string]any{"effort": effort}
	}

	return out, headers, nil
}

// openAIResponsesToAnthropicResponse converts a materialized OpenAI
// Responses payload back into Anthropic Messages shape. The Responses
// API nests generated content inside an "output" array of typed items
// rather than a single message.
func openAIResponsesToAnthropicResponse(body map[string]any, metadata map[string]any) (map[string]any, error) {
	if errObj, ok := body["error"].(map[string]any); ok {
		msg, _ := errObj["message"].(string)
		return map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": msg},
		}, nil
	}

	output, _ := body["output"].([]any)
	content := make([]any, 0, len(output))

	for _, item := range output {
		itemMap, ok := item.(map[string]any)
		if !ok {
			continue
		}
		switch itemMap["type"] {
		case "message":
			parts, _ := itemMap["content"].([]any)
			for _, p := range parts {
				partMap, ok := p.(map[string]any)
				if !ok {
					continue
				}
				if text, ok := partMap["text"].(string); ok {
					content = append(content, map[string]any{"type": "text", "text": text})
				}
			}
		case "function_call":
			var input map[string]any
			if args, ok := itemMap["arguments"].(string); ok && args != "" {
				_ = json.Unmarshal([]byte(args), &input)
			}
			id, _ := itemMap["call_id"].(string)
			content = append(content, map[string]any{
				"type":  "tool_use",
				"id":    strings.Replace(id, "call_", "toolu_", 1),
				"name":  itemMap["name"],
				"input": input,
			})
		}
	}

	if len(content) == 0 {
		content = append(content, map[string]any{"type": "text", "text": ""})
	}

	stopReason := "end_turn"
	if status, ok := body["status"].(string); ok && status == "incomplete" {
		stopReason = "max_tokens"
	}
	for _, c := range content {
		if cMap, ok := c.(map[string]any); ok && cMap["type"] == "tool_use" {
			stopReason = "tool_use"
			break
		}
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
		anthropicUsage := map[string]any{}
		if v, ok := usage["input_tokens"]; ok {
			anthropicUsage["input_tokens"] = v
		}
		if v, ok := usage["output_tokens"]; ok {
			anthropicUsage["output_tokens"] = v
		}
		resp["usage"] = anthropicUsage
	}

	return resp, nil
}
