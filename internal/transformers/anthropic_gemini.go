package transformers

import (
	"fmt"
	"net/http"
	"strings"
)

func init() {
	register("anthropic_to_gemini.Request", func(params map[string]any) (any, error) {
		return RequestFunc(anthropicToGeminiRequest), nil
	})
	register("anthropic_to_gemini.Response", func(params map[string]any) (any, error) {
		return ResponseFunc(geminiToAnthropicResponse), nil
	})
	register("anthropic_to_gemini.TokenCountResponse", func(params map[string]any) (any, error) {
		return ResponseFunc(geminiToAnthropicTokenCount), nil
	})
}

// geminiToAnthropicTokenCount adapts a Gemini countTokens response into
// the {"input_tokens": N} shape /claude/v1/messages/count_tokens returns.
func geminiToAnthropicTokenCount(body map[string]any, metadata map[string]any) (map[string]any, error) {
	total := 0
	if v, ok := body["totalTokens"].(float64); ok {
		total = int(v)
	}
	return map[string]any{"input_tokens": total}, nil
}

// anthropicToGeminiRequest rewrites an Anthropic Messages payload into a
// Gemini generateContent payload: messages become contents with
// "model"/"user" roles, system becomes systemInstruction, and
// input_schema-shaped tools become functionDeclarations.
func anthropicToGeminiRequest(payload map[string]any, headers http.Header, metadata map[string]any) (map[string]any, http.Header, error) {
	out := map[string]any{}

	if system, ok := payload["system"]; ok {
		out["systemInstruction"] = map[string]any{
			"parts": []any{map[string]any{"text": flattenSystemContent(system)}},
		}
	}

	messages, _ := payload["messages"].([]any)
	contents := make([]any, 0, len(messages))
	for _, m := range messages {
		msgMap, ok := m.(map[string]any)
		if !ok {
			continue
		}
		contents = append(contents, anthropicMessageToGeminiContent(msgMap))
	}
	out["contents"] = contents

	genConfig := map[string]any{}
	if maxTokens, ok := payload["max_tokens"]; ok {
		genConfig["maxOutputTokens"] = maxTokens
	}
	if temp, ok := payload["temperature"]; ok {
		genConfig["temperature"] = temp
	}
	if len(genConfig) > 0 {
		out["generationConfig"] = genConfig
	}

	if tools, ok := payload["tools"].([]any); ok && len(tools) > 0 {
		decls := make([]any, 0, len(tools))
		for _, t := range tools {
			toolMap, ok := t.(map[string]any)
			if !ok {
				continue
			}
			name, ok := toolMap["name"].(string)
			if !ok {
				continue
			}
			decl := map[string]any{"name": name}
			if desc, ok := toolMap["description"].(string); ok {
				decl["description"] = desc
			}
			if schema, ok := toolMap["input_schema"]; ok {
				decl["parameters"] = schema
			}
			decls = append(decls, decl)
		}
		out["tools"] = []any{map[string]any{"functionDeclarations": decls}}
	}

	return out, headers, nil
}

func anthropicMessageToGeminiContent(msg map[string]any) map[string]any {
	role, _ := msg["role"].(string)
	geminiRole := "user"
	if role == "assistant" {
		geminiRole = "model"
	}

	var parts []any

	switch content := msg["content"].(type) {
	case string:
		parts = append(parts, map[string]any{"text": content})
	case []any:
		for _, b := range content {
			blockMap, ok := b.(map[string]any)
			if !ok {
				continue
			}
			switch blockMap["type"] {
			case "text":
				if text, ok := blockMap["text"].(string); ok {
					parts = append(parts, map[string]any{"text": text})
				}
			case "tool_use":
				parts = append(parts, map[string]any{
					"functionCall": map[string]any{
						"name": blockMap["name"],
						"args": blockMap["input"],
					},
				})
			case "tool_result":
				parts = append(parts, map[string]any{
					"functionResponse": map[string]any{
						"name":     blockMap["tool_use_id"],
						"response": map[string]any{"result": blockMap["content"]},
					},
				})
			}
		}
	}

	return map[string]any{"role": geminiRole, "parts": parts}
}

// geminiToAnthropicResponse converts a materialized Gemini
// generateContent response into an Anthropic Messages response.
func geminiToAnthropicResponse(body map[string]any, metadata map[string]any) (map[string]any, error) {
	if errObj, ok := body["error"].(map[string]any); ok {
		msg, _ := errObj["message"].(string)
		return map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": msg},
		}, nil
	}

	candidates, _ := body["candidates"].([]any)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("gemini response has no candidates")
	}

	candidate, _ := candidates[0].(map[string]any)
	contentObj, _ := candidate["content"].(map[string]any)
	parts, _ := contentObj["parts"].([]any)

	var content []any
	for _, p := range parts {
		partMap, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := partMap["text"].(string); ok && text != "" {
			content = append(content, map[string]any{"type": "text", "text": text})
		}
		if fc, ok := partMap["functionCall"].(map[string]any); ok {
			content = append(content, map[string]any{
				"type":  "tool_use",
				"id":    "toolu_" + strings.ToLower(fmt.Sprintf("%v", fc["name"])),
				"name":  fc["name"],
				"input": fc["args"],
			})
		}
	}
	if len(content) == 0 {
		content = append(content, map[string]any{"type": "text", "text": ""})
	}

	stopReason := "end_turn"
	if fr, ok := candidate["finishReason"].(string); ok {
		switch fr {
		case "MAX_TOKENS":
			stopReason = "max_tokens"
		case "STOP":
			stopReason = "end_turn"
		default:
			if fr != "" {
				stopReason = "end_turn"
			}
		}
	}

	resp := map[string]any{
		"type":        "message",
		"role":        "assistant",
		"model":       body["modelVersion"],
		"content":     content,
		"stop_reason": stopReason,
	}

	if usage, ok := body["usageMetadata"].(map[string]any); ok {
		anthropicUsage := map[string]any{}
		if v, ok := usage["promptTokenCount"]; ok {
			anthropicUsage["input_tokens"] = v
		}
		if v, ok := usage["candidatesTokenCount"]; ok {
			anthropicUsage["output_tokens"] = v
		}
		resp["usage"] = anthropicUsage
	}

	if id, ok := body["responseId"].(string); ok {
		resp["id"] = id
	}

	return resp, nil
}
