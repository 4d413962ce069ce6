package transformers

import "net/http"

func init() {
	register("tool_reorder.NonMCPFirst", func(params map[string]any) (any, error) {
		return RequestFunc(reorderTools), nil
	})
}

// reorderTools stably partitions the tools array so ordinary tools come
// before any "mcp__"-prefixed tool. Some providers weight tool selection
// by declaration order; putting MCP tools last keeps a user's own tools
// as the preferred match.
func reorderTools(payload map[string]any, headers http.Header, metadata map[string]any) (map[string]any, http.Header, error) {
	tools, ok := payload["tools"].([]any)
	if !ok || len(tools) == 0 {
		return payload, headers, nil
	}

	var normal, mcp []any
	for _, t := range tools {
		if isMCPTool(t) {
			mcp = append(mcp, t)
		} else {
			normal = append(normal, t)
		}
	}

	if len(mcp) == 0 {
		return payload, headers, nil
	}

	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	out["tools"] = append(normal, mcp...)

	return out, headers, nil
}

func isMCPTool(t any) bool {
	toolMap, ok := t.(map[string]any)
	if !ok {
		return false
	}
	name, _ := toolMap["name"].(string)
	return len(name) >= 5 && name[:5] == "mcp__"
}
