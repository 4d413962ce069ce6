package transformers

import "net/http"

func init() {
	register("codex_passthrough.Request", func(params map[string]any) (any, error) {
		return RequestFunc(codexPassthroughRequest), nil
	})
	register("codex_passthrough.Response", func(params map[string]any) (any, error) {
		return ResponseFunc(codexPassthroughResponse), nil
	})
}

// codexPassthroughRequest handles the codex channel's "responses"
// operation, where ingress and egress are both OpenAI Responses shaped
// and no dialect translation is needed; only the stream flag is
// normalized by internal/client before this runs.
func codexPassthroughRequest(payload map[string]any, headers http.Header, metadata map[string]any) (map[string]any, http.Header, error) {
	return payload, headers, nil
}

func codexPassthroughResponse(body map[string]any, metadata map[string]any) (map[string]any, error) {
	return body, nil
}
