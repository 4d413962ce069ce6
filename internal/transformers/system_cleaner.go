package transformers

import (
	"net/http"
	"strings"
)

const gitStatusMarker = "gitStatus:"

func init() {
	register("system_cleaner.StripEmptyBlocks", func(params map[string]any) (any, error) {
		return RequestFunc(cleanSystemBlocks), nil
	})
}

// cleanSystemBlocks removes internal directives injected into the
// ingress-provided system prompt -- currently the trailing gitStatus:
// snapshot Claude Code appends describing the caller's local working
// tree, which must never reach an upstream provider -- then drops any
// text blocks left empty by that removal, plus any that arrived empty
// on their own (Anthropic tooling sometimes emits an empty leading
// system block as a cache-control anchor).
func cleanSystemBlocks(payload map[string]any, headers http.Header, metadata map[string]any) (map[string]any, http.Header, error) {
	system, ok := payload["system"]
	if !ok {
		return payload, headers, nil
	}

	var cleaned any
	changed := false

	switch v := system.(type) {
	case string:
		stripped := stripGitStatusSuffix(v)
		changed = stripped != v
		cleaned = stripped

	case []any:
		blocks := make([]any, len(v))
		copy(blocks, v)

		if last, ok := lastBlockText(blocks); ok {
			if stripped := stripGitStatusSuffix(last.text); stripped != last.text {
				blocks[last.index] = withText(last.block, stripped)
				changed = true
			}
		}

		filtered := make([]any, 0, len(blocks))
		for _, b := range blocks {
			blockMap, ok := b.(map[string]any)
			if !ok {
				filtered = append(filtered, b)
				continue
			}
			if text, ok := blockMap["text"].(string); ok && text == "" {
				changed = true
				continue
			}
			filtered = append(filtered, b)
		}
		cleaned = filtered

	default:
		return payload, headers, nil
	}

	if !changed {
		return payload, headers, nil
	}

	out := make(map[string]any, len(payload))
	for k, val := range payload {
		out[k] = val
	}
	out["system"] = cleaned

	return out, headers, nil
}

type textBlock struct {
	index int
	block map[string]any
	text  string
}

func lastBlockText(blocks []any) (textBlock, bool) {
	if len(blocks) == 0 {
		return textBlock{}, false
	}
	index := len(blocks) - 1
	blockMap, ok := blocks[index].(map[string]any)
	if !ok {
		return textBlock{}, false
	}
	text, ok := blockMap["text"].(string)
	if !ok {
		return textBlock{}, false
	}
	return textBlock{index: index, block: blockMap, text: text}, true
}

func withText(block map[string]any, text string) map[string]any {
	out := make(map[string]any, len(block))
	for k, v := range block {
		out[k] = v
	}
	out["text"] = text
	return out
}

// stripGitStatusSuffix truncates text at the last "gitStatus:" occurrence,
// mirroring the original's _remove_system_git_status_suffix. Only the
// single newline immediately preceding the marker is trimmed, matching
// the original's exact truncation point rather than trimming all
// trailing whitespace.
func stripGitStatusSuffix(text string) string {
	idx := strings.LastIndex(text, gitStatusMarker)
	if idx == -1 {
		return text
	}
	return strings.TrimSuffix(text[:idx], "\n")
}
