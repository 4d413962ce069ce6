package transformers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func init() {
	register("cache_breakpoints.Place", func(params map[string]any) (any, error) {
		return RequestFunc(placeCacheBreakpoints), nil
	})
}

const maxCacheBreakpoints = 4

// placeCacheBreakpoints marks up to four content blocks with
// cache_control: {"type": "ephemeral"} on an Anthropic-to-Anthropic
// upstream call: the system block, the last tool definition, and the
// final one or two user turns. It operates via gjson/sjson path
// patching rather than map surgery so array insertion points stay
// correct even as earlier transformers reorder blocks.
func placeCacheBreakpoints(payload map[string]any, headers http.Header, metadata map[string]any) (map[string]any, http.Header, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return payload, headers, err
	}

	doc := string(raw)
	placed := 0

	if gjson.Get(doc, "system").Exists() && placed < maxCacheBreakpoints {
		if updated, err := markSystemCacheControl(doc); err == nil {
			doc = updated
			placed++
		}
	}

	if tools := gjson.Get(doc, "tools"); tools.IsArray() && len(tools.Array()) > 0 && placed < maxCacheBreakpoints {
		lastIdx := len(tools.Array()) - 1
		path := indexPath("tools", lastIdx) + ".cache_control"
		if updated, err := sjson.Set(doc, path, map[string]string{"type": "ephemeral"}); err == nil {
			doc = updated
			placed++
		}
	}

	messages := gjson.Get(doc, "messages")
	if messages.IsArray() {
		userIndices := userTurnIndices(messages)
		for i := len(userIndices) - 1; i >= 0 && placed < maxCacheBreakpoints; i-- {
			idx := userIndices[i]
			if updated, ok := markLastContentBlockCacheControl(doc, idx); ok {
				doc = updated
				placed++
			}
			if len(userIndices)-i >= 2 {
				break
			}
		}
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return payload, headers, err
	}

	return out, headers, nil
}

func markSystemCacheControl(doc string) (string, error) {
	system := gjson.Get(doc, "system")
	if system.IsArray() {
		blocks := system.Array()
		lastIdx := len(blocks) - 1
		if lastIdx < 0 {
			return doc, nil
		}
		return sjson.Set(doc, indexPath("system", lastIdx)+".cache_control", map[string]string{"type": "ephemeral"})
	}

	// String-shaped system: promote to a single-block array so
	// cache_control has somewhere to attach.
	block := map[string]any{"type": "text", "text": system.String(), "cache_control": map[string]string{"type": "ephemeral"}}
	return sjson.Set(doc, "system", []any{block})
}

func userTurnIndices(messages gjson.Result) []int {
	var indices []int
	for i, m := range messages.Array() {
		if m.Get("role").String() == "user" {
			indices = append(indices, i)
		}
	}
	return indices
}

func markLastContentBlockCacheControl(doc string, msgIdx int) (string, bool) {
	content := gjson.Get(doc, indexPath("messages", msgIdx)+".content")
	if !content.IsArray() {
		return doc, false
	}
	blocks := content.Array()
	lastIdx := len(blocks) - 1
	if lastIdx < 0 {
		return doc, false
	}
	path := indexPath("messages", msgIdx) + "." + indexPath("content", lastIdx) + ".cache_control"
	updated, err := sjson.Set(doc, path, map[string]string{"type": "ephemeral"})
	if err != nil {
		return doc, false
	}
	return updated, true
}

func indexPath(field string, idx int) string {
	return field + "." + strconv.Itoa(idx)
}
