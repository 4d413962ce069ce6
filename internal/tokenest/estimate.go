// Package tokenest provides a local, upstream-independent token estimate
// for observability. Every provider's count_tokens operation always
// proxies to the upstream's own tokenizer (see internal/providers'
// descriptors); this package backs the pre-flight estimate logged
// alongside a request, before the upstream call returns a real count.
package tokenest

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding("cl100k_base")
	})
	return enc, encErr
}

// Estimate returns a rough prompt token count for an Anthropic-shaped
// payload, walking system/messages/tool text content. It never fails
// loudly: an unavailable encoding yields 0, since this backs a log
// annotation, not a billing or routing decision.
func Estimate(payload map[string]any) int {
	tke, err := encoding()
	if err != nil {
		return 0
	}

	var sb []string
	collectText(payload["system"], &sb)

	if messages, ok := payload["messages"].([]any); ok {
		for _, m := range messages {
			if msgMap, ok := m.(map[string]any); ok {
				collectText(msgMap["content"], &sb)
			}
		}
	}

	total := 0
	for _, s := range sb {
		total += len(tke.Encode(s, nil, nil))
	}
	return total
}

func collectText(content any, out *[]string) {
	switch v := content.(type) {
	case string:
		*out = append(*out, v)
	case []any:
		for _, block := range v {
			blockMap, ok := block.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := blockMap["text"].(string); ok {
				*out = append(*out, text)
			}
			if s, ok := blockMap["content"].(string); ok {
				*out = append(*out, s)
			}
		}
	}
}
