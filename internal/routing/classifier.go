// Package routing implements request classification and alias
// resolution: turning a decoded Anthropic-shaped payload into a routing
// key, then a model alias, then a concrete (provider, provider model id)
// binding.
package routing

import (
	"regexp"
	"strings"

	"github.com/mihaisavezi/llmgateway/internal/config"
)

const planModeSentinel = "<system-reminder>\nPlan mode is active."

var modelDirectivePattern = regexp.MustCompile(`^/model\s+(\S+)$`)

// RoutingKey is one of the classifier's fixed outcomes.
type RoutingKey string

const (
	KeyBuiltinTools RoutingKey = "builtin_tools"
	KeyPlanAndThink RoutingKey = "plan_and_think"
	KeyPlanning     RoutingKey = "planning"
	KeyThinking     RoutingKey = "thinking"
	KeyBackground   RoutingKey = "background"
	KeyDefault      RoutingKey = "default"
	KeyOverride     RoutingKey = "override"
)

const backgroundMaxTokensThreshold = 768

// Classify determines the routing key for an Anthropic-shaped payload,
// applying the rule precedence builtin-tools > plan_and_think > planning >
// thinking > background > default. The explicit override (!) and the
// /model directive are not checked here: Router.Route checks them via
// ExplicitOverride/AgentDirective below before it calls Classify.
func Classify(payload map[string]any) RoutingKey {
	if hasBuiltinTools(payload) {
		return KeyBuiltinTools
	}

	hasPlan := hasPlanModeActivation(payload)
	hasThink := hasThinkingConfig(payload)

	switch {
	case hasPlan && hasThink:
		return KeyPlanAndThink
	case hasThink:
		return KeyThinking
	case hasPlan:
		return KeyPlanning
	}

	if maxTokens, ok := numberField(payload, "max_tokens"); ok && maxTokens > 0 && maxTokens < backgroundMaxTokensThreshold {
		return KeyBackground
	}

	return KeyDefault
}

// ExplicitOverride reports a "model-name!" suffix override, which bypasses
// classification entirely and names an alias directly.
func ExplicitOverride(model string) (alias string, ok bool) {
	if strings.HasSuffix(model, "!") {
		return strings.TrimSuffix(model, "!"), true
	}
	return "", false
}

// AgentDirective extracts a "/model <alias>" directive from the text
// prefix of the first user message, when present, and strips the
// matched directive line from that message in place so it is never
// forwarded upstream.
func AgentDirective(payload map[string]any) (alias string, ok bool) {
	messages, exists := payload["messages"].([]any)
	if !exists {
		return "", false
	}

	for _, m := range messages {
		msgMap, ok := m.(map[string]any)
		if !ok || msgMap["role"] != "user" {
			continue
		}

		switch content := msgMap["content"].(type) {
		case string:
			directiveAlias, remainder, matched := extractDirective(content)
			if !matched {
				return "", false
			}
			msgMap["content"] = remainder
			return directiveAlias, true

		case []any:
			for _, block := range content {
				blockMap, ok := block.(map[string]any)
				if !ok || blockMap["type"] != "text" {
					continue
				}
				text, _ := blockMap["text"].(string)
				directiveAlias, remainder, matched := extractDirective(text)
				if !matched {
					return "", false
				}
				blockMap["text"] = remainder
				return directiveAlias, true
			}
			return "", false

		default:
			return "", false
		}
	}

	return "", false
}

// extractDirective checks whether text's first line is a "/model <alias>"
// directive, returning the alias and the text with that line removed.
func extractDirective(text string) (alias, remainder string, ok bool) {
	trimmed := strings.TrimLeft(text, " \t\n")
	lines := strings.SplitN(trimmed, "\n", 2)

	firstLine := strings.TrimSpace(lines[0])
	m := modelDirectivePattern.FindStringSubmatch(firstLine)
	if m == nil {
		return "", text, false
	}

	rest := ""
	if len(lines) > 1 {
		rest = lines[1]
	}

	return m[1], rest, true
}

func hasBuiltinTools(payload map[string]any) bool {
	tools, ok := payload["tools"].([]any)
	if !ok {
		return false
	}
	for _, t := range tools {
		toolMap, ok := t.(map[string]any)
		if !ok {
			continue
		}
		if _, hasSchema := toolMap["input_schema"]; hasSchema {
			continue
		}
		if toolType, ok := toolMap["type"].(string); ok && config.IsBuiltinToolName(toolType) {
			return true
		}
	}
	return false
}

func hasThinkingConfig(payload map[string]any) bool {
	thinking, ok := payload["thinking"].(map[string]any)
	if !ok {
		return false
	}
	budget, ok := numberField(thinking, "budget_tokens")
	return ok && budget > 0
}

func hasPlanModeActivation(payload map[string]any) bool {
	messages, ok := payload["messages"].([]any)
	if !ok {
		return false
	}

	for i := len(messages) - 1; i >= 0; i-- {
		msgMap, ok := messages[i].(map[string]any)
		if !ok {
			continue
		}
		if msgMap["role"] != "user" {
			continue
		}
		return contentMentionsPlanMode(msgMap["content"])
	}

	return false
}

func contentMentionsPlanMode(content any) bool {
	switch v := content.(type) {
	case string:
		return strings.Contains(v, planModeSentinel)
	case []any:
		for _, block := range v {
			blockMap, ok := block.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := blockMap["text"].(string); ok && strings.Contains(text, planModeSentinel) {
				return true
			}
			if blockMap["type"] == "tool_result" {
				if s, ok := blockMap["content"].(string); ok && strings.Contains(s, planModeSentinel) {
					return true
				}
			}
		}
	}
	return false
}

func numberField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
