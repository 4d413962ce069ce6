// Package sse synthesizes an Anthropic Messages SSE event stream from a
// fully-materialized response document. The proxy always forces
// stream:false upstream (see internal/client), so every "streamed"
// response the ingress side emits is reconstructed here rather than
// relayed live from a provider.
package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event is one SSE frame: an event name and its JSON-encodable payload.
type Event struct {
	Type string
	Data any
}

// Synthesize converts a finalized Anthropic Messages response body into
// the canonical event sequence: message_start, one
// content_block_start/delta.../content_block_stop triple per content
// block (contiguous zero-based indices), message_delta, message_stop.
func Synthesize(body map[string]any) ([]Event, error) {
	content, _ := body["content"].([]any)

	events := make([]Event, 0, len(content)*3+3)

	message := map[string]any{
		"id":            body["id"],
		"type":          "message",
		"role":          "assistant",
		"model":         body["model"],
		"content":       []any{},
		"stop_reason":   nil,
		"stop_sequence": nil,
	}
	if usage, ok := body["usage"]; ok {
		message["usage"] = usage
	} else {
		message["usage"] = map[string]any{"input_tokens": 0, "output_tokens": 0}
	}

	events = append(events, Event{Type: "message_start", Data: map[string]any{
		"type":    "message_start",
		"message": message,
	}})

	for index, block := range content {
		blockMap, ok := block.(map[string]any)
		if !ok {
			continue
		}

		startBlock, deltaEvents, err := blockEvents(index, blockMap)
		if err != nil {
			return nil, err
		}

		events = append(events, Event{Type: "content_block_start", Data: map[string]any{
			"type":          "content_block_start",
			"index":         index,
			"content_block": startBlock,
		}})
		events = append(events, deltaEvents...)
		events = append(events, Event{Type: "content_block_stop", Data: map[string]any{
			"type":  "content_block_stop",
			"index": index,
		}})
	}

	delta := map[string]any{
		"stop_reason":   body["stop_reason"],
		"stop_sequence": nil,
	}
	deltaEvent := map[string]any{
		"type":  "message_delta",
		"delta": delta,
	}
	if usage, ok := body["usage"]; ok {
		deltaEvent["usage"] = usage
	}
	events = append(events, Event{Type: "message_delta", Data: deltaEvent})

	events = append(events, Event{Type: "message_stop", Data: map[string]any{"type": "message_stop"}})

	return events, nil
}

// blockEvents renders one content block's start shape (with its
// growable field emptied) and the delta event(s) that would have
// carried its content had it streamed live.
func blockEvents(index int, block map[string]any) (map[string]any, []Event, error) {
	blockType, _ := block["type"].(string)

	switch blockType {
	case "text":
		text, _ := block["text"].(string)
		start := map[string]any{"type": "text", "text": ""}
		delta := Event{Type: "content_block_delta", Data: map[string]any{
			"type":  "content_block_delta",
			"index": index,
			"delta": map[string]any{"type": "text_delta", "text": text},
		}}
		return start, []Event{delta}, nil

	case "tool_use":
		start := map[string]any{
			"type":  "tool_use",
			"id":    block["id"],
			"name":  block["name"],
			"input": map[string]any{},
		}
		inputJSON, err := json.Marshal(block["input"])
		if err != nil {
			return nil, nil, fmt.Errorf("marshal tool_use input for delta: %w", err)
		}
		delta := Event{Type: "content_block_delta", Data: map[string]any{
			"type":  "content_block_delta",
			"index": index,
			"delta": map[string]any{"type": "input_json_delta", "partial_json": string(inputJSON)},
		}}
		return start, []Event{delta}, nil

	case "thinking":
		thinking, _ := block["thinking"].(string)
		start := map[string]any{"type": "thinking", "thinking": ""}
		delta := Event{Type: "content_block_delta", Data: map[string]any{
			"type":  "content_block_delta",
			"index": index,
			"delta": map[string]any{"type": "thinking_delta", "thinking": thinking},
		}}
		return start, []Event{delta}, nil

	default:
		return map[string]any{"type": blockType}, nil, nil
	}
}

// PingEvent is the periodic keepalive frame sent while a client waits on
// a slow upstream call; the proxy currently only synthesizes the final
// stream at once, but handlers may interleave PingEvent frames while
// the upstream call is still in flight.
func PingEvent() Event {
	return Event{Type: "ping", Data: map[string]any{"type": "ping"}}
}

// ErrorEvent wraps a proxy-level error into the single terminal "error"
// SSE frame the ingress dialect expects mid-stream.
func ErrorEvent(errType, message string) Event {
	return Event{Type: "error", Data: map[string]any{
		"type": "error",
		"error": map[string]any{
			"type":    errType,
			"message": message,
		},
	}}
}

// Encode frames one Event as "event: <type>\ndata: <json>\n\n".
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal sse event %q: %w", e.Type, err)
	}

	var buf bytes.Buffer
	buf.WriteString("event: ")
	buf.WriteString(e.Type)
	buf.WriteString("\ndata: ")
	buf.Write(data)
	buf.WriteString("\n\n")

	return buf.Bytes(), nil
}

// EncodeAll frames a full event sequence for a single stream write.
func EncodeAll(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range events {
		framed, err := Encode(e)
		if err != nil {
			return nil, err
		}
		buf.Write(framed)
	}
	return buf.Bytes(), nil
}
