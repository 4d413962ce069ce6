// Package exchange defines the provider-neutral request/response envelope
// that flows between the ingress handlers, the router, and the provider
// client. The types here carry no behavior; their only contract is that
// original_stream_requested is captured once, at ingress, and never
// recomputed from a payload that transformers are free to mutate.
package exchange

import "net/http"

// Channel identifies the ingress dialect family a request arrived on.
type Channel string

const (
	ChannelClaude Channel = "claude"
	ChannelCodex  Channel = "codex"
)

// Operation identifies which upstream capability a request exercises.
type Operation string

const (
	OperationMessages    Operation = "messages"
	OperationCountTokens Operation = "count_tokens"
	OperationResponses   Operation = "responses"
)

// Request is the provider-neutral envelope built by an ingress handler
// before routing and transformation. Payload is an opaque structured
// document (decoded JSON) in the ingress dialect.
type Request struct {
	Channel                  Channel
	Operation                Operation
	Payload                  map[string]any
	Headers                  http.Header
	OriginalStreamRequested  bool
	Metadata                 map[string]any
}

// NewRequest builds a Request, capturing OriginalStreamRequested exactly
// once from the payload's "stream" field, before any transformer runs.
func NewRequest(channel Channel, op Operation, payload map[string]any, headers http.Header) *Request {
	stream, _ := payload["stream"].(bool)

	return &Request{
		Channel:                 channel,
		Operation:               op,
		Payload:                 payload,
		Headers:                 headers,
		OriginalStreamRequested: stream,
		Metadata:                make(map[string]any),
	}
}

// Response carries the finalized, ingress-dialect-shaped result of a
// provider invocation. By the time a Response leaves the provider client,
// Body conforms to the ingress dialect and no provider-native fields
// leak through.
type Response struct {
	Status         int
	Headers        http.Header
	Body           map[string]any
	UpstreamModel  string
	Annotations    map[string]any
}

// NewResponse builds an empty Response with initialized maps.
func NewResponse(status int) *Response {
	return &Response{
		Status:      status,
		Headers:     make(http.Header),
		Body:        make(map[string]any),
		Annotations: make(map[string]any),
	}
}

// StreamChunk is reserved for future true upstream streaming. The current
// core never constructs one on the hot path: SSE on egress is synthesized
// from a fully-materialized Response (see internal/sse). It is specified
// here for contract stability, so a future streaming-upstream mode does
// not require touching the exchange contract.
type StreamChunk struct {
	Index int
	Kind  string
	Data  map[string]any
}

// RoutingResult is the outcome of classification and alias resolution.
type RoutingResult struct {
	ProviderID      string
	ResolvedModelID string
	RoutingKey      string
	Alias           string
	Features        RoutingFeatures
	UsedFallback    bool
}

// RoutingFeatures records which classifier signals fired for a request,
// primarily for observability annotations.
type RoutingFeatures struct {
	BuiltinTools    bool
	PlanMode        bool
	ThinkingBudget  int
	ExplicitOverride bool
}
