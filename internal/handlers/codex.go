package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/mihaisavezi/llmgateway/internal/container"
	"github.com/mihaisavezi/llmgateway/internal/exchange"
	"github.com/mihaisavezi/llmgateway/internal/middleware"
	"github.com/mihaisavezi/llmgateway/internal/sse"
	"github.com/mihaisavezi/llmgateway/internal/tokenest"
)

// CodexHandler serves the codex channel's "responses" operation. Unlike
// the claude channel, routing bypasses classification entirely: the
// payload's model field is used directly as the alias (spec §4.4).
type CodexHandler struct {
	containers *container.Manager
	logger     *slog.Logger
}

func NewCodexHandler(containers *container.Manager, logger *slog.Logger) *CodexHandler {
	return &CodexHandler{containers: containers, logger: logger}
}

func (h *CodexHandler) Responses(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, &exchange.Error{Status: http.StatusBadRequest, Type: exchange.ErrorInvalidRequest, Message: "failed to read request body"})
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, &exchange.Error{Status: http.StatusBadRequest, Type: exchange.ErrorInvalidRequest, Message: "request body is not valid JSON"})
		return
	}

	req := exchange.NewRequest(exchange.ChannelCodex, exchange.OperationResponses, payload, r.Header.Clone())
	req.Metadata["estimated_prompt_tokens"] = tokenest.Estimate(payload)
	req.Metadata["correlation_id"] = middleware.CorrelationID(r.Context())

	svc := h.containers.Get()

	routingResult, err := svc.Router.Route(req)
	if err != nil {
		writeError(w, err)
		return
	}

	pc := svc.ProviderFor(routingResult.ProviderID, routingResult.UsedFallback)
	if pc == nil {
		writeError(w, exchange.NewModelNotFoundError(routingResult.Alias))
		return
	}

	resp, err := pc.Execute(req, "responses")
	if err != nil {
		h.logger.Error("upstream execution failed",
			"routing_key", routingResult.RoutingKey,
			"provider", routingResult.ProviderID,
			"estimated_prompt_tokens", req.Metadata["estimated_prompt_tokens"],
			"error", err,
		)
		writeError(w, err)
		return
	}

	h.logger.Info("codex request served",
		"routing_key", routingResult.RoutingKey,
		"alias", routingResult.Alias,
		"provider", routingResult.ProviderID,
		"used_fallback", routingResult.UsedFallback,
		"estimated_prompt_tokens", req.Metadata["estimated_prompt_tokens"],
		"upstream_latency_ms", resp.Annotations["upstream_latency_ms"],
	)

	if !req.OriginalStreamRequested {
		writeJSON(w, resp.Status, resp.Body)
		return
	}

	h.writeResponsesSSE(w, resp.Body)
}

// writeResponsesSSE synthesizes the OpenAI Responses streaming envelope
// (a response.created frame, then a response.completed frame)
// from a materialized response, mirroring the same
// force-non-stream-upstream-then-synthesize policy used for the claude
// channel, reusing the Anthropic-shaped synthesizer's SSE framing.
func (h *CodexHandler) writeResponsesSSE(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events := []sse.Event{
		{Type: "response.created", Data: map[string]any{"type": "response.created", "response": body}},
		{Type: "response.completed", Data: map[string]any{"type": "response.completed", "response": body}},
	}

	framed, err := sse.EncodeAll(events)
	if err != nil {
		h.logger.Error("failed encoding codex sse response", "error", err)
		return
	}

	if _, err := w.Write(framed); err != nil {
		h.logger.Error("failed writing codex sse response", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
