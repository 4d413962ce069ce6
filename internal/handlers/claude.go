package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mihaisavezi/llmgateway/internal/container"
	"github.com/mihaisavezi/llmgateway/internal/exchange"
	"github.com/mihaisavezi/llmgateway/internal/middleware"
	"github.com/mihaisavezi/llmgateway/internal/sse"
	"github.com/mihaisavezi/llmgateway/internal/tokenest"
)

// ClaudeHandler serves the claude channel's two operations: messages and
// count_tokens. Both share the same routing and execution path; the
// difference is only which descriptor operation is invoked and whether
// the response is wrapped in an SSE synthesis pass.
type ClaudeHandler struct {
	containers *container.Manager
	logger     *slog.Logger
}

func NewClaudeHandler(containers *container.Manager, logger *slog.Logger) *ClaudeHandler {
	return &ClaudeHandler{containers: containers, logger: logger}
}

func (h *ClaudeHandler) Messages(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, exchange.OperationMessages, "messages")
}

func (h *ClaudeHandler) CountTokens(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, exchange.OperationCountTokens, "count_tokens")
}

func (h *ClaudeHandler) handle(w http.ResponseWriter, r *http.Request, op exchange.Operation, operationKey string) {
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

	req := exchange.NewRequest(exchange.ChannelClaude, op, payload, r.Header.Clone())
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

	resp, err := pc.Execute(req, operationKey)
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

	h.logger.Info("claude request served",
		"operation", operationKey,
		"routing_key", routingResult.RoutingKey,
		"alias", routingResult.Alias,
		"provider", routingResult.ProviderID,
		"used_fallback", routingResult.UsedFallback,
		"estimated_prompt_tokens", req.Metadata["estimated_prompt_tokens"],
		"upstream_latency_ms", resp.Annotations["upstream_latency_ms"],
	)

	if operationKey == "count_tokens" || !req.OriginalStreamRequested {
		writeJSON(w, resp.Status, resp.Body)
		return
	}

	h.writeSSE(w, resp.Body)
}

func (h *ClaudeHandler) writeSSE(w http.ResponseWriter, body map[string]any) {
	events, err := sse.Synthesize(body)
	if err != nil {
		writeError(w, &exchange.Error{Status: http.StatusInternalServerError, Type: exchange.ErrorAPI, Message: err.Error()})
		return
	}

	framed, err := sse.EncodeAll(events)
	if err != nil {
		writeError(w, &exchange.Error{Status: http.StatusInternalServerError, Type: exchange.ErrorAPI, Message: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(framed); err != nil {
		h.logger.Error("failed writing sse response", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	var exErr *exchange.Error
	if !errors.As(err, &exErr) {
		exErr = &exchange.Error{Status: http.StatusInternalServerError, Type: exchange.ErrorAPI, Message: err.Error()}
	}

	writeJSON(w, exErr.Status, exErr.Body())
}
