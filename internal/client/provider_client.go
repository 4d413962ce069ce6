package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/dump"
	"github.com/mihaisavezi/llmgateway/internal/exchange"
	"github.com/mihaisavezi/llmgateway/internal/providers"
	"github.com/mihaisavezi/llmgateway/internal/transformers"
)

// ProviderClient binds one ProviderConfig to a pooled *http.Client and
// executes exchange requests against it, running the effective
// transformer pipeline for the operation being invoked.
type ProviderClient struct {
	Config     config.ProviderConfig
	Descriptor providers.Descriptor
	httpClient *http.Client
	loader     *transformers.Loader
	dumper     *dump.Dumper
}

// NewProviderClient builds a client for one provider binding. loader is
// shared across every ProviderClient in a container so identical
// transformer refs across providers resolve to one cached instance.
// dumper may be nil; a nil *dump.Dumper makes every dump call a no-op.
func NewProviderClient(cfg config.ProviderConfig, loader *transformers.Loader, dumper *dump.Dumper) (*ProviderClient, error) {
	descriptor, ok := providers.Lookup(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("provider %q: unknown kind %q", cfg.Name, cfg.Type)
	}

	return &ProviderClient{
		Config:     cfg,
		Descriptor: descriptor,
		httpClient: newHTTPClient(timeoutFor(cfg)),
		loader:     loader,
		dumper:     dumper,
	}, nil
}

// Close releases the pooled connections, called after the drain
// interval elapses for a client evicted by a config reload.
func (c *ProviderClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// Execute runs the request-transform / send / response-transform cycle
// for one exchange.Request already bound to this provider by routing,
// per spec §4.5:
//  1. stamp the resolved model onto the payload (already done by the
//     router before Execute is called)
//  2. force stream:false upstream regardless of the ingress request
//  3. apply the effective request-transformer list
//  4. resolve the upstream URL from the descriptor operation suffix
//  5. POST
//  6. on non-2xx, wrap the body into a structured exchange.Error and
//     skip response transformers entirely
//  7. on 2xx, apply the effective response-transformer list
//  8. return the transformed body as an exchange.Response
func (c *ProviderClient) Execute(req *exchange.Request, operation string) (*exchange.Response, error) {
	payload := make(map[string]any, len(req.Payload))
	for k, v := range req.Payload {
		payload[k] = v
	}
	payload["stream"] = false

	opPath, ok := providers.OperationFor(c.Config.Type, operation)
	if !ok {
		return nil, fmt.Errorf("provider %q does not support operation %q", c.Config.Name, operation)
	}

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")

	requestRefs := transformers.EffectiveRefs(
		c.Config.Transformers.PreRequest,
		c.Config.Transformers.Request,
		opPath.RequestTransformers,
		c.Config.Transformers.PostRequest,
	)

	for _, ref := range requestRefs {
		rt, err := c.loader.ResolveRequest(ref.Class, ref.Params)
		if err != nil {
			return nil, exchange.NewTransformerFailedError(routingKeyOf(req), ref.Class, err)
		}

		var terr error
		payload, headers, terr = rt.TransformRequest(payload, headers, req.Metadata)
		if terr != nil {
			return nil, exchange.NewTransformerFailedError(routingKeyOf(req), ref.Class, terr)
		}
	}

	transformers.InjectAuth(c.Descriptor.AuthStyle, c.Config.APIKey, headers)

	url := c.upstreamURL(opPath.Suffix, req.Metadata)

	correlationID := correlationIDOf(req)
	c.dumper.TransformedInput(correlationID, c.Config.Name, headers, payload)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal upstream request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	httpReq.Header = headers

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeoutErr(err) {
			return nil, &exchange.Error{Status: 504, Type: exchange.ErrorOverloaded, Message: err.Error()}
		}
		return nil, fmt.Errorf("upstream request to %q failed: %w", c.Config.Name, err)
	}
	defer resp.Body.Close()

	respBytes, err := decodeUpstreamBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}

	elapsed := time.Since(start)

	c.dumper.UpstreamOutput(correlationID, c.Config.Name, resp.StatusCode, respBytes)

	if resp.StatusCode >= 400 {
		return nil, upstreamError(resp.StatusCode, respBytes)
	}

	var respBody map[string]any
	if err := json.Unmarshal(respBytes, &respBody); err != nil {
		return nil, fmt.Errorf("upstream response is not valid JSON: %w", err)
	}

	responseRefs := transformers.EffectiveRefs(
		c.Config.Transformers.PreResponse,
		c.Config.Transformers.Response,
		opPath.ResponseTransformers,
		c.Config.Transformers.PostResponse,
	)

	for _, ref := range responseRefs {
		rt, err := c.loader.ResolveResponse(ref.Class, ref.Params)
		if err != nil {
			return nil, exchange.NewTransformerFailedError(routingKeyOf(req), ref.Class, err)
		}

		respBody, err = rt.TransformResponse(respBody, req.Metadata)
		if err != nil {
			return nil, exchange.NewTransformerFailedError(routingKeyOf(req), ref.Class, err)
		}
	}

	exResp := exchange.NewResponse(http.StatusOK)
	exResp.Body = respBody
	exResp.UpstreamModel, _ = req.Payload["model"].(string)
	exResp.Annotations["upstream_latency_ms"] = elapsed.Milliseconds()
	exResp.Annotations["provider"] = c.Config.Name

	return exResp, nil
}

func (c *ProviderClient) upstreamURL(suffix string, metadata map[string]any) string {
	if override, ok := metadata["url_override"].(string); ok && override != "" {
		return override
	}

	base := strings.TrimRight(c.Config.BaseURL, "/")
	url := base + suffix

	if c.Descriptor.AuthStyle == providers.AuthQueryParamKey {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "key=" + c.Config.APIKey
	}

	return url
}

func upstreamError(status int, body []byte) error {
	var parsed map[string]any
	message := string(body)

	if err := json.Unmarshal(body, &parsed); err == nil {
		if errObj, ok := parsed["error"].(map[string]any); ok {
			if m, ok := errObj["message"].(string); ok {
				message = m
			}
		}
	}

	return &exchange.Error{
		Status:  status,
		Type:    exchange.MapUpstreamStatus(status),
		Message: message,
	}
}

func routingKeyOf(req *exchange.Request) string {
	if v, ok := req.Metadata["routing_key"].(string); ok {
		return v
	}
	return ""
}

func correlationIDOf(req *exchange.Request) string {
	if v, ok := req.Metadata["correlation_id"].(string); ok {
		return v
	}
	return ""
}

func isTimeoutErr(err error) bool {
	type timeout interface{ Timeout() bool }
	t, ok := err.(timeout)
	return ok && t.Timeout()
}
