// Package client executes exchange requests against a resolved provider
// binding: it builds the upstream URL, applies the effective transformer
// pipeline, sends the request with stream forced off, and decodes the
// upstream response back into a provider-neutral exchange.Response.
package client

import (
	"compress/gzip"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/mihaisavezi/llmgateway/internal/config"
)

// newHTTPClient clones http.DefaultTransport rather than constructing a
// bare Transport from scratch, preserving env-proxy, dial, and TLS
// handshake defaults while overriding only what this proxy needs to
// control per provider: response header timeout and disabled transport
// compression (the proxy decodes bodies itself so it can read them fully
// before running response transformers).
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	transport.DisableCompression = true

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// decodeUpstreamBody reads and decompresses an upstream response body
// according to its Content-Encoding header. Upstream APIs occasionally
// gzip or brotli-compress error bodies even when the client didn't ask
// for compression via Accept-Encoding.
func decodeUpstreamBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	return io.ReadAll(reader)
}

// timeoutFor returns the effective per-request timeout for a provider
// binding, used both to build its *http.Client and to let container
// rebuilds decide whether an existing client can be reused unchanged.
func timeoutFor(p config.ProviderConfig) time.Duration {
	return time.Duration(p.Timeout()) * time.Second
}
