// Package dump writes sanitized snapshots of transformed request payloads
// and raw upstream responses to disk, gated entirely by config.DumpConfig.
// It exists purely as a debugging aid for wiring new transformer chains: a
// nil *Dumper, or one built from a disabled config, makes every call a
// no-op, so callers never need to branch on whether dumping is on.
package dump

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mihaisavezi/llmgateway/internal/config"
)

// Dumper writes pipeline snapshots for one server run's dump directory.
type Dumper struct {
	cfg config.DumpConfig
}

// New builds a Dumper from the static server-level dump config.
func New(cfg config.DumpConfig) *Dumper {
	return &Dumper{cfg: cfg}
}

func (d *Dumper) enabled() bool {
	return d != nil && d.cfg.Enabled && d.cfg.Directory != ""
}

// TransformedInput writes the post-transform payload actually sent
// upstream, named by correlation id and provider so a debugging session
// can line request/response pairs up.
func (d *Dumper) TransformedInput(correlationID, provider string, headers http.Header, payload map[string]any) {
	if !d.enabled() || !d.cfg.TransformedInput {
		return
	}

	doc := map[string]any{"provider": provider, "payload": payload}
	if d.cfg.Headers {
		doc["headers"] = sanitizeHeaders(headers)
	}

	d.write(correlationID, provider, "request", doc)
}

// UpstreamOutput writes the raw provider response body, before response
// transformers run, so a mistranslation can be traced to either side of
// the pipeline.
func (d *Dumper) UpstreamOutput(correlationID, provider string, status int, body []byte) {
	if !d.enabled() || !d.cfg.UpstreamOutput {
		return
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		parsed = string(body)
	}

	d.write(correlationID, provider, "response", map[string]any{"status": status, "body": parsed})
}

func (d *Dumper) write(correlationID, provider, stage string, doc any) {
	if err := os.MkdirAll(d.cfg.Directory, 0o755); err != nil {
		return
	}

	id := correlationID
	if id == "" {
		id = fmt.Sprintf("pid%d", os.Getpid())
	}
	name := fmt.Sprintf("%s-%s-%s-%s.json", timestamp(), id, provider, stage)
	path := filepath.Join(d.cfg.Directory, name)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return
	}

	_ = os.WriteFile(path, data, 0o600)
}

func timestamp() string {
	return time.Now().UTC().Format("20060102T150405.000000000Z")
}

func sanitizeHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		if isSensitiveHeader(k) {
			out[k] = []string{"[redacted]"}
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveHeader(name string) bool {
	switch http.CanonicalHeaderKey(name) {
	case "Authorization", "X-Api-Key":
		return true
	}
	return false
}
