package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/container"
)

// ConfigHandler serves the operator-facing config surface: current
// status, dry-run validation of a candidate YAML document, and a
// triggered reload of the on-disk user config.
type ConfigHandler struct {
	configManager    *config.Manager
	containerManager *container.Manager
	logger           *slog.Logger
}

func NewConfigHandler(cfgManager *config.Manager, containers *container.Manager, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{configManager: cfgManager, containerManager: containers, logger: logger}
}

// Status reports the active routing table and configured providers,
// without leaking API keys.
func (h *ConfigHandler) Status(w http.ResponseWriter, r *http.Request) {
	cfg := h.configManager.Get()

	providerNames := make([]string, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providerNames = append(providerNames, p.Name)
	}

	modelAliases := make([]string, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		modelAliases = append(modelAliases, m.Alias)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"providers": providerNames,
		"models":    modelAliases,
		"routing":   cfg.Routing,
	})
}

// Validate parses and validates a candidate UserConfig document supplied
// as a JSON body, without touching the filesystem or the running
// container. config.ParseUserConfig decodes via yaml.v3, which accepts
// JSON as a syntactic subset of YAML, so the same parser serves both this
// and ValidateYAML.
func (h *ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.validateBody(w, r)
}

// ValidateYAML parses and validates a candidate UserConfig document
// supplied as YAML text, without touching the filesystem or the running
// container, so an operator can check a document before writing it to
// disk.
func (h *ConfigHandler) ValidateYAML(w http.ResponseWriter, r *http.Request) {
	h.validateBody(w, r)
}

func (h *ConfigHandler) validateBody(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "error": "failed to read request body"})
		return
	}

	if _, err := config.ParseUserConfig(body); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// Reload re-reads the on-disk user config and, if it validates, swaps
// it in atomically via the config.Manager's reload listeners (which
// rebuild the container).
func (h *ConfigHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.configManager.Reload(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"reloaded": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reloaded": true})
}
