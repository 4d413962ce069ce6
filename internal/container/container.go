// Package container assembles a ServiceContainer -- the complete set of
// per-provider HTTP clients, the transformer loader, and the router --
// from a validated UserConfig snapshot, and swaps it in atomically on
// reload so in-flight requests never observe a half-updated
// configuration.
package container

import (
	"log/slog"
	"time"

	"github.com/mihaisavezi/llmgateway/internal/client"
	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/dump"
	"github.com/mihaisavezi/llmgateway/internal/routing"
	"github.com/mihaisavezi/llmgateway/internal/transformers"
)

// ServiceContainer is one immutable, fully-wired snapshot of the
// runtime: build a new one on every reload rather than mutating an
// existing container's fields.
type ServiceContainer struct {
	Config    *config.UserConfig
	Router    *routing.Router
	Loader    *transformers.Loader
	Providers map[string]*client.ProviderClient
	Fallback  *client.ProviderClient
}

// Build wires a ServiceContainer from a validated UserConfig: one
// ProviderClient per declared provider plus the compiled-in Anthropic
// fallback, all sharing a single transformer Loader instance cache.
// dumper may be nil, in which case dumping is a no-op regardless of what
// any caller's config would otherwise request.
func Build(cfg *config.UserConfig, dumper *dump.Dumper) (*ServiceContainer, error) {
	loader := transformers.NewLoader(cfg.TransformerPaths)
	router := routing.New(cfg)

	providerClients := make(map[string]*client.ProviderClient, len(cfg.Providers))
	for _, p := range cfg.Providers {
		pc, err := client.NewProviderClient(p, loader, dumper)
		if err != nil {
			return nil, err
		}
		providerClients[p.Name] = pc
	}

	fallbackClient, err := client.NewProviderClient(router.FallbackProviderConfig(), loader, dumper)
	if err != nil {
		return nil, err
	}

	return &ServiceContainer{
		Config:    cfg,
		Router:    router,
		Loader:    loader,
		Providers: providerClients,
		Fallback:  fallbackClient,
	}, nil
}

// ProviderFor returns the ProviderClient bound to a routing result,
// falling back to the compiled-in Anthropic client when the router
// reports it used the fallback binding.
func (s *ServiceContainer) ProviderFor(providerName string, usedFallback bool) *client.ProviderClient {
	if usedFallback {
		return s.Fallback
	}
	return s.Providers[providerName]
}

// closeAfter releases every ProviderClient's pooled connections after
// delay has elapsed, giving in-flight requests issued against the
// previous container time to complete (spec §4.6 drain semantics).
func (s *ServiceContainer) closeAfter(delay time.Duration, logger *slog.Logger) {
	time.AfterFunc(delay, func() {
		for _, pc := range s.Providers {
			pc.Close()
		}
		s.Fallback.Close()
		if logger != nil {
			logger.Debug("drained previous service container's http clients")
		}
	})
}
