package routing

import (
	"os"

	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/exchange"
)

// Router resolves an exchange.Request into a concrete provider binding.
// It holds no mutable state beyond the UserConfig it was built from,
// so a config reload simply constructs a new Router rather than
// mutating one in place.
type Router struct {
	cfg              *config.UserConfig
	providersByName  map[string]config.ProviderConfig
	fallbackProvider config.ProviderConfig
}

// New builds a Router bound to a validated UserConfig snapshot. The
// snapshot is assumed already validated by config.UserConfig.Validate,
// so alias/provider lookups here are safe to treat as internally
// consistent.
func New(cfg *config.UserConfig) *Router {
	byName := make(map[string]config.ProviderConfig, len(cfg.Providers))
	for _, p := range cfg.Providers {
		byName[p.Name] = p
	}

	return &Router{
		cfg:              cfg,
		providersByName:  byName,
		fallbackProvider: defaultAnthropicFallback(),
	}
}

// defaultAnthropicFallback mirrors the compiled-in Anthropic binding
// used when the alias a classified stage maps to has no entry in the
// model list: it reads the API key from ANTHROPIC_API_KEY and the base
// URL from CCPROXY_FALLBACK_URL (default https://api.anthropic.com)
// rather than the user config, so a misconfigured routing table
// degrades to "talk to Anthropic directly" instead of a hard failure.
func defaultAnthropicFallback() config.ProviderConfig {
	baseURL := os.Getenv("CCPROXY_FALLBACK_URL")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	return config.ProviderConfig{
		Name:    "default-anthropic (fallback)",
		Type:    config.KindAnthropic,
		BaseURL: baseURL,
		APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
	}
}

// Route classifies and resolves a request per spec §4.4: explicit "!"
// override, then a "/model" directive in the first user message, then
// the ordered classifier rules, each producing an alias which is
// resolved against the routing table and model list. An override or
// directive alias missing from the model list is a model_not_found
// error rather than a fallback.
func (r *Router) Route(req *exchange.Request) (*exchange.RoutingResult, error) {
	if req.Channel != exchange.ChannelClaude {
		return r.routeDirect(req)
	}

	model, _ := req.Payload["model"].(string)

	var (
		routingKey RoutingKey
		alias      string
		features   exchange.RoutingFeatures
	)

	if override, ok := ExplicitOverride(model); ok {
		alias = override
		routingKey = KeyOverride
		features.ExplicitOverride = true
	} else if directive, ok := AgentDirective(req.Payload); ok {
		alias = directive
		routingKey = KeyOverride
		features.ExplicitOverride = true
	} else {
		routingKey = Classify(req.Payload)
		alias = r.cfg.Routing.AliasFor(string(routingKey))
		features.BuiltinTools = routingKey == KeyBuiltinTools
		features.PlanMode = routingKey == KeyPlanning || routingKey == KeyPlanAndThink
	}

	providerName, resolvedModelID, found := r.resolveAlias(alias)
	if !found && routingKey == KeyOverride {
		return nil, exchange.NewModelNotFoundError(alias)
	}

	var providerBinding config.ProviderConfig
	usedFallback := false

	if found {
		providerBinding = r.providersByName[providerName]
	} else {
		providerBinding = r.fallbackProvider
		resolvedModelID = model
		usedFallback = true
	}

	req.Payload["model"] = resolvedModelID
	req.Metadata["routing_key"] = string(routingKey)
	req.Metadata["provider_name"] = providerBinding.Name
	req.Metadata["provider_kind"] = string(providerBinding.Type)
	req.Metadata["provider_config"] = providerBinding

	return &exchange.RoutingResult{
		ProviderID:      providerBinding.Name,
		ResolvedModelID: resolvedModelID,
		RoutingKey:      string(routingKey),
		Alias:           alias,
		Features:        features,
		UsedFallback:    usedFallback,
	}, nil
}

// routeDirect handles the codex channel, whose payload.model is used
// directly as the alias with no classification step.
func (r *Router) routeDirect(req *exchange.Request) (*exchange.RoutingResult, error) {
	alias, _ := req.Payload["model"].(string)

	providerName, resolvedModelID, found := r.resolveAlias(alias)
	if !found {
		return nil, exchange.NewModelNotFoundError(alias)
	}

	providerBinding := r.providersByName[providerName]

	req.Payload["model"] = resolvedModelID
	req.Metadata["routing_key"] = string(KeyOverride)
	req.Metadata["provider_name"] = providerBinding.Name
	req.Metadata["provider_kind"] = string(providerBinding.Type)
	req.Metadata["provider_config"] = providerBinding

	return &exchange.RoutingResult{
		ProviderID:      providerBinding.Name,
		ResolvedModelID: resolvedModelID,
		RoutingKey:      string(KeyOverride),
		Alias:           alias,
		UsedFallback:    false,
	}, nil
}

// resolveAlias looks up an alias in the model table.
func (r *Router) resolveAlias(alias string) (providerName, resolvedModelID string, found bool) {
	for _, m := range r.cfg.Models {
		if m.Alias == alias {
			return m.Provider, m.ID, true
		}
	}
	return "", "", false
}

// ListModels returns every configured alias, for the config status API.
func (r *Router) ListModels() []string {
	names := make([]string, 0, len(r.cfg.Models))
	for _, m := range r.cfg.Models {
		names = append(names, m.Alias)
	}
	return names
}

// ProviderConfig looks up a provider binding by name.
func (r *Router) ProviderConfig(name string) (config.ProviderConfig, bool) {
	p, ok := r.providersByName[name]
	return p, ok
}

// FallbackProviderConfig exposes the compiled-in fallback binding so the
// container can build an HTTP client for it alongside user-declared
// providers.
func (r *Router) FallbackProviderConfig() config.ProviderConfig {
	return r.fallbackProvider
}
