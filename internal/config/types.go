// Package config implements the two-layer configuration model: a static
// ServerConfig read once at startup, and a hot-reloadable UserConfig
// describing providers, model aliases, routing, and transformer search
// paths. The Manager owns an atomically-swapped snapshot of the parsed,
// validated UserConfig so readers never observe a partially reloaded
// state.
package config

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 6970

	DefaultUpstreamTimeoutSeconds = 60
	DefaultDrainIntervalSeconds   = 30
)

// ProviderKind is a descriptor kind key (see internal/providers).
type ProviderKind string

const (
	KindAnthropic      ProviderKind = "anthropic"
	KindOpenAI         ProviderKind = "openai"
	KindOpenAIResponses ProviderKind = "openai-responses"
	KindGemini         ProviderKind = "gemini"
)

// TransformerRef is a single entry in a transformer list: a fully
// qualified class name plus an optional parameter block passed to the
// loader's factory closure.
type TransformerRef struct {
	Class  string         `yaml:"class"`
	Params map[string]any `yaml:"params,omitempty"`
}

// TransformerOverrides holds the six merge keys per stage described in
// spec §4.3/§6: a full override plus a pre/post list, for each of
// request, response, and stream.
type TransformerOverrides struct {
	Request  *[]TransformerRef `yaml:"request,omitempty"`
	Response *[]TransformerRef `yaml:"response,omitempty"`
	Stream   *[]TransformerRef `yaml:"stream,omitempty"`

	PreRequest  []TransformerRef `yaml:"pre_request,omitempty"`
	PostRequest []TransformerRef `yaml:"post_request,omitempty"`

	PreResponse  []TransformerRef `yaml:"pre_response,omitempty"`
	PostResponse []TransformerRef `yaml:"post_response,omitempty"`

	PreStream  []TransformerRef `yaml:"pre_stream,omitempty"`
	PostStream []TransformerRef `yaml:"post_stream,omitempty"`
}

// refLists returns every TransformerRef list declared across all six
// merge keys, request/response/stream, so validate can walk them
// uniformly.
func (t TransformerOverrides) refLists() [][]TransformerRef {
	lists := [][]TransformerRef{t.PreRequest, t.PostRequest, t.PreResponse, t.PostResponse, t.PreStream, t.PostStream}
	for _, override := range []*[]TransformerRef{t.Request, t.Response, t.Stream} {
		if override != nil {
			lists = append(lists, *override)
		}
	}
	return lists
}

// validate rejects any TransformerRef naming a class the builtin registry
// does not recognize, so an unresolvable class is a config error raised
// at reload time rather than a request-time transformer_failed 5xx.
func (t TransformerOverrides) validate() error {
	if KnownTransformerClasses == nil {
		return nil
	}
	for _, refs := range t.refLists() {
		for _, ref := range refs {
			if !KnownTransformerClasses(ref.Class) {
				return fmt.Errorf("unknown transformer class %q", ref.Class)
			}
		}
	}
	return nil
}

// ProviderConfig is a user-declared upstream binding.
type ProviderConfig struct {
	Name          string                `yaml:"name"`
	Type          ProviderKind          `yaml:"type"`
	BaseURL       string                `yaml:"base_url"`
	APIKey        string                `yaml:"api_key"`
	TimeoutSeconds int                  `yaml:"timeout,omitempty"`
	Transformers  TransformerOverrides `yaml:"transformers,omitempty"`
}

// Timeout returns the effective upstream timeout, defaulted per spec §5.
func (p ProviderConfig) Timeout() int {
	if p.TimeoutSeconds <= 0 {
		return DefaultUpstreamTimeoutSeconds
	}
	return p.TimeoutSeconds
}

// ModelAlias maps a user-facing alias to a provider-native model id on a
// named provider.
type ModelAlias struct {
	Alias    string `yaml:"alias"`
	ID       string `yaml:"id"`
	Provider string `yaml:"provider"`
}

// RoutingTable is the stage -> alias mapping. Default must be present;
// the rest fall back to Default when unmapped (spec §4.4).
type RoutingTable struct {
	Default      string `yaml:"default"`
	BuiltinTools string `yaml:"builtin_tools,omitempty"`
	Thinking     string `yaml:"thinking,omitempty"`
	Planning     string `yaml:"planning,omitempty"`
	Background   string `yaml:"background,omitempty"`
	PlanAndThink string `yaml:"plan_and_think,omitempty"`
}

// AliasFor resolves a routing key to an alias, falling back to Default
// when the stage is unmapped, per spec §4.4.
func (r RoutingTable) AliasFor(routingKey string) string {
	var alias string
	switch routingKey {
	case "builtin_tools":
		alias = r.BuiltinTools
	case "thinking":
		alias = r.Thinking
	case "planning":
		alias = r.Planning
	case "background":
		alias = r.Background
	case "plan_and_think":
		alias = r.PlanAndThink
	}
	if alias == "" {
		return r.Default
	}
	return alias
}

// KnownTransformerClasses, when set, reports whether a transformer class
// name resolves against the builtin registry. internal/transformers sets
// this from its own init() so Validate can reject unresolvable
// TransformerRef entries at reload time (spec §4.3, §4.6, §7); config
// cannot import internal/transformers directly since transformers already
// imports config for TransformerRef and ProviderConfig, so the check is
// wired the other way around, mirroring the image.RegisterFormat-style
// registration hooks used elsewhere in the ecosystem to break import
// cycles. Left nil, Validate skips the check -- this only happens if a
// caller links internal/config without ever importing internal/transformers.
var KnownTransformerClasses func(class string) bool

// UserConfig is the hot-reloadable document: providers, model aliases,
// routing table, and transformer search paths.
type UserConfig struct {
	TransformerPaths []string         `yaml:"transformer_paths,omitempty"`
	Providers        []ProviderConfig `yaml:"providers"`
	Models           []ModelAlias     `yaml:"models"`
	Routing          RoutingTable     `yaml:"routing"`
}

// Validate checks the cross-reference invariants from spec §3: every
// alias resolves to a known provider, every routing entry resolves to a
// known alias, no duplicate provider names, default routing is present,
// and base URLs parse as a scheme+host origin.
func (c *UserConfig) Validate() error {
	if c.Routing.Default == "" {
		return fmt.Errorf("routing table must define \"default\"")
	}

	seenProviders := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider entry missing name")
		}
		if seenProviders[p.Name] {
			return fmt.Errorf("duplicate provider name %q", p.Name)
		}
		seenProviders[p.Name] = true

		if err := validateOrigin(p.BaseURL); err != nil {
			return fmt.Errorf("provider %q: %w", p.Name, err)
		}
		switch p.Type {
		case KindAnthropic, KindOpenAI, KindOpenAIResponses, KindGemini:
		default:
			return fmt.Errorf("provider %q: unknown type %q", p.Name, p.Type)
		}

		if err := p.Transformers.validate(); err != nil {
			return fmt.Errorf("provider %q: %w", p.Name, err)
		}
	}

	seenAliases := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.Alias == "" {
			return fmt.Errorf("model entry missing alias")
		}
		if seenAliases[m.Alias] {
			return fmt.Errorf("duplicate model alias %q", m.Alias)
		}
		seenAliases[m.Alias] = true

		if !seenProviders[m.Provider] {
			return fmt.Errorf("model alias %q references unknown provider %q", m.Alias, m.Provider)
		}
	}

	for stage, alias := range map[string]string{
		"default":        c.Routing.Default,
		"builtin_tools":  c.Routing.BuiltinTools,
		"thinking":       c.Routing.Thinking,
		"planning":       c.Routing.Planning,
		"background":     c.Routing.Background,
		"plan_and_think": c.Routing.PlanAndThink,
	} {
		if alias == "" {
			continue
		}
		if !seenAliases[alias] {
			return fmt.Errorf("routing stage %q references unknown model alias %q", stage, alias)
		}
	}

	return nil
}

func validateOrigin(raw string) error {
	if raw == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("base_url %q is not a valid URL: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q must include scheme and host", raw)
	}
	return nil
}

// ServerConfig is the static, read-once-at-startup document.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	Log LogConfig `yaml:"log"`

	Dump DumpConfig `yaml:"dump"`

	UserConfigPath string `yaml:"user_config_path"`

	DrainIntervalSeconds int `yaml:"drain_interval_seconds,omitempty"`
}

// LogConfig configures optional rotation of the structured log output.
type LogConfig struct {
	File       string `yaml:"file,omitempty"`
	MaxSize    int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAge     int    `yaml:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
	Level      string `yaml:"level,omitempty"`
}

// DumpConfig toggles on-disk dumps of sanitized headers/payloads per
// pipeline stage (spec §6 observability surface).
type DumpConfig struct {
	Enabled          bool   `yaml:"enabled,omitempty"`
	Directory        string `yaml:"directory,omitempty"`
	Headers          bool   `yaml:"headers,omitempty"`
	TransformedInput bool   `yaml:"transformed_input,omitempty"`
	UpstreamOutput   bool   `yaml:"upstream_output,omitempty"`
}

func (s *ServerConfig) applyDefaults() {
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.DrainIntervalSeconds == 0 {
		s.DrainIntervalSeconds = DefaultDrainIntervalSeconds
	}
	if s.UserConfigPath == "" {
		s.UserConfigPath = "config.yaml"
	}
}

// Addr returns the host:port bind address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BuiltinToolNames is the configurable set of built-in Anthropic tool
// names that trigger routing_key=builtin_tools (spec §9 Open Question).
// Not part of UserConfig because it is rarely reconfigured; exposed as a
// var so callers can override it, e.g. in tests.
var BuiltinToolNames = map[string]bool{
	"web_search": true,
	"web_fetch":  true,
}

// IsBuiltinToolName reports whether a tool "type"/"name" value should be
// treated as an Anthropic built-in tool for routing purposes.
func IsBuiltinToolName(name string) bool {
	if BuiltinToolNames[name] {
		return true
	}
	// Anthropic ships versioned type strings like "web_search_20241022";
	// match on the unversioned prefix too.
	for known := range BuiltinToolNames {
		if strings.HasPrefix(name, known) {
			return true
		}
	}
	return false
}
