package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadServerConfig reads and parses the static server config document.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read server config: %w", err)
	}

	var cfg ServerConfig
	if err := decodeYAML(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse server config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// LoadUserConfig reads, resolves !env tags in, and validates the
// hot-reloadable user config document.
func LoadUserConfig(path string) (*UserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read user config: %w", err)
	}
	return ParseUserConfig(data)
}

// ParseUserConfig parses and validates a UserConfig document from raw
// YAML bytes, resolving !env tags first. Split out from LoadUserConfig so
// /api/config/validate-yaml can validate a candidate document without a
// round trip through the filesystem.
func ParseUserConfig(data []byte) (*UserConfig, error) {
	var cfg UserConfig
	if err := decodeYAML(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse user config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate user config: %w", err)
	}

	return &cfg, nil
}

// decodeYAML resolves !env tags against os.Getenv, then decodes into out.
func decodeYAML(data []byte, out any) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}

	resolveEnvTags(&root)

	return root.Decode(out)
}

// resolveEnvTags walks a yaml.Node tree, rewriting any scalar node tagged
// "!env" into a plain string carrying the named environment variable's
// value (empty string if unset).
func resolveEnvTags(node *yaml.Node) {
	if node == nil {
		return
	}

	if node.Kind == yaml.ScalarNode && node.Tag == "!env" {
		node.Value = os.Getenv(node.Value)
		node.Tag = "!!str"
	}

	for _, child := range node.Content {
		resolveEnvTags(child)
	}
}
