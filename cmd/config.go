package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mihaisavezi/llmgateway/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the LLM gateway's server and user configuration documents.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold server and user config documents",
	Long:  `Prompt for a single provider binding and write out server.yaml and config.yaml scaffolds. Additional providers, aliases, and routing stages can be added by editing config.yaml afterward; the running gateway hot-reloads it.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Long:  `Display the resolved server and user configuration, with API keys masked.`,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the user config document",
	Long:  `Parse config.yaml and report cross-reference errors (unknown providers, unmapped routing stages, duplicate aliases).`,
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	color.Blue("LLM Gateway configuration setup")
	color.Yellow("This scaffolds a single provider and a default routing stage.")
	color.Yellow("Edit config.yaml afterward to add more providers, aliases, or per-stage routing.")

	reader := bufio.NewReader(os.Stdin)

	providerName := prompt(reader, "Provider name (e.g. anthropic-direct)")
	providerType := prompt(reader, "Provider type [anthropic|openai|openai-responses|gemini]")
	baseURL := prompt(reader, "Base URL")
	apiKey := prompt(reader, "API key (leave blank to use !env VAR_NAME)")
	modelID := prompt(reader, "Upstream model id")
	alias := prompt(reader, "Alias to expose (e.g. default)")

	userCfg := config.UserConfig{
		Providers: []config.ProviderConfig{
			{
				Name:    providerName,
				Type:    config.ProviderKind(providerType),
				BaseURL: baseURL,
				APIKey:  apiKey,
			},
		},
		Models: []config.ModelAlias{
			{Alias: alias, ID: modelID, Provider: providerName},
		},
		Routing: config.RoutingTable{Default: alias},
	}

	if err := userCfg.Validate(); err != nil {
		return fmt.Errorf("scaffolded config is invalid: %w", err)
	}

	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	userConfigPath := filepath.Join(baseDir, "config.yaml")
	if err := writeYAML(userConfigPath, &userCfg); err != nil {
		return err
	}

	serverCfg := config.ServerConfig{
		Host:                 config.DefaultHost,
		Port:                 config.DefaultPort,
		UserConfigPath:       userConfigPath,
		DrainIntervalSeconds: config.DefaultDrainIntervalSeconds,
	}
	if err := writeYAML(serverConfigPath, &serverCfg); err != nil {
		return err
	}

	color.Green("Wrote %s and %s", serverConfigPath, userConfigPath)
	color.Cyan("Start the gateway with: llmgateway start")

	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	serverCfg, err := config.LoadServerConfig(serverConfigPath)
	if err != nil {
		return fmt.Errorf("load server config: %w", err)
	}

	color.Blue("Server config (%s):", serverConfigPath)
	fmt.Printf("  %-15s: %s\n", "Host", serverCfg.Host)
	fmt.Printf("  %-15s: %d\n", "Port", serverCfg.Port)
	fmt.Printf("  %-15s: %s\n", "User config", serverCfg.UserConfigPath)

	userCfg, err := config.LoadUserConfig(serverCfg.UserConfigPath)
	if err != nil {
		return fmt.Errorf("load user config: %w", err)
	}

	fmt.Println("\nProviders:")
	for _, p := range userCfg.Providers {
		fmt.Printf("  - %s (%s) %s key=%s\n", p.Name, p.Type, p.BaseURL, maskString(p.APIKey))
	}

	fmt.Println("\nModel aliases:")
	for _, m := range userCfg.Models {
		fmt.Printf("  - %s -> %s/%s\n", m.Alias, m.Provider, m.ID)
	}

	fmt.Println("\nRouting:")
	fmt.Printf("  %-15s: %s\n", "default", userCfg.Routing.Default)

	return nil
}

func runConfigValidate(_ *cobra.Command, _ []string) error {
	serverCfg, err := config.LoadServerConfig(serverConfigPath)
	if err != nil {
		return fmt.Errorf("load server config: %w", err)
	}

	if _, err := config.LoadUserConfig(serverCfg.UserConfigPath); err != nil {
		color.Red("Configuration is invalid: %v", err)
		return err
	}

	color.Green("Configuration is valid")
	return nil
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
