package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	AppName = "llmgateway"
	Version = "0.3.0"
)

var (
	logger  *slog.Logger
	homeDir string
	baseDir string

	// serverConfigPath is resolved once at startup; it points at the
	// static ServerConfig document, which in turn names the
	// hot-reloadable UserConfig path.
	serverConfigPath string
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger = slog.New(handler)

	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		logger.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}

	baseDir = filepath.Join(homeDir, "."+AppName)
	serverConfigPath = filepath.Join(baseDir, "server.yaml")
}

var rootCmd = &cobra.Command{
	Use:     "llmgateway",
	Short:   "LLM Gateway - protocol-adapting reverse proxy",
	Long:    `A reverse proxy that adapts Anthropic Messages and OpenAI Responses ingress traffic onto Anthropic, OpenAI, and Gemini upstream providers.`,
	Version: Version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&serverConfigPath, "config", serverConfigPath, "path to the server config document")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
}

func ensureConfigExists() error {
	if _, err := os.Stat(serverConfigPath); err != nil {
		color.Yellow("Server config not found at %s", serverConfigPath)
		color.Yellow("Run 'llmgateway config init' to scaffold one.")
		return err
	}
	return nil
}
