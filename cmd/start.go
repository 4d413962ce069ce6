package cmd

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/container"
	"github.com/mihaisavezi/llmgateway/internal/dump"
	"github.com/mihaisavezi/llmgateway/internal/process"
	"github.com/mihaisavezi/llmgateway/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway service",
	Long:  `Start the LLM gateway in the foreground.`,
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	if err := ensureConfigExists(); err != nil {
		return err
	}

	serverCfg, err := config.LoadServerConfig(serverConfigPath)
	if err != nil {
		return err
	}

	logger = buildLogger(verbose, serverCfg.Log)

	cfgMgr, err := config.NewManager(serverCfg.UserConfigPath, logger)
	if err != nil {
		return err
	}
	cfgMgr.StartWatching()
	defer cfgMgr.StopWatching()

	drainAfter := time.Duration(serverCfg.DrainIntervalSeconds) * time.Second
	dumper := dump.New(serverCfg.Dump)

	containerMgr, err := container.NewManager(cfgMgr, drainAfter, dumper, logger)
	if err != nil {
		return err
	}

	color.Green("Starting %s v%s...", AppName, Version)
	logger.Info("starting gateway",
		"host", serverCfg.Host,
		"port", serverCfg.Port,
		"providers", len(cfgMgr.Get().Providers),
		"dump_enabled", serverCfg.Dump.Enabled,
	)

	procMgr := process.NewManager(baseDir)
	if err := procMgr.WritePID(); err != nil {
		return err
	}
	defer procMgr.CleanupPID()

	srv := server.New(serverCfg, cfgMgr, containerMgr, logger)
	return srv.Start()
}

// buildLogger wires gopkg.in/natefinch/lumberjack.v2 rotation onto the
// slog text handler when log.file is set; otherwise logs go to stdout.
func buildLogger(verbose bool, logCfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else if logCfg.Level != "" {
		_ = level.UnmarshalText([]byte(logCfg.Level))
	}

	var out io.Writer = os.Stdout
	if logCfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   logCfg.File,
			MaxSize:    logCfg.MaxSize,
			MaxBackups: logCfg.MaxBackups,
			MaxAge:     logCfg.MaxAge,
			Compress:   logCfg.Compress,
		}
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}
