package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/process"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gateway service status",
	Long:  `Display the current status of the LLM gateway service.`,
	Run:   runStatus,
}

func runStatus(_ *cobra.Command, _ []string) {
	procMgr := process.NewManager(baseDir)

	running := procMgr.IsRunning()
	pid := procMgr.ReadPID()
	refs := procMgr.ReadRef()

	color.Blue("Status for %s:", AppName)
	fmt.Printf("  %-15s: %v\n", "Running", running)
	fmt.Printf("  %-15s: %d\n", "PID", pid)

	serverCfg, err := config.LoadServerConfig(serverConfigPath)
	if err == nil {
		fmt.Printf("  %-15s: %s\n", "Host", serverCfg.Host)
		fmt.Printf("  %-15s: %d\n", "Port", serverCfg.Port)
		fmt.Printf("  %-15s: %s\n", "Endpoint", fmt.Sprintf("http://%s:%d", serverCfg.Host, serverCfg.Port))

		if userCfg, err := config.LoadUserConfig(serverCfg.UserConfigPath); err == nil {
			fmt.Printf("  %-15s: %d\n", "Providers", len(userCfg.Providers))
			fmt.Printf("  %-15s: %d\n", "Model aliases", len(userCfg.Models))
		}
	}

	fmt.Printf("  %-15s: %s\n", "Server config", serverConfigPath)
	fmt.Printf("  %-15s: %d\n", "References", refs)
	fmt.Printf("  %-15s: v%s\n", "Version", Version)
}
