package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"AriaFM/config"
	"AriaFM/logger"
	"AriaFM/server"
)

var rootCmd = &cobra.Command{
	Use:   "ariafm",
	Short: "AriaFM is a self-hosted music server speaking the OpenSubsonic API.",
	Run: func(cmd *cobra.Command, args []string) {
		initRuntime()
		server.Start()
	},
}

// initRuntime loads configuration and sets up the global logger. Every
// subcommand that touches the stack calls it first.
func initRuntime() *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	return cfg
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
