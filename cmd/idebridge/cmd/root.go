package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/corey/idebridge/internal/config"
	"github.com/corey/idebridge/internal/logger"
)

var (
	flagConfig string
	flagRoot   string
)

var rootCmd = &cobra.Command{
	Use:          "idebridge",
	Short:        "IDE to source index bridge",
	Long:         "Resolves IDE cursor positions to indexed token locations, imports Visual Studio solutions and jumps the IDE to source locations.",
	SilenceUsage: true,
}

// projectRoot returns the project root (--root, or cwd by default).
func projectRoot() string {
	if flagRoot != "" {
		abs, err := filepath.Abs(flagRoot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return abs
	}
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// loadConfig resolves configuration for root: --config when given,
// otherwise <root>/idebridge.yaml.
func loadConfig(root string) (*config.Config, error) {
	if flagConfig != "" {
		return config.LoadFrom(flagConfig)
	}
	return config.Load(root)
}

// newLogger builds the process logger from cfg.
func newLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.Logging)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default <root>/idebridge.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "project root (default current directory)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(jumpCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(configCmd)
}
