// Package main is the entry point for the myfocus daemon and CLI.
//
// Usage:
//
//	myfocus daemon          - Run the monitoring daemon
//	myfocus check           - Run one classification cycle and print the result
//	myfocus check --backend - Test the configured AI backend
//	myfocus stats           - Show today's focus statistics
//	myfocus focus [minutes] - Run a foreground focus session
//	myfocus task            - Manage tasks
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"myfocus/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var verbose bool

	root := &cobra.Command{
		Use:           "myfocus",
		Short:         "AI-assisted focus monitoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newDaemonCmd(&configPath, &verbose))
	root.AddCommand(newCheckCmd(&configPath, &verbose))
	root.AddCommand(newStatsCmd(&configPath))
	root.AddCommand(newFocusCmd(&configPath, &verbose))
	root.AddCommand(newTaskCmd(&configPath))
	return root
}

// newLogger builds the process logger. The daemon logs structured
// JSON; --verbose switches to human-readable console output with
// debug level.
func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	var log *zap.Logger
	var err error
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return cfg, nil
}
