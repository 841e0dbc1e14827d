// Command syncpoint inspects and reconciles replication checkpoints.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/viant/syncpoint/config"
)

var (
	configPath string
	save       bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	reconcileCmd.Flags().BoolVar(&save, "save", false, "persist the reconciled checkpoint to both stores")

	rootCmd.AddCommand(idCmd, listCmd, showCmd, validateCmd, reconcileCmd, adminCmd)
}

var rootCmd = &cobra.Command{
	Use:           "syncpoint",
	Short:         "inspect and reconcile replication checkpoints",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "syncpoint:", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds a logger at its level.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}
