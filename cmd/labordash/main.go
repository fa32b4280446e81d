package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nulllvoid/labordash"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "labordash",
	Short: "Labor market statistics dashboard",
	Long: `labordash explores Occupational Employment and Wage Statistics: wages,
employment and geographic and industry breakdowns per occupation.

Each dataset is loaded from an ordered list of sources (remote endpoints,
local files); the first source that yields a valid table wins.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSnapshotCmd())
}

// setup loads the config and builds the dashboard every command shares.
func setup() (labordash.Config, *labordash.Dashboard, *labordash.Counters, error) {
	cfg, err := labordash.LoadConfig(configPath)
	if err != nil {
		return cfg, nil, nil, err
	}

	counters := labordash.NewCounters()
	catalog, err := labordash.BuildCatalog(cfg, logger, counters)
	if err != nil {
		return cfg, nil, nil, err
	}
	dash := labordash.NewDashboard(cfg, catalog,
		labordash.DashboardWithLogger(logger),
		labordash.DashboardWithMetrics(counters),
	)
	return cfg, dash, counters, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
