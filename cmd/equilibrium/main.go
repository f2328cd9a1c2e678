package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/tspmeta/internal/config"
	"github.com/copyleftdev/tspmeta/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	// Interrupts cancel a run between sweeps and shut the server down
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(cfg, logger)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("Command failed", zap.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "equilibrium",
		Short: "Equilibrium energy statistics of the TSP under simulated annealing",
		Long: `
Samples random traveling-salesman tours with a Metropolis 2-opt sampler while
lowering the temperature, and reports the normalized mean and mean-square tour
length at every temperature.

equilibrium run -s 1 -t 100 -l 1`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(cfg, logger), newServeCmd(cfg, logger))
	return root
}
