package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/settlerhq/settler/internal/pipeline"
	"github.com/settlerhq/settler/internal/scheduler"
	"github.com/settlerhq/settler/internal/store"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the resolution daemon",
	Long: `Run executes sync passes on the configured tick interval until
interrupted. Each pass checks the markets that have become due and saves
any state changes.

Example:
  settler run
  settler run --config ./settler.yaml -v`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening market store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	sched := scheduler.New(pipeline.FromConfig(cfg, logger), st, cfg.Scheduler, cfg.Concurrency, logger)

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}
