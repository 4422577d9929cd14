package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/settlerhq/settler/internal/pipeline"
	"github.com/settlerhq/settler/internal/scheduler"
	"github.com/settlerhq/settler/internal/store"
)

var (
	syncStorePath string
	syncBackend   string
	syncTimeout   time.Duration
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one resolution pass over the stored markets",
	Long: `Sync loads the market store, checks every market that is due (AI
oracle, deadline passed, not yet resolved, recheck interval elapsed), and
saves the updated state if anything changed.

Example:
  settler sync
  settler sync --store markets.json
  settler sync --backend sqlite --store settler.db`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncStorePath, "store", "", "market store path (overrides config)")
	syncCmd.Flags().StringVar(&syncBackend, "backend", "", "store backend: file or sqlite (overrides config)")
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 10*time.Minute, "overall pass timeout")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if syncStorePath != "" {
		cfg.Store.Path = syncStorePath
	}
	if syncBackend != "" {
		cfg.Store.Backend = syncBackend
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening market store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	logger := newLogger()
	sched := scheduler.New(pipeline.FromConfig(cfg, logger), st, cfg.Scheduler, cfg.Concurrency, logger)

	result, err := sched.SyncStored(ctx)
	if err != nil {
		return fmt.Errorf("sync pass: %w", err)
	}

	fmt.Printf("Checked %d of %d markets\n", result.Updated, len(result.Markets))
	return nil
}
