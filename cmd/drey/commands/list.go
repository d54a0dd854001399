package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/display"
	"github.com/dyluth/drey/internal/timespec"
	"github.com/dyluth/drey/pkg/batch"
)

var (
	listJSON   bool
	listStatus string
	listSince  string
	listUntil  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List batches",
	Long: `List all batches for the configured pool, most recent first.

Filters:
  --status   only batches in the given lifecycle status
  --since    only batches created after a time ("1h30m" ago or RFC3339)
  --until    only batches created before a time

Use --json for machine-readable JSONL output.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSONL format")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by lifecycle status")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only batches created after this time")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Only batches created before this time")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	criteria := display.Criteria{}
	if listStatus != "" {
		status := batch.Status(listStatus)
		if err := status.Validate(); err != nil {
			return err
		}
		criteria.Status = status
	}
	criteria.Since, criteria.Until, err = timespec.ParseRange(listSince, listUntil)
	if err != nil {
		return err
	}

	batches, err := st.ListBatches(ctx)
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}
	batches = criteria.Apply(batches)

	if listJSON {
		return display.FormatJSONL(os.Stdout, batches)
	}

	display.FormatTable(os.Stdout, batches, cfg.Pool)
	return nil
}
