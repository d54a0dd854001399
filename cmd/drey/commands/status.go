package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/engine"
	"github.com/dyluth/drey/internal/oracle"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/resolver"
	"github.com/dyluth/drey/pkg/batch"
)

var statusError string

var statusCmd = &cobra.Command{
	Use:   "status <batch-id> <status>",
	Short: "Advance a batch through its lifecycle",
	Long: `Advance a batch to the next lifecycle status. Transitions follow
pending → analyzing → creating_spec → building → qa_review → pr_created →
completed; failed is reachable from any non-terminal status. Invalid
transitions are rejected.

Record an error message alongside a failed transition with --error.`,
	Args: cobra.ExactArgs(2),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusError, "error", "", "Error message to record on the batch")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	batchID, err := resolver.ResolveBatchID(ctx, st, args[0])
	if err != nil {
		if ambiguous, ok := err.(*resolver.AmbiguousError); ok {
			printer.Printf("%s\n", resolver.FormatAmbiguousError(ambiguous))
		}
		return err
	}

	next := batch.Status(args[1])
	if err := next.Validate(); err != nil {
		return err
	}

	batcher, err := engine.New(st, oracle.NewLexical(), nil, engine.Options{Pool: cfg.Pool})
	if err != nil {
		return err
	}

	b, err := batcher.UpdateStatus(ctx, batchID, next, statusError)
	if err != nil {
		return err
	}

	printer.Success("Batch %s is now %s\n", b.ID, b.Status)
	return nil
}
