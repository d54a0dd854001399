package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/engine"
	"github.com/dyluth/drey/internal/oracle"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/resolver"
)

var rmCmd = &cobra.Command{
	Use:   "rm <batch-id>",
	Short: "Remove a batch and release its issues",
	Long: `Remove a batch record and release its issues from the index, making
them available to future form runs.

Accepts a full batch ID or any unique prefix of at least 6 characters.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
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

	batcher, err := engine.New(st, oracle.NewLexical(), nil, engine.Options{Pool: cfg.Pool})
	if err != nil {
		return err
	}

	if err := batcher.RemoveBatch(ctx, batchID); err != nil {
		return err
	}

	printer.Success("Removed batch %s\n", batchID)
	return nil
}
