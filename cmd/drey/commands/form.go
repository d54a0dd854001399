package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/engine"
	"github.com/dyluth/drey/internal/oracle"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/pkg/batch"
)

var formItemsPath string

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Form batches from a pool of issues",
	Long: `Form batches from a pool of issues exported as a JSON file.

The issues file is a JSON array of objects with number, title, body, and
labels. Issues already owned by a batch are skipped, so re-running form on
the same pool is safe and only processes new issues.

Similarity is judged by the built-in lexical oracle (token and label
overlap). Batch validation requires an external validation oracle and is
only available to programmatic users of the engine; when drey.yml enables
it, form proceeds with validation disabled and says so.`,
	RunE: runForm,
}

func init() {
	formCmd.Flags().StringVar(&formItemsPath, "items", "", "Path to the JSON issues file (required)")
	formCmd.MarkFlagRequired("items")
	rootCmd.AddCommand(formCmd)
}

func runForm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	issues, err := batch.LoadIssues(formItemsPath)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		printer.Info("No issues in %s, nothing to do\n", formItemsPath)
		return nil
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if *cfg.Batching.Validate {
		printer.Warning("batch validation needs an external validation oracle; proceeding with validation disabled\n")
	}

	batcher, err := engine.New(st, oracle.NewLexical(), nil, engine.Options{
		Pool:                cfg.Pool,
		SimilarityThreshold: *cfg.Batching.SimilarityThreshold,
		MinBatchSize:        *cfg.Batching.MinBatchSize,
		MaxBatchSize:        *cfg.Batching.MaxBatchSize,
		ValidationEnabled:   false,
	})
	if err != nil {
		return err
	}

	printer.Step("Analyzing %d issues for batching...\n", len(issues))

	batches, err := batcher.FormBatches(ctx, issues)
	if err != nil {
		return err
	}

	if len(batches) == 0 {
		printer.Info("No new batches formed (all issues already batched)\n")
		return nil
	}

	for _, b := range batches {
		printer.Success("Batch %s: %d issue(s), primary #%d\n", b.ID, len(b.Issues), b.PrimaryIssue)
	}
	printer.Info("\n%d batch(es) formed\n", len(batches))

	return nil
}
