package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/display"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/resolver"
)

var getCmd = &cobra.Command{
	Use:   "get <batch-id>",
	Short: "Show one batch as JSON",
	Long: `Show the complete record of one batch as pretty-printed JSON.

Accepts a full batch ID or any unique prefix of at least 6 characters.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
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

	b, err := st.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}

	return display.FormatSingleJSON(os.Stdout, b)
}
