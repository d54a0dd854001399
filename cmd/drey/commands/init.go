package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/printer"
)

var initForce bool

// defaultConfig is the scaffolded drey.yml. Validation ships disabled because
// the built-in lexical oracle has no validation counterpart; enable it when
// wiring a real validation oracle programmatically.
const defaultConfig = `version: "1.0"

# Owning repository or issue-pool identifier, e.g. "owner/repo"
pool: "my-org/my-repo"

store:
  backend: file
  dir: .drey/batches
  # backend: redis
  # redis:
  #   addr: localhost:6379

batching:
  similarity_threshold: 0.7
  min_batch_size: 1
  max_batch_size: 5
  validate: false
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default drey.yml in the current directory",
	Long: `Create a default drey.yml configuration file in the current directory.

The scaffolded config uses the file store backend under .drey/batches and
the default batching parameters. Edit the pool name before forming batches.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing drey.yml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = "drey.yml"
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return printer.Error(
			fmt.Sprintf("%s already exists", path),
			"Refusing to overwrite an existing configuration.",
			[]string{"Use --force to overwrite it", "Pass --config to write elsewhere"},
		)
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	printer.Success("Created %s\n", path)
	printer.Info("Edit the pool name, then run 'drey form --items issues.json'\n")
	return nil
}
