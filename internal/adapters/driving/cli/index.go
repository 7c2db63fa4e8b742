package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/app"
)

var indexPath string

var indexCmd = &cobra.Command{
	Use:   "index [collection]",
	Short: "Rebuild the keyword sidecar index",
	Long: `Sweeps every point in a collection and writes the id to text map used
for keyword retrieval, without ingesting anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexPath, "path", "", "output file (default <collection>_bm25_index.json)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	collection := cfg.Collection
	if len(args) > 0 {
		collection = args[0]
	}

	svc, closeFn, err := openServices(cmd.Context(), cfg, app.Options{IndexOnly: true})
	if err != nil {
		return err
	}
	defer closeFn()
	if svc.Index == nil {
		return errNotConfigured("index")
	}

	result, err := svc.Index.BuildIndex(cmd.Context(), collection, indexPath)
	if err != nil {
		return err
	}

	if result.Warning != nil {
		cmd.Printf("Built %d entries but could not write %s: %v\n", result.Entries, result.Path, result.Warning.Err)
		return nil
	}
	cmd.Printf("Wrote %d entries to %s\n", result.Entries, result.Path)
	return nil
}
