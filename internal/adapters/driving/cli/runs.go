package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/app"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recent ingestion runs",
	Long: `Lists recent ingestion runs, newest first. With a run id, shows that run.
Runs are recorded in the local database under the data directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "output runs as JSON")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, closeFn, err := openServices(cmd.Context(), cfg, app.Options{IndexOnly: true})
	if err != nil {
		return err
	}
	defer closeFn()
	if svc.Runs == nil {
		return errNotConfigured("run")
	}

	var runs []domain.Run
	if len(args) > 0 {
		run, err := svc.Runs.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		runs = []domain.Run{*run}
	} else {
		runs, err = svc.Runs.List(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
	}

	if runsJSON {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal runs: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOLLECTION\tSTATUS\tSTARTED\tDURATION\tPASSAGES\tWARNINGS\tSOURCE")
	for i := range runs {
		r := &runs[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Collection, r.Status,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Duration().Round(time.Second),
			r.Passages+r.Summaries, r.Warnings, r.Source)
		if r.Error != "" {
			fmt.Fprintf(tw, "\terror: %s\n", r.Error)
		}
	}
	return tw.Flush()
}
