package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dubber/internal/runstore"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showEvents string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent dubbing runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runstore.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if showEvents != "" {
				return printRunEvents(cmd, store, showEvents)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					fmt.Sprintf("%s -> %s", run.SourceLang, run.TargetLang),
					describeRunStatus(run),
					humanize.Time(run.StartedAt),
					runDuration(run),
					run.SourceURL,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Languages", "Status", "Started", "Duration", "Source"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&showEvents, "events", "", "Show the engine attempt trail for a run ID")

	return cmd
}

func printRunEvents(cmd *cobra.Command, store *runstore.Store, runID string) error {
	events, err := store.Events(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No events recorded for run %s\n", runID)
		return nil
	}

	rows := make([][]string, 0, len(events))
	for _, event := range events {
		detail := event.Detail
		if detail == "" {
			detail = "-"
		}
		rows = append(rows, []string{
			event.Stage,
			event.Engine,
			event.Outcome,
			event.Elapsed.Round(time.Millisecond).String(),
			detail,
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), renderTable(
		[]string{"Stage", "Engine", "Outcome", "Elapsed", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func describeRunStatus(run runstore.Run) string {
	if run.Status == runstore.StatusFailed && run.FailedStage != "" {
		return "failed (" + run.FailedStage + ")"
	}
	return run.Status
}

func runDuration(run runstore.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
}
