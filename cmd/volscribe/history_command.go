package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"volscribe/internal/runlog"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		runID      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history [collection]",
		Short: "Show recorded transcription runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunLog(ctx, func(store *runlog.Store) error {
				if runID != "" {
					return showRun(cmd, store, runID, jsonOutput)
				}
				var collectionID string
				if len(args) == 1 {
					collectionID = args[0]
				}
				runs, err := store.ListRuns(cmd.Context(), collectionID, limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					if runs == nil {
						runs = []runlog.Run{}
					}
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						r.ID,
						r.CollectionID,
						string(r.Status),
						humanize.Time(r.StartedAt),
						formatRunDuration(r),
						fmt.Sprintf("%d/%d", r.VolumesTranscribed, r.VolumesTotal),
						yesNo(r.Uploaded),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Run", "Collection", "Status", "Started", "Duration", "Volumes", "Uploaded"},
					rows, 1, 4, 5,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show per-volume outcomes of one run")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return withRunLog(ctx, func(store *runlog.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age of the oldest run to keep")
	return cmd
}

func withRunLog(ctx *commandContext, fn func(*runlog.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func showRun(cmd *cobra.Command, store *runlog.Store, runID string, jsonOutput bool) error {
	run, err := store.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	outcomes, err := store.Outcomes(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, struct {
			Run      *runlog.Run            `json:"run"`
			Outcomes []runlog.VolumeOutcome `json:"outcomes"`
		}{run, outcomes})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (collection %s): %s\n", run.ID, run.CollectionID, run.Status)
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
	}
	if len(outcomes) == 0 {
		fmt.Fprintln(out, "No volume outcomes recorded")
		return nil
	}
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		detail := o.Detail
		if o.ErrorMessage != "" {
			detail = o.ErrorKind + ": " + o.ErrorMessage
		}
		rows = append(rows, []string{strconv.Itoa(o.Volume), o.Stage, o.Outcome, detail})
	}
	fmt.Fprint(out, renderTable([]string{"Volume", "Stage", "Outcome", "Detail"}, rows, 0))
	return nil
}

func formatRunDuration(r runlog.Run) string {
	if r.FinishedAt == nil {
		return "running"
	}
	return r.Duration().Round(time.Second).String()
}
