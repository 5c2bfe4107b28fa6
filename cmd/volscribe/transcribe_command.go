package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"volscribe/internal/pipeline"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var (
		volume       int
		upload       bool
		skipPrior    bool
		allowPartial bool
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <collection>",
		Short: "Download, transcribe and archive a collection",
		Long: `Run every volume of a collection through download, transcription and
integration. Work already on disk is skipped, so re-running resumes where the
previous run stopped. Per-volume failures are reported but do not fail the
command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			env, err := buildPipeline(cmd.Context(), cfg, logger, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.Close()

			summary, err := env.orchestrator.Run(cmd.Context(), args[0], pipeline.RunOptions{
				Volume:             volume,
				SkipPrior:          skipPrior,
				Upload:             upload || cfg.Archive.UploadOnComplete,
				AllowPartialUpload: allowPartial,
			})
			if summary != nil {
				if jsonOutput {
					if jsonErr := writeJSON(cmd, newSummaryView(summary)); jsonErr != nil {
						return jsonErr
					}
				} else {
					printSummary(newStatusPrinter(cmd.OutOrStdout()), summary)
				}
			}
			return err
		},
	}

	cmd.Flags().IntVar(&volume, "volume", 0, "Only process this volume number")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload the archive to the configured store")
	cmd.Flags().BoolVar(&skipPrior, "skip-prior", false, "Do not look up prior transcripts")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "Upload even when volumes are missing from the archive")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")
	return cmd
}

type failureView struct {
	Volume int    `json:"volume"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

type summaryView struct {
	RunID        string         `json:"run_id"`
	CollectionID string         `json:"collection_id"`
	Volumes      []int          `json:"volumes"`
	Transcribed  []int          `json:"transcribed"`
	Remaining    []int          `json:"remaining"`
	Missing      []int          `json:"missing,omitempty"`
	Passes       int            `json:"passes"`
	ArchivePath  string         `json:"archive_path,omitempty"`
	Uploaded     bool           `json:"uploaded"`
	States       map[int]string `json:"states"`
	Failures     []failureView  `json:"failures,omitempty"`
}

func newSummaryView(s *pipeline.Summary) summaryView {
	view := summaryView{
		RunID:        s.RunID,
		CollectionID: s.CollectionID,
		Volumes:      nonNil(s.Volumes),
		Transcribed:  nonNil(s.Transcribed),
		Remaining:    nonNil(s.Remaining),
		Passes:       s.Passes,
		ArchivePath:  s.ArchivePath,
		Uploaded:     s.Uploaded,
		States:       make(map[int]string, len(s.States)),
	}
	if s.Gap != nil {
		view.Missing = s.Gap.Volumes
	}
	for n, state := range s.States {
		view.States[n] = state.String()
	}
	for _, f := range s.Failures {
		view.Failures = append(view.Failures, failureView{Volume: f.Volume, Stage: f.Stage, Error: f.Err.Error()})
	}
	return view
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func printSummary(p *statusPrinter, s *pipeline.Summary) {
	p.section("Collection " + s.CollectionID)

	progress := fmt.Sprintf("%d of %d volumes in %d pass(es)", len(s.Transcribed), len(s.Volumes), s.Passes)
	if len(s.Remaining) > 0 {
		p.line("Transcribed", statusWarn, progress)
		p.line("Remaining", statusWarn, joinInts(s.Remaining))
	} else {
		p.line("Transcribed", statusOK, progress)
	}
	switch {
	case s.ArchivePath == "":
		p.line("Archive", statusError, "not written")
	case s.Gap != nil:
		p.line("Archive", statusWarn, fmt.Sprintf("%s (missing %s)", s.ArchivePath, joinInts(s.Gap.Volumes)))
	default:
		p.line("Archive", statusOK, s.ArchivePath)
	}
	p.line("Uploaded", statusInfo, yesNo(s.Uploaded))

	if len(s.Failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		rows = append(rows, []string{strconv.Itoa(f.Volume), f.Stage, f.Err.Error()})
	}
	fmt.Fprint(p.out, renderTable([]string{"Volume", "Stage", "Error"}, rows, 0))
}

func joinInts(values []int) string {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
