package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"volscribe/internal/fileutil"
	"volscribe/internal/pipeline"
	"volscribe/internal/transcript"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "render <volume.json>",
		Short: "Print the timestamped text of a volume transcript",
		Long: `Re-assemble a per-volume transcript with the current assembly settings and
print one "<minutes>:<seconds>: text" line per segment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var vt transcript.VolumeTranscript
			if err := fileutil.ReadJSON(args[0], &vt); err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			assembly, err := transcript.Assemble(vt.Segments, pipeline.OptionsFromConfig(cfg).Assembly)
			if err != nil {
				return err
			}
			if assembly.Text == "" {
				return fmt.Errorf("%s has no segments", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), assembly.Text)
			return nil
		},
	}
}
