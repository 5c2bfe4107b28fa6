package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"volscribe/internal/artifacts"
	"volscribe/internal/catalog"
	"volscribe/internal/pipeline"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <collection>",
		Short: "Show each volume's progress on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			source, err := catalog.New(cfg, logger)
			if err != nil {
				return err
			}
			collectionID := args[0]
			volumes, err := source.ListVolumes(cmd.Context(), collectionID)
			if err != nil {
				return err
			}
			files, err := artifacts.ListDir(cfg.CollectionDir(collectionID))
			if err != nil {
				return err
			}
			rows := pipeline.Status(pipeline.OptionsFromConfig(cfg).Layout, volumes, files)

			if jsonOutput {
				return writeJSON(cmd, rows)
			}

			out := cmd.OutOrStdout()
			table := make([][]string, 0, len(rows))
			done := 0
			for _, row := range rows {
				if row.State == pipeline.StateTranscribed {
					done++
				}
				table = append(table, []string{
					strconv.Itoa(row.Volume.Number),
					row.Volume.ExternalID,
					row.StateName,
					row.MediaFile,
				})
			}
			fmt.Fprint(out, renderTable([]string{"Volume", "Media ID", "State", "Media File"}, table, 0))
			fmt.Fprintf(out, "%d of %d volumes transcribed\n", done, len(rows))
			if _, err := os.Stat(cfg.ArchivePath(collectionID)); err == nil {
				fmt.Fprintf(out, "Archive: %s\n", cfg.ArchivePath(collectionID))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print volume states as JSON")
	return cmd
}
