package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"volscribe/internal/catalog"
)

func newCollectionsCommand(ctx *commandContext) *cobra.Command {
	var (
		opts       catalog.ListOptions
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List collections in the catalog",
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
			collections, err := source.ListCollections(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if jsonOutput {
				if collections == nil {
					collections = []catalog.Collection{}
				}
				return writeJSON(cmd, collections)
			}
			if len(collections) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No collections found")
				return nil
			}
			rows := make([][]string, 0, len(collections))
			for _, c := range collections {
				volumes := "-"
				if len(c.Volumes) > 0 {
					volumes = strconv.Itoa(len(c.Volumes))
				}
				rows = append(rows, []string{c.ID, c.Title, volumes})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Title", "Volumes"}, rows, 0, 2))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "Only show this collection")
	cmd.Flags().StringVar(&opts.Library, "library", "", "Library filter (defaults to catalog.library)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum collections to list (defaults to catalog.page_limit)")
	cmd.Flags().StringVar(&opts.Before, "before", "", "Only list collections before this id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print collections as JSON")
	return cmd
}
