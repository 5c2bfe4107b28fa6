package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"volscribe/internal/archivestore"
	"volscribe/internal/config"
	"volscribe/internal/fileutil"
	"volscribe/internal/transcript"
)

var gzipMagic = []byte{0x1f, 0x8b}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage collection archives in the archive store",
	}

	archiveCmd.AddCommand(newArchiveCheckCommand(ctx))
	archiveCmd.AddCommand(newArchiveDownloadCommand(ctx))
	archiveCmd.AddCommand(newArchiveUploadCommand(ctx))
	archiveCmd.AddCommand(newArchiveDeleteCommand(ctx))
	archiveCmd.AddCommand(newArchiveVerifyCommand())

	return archiveCmd
}

// withArchiveStore opens the configured store for the duration of fn.
func withArchiveStore(cmd *cobra.Command, ctx *commandContext, fn func(*config.Config, *archivestore.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	store, err := archivestore.Open(cmd.Context(), cfg.Archive, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func newArchiveCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <collection>",
		Short: "Report whether the archive store holds a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchiveStore(cmd, ctx, func(_ *config.Config, store *archivestore.Store) error {
				exists, err := store.Exists(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if exists {
					fmt.Fprintf(cmd.OutOrStdout(), "Collection %s is archived in %s\n", args[0], store.Backend())
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Collection %s is not archived in %s\n", args[0], store.Backend())
				}
				return nil
			})
		},
	}
}

func newArchiveDownloadCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <collection>",
		Short: "Fetch a collection archive from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchiveStore(cmd, ctx, func(cfg *config.Config, store *archivestore.Store) error {
				data, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, archivestore.ErrNotFound) {
						return fmt.Errorf("collection %s is not archived in %s", args[0], store.Backend())
					}
					return err
				}
				target := strings.TrimSpace(output)
				if target == "" {
					target = cfg.ArchivePath(args[0])
				} else if target, err = config.ExpandPath(target); err != nil {
					return err
				}
				if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
					return fmt.Errorf("write archive: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", target, humanize.IBytes(uint64(len(data))))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (defaults to the work directory)")
	return cmd
}

func newArchiveUploadCommand(ctx *commandContext) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "upload <collection>",
		Short: "Upload a local collection archive to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchiveStore(cmd, ctx, func(cfg *config.Config, store *archivestore.Store) error {
				source := strings.TrimSpace(input)
				if source == "" {
					source = cfg.ArchivePath(args[0])
				}
				data, err := os.ReadFile(source)
				if err != nil {
					return fmt.Errorf("read archive: %w", err)
				}
				if err := store.Put(cmd.Context(), args[0], data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s as %s\n", source, store.Backend(), archivestore.Key(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&input, "file", "f", "", "Archive file to upload (defaults to the work directory)")
	return cmd
}

func newArchiveDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection>",
		Short: "Remove a collection archive from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchiveStore(cmd, ctx, func(_ *config.Config, store *archivestore.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %s from %s\n", args[0], store.Backend())
				return nil
			})
		},
	}
}

func newArchiveVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "verify <file>",
		Short:       "Validate an archive file against the archive contract",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			if bytes.HasPrefix(data, gzipMagic) {
				if data, err = archivestore.Decompress(data); err != nil {
					return err
				}
			}
			archive, err := transcript.DecodeArchive(data)
			if err != nil {
				return err
			}
			words := 0
			for _, v := range archive.Transcripts {
				words += v.WordCount()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archive valid: contract %s, %d volume(s), %s words\n",
				archive.ContractVersion, len(archive.Transcripts), humanize.Comma(int64(words)))
			return nil
		},
	}
}
