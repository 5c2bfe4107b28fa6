package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"volscribe/internal/config"
	"volscribe/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p := newStatusPrinter(cmd.OutOrStdout())

			p.section("Configuration")
			p.line("Config", statusInfo, ctx.configPath)
			printCatalog(p, cfg)
			p.line("Engine", statusInfo, cfg.Transcription.Engine)
			p.line("Archive", statusInfo, cfg.Archive.Backend)

			p.section("Dependencies")
			missing := 0
			for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
				switch {
				case status.Available:
					p.line(status.Name, statusOK, status.Path)
				case status.Optional:
					p.line(status.Name, statusWarn, status.Detail)
				default:
					missing++
					p.line(status.Name, statusError, status.Detail)
				}
			}
			if missing > 0 {
				return fmt.Errorf("%d required dependency(ies) missing", missing)
			}
			return nil
		},
	}
}

func printCatalog(p *statusPrinter, cfg *config.Config) {
	switch {
	case cfg.Catalog.Endpoint != "":
		p.line("Catalog", statusOK, cfg.Catalog.Endpoint)
	case cfg.Catalog.Manifest != "":
		p.line("Catalog", statusOK, "manifest "+cfg.Catalog.Manifest)
	default:
		p.line("Catalog", statusWarn, "no endpoint or manifest configured")
	}
}
