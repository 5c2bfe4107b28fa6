// Package mediasource resolves a volume's external media id into one or more
// equivalent direct download URLs.
package mediasource

import (
	"context"
	"fmt"
	"log/slog"

	"volscribe/internal/artifacts"
	"volscribe/internal/config"
	"volscribe/internal/services"
)

// Resolver returns candidate URLs for a volume.
type Resolver interface {
	ResolveCandidateURLs(ctx context.Context, v artifacts.Volume) ([]string, error)
}

// New returns the resolver selected by media.resolver.
func New(cfg *config.Config, logger *slog.Logger) (Resolver, error) {
	switch cfg.Media.Resolver {
	case config.ResolverYTDLP:
		return NewYTDLP(cfg.Media.YTDLPBinary, cfg.Media.Container, WithLogger(logger)), nil
	case config.ResolverTemplate:
		templates, err := NewTemplates(cfg.Media.MirrorTemplates)
		if err != nil {
			return nil, err
		}
		return templates, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "media", "select resolver", fmt.Sprintf("unsupported resolver %q", cfg.Media.Resolver), nil)
	}
}
