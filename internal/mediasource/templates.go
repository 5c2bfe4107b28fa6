package mediasource

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"volscribe/internal/artifacts"
	"volscribe/internal/services"
)

// Templates expands URL templates for mirrors that serve media at
// predictable locations. Placeholders: {id} (escaped external id) and
// {volume}.
type Templates struct {
	templates []string
}

// NewTemplates validates and stores the templates.
func NewTemplates(templates []string) (*Templates, error) {
	if len(templates) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "media", "template resolver", "no mirror templates configured", nil)
	}
	for _, tmpl := range templates {
		if !strings.Contains(tmpl, "{id}") {
			return nil, services.Wrap(services.ErrConfiguration, "media", "template resolver", tmpl, errors.New("template has no {id} placeholder"))
		}
	}
	return &Templates{templates: append([]string(nil), templates...)}, nil
}

// ResolveCandidateURLs implements Resolver.
func (t *Templates) ResolveCandidateURLs(_ context.Context, v artifacts.Volume) ([]string, error) {
	replacer := strings.NewReplacer(
		"{id}", url.PathEscape(v.ExternalID),
		"{volume}", strconv.Itoa(v.Number),
	)
	out := make([]string, len(t.templates))
	for i, tmpl := range t.templates {
		out[i] = replacer.Replace(tmpl)
	}
	return out, nil
}
