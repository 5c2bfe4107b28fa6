package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"volscribe/internal/artifacts"
	"volscribe/internal/httpjson"
	"volscribe/internal/logging"
	"volscribe/internal/services"
)

const defaultBefore = "9999"

// Client talks to the collections API.
type Client struct {
	endpoint  string
	http      *httpjson.Client
	library   string
	pageLimit int
	logger    *slog.Logger
}

// ClientOption customizes the client.
type ClientOption func(*Client)

// WithLibrary sets the default library filter.
func WithLibrary(library string) ClientOption {
	return func(c *Client) {
		c.library = strings.TrimSpace(library)
	}
}

// WithPageLimit sets the default listing size.
func WithPageLimit(limit int) ClientOption {
	return func(c *Client) {
		if limit > 0 {
			c.pageLimit = limit
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs an API client.
func NewClient(endpoint string, hc *httpjson.Client, opts ...ClientOption) *Client {
	if hc == nil {
		hc = httpjson.New()
	}
	c := &Client{endpoint: endpoint, http: hc, pageLimit: 10}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c
}

// rawCollection is the API's wire shape.
type rawCollection struct {
	ID          flexibleID `json:"id"`
	DisplayName string     `json:"display_name"`
	AuthorName  string     `json:"author_name"`
	FID         string     `json:"fid"`
}

func (r rawCollection) title() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{r.DisplayName, r.AuthorName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// ListCollections returns collections without resolving their volumes.
func (c *Client) ListCollections(ctx context.Context, opts ListOptions) ([]Collection, error) {
	params := url.Values{}
	if opts.ID != "" {
		params.Set("id", opts.ID)
	}
	library := opts.Library
	if library == "" {
		library = c.library
	}
	if library != "" {
		params.Set("library", library)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = c.pageLimit
	}
	params.Set("limit", strconv.Itoa(limit))
	before := opts.Before
	if before == "" {
		before = defaultBefore
	}
	params.Set("before", before)

	var raw []rawCollection
	if err := c.http.GetJSON(ctx, c.endpoint, params, &raw); err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "list collections", "", err)
	}
	out := make([]Collection, 0, len(raw))
	for _, r := range raw {
		out = append(out, Collection{ID: string(r.ID), Title: r.title()})
	}
	return out, nil
}

// Collection fetches one collection with its volume map resolved.
func (c *Client) Collection(ctx context.Context, id string) (Collection, error) {
	var raw []rawCollection
	if err := c.http.GetJSON(ctx, c.endpoint, url.Values{"id": {id}}, &raw); err != nil {
		return Collection{}, services.Wrap(services.ErrTransient, "catalog", "get collection", "collection "+id, err)
	}
	if len(raw) == 0 {
		return Collection{}, services.Wrap(services.ErrNotFound, "catalog", "get collection", "collection "+id, nil)
	}
	volumes, err := ParseVolumeMap(raw[0].FID)
	if err != nil {
		return Collection{}, services.Wrap(services.ErrValidation, "catalog", "parse volumes", "collection "+id, err)
	}
	c.logger.Debug("collection resolved",
		logging.String(logging.FieldCollectionID, id),
		logging.Int("volumes", len(volumes)),
	)
	return Collection{ID: string(raw[0].ID), Title: raw[0].title(), Volumes: volumes}, nil
}

// ListVolumes returns the collection's volumes in ascending order.
func (c *Client) ListVolumes(ctx context.Context, collectionID string) ([]artifacts.Volume, error) {
	col, err := c.Collection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if len(col.Volumes) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "list volumes", fmt.Sprintf("collection %s has no media", collectionID), nil)
	}
	return col.Volumes, nil
}
