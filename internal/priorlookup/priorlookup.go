// Package priorlookup queries an index of transcripts produced elsewhere so a
// volume can skip download and transcription entirely.
//
// The index answers GET {endpoint}?video_id=<id> with {"transcript_url": "..."};
// the transcript document is {segments:[{start,end,text}], timestamp,
// metadata:{srt_link}} and is returned as a segment-timed raw result.
package priorlookup

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"volscribe/internal/httpjson"
	"volscribe/internal/logging"
	"volscribe/internal/mirror"
	"volscribe/internal/services"
	"volscribe/internal/transcript"
)

// Client looks up and fetches prior transcripts.
type Client struct {
	endpoint string
	http     *httpjson.Client
	logger   *slog.Logger
}

// New constructs a Client for endpoint.
func New(endpoint string, hc *httpjson.Client, logger *slog.Logger) *Client {
	if hc == nil {
		hc = httpjson.New()
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     hc,
		logger:   logging.NewComponentLogger(logger, "prior-lookup"),
	}
}

type indexResponse struct {
	TranscriptURL string `json:"transcript_url"`
}

// FindExistingTranscriptURL returns the transcript URL recorded for
// externalID. A 404 or an empty URL reports found=false without error.
func (c *Client) FindExistingTranscriptURL(ctx context.Context, externalID string) (string, bool, error) {
	var resp indexResponse
	err := c.http.GetJSON(ctx, c.endpoint, url.Values{"video_id": {externalID}}, &resp)
	if err != nil {
		if httpjson.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, services.Wrap(services.ErrTransient, "prior-lookup", "find transcript", externalID, err)
	}
	link := strings.TrimSpace(resp.TranscriptURL)
	if link == "" {
		return "", false, nil
	}
	logging.WithContext(ctx, c.logger).Debug("prior transcript found",
		logging.String("external_id", externalID),
		logging.String("url", mirror.Redact(link)),
	)
	return link, true, nil
}

type document struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Timestamp *time.Time `json:"timestamp"`
	Metadata  struct {
		SRTLink string `json:"srt_link"`
	} `json:"metadata"`
}

// FetchExistingTranscript downloads the transcript at link. The result keeps
// the upstream timestamp, and SourceURL is the subtitle link when present,
// else link itself.
func (c *Client) FetchExistingTranscript(ctx context.Context, link string) (transcript.RawResult, error) {
	var doc document
	if err := c.http.GetJSON(ctx, link, nil, &doc); err != nil {
		marker := services.ErrTransient
		if httpjson.IsNotFound(err) {
			marker = services.ErrNotFound
		}
		return transcript.RawResult{}, services.Wrap(marker, "prior-lookup", "fetch transcript", mirror.Redact(link), err)
	}
	if len(doc.Segments) == 0 {
		return transcript.RawResult{}, services.Wrap(services.ErrValidation, "prior-lookup", "fetch transcript", "document has no segments", nil)
	}

	entries := make([]transcript.RawEntry, 0, len(doc.Segments))
	for _, seg := range doc.Segments {
		entries = append(entries, transcript.RawEntry{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	source := strings.TrimSpace(doc.Metadata.SRTLink)
	if source == "" {
		source = link
	}
	result := transcript.RawResult{
		Kind:      transcript.SegmentTimed,
		Entries:   entries,
		SourceURL: source,
	}
	if doc.Timestamp != nil {
		ts := doc.Timestamp.UTC()
		result.Timestamp = &ts
	}
	return result, nil
}
