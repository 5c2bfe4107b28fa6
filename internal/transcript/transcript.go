// Package transcript turns raw speech recognition output into canonical,
// timestamped segments, groups them into readable passages and builds the
// versioned collection archive.
//
// Two upstream shapes are accepted (see RawResult). Everything downstream of
// Normalize works on the single Segment type.
package transcript

import (
	"strings"
	"time"
)

// Token is one timed word.
type Token struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns End-Start.
func (t Token) Duration() float64 {
	return t.End - t.Start
}

// Segment is a run of tokens. Start and End always equal the first token's
// start and the last token's end, and Body is the space-joined token text.
type Segment struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Body   string  `json:"body"`
	Tokens []Token `json:"tokens"`
}

// NewSegment builds a Segment from a non-empty token slice.
func NewSegment(tokens []Token) Segment {
	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.Text
	}
	return Segment{
		Start:  tokens[0].Start,
		End:    tokens[len(tokens)-1].End,
		Body:   strings.Join(texts, " "),
		Tokens: tokens,
	}
}

// VolumeTranscript is the per-volume artifact written as "<volume>.json" and
// embedded in the archive.
type VolumeTranscript struct {
	Volume     int        `json:"volume"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	SourceURLs []string   `json:"sourceUrls,omitempty"`
	Segments   []Segment  `json:"segments"`
	Text       string     `json:"text,omitempty"`
}

// WordCount returns the number of tokens across all segments.
func (v VolumeTranscript) WordCount() int {
	n := 0
	for _, seg := range v.Segments {
		n += len(seg.Tokens)
	}
	return n
}

// Duration returns the end time of the last segment.
func (v VolumeTranscript) Duration() float64 {
	if len(v.Segments) == 0 {
		return 0
	}
	return v.Segments[len(v.Segments)-1].End
}

// collapseSpace squeezes whitespace runs, including line breaks, to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
