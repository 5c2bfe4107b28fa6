package transcript

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizationError reports a raw result that cannot produce valid segments.
type NormalizationError struct {
	Reason string
}

func (e *NormalizationError) Error() string {
	return "normalize transcript: " + e.Reason
}

// FillerSet matches disfluency tokens exactly. Comparison is case-sensitive
// and punctuation is significant; only surrounding whitespace and Unicode
// composition are normalized.
type FillerSet map[string]struct{}

// NewFillerSet builds a FillerSet from a list of tokens.
func NewFillerSet(fillers []string) FillerSet {
	set := make(FillerSet, len(fillers))
	for _, f := range fillers {
		if f = canonical(f); f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

// Contains reports whether text is a filler.
func (s FillerSet) Contains(text string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[canonical(text)]
	return ok
}

func canonical(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Normalize converts raw into canonical segments, dropping fillers.
func Normalize(raw RawResult, fillers FillerSet) ([]Segment, error) {
	var (
		out []Segment
		err error
	)
	switch raw.Kind {
	case TokenTimed:
		out, err = normalizeTokenTimed(raw.Entries, fillers)
	case SegmentTimed:
		out, err = normalizeSegmentTimed(raw.Entries, fillers)
	default:
		return nil, &NormalizationError{Reason: fmt.Sprintf("unsupported result kind %d", raw.Kind)}
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &NormalizationError{Reason: "no words remain after filtering"}
	}
	return out, nil
}

func normalizeTokenTimed(entries []RawEntry, fillers FillerSet) ([]Segment, error) {
	out := make([]Segment, 0, len(entries))
	for i, entry := range entries {
		tokens := make([]Token, 0, len(entry.Tokens))
		for j, raw := range entry.Tokens {
			text := collapseSpace(raw.Text)
			if text == "" || fillers.Contains(text) {
				continue
			}
			if raw.End <= raw.Start {
				return nil, &NormalizationError{Reason: fmt.Sprintf("entry %d token %d %q has end %.3f not after start %.3f", i, j, text, raw.End, raw.Start)}
			}
			tokens = append(tokens, Token{Start: raw.Start, End: raw.End, Text: text})
		}
		if len(tokens) == 0 {
			continue
		}
		out = append(out, NewSegment(tokens))
	}
	return out, nil
}

// normalizeSegmentTimed spreads each entry's duration evenly over the words
// left after filler removal. This is linear interpolation, not alignment.
func normalizeSegmentTimed(entries []RawEntry, fillers FillerSet) ([]Segment, error) {
	out := make([]Segment, 0, len(entries))
	for i, entry := range entries {
		words := make([]string, 0, 16)
		for _, word := range strings.Fields(entry.Text) {
			if fillers.Contains(word) {
				continue
			}
			words = append(words, word)
		}
		if len(words) == 0 {
			continue
		}
		if entry.End <= entry.Start {
			return nil, &NormalizationError{Reason: fmt.Sprintf("entry %d has end %.3f not after start %.3f", i, entry.End, entry.Start)}
		}
		slice := (entry.End - entry.Start) / float64(len(words))
		tokens := make([]Token, len(words))
		for j, word := range words {
			tokens[j] = Token{
				Start: entry.Start + float64(j)*slice,
				End:   entry.Start + float64(j+1)*slice,
				Text:  word,
			}
		}
		tokens[len(tokens)-1].End = entry.End
		out = append(out, NewSegment(tokens))
	}
	return out, nil
}
