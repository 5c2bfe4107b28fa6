package transcript

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Default assembly thresholds.
const (
	DefaultMaxSecondsPerSegment = 240
	DefaultMinWordsPerSegment   = 10
	DefaultGapThreshold         = 2
)

// Options tunes Assemble.
type Options struct {
	// MaxSecondsPerSegment is the duration after which a group closes at the
	// next sentence-terminal token.
	MaxSecondsPerSegment float64
	// MinWordsPerSegment is the size below which a group never closes on
	// duration, punctuation or a hint. Gap boundaries still apply.
	MinWordsPerSegment int
	// GapThreshold is the silence, in seconds, after a sentence end that
	// forces a boundary.
	GapThreshold float64
	Fillers      []string
	Hints        []string
}

// DefaultOptions returns the standard thresholds with no fillers or hints.
func DefaultOptions() Options {
	return Options{
		MaxSecondsPerSegment: DefaultMaxSecondsPerSegment,
		MinWordsPerSegment:   DefaultMinWordsPerSegment,
		GapThreshold:         DefaultGapThreshold,
	}
}

// Assembly is the result of grouping segments.
type Assembly struct {
	Segments []Segment
	Text     string
}

// Assemble merges segments into bounded, sentence-respecting groups with a
// single greedy pass over the concatenated token stream.
func Assemble(segments []Segment, opts Options) (Assembly, error) {
	if opts.MaxSecondsPerSegment <= 0 {
		return Assembly{}, errors.New("assemble: max seconds per segment must be positive")
	}
	if opts.GapThreshold < 0 {
		return Assembly{}, errors.New("assemble: gap threshold must not be negative")
	}

	fillers := NewFillerSet(opts.Fillers)
	stream := make([]Token, 0, 256)
	for _, seg := range segments {
		for _, tok := range seg.Tokens {
			if fillers.Contains(tok.Text) {
				continue
			}
			stream = append(stream, tok)
		}
	}

	hints := compileHints(opts.Hints)
	var (
		out   []Segment
		group []Token
	)
	flush := func() {
		if len(group) == 0 {
			return
		}
		out = append(out, NewSegment(group))
		group = nil
	}

	for i, tok := range stream {
		if len(group) > 0 {
			prev := group[len(group)-1]
			switch {
			case isSentenceEnd(prev.Text) && tok.Start-prev.End > opts.GapThreshold:
				flush()
			case len(group) >= opts.MinWordsPerSegment &&
				prev.End-group[0].Start >= opts.MaxSecondsPerSegment &&
				hints.startsAt(stream, i):
				flush()
			}
		}
		group = append(group, tok)
		if len(group) >= opts.MinWordsPerSegment &&
			tok.End-group[0].Start >= opts.MaxSecondsPerSegment &&
			isSentenceEnd(tok.Text) {
			flush()
		}
	}
	flush()

	return Assembly{Segments: out, Text: Render(out)}, nil
}

func isSentenceEnd(text string) bool {
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "?") || strings.HasSuffix(text, "؟")
}

// hintSet holds hint phrases as word sequences in comparison form.
type hintSet [][]string

func compileHints(hints []string) hintSet {
	out := make(hintSet, 0, len(hints))
	for _, hint := range hints {
		words := strings.Fields(hint)
		if len(words) == 0 {
			continue
		}
		phrase := make([]string, len(words))
		for i, w := range words {
			phrase[i] = hintForm(w)
		}
		out = append(out, phrase)
	}
	return out
}

func (h hintSet) startsAt(stream []Token, index int) bool {
	for _, phrase := range h {
		if index+len(phrase) > len(stream) {
			continue
		}
		matched := true
		for j, word := range phrase {
			if hintForm(stream[index+j].Text) != word {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// hintForm is the NFC form of a word with surrounding punctuation removed.
func hintForm(word string) string {
	return strings.TrimFunc(norm.NFC.String(word), unicode.IsPunct)
}
