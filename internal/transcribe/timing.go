package transcribe

import (
	"strings"

	"volscribe/internal/transcript"
)

// MinTokenSeconds is the shortest duration given to a word whose reported
// end does not follow its start.
const MinTokenSeconds = 0.01

// EnsurePositiveDurations stretches zero or negative length tokens to
// MinTokenSeconds. Recognizers report such words for very short utterances.
func EnsurePositiveDurations(tokens []transcript.RawToken) {
	for i := range tokens {
		if tokens[i].End <= tokens[i].Start {
			tokens[i].End = tokens[i].Start + MinTokenSeconds
		}
	}
}

// EntryFromTokens builds an entry spanning tokens. An empty text is replaced
// by the space-joined token texts.
func EntryFromTokens(text string, tokens []transcript.RawToken) transcript.RawEntry {
	if strings.TrimSpace(text) == "" {
		words := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			words = append(words, tok.Text)
		}
		text = strings.Join(words, " ")
	}
	entry := transcript.RawEntry{Text: text, Tokens: tokens}
	if len(tokens) > 0 {
		entry.Start = tokens[0].Start
		entry.End = tokens[len(tokens)-1].End
	}
	return entry
}
