package transcript

import (
	"fmt"
	"strings"
)

// Render formats one "<minutes>:<SS>: <body>" line per segment, using each
// segment's own start time.
func Render(segments []Segment) string {
	lines := make([]string, len(segments))
	for i, seg := range segments {
		lines[i] = FormatTimestamp(seg.Start) + ": " + seg.Body
	}
	return strings.Join(lines, "\n")
}

// FormatTimestamp renders whole seconds as minutes and two-digit seconds.
// Minutes are not padded or wrapped into hours.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
