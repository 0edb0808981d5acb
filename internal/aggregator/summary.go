package aggregator

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// levelOrder is the display order for the summary.
var levelOrder = []string{"V", "D", "I", "W", "E", "F"}

// WriteSummary prints a human-readable session summary.
func WriteSummary(w io.Writer, s Stats) error {
	var b strings.Builder

	fmt.Fprintf(&b, "rendered %d line(s) in %s (%.1f/s over the last 5s)\n", s.Rendered, s.Uptime, s.EPS)
	fmt.Fprintf(&b, "dropped: %d unparsed, %d filtered, %d noise, %d write failures\n",
		s.Rejected, s.Filtered, s.Noise, s.WriteFailed)

	var levels []string
	seen := make(map[string]bool, len(levelOrder))
	for _, l := range levelOrder {
		seen[l] = true
		if n := s.LevelCounts[l]; n > 0 {
			levels = append(levels, fmt.Sprintf("%s=%d", l, n))
		}
	}
	var extra []string
	for l, n := range s.LevelCounts {
		if !seen[l] && n > 0 {
			extra = append(extra, l)
		}
	}
	sort.Strings(extra)
	for _, l := range extra {
		levels = append(levels, fmt.Sprintf("%s=%d", l, s.LevelCounts[l]))
	}
	if len(levels) > 0 {
		fmt.Fprintf(&b, "levels: %s\n", strings.Join(levels, " "))
	}

	for _, tc := range s.TopTags {
		fmt.Fprintf(&b, "  %-23s %d\n", tc.Tag, tc.Count)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
