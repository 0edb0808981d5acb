package output

import (
	"fmt"
	"strings"
)

// DefaultTagWidth is the tag column width used when none is configured.
const DefaultTagWidth = 23

// Config controls the layout of rendered lines. It is read-only once a
// renderer has been created from it.
type Config struct {
	TagWidth      int
	IncludeTime   bool
	Include       []string // when non-empty, only these tags are shown
	Exclude       []string // always hidden, even when also included
	TerminalWidth int      // 0 disables wrapping
	AlignRight    bool     // right-align tags inside their column
}

// HeaderSize is the number of columns taken by the header that precedes
// each message: tag, separator, optional bracketed time and separator,
// level, separator. Continuation lines are indented by this amount.
func HeaderSize(cfg Config) int {
	size := cfg.TagWidth + len(sep) + levelWidth + len(sep)
	if cfg.IncludeTime {
		size += timeWidth + 2 + len(sep)
	}
	return size
}

// ColorMode decides whether escape sequences are written.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a color mode name from configuration.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return "", fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
	}
}
