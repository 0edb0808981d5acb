// Package palette hands out stable display colors for log tags.
package palette

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ANSI base colors. Using the 0-7 codes keeps the output readable with
// whatever color scheme the terminal is configured for.
const (
	Black   = lipgloss.Color("0")
	Red     = lipgloss.Color("1")
	Green   = lipgloss.Color("2")
	Yellow  = lipgloss.Color("3")
	Blue    = lipgloss.Color("4")
	Magenta = lipgloss.Color("5")
	Cyan    = lipgloss.Color("6")
	White   = lipgloss.Color("7")
)

// Mode selects how colors are assigned to tags.
type Mode string

const (
	// Rotate cycles all six colors, red included, with no special cases.
	Rotate Mode = "rotate"
	// ErrorAware cycles five colors and keeps red for tags that mention an error.
	ErrorAware Mode = "error"
)

// ParseMode validates a mode name from configuration.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", Rotate:
		return Rotate, nil
	case ErrorAware:
		return ErrorAware, nil
	default:
		return "", fmt.Errorf("unknown palette mode %q (want %q or %q)", s, Rotate, ErrorAware)
	}
}

// Assigner maps tags to colors. The first time a tag is seen it takes the
// color at the front of the ring and the ring rotates by one; after that the
// tag keeps its color for the lifetime of the Assigner.
//
// An Assigner is not safe for concurrent use.
type Assigner struct {
	mode     Mode
	ring     []lipgloss.Color
	assigned map[string]lipgloss.Color
}

// New returns an Assigner seeded for the given mode.
func New(mode Mode) *Assigner {
	var ring []lipgloss.Color
	switch mode {
	case ErrorAware:
		ring = []lipgloss.Color{Green, Yellow, Blue, Magenta, Cyan}
	default:
		mode = Rotate
		ring = []lipgloss.Color{Red, Green, Yellow, Blue, Magenta, Cyan}
	}
	return &Assigner{
		mode:     mode,
		ring:     ring,
		assigned: make(map[string]lipgloss.Color),
	}
}

// Mode reports the assignment policy in use.
func (a *Assigner) Mode() Mode { return a.mode }

// Color returns the color for tag, assigning one on first sight.
func (a *Assigner) Color(tag string) lipgloss.Color {
	if c, ok := a.assigned[tag]; ok {
		return c
	}

	var c lipgloss.Color
	if a.mode == ErrorAware && isErrorTag(tag) {
		c = Red
	} else {
		c = a.ring[0]
		copy(a.ring, a.ring[1:])
		a.ring[len(a.ring)-1] = c
	}

	a.assigned[tag] = c
	return c
}

// Len reports how many distinct tags have been assigned a color.
func (a *Assigner) Len() int { return len(a.assigned) }

func isErrorTag(tag string) bool {
	return strings.Contains(tag, "error") || strings.Contains(tag, "Error")
}
