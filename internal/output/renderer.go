package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/atikulmunna/droidlog/internal/model"
	"github.com/atikulmunna/droidlog/internal/palette"
	"github.com/atikulmunna/droidlog/internal/parser"
)

// NoiseMarker appears in diagnostic lines logcat emits about itself.
// Such lines are never shown.
const NoiseMarker = "nativeGetEnabledTags"

const (
	sep        = " "
	levelWidth = 1
	timeWidth  = 12 // "16:13:47.624"
)

// TextRenderer prints logcat lines to a terminal with per-tag colors,
// severity badges and wrapping aligned under the header column.
//
// A TextRenderer is driven by a single goroutine; it shares the tag color
// state across calls and is not safe for concurrent use.
type TextRenderer struct {
	w       io.Writer
	cfg     Config
	include map[string]struct{}
	exclude map[string]struct{}
	colors  *palette.Assigner
	lip     *lipgloss.Renderer
	levels  map[string]lipgloss.Style
	tags    map[lipgloss.Color]lipgloss.Style
}

// NewTextRenderer returns a renderer writing to w. Tag colors come from
// colors, which keeps its assignments across every line rendered.
func NewTextRenderer(w io.Writer, cfg Config, colors *palette.Assigner, mode ColorMode) *TextRenderer {
	if cfg.TagWidth < 0 {
		cfg.TagWidth = 0
	}
	if cfg.TerminalWidth < 0 {
		cfg.TerminalWidth = 0
	}

	lip := lipgloss.NewRenderer(w)
	switch mode {
	case ColorAlways:
		lip.SetColorProfile(termenv.ANSI)
	case ColorNever:
		lip.SetColorProfile(termenv.Ascii)
	}

	return &TextRenderer{
		w:       w,
		cfg:     cfg,
		include: toSet(cfg.Include),
		exclude: toSet(cfg.Exclude),
		colors:  colors,
		lip:     lip,
		levels:  levelStyles(lip),
		tags:    make(map[lipgloss.Color]lipgloss.Style),
	}
}

// Config returns the layout the renderer was built with.
func (r *TextRenderer) Config() Config { return r.cfg }

// Render formats raw and writes the result. The returned record is set for
// lines that parsed, including filtered ones. Write failures are reported
// wrapped in ErrWriteFailed and are not retried.
func (r *TextRenderer) Render(raw string) (model.Record, error) {
	block, rec, err := r.format(raw)
	if err != nil {
		return rec, err
	}
	if _, err := io.WriteString(r.w, block); err != nil {
		return rec, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return rec, nil
}

// Format returns the block Render would write for raw, newline included.
func (r *TextRenderer) Format(raw string) (string, error) {
	block, _, err := r.format(raw)
	return block, err
}

func (r *TextRenderer) format(raw string) (string, model.Record, error) {
	if strings.Contains(raw, NoiseMarker) {
		return "", model.Record{}, ErrNoise
	}

	rec, ok := parser.Parse(raw)
	if !ok {
		return "", model.Record{}, ErrParseRejected
	}
	if !r.shouldShow(rec.Tag) {
		return "", rec, ErrFilteredOut
	}

	var b strings.Builder
	b.Grow(len(raw) + HeaderSize(r.cfg) + 32)
	r.writeHeader(&b, rec)

	size := HeaderSize(r.cfg)
	if r.cfg.TerminalWidth == 0 || r.cfg.TerminalWidth <= size {
		b.WriteString(rec.Msg)
	} else {
		wrap(&b, rec.Msg, r.cfg.TerminalWidth-size, size)
	}
	b.WriteByte('\n')

	return b.String(), rec, nil
}

// shouldShow applies the exclude set before the include set.
func (r *TextRenderer) shouldShow(tag string) bool {
	if _, ok := r.exclude[tag]; ok {
		return false
	}
	if len(r.include) == 0 {
		return true
	}
	_, ok := r.include[tag]
	return ok
}

func (r *TextRenderer) writeHeader(b *strings.Builder, rec model.Record) {
	b.WriteString(r.tagStyle(rec.Tag).Render(fit(rec.Tag, r.cfg.TagWidth, r.cfg.AlignRight)))
	b.WriteString(sep)

	if r.cfg.IncludeTime {
		b.WriteByte('[')
		b.WriteString(fit(rec.Time, timeWidth, false))
		b.WriteByte(']')
		b.WriteString(sep)
	}

	level := fit(rec.Level, levelWidth, false)
	if style, ok := r.levels[level]; ok {
		b.WriteString(style.Render(level))
	} else {
		b.WriteString(level)
	}
	b.WriteString(sep)
}

func (r *TextRenderer) tagStyle(tag string) lipgloss.Style {
	c := r.colors.Color(tag)
	style, ok := r.tags[c]
	if !ok {
		style = r.lip.NewStyle().Foreground(c).TabWidth(lipgloss.NoTabConversion)
		r.tags[c] = style
	}
	return style
}

func levelStyles(lip *lipgloss.Renderer) map[string]lipgloss.Style {
	badge := func(fg, bg lipgloss.Color) lipgloss.Style {
		return lip.NewStyle().Foreground(fg).Background(bg)
	}
	errStyle := badge(palette.Black, palette.Red)
	return map[string]lipgloss.Style{
		"V": badge(palette.White, palette.Black),
		"D": badge(palette.Black, palette.Blue),
		"I": badge(palette.Black, palette.Green),
		"W": badge(palette.Black, palette.Yellow),
		"E": errStyle,
		"F": errStyle,
	}
}

// fit pads or truncates s to exactly width terminal columns.
func fit(s string, width int, alignRight bool) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	pad := width - ansi.StringWidth(s)
	if pad <= 0 {
		return s
	}
	if alignRight {
		return strings.Repeat(" ", pad) + s
	}
	return s + strings.Repeat(" ", pad)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
