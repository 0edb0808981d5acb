package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/atikulmunna/droidlog/internal/palette"
)

func newTestRenderer(buf *bytes.Buffer, cfg Config) *TextRenderer {
	return NewTextRenderer(buf, cfg, palette.New(palette.Rotate), ColorNever)
}

func TestRenderBasicLine(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf, Config{TagWidth: 10})

	if _, err := r.Render("03-17 16:13:47.624 I/flutter( 666): hello world"); err != nil {
		t.Fatal(err)
	}

	want := "flutter    I hello world\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestRenderAlignRightAndTruncate(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf, Config{TagWidth: 8, AlignRight: true})

	r.Render("03-17 16:13:47.624 D/net( 1): a")
	r.Render("03-17 16:13:47.624 D/ActivityManager( 1): b")

	want := "     net D a\nActivity D b\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestRenderWithTime(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf, Config{TagWidth: 4, IncludeTime: true})

	r.Render("03-17 16:13:47.624 W/net( 1): slow")
	r.Render("03-17 16:13:47 W/net( 1): short time")

	want := "net  [16:13:47.624] W slow\n" +
		"net  [16:13:47    ] W short time\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestHeaderSize(t *testing.T) {
	if got := HeaderSize(Config{TagWidth: 23}); got != 26 {
		t.Errorf("expected 26, got %d", got)
	}
	if got := HeaderSize(Config{TagWidth: 23, IncludeTime: true}); got != 41 {
		t.Errorf("expected 41 with time, got %d", got)
	}

	// The rendered header must be exactly HeaderSize columns wide.
	for _, withTime := range []bool{false, true} {
		cfg := Config{TagWidth: 6, IncludeTime: withTime}
		r := newTestRenderer(&bytes.Buffer{}, cfg)
		out, err := r.Format("03-17 16:13:47.624 I/tag( 1): X")
		if err != nil {
			t.Fatal(err)
		}
		if idx := strings.Index(out, "X"); idx != HeaderSize(cfg) {
			t.Errorf("time=%v: message starts at column %d, header size is %d", withTime, idx, HeaderSize(cfg))
		}
	}
}

func TestWrapChunks(t *testing.T) {
	var buf bytes.Buffer
	// Header is "flutter I " (10 columns); 10 columns remain for the message.
	r := newTestRenderer(&buf, Config{TagWidth: 7, TerminalWidth: 20})

	r.Render("03-17 16:13:47.624 I/flutter( 666): abcdefghijklmnopqrstuvwxy")

	indent := strings.Repeat(" ", 10)
	want := "flutter I abcdefghij\n" +
		indent + "klmnopqrst\n" +
		indent + "uvwxy\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestLongLevelKeepsHeaderWidth(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf, Config{TagWidth: 7, TerminalWidth: 20})

	if _, err := r.Render("03-17 16:13:47.624 Info/flutter( 666): abcdefghijklmnop"); err != nil {
		t.Fatal(err)
	}
	r.Render("03-17 16:13:47.624 /flutter( 666): no level")

	want := "flutter I abcdefghij\n" +
		"          klmnop\n" +
		"flutter   no level\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestWrapExactFit(t *testing.T) {
	r := newTestRenderer(&bytes.Buffer{}, Config{TagWidth: 7, TerminalWidth: 20})

	out, _ := r.Format("03-17 16:13:47.624 I/flutter( 666): abcdefghij")
	if out != "flutter I abcdefghij\n" {
		t.Errorf("expected a single line, got %q", out)
	}
}

func TestWrapKeepsMultiByteCharactersWhole(t *testing.T) {
	r := newTestRenderer(&bytes.Buffer{}, Config{TagWidth: 7, TerminalWidth: 20})

	// Nine ASCII bytes leave one byte of budget; the 3-byte euro sign moves
	// whole to the next chunk.
	out, _ := r.Format("03-17 16:13:47.624 I/flutter( 666): abcdefghi€xyz")

	want := "flutter I abcdefghi\n" + strings.Repeat(" ", 10) + "€xyz\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestWrapDisabled(t *testing.T) {
	msg := strings.Repeat("z", 100)
	line := "03-17 16:13:47.624 I/flutter( 666): " + msg

	for _, width := range []int{0, 5, 10} {
		r := newTestRenderer(&bytes.Buffer{}, Config{TagWidth: 7, TerminalWidth: width})
		out, err := r.Format(line)
		if err != nil {
			t.Fatal(err)
		}
		if out != "flutter I "+msg+"\n" {
			t.Errorf("width %d: expected unwrapped output, got %q", width, out)
		}
	}
}

func TestRenderDropsNoise(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf, Config{TagWidth: 7})

	_, err := r.Render("03-17 16:13:47.624 E/Trace( 1): error opening trace file: nativeGetEnabledTags")
	if !errors.Is(err, ErrNoise) {
		t.Errorf("expected ErrNoise, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestRenderDropsMalformed(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf, Config{TagWidth: 7})

	_, err := r.Render("\tat com.example.Foo.bar(Foo.java:42)")
	if !errors.Is(err, ErrParseRejected) {
		t.Errorf("expected ErrParseRejected, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestTagFilters(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		tag     string
		shown   bool
	}{
		{"no filters", nil, nil, "a", true},
		{"included", []string{"a"}, nil, "a", true},
		{"not included", []string{"a"}, nil, "b", false},
		{"excluded", nil, []string{"a"}, "a", false},
		{"excluded wins over included", []string{"a"}, []string{"a"}, "a", false},
		{"other tag excluded", nil, []string{"b"}, "a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := newTestRenderer(&buf, Config{TagWidth: 3, Include: tt.include, Exclude: tt.exclude})

			rec, err := r.Render("03-17 16:13:47.624 I/" + tt.tag + "( 1): msg")
			if tt.shown {
				if err != nil {
					t.Fatalf("expected line to render, got %v", err)
				}
				if buf.Len() == 0 {
					t.Error("expected output")
				}
				return
			}
			if !errors.Is(err, ErrFilteredOut) {
				t.Errorf("expected ErrFilteredOut, got %v", err)
			}
			if rec.Tag != tt.tag {
				t.Errorf("expected filtered record to carry tag %q, got %q", tt.tag, rec.Tag)
			}
			if buf.Len() != 0 {
				t.Errorf("expected no output, got %q", buf.String())
			}
		})
	}
}

func TestFilteredTagsDoNotConsumeColors(t *testing.T) {
	colors := palette.New(palette.Rotate)
	r := NewTextRenderer(&bytes.Buffer{}, Config{TagWidth: 3, Exclude: []string{"skip"}}, colors, ColorNever)

	r.Render("03-17 16:13:47.624 I/skip( 1): msg")
	r.Render("03-17 16:13:47.624 I/show( 1): msg")

	if got := colors.Color("show"); got != palette.Red {
		t.Errorf("expected first rendered tag to get the first ring color, got %s", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRenderWriteFailure(t *testing.T) {
	r := NewTextRenderer(failingWriter{}, Config{TagWidth: 3}, palette.New(palette.Rotate), ColorNever)

	rec, err := r.Render("03-17 16:13:47.624 I/app( 1): msg")
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "broken pipe") {
		t.Errorf("expected underlying error in message, got %q", err.Error())
	}
	if rec.Tag != "app" {
		t.Errorf("expected record for failed write, got %+v", rec)
	}

	// The renderer keeps working after a failed write.
	if _, err := r.Render("03-17 16:13:47.624 I/app( 1): again"); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("expected second write to fail the same way, got %v", err)
	}
}

func TestColorAlwaysEmitsEscapes(t *testing.T) {
	r := NewTextRenderer(&bytes.Buffer{}, Config{TagWidth: 3}, palette.New(palette.Rotate), ColorAlways)

	out, err := r.Format("03-17 16:13:47.624 E/app( 1): boom")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("expected ANSI escapes, got %q", out)
	}
	if !strings.HasSuffix(out, " boom\n") {
		t.Errorf("expected uncolored message at the end, got %q", out)
	}
}

func TestColorNeverMatchesPlainText(t *testing.T) {
	line := "03-17 16:13:47.624 E/app( 1): boom"
	plain, _ := newTestRenderer(&bytes.Buffer{}, Config{TagWidth: 3}).Format(line)

	if strings.Contains(plain, "\x1b[") {
		t.Errorf("expected no escapes, got %q", plain)
	}
	if plain != "app E boom\n" {
		t.Errorf("unexpected plain output %q", plain)
	}
}

func TestParseColorMode(t *testing.T) {
	if m, err := ParseColorMode(""); err != nil || m != ColorAuto {
		t.Errorf("expected auto for empty input, got %q (%v)", m, err)
	}
	if m, err := ParseColorMode("NEVER"); err != nil || m != ColorNever {
		t.Errorf("expected never, got %q (%v)", m, err)
	}
	if _, err := ParseColorMode("sometimes"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
