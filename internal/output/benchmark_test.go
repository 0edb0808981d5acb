package output

import (
	"io"
	"strings"
	"testing"

	"github.com/atikulmunna/droidlog/internal/palette"
)

// BenchmarkRender measures end-to-end rendering of a wrapped, colored line.
func BenchmarkRender(b *testing.B) {
	r := NewTextRenderer(io.Discard, Config{TagWidth: 23, IncludeTime: true, TerminalWidth: 120},
		palette.New(palette.Rotate), ColorAlways)
	line := "03-17 16:13:47.624 W/ActivityManager(  1234): " + strings.Repeat("slow operation détectée ", 20)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r.Render(line)
	}
}
