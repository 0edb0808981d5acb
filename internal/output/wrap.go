package output

import (
	"strings"

	"github.com/rivo/uniseg"
)

// wrap writes msg to b in chunks of at most area bytes of encoded text.
// Chunks are built from whole grapheme clusters so a multi-byte character
// is never split: one that does not fit starts the next chunk. A cluster
// larger than the whole area gets a chunk to itself. Every chunk after the
// first is preceded by a newline and indent spaces.
func wrap(b *strings.Builder, msg string, area, indent int) {
	if area <= 0 {
		b.WriteString(msg)
		return
	}

	pad := strings.Repeat(" ", indent)
	used := 0
	state := -1
	for len(msg) > 0 {
		var cluster string
		cluster, msg, _, state = uniseg.FirstGraphemeClusterInString(msg, state)

		if used > 0 && used+len(cluster) > area {
			b.WriteByte('\n')
			b.WriteString(pad)
			used = 0
		}
		b.WriteString(cluster)
		used += len(cluster)
	}
}
