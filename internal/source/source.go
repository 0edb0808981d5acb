// Package source delivers raw logcat lines to the render loop.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/atikulmunna/droidlog/internal/model"
)

const (
	// DefaultBuffer is the channel capacity between a source and the renderer.
	DefaultBuffer = 512

	// MaxLineSize is the longest line a source accepts.
	MaxLineSize = 1024 * 1024
)

// Source produces lines on a channel. Run blocks until the input ends, the
// context is cancelled or reading fails, and closes Lines before returning.
type Source interface {
	Lines() <-chan model.RawLine
	Run(ctx context.Context) error
	Name() string
}

// scanLines reads r line by line and sends each line to out. A line longer
// than MaxLineSize ends the scan with an error.
func scanLines(ctx context.Context, r io.Reader, name string, out chan<- model.RawLine) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	for scanner.Scan() {
		select {
		case out <- model.RawLine{Text: scanner.Text(), Source: name}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("%s: line exceeds %d bytes", name, MaxLineSize)
		}
		return fmt.Errorf("%s: read: %w", name, err)
	}
	return nil
}
