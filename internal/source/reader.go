package source

import (
	"context"
	"io"

	"github.com/atikulmunna/droidlog/internal/model"
)

// Reader reads lines from an arbitrary stream, typically stdin fed by
// `adb logcat -v time | droidlog pipe`.
type Reader struct {
	r    io.Reader
	name string
	out  chan model.RawLine
}

// NewReader returns a Source over r. name is reported as the line source.
func NewReader(r io.Reader, name string) *Reader {
	return &Reader{
		r:    r,
		name: name,
		out:  make(chan model.RawLine, DefaultBuffer),
	}
}

func (s *Reader) Lines() <-chan model.RawLine { return s.out }
func (s *Reader) Name() string                { return s.name }

// Run scans until the stream ends or ctx is cancelled. A read blocked on the
// stream cannot be interrupted, so scanning happens on its own goroutine and
// Run returns as soon as ctx is done.
func (s *Reader) Run(ctx context.Context) error {
	defer close(s.out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan model.RawLine)
	done := make(chan error, 1)
	go func() {
		done <- scanLines(ctx, s.r, s.name, lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			return err
		case line := <-lines:
			select {
			case s.out <- line:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
