package tailer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/atikulmunna/droidlog/internal/model"
	"github.com/atikulmunna/droidlog/internal/watcher"
)

const (
	checkpointEvery  = 5 * time.Second
	reconnectRetries = 5
	reconnectDelay   = time.Second
)

// Options control a replay.
type Options struct {
	// Follow keeps reading lines appended after the initial replay.
	Follow bool
	// Checkpoint, when set, resumes each file from its saved offset and
	// records progress. Files without a saved offset start at the beginning.
	Checkpoint *Checkpoint
}

// Tailer replays logcat capture files and optionally follows them as they
// grow, emitting RawLine values in file order.
type Tailer struct {
	mu     sync.Mutex
	files  map[string]*trackedFile
	out    chan model.RawLine
	opts   Options
	watch  *watcher.Watcher
	log    *zap.Logger
	reopen chan string
}

type trackedFile struct {
	path   string
	file   *os.File
	offset int64  // bytes consumed, partial line included
	buf    string // partial line without its newline yet
}

// New creates a Tailer over the files matched by w.
func New(w *watcher.Watcher, opts Options, log *zap.Logger) *Tailer {
	return &Tailer{
		files:  make(map[string]*trackedFile),
		out:    make(chan model.RawLine, 512),
		opts:   opts,
		watch:  w,
		log:    log,
		reopen: make(chan string, 8),
	}
}

// Lines returns the channel where raw log lines are sent.
func (t *Tailer) Lines() <-chan model.RawLine {
	return t.out
}

func (t *Tailer) Name() string { return "replay" }

// Run replays every file, then either returns or, when following, keeps
// processing watcher events until ctx is cancelled.
func (t *Tailer) Run(ctx context.Context) error {
	defer close(t.out)
	defer t.watch.Close()
	defer t.closeAll()
	defer t.saveCheckpoint()

	for _, p := range t.watch.Paths() {
		if err := t.openFile(p, false); err != nil {
			return err
		}
		if err := t.readNewLines(ctx, p); err != nil {
			return ignoreCanceled(err)
		}
	}

	if !t.opts.Follow {
		t.watch.Close()
		return nil
	}

	go t.watch.Start(ctx)

	saveTicker := time.NewTicker(checkpointEvery)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-t.watch.Events:
			if !ok {
				return nil
			}
			if err := t.handleEvent(ctx, ev); err != nil {
				return ignoreCanceled(err)
			}

		case path := <-t.reopen:
			if err := t.openFile(path, true); err != nil {
				t.log.Warn("cannot reopen rotated file", zap.String("path", path), zap.Error(err))
				continue
			}
			if err := t.readNewLines(ctx, path); err != nil {
				return ignoreCanceled(err)
			}

		case <-saveTicker.C:
			t.saveCheckpoint()
		}
	}
}

// handleEvent dispatches watcher events to the appropriate handler.
func (t *Tailer) handleEvent(ctx context.Context, ev watcher.Event) error {
	switch {
	case ev.Op.Has(fsnotify.Write):
		return t.readNewLines(ctx, ev.Path)

	case ev.Op.Has(fsnotify.Create):
		if err := t.openFile(ev.Path, true); err != nil {
			t.log.Warn("cannot open new file", zap.String("path", ev.Path), zap.Error(err))
			return nil
		}
		return t.readNewLines(ctx, ev.Path)

	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		t.closeFile(ev.Path)
		if t.opts.Checkpoint != nil {
			t.opts.Checkpoint.Forget(ev.Path)
		}
		go t.reconnect(ctx, ev.Path)
	}
	return nil
}

// openFile starts tracking a file. Unless fromStart is set the checkpointed
// offset is used when there is one.
func (t *Tailer) openFile(path string, fromStart bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	var offset int64
	if !fromStart && t.opts.Checkpoint != nil {
		if saved, ok := t.opts.Checkpoint.Get(path); ok {
			offset = saved
		}
	}
	if info, err := f.Stat(); err == nil && offset > info.Size() {
		// The file is shorter than when it was checkpointed.
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return fmt.Errorf("seek %s: %w", path, err)
	}

	t.files[path] = &trackedFile{path: path, file: f, offset: offset}
	return nil
}

// readNewLines reads from the last offset to EOF and emits complete lines.
// A trailing partial line is held until its newline arrives.
func (t *Tailer) readNewLines(ctx context.Context, path string) error {
	t.mu.Lock()
	tf, ok := t.files[path]
	t.mu.Unlock()
	if !ok {
		return nil
	}

	if info, err := tf.file.Stat(); err == nil && info.Size() < tf.offset {
		t.log.Info("capture file truncated, starting over", zap.String("path", path))
		if _, err := tf.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("seek %s: %w", path, err)
		}
		tf.offset = 0
		tf.buf = ""
	}

	r := bufio.NewReader(tf.file)
	for {
		chunk, err := r.ReadString('\n')
		tf.offset += int64(len(chunk))
		if err != nil {
			tf.buf += chunk
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read %s: %w", path, err)
		}

		line := strings.TrimRight(tf.buf+chunk, "\r\n")
		tf.buf = ""

		select {
		case t.out <- model.RawLine{Text: line, Source: path}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if !t.opts.Follow && tf.buf != "" {
		// Nothing more will be appended; flush the unterminated last line.
		line := strings.TrimRight(tf.buf, "\r")
		tf.buf = ""
		select {
		case t.out <- model.RawLine{Text: line, Source: path}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if t.opts.Checkpoint != nil {
		t.opts.Checkpoint.Set(path, tf.offset-int64(len(tf.buf)))
	}
	return nil
}

// closeFile releases a tracked file.
func (t *Tailer) closeFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tf, ok := t.files[path]; ok {
		tf.file.Close()
		delete(t.files, path)
	}
}

// reconnect polls for a rotated file to reappear and hands it back to Run.
func (t *Tailer) reconnect(ctx context.Context, path string) {
	for i := 0; i < reconnectRetries; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
		if _, err := os.Stat(path); err == nil {
			t.log.Info("reconnected to rotated file", zap.String("path", path))
			if err := t.watch.ReWatch(path); err != nil {
				t.log.Warn("cannot re-watch file", zap.String("path", path), zap.Error(err))
			}
			select {
			case t.reopen <- path:
			case <-ctx.Done():
			}
			return
		}
	}
	t.log.Warn("gave up reconnecting", zap.String("path", path), zap.Int("retries", reconnectRetries))
}

// saveCheckpoint persists the current offsets to disk.
func (t *Tailer) saveCheckpoint() {
	if t.opts.Checkpoint == nil {
		return
	}
	if err := t.opts.Checkpoint.Save(); err != nil {
		t.log.Warn("checkpoint save failed", zap.String("path", t.opts.Checkpoint.Path()), zap.Error(err))
	}
}

// closeAll closes all tracked file handles.
func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tf := range t.files {
		tf.file.Close()
		delete(t.files, path)
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
