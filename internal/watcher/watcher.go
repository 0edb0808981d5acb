package watcher

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event represents a change to one of the watched capture files.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher expands glob patterns into capture files and, once started,
// reports changes to them using OS-level notifications.
type Watcher struct {
	fsw       *fsnotify.Watcher
	Events    chan Event
	paths     []string
	log       *zap.Logger
	closeOnce sync.Once
}

// New creates a Watcher for the given glob patterns. Patterns are expanded
// once; files created later are not picked up.
func New(patterns []string, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		Events: make(chan Event, 256),
		log:    log,
	}

	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := Expand(pattern)
		if err != nil {
			log.Warn("failed to expand pattern", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				abs = m
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true
			if err := fsw.Add(abs); err != nil {
				log.Warn("cannot watch file", zap.String("path", abs), zap.Error(err))
				continue
			}
			w.paths = append(w.paths, abs)
		}
	}

	return w, nil
}

// Start forwards file events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.Events <- Event{Path: ev.Name, Op: ev.Op}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// Close releases the OS watch handles. It is safe to call more than once.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		_ = w.fsw.Close()
	})
}

// Paths returns the files matched at construction, in pattern order.
func (w *Watcher) Paths() []string {
	return w.paths
}

// ReWatch adds a path back to the watcher after the file was rotated.
func (w *Watcher) ReWatch(path string) error {
	return w.fsw.Add(path)
}

// Expand resolves a glob pattern to matching files. Recursive patterns
// such as captures/**/*.log are supported.
func Expand(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}
