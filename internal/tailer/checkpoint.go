package tailer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultCheckpointName is the state file used by `replay --resume` when no
// explicit path is configured. It lives in the user's home directory.
const DefaultCheckpointName = ".droidlog-state.json"

// checkpointData is the on-disk JSON structure for persisted offsets.
type checkpointData struct {
	Offsets map[string]int64 `json:"offsets"`
}

// Checkpoint remembers how far each capture file has been replayed so a
// later run can continue from there.
type Checkpoint struct {
	mu   sync.RWMutex
	path string
	data checkpointData
}

// NewCheckpoint loads the checkpoint at path. A missing file yields an empty
// checkpoint; a corrupt one is an error.
func NewCheckpoint(path string) (*Checkpoint, error) {
	c := &Checkpoint{
		path: path,
		data: checkpointData{Offsets: make(map[string]int64)},
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := json.Unmarshal(raw, &c.data); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	if c.data.Offsets == nil {
		c.data.Offsets = make(map[string]int64)
	}
	return c, nil
}

// Path returns the file the checkpoint is saved to.
func (c *Checkpoint) Path() string { return c.path }

// Get returns the saved offset for a capture file.
func (c *Checkpoint) Get(path string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data.Offsets[path]
	return v, ok
}

// Set records the offset of the first byte not yet rendered.
func (c *Checkpoint) Set(path string, offset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Offsets[path] = offset
}

// Forget drops a file, used when it was rotated away.
func (c *Checkpoint) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data.Offsets, path)
}

// Save writes the checkpoint atomically through a temp file and rename.
func (c *Checkpoint) Save() error {
	c.mu.RLock()
	raw, err := json.MarshalIndent(c.data, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
