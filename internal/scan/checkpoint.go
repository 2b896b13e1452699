package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CheckpointFile is the checkpoint file name inside the data directory.
const CheckpointFile = "checkpoint"

// FileCheckpoint stores the scan checkpoint as one RFC 3339 timestamp in a
// text file.
type FileCheckpoint struct {
	Path string
}

// NewFileCheckpoint returns the checkpoint kept in dataDir.
func NewFileCheckpoint(dataDir string) *FileCheckpoint {
	return &FileCheckpoint{Path: filepath.Join(dataDir, CheckpointFile)}
}

// Load returns the stored checkpoint, or the zero time when none was saved.
func (c *FileCheckpoint) Load() (time.Time, error) {
	data, err := os.ReadFile(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading checkpoint: %w", err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing checkpoint %q: %w", s, err)
	}
	return t, nil
}

// Save replaces the stored checkpoint with t. The file is written to a
// temporary sibling, synced and renamed into place.
func (c *FileCheckpoint) Save(t time.Time) error {
	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(t.UTC().Format(time.RFC3339Nano) + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, c.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
