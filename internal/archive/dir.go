package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirDestination writes JSONL snapshots to a file under a local directory.
type DirDestination struct {
	dir  string
	file string
}

// NewDirDestination creates a local-directory destination. The directory is
// created on first write if needed.
func NewDirDestination(dir, file string) *DirDestination {
	return &DirDestination{dir: dir, file: file}
}

// Write writes data to the configured file. The write goes through a temp
// file and a rename so a reader never sees a partial snapshot.
func (d *DirDestination) Write(_ context.Context, data []byte) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	target := filepath.Join(d.dir, d.file)
	tmp, err := os.CreateTemp(d.dir, filepath.Base(d.file)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
