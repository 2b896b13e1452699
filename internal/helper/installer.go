// Package helper installs the vendor helper executables and runs them to
// obtain the line streams of an instrument log file.
package helper

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Installer copies the packaged helper executables into a working directory.
// The copy happens at most once per Installer; Install is safe for
// concurrent use and guarded by its own lock.
type Installer struct {
	Source fs.FS  // packaged helper distribution
	Dir    string // working directory the helpers are copied to

	mu        sync.Mutex
	installed bool
}

// Install copies every regular file of Source into Dir on the first
// successful call and returns Dir. Later calls return Dir without copying.
// A failed copy is retried by the next call.
func (in *Installer) Install() (string, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.installed {
		return in.Dir, nil
	}
	if in.Source == nil {
		// Nothing packaged: the helpers are expected to already be in Dir.
		in.installed = true
		return in.Dir, nil
	}
	if err := os.MkdirAll(in.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating helper dir: %w", err)
	}

	err := fs.WalkDir(in.Source, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == "." {
				return nil
			}
			return os.MkdirAll(filepath.Join(in.Dir, filepath.FromSlash(path)), 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyExecutable(in.Source, path, filepath.Join(in.Dir, filepath.FromSlash(path)))
	})
	if err != nil {
		return "", fmt.Errorf("installing helpers: %w", err)
	}

	in.installed = true
	return in.Dir, nil
}

func copyExecutable(src fs.FS, name, dst string) error {
	r, err := src.Open(name)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("copying %s: %w", name, err)
	}
	return w.Close()
}
