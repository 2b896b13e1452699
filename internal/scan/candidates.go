// Package scan finds log files that are newer than the last processed batch
// and persists that boundary between runs.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Candidate is a log file found by Candidates.
type Candidate struct {
	Path    string
	ModTime time.Time
}

// Candidates walks dir and returns the regular files whose extension is in
// extensions (case-insensitive, with or without the leading dot) and whose
// modification time is after since. An empty extensions list accepts every
// file. Results are ordered oldest first. Any error while walking is
// returned: the candidate set cannot be trusted without the full listing.
func Candidates(dir string, extensions []string, since time.Time) ([]Candidate, error) {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}

	var out []Candidate
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(exts) > 0 && !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().After(since) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		out = append(out, Candidate{Path: abs, ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].Path < out[j].Path
		}
		return out[i].ModTime.Before(out[j].ModTime)
	})
	return out, nil
}

// Paths returns the paths of cs in order.
func Paths(cs []Candidate) []string {
	paths := make([]string, len(cs))
	for i, c := range cs {
		paths[i] = c.Path
	}
	return paths
}
