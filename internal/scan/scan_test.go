package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestCandidates(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	touch(t, filepath.Join(dir, "old.raw"), base.Add(-time.Hour))
	touch(t, filepath.Join(dir, "b.RAW"), base.Add(2*time.Hour))
	touch(t, filepath.Join(dir, "nested", "a.raw"), base.Add(time.Hour))
	touch(t, filepath.Join(dir, "notes.txt"), base.Add(3*time.Hour))
	touch(t, filepath.Join(dir, "edge.raw"), base)

	tests := []struct {
		name  string
		exts  []string
		since time.Time
		want  []string
	}{
		{name: "raw newer than checkpoint", exts: []string{".raw"}, since: base, want: []string{"a.raw", "b.RAW"}},
		{name: "extension without dot", exts: []string{"raw"}, since: base, want: []string{"a.raw", "b.RAW"}},
		{name: "zero checkpoint", exts: []string{"raw"}, want: []string{"old.raw", "edge.raw", "a.raw", "b.RAW"}},
		{name: "any extension", since: base, want: []string{"a.raw", "b.RAW", "notes.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := Candidates(dir, tt.exts, tt.since)
			require.NoError(t, err)
			var names []string
			for _, c := range cs {
				assert.True(t, filepath.IsAbs(c.Path))
				names = append(names, filepath.Base(c.Path))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestCandidates_MissingDir(t *testing.T) {
	_, err := Candidates(filepath.Join(t.TempDir(), "absent"), nil, time.Time{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPaths(t *testing.T) {
	cs := []Candidate{{Path: "/a"}, {Path: "/b"}}
	assert.Equal(t, []string{"/a", "/b"}, Paths(cs))
}

func TestFileCheckpoint(t *testing.T) {
	dir := t.TempDir()
	cp := NewFileCheckpoint(filepath.Join(dir, "data"))

	got, err := cp.Load()
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "missing file loads as zero time")

	want := time.Date(2024, 3, 1, 9, 30, 15, 123456789, time.FixedZone("CET", 3600))
	require.NoError(t, cp.Save(want))

	got, err = cp.Load()
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must be renamed away")
	assert.Equal(t, CheckpointFile, entries[0].Name())
}

func TestFileCheckpoint_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CheckpointFile), []byte("yesterday"), 0o644))

	_, err := NewFileCheckpoint(dir).Load()
	assert.Error(t, err)
}
