package helper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Mode selects which helper stream to produce for a log file.
type Mode string

// Helper modes. Each mode is a separate executable named after it.
const (
	ModeMetadata   Mode = "metadata"
	ModeStatusLog  Mode = "statuslog"
	ModeTuneMethod Mode = "tunemethod"
)

// ProcessError reports a helper that could not be started or exited
// unsuccessfully.
type ProcessError struct {
	Mode   Mode
	Path   string
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s helper for %s: %v", e.Mode, e.Path, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// ProcessSource runs helper executables found in a directory. The file path
// is the helper's sole argument; its standard output is the line stream.
type ProcessSource struct {
	Installer *Installer
}

// Open starts the helper for mode on path and returns its raw output. The
// returned reader's Close waits for the process and reports a ProcessError
// for a non-zero exit.
func (s *ProcessSource) Open(ctx context.Context, mode Mode, path string) (io.ReadCloser, error) {
	dir, err := s.Installer.Install()
	if err != nil {
		return nil, &ProcessError{Mode: mode, Path: path, Err: err}
	}

	cmd := exec.CommandContext(ctx, Executable(dir, mode), path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ProcessError{Mode: mode, Path: path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &ProcessError{Mode: mode, Path: path, Err: err}
	}
	return &processReader{ReadCloser: stdout, cmd: cmd, stderr: &stderr, mode: mode, path: path}, nil
}

// Executable returns the path of the helper for mode inside dir.
func Executable(dir string, mode Mode) string {
	name := string(mode)
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name)
}

type processReader struct {
	io.ReadCloser
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	mode   Mode
	path   string
}

// Close drains the remaining output so the helper is not blocked on a full
// pipe, then waits for it to exit.
func (r *processReader) Close() error {
	_, _ = io.Copy(io.Discard, r.ReadCloser)
	if err := r.cmd.Wait(); err != nil {
		return &ProcessError{
			Mode:   r.mode,
			Path:   r.path,
			Stderr: strings.TrimSpace(r.stderr.String()),
			Err:    err,
		}
	}
	return nil
}
