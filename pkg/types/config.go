package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// DefaultDatabase is the database file name used when Config.Database is empty.
const DefaultDatabase = "qcwatch.db"

// DefaultWorkers is the extraction pool size used when Config.Workers is zero.
const DefaultWorkers = 4

// PatternMapping maps a regular expression over a file path to a name.
// For instrument mappings Name is the instrument's name. For metadata
// mappings Name is the metadata key and the first capture group is the value.
type PatternMapping struct {
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
	Pattern string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`
}

// Config holds the plain values the engine needs. It is assembled by the
// CLI from config.yaml.
type Config struct {
	DataDir        string           `json:"data_dir" yaml:"data_dir"`
	Database       string           `json:"database" yaml:"database"`
	Workers        int              `json:"workers" yaml:"workers"`
	ScanDir        string           `json:"scan_dir" yaml:"scan_dir"`
	Extensions     []string         `json:"extensions" yaml:"extensions"`
	Timezone       string           `json:"timezone" yaml:"timezone"`
	HelperSource   string           `json:"helper_source" yaml:"helper_source"`
	HelperDir      string           `json:"helper_dir" yaml:"helper_dir"`
	ExclusionsFile string           `json:"exclusions" yaml:"exclusions"`
	CV             CV               `json:"cv" yaml:"cv"`
	Instruments    []PatternMapping `json:"instruments" yaml:"instruments"`
	Metadata       []PatternMapping `json:"metadata" yaml:"metadata"`
}

// Config validation errors.
var (
	ErrDataDirEmpty   = errors.New("data directory must not be empty")
	ErrWorkersInvalid = errors.New("workers must not be negative")
	ErrCVLabelEmpty   = errors.New("cv label must not be empty")
	ErrMappingInvalid = errors.New("invalid pattern mapping")
	ErrTimezone       = errors.New("unknown timezone")
)

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.Workers < 0 {
		return ErrWorkersInvalid
	}
	if c.CV.Label == "" {
		return ErrCVLabelEmpty
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for _, m := range append(append([]PatternMapping{}, c.Instruments...), c.Metadata...) {
		if m.Name == "" {
			return fmt.Errorf("%w: empty name for pattern %q", ErrMappingInvalid, m.Pattern)
		}
		if _, err := regexp.Compile(m.Pattern); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMappingInvalid, m.Name, err)
		}
	}
	return nil
}

// DatabasePath returns the database file location inside DataDir.
func (c Config) DatabasePath() string {
	name := c.Database
	if name == "" {
		name = DefaultDatabase
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// WorkerCount returns Workers, or DefaultWorkers when unset.
func (c Config) WorkerCount() int {
	if c.Workers == 0 {
		return DefaultWorkers
	}
	return c.Workers
}

// Location returns the zone that sample dates without an offset are written
// in. An empty Timezone means the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrTimezone, c.Timezone)
	}
	return loc, nil
}
