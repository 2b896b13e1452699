// Package extract turns one instrument log file into an in-memory entity
// graph: the instrument it belongs to and a run holding one summarized value
// per telemetry channel. Extraction never touches the store.
package extract

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mesh-intelligence/qcwatch/internal/exclusion"
	"github.com/mesh-intelligence/qcwatch/internal/helper"
	"github.com/mesh-intelligence/qcwatch/internal/logreader"
	"github.com/mesh-intelligence/qcwatch/internal/stats"
	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// Extraction errors.
var (
	ErrNoInstrument      = errors.New("no instrument mapping matches file")
	ErrMetadataTruncated = errors.New("metadata stream ended early")
	ErrSampleDate        = errors.New("unparseable sample date")
)

// sampleDateLayouts are the date formats the metadata helper emits.
var sampleDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
}

// Source opens the raw helper output of one mode for a log file.
type Source interface {
	Open(ctx context.Context, mode helper.Mode, path string) (io.ReadCloser, error)
}

// Config configures an Extractor. Location is the zone of sample dates
// written without an offset; nil means time.Local.
type Config struct {
	Source      Source
	Filter      *exclusion.Filter
	CV          types.CV
	Instruments []types.PatternMapping
	Metadata    []types.PatternMapping
	Location    *time.Location
	Logger      *slog.Logger
}

type mapping struct {
	name string
	re   *regexp.Regexp
}

// Extractor reads, filters and summarizes log files. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	source      Source
	filter      *exclusion.Filter
	cv          types.CV
	instruments []mapping
	metadata    []mapping
	location    *time.Location
	logger      *slog.Logger
}

// New compiles the configured mappings.
func New(cfg Config) (*Extractor, error) {
	if cfg.Source == nil {
		return nil, errors.New("extract: nil source")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	e := &Extractor{
		source:   cfg.Source,
		filter:   cfg.Filter,
		cv:       cfg.CV,
		location: location,
		logger:   logger,
	}
	var err error
	if e.instruments, err = compile(cfg.Instruments); err != nil {
		return nil, fmt.Errorf("instrument mappings: %w", err)
	}
	if e.metadata, err = compile(cfg.Metadata); err != nil {
		return nil, fmt.Errorf("metadata mappings: %w", err)
	}
	return e, nil
}

func compile(ms []types.PatternMapping) ([]mapping, error) {
	out := make([]mapping, 0, len(ms))
	for _, m := range ms {
		re, err := regexp.Compile(m.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}
		out = append(out, mapping{name: m.Name, re: re})
	}
	return out, nil
}

// Extract produces the entity graph of the log file at path.
func (e *Extractor) Extract(ctx context.Context, path string) (*types.Extraction, error) {
	instrument, err := e.instrumentName(path)
	if err != nil {
		return nil, err
	}

	sampleDate, model, err := e.readMetadata(ctx, path)
	if err != nil {
		return nil, err
	}

	run := types.Run{
		Name:           runName(path),
		InstrumentName: instrument,
		StoragePath:    path,
		SampleDate:     sampleDate,
		Metadata:       e.pathMetadata(path),
	}

	seen := make(map[string]bool)
	for _, vt := range []struct {
		mode helper.Mode
		vt   types.ValueType
	}{
		{helper.ModeStatusLog, types.ValueTypeStatusLog},
		{helper.ModeTuneMethod, types.ValueTypeTuneMethod},
	} {
		values, err := e.readValues(ctx, path, vt.mode, vt.vt, model)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if seen[v.Property.Accession] {
				e.logger.Debug("duplicate channel name", "file", path, "property", v.Property.Name)
				continue
			}
			seen[v.Property.Accession] = true
			run.Values = append(run.Values, v)
		}
	}

	return &types.Extraction{
		Instrument: types.Instrument{Name: instrument, Model: model, CV: e.cv},
		Run:        run,
	}, nil
}

// instrumentName returns the name of the first instrument mapping whose
// pattern matches path.
func (e *Extractor) instrumentName(path string) (string, error) {
	for _, m := range e.instruments {
		if m.re.MatchString(path) {
			return m.name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoInstrument, path)
}

// pathMetadata applies the metadata mappings to path. Each matching mapping
// yields its first capture group, or the whole match when it has none.
func (e *Extractor) pathMetadata(path string) []*types.Metadata {
	var out []*types.Metadata
	for _, m := range e.metadata {
		sub := m.re.FindStringSubmatch(path)
		if sub == nil {
			continue
		}
		value := sub[0]
		if len(sub) > 1 {
			value = sub[1]
		}
		out = append(out, &types.Metadata{Name: m.name, Value: value})
	}
	return out
}

// readMetadata reads the sample date and instrument model from the first two
// lines of the metadata stream, each of the form "label<TAB>value".
func (e *Extractor) readMetadata(ctx context.Context, path string) (time.Time, types.InstrumentModel, error) {
	rc, err := e.source.Open(ctx, helper.ModeMetadata, path)
	if err != nil {
		return time.Time{}, "", err
	}

	var fields [2]string
	scanner := bufio.NewScanner(logreader.Decode(rc))
	n := 0
	for n < len(fields) && scanner.Scan() {
		_, value, _ := strings.Cut(strings.TrimRight(scanner.Text(), "\r"), "\t")
		fields[n] = strings.TrimSpace(value)
		n++
	}
	scanErr := scanner.Err()
	closeErr := rc.Close()
	if scanErr != nil {
		return time.Time{}, "", fmt.Errorf("reading metadata of %s: %w", path, scanErr)
	}
	if closeErr != nil {
		return time.Time{}, "", closeErr
	}
	if n < len(fields) {
		return time.Time{}, "", fmt.Errorf("%w: %s: got %d of 2 lines", ErrMetadataTruncated, path, n)
	}

	date, err := parseSampleDate(fields[0], e.location)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%s: %w", path, err)
	}
	return date, types.ParseInstrumentModel(fields[1]), nil
}

// parseSampleDate reads s in loc unless the layout carries its own offset.
// The result is in UTC.
func parseSampleDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range sampleDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrSampleDate, s)
}

// readValues reads one helper stream, applies the exclusion rules and
// summarizes each remaining channel. Channels without a non-empty
// observation yield no value.
func (e *Extractor) readValues(ctx context.Context, path string, mode helper.Mode, vt types.ValueType, model types.InstrumentModel) ([]*types.Value, error) {
	rc, err := e.source.Open(ctx, mode, path)
	if err != nil {
		return nil, err
	}
	table, readErr := logreader.Read(logreader.Decode(rc), model)
	closeErr := rc.Close()
	if readErr != nil {
		return nil, fmt.Errorf("%s: %w", path, readErr)
	}
	if closeErr != nil {
		return nil, closeErr
	}

	if removed := e.filter.Apply(table, vt); removed > 0 {
		e.logger.Debug("channels excluded", "file", path, "type", vt, "count", removed)
	}

	values := make([]*types.Value, 0, table.Len())
	for _, k := range table.Keys() {
		summary, ok := stats.Summarize(table.Values(k))
		if !ok {
			continue
		}
		prop := types.NewProperty(vt, k.Header, k.Channel, e.cv)
		prop.IsNumeric = summary.Numeric != nil
		values = append(values, &types.Value{Property: prop, Summary: summary})
	}
	return values, nil
}

// runName is the file's base name without its extension.
func runName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
