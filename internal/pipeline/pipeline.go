// Package pipeline runs one scan batch: a bounded pool of workers extracts
// log files in parallel and hands each result to a single merge goroutine.
// The batch reports the new scan checkpoint once every file has finished.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// ErrNoExtractor and ErrNoGateway are returned by New for an incomplete Config.
var (
	ErrNoExtractor = errors.New("pipeline needs an extractor")
	ErrNoGateway   = errors.New("pipeline needs a gateway")
)

// Extractor turns one log file into an entity graph.
type Extractor interface {
	Extract(ctx context.Context, path string) (*types.Extraction, error)
}

// Config wires a Pipeline.
type Config struct {
	Workers   int
	Extractor Extractor
	Gateway   types.Gateway
	Logger    *slog.Logger
}

// Failure records one file that did not make it into the store.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes a batch.
type Report struct {
	Submitted  int
	Merged     int
	Failed     int
	Checkpoint time.Time
	Failures   []Failure
}

// Pipeline processes batches of candidate files.
type Pipeline struct {
	workers   int
	extractor Extractor
	gw        types.Gateway
	logger    *slog.Logger
}

// New validates cfg and returns a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Extractor == nil {
		return nil, ErrNoExtractor
	}
	if cfg.Gateway == nil {
		return nil, ErrNoGateway
	}
	if cfg.Workers < 0 {
		return nil, types.ErrWorkersInvalid
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = types.DefaultWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{workers: workers, extractor: cfg.Extractor, gw: cfg.Gateway, logger: logger}, nil
}

type result struct {
	path       string
	sampleDate time.Time
	err        error
}

// Run extracts and merges every path. Per-file failures are logged and
// counted; they never stop the batch. The returned checkpoint is the later
// of checkpoint and the newest sample date merged in this batch, and is
// computed only after all files have finished. If ctx is cancelled Run stops
// waiting and returns ctx.Err() with the checkpoint unchanged; merges that
// already committed stay committed.
func (p *Pipeline) Run(ctx context.Context, paths []string, checkpoint time.Time) (Report, error) {
	report := Report{Submitted: len(paths), Checkpoint: checkpoint}
	if len(paths) == 0 {
		return report, nil
	}

	merger := NewMerger(p.gw, p.logger)
	defer merger.Close()

	jobs := make(chan string)
	results := make(chan result, len(paths))

	workers := min(p.workers, len(paths))
	for range workers {
		go func() {
			for path := range jobs {
				results <- p.process(ctx, merger, path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	var newest time.Time
	for range paths {
		select {
		case r := <-results:
			if r.err != nil {
				report.Failed++
				report.Failures = append(report.Failures, Failure{Path: r.path, Err: r.err})
				p.logger.Error("file failed", "path", r.path, "error", r.err)
				continue
			}
			report.Merged++
			if r.sampleDate.After(newest) {
				newest = r.sampleDate
			}
		case <-ctx.Done():
			p.logger.Warn("batch interrupted", "merged", report.Merged, "failed", report.Failed)
			return report, ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if newest.After(report.Checkpoint) {
		report.Checkpoint = newest
	}
	p.logger.Info("batch complete",
		"submitted", report.Submitted, "merged", report.Merged,
		"failed", report.Failed, "checkpoint", report.Checkpoint)
	return report, nil
}

func (p *Pipeline) process(ctx context.Context, merger *Merger, path string) result {
	ex, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return result{path: path, err: err}
	}
	if err := merger.Submit(ctx, ex); err != nil {
		return result{path: path, err: err}
	}
	return result{path: path, sampleDate: ex.Run.SampleDate}
}
