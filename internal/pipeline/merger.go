package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// ErrMergerClosed is returned by Submit after Close.
var ErrMergerClosed = errors.New("merger is closed")

// mergeOp is one extraction waiting to be merged.
type mergeOp struct {
	ctx  context.Context
	ex   *types.Extraction
	done chan error
}

// Merger owns the write path into the gateway. A single goroutine performs
// every merge, so resolution followed by write never interleaves between
// callers.
type Merger struct {
	gw     types.Gateway
	logger *slog.Logger

	mergeCh   chan mergeOp
	closeCh   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMerger starts the merge goroutine. Call Close to stop it.
func NewMerger(gw types.Gateway, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Merger{
		gw:      gw,
		logger:  logger,
		mergeCh: make(chan mergeOp),
		closeCh: make(chan struct{}),
	}
	m.wg.Add(1)
	go m.loop()
	return m
}

func (m *Merger) loop() {
	defer m.wg.Done()
	for {
		select {
		case op := <-m.mergeCh:
			op.done <- m.merge(op.ctx, op.ex)
			close(op.done)
		case <-m.closeCh:
			return
		}
	}
}

// Submit hands ex to the merge goroutine and waits for the result. The
// instrument is created on first sight; the run is inserted with its values.
func (m *Merger) Submit(ctx context.Context, ex *types.Extraction) error {
	done := make(chan error, 1)

	select {
	case m.mergeCh <- mergeOp{ctx: ctx, ex: ex, done: done}:
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-m.closeCh:
		return ErrMergerClosed
	}
}

// Close stops the merge goroutine after the merge in progress, if any.
func (m *Merger) Close() {
	m.closeOnce.Do(func() {
		close(m.closeCh)
		m.wg.Wait()
	})
}

func (m *Merger) merge(ctx context.Context, ex *types.Extraction) error {
	inst := &ex.Instrument
	_, found, err := m.gw.ResolveID(ctx, inst.Key())
	if err != nil {
		return err
	}
	if !found {
		err := m.gw.InsertInstrument(ctx, inst)
		if err != nil && !errors.Is(err, types.ErrConflict) {
			return fmt.Errorf("creating instrument %s: %w", inst.Name, err)
		}
		if err == nil {
			m.logger.Info("instrument created", "instrument", inst.Name, "model", inst.Model)
		}
	}

	if err := m.gw.InsertRun(ctx, &ex.Run); err != nil {
		return fmt.Errorf("merging run %s: %w", ex.Run.Key(), err)
	}
	m.logger.Debug("run merged", "run", ex.Run.Key().String(), "values", len(ex.Run.Values))
	return nil
}
