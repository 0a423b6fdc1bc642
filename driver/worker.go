// Package driver clocks a core from outside.
//
// Worker serves interactive requests from a goroutine that owns the core.
// Runner clocks a core on an akita serial engine for batch runs.
package driver

import (
	"context"
	"errors"
	"sync"

	"github.com/go-logr/logr"

	"github.com/sarchlab/pipesim/timing/core"
	"github.com/sarchlab/pipesim/timing/pipeline"
	"github.com/sarchlab/pipesim/timing/power"
)

// ErrClosed is returned by requests made after Close.
var ErrClosed = errors.New("worker closed")

// WorkerOption is a functional option for configuring the Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the logger for the worker.
func WithWorkerLogger(logger logr.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

type request struct {
	name  string
	apply func(c *core.Core) error
	reply chan reply
}

type reply struct {
	snapshot core.Snapshot
	err      error
}

// Worker owns a core inside one goroutine. Requests are served one at a
// time in arrival order and every reply carries a snapshot copy.
type Worker struct {
	requests chan request
	quit     chan struct{}
	done     chan struct{}

	closeOnce sync.Once

	logger logr.Logger
}

// NewWorker starts a worker goroutine that takes ownership of c. The
// caller must not touch c afterwards.
func NewWorker(c *core.Core, opts ...WorkerOption) *Worker {
	w := &Worker{
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logr.Discard(),
	}

	for _, opt := range opts {
		opt(w)
	}

	go w.serve(c)

	return w
}

func (w *Worker) serve(c *core.Core) {
	defer close(w.done)

	for {
		select {
		case <-w.quit:
			w.logger.V(1).Info("worker stopped", "cycle", c.Cycle())
			return
		case req := <-w.requests:
			err := req.apply(c)
			if err != nil {
				w.logger.V(1).Info("request failed", "request", req.name, "error", err.Error())
			}
			req.reply <- reply{snapshot: c.Snapshot(), err: err}
		}
	}
}

func (w *Worker) do(
	ctx context.Context,
	name string,
	apply func(c *core.Core) error,
) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}

	req := request{
		name:  name,
		apply: apply,
		reply: make(chan reply, 1),
	}

	select {
	case <-ctx.Done():
		return core.Snapshot{}, ctx.Err()
	case <-w.done:
		return core.Snapshot{}, ErrClosed
	case w.requests <- req:
	}

	// The worker always answers an accepted request.
	select {
	case <-ctx.Done():
		return core.Snapshot{}, ctx.Err()
	case r := <-req.reply:
		return r.snapshot, r.err
	}
}

// Step advances the core by n cycles, stopping early once the program has
// drained. n below 1 is treated as 1.
func (w *Worker) Step(ctx context.Context, n int) (core.Snapshot, error) {
	if n < 1 {
		n = 1
	}

	return w.do(ctx, "step", func(c *core.Core) error {
		for i := 0; i < n; i++ {
			c.Step()
			if c.Drained() {
				break
			}
		}
		return nil
	})
}

// Reset resets the core.
func (w *Worker) Reset(ctx context.Context) (core.Snapshot, error) {
	return w.do(ctx, "reset", func(c *core.Core) error {
		c.Reset()
		return nil
	})
}

// Load resets the core and loads a program.
func (w *Worker) Load(ctx context.Context, lines []string) (core.Snapshot, error) {
	program := append([]string(nil), lines...)

	return w.do(ctx, "load", func(c *core.Core) error {
		c.LoadProgram(program)
		return nil
	})
}

// ConfigurePipeline applies a pipeline configuration.
func (w *Worker) ConfigurePipeline(
	ctx context.Context,
	config pipeline.Config,
) (core.Snapshot, error) {
	return w.do(ctx, "configure pipeline", func(c *core.Core) error {
		return c.SetPipelineConfig(config)
	})
}

// ConfigureCache applies a cache hierarchy configuration. On error the
// core is unchanged.
func (w *Worker) ConfigureCache(
	ctx context.Context,
	config core.HierarchyConfig,
) (core.Snapshot, error) {
	return w.do(ctx, "configure cache", func(c *core.Core) error {
		return c.SetCacheConfig(config)
	})
}

// SetPowerWeights replaces the power model weights.
func (w *Worker) SetPowerWeights(
	ctx context.Context,
	weights power.Weights,
) (core.Snapshot, error) {
	return w.do(ctx, "set power weights", func(c *core.Core) error {
		return c.SetPowerWeights(weights)
	})
}

// Snapshot returns the current core state.
func (w *Worker) Snapshot(ctx context.Context) (core.Snapshot, error) {
	return w.do(ctx, "snapshot", func(*core.Core) error { return nil })
}

// Close stops the worker goroutine and waits for it to exit. It is safe to
// call more than once.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.quit)
	})
	<-w.done
}
