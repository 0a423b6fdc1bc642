package driver

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pipesim/timing/core"
)

// StopReason tells why a batch run ended.
type StopReason string

const (
	// StopDrained means the program fully retired.
	StopDrained StopReason = "drained"
	// StopCycleLimit means the cycle limit was reached first.
	StopCycleLimit StopReason = "cycle limit"
)

// Report summarizes a batch run.
type Report struct {
	Reason StopReason
	// SimTime is the simulated time when the run ended.
	SimTime sim.VTimeInSec
	// Freq is the clock the core was ticked at.
	Freq     sim.Freq
	Snapshot core.Snapshot
}

// RunnerOption is a functional option for configuring the Runner.
type RunnerOption func(*Runner)

// WithFreq sets the clock frequency. Default: 1 GHz.
func WithFreq(freq sim.Freq) RunnerOption {
	return func(r *Runner) {
		r.freq = freq
	}
}

// WithMaxCycles bounds the run. Zero means no bound.
func WithMaxCycles(n uint64) RunnerOption {
	return func(r *Runner) {
		r.maxCycles = n
	}
}

// WithRunnerLogger sets the logger for the runner.
func WithRunnerLogger(logger logr.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// Runner ticks a core once per clock cycle on an akita serial engine.
type Runner struct {
	*sim.TickingComponent

	engine sim.Engine
	core   *core.Core

	freq      sim.Freq
	maxCycles uint64

	logger logr.Logger
}

// NewRunner creates a runner that clocks c.
func NewRunner(c *core.Core, opts ...RunnerOption) *Runner {
	r := &Runner{
		engine: sim.NewSerialEngine(),
		core:   c,
		freq:   1 * sim.GHz,
		logger: logr.Discard(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.TickingComponent = sim.NewTickingComponent("Core", r.engine, r.freq, r)

	return r
}

// Tick advances the core by one cycle. It returns false once the run is
// over, which stops the engine from scheduling further ticks.
func (r *Runner) Tick() bool {
	if r.finished() {
		return false
	}

	r.core.Step()

	return !r.finished()
}

func (r *Runner) finished() bool {
	return r.core.Drained() || r.limitReached()
}

func (r *Runner) limitReached() bool {
	return r.maxCycles > 0 && r.core.Cycle() >= r.maxCycles
}

// Run clocks the core until its program drains or the cycle limit is
// reached.
func (r *Runner) Run() (Report, error) {
	r.logger.V(1).Info("run started", "freq", float64(r.freq), "maxCycles", r.maxCycles)

	r.TickLater()

	if err := r.engine.Run(); err != nil {
		return Report{}, fmt.Errorf("engine failed: %w", err)
	}

	report := Report{
		Reason:   StopDrained,
		SimTime:  r.engine.CurrentTime(),
		Freq:     r.freq,
		Snapshot: r.core.Snapshot(),
	}
	if !r.core.Drained() {
		report.Reason = StopCycleLimit
	}

	r.logger.V(1).Info("run finished",
		"reason", string(report.Reason), "cycles", report.Snapshot.Cycle)

	return report, nil
}
