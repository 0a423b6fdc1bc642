// Package core provides the cycle-level CPU core model.
// It owns a 5-stage pipeline, a branch predictor and an L1I/L1D/L2 cache
// hierarchy, and records a metrics sample every cycle.
package core

import (
	"slices"

	"github.com/go-logr/logr"

	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/cache"
	"github.com/sarchlab/pipesim/timing/pipeline"
	"github.com/sarchlab/pipesim/timing/power"
)

// InstructionBytes is the width used to turn a program index into an
// instruction fetch address.
const InstructionBytes = 4

// BranchOutcomeFunc decides whether the branch at pc is taken. It is called
// once per branch, in the cycle the branch occupies Execute.
type BranchOutcomeFunc func(pc uint64, inst insts.Instruction) bool

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithLogger sets the logger for the core and its pipeline.
func WithLogger(logger logr.Logger) Option {
	return func(c *Core) {
		c.logger = logger
	}
}

// WithPowerWeights replaces the default power weights.
func WithPowerWeights(weights power.Weights) Option {
	return func(c *Core) {
		c.power = power.NewModelWithWeights(weights)
	}
}

// WithBranchOutcome enables branch resolution. Without it the branch
// predictor is never trained and accuracy stays at 1.
func WithBranchOutcome(fn BranchOutcomeFunc) Option {
	return WithBranchOutcomeSource(func() BranchOutcomeFunc { return fn })
}

// WithBranchOutcomeSource enables branch resolution with a stateful outcome
// function. newFn is called on creation and on every Reset, so outcome state
// starts over with the core.
func WithBranchOutcomeSource(newFn func() BranchOutcomeFunc) Option {
	return func(c *Core) {
		c.newBranchOutcome = newFn
	}
}

// WithInstructionFetch routes every fetch through the L1I cache.
func WithInstructionFetch() Option {
	return func(c *Core) {
		c.fetchThroughL1I = true
	}
}

// WithL2Fill makes L1 misses access the L2 cache.
func WithL2Fill() Option {
	return func(c *Core) {
		c.fillFromL2 = true
	}
}

// Core represents a cycle-level CPU core model.
type Core struct {
	pipeline  *pipeline.Pipeline
	predictor *pipeline.BranchPredictor

	l1i *cache.Cache
	l1d *cache.Cache
	l2  *cache.Cache

	power *power.Model

	cycle   uint64
	metrics []MetricsSample

	branchOutcome    BranchOutcomeFunc
	newBranchOutcome func() BranchOutcomeFunc
	fetchThroughL1I  bool
	fillFromL2       bool

	logger logr.Logger
}

// NewCore creates a core with the default cache hierarchy. By default only
// the data cache sees traffic.
func NewCore(opts ...Option) *Core {
	hierarchy := DefaultHierarchyConfig()

	c := &Core{
		predictor: pipeline.NewBranchPredictor(),
		l1i:       cache.MustNew(hierarchy.L1I),
		l1d:       cache.MustNew(hierarchy.L1D),
		l2:        cache.MustNew(hierarchy.L2),
		power:     power.NewModel(),
		logger:    logr.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.pipeline = pipeline.NewPipeline(pipeline.WithLogger(c.logger))
	c.restartBranchOutcome()

	return c
}

// Cycle returns the number of cycles simulated since the last reset.
func (c *Core) Cycle() uint64 {
	return c.cycle
}

// Drained returns true once the loaded program has fully retired.
func (c *Core) Drained() bool {
	return c.pipeline.Drained()
}

// Reset clears the cycle counter, the metrics history, every
// sub-component and any branch outcome state.
func (c *Core) Reset() {
	c.cycle = 0
	c.metrics = nil
	c.pipeline.Reset()
	c.l1i.Reset()
	c.l1d.Reset()
	c.l2.Reset()
	c.predictor.Reset()
	c.restartBranchOutcome()

	c.logger.V(1).Info("core reset")
}

func (c *Core) restartBranchOutcome() {
	if c.newBranchOutcome != nil {
		c.branchOutcome = c.newBranchOutcome()
	}
}

// LoadProgram resets the core, then loads the instruction lines.
func (c *Core) LoadProgram(lines []string) {
	c.Reset()
	c.pipeline.LoadInstructions(lines)

	c.logger.V(1).Info("program loaded", "instructions", len(lines))
}

// SetPipelineConfig forwards a configuration to the pipeline.
func (c *Core) SetPipelineConfig(config pipeline.Config) error {
	return c.pipeline.Configure(config)
}

// SetCacheConfig reconfigures all three caches. Every level is validated
// before any is applied, so on error no cache changes.
func (c *Core) SetCacheConfig(config HierarchyConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	for _, level := range []struct {
		c      *cache.Cache
		config cache.Config
	}{
		{c.l1i, config.L1I},
		{c.l1d, config.L1D},
		{c.l2, config.L2},
	} {
		if err := level.c.Configure(level.config); err != nil {
			return err
		}
	}

	c.logger.V(1).Info("cache hierarchy configured",
		"l1i", config.L1I.Size, "l1d", config.L1D.Size, "l2", config.L2.Size)

	return nil
}

// SetPowerWeights replaces the power model weights. Samples already
// recorded keep their values.
func (c *Core) SetPowerWeights(weights power.Weights) error {
	if err := weights.Validate(); err != nil {
		return err
	}
	c.power = power.NewModelWithWeights(weights)
	return nil
}

// PowerWeights returns the weights used by the power model.
func (c *Core) PowerWeights() power.Weights {
	return c.power.Weights()
}

// CacheConfig returns the current cache hierarchy geometry.
func (c *Core) CacheConfig() HierarchyConfig {
	return HierarchyConfig{
		L1I: c.l1i.Config(),
		L1D: c.l1d.Config(),
		L2:  c.l2.Config(),
	}
}

// Step advances the core by one cycle. Stepping with no program loaded
// still advances the cycle counter and records a sample.
func (c *Core) Step() {
	c.cycle++

	req := c.pipeline.Step()

	if c.fetchThroughL1I {
		if pc, ok := c.pipeline.FetchedPC(); ok {
			c.accessL1(c.l1i, "l1i", pc*InstructionBytes, false)
		}
	}

	if req != nil {
		c.accessL1(c.l1d, "l1d", req.Address, req.IsWrite())
	}

	c.resolveBranch()

	c.metrics = append(c.metrics, MetricsSample{
		Cycle:            c.cycle,
		IPC:              c.pipeline.IPC(),
		BranchAccuracy:   c.predictor.Accuracy(),
		PowerConsumption: c.estimatePower(),
	})
}

func (c *Core) accessL1(l1 *cache.Cache, name string, addr uint64, isWrite bool) {
	if l1.AccessAddr(addr, isWrite) {
		return
	}

	c.logger.V(2).Info("cache miss", "cache", name, "addr", addr, "write", isWrite)

	if c.fillFromL2 && !c.l2.AccessAddr(addr, false) {
		c.logger.V(2).Info("cache miss", "cache", "l2", "addr", addr)
	}
}

func (c *Core) resolveBranch() {
	if c.branchOutcome == nil {
		return
	}

	slot := c.pipeline.Slot(pipeline.StageExecute)
	if !slot.Valid || !slot.Inst.IsBranch() {
		return
	}

	predicted := c.predictor.Predict(slot.PC)
	taken := c.branchOutcome(slot.PC, slot.Inst)
	c.predictor.Update(slot.PC, taken)

	c.logger.V(2).Info("branch resolved",
		"pc", slot.PC, "predicted", predicted, "taken", taken)
}

func (c *Core) estimatePower() float64 {
	return c.power.Estimate(power.Activity{
		Pipeline: c.pipeline.ActivityFactor(),
		L1I:      c.l1i.ActivityFactor(),
		L1D:      c.l1d.ActivityFactor(),
		L2:       c.l2.ActivityFactor(),
	})
}

// Metrics returns a copy of the metrics history.
func (c *Core) Metrics() []MetricsSample {
	return slices.Clone(c.metrics)
}

// Snapshot returns a deep copy of the core state.
func (c *Core) Snapshot() Snapshot {
	s := Snapshot{
		Cycle:         c.cycle,
		Metrics:       c.Metrics(),
		PipelineState: c.pipeline.State(),
		CacheState: CacheState{
			L1I: c.l1i.State(),
			L1D: c.l1d.State(),
			L2:  c.l2.State(),
		},
		CacheStats: CacheStatsSet{
			L1I: newCacheStats(c.l1i.Stats()),
			L1D: newCacheStats(c.l1d.Stats()),
			L2:  newCacheStats(c.l2.Stats()),
		},
		Pipeline: c.pipeline.Stats(),
		Branch:   c.predictor.Stats(),
		Drained:  c.pipeline.Drained(),
	}

	if fetch := c.pipeline.Slot(pipeline.StageFetch); fetch.Valid {
		s.CurrentInstruction = fetch.Inst.Text
	}

	return s
}
