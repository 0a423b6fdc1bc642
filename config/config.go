// Package config loads and saves simulator configuration files.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/akita/v4/sim"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/core"
	"github.com/sarchlab/pipesim/timing/pipeline"
	"github.com/sarchlab/pipesim/timing/power"
)

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// BranchOutcome selects how branches are resolved in Execute.
type BranchOutcome string

const (
	// BranchOutcomeNone leaves branches unresolved. The predictor is never
	// trained and its accuracy stays at 1.
	BranchOutcomeNone BranchOutcome = "none"
	// BranchOutcomeTaken resolves every branch as taken.
	BranchOutcomeTaken BranchOutcome = "taken"
	// BranchOutcomeNotTaken resolves every branch as not taken.
	BranchOutcomeNotTaken BranchOutcome = "not-taken"
	// BranchOutcomeAlternate flips the outcome of each branch PC on every
	// resolution, starting with taken.
	BranchOutcomeAlternate BranchOutcome = "alternate"
)

// Config holds everything needed to build and clock a core.
type Config struct {
	// ClockMHz is the core clock used by batch runs. Default: 1000.
	ClockMHz float64 `yaml:"clockMHz"`

	// MaxCycles bounds batch runs. Zero means no bound. Default: 100000.
	MaxCycles uint64 `yaml:"maxCycles"`

	// BranchOutcome selects branch resolution. Default: none.
	BranchOutcome BranchOutcome `yaml:"branchOutcome"`

	// InstructionFetch routes each fetch through the L1I cache.
	// Default: false.
	InstructionFetch bool `yaml:"instructionFetch"`

	// L2Fill makes L1 misses access the L2 cache. Default: false.
	L2Fill bool `yaml:"l2Fill"`

	Pipeline pipeline.Config      `yaml:"pipeline"`
	Cache    core.HierarchyConfig `yaml:"cache"`
	Power    power.Weights        `yaml:"power"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ClockMHz:         1000,
		MaxCycles:        100000,
		BranchOutcome:    BranchOutcomeNone,
		InstructionFetch: false,
		L2Fill:           false,
		Pipeline:         pipeline.DefaultConfig(),
		Cache:            core.DefaultHierarchyConfig(),
		Power:            power.DefaultWeights(),
	}
}

// Load reads a YAML configuration file. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Encode writes the configuration to w as YAML.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	return enc.Close()
}

// Validate checks every section and reports the first problem.
func (c *Config) Validate() error {
	if c.ClockMHz <= 0 {
		return fmt.Errorf("%w: clockMHz must be > 0", ErrInvalid)
	}

	switch c.BranchOutcome {
	case BranchOutcomeNone, BranchOutcomeTaken, BranchOutcomeNotTaken,
		BranchOutcomeAlternate:
	default:
		return fmt.Errorf("%w: unsupported branchOutcome %q", ErrInvalid, c.BranchOutcome)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("%w: pipeline: %w", ErrInvalid, err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("%w: cache: %w", ErrInvalid, err)
	}
	if err := c.Power.Validate(); err != nil {
		return fmt.Errorf("%w: power: %w", ErrInvalid, err)
	}

	return nil
}

// Freq returns the clock as an akita frequency.
func (c *Config) Freq() sim.Freq {
	return sim.Freq(c.ClockMHz) * sim.MHz
}

// CoreOptions returns the core options described by the configuration.
// The cache hierarchy and pipeline config are applied separately with
// Apply, since they can fail.
func (c *Config) CoreOptions() []core.Option {
	opts := []core.Option{core.WithPowerWeights(c.Power)}

	if c.BranchOutcome != BranchOutcomeNone && c.BranchOutcome != "" {
		opts = append(opts, core.WithBranchOutcomeSource(c.branchOutcomeFunc))
	}
	if c.InstructionFetch {
		opts = append(opts, core.WithInstructionFetch())
	}
	if c.L2Fill {
		opts = append(opts, core.WithL2Fill())
	}

	return opts
}

// Apply configures the pipeline and cache hierarchy of c.
func (c *Config) Apply(target *core.Core) error {
	if err := target.SetPipelineConfig(c.Pipeline); err != nil {
		return err
	}
	return target.SetCacheConfig(c.Cache)
}

// NewCore builds a core from the configuration.
func (c *Config) NewCore(extra ...core.Option) (*core.Core, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	target := core.NewCore(append(c.CoreOptions(), extra...)...)
	if err := c.Apply(target); err != nil {
		return nil, err
	}

	return target, nil
}

func (c *Config) branchOutcomeFunc() core.BranchOutcomeFunc {
	switch c.BranchOutcome {
	case BranchOutcomeTaken:
		return func(uint64, insts.Instruction) bool { return true }
	case BranchOutcomeNotTaken:
		return func(uint64, insts.Instruction) bool { return false }
	case BranchOutcomeAlternate:
		last := make(map[uint64]bool)
		return func(pc uint64, _ insts.Instruction) bool {
			taken := !last[pc]
			last[pc] = taken
			return taken
		}
	default:
		return nil
	}
}
