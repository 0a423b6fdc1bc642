package core

import (
	"fmt"

	"github.com/sarchlab/pipesim/timing/cache"
)

// HierarchyConfig holds the geometry of every cache the core owns.
type HierarchyConfig struct {
	L1I cache.Config `yaml:"l1i" json:"l1i"`
	L1D cache.Config `yaml:"l1d" json:"l1d"`
	L2  cache.Config `yaml:"l2" json:"l2"`
}

// DefaultHierarchyConfig returns 32KB L1I and L1D caches backed by a 256KB
// L2, all with 64B lines.
func DefaultHierarchyConfig() HierarchyConfig {
	return HierarchyConfig{
		L1I: cache.DefaultL1IConfig(),
		L1D: cache.DefaultL1DConfig(),
		L2:  cache.DefaultL2Config(),
	}
}

// Validate checks every level and names the first invalid one.
func (h HierarchyConfig) Validate() error {
	if err := h.L1I.Validate(); err != nil {
		return fmt.Errorf("l1i: %w", err)
	}
	if err := h.L1D.Validate(); err != nil {
		return fmt.Errorf("l1d: %w", err)
	}
	if err := h.L2.Validate(); err != nil {
		return fmt.Errorf("l2: %w", err)
	}
	return nil
}
