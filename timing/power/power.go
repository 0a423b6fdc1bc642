// Package power provides an activity-based power estimate.
//
// The estimate is a weighted sum of activity factors:
//
//	power = Pipeline*pipelineActivity + L1I*l1iActivity + L1D*l1dActivity + L2*l2Activity
//
// The weights are a modeling choice, not a physical model; they only make
// busier cycles read as more expensive.
package power

import (
	"errors"
	"fmt"
)

// ErrInvalidWeights is returned when a weight is negative.
var ErrInvalidWeights = errors.New("invalid power weights")

// Weights holds the per-component power weights.
type Weights struct {
	// Pipeline weights the fraction of occupied stages. Default: 0.5.
	Pipeline float64 `yaml:"pipeline" json:"pipeline"`

	// L1I weights the L1 instruction cache activity factor. Default: 0.2.
	L1I float64 `yaml:"l1i" json:"l1i"`

	// L1D weights the L1 data cache activity factor. Default: 0.2.
	L1D float64 `yaml:"l1d" json:"l1d"`

	// L2 weights the L2 cache activity factor. Default: 0.3.
	L2 float64 `yaml:"l2" json:"l2"`
}

// DefaultWeights returns the default power weights.
func DefaultWeights() Weights {
	return Weights{
		Pipeline: 0.5,
		L1I:      0.2,
		L1D:      0.2,
		L2:       0.3,
	}
}

// Validate checks that all weights are non-negative.
func (w Weights) Validate() error {
	if w.Pipeline < 0 {
		return fmt.Errorf("%w: pipeline weight must be >= 0", ErrInvalidWeights)
	}
	if w.L1I < 0 {
		return fmt.Errorf("%w: l1i weight must be >= 0", ErrInvalidWeights)
	}
	if w.L1D < 0 {
		return fmt.Errorf("%w: l1d weight must be >= 0", ErrInvalidWeights)
	}
	if w.L2 < 0 {
		return fmt.Errorf("%w: l2 weight must be >= 0", ErrInvalidWeights)
	}
	return nil
}

// Activity holds the activity factors sampled in one cycle.
type Activity struct {
	Pipeline float64
	L1I      float64
	L1D      float64
	L2       float64
}

// Model turns activity factors into a power estimate.
type Model struct {
	weights Weights
}

// NewModel creates a power model with default weights.
func NewModel() *Model {
	return &Model{weights: DefaultWeights()}
}

// NewModelWithWeights creates a power model with custom weights.
func NewModelWithWeights(weights Weights) *Model {
	return &Model{weights: weights}
}

// Weights returns the current weights.
func (m *Model) Weights() Weights {
	return m.weights
}

// Estimate returns the weighted power estimate for one cycle.
func (m *Model) Estimate(a Activity) float64 {
	return m.weights.Pipeline*a.Pipeline +
		m.weights.L1I*a.L1I +
		m.weights.L1D*a.L1D +
		m.weights.L2*a.L2
}
