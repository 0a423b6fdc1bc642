package core

import (
	"github.com/sarchlab/pipesim/timing/cache"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

// MetricsSample is the performance sample recorded at the end of a cycle.
type MetricsSample struct {
	Cycle            uint64  `json:"cycle"`
	IPC              float64 `json:"ipc"`
	BranchAccuracy   float64 `json:"branchAccuracy"`
	PowerConsumption float64 `json:"powerConsumption"`
}

// CacheStats summarizes one cache level.
type CacheStats struct {
	Hits           uint64  `json:"hits"`
	Misses         uint64  `json:"misses"`
	Activity       uint64  `json:"activity"`
	Evictions      uint64  `json:"evictions"`
	Writebacks     uint64  `json:"writebacks"`
	HitRate        float64 `json:"hitRate"`
	MissRate       float64 `json:"missRate"`
	ActivityFactor float64 `json:"activityFactor"`
}

func newCacheStats(s cache.Statistics) CacheStats {
	return CacheStats{
		Hits:           s.Hits,
		Misses:         s.Misses,
		Activity:       s.Activity,
		Evictions:      s.Evictions,
		Writebacks:     s.Writebacks,
		HitRate:        s.HitRate(),
		MissRate:       s.MissRate(),
		ActivityFactor: s.ActivityFactor(),
	}
}

// CacheState holds the line arrays of every cache level.
type CacheState struct {
	L1I []cache.LineView `json:"l1i"`
	L1D []cache.LineView `json:"l1d"`
	L2  []cache.LineView `json:"l2"`
}

// CacheStatsSet holds the statistics of every cache level.
type CacheStatsSet struct {
	L1I CacheStats `json:"l1i"`
	L1D CacheStats `json:"l1d"`
	L2  CacheStats `json:"l2"`
}

// Snapshot is a deep copy of the core state. It shares no memory with the
// core and is safe to hand to another goroutine.
type Snapshot struct {
	Cycle         uint64                        `json:"cycle"`
	Metrics       []MetricsSample               `json:"metrics"`
	PipelineState []pipeline.StageView          `json:"pipelineState"`
	CacheState    CacheState                    `json:"cacheState"`
	CacheStats    CacheStatsSet                 `json:"cacheStats"`
	Pipeline      pipeline.Statistics           `json:"pipeline"`
	Branch        pipeline.BranchPredictorStats `json:"branch"`

	// CurrentInstruction is the instruction in the Fetch stage, if any.
	CurrentInstruction string `json:"currentInstruction,omitempty"`

	// Drained is true once the loaded program has fully retired.
	Drained bool `json:"drained"`
}

// Latest returns the most recent metrics sample, or the zero sample before
// the first cycle.
func (s Snapshot) Latest() MetricsSample {
	if len(s.Metrics) == 0 {
		return MetricsSample{}
	}
	return s.Metrics[len(s.Metrics)-1]
}
