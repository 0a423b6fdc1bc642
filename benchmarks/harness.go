// Package benchmarks provides a timing benchmark harness for pipesim.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/pipesim/config"
	"github.com/sarchlab/pipesim/driver"
)

// Version is reported in JSON benchmark reports.
const Version = "0.1.0"

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the number of cycles Fetch was held
	StallCycles uint64 `json:"stall_cycles"`

	// DataHazards is the number of RAW data hazards detected
	DataHazards uint64 `json:"data_hazards"`

	// ControlHazards is the number of control hazards detected
	ControlHazards uint64 `json:"control_hazards"`

	ICacheHits   uint64 `json:"icache_hits"`
	ICacheMisses uint64 `json:"icache_misses"`
	DCacheHits   uint64 `json:"dcache_hits"`
	DCacheMisses uint64 `json:"dcache_misses"`
	L2Hits       uint64 `json:"l2_hits"`
	L2Misses     uint64 `json:"l2_misses"`

	// Branch predictor stats, zero unless branches are resolved
	BranchPredictions     uint64  `json:"branch_predictions,omitempty"`
	BranchCorrect         uint64  `json:"branch_correct,omitempty"`
	BranchAccuracyPercent float64 `json:"branch_accuracy_percent,omitempty"`

	// AveragePower is the mean per-cycle power estimate
	AveragePower float64 `json:"average_power"`

	// Drained is false when the cycle limit stopped the run
	Drained bool `json:"drained"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program holds one instruction per line
	Program []string
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Sim configures the core each benchmark runs on
	Sim *config.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration. Benchmarks report
// I-cache and L2 statistics, so instruction fetch and L2 fills are enabled.
func DefaultConfig() HarnessConfig {
	sim := config.Default()
	sim.InstructionFetch = true
	sim.L2Fill = true

	return HarnessConfig{
		Sim:    sim,
		Output: os.Stdout,
	}
}

// Harness runs benchmarks and collects results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Sim == nil {
		config.Sim = DefaultConfig().Sim
	}

	return &Harness{config: config}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll runs all benchmarks in order.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(bench)
		if err != nil {
			return results, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "Running %s...\n", bench.Name)
	}

	c, err := h.config.Sim.NewCore()
	if err != nil {
		return BenchmarkResult{}, err
	}
	c.LoadProgram(bench.Program)

	runner := driver.NewRunner(c,
		driver.WithFreq(h.config.Sim.Freq()),
		driver.WithMaxCycles(h.config.Sim.MaxCycles),
	)

	start := time.Now()
	report, err := runner.Run()
	if err != nil {
		return BenchmarkResult{}, err
	}
	wallTime := time.Since(start)

	snap := report.Snapshot
	stats := snap.Pipeline

	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		CPI:                 stats.CPI(),
		StallCycles:         stats.Stalls,
		DataHazards:         stats.DataHazards,
		ControlHazards:      stats.ControlHazards,
		ICacheHits:          snap.CacheStats.L1I.Hits,
		ICacheMisses:        snap.CacheStats.L1I.Misses,
		DCacheHits:          snap.CacheStats.L1D.Hits,
		DCacheMisses:        snap.CacheStats.L1D.Misses,
		L2Hits:              snap.CacheStats.L2.Hits,
		L2Misses:            snap.CacheStats.L2.Misses,
		BranchPredictions:   snap.Branch.Total,
		BranchCorrect:       snap.Branch.Correct,
		AveragePower:        averagePower(report),
		Drained:             report.Reason == driver.StopDrained,
		WallTime:            wallTime,
	}
	if snap.Branch.Total > 0 {
		result.BranchAccuracyPercent = 100 * snap.Branch.Accuracy()
	}

	return result, nil
}

func averagePower(report driver.Report) float64 {
	samples := report.Snapshot.Metrics
	if len(samples) == 0 {
		return 0
	}

	total := 0.0
	for _, s := range samples {
		total += s.PowerConsumption
	}
	return total / float64(len(samples))
}

// PrintResults outputs benchmark results in human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if !r.Drained {
			_, _ = fmt.Fprintf(h.config.Output, "  Stopped at cycle limit\n")
		}
		_, _ = fmt.Fprintf(h.config.Output, "\n")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Data Hazards:         %d\n", r.DataHazards)
		_, _ = fmt.Fprintf(h.config.Output, "  Control Hazards:      %d\n", r.ControlHazards)
		_, _ = fmt.Fprintf(h.config.Output, "  Average Power:        %.3f\n", r.AveragePower)
		_, _ = fmt.Fprintf(h.config.Output, "\n  I-Cache:\n")
		_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.ICacheHits)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.ICacheMisses)
		_, _ = fmt.Fprintf(h.config.Output, "\n  D-Cache:\n")
		_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.DCacheHits)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.DCacheMisses)
		_, _ = fmt.Fprintf(h.config.Output, "\n  L2:\n")
		_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.L2Hits)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.L2Misses)
		if r.BranchPredictions > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "\n  Branch Prediction:\n")
			_, _ = fmt.Fprintf(h.config.Output, "  Predictions:     %d\n", r.BranchPredictions)
			_, _ = fmt.Fprintf(h.config.Output, "  Correct:         %d\n", r.BranchCorrect)
			_, _ = fmt.Fprintf(h.config.Output, "  Accuracy:        %.1f%%\n", r.BranchAccuracyPercent)
		}
		_, _ = fmt.Fprintf(h.config.Output, "\n  Wall Time: %v\n\n", r.WallTime)
	}
}

// PrintCSV outputs benchmark results in CSV format.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,stalls,data_hazards,control_hazards,"+
			"icache_hits,icache_misses,dcache_hits,dcache_misses,l2_hits,l2_misses,"+
			"branch_predictions,branch_correct,average_power")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%.4f\n",
			r.Name, r.SimulatedCycles, r.InstructionsRetired, r.CPI,
			r.StallCycles, r.DataHazards, r.ControlHazards,
			r.ICacheHits, r.ICacheMisses, r.DCacheHits, r.DCacheMisses,
			r.L2Hits, r.L2Misses,
			r.BranchPredictions, r.BranchCorrect, r.AveragePower)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Config is the simulator configuration used
	Config *config.Config `json:"config"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	TotalCycles       uint64        `json:"total_cycles"`
	TotalInstructions uint64        `json:"total_instructions"`
	AverageCPI        float64       `json:"average_cpi"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Config:    h.config.Sim,
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
