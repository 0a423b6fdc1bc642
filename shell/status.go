package shell

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/pipesim/timing/core"
)

func writeStatus(out io.Writer, snap core.Snapshot, running bool) error {
	state := "stopped"
	switch {
	case running:
		state = "running"
	case snap.Drained && snap.Cycle > 0:
		state = "drained"
	}

	current := snap.CurrentInstruction
	if current == "" {
		current = "None"
	}

	latest := snap.Latest()

	fmt.Fprintf(out, "Cycle: %d (%s)\n", snap.Cycle, state)
	fmt.Fprintf(out, "Current instruction: %s\n", current)
	fmt.Fprintf(out, "IPC: %.3f  Branch accuracy: %.1f%%  Power: %.3f\n",
		latest.IPC, latest.BranchAccuracy*100, latest.PowerConsumption)
	fmt.Fprintf(out, "Retired: %d  Stalls: %d  RAW hazards: %d  Control hazards: %d\n\n",
		snap.Pipeline.Instructions, snap.Pipeline.Stalls,
		snap.Pipeline.DataHazards, snap.Pipeline.ControlHazards)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Stage\tInstruction\tStalled\tHazard")
	for _, stage := range snap.PipelineState {
		inst := stage.Instruction
		if !stage.Occupied {
			inst = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", stage.Name, inst, stage.Stalled, stage.Hazard)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Cache\tHits\tMisses\tHit rate\tActivity")
	for _, level := range []struct {
		name  string
		stats core.CacheStats
	}{
		{"L1I", snap.CacheStats.L1I},
		{"L1D", snap.CacheStats.L1D},
		{"L2", snap.CacheStats.L2},
	} {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\t%d\n",
			level.name, level.stats.Hits, level.stats.Misses,
			level.stats.HitRate*100, level.stats.Activity)
	}

	return tw.Flush()
}
