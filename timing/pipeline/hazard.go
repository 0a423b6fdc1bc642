package pipeline

// HazardKind labels a hazard attached to a stage.
type HazardKind uint8

const (
	// HazardNone means the stage carries no hazard.
	HazardNone HazardKind = iota
	// HazardRAW is a read-after-write data hazard.
	HazardRAW
	// HazardControl is a branch target uncertainty.
	HazardControl
)

// String returns the display label of the hazard.
func (k HazardKind) String() string {
	switch k {
	case HazardRAW:
		return "RAW Hazard"
	case HazardControl:
		return "Control Hazard"
	default:
		return ""
	}
}

// HazardResult contains the per-stage hazard labels and stall flags for one
// cycle.
type HazardResult struct {
	Hazards [NumStages]HazardKind
	Stalls  [NumStages]bool
}

// Any reports whether any stage carries a hazard.
func (r HazardResult) Any() bool {
	for _, h := range r.Hazards {
		if h != HazardNone {
			return true
		}
	}
	return false
}

// HazardUnit detects data and control hazards between the Decode and
// Execute stages.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// Detect recomputes hazards from the current stage contents. Both checks
// are independent; neither clears a flag set by the other.
func (h *HazardUnit) Detect(decode, execute *Slot) HazardResult {
	result := HazardResult{}

	if h.DetectRAW(decode, execute) {
		result.Hazards[StageDecode] = HazardRAW
		result.Stalls[StageFetch] = true
	}

	if h.DetectControl(decode) {
		result.Hazards[StageFetch] = HazardControl
		result.Stalls[StageFetch] = true
	}

	return result
}

// DetectRAW returns true when the instruction in Decode reads the register
// written by the instruction in Execute.
func (h *HazardUnit) DetectRAW(decode, execute *Slot) bool {
	if !decode.Valid || !execute.Valid {
		return false
	}

	dest := execute.Inst.Dest()
	if dest == "" {
		return false
	}

	return decode.Inst.Reads(dest)
}

// DetectControl returns true when Decode holds a branch or jump.
func (h *HazardUnit) DetectControl(decode *Slot) bool {
	return decode.Valid && decode.Inst.IsBranch()
}
