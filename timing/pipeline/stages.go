package pipeline

// Stage identifies one of the five fixed pipeline slots.
type Stage int

// Pipeline stages in program order.
const (
	StageFetch Stage = iota
	StageDecode
	StageExecute
	StageMemory
	StageWriteBack

	// NumStages is the pipeline depth.
	NumStages
)

var stageNames = [NumStages]string{
	StageFetch:     "Fetch",
	StageDecode:    "Decode",
	StageExecute:   "Execute",
	StageMemory:    "Memory",
	StageWriteBack: "WriteBack",
}

// String returns the stage name.
func (s Stage) String() string {
	if s < 0 || s >= NumStages {
		return "Unknown"
	}
	return stageNames[s]
}

// Stages returns all stages in fixed order.
func Stages() []Stage {
	return []Stage{StageFetch, StageDecode, StageExecute, StageMemory, StageWriteBack}
}

// StageView is a read-only copy of one stage.
type StageView struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction,omitempty"`
	Occupied    bool   `json:"occupied"`
	Stalled     bool   `json:"stalled"`
	Hazard      string `json:"hazard,omitempty"`
}

// AccessKind distinguishes loads from stores.
type AccessKind uint8

// Memory access kinds.
const (
	AccessLoad AccessKind = iota
	AccessStore
)

// String returns "load" or "store".
func (k AccessKind) String() string {
	if k == AccessStore {
		return "store"
	}
	return "load"
}

// MemoryAccessRequest is emitted by Step when a load or store occupies the
// Memory stage.
type MemoryAccessRequest struct {
	Kind    AccessKind
	Address uint64
	// PC is the program index of the memory instruction.
	PC uint64
}

// IsWrite returns true for stores.
func (r MemoryAccessRequest) IsWrite() bool {
	return r.Kind == AccessStore
}
