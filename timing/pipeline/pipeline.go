package pipeline

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/pipesim/insts"
)

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions completed (retired).
	Instructions uint64
	// Fetched is the number of instructions fetched.
	Fetched uint64
	// Stalls is the number of cycles in which Fetch was held by a stall.
	Stalls uint64
	// DataHazards is the number of RAW data hazards detected.
	DataHazards uint64
	// ControlHazards is the number of control hazards detected.
	ControlHazards uint64
	// MemoryAccesses is the number of load/store requests emitted.
	MemoryAccesses uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger used to trace hazards.
func WithLogger(logger logr.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline implements a 5-stage in-order pipeline model.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
// Each stage holds at most one instruction and instructions advance one
// stage per cycle. No operand values are computed.
type Pipeline struct {
	slots [NumStages]Slot

	program []insts.Instruction
	decoder *insts.Decoder

	// Hazard detection
	hazardUnit *HazardUnit
	hazards    HazardResult

	// Program counter, an index into program.
	pc uint64

	// Instruction fetched during the most recent Step.
	fetched   bool
	fetchedPC uint64

	config Config
	stats  Statistics
	logger logr.Logger
}

// NewPipeline creates a new, empty 5-stage pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		decoder:    insts.NewDecoder(),
		hazardUnit: NewHazardUnit(),
		config:     DefaultConfig(),
		logger:     logr.Discard(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint64 {
	return p.pc
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Configure applies a pipeline configuration. No option currently changes
// pipeline behavior.
func (p *Pipeline) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	p.config = config
	return nil
}

// Reset clears every stage, the hazard state, the program counter and the
// statistics. The loaded program is dropped as well.
func (p *Pipeline) Reset() {
	for i := range p.slots {
		p.slots[i].Clear()
	}
	p.program = nil
	p.hazards = HazardResult{}
	p.pc = 0
	p.fetched = false
	p.fetchedPC = 0
	p.stats = Statistics{}
}

// LoadInstructions replaces the pending program and rewinds the program
// counter. Instructions already in flight are kept and drain normally.
func (p *Pipeline) LoadInstructions(lines []string) {
	program := make([]insts.Instruction, len(lines))
	for i, line := range lines {
		program[i] = p.decoder.Decode(line)
	}
	p.program = program
	p.pc = 0
}

// ProgramLen returns the number of loaded instructions.
func (p *Pipeline) ProgramLen() int {
	return len(p.program)
}

// Step advances the pipeline by one cycle. It returns a memory access
// request when a load or store occupies the Memory stage after the shift,
// and nil otherwise.
func (p *Pipeline) Step() *MemoryAccessRequest {
	p.stats.Cycles++

	p.retire()
	p.shift()
	p.fetch()

	p.hazards = p.hazardUnit.Detect(&p.slots[StageDecode], &p.slots[StageExecute])
	p.recordHazards()

	return p.memoryRequest()
}

func (p *Pipeline) retire() {
	wb := &p.slots[StageWriteBack]
	if !wb.Valid {
		return
	}
	p.stats.Instructions++
	wb.Clear()
}

func (p *Pipeline) shift() {
	for s := StageWriteBack; s > StageFetch; s-- {
		p.slots[s].moveFrom(&p.slots[s-1])
	}
}

// fetch consults the stall flag produced by the previous cycle's hazard
// detection.
func (p *Pipeline) fetch() {
	p.fetched = false

	if p.pc >= uint64(len(p.program)) {
		return
	}

	if p.hazards.Stalls[StageFetch] {
		p.stats.Stalls++
		return
	}

	p.slots[StageFetch] = Slot{
		Valid: true,
		PC:    p.pc,
		Inst:  p.program[p.pc],
	}
	p.fetched = true
	p.fetchedPC = p.pc
	p.pc++
	p.stats.Fetched++
}

func (p *Pipeline) recordHazards() {
	if p.hazards.Hazards[StageDecode] == HazardRAW {
		p.stats.DataHazards++
		p.logger.V(2).Info("RAW hazard",
			"cycle", p.stats.Cycles,
			"producer", p.slots[StageExecute].Inst.Text,
			"consumer", p.slots[StageDecode].Inst.Text)
	}

	if p.hazards.Hazards[StageFetch] == HazardControl {
		p.stats.ControlHazards++
		p.logger.V(2).Info("control hazard",
			"cycle", p.stats.Cycles,
			"branch", p.slots[StageDecode].Inst.Text)
	}
}

func (p *Pipeline) memoryRequest() *MemoryAccessRequest {
	mem := &p.slots[StageMemory]
	if !mem.Valid || !mem.Inst.IsMemory() {
		return nil
	}

	p.stats.MemoryAccesses++

	req := &MemoryAccessRequest{
		Kind:    AccessLoad,
		Address: mem.Inst.Displacement,
		PC:      mem.PC,
	}
	if mem.Inst.IsStore() {
		req.Kind = AccessStore
	}
	return req
}

// FetchedPC returns the program index of the instruction fetched in the
// most recent Step, if any.
func (p *Pipeline) FetchedPC() (uint64, bool) {
	return p.fetchedPC, p.fetched
}

// Slot returns a copy of the slot for stage s.
func (p *Pipeline) Slot(s Stage) Slot {
	return p.slots[s]
}

// Hazards returns the hazard state computed in the most recent Step.
func (p *Pipeline) Hazards() HazardResult {
	return p.hazards
}

// State returns a view of each stage in fixed order.
func (p *Pipeline) State() []StageView {
	views := make([]StageView, 0, NumStages)
	for _, s := range Stages() {
		slot := &p.slots[s]
		view := StageView{
			Name:     s.String(),
			Occupied: slot.Valid,
			Stalled:  p.hazards.Stalls[s],
			Hazard:   p.hazards.Hazards[s].String(),
		}
		if slot.Valid {
			view.Instruction = slot.Inst.Text
		}
		views = append(views, view)
	}
	return views
}

// IPC returns completed instructions per fetched instruction. A zero
// program counter counts as one, so IPC is 0 right after a reset.
func (p *Pipeline) IPC() float64 {
	pc := p.pc
	if pc == 0 {
		pc = 1
	}
	return float64(p.stats.Instructions) / float64(pc)
}

// ActivityFactor returns the fraction of occupied stages.
func (p *Pipeline) ActivityFactor() float64 {
	occupied := 0
	for i := range p.slots {
		if p.slots[i].Valid {
			occupied++
		}
	}
	return float64(occupied) / float64(NumStages)
}

// Empty returns true if no stage holds an instruction.
func (p *Pipeline) Empty() bool {
	for i := range p.slots {
		if p.slots[i].Valid {
			return false
		}
	}
	return true
}

// Drained returns true once the whole program has been fetched and every
// stage is empty.
func (p *Pipeline) Drained() bool {
	return p.pc >= uint64(len(p.program)) && p.Empty()
}
