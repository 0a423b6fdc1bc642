// Package pipeline provides the 5-stage pipeline implementation for timing simulation.
package pipeline

import "github.com/sarchlab/pipesim/insts"

// Slot holds the instruction occupying one pipeline stage.
type Slot struct {
	// Valid indicates if this slot holds an instruction.
	Valid bool

	// PC is the program index the instruction was fetched from.
	PC uint64

	// Inst is the classified instruction.
	Inst insts.Instruction
}

// Clear resets the slot to empty state.
func (s *Slot) Clear() {
	s.Valid = false
	s.PC = 0
	s.Inst = insts.Instruction{}
}

// moveFrom transfers src into s and empties src.
func (s *Slot) moveFrom(src *Slot) {
	*s = *src
	src.Clear()
}
