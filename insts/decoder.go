package insts

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Op represents an opcode family.
type Op uint8

// Opcode families.
const (
	OpUnknown Op = iota
	OpALU
	OpLoad
	OpStore
	OpBranch
)

// String returns the name of the opcode family.
func (o Op) String() string {
	switch o {
	case OpALU:
		return "alu"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpBranch:
		return "branch"
	default:
		return "unknown"
	}
}

// Instruction represents a classified instruction line.
type Instruction struct {
	// Text is the instruction line with surrounding whitespace removed.
	Text string
	// Mnemonic is the lower-cased first token of the line.
	Mnemonic string
	// Op is the opcode family.
	Op Op

	// Registers holds every r<n> token in order of appearance.
	Registers []string

	// Displacement is the first standalone integer literal, or 0.
	Displacement    uint64
	HasDisplacement bool
}

// Dest returns the destination register, which is the first register
// token. It returns "" when the instruction names no register.
func (i Instruction) Dest() string {
	if len(i.Registers) == 0 {
		return ""
	}
	return i.Registers[0]
}

// Reads reports whether reg appears among the instruction's register tokens.
func (i Instruction) Reads(reg string) bool {
	if reg == "" {
		return false
	}
	return slices.Contains(i.Registers, reg)
}

// IsLoad returns true for lw.
func (i Instruction) IsLoad() bool { return i.Op == OpLoad }

// IsStore returns true for sw.
func (i Instruction) IsStore() bool { return i.Op == OpStore }

// IsMemory returns true for loads and stores.
func (i Instruction) IsMemory() bool { return i.Op == OpLoad || i.Op == OpStore }

// IsBranch returns true for branches and jumps.
func (i Instruction) IsBranch() bool { return i.Op == OpBranch }

var (
	registerPattern = regexp.MustCompile(`\br\d+\b`)
	literalPattern  = regexp.MustCompile(`(?:^|[^\w])(0[xX][0-9a-fA-F]+|\d+)\b`)
)

// Decoder classifies instruction lines.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode classifies a single instruction line. Unrecognized text is not an
// error; it decodes to an ALU (or unknown, if empty) instruction with
// whatever registers and literal could be extracted.
func (d *Decoder) Decode(text string) Instruction {
	text = strings.TrimSpace(text)
	inst := Instruction{Text: text}
	if text == "" {
		return inst
	}

	lower := strings.ToLower(text)
	if fields := strings.Fields(lower); len(fields) > 0 {
		inst.Mnemonic = strings.TrimRight(fields[0], ",")
	}

	switch {
	case strings.HasPrefix(lower, "lw"):
		inst.Op = OpLoad
	case strings.HasPrefix(lower, "sw"):
		inst.Op = OpStore
	case lower[0] == 'b' || lower[0] == 'j':
		inst.Op = OpBranch
	default:
		inst.Op = OpALU
	}

	inst.Registers = registerPattern.FindAllString(lower, -1)
	inst.Displacement, inst.HasDisplacement = parseLiteral(lower)

	return inst
}

// parseLiteral extracts the first integer literal that is not part of a
// register or identifier token.
func parseLiteral(text string) (uint64, bool) {
	m := literalPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	lit := m[1]
	base := 10
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		lit = lit[2:]
		base = 16
	}

	v, err := strconv.ParseUint(lit, base, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
