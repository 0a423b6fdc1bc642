// Package loader reads program text files for the simulator.
//
// A program file holds one instruction per line. Blank lines and comments
// starting with '#', ';' or '//' are ignored, as are trailing comments.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyProgram is returned when a program holds no instructions.
var ErrEmptyProgram = errors.New("program has no instructions")

// commentMarkers start a comment that runs to the end of the line.
var commentMarkers = []string{"//", "#", ";"}

// Program is a list of instruction lines read from a source.
type Program struct {
	// Source names where the program came from.
	Source string
	// Instructions holds the instruction lines in program order.
	Instructions []string
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// ExampleProgram returns the built-in program used when no file is given.
// It exercises a RAW hazard, a load, a store and a branch.
func ExampleProgram() *Program {
	return &Program{
		Source: "example",
		Instructions: []string{
			"add r1, r2, r3",
			"sub r4, r1, r5",
			"lw r6, 0(r7)",
			"sw r8, 4(r9)",
			"beq r10, r11, label",
		},
	}
}

// Load reads the program file at path.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	prog.Source = path

	return prog, nil
}

// Parse reads a program from r.
func Parse(r io.Reader) (*Program, error) {
	prog := &Program{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		prog.Instructions = append(prog.Instructions, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}

	if len(prog.Instructions) == 0 {
		return nil, ErrEmptyProgram
	}

	return prog, nil
}

func stripComment(line string) string {
	for _, marker := range commentMarkers {
		if i := strings.Index(line, marker); i >= 0 {
			line = line[:i]
		}
	}
	return line
}
