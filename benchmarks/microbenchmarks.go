package benchmarks

import "fmt"

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets one pipeline or cache characteristic.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		memoryConflict(),
		branchHeavy(),
		mixedOperations(),
	}
}

// GetCoreBenchmarks returns a minimal set of benchmarks for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		branchHeavy(),
	}
}

// 1. Arithmetic Sequential - independent ALU operations, no hazards
func arithmeticSequential() Benchmark {
	program := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		r := i%5 + 1
		program = append(program, fmt.Sprintf("add r%d, r%d, 1", r, r))
	}

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADD operations - measures ideal throughput",
		Program:     program,
	}
}

// 2. Dependency Chain - every instruction reads the previous result
func dependencyChain() Benchmark {
	program := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		program = append(program, "add r1, r1, 1")
	}

	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent ADDs (r1 = r1 + 1) - measures RAW stall cost",
		Program:     program,
	}
}

// 3. Memory Sequential - stores then loads over eight consecutive lines
func memorySequential() Benchmark {
	var program []string
	for i := 0; i < 8; i++ {
		program = append(program, fmt.Sprintf("sw r%d, %d(r10)", i%4+1, i*64))
	}
	for i := 0; i < 8; i++ {
		program = append(program, fmt.Sprintf("lw r%d, %d(r10)", i%4+1, i*64))
	}

	return Benchmark{
		Name:        "memory_sequential",
		Description: "8 stores then 8 loads to consecutive lines - loads hit in L1D",
		Program:     program,
	}
}

// 4. Memory Conflict - two addresses that share an L1D line
func memoryConflict() Benchmark {
	var program []string
	for i := 0; i < 4; i++ {
		program = append(program,
			"lw r1, 0(r10)",
			"lw r2, 32768(r10)",
		)
	}

	return Benchmark{
		Name:        "memory_conflict",
		Description: "8 loads alternating between two addresses 32KB apart - conflict misses",
		Program:     program,
	}
}

// 5. Branch Heavy - a branch every other instruction
func branchHeavy() Benchmark {
	var program []string
	for i := 0; i < 5; i++ {
		program = append(program,
			fmt.Sprintf("beq r1, r2, skip%d", i),
			"add r3, r4, 5",
		)
	}

	return Benchmark{
		Name:        "branch_heavy",
		Description: "5 branches interleaved with ADDs - measures control hazard cost",
		Program:     program,
	}
}

// 6. Mixed Operations - ALU, memory and branches with some dependencies
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "ALU, load/store and branch mix with RAW dependencies",
		Program: []string{
			"add r1, r2, r3",
			"sub r4, r1, r5",
			"lw r6, 0(r7)",
			"sw r8, 4(r9)",
			"beq r10, r11, label",
			"lw r12, 128(r7)",
			"add r13, r12, r1",
			"sw r13, 132(r9)",
			"bne r13, r0, label",
			"sub r14, r15, r16",
		},
	}
}
