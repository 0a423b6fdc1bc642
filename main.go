// Package main provides the entry point for pipesim.
// pipesim is a cycle-level simulator of a 5-stage pipeline with a
// direct-mapped cache hierarchy, built on Akita.
//
// For the full CLI, use: go run ./cmd/pipesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("pipesim - Cycle-Level Pipeline Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: pipesim [--config file] [-v n]")
	fmt.Println("       pipesim simulate [options] <program>")
	fmt.Println("       pipesim bench [--csv|--json]")
	fmt.Println("       pipesim config [file]")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/pipesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/pipesim' instead.")
	}
}
