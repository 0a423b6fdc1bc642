// Package main provides the entry point for pipesim.
// pipesim is a cycle-level simulator of a 5-stage in-order pipeline with a
// direct-mapped cache hierarchy and a 2-bit branch predictor.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
