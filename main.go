// Package main provides the entry point for ndsim.
// ndsim simulates a dual-CPU handheld console: an ARM946E-S and an
// ARM7TDMI sharing memory, with interrupts, DMA, timers and IPC.
//
// For the full CLI, use: go run ./cmd/ndsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("ndsim - dual-CPU handheld console simulator")
	fmt.Println("")
	fmt.Println("Usage: ndsim [options] <rom.nds|program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -frames    Number of frames to run")
	fmt.Println("  -config    Path to timing configuration JSON file")
	fmt.Println("  -script    Lua script that drives the machine")
	fmt.Println("  -debug     Interactive debugger")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/ndsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/ndsim' instead.")
	}
}
