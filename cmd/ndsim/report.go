package main

import (
	"fmt"
	"io"
	"time"

	"github.com/sarchlab/ndsim/machine"
)

// cpi returns cycles per instruction, or 0 before the first instruction.
func cpi(s machine.CoreStats) float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100.0 * float64(part) / float64(total)
}

// printStats writes the end-of-run report.
func printStats(w io.Writer, programPath string, s machine.Stats, elapsed time.Duration) {
	_, _ = fmt.Fprintf(w, "\n")
	if programPath != "" {
		_, _ = fmt.Fprintf(w, "Program: %s\n", programPath)
	}
	_, _ = fmt.Fprintf(w, "Frames: %d\n", s.Frames)
	_, _ = fmt.Fprintf(w, "Ticks:  %d\n", s.Ticks)
	_, _ = fmt.Fprintf(w, "\n")

	for _, c := range []struct {
		name  string
		stats machine.CoreStats
	}{
		{"CPU9", s.CPU9},
		{"CPU7", s.CPU7},
	} {
		_, _ = fmt.Fprintf(w, "%s:\n", c.name)
		_, _ = fmt.Fprintf(w, "  Instructions: %d\n", c.stats.Instructions)
		_, _ = fmt.Fprintf(w, "  Cycles:       %d\n", c.stats.Cycles)
		_, _ = fmt.Fprintf(w, "  CPI:          %.2f\n", cpi(c.stats))
		_, _ = fmt.Fprintf(w, "  Halted:       %v\n", c.stats.Halted)
	}

	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Caches:\n")
	_, _ = fmt.Fprintf(w, "  I-Cache: %d hits, %d misses (%5.1f%% hit rate)\n",
		s.ICache.Hits, s.ICache.Misses, percent(s.ICache.Hits, s.ICache.Hits+s.ICache.Misses))
	_, _ = fmt.Fprintf(w, "  D-Cache: %d hits, %d misses (%5.1f%% hit rate)\n",
		s.DCache.Hits, s.DCache.Misses, percent(s.DCache.Hits, s.DCache.Hits+s.DCache.Misses))

	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Devices:\n")
	_, _ = fmt.Fprintf(w, "  DMA units:        %d\n", s.DMAUnits)
	_, _ = fmt.Fprintf(w, "  Timer overflows:  %d\n", s.TimerOverflows)
	_, _ = fmt.Fprintf(w, "  Invalid accesses: %d\n", s.InvalidAccesses)

	if elapsed > 0 {
		_, _ = fmt.Fprintf(w, "\n")
		_, _ = fmt.Fprintf(w, "Wall time: %v (%.1f frames/s)\n",
			elapsed.Round(time.Millisecond), float64(s.Frames)/elapsed.Seconds())
	}
}
