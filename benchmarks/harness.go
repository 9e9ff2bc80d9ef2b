// Package benchmarks runs small CPU9 programs on a full machine and reports
// their cycle counts, for calibrating the timing configuration.
package benchmarks

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/ndsim/emu"
	"github.com/sarchlab/ndsim/loader"
	"github.com/sarchlab/ndsim/machine"
	"github.com/sarchlab/ndsim/mem"
	"github.com/sarchlab/ndsim/timing/latency"
)

// ProgramAddr is where every benchmark program is loaded and entered.
const ProgramAddr = 0x02000000

// BenchmarkResult holds the results of a single benchmark run.
type BenchmarkResult struct {
	// Name is the benchmark identifier
	Name string `json:"name"`

	// Description explains what the benchmark tests
	Description string `json:"description"`

	// SimulatedCycles is the number of CPU9 cycles
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// Instructions is the number of CPU9 instructions executed
	Instructions uint64 `json:"instructions"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// Cache statistics
	ICacheHits   uint64 `json:"icache_hits,omitempty"`
	ICacheMisses uint64 `json:"icache_misses,omitempty"`
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// ExitCode is R0 when the program halted
	ExitCode uint32 `json:"exit_code"`

	// Halted is false if the program ran out of ticks
	Halted bool `json:"halted"`

	// WallTime is the real time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a CPU9 program. Programs end by waiting for an
// interrupt with no interrupt enabled, which halts the CPU9 for good.
type Benchmark struct {
	// Name is a short identifier
	Name string

	// Description explains what is being measured
	Description string

	// Setup initializes registers and memory before the run
	Setup func(regs *emu.RegFile, bus *mem.Bus)

	// Program is the machine code loaded at ProgramAddr
	Program []byte

	// ExpectedExit is the expected R0 at the halt
	ExpectedExit uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableCaches turns on the CPU9 instruction and data caches
	EnableCaches bool

	// Timing overrides the default cycle costs when set
	Timing *latency.TimingConfig

	// MaxTicks bounds each run
	MaxTicks uint64

	// Output is where results are written
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableCaches: true,
		MaxTicks:     1_000_000,
		Output:       os.Stdout,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.MaxTicks == 0 {
		config.MaxTicks = DefaultConfig().MaxTicks
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(bench)
		if err != nil {
			return nil, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func (h *Harness) newMachine() (*machine.Machine, error) {
	cfg := machine.DefaultConfig()
	cfg.Caches = h.config.EnableCaches
	if h.config.Timing != nil {
		cfg.Timing = h.config.Timing
	}
	return machine.New(machine.WithConfig(cfg))
}

// runBenchmark executes a single benchmark on a fresh machine.
func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	m, err := h.newMachine()
	if err != nil {
		return BenchmarkResult{}, err
	}

	prog := &loader.Program{
		EntryPoint: ProgramAddr,
		Segments: []loader.Segment{{
			Addr:    ProgramAddr,
			Data:    bench.Program,
			MemSize: uint32(len(bench.Program)),
			Flags:   loader.SegmentFlagRead | loader.SegmentFlagExecute,
		}},
	}
	if err := m.BootELF(prog); err != nil {
		return BenchmarkResult{}, err
	}

	if bench.Setup != nil {
		bench.Setup(m.CPU9.Regs(), m.Bus9)
	}

	start := time.Now()
	for i := uint64(0); i < h.config.MaxTicks && !m.CPU9.Halted(); i++ {
		m.Tick()
	}
	wallTime := time.Since(start)

	stats := m.Stats()
	result := BenchmarkResult{
		Name:            bench.Name,
		Description:     bench.Description,
		SimulatedCycles: stats.CPU9.Cycles,
		Instructions:    stats.CPU9.Instructions,
		ExitCode:        m.CPU9.Regs().R(0),
		Halted:          m.CPU9.Halted(),
		WallTime:        wallTime,
	}
	if stats.CPU9.Instructions > 0 {
		result.CPI = float64(stats.CPU9.Cycles) / float64(stats.CPU9.Instructions)
	}
	if h.config.EnableCaches {
		result.ICacheHits = stats.ICache.Hits
		result.ICacheMisses = stats.ICache.Misses
		result.DCacheHits = stats.DCache.Hits
		result.DCacheMisses = stats.DCache.Misses
	}

	return result, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output
	_, _ = fmt.Fprintln(w, "=== ndsim Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(w, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(w, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(w, "  Exit Code: %d\n", r.ExitCode)
		if !r.Halted {
			_, _ = fmt.Fprintln(w, "  (did not halt)")
		}
		_, _ = fmt.Fprintln(w, "  --- Timing ---")
		_, _ = fmt.Fprintf(w, "  Simulated Cycles: %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(w, "  Instructions:     %d\n", r.Instructions)
		_, _ = fmt.Fprintf(w, "  CPI:              %.3f\n", r.CPI)

		if r.ICacheHits > 0 || r.ICacheMisses > 0 {
			_, _ = fmt.Fprintln(w, "  --- I-Cache ---")
			_, _ = fmt.Fprintf(w, "  Hits:   %d\n", r.ICacheHits)
			_, _ = fmt.Fprintf(w, "  Misses: %d\n", r.ICacheMisses)
		}

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(w, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(w, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(w, "  Misses: %d\n", r.DCacheMisses)
		}

		_, _ = fmt.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(w, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,icache_hits,icache_misses,dcache_hits,dcache_misses,exit_code,halted")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			r.SimulatedCycles,
			r.Instructions,
			r.CPI,
			r.ICacheHits,
			r.ICacheMisses,
			r.DCacheHits,
			r.DCacheMisses,
			r.ExitCode,
			r.Halted,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	Metadata ReportMetadata    `json:"metadata"`
	Results  []BenchmarkResult `json:"results"`
	Summary  ReportSummary     `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	Timestamp     string `json:"timestamp"`
	CachesEnabled bool   `json:"caches_enabled"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	TotalCycles       uint64        `json:"total_cycles"`
	TotalInstructions uint64        `json:"total_instructions"`
	AverageCPI        float64       `json:"average_cpi"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.Instructions
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			CachesEnabled: h.config.EnableCaches,
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// BuildProgram assembles instruction words into a byte slice.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, 4*len(instrs))
	for i, inst := range instrs {
		binary.LittleEndian.PutUint32(program[4*i:], inst)
	}
	return program
}
