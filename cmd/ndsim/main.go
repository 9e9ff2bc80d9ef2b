// Package main provides the entry point for ndsim, a dual-CPU handheld
// console simulator.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/ndsim/loader"
	"github.com/sarchlab/ndsim/machine"
	"github.com/sarchlab/ndsim/script"
	"github.com/sarchlab/ndsim/statsview"
	"github.com/sarchlab/ndsim/timing/latency"
)

var (
	bios9Path  = flag.String("bios9", "", "Path to the CPU9 BIOS image (default: built-in stub)")
	bios7Path  = flag.String("bios7", "", "Path to the CPU7 BIOS image (default: built-in stub)")
	configPath = flag.String("config", "", "Path to timing configuration JSON file")
	ratio      = flag.Int("ratio", 2, "CPU9 cycles per CPU7 cycle")
	noCache    = flag.Bool("no-cache", false, "Leave the CPU9 caches off at boot")
	frames     = flag.Int("frames", 60, "Number of frames to run")
	elfMode    = flag.Bool("elf", false, "Treat the program as a bare-metal CPU9 ELF file")
	scriptPath = flag.String("script", "", "Lua script that drives the machine instead of -frames")
	debug      = flag.Bool("debug", false, "Start the interactive debugger")
	stats      = flag.Bool("statsview", false, "Serve runtime statistics over HTTP")
	statsAddr  = flag.String("statsview-addr", statsview.DefaultAddress, "Listen address of the statistics server")
	cpuProfile = flag.String("cpuprofile", "", "Write CPU profile to file")
	memProfile = flag.String("memprofile", "", "Write memory profile to file")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 && (*bios9Path == "" || *bios7Path == "") {
		fmt.Fprintf(os.Stderr, "Usage: ndsim [options] <rom.nds|program.elf>\n")
		fmt.Fprintf(os.Stderr, "       ndsim -bios9 <file> -bios7 <file> [options]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		pprof.StopCPUProfile()
		os.Exit(1)
	}

	if *memProfile != "" {
		if err := writeMemProfile(*memProfile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
			os.Exit(1)
		}
	}
}

func run() error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	m, err := machine.New(machine.WithConfig(cfg), machine.WithLogger(newLogger()))
	if err != nil {
		return err
	}

	programPath := flag.Arg(0)
	if programPath != "" {
		if err := boot(m, programPath); err != nil {
			return err
		}
	}

	if *stats {
		statsview.Launch(*statsAddr, os.Stdout)
	}

	start := time.Now()

	switch {
	case *scriptPath != "":
		e := script.New(m, os.Stdout)
		defer e.Close()
		if err := e.RunFile(*scriptPath); err != nil {
			return err
		}
	case *debug:
		if err := runDebugger(m); err != nil {
			return err
		}
	default:
		for i := 0; i < *frames; i++ {
			m.RunFrame()
		}
	}

	printStats(os.Stdout, programPath, m.Stats(), time.Since(start))
	return nil
}

func buildConfig() (*machine.Config, error) {
	cfg := machine.DefaultConfig()
	cfg.ClockRatio = *ratio
	cfg.Caches = !*noCache
	cfg.BIOS9Path = *bios9Path
	cfg.BIOS7Path = *bios7Path

	if *configPath != "" {
		timing, err := latency.LoadConfig(*configPath)
		if err != nil {
			return nil, fmt.Errorf("loading timing config: %w", err)
		}
		cfg.Timing = timing
	}

	return cfg, nil
}

func newLogger() logr.Logger {
	if !*verbose {
		return logr.Discard()
	}
	return funcr.New(func(prefix, args string) {
		fmt.Fprintln(os.Stderr, prefix, args)
	}, funcr.Options{Verbosity: 1})
}

func boot(m *machine.Machine, path string) error {
	if *elfMode || strings.HasSuffix(strings.ToLower(path), ".elf") {
		prog, err := loader.LoadELF(path)
		if err != nil {
			return fmt.Errorf("loading program: %w", err)
		}
		if *verbose {
			fmt.Printf("Loaded: %s\n", path)
			fmt.Printf("Entry point: 0x%08X\n", prog.EntryPoint)
			fmt.Printf("Segments: %d\n", len(prog.Segments))
		}
		return m.BootELF(prog)
	}

	rom, err := loader.LoadROM(path)
	if err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}
	if *verbose {
		fmt.Printf("Loaded: %s (%s %s)\n", path, rom.Header.Title, rom.Header.GameCode)
		fmt.Printf("ARM9 entry: 0x%08X\n", rom.Header.ARM9.Entry)
		fmt.Printf("ARM7 entry: 0x%08X\n", rom.Header.ARM7.Entry)
	}
	return m.DirectBoot(rom)
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return pprof.WriteHeapProfile(f)
}
