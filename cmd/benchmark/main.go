// Command benchmark runs the ndsim CPU9 timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv       Output results in CSV format (default: human-readable)
//	-json      Output results as a JSON report
//	-no-cache  Run with the CPU9 caches off
//	-config    Timing configuration JSON file
//	-core      Run only the core benchmarks
//
// Example:
//
//	# Compare two timing configurations
//	go run ./cmd/benchmark -csv > default.csv
//	go run ./cmd/benchmark -csv -config slow.json > slow.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/ndsim/benchmarks"
	"github.com/sarchlab/ndsim/timing/latency"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as a JSON report")
	noCache := flag.Bool("no-cache", false, "Run with the CPU9 caches off")
	configPath := flag.String("config", "", "Path to timing configuration JSON file")
	core := flag.Bool("core", false, "Run only the core benchmarks")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.EnableCaches = !*noCache
	config.Output = os.Stdout

	if *configPath != "" {
		timing, err := latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
		config.Timing = timing
	}

	harness := benchmarks.NewHarness(config)
	if *core {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	if !*csvOutput && !*jsonOutput {
		fmt.Println("ndsim Timing Benchmark Harness")
		fmt.Println("==============================")
		fmt.Printf("Caches: %v\n", config.EnableCaches)
		fmt.Println("")
	}

	results, err := harness.RunAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running benchmarks: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}
}
