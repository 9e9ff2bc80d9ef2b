package machine

import (
	"fmt"

	"github.com/sarchlab/ndsim/timing/latency"
)

// Config holds the machine parameters.
type Config struct {
	// ClockRatio is the number of CPU9 cycles per CPU7 cycle. Default: 2.
	ClockRatio int

	// BIOS9Path and BIOS7Path name BIOS images. When empty the generated
	// stub vectors are used.
	BIOS9Path string
	BIOS7Path string

	// Caches enables the CPU9 instruction and data caches on direct boot.
	Caches bool

	// Timing is the per-instruction cycle cost table of both CPUs.
	Timing *latency.TimingConfig
}

// DefaultConfig returns the default machine configuration.
func DefaultConfig() *Config {
	return &Config{
		ClockRatio: 2,
		Caches:     true,
		Timing:     latency.DefaultTimingConfig(),
	}
}

// Validate checks the configuration for values the scheduler cannot run
// with.
func (c *Config) Validate() error {
	if c.ClockRatio < 1 {
		return fmt.Errorf("clock ratio must be >= 1, got %d", c.ClockRatio)
	}
	if c.Timing == nil {
		return fmt.Errorf("timing config is required")
	}
	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("invalid timing config: %w", err)
	}
	return nil
}
