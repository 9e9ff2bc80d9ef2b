package machine

import (
	"github.com/sarchlab/ndsim/emu"
	"github.com/sarchlab/ndsim/timing/cache"
)

// CoreStats holds the counters of one CPU.
type CoreStats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions executed.
	Instructions uint64
	// Halted reports whether the CPU is waiting for an interrupt.
	Halted bool
}

// Stats holds machine-wide statistics.
type Stats struct {
	Ticks  uint64
	Frames uint64

	CPU9 CoreStats
	CPU7 CoreStats

	// DMAUnits counts halfwords and words moved by both controllers.
	DMAUnits uint64
	// TimerOverflows counts overflows of all eight timers.
	TimerOverflows uint64
	// InvalidAccesses counts unmapped reads and writes on both buses.
	InvalidAccesses uint64

	ICache cache.Statistics
	DCache cache.Statistics
}

func coreStats(c *emu.CPU) CoreStats {
	return CoreStats{
		Cycles:       c.Cycles(),
		Instructions: c.InstructionCount(),
		Halted:       c.Halted(),
	}
}

// Stats returns a snapshot of the machine statistics.
func (m *Machine) Stats() Stats {
	b9, b7 := m.Bus9.Stats(), m.Bus7.Stats()
	p := m.CPU9.CP15()

	return Stats{
		Ticks:           m.ticks,
		Frames:          m.Video.Frames(),
		CPU9:            coreStats(m.CPU9),
		CPU7:            coreStats(m.CPU7),
		DMAUnits:        m.DMA9.Stats().Units + m.DMA7.Stats().Units,
		TimerOverflows:  m.Timers9.Overflows() + m.Timers7.Overflows(),
		InvalidAccesses: b9.InvalidReads + b9.InvalidWrites + b7.InvalidReads + b7.InvalidWrites,
		ICache:          p.ICache().Stats(),
		DCache:          p.DCache().Stats(),
	}
}
