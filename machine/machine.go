// Package machine assembles the two CPUs, their buses and peripherals into
// one system and schedules them. One tick is one CPU7 cycle; the CPU9 runs
// ClockRatio cycles per tick.
package machine

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"github.com/sarchlab/ndsim/bios"
	"github.com/sarchlab/ndsim/dma"
	"github.com/sarchlab/ndsim/emu"
	"github.com/sarchlab/ndsim/ipc"
	"github.com/sarchlab/ndsim/irq"
	"github.com/sarchlab/ndsim/mathunit"
	"github.com/sarchlab/ndsim/mem"
	"github.com/sarchlab/ndsim/timer"
	"github.com/sarchlab/ndsim/timing/latency"
	"github.com/sarchlab/ndsim/video"
)

// Machine owns every component of the system.
type Machine struct {
	config *Config
	log    logr.Logger

	Shared *mem.Shared
	Bus9   *mem.Bus
	Bus7   *mem.Bus

	CPU9 *emu.CPU
	CPU7 *emu.CPU

	IRQ9 *irq.Controller
	IRQ7 *irq.Controller

	DMA9 *dma.Controller
	DMA7 *dma.Controller

	Timers9 *timer.Unit
	Timers7 *timer.Unit

	IPC   *ipc.IPC
	Video *video.Timing
	Math  *mathunit.Unit

	debt9 int
	debt7 int
	ticks uint64
}

// Option is a functional option for configuring the Machine.
type Option func(*Machine)

// WithLogger sets the root logger. Components log under their own names.
func WithLogger(log logr.Logger) Option {
	return func(m *Machine) {
		m.log = log
	}
}

// WithConfig replaces the default configuration.
func WithConfig(c *Config) Option {
	return func(m *Machine) {
		m.config = c
	}
}

// New builds and resets a machine.
func New(opts ...Option) (*Machine, error) {
	m := &Machine{
		config: DefaultConfig(),
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to configure machine: %w", err)
	}

	m.build()

	if err := m.loadBIOS(m.Bus9, m.config.BIOS9Path, bios.Stub9()); err != nil {
		return nil, err
	}
	if err := m.loadBIOS(m.Bus7, m.config.BIOS7Path, bios.Stub7()); err != nil {
		return nil, err
	}

	m.Reset()
	return m, nil
}

func (m *Machine) build() {
	log := m.log

	m.Shared = mem.NewShared()
	m.Bus9 = mem.NewBus(mem.CPU9, m.Shared, mem.WithLogger(log.WithName("bus9")))
	m.Bus7 = mem.NewBus(mem.CPU7, m.Shared, mem.WithLogger(log.WithName("bus7")))

	m.IRQ9 = irq.New(false)
	m.IRQ7 = irq.New(true)

	m.DMA9 = dma.New(dma.ProfileCPU9, m.Bus9.DMAView(), m.IRQ9, dma.WithLogger(log.WithName("dma9")))
	m.DMA7 = dma.New(dma.ProfileCPU7, m.Bus7.DMAView(), m.IRQ7, dma.WithLogger(log.WithName("dma7")))

	m.Timers9 = timer.New(m.IRQ9)
	m.Timers7 = timer.New(m.IRQ7)

	m.IPC = ipc.New(m.IRQ9, m.IRQ7)
	m.IPC.SetLogger(log.WithName("ipc"))

	m.Video = video.New(m.IRQ9, m.IRQ7, m.DMA9, m.DMA7)
	m.Math = mathunit.New()

	m.mapIO(m.Bus9, m.IRQ9, m.Timers9, m.IPC.Port(ipc.CPU9), m.DMA9)
	m.mapIO(m.Bus7, m.IRQ7, m.Timers7, m.IPC.Port(ipc.CPU7), m.DMA7)

	v9 := m.Video.Port(video.CPU9)
	m.Bus9.MapIO(v9, video.AddrDispCnt, video.AddrDispStat)
	m.Bus9.MapIORange(v9, video.AddrVRAMCnt, video.AddrVRAMCnt+12)
	m.Bus9.MapIO(m.Math, m.Math.Ports()...)
	m.Bus7.MapIO(m.Video.Port(video.CPU7), video.AddrDispStat, video.AddrVRAMCnt)

	table := latency.NewTableWithConfig(m.config.Timing)

	m.CPU9 = emu.NewCPU(emu.CPU9, m.Bus9,
		emu.WithLogger(log.WithName("cpu9")),
		emu.WithInterruptLine(m.IRQ9),
		emu.WithLatencyTable(table),
		emu.WithTCMMapper(m.Bus9),
	)
	m.CPU7 = emu.NewCPU(emu.CPU7, m.Bus7,
		emu.WithLogger(log.WithName("cpu7")),
		emu.WithInterruptLine(m.IRQ7),
		emu.WithLatencyTable(table),
	)

	m.Bus7.System().SetHaltHandler(m.CPU7.Halt)
}

func (m *Machine) mapIO(b *mem.Bus, ic *irq.Controller, t *timer.Unit, p *ipc.Port, d *dma.Controller) {
	b.MapIO(ic, ic.Ports()...)
	b.MapIORange(t, timer.AddrBase, timer.AddrBase+16)
	b.MapIO(p, ipc.AddrSync, ipc.AddrFIFOCnt, ipc.AddrSend, ipc.AddrRecv)
	b.SetFallback(d)
}

func (m *Machine) loadBIOS(b *mem.Bus, path string, stub []byte) error {
	image := stub
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read BIOS file: %w", err)
		}
		image = data
	}

	if err := b.LoadBIOS(image); err != nil {
		return fmt.Errorf("failed to load BIOS: %w", err)
	}
	return nil
}

// Config returns the machine configuration.
func (m *Machine) Config() *Config {
	return m.config
}

// Reset returns every component to its power-on state. BIOS images are
// kept. Both CPUs start at their reset vectors.
func (m *Machine) Reset() {
	m.Shared.Reset()
	m.Bus9.Reset()
	m.Bus7.Reset()
	m.IRQ9.Reset()
	m.IRQ7.Reset()
	m.DMA9.Reset()
	m.DMA7.Reset()
	m.Timers9.Reset()
	m.Timers7.Reset()
	m.IPC.Reset()
	m.Video.Reset()
	m.Math.Reset()
	m.CPU9.Reset()
	m.CPU7.Reset()

	m.debt9 = 0
	m.debt7 = 0
	m.ticks = 0
}

// Tick advances the machine by one CPU7 cycle. Display timing runs first,
// then DMA, then the timers, so their side effects are visible to the CPU
// steps of the same tick.
func (m *Machine) Tick() {
	m.Video.Clock()
	m.DMA9.Clock()
	m.DMA7.Clock()
	m.Timers9.Clock()
	m.Timers7.Clock()

	m.debt9 += m.config.ClockRatio
	for m.debt9 > 0 {
		m.debt9 -= max(m.CPU9.Clock(), 1)
	}

	m.debt7++
	for m.debt7 > 0 {
		m.debt7 -= max(m.CPU7.Clock(), 1)
	}

	m.ticks++
}

// Run advances the machine by n ticks.
func (m *Machine) Run(n uint64) {
	for i := uint64(0); i < n; i++ {
		m.Tick()
	}
}

// RunFrame advances the machine to the start of the next frame.
func (m *Machine) RunFrame() {
	start := m.Video.Frames()
	for m.Video.Frames() == start {
		m.Tick()
	}
}

// Ticks returns the number of ticks since reset.
func (m *Machine) Ticks() uint64 {
	return m.ticks
}
