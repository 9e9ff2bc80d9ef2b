// Package dma implements the four-channel DMA controller of each CPU.
//
// Arming a channel latches its source, destination and word count. A
// channel whose start timing has fired runs to completion in one Clock
// call, ahead of the CPU steps of the same tick.
package dma

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/ndsim/irq"
)

// Register addresses.
const (
	AddrBase = 0x040000B0
	AddrFill = 0x040000E0
	AddrEnd  = 0x040000F0

	channelStride = 12
)

// Memory is the bus view a DMA transfer reads and writes. It does not
// include the CPU-side tightly coupled memories.
type Memory interface {
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
}

// Timing is the event that starts a transfer.
type Timing int

// Start timings. The CPU9 uses the first eight; the CPU7 uses Immediate,
// VBlank, Card and either Wireless or GBASlot depending on the channel.
const (
	Immediate Timing = iota
	VBlank
	HBlank
	DisplayStart
	MainMemoryDisplay
	Card
	GBASlot
	GeometryFIFO
	Wireless
)

func (t Timing) String() string {
	names := [...]string{
		"immediate", "vblank", "hblank", "display-start",
		"main-memory-display", "card", "gba-slot", "geometry-fifo", "wireless",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// AddressControl selects how an address moves after each unit.
type AddressControl uint32

// Address controls.
const (
	Increment AddressControl = iota
	Decrement
	Fixed
	IncrementReload
)

// Control bits of DMAxCNT.
const (
	cntDstShift = 21
	cntSrcShift = 23
	cntRepeat   = 1 << 25
	cntWord     = 1 << 26
	cntIRQ      = 1 << 30
	cntEnable   = 1 << 31
)

// Profile captures the per-CPU differences of the controller.
type Profile struct {
	Name string

	// CountMask is the width of the count field per channel.
	CountMask [4]uint32
	// SourceMask and DestMask are the address bits the channel uses.
	SourceMask [4]uint32
	DestMask   [4]uint32
	// HasFill adds the four fill-data words at AddrFill.
	HasFill bool

	timing func(channel int, cnt uint32) Timing
}

// ProfileCPU9 is the ARM9 controller: 21-bit counts, eight start timings
// in bits 27..29 and fill-data registers.
var ProfileCPU9 = Profile{
	Name:       "dma9",
	CountMask:  [4]uint32{0x1FFFFF, 0x1FFFFF, 0x1FFFFF, 0x1FFFFF},
	SourceMask: [4]uint32{0x0FFFFFFF, 0x0FFFFFFF, 0x0FFFFFFF, 0x0FFFFFFF},
	DestMask:   [4]uint32{0x0FFFFFFF, 0x0FFFFFFF, 0x0FFFFFFF, 0x0FFFFFFF},
	HasFill:    true,
	timing: func(_ int, cnt uint32) Timing {
		return Timing(cnt >> 27 & 7)
	},
}

// ProfileCPU7 is the ARM7 controller: 14-bit counts on channels 0-2,
// 16-bit on channel 3, four start timings in bits 28..29.
var ProfileCPU7 = Profile{
	Name:       "dma7",
	CountMask:  [4]uint32{0x3FFF, 0x3FFF, 0x3FFF, 0xFFFF},
	SourceMask: [4]uint32{0x07FFFFFF, 0x0FFFFFFF, 0x0FFFFFFF, 0x0FFFFFFF},
	DestMask:   [4]uint32{0x07FFFFFF, 0x07FFFFFF, 0x07FFFFFF, 0x0FFFFFFF},
	timing: func(ch int, cnt uint32) Timing {
		switch cnt >> 28 & 3 {
		case 0:
			return Immediate
		case 1:
			return VBlank
		case 2:
			return Card
		}
		if ch&1 == 0 {
			return Wireless
		}
		return GBASlot
	},
}

// MaxCount returns the number of units a count of zero transfers.
func (p Profile) MaxCount(channel int) uint32 {
	return p.CountMask[channel] + 1
}

// Channel is one DMA channel's programmed and latched state.
type Channel struct {
	SAD uint32
	DAD uint32
	CNT uint32

	src     uint32
	dst     uint32
	count   uint32
	pending bool
}

// Enabled reports whether the channel is armed.
func (ch *Channel) Enabled() bool {
	return ch.CNT&cntEnable != 0
}

// Pending reports whether the channel's start timing has fired.
func (ch *Channel) Pending() bool {
	return ch.pending
}

// Latched returns the internal source, destination and remaining count.
func (ch *Channel) Latched() (src, dst, count uint32) {
	return ch.src, ch.dst, ch.count
}

// Stats counts the controller's work.
type Stats struct {
	Transfers uint64
	Units     uint64
}

// Controller is one CPU's DMA controller.
type Controller struct {
	profile Profile
	mem     Memory
	irq     *irq.Controller
	log     logr.Logger

	channels [4]Channel
	fill     [4]uint32
	stats    Stats
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for transfer tracing.
func WithLogger(log logr.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// New creates a controller that moves data through mem and raises its
// completion interrupts on ic.
func New(profile Profile, mem Memory, ic *irq.Controller, opts ...Option) *Controller {
	c := &Controller{
		profile: profile,
		mem:     mem,
		irq:     ic,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetMemory replaces the bus view. The machine wires it after the bus is
// built.
func (c *Controller) SetMemory(mem Memory) {
	c.mem = mem
}

// Reset disarms every channel and clears the registers.
func (c *Controller) Reset() {
	c.channels = [4]Channel{}
	c.fill = [4]uint32{}
}

// Channel returns channel n.
func (c *Controller) Channel(n int) *Channel {
	return &c.channels[n&3]
}

// Stats returns the transfer counters.
func (c *Controller) Stats() Stats {
	return c.stats
}

// Timing returns the start timing channel n is programmed with.
func (c *Controller) Timing(n int) Timing {
	return c.profile.timing(n, c.channels[n].CNT)
}

// ReadRegister returns the word at addr, or false if addr is outside the
// DMA register block.
func (c *Controller) ReadRegister(addr uint32) (uint32, bool) {
	if addr >= AddrFill && addr < AddrEnd {
		if !c.profile.HasFill {
			return 0, false
		}
		return c.fill[(addr-AddrFill)/4], true
	}
	if addr < AddrBase || addr >= AddrFill {
		return 0, false
	}

	n := int(addr-AddrBase) / channelStride
	ch := &c.channels[n]
	switch (addr - AddrBase) % channelStride {
	case 0:
		return ch.SAD, true
	case 4:
		return ch.DAD, true
	default:
		return ch.CNT, true
	}
}

// WriteRegister writes the bytes of v selected by mask to the word at
// addr. Setting the enable bit arms the channel.
func (c *Controller) WriteRegister(addr, v, mask uint32) bool {
	if addr >= AddrFill && addr < AddrEnd {
		if !c.profile.HasFill {
			return false
		}
		f := &c.fill[(addr-AddrFill)/4]
		*f = *f&^mask | v&mask
		return true
	}
	if addr < AddrBase || addr >= AddrFill {
		return false
	}

	n := int(addr-AddrBase) / channelStride
	ch := &c.channels[n]
	switch (addr - AddrBase) % channelStride {
	case 0:
		ch.SAD = (ch.SAD&^mask | v&mask) & c.profile.SourceMask[n]
	case 4:
		ch.DAD = (ch.DAD&^mask | v&mask) & c.profile.DestMask[n]
	default:
		c.writeControl(n, ch.CNT&^mask|v&mask)
	}
	return true
}

func (c *Controller) writeControl(n int, v uint32) {
	ch := &c.channels[n]
	wasEnabled := ch.Enabled()
	ch.CNT = v

	if !ch.Enabled() {
		ch.pending = false
		return
	}
	if wasEnabled {
		return
	}

	ch.src = ch.SAD
	ch.dst = ch.DAD
	ch.count = c.count(n)

	if c.Timing(n) == Immediate {
		ch.pending = true
	}
}

// count returns the programmed unit count, with zero meaning the channel
// maximum.
func (c *Controller) count(n int) uint32 {
	count := c.channels[n].CNT & c.profile.CountMask[n]
	if count == 0 {
		return c.profile.MaxCount(n)
	}
	return count
}

// Trigger marks every armed channel waiting on t as pending.
func (c *Controller) Trigger(t Timing) {
	for n := range c.channels {
		ch := &c.channels[n]
		if ch.Enabled() && c.Timing(n) == t {
			ch.pending = true
		}
	}
}

// Clock runs every pending channel to completion in priority order and
// returns the number of units moved.
func (c *Controller) Clock() int {
	units := 0
	for n := range c.channels {
		if c.channels[n].pending {
			units += c.run(n)
		}
	}
	return units
}

func (c *Controller) run(n int) int {
	ch := &c.channels[n]
	word := ch.CNT&cntWord != 0
	dstCtl := AddressControl(ch.CNT >> cntDstShift & 3)
	srcCtl := AddressControl(ch.CNT >> cntSrcShift & 3)

	if srcCtl == IncrementReload {
		c.log.Info("unpredictable DMA source control", "channel", n)
		srcCtl = Increment
	}

	size := uint32(2)
	if word {
		size = 4
	}

	c.log.V(1).Info("dma transfer", "channel", n,
		"src", ch.src, "dst", ch.dst, "count", ch.count, "timing", c.Timing(n).String())

	count := ch.count
	for i := uint32(0); i < count; i++ {
		if word {
			c.mem.Write32(ch.dst&^3, c.mem.Read32(ch.src&^3))
		} else {
			c.mem.Write16(ch.dst&^1, c.mem.Read16(ch.src&^1))
		}
		ch.src = step(ch.src, srcCtl, size)
		ch.dst = step(ch.dst, dstCtl, size)
	}

	c.stats.Transfers++
	c.stats.Units += uint64(count)
	ch.pending = false

	if ch.CNT&cntIRQ != 0 {
		c.irq.Raise(irq.DMALine(n))
	}

	if ch.CNT&cntRepeat != 0 && c.Timing(n) != Immediate {
		ch.count = c.count(n)
		if dstCtl == IncrementReload {
			ch.dst = ch.DAD
		}
	} else {
		ch.CNT &^= cntEnable
	}

	return int(count)
}

func step(addr uint32, ctl AddressControl, size uint32) uint32 {
	switch ctl {
	case Increment, IncrementReload:
		return addr + size
	case Decrement:
		return addr - size
	default:
		return addr
	}
}
