// Package video models the display timing seen by the CPUs: the line and
// dot counters, the blanking flags and interrupts, and the DMA start
// events they produce. Rendering is not modelled; the display and VRAM
// bank control registers are stored for software that reads them back.
package video

import (
	"github.com/sarchlab/ndsim/dma"
	"github.com/sarchlab/ndsim/irq"
)

// Display geometry.
const (
	Lines        = 263
	VisibleLines = 192
	Dots         = 355
	VisibleDots  = 256
	TicksPerDot  = 6

	TicksPerLine  = Dots * TicksPerDot
	TicksPerFrame = Lines * TicksPerLine
)

// Register addresses.
const (
	AddrDispCnt  = 0x04000000
	AddrDispStat = 0x04000004
	AddrVRAMCnt  = 0x04000240
)

// DISPSTAT bits.
const (
	statVBlank     = 1 << 0
	statHBlank     = 1 << 1
	statVCount     = 1 << 2
	statVBlankIRQ  = 1 << 3
	statHBlankIRQ  = 1 << 4
	statVCountIRQ  = 1 << 5
	statVCountHigh = 1 << 7

	statWritable = statVBlankIRQ | statHBlankIRQ | statVCountIRQ | statVCountHigh | 0xFF00
)

// Trigger receives DMA start events.
type Trigger interface {
	Trigger(t dma.Timing)
}

// Side names a CPU.
type Side int

// The two sides.
const (
	CPU9 Side = iota
	CPU7
)

// Port is one CPU's view of the display registers.
type Port struct {
	t    *Timing
	side Side
	irq  *irq.Controller
	dma  Trigger

	stat uint32
}

// Timing owns the line and dot counters.
type Timing struct {
	ports [2]*Port

	line   int
	tick   int
	frames uint64

	dispCnt uint32
	vramCnt [9]uint8
}

// New creates the display timing and connects it to each CPU's interrupt
// controller and DMA controller.
func New(irq9, irq7 *irq.Controller, dma9, dma7 Trigger) *Timing {
	t := &Timing{}
	t.ports[CPU9] = &Port{t: t, side: CPU9, irq: irq9, dma: dma9}
	t.ports[CPU7] = &Port{t: t, side: CPU7, irq: irq7, dma: dma7}
	return t
}

// Port returns the register view of one side.
func (t *Timing) Port(s Side) *Port {
	return t.ports[s]
}

// Reset returns to the first dot of line 0 and clears the registers.
func (t *Timing) Reset() {
	t.line = 0
	t.tick = 0
	t.frames = 0
	t.dispCnt = 0
	t.vramCnt = [9]uint8{}
	for _, p := range t.ports {
		p.stat = 0
	}
	t.startLine()
}

// Line returns VCOUNT.
func (t *Timing) Line() int {
	return t.line
}

// Dot returns the dot within the current line.
func (t *Timing) Dot() int {
	return t.tick / TicksPerDot
}

// Frames returns the number of frames completed since reset.
func (t *Timing) Frames() uint64 {
	return t.frames
}

// VRAMCnt returns the control byte of VRAM bank n (0 = A).
func (t *Timing) VRAMCnt(n int) uint8 {
	return t.vramCnt[n]
}

// Clock advances one master tick.
func (t *Timing) Clock() {
	t.tick++
	if t.tick == VisibleDots*TicksPerDot {
		t.startHBlank()
	}
	if t.tick < TicksPerLine {
		return
	}

	t.tick = 0
	t.line++
	if t.line == Lines {
		t.line = 0
		t.frames++
	}
	t.startLine()
}

func (t *Timing) startHBlank() {
	for _, p := range t.ports {
		p.stat |= statHBlank
		if p.stat&statHBlankIRQ != 0 {
			p.irq.Raise(irq.HBlank)
		}
		if t.line < VisibleLines {
			p.dma.Trigger(dma.HBlank)
		}
	}
}

func (t *Timing) startLine() {
	for _, p := range t.ports {
		p.stat &^= statHBlank

		switch t.line {
		case VisibleLines:
			p.stat |= statVBlank
			if p.stat&statVBlankIRQ != 0 {
				p.irq.Raise(irq.VBlank)
			}
			p.dma.Trigger(dma.VBlank)
		case Lines - 1:
			p.stat &^= statVBlank
		}

		if t.line < VisibleLines {
			p.dma.Trigger(dma.DisplayStart)
		}

		p.matchVCount()
	}
}

// vcountSetting returns the line DISPSTAT compares against.
func (p *Port) vcountSetting() int {
	return int(p.stat>>8&0xFF | (p.stat&statVCountHigh)<<1)
}

func (p *Port) matchVCount() {
	if p.t.line != p.vcountSetting() {
		p.stat &^= statVCount
		return
	}
	p.stat |= statVCount
	if p.stat&statVCountIRQ != 0 {
		p.irq.Raise(irq.VCount)
	}
}

// DispStat returns DISPSTAT as read by this side.
func (p *Port) DispStat() uint32 {
	return p.stat
}

// vramStat reports the banks C and D mapped to the CPU7.
func (t *Timing) vramStat() uint32 {
	var v uint32
	if t.vramCnt[2]&0x87 == 0x82 {
		v |= 1
	}
	if t.vramCnt[3]&0x87 == 0x82 {
		v |= 2
	}
	return v
}

// ReadRegister returns the word at addr, or false if this side has no
// display register there. Bytes the side does not own read as zero.
func (p *Port) ReadRegister(addr uint32) (uint32, bool) {
	t := p.t
	switch {
	case addr == AddrDispStat:
		return uint32(t.line)<<16 | p.stat, true
	case p.side == CPU7:
		if addr == AddrVRAMCnt {
			return t.vramStat(), true
		}
	case addr == AddrDispCnt:
		return t.dispCnt, true
	case addr >= AddrVRAMCnt && addr < AddrVRAMCnt+12:
		var v uint32
		for i := 0; i < 4; i++ {
			if n := int(addr-AddrVRAMCnt) + i; vramBank(n) >= 0 {
				v |= uint32(t.vramCnt[vramBank(n)]) << (8 * i)
			}
		}
		return v, true
	}
	return 0, false
}

// WriteRegister writes the bytes of v selected by mask to the word at
// addr.
func (p *Port) WriteRegister(addr, v, mask uint32) bool {
	t := p.t
	switch {
	case addr == AddrDispStat:
		// VCOUNT is read-only
		mask &= statWritable
		p.stat = p.stat&^mask | v&mask
		p.matchVCount()
		return true
	case p.side == CPU7:
		// VRAMSTAT is read-only
		return addr == AddrVRAMCnt
	case addr == AddrDispCnt:
		t.dispCnt = t.dispCnt&^mask | v&mask
		return true
	case addr >= AddrVRAMCnt && addr < AddrVRAMCnt+12:
		for i := 0; i < 4; i++ {
			n := vramBank(int(addr-AddrVRAMCnt) + i)
			if n >= 0 && mask>>(8*i)&0xFF != 0 {
				t.vramCnt[n] = uint8(v >> (8 * i))
			}
		}
		return true
	}
	return false
}

// vramBank maps a byte offset from AddrVRAMCnt to a bank index, or -1 for
// the WRAMCNT byte and the bytes past bank I.
func vramBank(offset int) int {
	switch {
	case offset < 7:
		return offset
	case offset == 8 || offset == 9:
		return offset - 1
	}
	return -1
}
