package mem

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

// ErrBIOSSize is returned when a BIOS image does not fit its region.
var ErrBIOSSize = errors.New("BIOS image too large")

// Side names the CPU a bus belongs to.
type Side int

// The two sides.
const (
	CPU9 Side = iota
	CPU7
)

func (s Side) String() string {
	if s == CPU9 {
		return "cpu9"
	}
	return "cpu7"
}

// Region bases, by address bits 31..24.
const (
	regionITCM    = 0x00
	regionMain    = 0x02
	regionWRAM    = 0x03
	regionIO      = 0x04
	regionPalette = 0x05
	regionVRAM    = 0x06
	regionOAM     = 0x07
	regionGBA     = 0x08
	regionGBAEnd  = 0x0A
	regionBIOS9   = 0xFF

	wram7Base = 0x03800000
	bios9Base = 0xFFFF0000
)

type access uint8

const (
	accessData access = iota
	accessFetch
	accessDMA
)

// Stats counts anomalous bus traffic.
type Stats struct {
	InvalidReads  uint64
	InvalidWrites uint64
}

// Bus routes one CPU's loads and stores. Accesses are forced to their
// natural alignment.
type Bus struct {
	side   Side
	shared *Shared
	log    logr.Logger

	bios  []byte
	wram7 []byte
	tcm   tcm

	io       map[uint32][]Device
	fallback Device
	sys      *System

	stats Stats
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger invalid accesses are reported to.
func WithLogger(log logr.Logger) Option {
	return func(b *Bus) {
		b.log = log
	}
}

// NewBus creates the bus of one CPU over the shared memories.
func NewBus(side Side, shared *Shared, opts ...Option) *Bus {
	b := &Bus{
		side:   side,
		shared: shared,
		log:    logr.Discard(),
		io:     make(map[uint32][]Device),
	}

	if side == CPU9 {
		b.bios = make([]byte, BIOS9Size)
		b.tcm = newTCM()
	} else {
		b.bios = make([]byte, BIOS7Size)
		b.wram7 = make([]byte, WRAM7Size)
	}

	for _, opt := range opts {
		opt(b)
	}

	b.sys = newSystem(b)
	b.MapIO(b.sys, b.sys.ports()...)

	return b
}

// Side returns the CPU the bus belongs to.
func (b *Bus) Side() Side {
	return b.side
}

// Shared returns the memories shared with the other bus.
func (b *Bus) Shared() *Shared {
	return b.shared
}

// System returns the bus's system control registers.
func (b *Bus) System() *System {
	return b.sys
}

// Stats returns the invalid access counters.
func (b *Bus) Stats() Stats {
	return b.stats
}

// Reset clears the private memories and system registers. The BIOS image
// is kept.
func (b *Bus) Reset() {
	clear(b.wram7)
	b.tcm.reset()
	b.sys.reset()
	b.stats = Stats{}
}

// LoadBIOS copies a BIOS image into the bus's ROM region.
func (b *Bus) LoadBIOS(image []byte) error {
	if len(image) > len(b.bios) {
		return fmt.Errorf("%s: %d bytes: %w", b.side, len(image), ErrBIOSSize)
	}
	clear(b.bios)
	copy(b.bios, image)
	return nil
}

// BIOS returns the ROM region for direct editing.
func (b *Bus) BIOS() []byte {
	return b.bios
}

// WRAM7 returns the CPU7 private work RAM, or nil on the CPU9 bus.
func (b *Bus) WRAM7() []byte {
	return b.wram7
}

// backing returns the memory that holds addr and the offset into it, or
// nil if addr is I/O or unmapped. Every region length is a power of two so
// mirrors fall out of the mask.
func (b *Bus) backing(addr uint32, kind access, write bool) ([]byte, uint32) {
	if b.side == CPU9 && kind != accessDMA {
		if m, off := b.tcm.lookup(addr, kind == accessFetch, write); m != nil {
			return m, off
		}
	}

	var m []byte
	switch region := addr >> 24; {
	case region == regionMain:
		m = b.shared.MainRAM
	case region == regionWRAM:
		m = b.wram(addr)
	case region == regionVRAM:
		m = b.shared.VRAM
		if b.side == CPU7 {
			addr &= 0x3FFFF
		}
	case b.side == CPU9 && region == regionPalette:
		m = b.shared.Palette
	case b.side == CPU9 && region == regionOAM:
		m = b.shared.OAM
	case b.side == CPU9 && region == regionBIOS9 && addr >= bios9Base && !write:
		m = b.bios
	case b.side == CPU7 && region == 0 && addr < BIOS7Size && !write:
		m = b.bios
	}

	if m == nil {
		return nil, 0
	}
	return m, addr & uint32(len(m)-1)
}

func (b *Bus) wram(addr uint32) []byte {
	if b.side == CPU9 {
		return b.shared.wram9()
	}
	if addr >= wram7Base {
		return b.wram7
	}
	if m := b.shared.wram7(); m != nil {
		return m
	}
	return b.wram7
}

func (b *Bus) read(addr, size uint32, kind access) uint32 {
	addr &^= size - 1

	if m, off := b.backing(addr, kind, false); m != nil {
		return load(m, off, size)
	}

	switch region := addr >> 24; {
	case region == regionIO:
		if v, ok := b.readIO(addr &^ 3); ok {
			return lane(v, addr, size)
		}
	case region >= regionGBA && region <= regionGBAEnd:
		// empty slot
		return sizeMask(size)
	}

	b.stats.InvalidReads++
	b.log.Info("invalid memory read", "addr", hex(addr), "size", size)
	return 0
}

func (b *Bus) write(addr, size, v uint32, kind access) {
	addr &^= size - 1

	if m, off := b.backing(addr, kind, true); m != nil {
		if size == 1 && b.side == CPU9 && ignoresByteWrites(addr) {
			return
		}
		store(m, off, size, v)
		return
	}

	switch region := addr >> 24; {
	case region == regionIO:
		shift := 8 * (addr & 3)
		mask := sizeMask(size) << shift
		if b.writeIO(addr&^3, v<<shift, mask) {
			return
		}
	case region >= regionGBA && region <= regionGBAEnd:
		return
	}

	b.stats.InvalidWrites++
	b.log.Info("invalid memory write", "addr", hex(addr), "size", size, "value", hex(v))
}

// ignoresByteWrites reports the CPU9 regions that drop 8-bit stores.
func ignoresByteWrites(addr uint32) bool {
	switch addr >> 24 {
	case regionPalette, regionVRAM, regionOAM:
		return true
	}
	return false
}

func load(m []byte, off, size uint32) uint32 {
	switch size {
	case 1:
		return uint32(m[off])
	case 2:
		return uint32(binary.LittleEndian.Uint16(m[off:]))
	default:
		return binary.LittleEndian.Uint32(m[off:])
	}
}

func store(m []byte, off, size, v uint32) {
	switch size {
	case 1:
		m[off] = uint8(v)
	case 2:
		binary.LittleEndian.PutUint16(m[off:], uint16(v))
	default:
		binary.LittleEndian.PutUint32(m[off:], v)
	}
}

// lane extracts the bytes of a sub-word access from a register word.
func lane(word, addr, size uint32) uint32 {
	return word >> (8 * (addr & 3)) & sizeMask(size)
}

func sizeMask(size uint32) uint32 {
	return 0xFFFFFFFF >> (32 - 8*size)
}

func hex(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}

// Read8 reads a byte.
func (b *Bus) Read8(addr uint32) uint8 { return uint8(b.read(addr, 1, accessData)) }

// Read16 reads a halfword at addr with bit 0 cleared.
func (b *Bus) Read16(addr uint32) uint16 { return uint16(b.read(addr, 2, accessData)) }

// Read32 reads a word at addr with bits 1..0 cleared.
func (b *Bus) Read32(addr uint32) uint32 { return b.read(addr, 4, accessData) }

// Write8 writes a byte.
func (b *Bus) Write8(addr uint32, v uint8) { b.write(addr, 1, uint32(v), accessData) }

// Write16 writes a halfword at addr with bit 0 cleared.
func (b *Bus) Write16(addr uint32, v uint16) { b.write(addr, 2, uint32(v), accessData) }

// Write32 writes a word at addr with bits 1..0 cleared.
func (b *Bus) Write32(addr uint32, v uint32) { b.write(addr, 4, v, accessData) }

// Fetch16 reads a Thumb instruction.
func (b *Bus) Fetch16(addr uint32) uint16 { return uint16(b.read(addr, 2, accessFetch)) }

// Fetch32 reads an ARM instruction.
func (b *Bus) Fetch32(addr uint32) uint32 { return b.read(addr, 4, accessFetch) }

// Peek16 reads a halfword the way an instruction fetch sees it, from
// backing memory only. I/O and unmapped addresses read as 0 without
// logging or counting.
func (b *Bus) Peek16(addr uint32) uint16 { return uint16(b.peek(addr, 2)) }

// Peek32 is the word form of Peek16.
func (b *Bus) Peek32(addr uint32) uint32 { return b.peek(addr, 4) }

func (b *Bus) peek(addr, size uint32) uint32 {
	addr &^= size - 1
	if m, off := b.backing(addr, accessFetch, false); m != nil {
		return load(m, off, size)
	}
	return 0
}

// Load copies data into memory starting at addr, bypassing the TCMs and
// the byte-write quirks. Bytes landing on I/O or unmapped addresses are
// dropped.
func (b *Bus) Load(addr uint32, data []byte) {
	for i, v := range data {
		a := addr + uint32(i)
		if m, off := b.backing(a, accessDMA, true); m != nil {
			m[off] = v
		}
	}
}

// DMAView returns the bus as seen by the DMA controller: no TCMs.
func (b *Bus) DMAView() *DMAView {
	return &DMAView{b: b}
}

// DMAView is the bus as seen by the DMA controller.
type DMAView struct {
	b *Bus
}

// Read16 reads a halfword.
func (d *DMAView) Read16(addr uint32) uint16 { return uint16(d.b.read(addr, 2, accessDMA)) }

// Read32 reads a word.
func (d *DMAView) Read32(addr uint32) uint32 { return d.b.read(addr, 4, accessDMA) }

// Write16 writes a halfword.
func (d *DMAView) Write16(addr uint32, v uint16) { d.b.write(addr, 2, uint32(v), accessDMA) }

// Write32 writes a word.
func (d *DMAView) Write32(addr uint32, v uint32) { d.b.write(addr, 4, v, accessDMA) }
