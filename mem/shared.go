// Package mem implements the memory bus of each CPU: the region map from
// address to RAM, ROM or I/O register, the tightly coupled memories of the
// CPU9 and the state shared by both buses.
package mem

// Region sizes.
const (
	MainRAMSize    = 4 << 20
	SharedWRAMSize = 32 << 10
	WRAM7Size      = 64 << 10
	VRAMSize       = 1 << 20
	PaletteSize    = 2 << 10
	OAMSize        = 2 << 10
	ITCMSize       = 32 << 10
	DTCMSize       = 16 << 10
	BIOS9Size      = 4 << 10
	BIOS7Size      = 16 << 10
)

// WRAMCNT modes, named by what the CPU9 sees.
const (
	WRAMAll9   = 0
	WRAMUpper9 = 1
	WRAMLower9 = 2
	WRAMAll7   = 3
)

// Shared is the memory both buses see: main RAM, the shared work RAM and
// its allocation register, and the display memories.
type Shared struct {
	MainRAM []byte
	WRAM    []byte
	VRAM    []byte
	Palette []byte
	OAM     []byte

	wramCnt uint8
}

// NewShared allocates the shared memories.
func NewShared() *Shared {
	return &Shared{
		MainRAM: make([]byte, MainRAMSize),
		WRAM:    make([]byte, SharedWRAMSize),
		VRAM:    make([]byte, VRAMSize),
		Palette: make([]byte, PaletteSize),
		OAM:     make([]byte, OAMSize),
	}
}

// Reset clears every shared memory and hands all work RAM to the CPU7.
func (s *Shared) Reset() {
	clear(s.MainRAM)
	clear(s.WRAM)
	clear(s.VRAM)
	clear(s.Palette)
	clear(s.OAM)
	s.wramCnt = WRAMAll7
}

// WRAMCnt returns the work RAM allocation mode.
func (s *Shared) WRAMCnt() uint8 {
	return s.wramCnt
}

// SetWRAMCnt sets the work RAM allocation mode.
func (s *Shared) SetWRAMCnt(v uint8) {
	s.wramCnt = v & 3
}

// wram9 returns the part of the shared work RAM the CPU9 sees, or nil.
func (s *Shared) wram9() []byte {
	switch s.wramCnt {
	case WRAMAll9:
		return s.WRAM
	case WRAMUpper9:
		return s.WRAM[SharedWRAMSize/2:]
	case WRAMLower9:
		return s.WRAM[:SharedWRAMSize/2]
	}
	return nil
}

// wram7 returns the part of the shared work RAM the CPU7 sees, or nil if
// it has none and sees its private work RAM instead.
func (s *Shared) wram7() []byte {
	switch s.wramCnt {
	case WRAMUpper9:
		return s.WRAM[:SharedWRAMSize/2]
	case WRAMLower9:
		return s.WRAM[SharedWRAMSize/2:]
	case WRAMAll7:
		return s.WRAM
	}
	return nil
}
