package mem

// System register addresses.
const (
	AddrKeyInput = 0x04000130
	AddrExtKeyIn = 0x04000136
	AddrWRAMStat = 0x04000241
	AddrWRAMCnt  = 0x04000247
	AddrPostFlg  = 0x04000300
	AddrHaltCnt  = 0x04000301
	AddrPowCnt   = 0x04000304
)

// Key input values with no key pressed.
const (
	KeysReleased    = 0x03FF
	ExtKeysReleased = 0x007F
)

const (
	haltModeHalt  = 2
	haltModeSleep = 3
)

// System holds the bus-level control registers: key input, boot flag,
// halt control, power control and the work RAM allocation.
type System struct {
	bus *Bus

	keyInput uint16
	keyCnt   uint16
	extKeyIn uint16
	postFlg  uint8
	powCnt   uint32

	halt  func()
	halts uint64
}

func newSystem(b *Bus) *System {
	s := &System{bus: b}
	s.reset()
	return s
}

func (s *System) reset() {
	s.keyInput = KeysReleased
	s.keyCnt = 0
	s.extKeyIn = ExtKeysReleased
	s.postFlg = 0
	s.powCnt = 0
	s.halts = 0
}

func (s *System) ports() []uint32 {
	if s.bus.side == CPU9 {
		return []uint32{AddrKeyInput, AddrWRAMCnt &^ 3, AddrPostFlg, AddrPowCnt}
	}
	return []uint32{AddrKeyInput, AddrExtKeyIn &^ 3, AddrWRAMStat &^ 3, AddrPostFlg, AddrPowCnt}
}

// SetHaltHandler sets the function HALTCNT calls to stop the CPU.
func (s *System) SetHaltHandler(halt func()) {
	s.halt = halt
}

// Halts returns the number of HALTCNT halt requests since reset.
func (s *System) Halts() uint64 {
	return s.halts
}

// SetKeys sets KEYINPUT. A set bit is a released key.
func (s *System) SetKeys(v uint16) {
	s.keyInput = v & KeysReleased
}

// SetExtKeys sets EXTKEYIN on the CPU7 bus.
func (s *System) SetExtKeys(v uint16) {
	s.extKeyIn = v & ExtKeysReleased
}

// PostFlg returns the boot flag.
func (s *System) PostFlg() uint8 {
	return s.postFlg
}

// ReadRegister returns the word at addr.
func (s *System) ReadRegister(addr uint32) (uint32, bool) {
	switch addr {
	case AddrKeyInput:
		return uint32(s.keyCnt)<<16 | uint32(s.keyInput), true
	case AddrExtKeyIn &^ 3:
		return uint32(s.extKeyIn) << 16, true
	case AddrWRAMCnt &^ 3:
		return uint32(s.bus.shared.WRAMCnt()) << 24, true
	case AddrWRAMStat &^ 3:
		return uint32(s.bus.shared.WRAMCnt()) << 8, true
	case AddrPostFlg:
		return uint32(s.postFlg), true
	case AddrPowCnt:
		return s.powCnt, true
	}
	return 0, false
}

// WriteRegister writes the bytes of v selected by mask to the word at
// addr.
func (s *System) WriteRegister(addr, v, mask uint32) bool {
	switch addr {
	case AddrKeyInput:
		s.keyCnt = uint16((uint32(s.keyCnt)<<16&^mask | v&mask) >> 16)
	case AddrExtKeyIn &^ 3, AddrWRAMStat &^ 3:
	case AddrWRAMCnt &^ 3:
		if mask&0xFF000000 != 0 {
			s.bus.shared.SetWRAMCnt(uint8(v >> 24))
		}
	case AddrPostFlg:
		if mask&0xFF != 0 {
			// bit 0 cannot be cleared once set
			s.postFlg = s.postFlg&1 | uint8(v)&3
		}
		if mask&0xFF00 != 0 && s.bus.side == CPU7 {
			s.writeHaltCnt(uint8(v >> 8))
		}
	case AddrPowCnt:
		s.powCnt = s.powCnt&^mask | v&mask
	default:
		return false
	}
	return true
}

func (s *System) writeHaltCnt(v uint8) {
	switch v >> 6 {
	case 0:
		return
	case haltModeSleep:
		s.bus.log.Info("sleep mode requested, halting instead")
	case haltModeHalt:
	default:
		s.bus.log.Info("unsupported HALTCNT mode", "value", v)
		return
	}

	s.halts++
	if s.halt != nil {
		s.halt()
	}
}
