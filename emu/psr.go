package emu

import "github.com/sarchlab/ndsim/bits"

// Mode is the 5-bit processor mode field of a PSR.
type Mode uint32

// Processor modes.
const (
	ModeUSR Mode = 0b10000
	ModeFIQ Mode = 0b10001
	ModeIRQ Mode = 0b10010
	ModeSVC Mode = 0b10011
	ModeABT Mode = 0b10111
	ModeUND Mode = 0b11011
	ModeSYS Mode = 0b11111
)

func (m Mode) String() string {
	switch m {
	case ModeUSR:
		return "USR"
	case ModeFIQ:
		return "FIQ"
	case ModeIRQ:
		return "IRQ"
	case ModeSVC:
		return "SVC"
	case ModeABT:
		return "ABT"
	case ModeUND:
		return "UND"
	case ModeSYS:
		return "SYS"
	}
	return "???"
}

// Valid reports whether m is one of the seven defined modes.
func (m Mode) Valid() bool {
	return m.String() != "???"
}

// Privileged reports whether m is any mode other than USR.
func (m Mode) Privileged() bool {
	return m != ModeUSR
}

// HasSPSR reports whether m owns a saved program status register.
func (m Mode) HasSPSR() bool {
	return m.bank() != bankNone
}

// PSR bit positions.
const (
	psrT = 5
	psrF = 6
	psrI = 7
	psrQ = 27
	psrV = 28
	psrC = 29
	psrZ = 30
	psrN = 31
)

// PSR is a program status register value.
type PSR uint32

// Mode returns the mode field.
func (p PSR) Mode() Mode { return Mode(bits.Field(uint32(p), 0, 4)) }

// T reports whether the Thumb state bit is set.
func (p PSR) T() bool { return bits.Bit(uint32(p), psrT) }

// F reports whether FIQs are disabled.
func (p PSR) F() bool { return bits.Bit(uint32(p), psrF) }

// I reports whether IRQs are disabled.
func (p PSR) I() bool { return bits.Bit(uint32(p), psrI) }

// Q reports whether the sticky saturation flag is set.
func (p PSR) Q() bool { return bits.Bit(uint32(p), psrQ) }

// V reports whether the overflow flag is set.
func (p PSR) V() bool { return bits.Bit(uint32(p), psrV) }

// C reports whether the carry flag is set.
func (p PSR) C() bool { return bits.Bit(uint32(p), psrC) }

// Z reports whether the zero flag is set.
func (p PSR) Z() bool { return bits.Bit(uint32(p), psrZ) }

// N reports whether the negative flag is set.
func (p PSR) N() bool { return bits.Bit(uint32(p), psrN) }

func (p *PSR) set(n uint, on bool) {
	*p = PSR(bits.SetBit(uint32(*p), n, on))
}

// SetT sets the Thumb state bit.
func (p *PSR) SetT(on bool) { p.set(psrT, on) }

// SetF sets the FIQ disable bit.
func (p *PSR) SetF(on bool) { p.set(psrF, on) }

// SetI sets the IRQ disable bit.
func (p *PSR) SetI(on bool) { p.set(psrI, on) }

// SetQ sets the sticky saturation flag.
func (p *PSR) SetQ(on bool) { p.set(psrQ, on) }

// SetV sets the overflow flag.
func (p *PSR) SetV(on bool) { p.set(psrV, on) }

// SetC sets the carry flag.
func (p *PSR) SetC(on bool) { p.set(psrC, on) }

// SetZ sets the zero flag.
func (p *PSR) SetZ(on bool) { p.set(psrZ, on) }

// SetN sets the negative flag.
func (p *PSR) SetN(on bool) { p.set(psrN, on) }

// SetNZ sets N and Z from a 32-bit result.
func (p *PSR) SetNZ(result uint32) {
	p.SetN(bits.Bit(result, 31))
	p.SetZ(result == 0)
}

// withMode returns p with its mode field replaced. Only the register file
// calls this, as part of a banked-register swap.
func (p PSR) withMode(m Mode) PSR {
	return PSR(bits.SetField(uint32(p), 0, 4, uint32(m)))
}

func (p PSR) String() string {
	flags := []byte("nzcvq")
	for i, on := range []bool{p.N(), p.Z(), p.C(), p.V(), p.Q()} {
		if on {
			flags[i] -= 'a' - 'A'
		}
	}
	state := "ARM"
	if p.T() {
		state = "THUMB"
	}
	irq := ""
	if p.I() {
		irq += "I"
	}
	if p.F() {
		irq += "F"
	}
	return string(flags) + " " + p.Mode().String() + " " + state + " " + irq
}
