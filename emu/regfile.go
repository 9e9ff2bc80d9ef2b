// Package emu provides functional emulation of the two ARM cores: the
// ARM946E-S (CPU9, ARMv5TE) and the ARM7TDMI (CPU7, ARMv4T).
package emu

// PC is the index of the program counter.
const PC = 15

// SP and LR are the conventional stack pointer and link register indices.
const (
	SP = 13
	LR = 14
)

type bank int

const (
	bankNone bank = iota - 1
	bankFIQ
	bankIRQ
	bankSVC
	bankABT
	bankUND
	numBanks
)

func (m Mode) bank() bank {
	switch m {
	case ModeFIQ:
		return bankFIQ
	case ModeIRQ:
		return bankIRQ
	case ModeSVC:
		return bankSVC
	case ModeABT:
		return bankABT
	case ModeUND:
		return bankUND
	}
	return bankNone
}

// first banked register index of a bank
func (b bank) first() int {
	if b == bankFIQ {
		return 8
	}
	return 13
}

// RegFile holds the live registers, the banked register arena and the
// status registers of one CPU.
//
// R15 holds the address of the instruction being executed. Handlers read it
// through ReadOperand, which adds the pipeline offset for the kind of read.
//
// Banking is an in-place swap. While the CPU is in mode M, the bank of M
// holds the USR/SYS values of the registers M banks, and every other bank
// holds its own mode's values.
type RegFile struct {
	r [16]uint32

	cpsr PSR

	banks [numBanks][7]uint32
	spsr  [numBanks]PSR

	pcWritten bool
}

// NewRegFile creates a register file in SVC mode with interrupts disabled.
func NewRegFile() *RegFile {
	r := &RegFile{}
	r.Reset()
	return r
}

// Reset restores the power-on state: all registers zero, SVC mode, ARM
// state, IRQ and FIQ disabled.
func (r *RegFile) Reset() {
	*r = RegFile{}
	r.cpsr = PSR(0).withMode(ModeSVC)
	r.cpsr.SetI(true)
	r.cpsr.SetF(true)
	// SVC is entered directly, its bank holds the USR values (zero).
}

// R returns the raw value of register n. R15 reads as the address of the
// current instruction.
func (r *RegFile) R(n int) uint32 {
	return r.r[n&15]
}

// SetR writes register n. A write to R15 is recorded so the CPU knows not
// to advance the program counter.
func (r *RegFile) SetR(n int, v uint32) {
	n &= 15
	r.r[n] = v
	if n == PC {
		r.pcWritten = true
	}
}

// PC returns the address of the current instruction.
func (r *RegFile) PC() uint32 {
	return r.r[PC]
}

// SetPC sets the program counter without marking it as a control-flow
// change. Boot code and debuggers use this.
func (r *RegFile) SetPC(v uint32) {
	r.r[PC] = v
}

// PCWritten reports whether R15 was written since the last ClearPCWritten.
func (r *RegFile) PCWritten() bool {
	return r.pcWritten
}

// ClearPCWritten resets the R15 write flag.
func (r *RegFile) ClearPCWritten() {
	r.pcWritten = false
}

// ReadOperand returns register n as an instruction operand. Reading R15
// yields the current instruction address plus the pipeline offset for the
// kind of read and the current instruction set.
func (r *RegFile) ReadOperand(n int, kind PCOffset) uint32 {
	n &= 15
	if n != PC {
		return r.r[n]
	}
	return r.r[PC] + kind.Offset(r.cpsr.T())
}

// CPSR returns the current program status register.
func (r *RegFile) CPSR() PSR {
	return r.cpsr
}

// Flags returns a pointer to the CPSR for flag updates. The mode field must
// not be changed through it; use SwitchMode.
func (r *RegFile) Flags() *PSR {
	return &r.cpsr
}

// Mode returns the current processor mode.
func (r *RegFile) Mode() Mode {
	return r.cpsr.Mode()
}

// Thumb reports whether the CPU is in Thumb state.
func (r *RegFile) Thumb() bool {
	return r.cpsr.T()
}

// SetCPSR writes a complete CPSR value. A different mode field is applied
// through SwitchMode so the banks stay consistent. It returns false and
// leaves the mode unchanged if the mode field is not a valid mode.
func (r *RegFile) SetCPSR(v PSR) bool {
	ok := true
	if m := v.Mode(); m != r.cpsr.Mode() {
		if m.Valid() {
			r.SwitchMode(m, false)
		} else {
			ok = false
		}
	}
	r.cpsr = v.withMode(r.cpsr.Mode())
	return ok
}

// SPSR returns the saved program status register of the current mode. In
// USR and SYS mode there is none; the CPSR is returned with ok false.
func (r *RegFile) SPSR() (PSR, bool) {
	b := r.cpsr.Mode().bank()
	if b == bankNone {
		return r.cpsr, false
	}
	return r.spsr[b], true
}

// SetSPSR writes the saved program status register of the current mode. It
// returns false, without writing, in USR and SYS mode.
func (r *RegFile) SetSPSR(v PSR) bool {
	b := r.cpsr.Mode().bank()
	if b == bankNone {
		return false
	}
	r.spsr[b] = v
	return true
}

// BankedSPSR returns the SPSR slot of a mode regardless of the current mode.
func (r *RegFile) BankedSPSR(m Mode) PSR {
	b := m.bank()
	if b == bankNone {
		return 0
	}
	return r.spsr[b]
}

// SwitchMode changes the processor mode. The current mode's bank is swapped
// out and the target mode's bank swapped in. If saveSPSR is set the CPSR as
// it was before the switch is stored in the target mode's SPSR.
func (r *RegFile) SwitchMode(m Mode, saveSPSR bool) {
	old := r.cpsr

	r.leaveMode(old.Mode())
	r.enterMode(m)
	r.cpsr = old.withMode(m)

	if saveSPSR {
		if b := m.bank(); b != bankNone {
			r.spsr[b] = old
		}
	}
}

// leaveMode swaps the current mode's banked registers out of the live set,
// restoring the USR/SYS values.
func (r *RegFile) leaveMode(m Mode) {
	r.swapBank(m.bank())
}

// enterMode swaps the target mode's banked registers into the live set,
// parking the USR/SYS values in its bank.
func (r *RegFile) enterMode(m Mode) {
	r.swapBank(m.bank())
}

func (r *RegFile) swapBank(b bank) {
	if b == bankNone {
		return
	}
	slots := &r.banks[b]
	for i, n := 0, b.first(); n <= LR; i, n = i+1, n+1 {
		r.r[n], slots[i] = slots[i], r.r[n]
	}
}

// UserR returns the USR-mode value of register n, whatever the current
// mode. LDM/STM with the S bit use this.
func (r *RegFile) UserR(n int) uint32 {
	n &= 15
	if b := r.cpsr.Mode().bank(); b != bankNone && n >= b.first() && n <= LR {
		return r.banks[b][n-b.first()]
	}
	return r.r[n]
}

// SetUserR writes the USR-mode value of register n, whatever the current
// mode.
func (r *RegFile) SetUserR(n int, v uint32) {
	n &= 15
	if b := r.cpsr.Mode().bank(); b != bankNone && n >= b.first() && n <= LR {
		r.banks[b][n-b.first()] = v
		return
	}
	r.SetR(n, v)
}

// BankedR returns register n as seen from mode m, whatever the current
// mode. Debuggers use this to show every bank.
func (r *RegFile) BankedR(m Mode, n int) uint32 {
	n &= 15
	cur := r.cpsr.Mode()
	if m == cur || (m.bank() == bankNone && cur.bank() == bankNone) {
		return r.r[n]
	}

	// registers of the requested mode that are currently parked in a bank
	if b := m.bank(); b != bankNone && n >= b.first() && n <= LR {
		return r.banks[b][n-b.first()]
	}

	return r.UserR(n)
}
