package emu

import (
	"github.com/sarchlab/ndsim/bits"
	"github.com/sarchlab/ndsim/insts"
)

// ShiftImmediate applies a barrel shift whose amount comes from a 5-bit
// immediate field. An encoded amount of 0 means no shift for LSL, a shift
// by 32 for LSR and ASR, and RRX for ROR.
func ShiftImmediate(kind insts.ShiftType, v uint32, amount uint32, carry bool) (uint32, bool) {
	amount &= 31
	if amount == 0 {
		switch kind {
		case insts.ShiftLSL:
			return v, carry
		case insts.ShiftLSR, insts.ShiftASR:
			amount = 32
		case insts.ShiftROR:
			return rrx(v, carry)
		}
	}
	return ShiftRegister(kind, v, amount, carry)
}

// ShiftRegister applies a barrel shift whose amount comes from the bottom
// byte of a register. An amount of 0 leaves both value and carry unchanged.
func ShiftRegister(kind insts.ShiftType, v uint32, amount uint32, carry bool) (uint32, bool) {
	amount &= 0xFF
	if amount == 0 {
		return v, carry
	}

	switch kind {
	case insts.ShiftLSL:
		switch {
		case amount < 32:
			return v << amount, bits.Bit(v, uint(32-amount))
		case amount == 32:
			return 0, bits.Bit(v, 0)
		default:
			return 0, false
		}

	case insts.ShiftLSR:
		switch {
		case amount < 32:
			return v >> amount, bits.Bit(v, uint(amount-1))
		case amount == 32:
			return 0, bits.Bit(v, 31)
		default:
			return 0, false
		}

	case insts.ShiftASR:
		if amount >= 32 {
			if bits.Bit(v, 31) {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		return uint32(int32(v) >> amount), bits.Bit(v, uint(amount-1))

	default:
		amount &= 31
		if amount == 0 {
			return v, bits.Bit(v, 31)
		}
		return bits.RotateRight(v, uint(amount)), bits.Bit(v, uint(amount-1))
	}
}

func rrx(v uint32, carry bool) (uint32, bool) {
	result := v >> 1
	if carry {
		result |= 1 << 31
	}
	return result, bits.Bit(v, 0)
}

// RotatedImmediate decodes the 8-bit immediate rotated right by twice the
// 4-bit rotate field. The carry changes only when the rotation is non-zero.
func RotatedImmediate(op insts.Opcode, carry bool) (uint32, bool) {
	imm := op.Bits(0, 7)
	rotate := op.Bits(8, 11) * 2
	if rotate == 0 {
		return imm, carry
	}
	v := bits.RotateRight(imm, uint(rotate))
	return v, bits.Bit(v, 31)
}

// shifterOperand computes the second operand of a data-processing
// instruction and the shifter carry-out.
func (c *Context) shifterOperand(op insts.Opcode) (value uint32, carry bool) {
	carry = c.Regs.cpsr.C()
	if op.Immediate() {
		return RotatedImmediate(op, carry)
	}

	kind := insts.ShiftType(op.Bits(5, 6))

	if !op.Bit(4) {
		rm := c.Regs.ReadOperand(op.Rm(), PCOffsetALU)
		return ShiftImmediate(kind, rm, op.Bits(7, 11), carry)
	}

	if op.Rs() == PC {
		c.unpredictable("R15 as shift register")
	}
	rm := c.Regs.ReadOperand(op.Rm(), PCOffsetShiftByRegister)
	rs := c.Regs.ReadOperand(op.Rs(), PCOffsetShiftByRegister)
	return ShiftRegister(kind, rm, rs&0xFF, carry)
}

// addressOffset computes the scaled register offset of a word/byte
// load/store. Bit 25 set selects the register form.
func (c *Context) addressOffset(op insts.Opcode) uint32 {
	if !op.Immediate() {
		return op.Bits(0, 11)
	}
	if op.Rm() == PC {
		c.unpredictable("R15 as offset register")
	}
	rm := c.Regs.ReadOperand(op.Rm(), PCOffsetAddress)
	v, _ := ShiftImmediate(insts.ShiftType(op.Bits(5, 6)), rm, op.Bits(7, 11), c.Regs.cpsr.C())
	return v
}

// Address is the result of an addressing-mode computation.
type Address struct {
	// Access is the address used for the memory access.
	Access uint32
	// Writeback is the value written back to the base register.
	Writeback uint32
	// Write reports whether the base register is updated.
	Write bool
}

// indexedAddress applies the P (pre-index), U (up) and W (writeback) bits
// to a base and an unsigned offset. Post-indexed forms always write back.
func indexedAddress(op insts.Opcode, base, offset uint32) Address {
	updated := base - offset
	if op.Bit(23) {
		updated = base + offset
	}

	if op.Bit(24) {
		return Address{Access: updated, Writeback: updated, Write: op.Bit(21)}
	}
	return Address{Access: base, Writeback: updated, Write: true}
}
