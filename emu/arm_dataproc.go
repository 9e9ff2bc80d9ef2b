package emu

import (
	"fmt"

	"github.com/sarchlab/ndsim/insts"
)

func (c *Context) armDataProc(op insts.Opcode) int {
	dop := op.DataOp()

	if c.Disasm != nil {
		c.describeDataProc(op, dop)
		return 0
	}

	r := c.Regs
	shiftByRegister := !op.Immediate() && op.Bit(4)

	b, shifterCarry := c.shifterOperand(op)

	kind := PCOffsetALU
	if shiftByRegister {
		kind = PCOffsetShiftByRegister
	}
	a := r.ReadOperand(op.Rn(), kind)

	res := evalDataOp(dop, a, b, r.cpsr.C(), shifterCarry)
	rd := op.Rd()

	switch {
	case dop.IsTest():
		if rd == PC {
			c.unpredictable("test instruction with R15 destination")
		}
		res.setFlags(&r.cpsr)
	case rd == PC && op.SetFlags():
		// exception return: the SPSR decides the state of the new PC
		c.restoreSPSR()
		c.writePC(res.value)
	default:
		c.writeReg(rd, res.value)
		if op.SetFlags() {
			res.setFlags(&r.cpsr)
		}
	}

	cycles := c.cost(insts.FormatDataProc)
	if shiftByRegister {
		cycles += int(c.timing().ShiftByRegisterPenalty)
	}
	return cycles
}

func (c *Context) describeDataProc(op insts.Opcode, dop insts.DataOp) {
	mnemonic := armMnemonic(dop.String(), op)
	if op.SetFlags() && !dop.IsTest() {
		mnemonic += "S"
	}

	op2 := shifterOperandText(op)

	switch {
	case dop == insts.DataMOV || dop == insts.DataMVN:
		c.Disasm.set(mnemonic, "%s, %s", regName(op.Rd()), op2)
	case dop.IsTest():
		c.Disasm.set(mnemonic, "%s, %s", regName(op.Rn()), op2)
	default:
		c.Disasm.set(mnemonic, "%s, %s, %s", regName(op.Rd()), regName(op.Rn()), op2)
	}
}

// shifterOperandText formats the second operand of a data-processing
// instruction.
func shifterOperandText(op insts.Opcode) string {
	if op.Immediate() {
		v, _ := RotatedImmediate(op, false)
		return fmt.Sprintf("#0x%X", v)
	}
	return shiftedRegisterText(op)
}

// shiftedRegisterText formats "Rm", "Rm, LSL #n", "Rm, LSL Rs" or
// "Rm, RRX".
func shiftedRegisterText(op insts.Opcode) string {
	rm := regName(op.Rm())
	kind := insts.ShiftType(op.Bits(5, 6))

	if op.Bit(4) {
		return fmt.Sprintf("%s, %s %s", rm, kind, regName(op.Rs()))
	}

	amount := op.Bits(7, 11)
	switch {
	case amount == 0 && kind == insts.ShiftLSL:
		return rm
	case amount == 0 && kind == insts.ShiftROR:
		return rm + ", RRX"
	case amount == 0:
		amount = 32
	}
	return fmt.Sprintf("%s, %s #%d", rm, kind, amount)
}
