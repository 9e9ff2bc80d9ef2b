package emu

import (
	"github.com/sarchlab/ndsim/bits"
	"github.com/sarchlab/ndsim/insts"
)

// Multiplies never touch the carry flag. The ARM7 leaves it in an
// unpredictable state; both cores here preserve it.

func (c *Context) checkMultiplyOperands(regs ...int) {
	for _, n := range regs {
		if n == PC {
			c.unpredictable("R15 as multiply operand")
			return
		}
	}
}

func (c *Context) armMultiply(op insts.Opcode) int {
	rd, rn, rs, rm := op.Rn(), op.Rd(), op.Rs(), op.Rm()
	accumulate := op.Bit(21)

	if c.Disasm != nil {
		name := "MUL"
		if accumulate {
			name = "MLA"
		}
		name = armMnemonic(name, op)
		if op.SetFlags() {
			name += "S"
		}
		if accumulate {
			c.Disasm.set(name, "%s, %s, %s, %s", regName(rd), regName(rm), regName(rs), regName(rn))
		} else {
			c.Disasm.set(name, "%s, %s, %s", regName(rd), regName(rm), regName(rs))
		}
		return 0
	}

	c.checkMultiplyOperands(rd, rm, rs)

	r := c.Regs
	result := r.ReadOperand(rm, PCOffsetALU) * r.ReadOperand(rs, PCOffsetALU)
	if accumulate {
		result += r.ReadOperand(rn, PCOffsetALU)
	}
	r.SetR(rd, result)

	if op.SetFlags() {
		r.cpsr.SetNZ(result)
	}

	cycles := c.cost(insts.FormatMultiply)
	if accumulate {
		cycles++
	}
	return cycles
}

func (c *Context) armMultiplyLong(op insts.Opcode) int {
	rdHi, rdLo, rs, rm := op.Rn(), op.Rd(), op.Rs(), op.Rm()
	signed := op.Bit(22)
	accumulate := op.Bit(21)

	if c.Disasm != nil {
		name := "UMULL"
		switch {
		case signed && accumulate:
			name = "SMLAL"
		case signed:
			name = "SMULL"
		case accumulate:
			name = "UMLAL"
		}
		name = armMnemonic(name, op)
		if op.SetFlags() {
			name += "S"
		}
		c.Disasm.set(name, "%s, %s, %s, %s", regName(rdLo), regName(rdHi), regName(rm), regName(rs))
		return 0
	}

	c.checkMultiplyOperands(rdHi, rdLo, rm, rs)
	if rdHi == rdLo {
		c.unpredictable("multiply long with RdHi equal to RdLo")
	}

	r := c.Regs
	a := r.ReadOperand(rm, PCOffsetALU)
	b := r.ReadOperand(rs, PCOffsetALU)

	var result uint64
	if signed {
		result = uint64(int64(int32(a)) * int64(int32(b)))
	} else {
		result = uint64(a) * uint64(b)
	}
	if accumulate {
		result += uint64(r.R(rdHi))<<32 | uint64(r.R(rdLo))
	}

	r.SetR(rdLo, uint32(result))
	r.SetR(rdHi, uint32(result>>32))

	if op.SetFlags() {
		r.cpsr.SetN(bits.Bit(result, 63))
		r.cpsr.SetZ(result == 0)
	}

	cycles := c.cost(insts.FormatMultiplyLong)
	if accumulate {
		cycles++
	}
	return cycles
}

// halfword returns the signed top (top = true) or bottom halfword of v.
func halfword(v uint32, top bool) int32 {
	if top {
		return int32(v) >> 16
	}
	return int32(int16(v))
}

func (c *Context) armDSPMultiply(op insts.Opcode) int {
	rd, rn, rs, rm := op.Rn(), op.Rd(), op.Rs(), op.Rm()
	x, y := op.Bit(5), op.Bit(6)
	kind := op.Bits(21, 22)

	if c.Disasm != nil {
		c.describeDSPMultiply(op, kind, x, y)
		return 0
	}

	c.checkMultiplyOperands(rd, rm, rs)

	r := c.Regs
	vm := r.ReadOperand(rm, PCOffsetALU)
	vs := r.ReadOperand(rs, PCOffsetALU)

	switch kind {
	case 0b00:
		// SMLAxy
		product := halfword(vm, x) * halfword(vs, y)
		result, overflow := addOverflow(product, int32(r.ReadOperand(rn, PCOffsetALU)))
		r.SetR(rd, uint32(result))
		if overflow {
			r.cpsr.SetQ(true)
		}

	case 0b01:
		// SMLAWy, SMULWy: 32x16 multiply keeping bits 47..16
		product := int32((int64(int32(vm)) * int64(halfword(vs, y))) >> 16)
		if x {
			r.SetR(rd, uint32(product))
			break
		}
		result, overflow := addOverflow(product, int32(r.ReadOperand(rn, PCOffsetALU)))
		r.SetR(rd, uint32(result))
		if overflow {
			r.cpsr.SetQ(true)
		}

	case 0b10:
		// SMLALxy: RdLo is Rd (15..12), RdHi is Rn (19..16)
		product := int64(halfword(vm, x) * halfword(vs, y))
		acc := int64(uint64(r.R(rd))<<32 | uint64(r.R(rn)))
		result := uint64(acc + product)
		r.SetR(rn, uint32(result))
		r.SetR(rd, uint32(result>>32))
		return c.cost(insts.FormatDSPMultiply) + 1

	default:
		// SMULxy
		r.SetR(rd, uint32(halfword(vm, x)*halfword(vs, y)))
	}

	return c.cost(insts.FormatDSPMultiply)
}

func addOverflow(a, b int32) (int32, bool) {
	sum := a + b
	return sum, (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0)
}

func (c *Context) describeDSPMultiply(op insts.Opcode, kind uint32, x, y bool) {
	xy := func(top bool) string {
		if top {
			return "T"
		}
		return "B"
	}

	rd, rn, rs, rm := regName(op.Rn()), regName(op.Rd()), regName(op.Rs()), regName(op.Rm())

	switch kind {
	case 0b00:
		c.Disasm.set(armMnemonic("SMLA"+xy(x)+xy(y), op), "%s, %s, %s, %s", rd, rm, rs, rn)
	case 0b01:
		if x {
			c.Disasm.set(armMnemonic("SMULW"+xy(y), op), "%s, %s, %s", rd, rm, rs)
		} else {
			c.Disasm.set(armMnemonic("SMLAW"+xy(y), op), "%s, %s, %s, %s", rd, rm, rs, rn)
		}
	case 0b10:
		c.Disasm.set(armMnemonic("SMLAL"+xy(x)+xy(y), op), "%s, %s, %s, %s", rn, rd, rm, rs)
	default:
		c.Disasm.set(armMnemonic("SMUL"+xy(x)+xy(y), op), "%s, %s, %s", rd, rm, rs)
	}
}

func (c *Context) armCLZ(op insts.Opcode) int {
	if c.Disasm != nil {
		c.Disasm.set(armMnemonic("CLZ", op), "%s, %s", regName(op.Rd()), regName(op.Rm()))
		return 0
	}

	if op.Rd() == PC || op.Rm() == PC {
		c.unpredictable("R15 as CLZ operand")
	}
	c.Regs.SetR(op.Rd(), CountLeadingZeros(c.Regs.ReadOperand(op.Rm(), PCOffsetALU)))
	return c.cost(insts.FormatCLZ)
}

func (c *Context) armQArith(op insts.Opcode) int {
	kind := op.Bits(21, 22)

	if c.Disasm != nil {
		names := [4]string{"QADD", "QSUB", "QDADD", "QDSUB"}
		c.Disasm.set(armMnemonic(names[kind], op), "%s, %s, %s",
			regName(op.Rd()), regName(op.Rm()), regName(op.Rn()))
		return 0
	}

	if op.Rd() == PC || op.Rm() == PC || op.Rn() == PC {
		c.unpredictable("R15 as saturating arithmetic operand")
	}

	r := c.Regs
	a := int32(r.ReadOperand(op.Rm(), PCOffsetALU))
	b := int32(r.ReadOperand(op.Rn(), PCOffsetALU))

	var saturated bool
	if kind&0b10 != 0 {
		b, saturated = SaturatingAdd(b, b)
	}

	var result int32
	var sat bool
	if kind&0b01 != 0 {
		result, sat = SaturatingSub(a, b)
	} else {
		result, sat = SaturatingAdd(a, b)
	}

	r.SetR(op.Rd(), uint32(result))
	if saturated || sat {
		r.cpsr.SetQ(true)
	}
	return c.cost(insts.FormatQArith)
}
