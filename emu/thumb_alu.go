package emu

import (
	"fmt"

	"github.com/sarchlab/ndsim/insts"
)

func (c *Context) thumbShiftImm(op insts.Opcode) int {
	kind := insts.ShiftType(op.Bits(11, 12))
	amount := op.Bits(6, 10)
	rd, rs := op.ThumbLow3(0), op.ThumbLow3(3)

	if c.Disasm != nil {
		if kind != insts.ShiftLSL && amount == 0 {
			amount = 32
		}
		c.Disasm.set(kind.String()+"S", "%s, %s, #%d", regName(rd), regName(rs), amount)
		return 0
	}

	r := c.Regs
	v, carry := ShiftImmediate(kind, r.R(rs), amount, r.cpsr.C())
	r.SetR(rd, v)
	r.cpsr.SetNZ(v)
	r.cpsr.SetC(carry)
	return c.thumbCost(insts.ThumbShiftImm)
}

func (c *Context) thumbAddSub(op insts.Opcode) int {
	immediate := op.Bit(10)
	sub := op.Bit(9)
	rd, rs := op.ThumbLow3(0), op.ThumbLow3(3)
	field := op.Bits(6, 8)

	if c.Disasm != nil {
		name := "ADDS"
		if sub {
			name = "SUBS"
		}
		operand := regName(int(field))
		if immediate {
			operand = fmt.Sprintf("#%d", field)
		}
		c.Disasm.set(name, "%s, %s, %s", regName(rd), regName(rs), operand)
		return 0
	}

	r := c.Regs
	b := field
	if !immediate {
		b = r.R(int(field))
	}

	dop := insts.DataADD
	if sub {
		dop = insts.DataSUB
	}
	res := evalDataOp(dop, r.R(rs), b, r.cpsr.C(), r.cpsr.C())
	r.SetR(rd, res.value)
	res.setFlags(&r.cpsr)
	return c.thumbCost(insts.ThumbAddSub)
}

var thumbImm8Ops = [4]insts.DataOp{insts.DataMOV, insts.DataCMP, insts.DataADD, insts.DataSUB}

func (c *Context) thumbImm8(op insts.Opcode) int {
	dop := thumbImm8Ops[op.Bits(11, 12)]
	rd := op.ThumbLow3(8)
	imm := op.Bits(0, 7)

	if c.Disasm != nil {
		name := dop.String()
		if !dop.IsTest() {
			name += "S"
		}
		c.Disasm.set(name, "%s, #0x%X", regName(rd), imm)
		return 0
	}

	r := c.Regs
	res := evalDataOp(dop, r.R(rd), imm, r.cpsr.C(), r.cpsr.C())
	if !dop.IsTest() {
		r.SetR(rd, res.value)
	}
	res.setFlags(&r.cpsr)
	return c.thumbCost(insts.ThumbImm8)
}

const (
	thumbAND = iota
	thumbEOR
	thumbLSL
	thumbLSR
	thumbASR
	thumbADC
	thumbSBC
	thumbROR
	thumbTST
	thumbNEG
	thumbCMP
	thumbCMN
	thumbORR
	thumbMUL
	thumbBIC
	thumbMVN
)

var thumbALUNames = [16]string{
	"ANDS", "EORS", "LSLS", "LSRS", "ASRS", "ADCS", "SBCS", "RORS",
	"TST", "NEGS", "CMP", "CMN", "ORRS", "MULS", "BICS", "MVNS",
}

// thumbALUData maps the register ALU operations that are plain
// data-processing operations.
var thumbALUData = map[uint32]insts.DataOp{
	thumbAND: insts.DataAND,
	thumbEOR: insts.DataEOR,
	thumbADC: insts.DataADC,
	thumbSBC: insts.DataSBC,
	thumbTST: insts.DataTST,
	thumbCMP: insts.DataCMP,
	thumbCMN: insts.DataCMN,
	thumbORR: insts.DataORR,
	thumbBIC: insts.DataBIC,
	thumbMVN: insts.DataMVN,
}

var thumbALUShifts = map[uint32]insts.ShiftType{
	thumbLSL: insts.ShiftLSL,
	thumbLSR: insts.ShiftLSR,
	thumbASR: insts.ShiftASR,
	thumbROR: insts.ShiftROR,
}

func (c *Context) thumbALU(op insts.Opcode) int {
	kind := op.Bits(6, 9)
	rd, rs := op.ThumbLow3(0), op.ThumbLow3(3)

	if c.Disasm != nil {
		c.Disasm.set(thumbALUNames[kind], "%s, %s", regName(rd), regName(rs))
		return 0
	}

	r := c.Regs
	a, b := r.R(rd), r.R(rs)
	cycles := c.thumbCost(insts.ThumbALU)

	if dop, ok := thumbALUData[kind]; ok {
		res := evalDataOp(dop, a, b, r.cpsr.C(), r.cpsr.C())
		if !dop.IsTest() {
			r.SetR(rd, res.value)
		}
		res.setFlags(&r.cpsr)
		return cycles
	}

	if shift, ok := thumbALUShifts[kind]; ok {
		v, carry := ShiftRegister(shift, a, b&0xFF, r.cpsr.C())
		r.SetR(rd, v)
		r.cpsr.SetNZ(v)
		r.cpsr.SetC(carry)
		return cycles + int(c.timing().ShiftByRegisterPenalty)
	}

	switch kind {
	case thumbNEG:
		res := evalDataOp(insts.DataRSB, b, 0, r.cpsr.C(), r.cpsr.C())
		r.SetR(rd, res.value)
		res.setFlags(&r.cpsr)
	case thumbMUL:
		v := a * b
		r.SetR(rd, v)
		r.cpsr.SetNZ(v)
		cycles = int(c.timing().MultiplyLatency)
	}
	return cycles
}

// thumbHiReg handles ADD, CMP and MOV with a high register operand and the
// BX/BLX register branches.
func (c *Context) thumbHiReg(op insts.Opcode) int {
	kind := op.Bits(8, 9)
	rd := op.ThumbLow3(0)
	if op.Bit(7) {
		rd += 8
	}
	rs := int(op.Bits(3, 6))

	if c.Disasm != nil {
		c.describeHiReg(op, kind, rd, rs)
		return 0
	}

	r := c.Regs
	b := r.ReadOperand(rs, PCOffsetALU)

	switch kind {
	case 0b00:
		c.writeReg(rd, r.ReadOperand(rd, PCOffsetALU)+b)
	case 0b01:
		res := evalDataOp(insts.DataCMP, r.ReadOperand(rd, PCOffsetALU), b, r.cpsr.C(), r.cpsr.C())
		res.setFlags(&r.cpsr)
	case 0b10:
		c.writeReg(rd, b)
	default:
		link := op.Bit(7)
		if link && !c.Variant.IsARMv5() {
			c.unpredictable("BLX in ARMv4 Thumb")
			link = false
		}
		if link {
			r.SetR(LR, (c.addr+2)|1)
		}
		c.branchExchange(b)
		return c.thumbCost(insts.ThumbBranch)
	}

	return c.thumbCost(insts.ThumbHiReg)
}

func (c *Context) describeHiReg(op insts.Opcode, kind uint32, rd, rs int) {
	switch kind {
	case 0b00:
		c.Disasm.set("ADD", "%s, %s", regName(rd), regName(rs))
	case 0b01:
		c.Disasm.set("CMP", "%s, %s", regName(rd), regName(rs))
	case 0b10:
		c.Disasm.set("MOV", "%s, %s", regName(rd), regName(rs))
	default:
		name := "BX"
		if op.Bit(7) {
			name = "BLX"
		}
		c.Disasm.set(name, "%s", regName(rs))
	}
}

func (c *Context) thumbLoadAddress(op insts.Opcode) int {
	useSP := op.Bit(11)
	rd := op.ThumbLow3(8)
	offset := op.Bits(0, 7) << 2

	if c.Disasm != nil {
		base := "PC"
		if useSP {
			base = "SP"
		}
		c.Disasm.set("ADD", "%s, %s, #0x%X", regName(rd), base, offset)
		return 0
	}

	r := c.Regs
	var base uint32
	if useSP {
		base = r.R(SP)
	} else {
		base = r.ReadOperand(PC, PCOffsetALU) &^ 3
	}
	r.SetR(rd, base+offset)
	return c.thumbCost(insts.ThumbLoadAddress)
}

func (c *Context) thumbSPAdjust(op insts.Opcode) int {
	offset := op.Bits(0, 6) << 2
	negative := op.Bit(7)

	if c.Disasm != nil {
		sign := ""
		if negative {
			sign = "-"
		}
		c.Disasm.set("ADD", "SP, #%s0x%X", sign, offset)
		return 0
	}

	r := c.Regs
	if negative {
		r.SetR(SP, r.R(SP)-offset)
	} else {
		r.SetR(SP, r.R(SP)+offset)
	}
	return c.thumbCost(insts.ThumbSPAdjust)
}
