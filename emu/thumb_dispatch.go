package emu

import (
	"github.com/sarchlab/ndsim/bits"
	"github.com/sarchlab/ndsim/insts"
)

// thumbTable maps every Thumb format to its handler.
func thumbTable() [insts.NumThumbFormats]armHandler {
	return [insts.NumThumbFormats]armHandler{
		insts.ThumbUnknown:       (*Context).unreachable,
		insts.ThumbShiftImm:      (*Context).thumbShiftImm,
		insts.ThumbAddSub:        (*Context).thumbAddSub,
		insts.ThumbImm8:          (*Context).thumbImm8,
		insts.ThumbALU:           (*Context).thumbALU,
		insts.ThumbHiReg:         (*Context).thumbHiReg,
		insts.ThumbPCLoad:        (*Context).thumbPCLoad,
		insts.ThumbLoadStoreReg:  (*Context).thumbLoadStoreReg,
		insts.ThumbLoadStoreSign: (*Context).thumbLoadStoreSign,
		insts.ThumbLoadStoreImm:  (*Context).thumbLoadStoreImm,
		insts.ThumbLoadStoreHalf: (*Context).thumbLoadStoreHalf,
		insts.ThumbSPLoadStore:   (*Context).thumbSPLoadStore,
		insts.ThumbLoadAddress:   (*Context).thumbLoadAddress,
		insts.ThumbSPAdjust:      (*Context).thumbSPAdjust,
		insts.ThumbPushPop:       (*Context).thumbPushPop,
		insts.ThumbBlock:         (*Context).thumbBlock,
		insts.ThumbCondBranch:    (*Context).thumbCondBranch,
		insts.ThumbSWI:           (*Context).thumbSWI,
		insts.ThumbBKPT:          (*Context).thumbBKPT,
		insts.ThumbBranch:        (*Context).thumbBranch,
		insts.ThumbBLPrefix:      (*Context).thumbBLPrefix,
		insts.ThumbBLSuffix:      (*Context).thumbBLSuffix,
		insts.ThumbBLXSuffix:     (*Context).thumbBLXSuffix,
		insts.ThumbUndefined:     (*Context).thumbUndefined,
	}
}

func (c *Context) thumbUndefined(op insts.Opcode) int {
	if c.Disasm != nil {
		c.Disasm.set("UND", "0x%04X", uint32(op))
		return 0
	}
	return c.unimplemented(op)
}

func (c *Context) thumbCondBranch(op insts.Opcode) int {
	cond := insts.Cond(op.Bits(8, 11))
	target := c.Regs.ReadOperand(PC, PCOffsetALU) + bits.SignExtend(op.Bits(0, 7), 8)<<1

	if c.Disasm != nil {
		c.Disasm.set("B"+cond.String(), "0x%08X", target)
		return 0
	}

	p := c.Regs.cpsr
	if !cond.Holds(p.N(), p.Z(), p.C(), p.V()) {
		return int(c.timing().ConditionFailedLatency)
	}
	c.Regs.SetR(PC, target)
	return c.thumbCost(insts.ThumbCondBranch)
}

func (c *Context) thumbBranch(op insts.Opcode) int {
	target := c.Regs.ReadOperand(PC, PCOffsetALU) + bits.SignExtend(op.Bits(0, 10), 11)<<1

	if c.Disasm != nil {
		c.Disasm.set("B", "0x%08X", target)
		return 0
	}

	c.Regs.SetR(PC, target)
	return c.thumbCost(insts.ThumbBranch)
}

// thumbBLPrefix is the first half of BL/BLX: LR receives the upper part of
// the offset added to the PC.
func (c *Context) thumbBLPrefix(op insts.Opcode) int {
	v := c.Regs.ReadOperand(PC, PCOffsetALU) + bits.SignExtend(op.Bits(0, 10), 11)<<12

	if c.Disasm != nil {
		c.Disasm.set("BL", "prefix 0x%08X", v)
		return 0
	}

	c.Regs.SetR(LR, v)
	return c.thumbCost(insts.ThumbBLPrefix)
}

func (c *Context) thumbBLSuffix(op insts.Opcode) int {
	target := c.Regs.R(LR) + op.Bits(0, 10)<<1

	if c.Disasm != nil {
		c.Disasm.set("BL", "suffix LR+0x%X", op.Bits(0, 10)<<1)
		return 0
	}

	c.Regs.SetR(LR, (c.addr+2)|1)
	c.Regs.SetR(PC, target&^1)
	return c.thumbCost(insts.ThumbBLSuffix)
}

func (c *Context) thumbBLXSuffix(op insts.Opcode) int {
	target := (c.Regs.R(LR) + op.Bits(0, 10)<<1) &^ 3

	if c.Disasm != nil {
		c.Disasm.set("BLX", "suffix LR+0x%X", op.Bits(0, 10)<<1)
		return 0
	}

	r := c.Regs
	r.SetR(LR, (c.addr+2)|1)
	r.cpsr.SetT(false)
	r.SetR(PC, target)
	return c.thumbCost(insts.ThumbBLXSuffix)
}

func (c *Context) thumbSWI(op insts.Opcode) int {
	if c.Disasm != nil {
		c.Disasm.set("SWI", "#0x%X", op.Bits(0, 7))
		return 0
	}
	c.EnterException(ExceptionSWI, c.addr+2)
	return c.thumbCost(insts.ThumbSWI)
}

func (c *Context) thumbBKPT(op insts.Opcode) int {
	if c.Disasm != nil {
		c.Disasm.set("BKPT", "#0x%X", op.Bits(0, 7))
		return 0
	}
	c.EnterException(ExceptionPrefetchAbort, c.addr+4)
	return c.thumbCost(insts.ThumbBKPT)
}
