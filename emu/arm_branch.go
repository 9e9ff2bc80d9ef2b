package emu

import (
	"github.com/sarchlab/ndsim/bits"
	"github.com/sarchlab/ndsim/insts"
)

// branchTarget returns the destination of a B, BL or BLX immediate.
func (c *Context) branchTarget(op insts.Opcode) uint32 {
	offset := bits.SignExtend(op.Bits(0, 23), 24) << 2
	return c.Regs.ReadOperand(PC, PCOffsetALU) + offset
}

func (c *Context) armBranch(op insts.Opcode) int {
	link := op.Bit(24)
	target := c.branchTarget(op)

	if c.Disasm != nil {
		name := "B"
		if link {
			name = "BL"
		}
		c.Disasm.set(armMnemonic(name, op), "0x%08X", target)
		return 0
	}

	if link {
		c.Regs.SetR(LR, c.addr+4)
	}
	c.Regs.SetR(PC, target)
	return c.cost(insts.FormatBranch)
}

// armBLXImm calls a Thumb routine. Bit 24 supplies the halfword offset.
func (c *Context) armBLXImm(op insts.Opcode) int {
	target := c.branchTarget(op)
	if op.Bit(24) {
		target += 2
	}

	if c.Disasm != nil {
		c.Disasm.set("BLX", "0x%08X", target)
		return 0
	}

	r := c.Regs
	r.SetR(LR, c.addr+4)
	r.cpsr.SetT(true)
	r.SetR(PC, target)
	return c.cost(insts.FormatBLXImm)
}

func (c *Context) armBX(op insts.Opcode) int {
	if c.Disasm != nil {
		c.Disasm.set(armMnemonic("BX", op), "%s", regName(op.Rm()))
		return 0
	}

	c.branchExchange(c.Regs.ReadOperand(op.Rm(), PCOffsetALU))
	return c.cost(insts.FormatBX)
}

func (c *Context) armBLXReg(op insts.Opcode) int {
	if c.Disasm != nil {
		c.Disasm.set(armMnemonic("BLX", op), "%s", regName(op.Rm()))
		return 0
	}

	if op.Rm() == PC {
		c.unpredictable("BLX to R15")
	}

	target := c.Regs.ReadOperand(op.Rm(), PCOffsetALU)
	c.Regs.SetR(LR, c.addr+4)
	c.branchExchange(target)
	return c.cost(insts.FormatBLXReg)
}
