package emu

import "github.com/sarchlab/ndsim/insts"

// coprocTrap takes the undefined instruction exception for an access to a
// coprocessor that is not present.
func (c *Context) coprocTrap(op insts.Opcode) int {
	c.Log.V(1).Info("absent coprocessor", "pc", hex32(c.addr), "cp", op.Bits(8, 11))
	c.EnterException(ExceptionUndefined, c.addr+4)
	return c.cost(insts.FormatCoprocData)
}

// armCoprocRegister handles MRC and MCR. Only p15 on the CPU9 exists.
func (c *Context) armCoprocRegister(op insts.Opcode) int {
	load := op.Bit(20)
	cp := op.Bits(8, 11)
	opc1, crn, crm, opc2 := op.Bits(21, 23), op.Bits(16, 19), op.Bits(0, 3), op.Bits(5, 7)
	rd := op.Rd()

	if c.Disasm != nil {
		name := "MCR"
		if load {
			name = "MRC"
		}
		c.Disasm.set(armMnemonic(name, op), "p%d, %d, %s, c%d, c%d, %d",
			cp, opc1, regName(rd), crn, crm, opc2)
		return 0
	}

	if c.CP15 == nil || cp != 15 || !c.Regs.Mode().Privileged() {
		return c.coprocTrap(op)
	}

	r := c.Regs
	if !load {
		v := r.ReadOperand(rd, PCOffsetStore)
		if !c.CP15.Write(opc1, crn, crm, opc2, v) {
			c.Log.Info("write to unknown cp15 register", "pc", hex32(c.addr),
				"crn", crn, "crm", crm, "opc1", opc1, "opc2", opc2, "value", hex32(v))
		}
		return c.cost(insts.FormatCoprocRegister)
	}

	v, ok := c.CP15.Read(opc1, crn, crm, opc2)
	if !ok {
		c.Log.Info("read of unknown cp15 register", "pc", hex32(c.addr),
			"crn", crn, "crm", crm, "opc1", opc1, "opc2", opc2)
	}

	if rd == PC {
		// MRC to R15 sets the condition flags from bits 31..28
		r.cpsr = PSR(uint32(r.cpsr)&0x0FFFFFFF | v&0xF0000000)
	} else {
		r.SetR(rd, v)
	}
	return c.cost(insts.FormatCoprocRegister)
}

// armCoprocOther handles CDP, LDC and STC, none of which reach an existing
// coprocessor.
func (c *Context) armCoprocOther(op insts.Opcode) int {
	if c.Disasm != nil {
		name := "CDP"
		if op.Bits(25, 27) == 0b110 {
			name = "STC"
			if op.Bit(20) {
				name = "LDC"
			}
		}
		c.Disasm.set(armMnemonic(name, op), "p%d, 0x%08X", op.Bits(8, 11), uint32(op))
		return 0
	}

	return c.coprocTrap(op)
}
