package emu

import (
	"fmt"

	"github.com/sarchlab/ndsim/bits"
	"github.com/sarchlab/ndsim/insts"
)

// writeBase applies an addressing-mode writeback to the base register.
func (c *Context) writeBase(rn int, addr Address) {
	if !addr.Write {
		return
	}
	if rn == PC {
		c.unpredictable("writeback to R15")
		return
	}
	c.Regs.SetR(rn, addr.Writeback)
}

func (c *Context) armLoadStore(op insts.Opcode) int {
	load := op.Bit(20)
	byteAccess := op.Bit(22)
	rn, rd := op.Rn(), op.Rd()

	if c.Disasm != nil {
		c.describeLoadStore(op, load, byteAccess)
		return 0
	}

	r := c.Regs
	base := r.ReadOperand(rn, PCOffsetAddress)
	addr := indexedAddress(op, base, c.addressOffset(op))

	if !load {
		v := r.ReadOperand(rd, PCOffsetStore)
		if byteAccess {
			c.store8(addr.Access, uint8(v))
		} else {
			c.store32(addr.Access, v)
		}
		c.writeBase(rn, addr)
		return int(c.timing().StoreLatency)
	}

	var v uint32
	if byteAccess {
		v = uint32(c.load8(addr.Access))
	} else {
		v = c.loadWordRotated(addr.Access)
	}

	// the loaded value wins over the writeback when Rd is the base
	if addr.Write && rn == rd {
		c.unpredictable("load with writeback into the base register")
	}
	c.writeBase(rn, addr)

	if rd == PC {
		c.loadPC(v)
	} else {
		r.SetR(rd, v)
	}

	return c.cost(insts.FormatLoadStore)
}

func (c *Context) describeLoadStore(op insts.Opcode, load, byteAccess bool) {
	name := "STR"
	if load {
		name = "LDR"
	}
	name = armMnemonic(name, op)
	if byteAccess {
		name += "B"
	}
	if !op.Bit(24) && op.Bit(21) {
		name += "T"
	}

	var offset string
	sign := "-"
	if op.Bit(23) {
		sign = ""
	}
	if !op.Immediate() {
		offset = fmt.Sprintf("#%s0x%X", sign, op.Bits(0, 11))
	} else {
		offset = sign + shiftedRegisterText(op)
	}

	c.Disasm.set(name, "%s, %s", regName(op.Rd()), addressText(op, offset))
}

// addressText formats "[Rn, off]", "[Rn, off]!" or "[Rn], off".
func addressText(op insts.Opcode, offset string) string {
	rn := regName(op.Rn())
	if !op.Bit(24) {
		return fmt.Sprintf("[%s], %s", rn, offset)
	}
	wb := ""
	if op.Bit(21) {
		wb = "!"
	}
	return fmt.Sprintf("[%s, %s]%s", rn, offset, wb)
}

// armHalfword handles LDRH/STRH/LDRSB/LDRSH and the ARMv5 LDRD/STRD.
func (c *Context) armHalfword(op insts.Opcode) int {
	load := op.Bit(20)
	sh := op.Bits(5, 6)
	rn, rd := op.Rn(), op.Rd()
	immediate := op.Bit(22)

	if !load && sh != 0b01 && !c.Variant.IsARMv5() {
		if c.Disasm != nil {
			c.Disasm.set("UND", "0x%08X", uint32(op))
			return 0
		}
		return c.unimplemented(op)
	}

	if c.Disasm != nil {
		c.describeHalfword(op, load, sh, immediate)
		return 0
	}

	r := c.Regs
	var offset uint32
	if immediate {
		offset = op.Bits(8, 11)<<4 | op.Bits(0, 3)
	} else {
		if op.Rm() == PC {
			c.unpredictable("R15 as offset register")
		}
		offset = r.ReadOperand(op.Rm(), PCOffsetAddress)
	}

	base := r.ReadOperand(rn, PCOffsetAddress)
	addr := indexedAddress(op, base, offset)

	if !load && sh == 0b01 {
		c.store16(addr.Access, uint16(r.ReadOperand(rd, PCOffsetStore)))
		c.writeBase(rn, addr)
		return int(c.timing().StoreLatency)
	}

	if !load {
		return c.doubleword(op, sh == 0b11, addr)
	}

	var v uint32
	switch sh {
	case 0b01:
		v = c.loadHalf(addr.Access)
	case 0b10:
		v = bits.SignExtend(uint32(c.load8(addr.Access)), 8)
	default:
		v = c.loadSignedHalf(addr.Access)
	}

	if addr.Write && rn == rd {
		c.unpredictable("load with writeback into the base register")
	}
	c.writeBase(rn, addr)

	if rd == PC {
		c.loadPC(v)
	} else {
		r.SetR(rd, v)
	}

	return c.cost(insts.FormatHalfword)
}

// doubleword handles LDRD (store false) and STRD.
func (c *Context) doubleword(op insts.Opcode, store bool, addr Address) int {
	r := c.Regs
	rn, rd := op.Rn(), op.Rd()

	if rd&1 != 0 || rd == LR {
		c.unpredictable("doubleword transfer with odd or LR first register", "rd", rd)
		rd &^= 1
	}

	if store {
		c.store32(addr.Access, r.ReadOperand(rd, PCOffsetStore))
		c.store32(addr.Access+4, r.ReadOperand(rd+1, PCOffsetStore))
		c.writeBase(rn, addr)
		return int(c.timing().StoreLatency) + 1
	}

	lo := c.load32(addr.Access)
	hi := c.load32(addr.Access + 4)

	if addr.Write && (rn == rd || rn == rd+1) {
		c.unpredictable("load with writeback into the base register")
	}
	c.writeBase(rn, addr)

	r.SetR(rd, lo)
	if rd+1 == PC {
		c.loadPC(hi)
	} else {
		r.SetR(rd+1, hi)
	}

	return c.cost(insts.FormatHalfword) + 1
}

func (c *Context) describeHalfword(op insts.Opcode, load bool, sh uint32, immediate bool) {
	var name string
	switch {
	case load && sh == 0b01:
		name = "LDR%sH"
	case load && sh == 0b10:
		name = "LDR%sSB"
	case load:
		name = "LDR%sSH"
	case sh == 0b01:
		name = "STR%sH"
	case sh == 0b10:
		name = "LDR%sD"
	default:
		name = "STR%sD"
	}
	name = fmt.Sprintf(name, op.Cond())

	sign := "-"
	if op.Bit(23) {
		sign = ""
	}
	var offset string
	if immediate {
		offset = fmt.Sprintf("#%s0x%X", sign, op.Bits(8, 11)<<4|op.Bits(0, 3))
	} else {
		offset = sign + regName(op.Rm())
	}

	c.Disasm.set(name, "%s, %s", regName(op.Rd()), addressText(op, offset))
}

func (c *Context) armSwap(op insts.Opcode) int {
	byteAccess := op.Bit(22)
	rn, rd, rm := op.Rn(), op.Rd(), op.Rm()

	if c.Disasm != nil {
		name := armMnemonic("SWP", op)
		if byteAccess {
			name += "B"
		}
		c.Disasm.set(name, "%s, %s, [%s]", regName(rd), regName(rm), regName(rn))
		return 0
	}

	if rn == PC || rd == PC || rm == PC {
		c.unpredictable("R15 as swap operand")
	}

	r := c.Regs
	addr := r.ReadOperand(rn, PCOffsetAddress)
	source := r.ReadOperand(rm, PCOffsetStore)

	if byteAccess {
		v := c.load8(addr)
		c.store8(addr, uint8(source))
		r.SetR(rd, uint32(v))
	} else {
		v := c.loadWordRotated(addr)
		c.store32(addr, source)
		r.SetR(rd, v)
	}

	return c.cost(insts.FormatSwap)
}
