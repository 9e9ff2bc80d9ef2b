package emu

import (
	mathbits "math/bits"

	"github.com/sarchlab/ndsim/insts"
)

func (c *Context) thumbPCLoad(op insts.Opcode) int {
	rd := op.ThumbLow3(8)
	addr := c.Regs.ReadOperand(PC, PCOffsetAddress)&^3 + op.Bits(0, 7)<<2

	if c.Disasm != nil {
		c.Disasm.set("LDR", "%s, [PC, #0x%X] ; 0x%08X", regName(rd), op.Bits(0, 7)<<2, addr)
		return 0
	}

	c.Regs.SetR(rd, c.load32(addr))
	return c.thumbCost(insts.ThumbPCLoad)
}

// thumbTransfer performs one single-register Thumb load or store. kind is
// one of "W", "B", "H", "SB" or "SH".
func (c *Context) thumbTransfer(f insts.Format, load bool, kind string, rd int, addr uint32) int {
	r := c.Regs

	if !load {
		v := r.R(rd)
		switch kind {
		case "B":
			c.store8(addr, uint8(v))
		case "H":
			c.store16(addr, uint16(v))
		default:
			c.store32(addr, v)
		}
		return int(c.timing().StoreLatency)
	}

	var v uint32
	switch kind {
	case "B":
		v = uint32(c.load8(addr))
	case "SB":
		v = uint32(int32(int8(c.load8(addr))))
	case "H":
		v = c.loadHalf(addr)
	case "SH":
		v = c.loadSignedHalf(addr)
	default:
		v = c.loadWordRotated(addr)
	}
	r.SetR(rd, v)
	return c.thumbCost(f)
}

func thumbTransferName(load bool, kind string) string {
	if kind == "W" {
		kind = ""
	}
	if load {
		return "LDR" + kind
	}
	return "STR" + kind
}

func (c *Context) thumbLoadStoreReg(op insts.Opcode) int {
	load := op.Bit(11)
	kind := "W"
	if op.Bit(10) {
		kind = "B"
	}
	rd, rb, ro := op.ThumbLow3(0), op.ThumbLow3(3), op.ThumbLow3(6)

	if c.Disasm != nil {
		c.Disasm.set(thumbTransferName(load, kind), "%s, [%s, %s]", regName(rd), regName(rb), regName(ro))
		return 0
	}

	addr := c.Regs.R(rb) + c.Regs.R(ro)
	return c.thumbTransfer(insts.ThumbLoadStoreReg, load, kind, rd, addr)
}

var thumbSignKinds = [4]string{"H", "SB", "H", "SH"}

func (c *Context) thumbLoadStoreSign(op insts.Opcode) int {
	sel := op.Bits(10, 11)
	load := sel != 0
	kind := thumbSignKinds[sel]
	rd, rb, ro := op.ThumbLow3(0), op.ThumbLow3(3), op.ThumbLow3(6)

	if c.Disasm != nil {
		c.Disasm.set(thumbTransferName(load, kind), "%s, [%s, %s]", regName(rd), regName(rb), regName(ro))
		return 0
	}

	addr := c.Regs.R(rb) + c.Regs.R(ro)
	return c.thumbTransfer(insts.ThumbLoadStoreSign, load, kind, rd, addr)
}

func (c *Context) thumbLoadStoreImm(op insts.Opcode) int {
	load := op.Bit(11)
	kind := "W"
	offset := op.Bits(6, 10) << 2
	if op.Bit(12) {
		kind = "B"
		offset = op.Bits(6, 10)
	}
	rd, rb := op.ThumbLow3(0), op.ThumbLow3(3)

	if c.Disasm != nil {
		c.Disasm.set(thumbTransferName(load, kind), "%s, [%s, #0x%X]", regName(rd), regName(rb), offset)
		return 0
	}

	return c.thumbTransfer(insts.ThumbLoadStoreImm, load, kind, rd, c.Regs.R(rb)+offset)
}

func (c *Context) thumbLoadStoreHalf(op insts.Opcode) int {
	load := op.Bit(11)
	offset := op.Bits(6, 10) << 1
	rd, rb := op.ThumbLow3(0), op.ThumbLow3(3)

	if c.Disasm != nil {
		c.Disasm.set(thumbTransferName(load, "H"), "%s, [%s, #0x%X]", regName(rd), regName(rb), offset)
		return 0
	}

	return c.thumbTransfer(insts.ThumbLoadStoreHalf, load, "H", rd, c.Regs.R(rb)+offset)
}

func (c *Context) thumbSPLoadStore(op insts.Opcode) int {
	load := op.Bit(11)
	rd := op.ThumbLow3(8)
	offset := op.Bits(0, 7) << 2

	if c.Disasm != nil {
		c.Disasm.set(thumbTransferName(load, "W"), "%s, [SP, #0x%X]", regName(rd), offset)
		return 0
	}

	return c.thumbTransfer(insts.ThumbSPLoadStore, load, "W", rd, c.Regs.R(SP)+offset)
}

// thumbPushPop handles PUSH (STMDB SP!) and POP (LDMIA SP!). Bit 8 adds LR
// to a push and PC to a pop.
func (c *Context) thumbPushPop(op insts.Opcode) int {
	pop := op.Bit(11)
	list := op.Bits(0, 7)
	extra := op.Bit(8)

	if c.Disasm != nil {
		shown := list
		name := "PUSH"
		if pop {
			name = "POP"
			if extra {
				shown |= 1 << PC
			}
		} else if extra {
			shown |= 1 << LR
		}
		c.Disasm.set(name, "%s", regList(shown))
		return 0
	}

	r := c.Regs
	n := uint32(mathbits.OnesCount32(list))
	if extra {
		n++
	}
	if n == 0 {
		c.unpredictable("empty register list")
	}
	cycles := c.thumbCost(insts.ThumbPushPop) + int(n*uint32(c.timing().BlockPerRegisterLatency))

	if !pop {
		addr := r.R(SP) - 4*n
		r.SetR(SP, addr)
		for i := 0; i < 8; i++ {
			if list&(1<<i) != 0 {
				c.store32(addr, r.R(i))
				addr += 4
			}
		}
		if extra {
			c.store32(addr, r.R(LR))
		}
		return cycles
	}

	addr := r.R(SP)
	for i := 0; i < 8; i++ {
		if list&(1<<i) != 0 {
			r.SetR(i, c.load32(addr))
			addr += 4
		}
	}
	if extra {
		// POP {PC} returns to ARM state only on the ARM9
		c.loadPC(c.load32(addr))
		addr += 4
	}
	r.SetR(SP, addr)
	return cycles
}

// thumbBlock handles LDMIA and STMIA with writeback.
func (c *Context) thumbBlock(op insts.Opcode) int {
	load := op.Bit(11)
	rb := op.ThumbLow3(8)
	list := op.Bits(0, 7)

	if c.Disasm != nil {
		name := "STMIA"
		if load {
			name = "LDMIA"
		}
		c.Disasm.set(name, "%s!, %s", regName(rb), regList(list))
		return 0
	}

	r := c.Regs
	base := r.R(rb)

	if list == 0 {
		// the ARM7 transfers R15 and moves the base by 16 words
		c.unpredictable("empty register list")
		if load {
			c.writePC(c.load32(base))
		} else {
			c.store32(base, r.ReadOperand(PC, PCOffsetStore)+2)
		}
		r.SetR(rb, base+0x40)
		return c.thumbCost(insts.ThumbBlock) + int(c.timing().BlockPerRegisterLatency)
	}

	n := uint32(mathbits.OnesCount32(list))
	wb := base + 4*n
	cycles := c.thumbCost(insts.ThumbBlock) + int(n*uint32(c.timing().BlockPerRegisterLatency))
	addr := base

	if !load {
		first := true
		for i := 0; i < 8; i++ {
			if list&(1<<i) == 0 {
				continue
			}
			v := r.R(i)
			if i == rb && !first && !c.Variant.IsARMv5() {
				v = wb
			}
			c.store32(addr, v)
			addr += 4
			first = false
		}
		r.SetR(rb, wb)
		return cycles
	}

	// the loaded value wins over the writeback when the base is in the list
	if list&(1<<rb) == 0 {
		r.SetR(rb, wb)
	}
	for i := 0; i < 8; i++ {
		if list&(1<<i) != 0 {
			r.SetR(i, c.load32(addr))
			addr += 4
		}
	}
	return cycles
}
