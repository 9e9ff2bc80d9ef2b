package emu

import (
	mathbits "math/bits"

	"github.com/sarchlab/ndsim/insts"
)

// blockAddresses returns the lowest transfer address and the written-back
// base of an LDM/STM of n registers.
func blockAddresses(base uint32, n uint32, pre, up bool) (start, writeback uint32) {
	size := 4 * n
	switch {
	case up && !pre:
		return base, base + size
	case up && pre:
		return base + 4, base + size
	case !up && !pre:
		return base - size + 4, base - size
	default:
		return base - size, base - size
	}
}

// armBlock handles LDM and STM. The S bit selects the four variants:
// plain, LDM with R15 and S (exception return), and the two user-bank
// transfers (STM with S, LDM with S and no R15).
func (c *Context) armBlock(op insts.Opcode) int {
	load := op.Bit(20)
	list := op.Bits(0, 15)
	rn := op.Rn()

	if c.Disasm != nil {
		c.describeBlock(op, load, list)
		return 0
	}

	r := c.Regs
	pre, up, sbit, writeback := op.Bit(24), op.Bit(23), op.Bit(22), op.Bit(21)

	n := uint32(mathbits.OnesCount32(list))
	emptyList := list == 0
	if emptyList {
		// the ARM7 transfers R15 and moves the base by 16 words
		c.unpredictable("empty register list")
		list = 1 << PC
		n = 16
	}

	if rn == PC {
		c.unpredictable("R15 as block transfer base")
	}

	base := r.ReadOperand(rn, PCOffsetAddress)
	start, wb := blockAddresses(base, n, pre, up)
	if emptyList {
		n = 1
	}

	hasPC := list&(1<<PC) != 0
	userBank := sbit && !(load && hasPC)
	if userBank && writeback {
		c.unpredictable("writeback with user-bank transfer")
	}
	if sbit && !userBank && !r.Mode().HasSPSR() {
		c.unpredictable("exception return from USR/SYS mode")
	}

	read := r.ReadOperand
	write := r.SetR
	if userBank {
		read = func(n int, _ PCOffset) uint32 {
			if n == PC {
				return r.ReadOperand(PC, PCOffsetStore)
			}
			return r.UserR(n)
		}
		write = r.SetUserR
	}

	addr := start
	baseInList := list&(1<<rn) != 0

	if !load {
		first := true
		for i := 0; i < 16; i++ {
			if list&(1<<i) == 0 {
				continue
			}
			v := read(i, PCOffsetStore)
			// the ARM7 stores the written-back base unless it is the
			// lowest register; the ARM9 always stores the original
			if i == rn && writeback && !first && !c.Variant.IsARMv5() {
				v = wb
			}
			c.store32(addr, v)
			addr += 4
			first = false
		}
		if writeback {
			c.writeBlockBase(rn, wb)
		}
		return c.cost(insts.FormatBlock) + int(n*uint32(c.timing().BlockPerRegisterLatency))
	}

	// the loaded value wins over the writeback when the base is in the list
	if writeback {
		if baseInList {
			c.unpredictable("LDM base in register list with writeback")
		}
		c.writeBlockBase(rn, wb)
	}

	for i := 0; i < 16; i++ {
		if list&(1<<i) == 0 {
			continue
		}
		v := c.load32(addr)
		addr += 4

		if i != PC {
			write(i, v)
			continue
		}

		if sbit {
			c.restoreSPSR()
			c.writePC(v)
		} else {
			c.loadPC(v)
		}
	}

	return c.cost(insts.FormatBlock) + int(n*uint32(c.timing().BlockPerRegisterLatency))
}

func (c *Context) writeBlockBase(rn int, wb uint32) {
	if rn == PC {
		return
	}
	c.Regs.SetR(rn, wb)
}

func (c *Context) describeBlock(op insts.Opcode, load bool, list uint32) {
	name := "STM"
	if load {
		name = "LDM"
	}
	name = armMnemonic(name, op)

	suffix := [4]string{"DA", "IA", "DB", "IB"}
	name += suffix[op.Bits(23, 24)]

	wb := ""
	if op.Bit(21) {
		wb = "!"
	}
	caret := ""
	if op.Bit(22) {
		caret = "^"
	}
	c.Disasm.set(name, "%s%s, %s%s", regName(op.Rn()), wb, regList(list), caret)
}
