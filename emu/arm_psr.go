package emu

import (
	"fmt"
	"strings"

	"github.com/sarchlab/ndsim/bits"
	"github.com/sarchlab/ndsim/insts"
)

const (
	psrFlagsMask   = 0xFF000000
	psrControlMask = 0x000000FF
	// Q and the reserved flag bits do not exist on ARMv4
	psrV5Only = 0x0F000000
)

// armPSR handles MRS and MSR. Bit 21 separates the write (MSR) from the
// read, bit 22 selects the SPSR.
func (c *Context) armPSR(op insts.Opcode) int {
	if op.Bit(21) {
		return c.armMSR(op)
	}
	return c.armMRS(op)
}

func (c *Context) armMRS(op insts.Opcode) int {
	useSPSR := op.Bit(22)
	rd := op.Rd()

	if c.Disasm != nil {
		c.Disasm.set(armMnemonic("MRS", op), "%s, %s", regName(rd), psrName(useSPSR))
		return 0
	}

	if rd == PC {
		c.unpredictable("MRS into R15")
	}

	r := c.Regs
	v := r.CPSR()
	if useSPSR {
		if spsr, ok := r.SPSR(); ok {
			v = spsr
		} else {
			c.unpredictable("SPSR read in USR/SYS mode")
		}
	}

	r.SetR(rd, uint32(v))
	return c.cost(insts.FormatPSR)
}

// fieldMask expands the MSR field bits (19..16) into a byte mask.
func fieldMask(op insts.Opcode) uint32 {
	var mask uint32
	for i := uint(0); i < 4; i++ {
		if op.Bit(16 + i) {
			mask |= 0xFF << (8 * i)
		}
	}
	return mask
}

func (c *Context) armMSR(op insts.Opcode) int {
	useSPSR := op.Bit(22)

	if c.Disasm != nil {
		c.Disasm.set(armMnemonic("MSR", op), "%s, %s", msrTarget(op, useSPSR), msrSource(op))
		return 0
	}

	r := c.Regs
	var v uint32
	if op.Immediate() {
		v, _ = RotatedImmediate(op, false)
	} else {
		if op.Rm() == PC {
			c.unpredictable("MSR from R15")
		}
		v = r.ReadOperand(op.Rm(), PCOffsetALU)
	}

	mask := fieldMask(op)
	if !c.Variant.IsARMv5() {
		mask &^= psrV5Only
	}

	if useSPSR {
		spsr, ok := r.SPSR()
		if !ok {
			c.unpredictable("SPSR write in USR/SYS mode")
			return c.cost(insts.FormatPSR)
		}
		r.SetSPSR(PSR(bits.Merge(uint32(spsr), v, mask)))
		return c.cost(insts.FormatPSR)
	}

	if !r.Mode().Privileged() {
		mask &= psrFlagsMask
	}

	// the T bit is not writable through MSR
	if v&(1<<psrT) != uint32(r.cpsr)&(1<<psrT) && mask&psrControlMask != 0 {
		c.unpredictable("MSR changing the T bit")
	}
	mask &^= 1 << psrT

	next := PSR(bits.Merge(uint32(r.cpsr), v, mask))
	if !r.SetCPSR(next) {
		c.unpredictable("MSR with invalid mode", "value", hex32(v))
	}
	return c.cost(insts.FormatPSR)
}

func psrName(spsr bool) string {
	if spsr {
		return "SPSR"
	}
	return "CPSR"
}

func msrTarget(op insts.Opcode, spsr bool) string {
	var b strings.Builder
	b.WriteString(psrName(spsr))
	b.WriteByte('_')
	for i, f := range "cxsf" {
		if op.Bit(16 + uint(i)) {
			b.WriteRune(f)
		}
	}
	return b.String()
}

func msrSource(op insts.Opcode) string {
	if op.Immediate() {
		v, _ := RotatedImmediate(op, false)
		return fmt.Sprintf("#0x%X", v)
	}
	return regName(op.Rm())
}
