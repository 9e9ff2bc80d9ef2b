package emu

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/ndsim/bits"
	"github.com/sarchlab/ndsim/insts"
	"github.com/sarchlab/ndsim/timing/latency"
)

// Bus is the CPU's view of its address space. Implementations force the
// address down to the access width.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)

	// Fetch16 and Fetch32 read instructions. They differ from the data
	// reads only where a region is visible to one path and not the other.
	Fetch16(addr uint32) uint16
	Fetch32(addr uint32) uint32

	// Peek16 and Peek32 read instructions for disassembly. They never
	// reach I/O registers and never log.
	Peek16(addr uint32) uint16
	Peek32(addr uint32) uint32
}

// Context is everything a handler may touch while executing one
// instruction. When Disasm is set the handler must describe the
// instruction into it and return without side effects.
type Context struct {
	Variant *Variant
	Regs    *RegFile
	Bus     Bus
	CP15    *CP15
	Latency *latency.Table
	Log     logr.Logger

	Disasm *Disassembly

	// cycles charged by memory accesses of the current instruction
	extra int
	// address of the instruction being executed
	addr uint32
}

func (c *Context) cost(f insts.Format) int {
	return int(c.Latency.GetLatency(f))
}

func (c *Context) thumbCost(f insts.Format) int {
	return int(c.Latency.GetThumbLatency(f))
}

func (c *Context) timing() *latency.TimingConfig {
	return c.Latency.Config()
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}

// unpredictable reports an architecturally unpredictable operation. The
// caller resolves it with a fixed policy.
func (c *Context) unpredictable(what string, kv ...any) {
	c.Log.Info("unpredictable "+what, append([]any{"pc", hex32(c.addr)}, kv...)...)
}

// unimplemented reports an opcode with no handler.
func (c *Context) unimplemented(op insts.Opcode) int {
	c.Log.Info("unimplemented opcode", "pc", hex32(c.addr), "opcode", hex32(uint32(op)),
		"thumb", c.Regs.Thumb())
	return 1
}

// unreachable reports a decode path the classifier should never produce.
func (c *Context) unreachable(op insts.Opcode) int {
	c.Log.Error(nil, "unreachable decode path", "pc", hex32(c.addr), "opcode", hex32(uint32(op)))
	return 1
}

func (c *Context) dataAccess(addr uint32, write bool) {
	if c.CP15 != nil {
		c.extra += c.CP15.dataAccess(addr, write)
	}
}

func (c *Context) load8(addr uint32) uint8 {
	c.dataAccess(addr, false)
	return c.Bus.Read8(addr)
}

func (c *Context) load16(addr uint32) uint16 {
	c.dataAccess(addr, false)
	return c.Bus.Read16(addr)
}

func (c *Context) load32(addr uint32) uint32 {
	c.dataAccess(addr, false)
	return c.Bus.Read32(addr)
}

func (c *Context) store8(addr uint32, v uint8) {
	c.dataAccess(addr, true)
	c.Bus.Write8(addr, v)
}

func (c *Context) store16(addr uint32, v uint16) {
	c.dataAccess(addr, true)
	c.Bus.Write16(addr, v)
}

func (c *Context) store32(addr uint32, v uint32) {
	c.dataAccess(addr, true)
	c.Bus.Write32(addr, v)
}

// loadWordRotated performs LDR/SWP: a misaligned word load returns the
// aligned word rotated so the addressed byte lands in bits 7..0.
func (c *Context) loadWordRotated(addr uint32) uint32 {
	v := c.load32(addr)
	return bits.RotateRight(v, uint(addr&3)*8)
}

// loadHalf performs LDRH. The ARM7 rotates a misaligned halfword; the ARM9
// ignores the low address bit.
func (c *Context) loadHalf(addr uint32) uint32 {
	v := uint32(c.load16(addr))
	if addr&1 != 0 && !c.Variant.IsARMv5() {
		v = bits.RotateRight(v, 8)
	}
	return v
}

// loadSignedHalf performs LDRSH. On the ARM7 a misaligned LDRSH loads the
// addressed byte sign-extended.
func (c *Context) loadSignedHalf(addr uint32) uint32 {
	if addr&1 != 0 && !c.Variant.IsARMv5() {
		return bits.SignExtend(uint32(c.load8(addr)), 8)
	}
	return bits.SignExtend(uint32(c.load16(addr)), 16)
}

// writePC writes an ALU result to R15, aligned for the current instruction
// set.
func (c *Context) writePC(v uint32) {
	if c.Regs.Thumb() {
		c.Regs.SetR(PC, v&^1)
		return
	}
	c.Regs.SetR(PC, v&^3)
}

// branchExchange jumps to v, selecting Thumb state from bit 0.
func (c *Context) branchExchange(v uint32) {
	thumb := v&1 != 0
	c.Regs.cpsr.SetT(thumb)
	if thumb {
		c.Regs.SetR(PC, v&^1)
		return
	}
	c.Regs.SetR(PC, v&^3)
}

// loadPC writes a loaded value to R15. Only the ARM9 interworks.
func (c *Context) loadPC(v uint32) {
	if c.Variant.Interworking {
		c.branchExchange(v)
		return
	}
	c.writePC(v)
}

// writeReg writes a data-processing result, treating R15 as a branch.
func (c *Context) writeReg(n int, v uint32) {
	if n == PC {
		c.writePC(v)
		return
	}
	c.Regs.SetR(n, v)
}

// restoreSPSR copies the current mode's SPSR into the CPSR, as done by
// exception returns.
func (c *Context) restoreSPSR() {
	spsr, ok := c.Regs.SPSR()
	if !ok {
		c.unpredictable("SPSR restore in USR/SYS mode", "mode", c.Regs.Mode().String())
		return
	}
	if !c.Regs.SetCPSR(spsr) {
		c.unpredictable("invalid mode in SPSR", "spsr", hex32(uint32(spsr)))
	}
}

// EnterException takes an exception: the return address goes into the
// target mode's LR, the CPSR is saved in its SPSR, Thumb is cleared, IRQs
// are disabled (FIQs too for FIQ and reset) and execution continues at the
// variant's vector.
func (c *Context) EnterException(e Exception, returnAddr uint32) {
	r := c.Regs
	r.SwitchMode(e.Mode(), true)
	r.r[LR] = returnAddr
	r.cpsr.SetT(false)
	r.cpsr.SetI(true)
	if e == ExceptionFIQ || e == ExceptionReset {
		r.cpsr.SetF(true)
	}
	r.SetR(PC, c.Variant.Vector(e))
}

// Disassembly receives the description of an instruction.
type Disassembly struct {
	Mnemonic string
	Operands string
}

func (d *Disassembly) set(mnemonic, format string, args ...any) {
	d.Mnemonic = mnemonic
	d.Operands = fmt.Sprintf(format, args...)
}

func (d *Disassembly) String() string {
	if d.Operands == "" {
		return d.Mnemonic
	}
	return d.Mnemonic + " " + d.Operands
}

var regNames = [16]string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7",
	"R8", "R9", "R10", "R11", "R12", "SP", "LR", "PC",
}

func regName(n int) string {
	return regNames[n&15]
}

// regList formats a register list bitmap as "{R0-R3, LR}".
func regList(list uint32) string {
	out := "{"
	first := true
	for n := 0; n < 16; n++ {
		if list&(1<<n) == 0 {
			continue
		}
		end := n
		for end+1 < 16 && list&(1<<(end+1)) != 0 && end+1 < SP {
			end++
		}
		if !first {
			out += ", "
		}
		first = false
		out += regName(n)
		if end > n {
			out += "-" + regName(end)
		}
		n = end
	}
	return out + "}"
}
