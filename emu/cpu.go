package emu

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/ndsim/insts"
	"github.com/sarchlab/ndsim/timing/latency"
)

// InterruptLine is the CPU's view of its interrupt controller.
type InterruptLine interface {
	// IsRequestingInterrupt reports a pending, enabled interrupt with the
	// master enable set.
	IsRequestingInterrupt() bool
	// IsRequestingWake reports an interrupt that ends a halt.
	IsRequestingWake() bool
}

// StepResult describes one call to Step.
type StepResult struct {
	// PC is the address of the instruction that was executed.
	PC uint32
	// Opcode is the raw instruction (Thumb opcodes in the low 16 bits).
	Opcode insts.Opcode
	// Thumb reports the instruction set the instruction was fetched in.
	Thumb bool
	// Cycles is the cost of the step.
	Cycles int
	// Halted is true if the CPU was halted and executed nothing.
	Halted bool
	// Interrupted is true if an IRQ was taken at the end of the step.
	Interrupted bool
}

type armHandler func(c *Context, op insts.Opcode) int

// CPU is one ARM core: register file, halt flag and the dispatch tables.
type CPU struct {
	ctx Context

	decoder *insts.Decoder
	arm     [insts.NumARMFormats]armHandler
	thumb   [insts.NumThumbFormats]armHandler

	irq    InterruptLine
	tcm    TCMMapper
	halted bool

	cycles       uint64
	instructions uint64

	last StepResult
}

// CPUOption is a functional option for configuring the CPU.
type CPUOption func(*CPU)

// WithLogger sets the logger anomalies are reported to.
func WithLogger(log logr.Logger) CPUOption {
	return func(c *CPU) {
		c.ctx.Log = log
	}
}

// WithInterruptLine connects the CPU to its interrupt controller.
func WithInterruptLine(irq InterruptLine) CPUOption {
	return func(c *CPU) {
		c.irq = irq
	}
}

// WithLatencyTable sets the cycle cost model.
func WithLatencyTable(t *latency.Table) CPUOption {
	return func(c *CPU) {
		c.ctx.Latency = t
	}
}

// WithTCMMapper sets the receiver of CP15 TCM configuration changes. It
// has no effect on a variant without CP15.
func WithTCMMapper(m TCMMapper) CPUOption {
	return func(c *CPU) {
		c.tcm = m
	}
}

// NewCPU creates a CPU of the given variant on a bus.
func NewCPU(variant Variant, bus Bus, opts ...CPUOption) *CPU {
	v := variant
	c := &CPU{
		decoder: insts.NewDecoder(v.Arch),
	}
	c.ctx = Context{
		Variant: &v,
		Regs:    NewRegFile(),
		Bus:     bus,
		Latency: latency.NewTable(),
		Log:     logr.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if v.HasCP15 {
		c.ctx.CP15 = NewCP15(c.tcm, c.ctx.Latency.Config(), c.ctx.Log.WithName("cp15"))
		c.ctx.CP15.halt = c.Halt
	}

	c.arm = armTable()
	c.thumb = thumbTable()

	return c
}

// Variant returns the CPU variant.
func (c *CPU) Variant() *Variant {
	return c.ctx.Variant
}

// Regs returns the register file for inspection and editing.
func (c *CPU) Regs() *RegFile {
	return c.ctx.Regs
}

// CP15 returns the system control coprocessor, or nil for the CPU7.
func (c *CPU) CP15() *CP15 {
	return c.ctx.CP15
}

// Bus returns the CPU's bus.
func (c *CPU) Bus() Bus {
	return c.ctx.Bus
}

// Reset restores the power-on state: registers cleared, SVC mode, PC at
// the reset vector and the CPU running.
func (c *CPU) Reset() {
	c.ctx.Regs.Reset()
	c.ctx.Regs.SetPC(c.ctx.Variant.Vector(ExceptionReset))
	if c.ctx.CP15 != nil {
		c.ctx.CP15.Reset()
	}
	c.halted = false
	c.cycles = 0
	c.instructions = 0
	c.last = StepResult{}
}

// Halt stops instruction execution until an interrupt wakes the CPU.
func (c *CPU) Halt() {
	c.halted = true
}

// Halted reports whether the CPU is halted.
func (c *CPU) Halted() bool {
	return c.halted
}

// Cycles returns the number of cycles elapsed since reset.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// InstructionCount returns the number of instructions executed since reset,
// including those whose condition failed.
func (c *CPU) InstructionCount() uint64 {
	return c.instructions
}

// Clock advances the CPU by one instruction, or by one idle cycle while
// halted, and returns the number of cycles elapsed.
func (c *CPU) Clock() int {
	c.last = StepResult{PC: c.ctx.Regs.PC(), Thumb: c.ctx.Regs.Thumb()}

	if c.halted {
		if c.irq == nil || !c.irq.IsRequestingWake() {
			c.last.Halted = true
			c.last.Cycles = 1
			c.cycles++
			return 1
		}
		c.halted = false

		cycles := 1
		if c.irqPending() {
			cycles += c.serviceIRQ()
			c.last.Interrupted = true
		}
		c.last.Cycles = cycles
		c.cycles += uint64(cycles)
		return cycles
	}

	cycles := c.execute()

	if c.irqPending() {
		cycles += c.serviceIRQ()
		c.last.Interrupted = true
	}

	c.last.Cycles = cycles
	c.cycles += uint64(cycles)
	return cycles
}

// Step runs one Clock and describes what happened.
func (c *CPU) Step() StepResult {
	c.Clock()
	return c.last
}

func (c *CPU) irqPending() bool {
	return c.irq != nil && c.irq.IsRequestingInterrupt() && !c.ctx.Regs.cpsr.I()
}

// serviceIRQ enters the IRQ exception. The return address is the next
// instruction plus 4, so handlers return with SUBS PC, LR, #4.
func (c *CPU) serviceIRQ() int {
	next := c.ctx.Regs.PC()
	c.ctx.EnterException(ExceptionIRQ, next+4)
	c.ctx.Regs.ClearPCWritten()
	return int(c.ctx.timing().PipelineRefillPenalty) + 1
}

func (c *CPU) fetchCost(addr uint32) int {
	if c.ctx.CP15 == nil {
		return 0
	}
	return c.ctx.CP15.fetchAccess(addr)
}

// execute fetches, checks the condition, dispatches and advances the PC.
func (c *CPU) execute() int {
	ctx := &c.ctx
	r := ctx.Regs
	pc := r.PC()

	r.ClearPCWritten()
	ctx.extra = c.fetchCost(pc)
	ctx.addr = pc
	c.instructions++

	var cycles int
	var width uint32

	if r.Thumb() {
		op := insts.Opcode(ctx.Bus.Fetch16(pc))
		c.last.Opcode = op
		width = 2
		cycles = c.thumb[c.decoder.DecodeThumb(op)](ctx, op)
	} else {
		op := insts.Opcode(ctx.Bus.Fetch32(pc))
		c.last.Opcode = op
		width = 4

		cond := op.Cond()
		if cond == insts.CondNV && !ctx.Variant.IsARMv5() {
			ctx.unpredictable("condition 0b1111", "opcode", hex32(uint32(op)))
		}

		p := r.cpsr
		if !cond.Holds(p.N(), p.Z(), p.C(), p.V()) {
			r.r[PC] = pc + width
			return int(ctx.timing().ConditionFailedLatency) + ctx.extra
		}

		cycles = c.arm[c.decoder.DecodeARM(op)](ctx, op)
	}

	if r.PCWritten() {
		cycles += int(ctx.timing().PipelineRefillPenalty)
		r.ClearPCWritten()
	} else {
		r.r[PC] = pc + width
	}

	return cycles + ctx.extra
}

// Disassemble describes the instruction at addr without executing it. The
// instruction set is the CPU's current one. No register, memory or log
// state is touched.
func (c *CPU) Disassemble(addr uint32) string {
	return c.DisassembleAs(addr, c.ctx.Regs.Thumb())
}

// DisassembleAs describes the instruction at addr in the given instruction
// set.
func (c *CPU) DisassembleAs(addr uint32, thumb bool) string {
	regs := *c.ctx.Regs
	regs.r[PC] = addr
	regs.cpsr.SetT(thumb)

	ctx := c.ctx
	ctx.Regs = &regs
	ctx.CP15 = nil
	ctx.Log = logr.Discard()
	ctx.Disasm = &Disassembly{}
	ctx.addr = addr

	if thumb {
		op := insts.Opcode(ctx.Bus.Peek16(addr))
		c.thumb[c.decoder.DecodeThumb(op)](&ctx, op)
	} else {
		op := insts.Opcode(ctx.Bus.Peek32(addr))
		c.arm[c.decoder.DecodeARM(op)](&ctx, op)
	}

	return ctx.Disasm.String()
}
