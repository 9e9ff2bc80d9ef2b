// Package script drives a machine from Lua. Scripts select a CPU with 9 or
// 7 and use the functions below:
//
//	run(ticks)              advance the machine
//	frame([n])              run to the start of the next n frames
//	step(cpu)               execute one instruction, returns its address
//	reg(cpu, n)             read a register of the current mode
//	setreg(cpu, n, v)       write a register
//	cpsr(cpu)               read the CPSR
//	read8/16/32(cpu, addr)  read through the CPU's bus
//	write8/16/32(cpu, a, v) write through the CPU's bus
//	disasm(cpu[, addr])     disassemble at addr or the PC
//	halted(cpu)             report whether the CPU is halted
//	stats()                 table of machine counters
package script

import (
	"fmt"
	"io"

	lua "github.com/yuin/gopher-lua"

	"github.com/sarchlab/ndsim/emu"
	"github.com/sarchlab/ndsim/machine"
	"github.com/sarchlab/ndsim/mem"
)

// Engine is a Lua state bound to one machine.
type Engine struct {
	m   *machine.Machine
	L   *lua.LState
	out io.Writer
}

// New creates an engine. print writes to out.
func New(m *machine.Machine, out io.Writer) *Engine {
	e := &Engine{
		m:   m,
		L:   lua.NewState(),
		out: out,
	}
	e.register()
	return e
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.L.Close()
}

// Run executes a chunk of Lua source.
func (e *Engine) Run(src string) error {
	if err := e.L.DoString(src); err != nil {
		return fmt.Errorf("script error: %w", err)
	}
	return nil
}

// RunFile executes a Lua file.
func (e *Engine) RunFile(path string) error {
	if err := e.L.DoFile(path); err != nil {
		return fmt.Errorf("script error: %w", err)
	}
	return nil
}

func (e *Engine) register() {
	funcs := map[string]lua.LGFunction{
		"print":   e.print,
		"run":     e.run,
		"frame":   e.frame,
		"step":    e.step,
		"reg":     e.reg,
		"setreg":  e.setReg,
		"cpsr":    e.cpsr,
		"read8":   e.read(1),
		"read16":  e.read(2),
		"read32":  e.read(4),
		"write8":  e.write(1),
		"write16": e.write(2),
		"write32": e.write(4),
		"disasm":  e.disasm,
		"halted":  e.halted,
		"stats":   e.stats,
	}
	for name, fn := range funcs {
		e.L.SetGlobal(name, e.L.NewFunction(fn))
	}
}

// cpu resolves the CPU selector argument at position n.
func (e *Engine) cpu(L *lua.LState, n int) (*emu.CPU, *mem.Bus) {
	switch L.CheckInt(n) {
	case 9:
		return e.m.CPU9, e.m.Bus9
	case 7:
		return e.m.CPU7, e.m.Bus7
	}
	L.ArgError(n, "cpu must be 9 or 7")
	return nil, nil
}

func checkU32(L *lua.LState, n int) uint32 {
	return uint32(L.CheckInt64(n))
}

func (e *Engine) print(L *lua.LState) int {
	top := L.GetTop()
	for i := 1; i <= top; i++ {
		if i > 1 {
			fmt.Fprint(e.out, "\t")
		}
		fmt.Fprint(e.out, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(e.out)
	return 0
}

func (e *Engine) run(L *lua.LState) int {
	e.m.Run(uint64(L.CheckInt64(1)))
	return 0
}

func (e *Engine) frame(L *lua.LState) int {
	n := L.OptInt(1, 1)
	for i := 0; i < n; i++ {
		e.m.RunFrame()
	}
	return 0
}

func (e *Engine) step(L *lua.LState) int {
	cpu, _ := e.cpu(L, 1)
	res := cpu.Step()
	L.Push(lua.LNumber(res.PC))
	return 1
}

func (e *Engine) reg(L *lua.LState) int {
	cpu, _ := e.cpu(L, 1)
	n := L.CheckInt(2)
	if n < 0 || n > emu.PC {
		L.ArgError(2, "register out of range")
	}
	L.Push(lua.LNumber(cpu.Regs().R(n)))
	return 1
}

func (e *Engine) setReg(L *lua.LState) int {
	cpu, _ := e.cpu(L, 1)
	n := L.CheckInt(2)
	if n < 0 || n > emu.PC {
		L.ArgError(2, "register out of range")
	}
	cpu.Regs().SetR(n, checkU32(L, 3))
	return 0
}

func (e *Engine) cpsr(L *lua.LState) int {
	cpu, _ := e.cpu(L, 1)
	L.Push(lua.LNumber(uint32(cpu.Regs().CPSR())))
	return 1
}

func (e *Engine) read(size int) lua.LGFunction {
	return func(L *lua.LState) int {
		_, bus := e.cpu(L, 1)
		addr := checkU32(L, 2)
		var v uint32
		switch size {
		case 1:
			v = uint32(bus.Read8(addr))
		case 2:
			v = uint32(bus.Read16(addr))
		default:
			v = bus.Read32(addr)
		}
		L.Push(lua.LNumber(v))
		return 1
	}
}

func (e *Engine) write(size int) lua.LGFunction {
	return func(L *lua.LState) int {
		_, bus := e.cpu(L, 1)
		addr, v := checkU32(L, 2), checkU32(L, 3)
		switch size {
		case 1:
			bus.Write8(addr, uint8(v))
		case 2:
			bus.Write16(addr, uint16(v))
		default:
			bus.Write32(addr, v)
		}
		return 0
	}
}

func (e *Engine) disasm(L *lua.LState) int {
	cpu, _ := e.cpu(L, 1)
	addr := cpu.Regs().PC()
	if L.GetTop() >= 2 {
		addr = checkU32(L, 2)
	}
	L.Push(lua.LString(cpu.Disassemble(addr)))
	return 1
}

func (e *Engine) halted(L *lua.LState) int {
	cpu, _ := e.cpu(L, 1)
	L.Push(lua.LBool(cpu.Halted()))
	return 1
}

func (e *Engine) stats(L *lua.LState) int {
	s := e.m.Stats()
	t := L.NewTable()
	for k, v := range map[string]uint64{
		"ticks":             s.Ticks,
		"frames":            s.Frames,
		"cpu9_cycles":       s.CPU9.Cycles,
		"cpu9_instructions": s.CPU9.Instructions,
		"cpu7_cycles":       s.CPU7.Cycles,
		"cpu7_instructions": s.CPU7.Instructions,
		"dma_units":         s.DMAUnits,
		"timer_overflows":   s.TimerOverflows,
		"invalid_accesses":  s.InvalidAccesses,
		"icache_misses":     s.ICache.Misses,
		"dcache_misses":     s.DCache.Misses,
	} {
		t.RawSetString(k, lua.LNumber(v))
	}
	L.Push(t)
	return 1
}
