package machine

import (
	"fmt"

	"github.com/sarchlab/ndsim/emu"
	"github.com/sarchlab/ndsim/loader"
	"github.com/sarchlab/ndsim/mem"
)

// Direct boot memory layout.
const (
	HeaderAddr = 0x027FFE00
	ChipIDAddr = 0x027FF800
	ChipID     = 0x00001FC2

	DTCMBase = 0x027C0000

	// CP15 region values: DTCM at DTCMBase with a 16K virtual size, ITCM
	// with a 32M virtual size mirrored from address 0.
	dtcmRegion = DTCMBase | 0x0A
	itcmRegion = 0x20
)

type stacks struct {
	svc, irq, sys uint32
}

var (
	stacks9 = stacks{svc: DTCMBase + 0x3FC0, irq: DTCMBase + 0x3FA0, sys: DTCMBase + 0x3EC0}
	stacks7 = stacks{svc: 0x0380FFDC, irq: 0x0380FFB0, sys: 0x0380FF00}
)

// DirectBoot resets the machine and starts a cartridge image the way the
// firmware leaves it: both binaries copied to their load addresses, the
// header in main RAM, shared WRAM given to the CPU7, TCMs enabled and both
// CPUs in SYS mode at their entry points.
func (m *Machine) DirectBoot(rom *loader.ROM) error {
	h := rom.Header
	arm9, err := loader.Section(rom.Data, h.ARM9)
	if err != nil {
		return fmt.Errorf("failed to locate ARM9 binary: %w", err)
	}
	arm7, err := loader.Section(rom.Data, h.ARM7)
	if err != nil {
		return fmt.Errorf("failed to locate ARM7 binary: %w", err)
	}

	m.Reset()
	m.prepareBoot()

	m.Bus9.Load(h.ARM9.LoadAddr, arm9)
	m.Bus7.Load(h.ARM7.LoadAddr, arm7)
	m.Bus9.Load(HeaderAddr, loader.HeaderBlock(rom.Data))

	m.startCPU(m.CPU9, stacks9, h.ARM9.Entry)
	m.startCPU(m.CPU7, stacks7, h.ARM7.Entry)

	m.log.V(1).Info("direct boot",
		"title", h.Title,
		"code", h.GameCode,
		"arm9Entry", fmt.Sprintf("0x%08X", h.ARM9.Entry),
		"arm7Entry", fmt.Sprintf("0x%08X", h.ARM7.Entry))

	return nil
}

// BootELF resets the machine and starts a bare-metal CPU9 program. The
// CPU7 stays in its BIOS reset loop.
func (m *Machine) BootELF(prog *loader.Program) error {
	m.Reset()
	m.prepareBoot()

	for _, seg := range prog.Segments {
		if uint32(len(seg.Data)) > seg.MemSize {
			return fmt.Errorf("segment at 0x%08X: file size exceeds memory size", seg.Addr)
		}
		image := make([]byte, seg.MemSize)
		copy(image, seg.Data)
		m.Bus9.Load(seg.Addr, image)
	}

	m.startCPU(m.CPU9, stacks9, prog.EntryPoint)

	m.log.V(1).Info("ELF boot",
		"entry", fmt.Sprintf("0x%08X", prog.EntryPoint),
		"segments", len(prog.Segments))

	return nil
}

func (m *Machine) prepareBoot() {
	for _, addr := range []uint32{ChipIDAddr, ChipIDAddr + 4, 0x027FFC00, 0x027FFC04} {
		m.Bus9.Write32(addr, ChipID)
	}

	m.Shared.SetWRAMCnt(mem.WRAMAll7)
	m.Bus9.Write8(mem.AddrPostFlg, 1)
	m.Bus7.Write8(mem.AddrPostFlg, 1)

	p := m.CPU9.CP15()
	p.Write(0, 9, 1, 0, dtcmRegion)
	p.Write(0, 9, 1, 1, itcmRegion)

	control := p.Control() | emu.ControlDTCM | emu.ControlITCM
	if m.config.Caches {
		control |= emu.ControlICache | emu.ControlDCache
	}
	p.Write(0, 1, 0, 0, control)
}

func (m *Machine) startCPU(cpu *emu.CPU, s stacks, entry uint32) {
	r := cpu.Regs()

	for _, ms := range []struct {
		mode emu.Mode
		sp   uint32
	}{
		{emu.ModeSVC, s.svc},
		{emu.ModeIRQ, s.irq},
		{emu.ModeSYS, s.sys},
	} {
		r.SwitchMode(ms.mode, false)
		r.SetR(emu.SP, ms.sp)
	}

	psr := emu.PSR(emu.ModeSYS)
	psr.SetT(entry&1 != 0)
	r.SetCPSR(psr)
	r.SetR(emu.LR, entry)
	r.SetPC(entry &^ 1)
}
