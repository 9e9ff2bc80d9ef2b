package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/emu"
)

var _ = Describe("Thumb", func() {
	var (
		bus *testBus
		cpu *emu.CPU
	)

	newCPU := func(v emu.Variant) {
		bus = newTestBus()
		cpu = emu.NewCPU(v, bus)
		cpu.Reset()
		cpu.Regs().SetPC(0x1000)
		cpu.Regs().Flags().SetT(true)
	}

	BeforeEach(func() {
		newCPU(emu.CPU7)
	})

	It("should advance the PC by 2", func() {
		bus.thumbProgram(0x1000, 0x2042) // MOVS R0, #0x42

		cpu.Clock()

		Expect(cpu.Regs().R(0)).To(Equal(uint32(0x42)))
		Expect(cpu.Regs().PC()).To(Equal(uint32(0x1002)))
	})

	It("should add registers and set the flags", func() {
		bus.thumbProgram(0x1000, 0x1888) // ADDS R0, R1, R2
		cpu.Regs().SetR(1, 0xFFFFFFFF)
		cpu.Regs().SetR(2, 1)

		cpu.Clock()

		Expect(cpu.Regs().R(0)).To(BeZero())
		Expect(cpu.Regs().CPSR().Z()).To(BeTrue())
		Expect(cpu.Regs().CPSR().C()).To(BeTrue())
	})

	It("should shift by an immediate", func() {
		bus.thumbProgram(0x1000, 0x0108) // LSLS R0, R1, #4
		cpu.Regs().SetR(1, 0x10000001)

		cpu.Clock()

		Expect(cpu.Regs().R(0)).To(Equal(uint32(0x00000010)))
		Expect(cpu.Regs().CPSR().C()).To(BeTrue())
	})

	It("should negate and multiply", func() {
		bus.thumbProgram(0x1000, 0x4248, 0x4348) // NEGS R0, R1; MULS R0, R1
		cpu.Regs().SetR(1, 3)

		cpu.Clock()
		Expect(cpu.Regs().R(0)).To(Equal(uint32(0xFFFFFFFD)))
		Expect(cpu.Regs().CPSR().N()).To(BeTrue())

		cpu.Clock()
		Expect(cpu.Regs().R(0)).To(Equal(uint32(0xFFFFFFF7)))
	})

	It("should move into a high register", func() {
		bus.thumbProgram(0x1000, 0x4680) // MOV R8, R0
		cpu.Regs().SetR(0, 99)

		cpu.Clock()

		Expect(cpu.Regs().R(8)).To(Equal(uint32(99)))
	})

	It("should take a conditional branch", func() {
		bus.thumbProgram(0x1000, 0x2805, 0xD002) // CMP R0, #5; BEQ +4
		cpu.Regs().SetR(0, 5)

		cpu.Clock()
		cpu.Clock()

		Expect(cpu.Regs().PC()).To(Equal(uint32(0x100A)))
	})

	It("should fall through a failed conditional branch", func() {
		bus.thumbProgram(0x1000, 0xD002) // BEQ +4

		cpu.Clock()

		Expect(cpu.Regs().PC()).To(Equal(uint32(0x1002)))
	})

	It("should branch with link across the two halves", func() {
		bus.thumbProgram(0x1000, 0xF000, 0xF802) // BL +4

		cpu.Clock()
		Expect(cpu.Regs().R(emu.LR)).To(Equal(uint32(0x1004)))

		cpu.Clock()
		Expect(cpu.Regs().PC()).To(Equal(uint32(0x1008)))
		Expect(cpu.Regs().R(emu.LR)).To(Equal(uint32(0x1005)))
		Expect(cpu.Regs().Thumb()).To(BeTrue())
	})

	It("should load PC-relative from a word-aligned base", func() {
		bus.thumbProgram(0x1002, 0x4801) // LDR R0, [PC, #4]
		bus.Write32(0x1008, 0xCAFEF00D)
		cpu.Regs().SetPC(0x1002)

		cpu.Clock()

		Expect(cpu.Regs().R(0)).To(Equal(uint32(0xCAFEF00D)))
	})

	It("should push and pop", func() {
		bus.thumbProgram(0x1000, 0xB501, 0xBD01) // PUSH {R0, LR}; POP {R0, PC}
		r := cpu.Regs()
		r.SetR(emu.SP, 0x3000)
		r.SetR(0, 7)
		r.SetR(emu.LR, 0x2001)

		cpu.Clock()
		Expect(r.R(emu.SP)).To(Equal(uint32(0x2FF8)))
		Expect(bus.Read32(0x2FF8)).To(Equal(uint32(7)))
		Expect(bus.Read32(0x2FFC)).To(Equal(uint32(0x2001)))

		r.SetR(0, 0)
		cpu.Clock()
		Expect(r.R(0)).To(Equal(uint32(7)))
		Expect(r.R(emu.SP)).To(Equal(uint32(0x3000)))
		Expect(r.PC()).To(Equal(uint32(0x2000)))
		Expect(r.Thumb()).To(BeTrue())
	})

	It("should return to ARM state with POP {PC} on the CPU9", func() {
		newCPU(emu.CPU9)
		bus.thumbProgram(0x1000, 0xBD00) // POP {PC}
		cpu.Regs().SetR(emu.SP, 0x3000)
		bus.Write32(0x3000, 0x2000)

		cpu.Clock()

		Expect(cpu.Regs().PC()).To(Equal(uint32(0x2000)))
		Expect(cpu.Regs().Thumb()).To(BeFalse())
	})

	It("should store multiple with writeback", func() {
		bus.thumbProgram(0x1000, 0xC006) // STMIA R0!, {R1, R2}
		r := cpu.Regs()
		r.SetR(0, 0x2000)
		r.SetR(1, 1)
		r.SetR(2, 2)

		cpu.Clock()

		Expect(bus.Read32(0x2000)).To(Equal(uint32(1)))
		Expect(bus.Read32(0x2004)).To(Equal(uint32(2)))
		Expect(r.R(0)).To(Equal(uint32(0x2008)))
	})

	It("should adjust SP", func() {
		bus.thumbProgram(0x1000, 0xB082) // SUB SP, #8
		cpu.Regs().SetR(emu.SP, 0x3000)

		cpu.Clock()

		Expect(cpu.Regs().R(emu.SP)).To(Equal(uint32(0x2FF8)))
	})

	It("should exchange to ARM with BX", func() {
		bus.thumbProgram(0x1000, 0x4708) // BX R1
		cpu.Regs().SetR(1, 0x2000)

		cpu.Clock()

		Expect(cpu.Regs().Thumb()).To(BeFalse())
		Expect(cpu.Regs().PC()).To(Equal(uint32(0x2000)))
	})

	It("should enter SVC in ARM state on SWI", func() {
		bus.thumbProgram(0x1000, 0xDF05) // SWI #5

		cpu.Clock()

		Expect(cpu.Regs().Mode()).To(Equal(emu.ModeSVC))
		Expect(cpu.Regs().Thumb()).To(BeFalse())
		Expect(cpu.Regs().R(emu.LR)).To(Equal(uint32(0x1002)))
		Expect(cpu.Regs().PC()).To(Equal(uint32(0x08)))
		spsr, _ := cpu.Regs().SPSR()
		Expect(spsr.T()).To(BeTrue())
	})
})
