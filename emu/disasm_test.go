package emu_test

import (
	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/emu"
)

var _ = Describe("Disassemble", func() {
	var (
		bus   *testBus
		cpu   *emu.CPU
		lines []string
	)

	BeforeEach(func() {
		lines = nil
		log := funcr.New(func(_, args string) {
			lines = append(lines, args)
		}, funcr.Options{})

		bus = newTestBus()
		cpu = emu.NewCPU(emu.CPU9, bus, emu.WithLogger(log))
		cpu.Reset()
		cpu.Regs().SetPC(0x1000)
	})

	DescribeTable("ARM instructions",
		func(op uint32, want string) {
			bus.program(0x1000, op)
			Expect(cpu.Disassemble(0x1000)).To(Equal(want))
		},
		Entry("data processing", uint32(0xE0910002), "ADDS R0, R1, R2"),
		Entry("conditional move", uint32(0x03A00001), "MOVEQ R0, #0x1"),
		Entry("shifted operand", uint32(0xE1A00101), "MOV R0, R1, LSL #2"),
		Entry("compare", uint32(0xE3500005), "CMP R0, #0x5"),
		Entry("branch", uint32(0xEA000002), "B 0x00001010"),
		Entry("load", uint32(0xE5910004), "LDR R0, [R1, #0x4]"),
		Entry("post-indexed load", uint32(0xE4910004), "LDR R0, [R1], #0x4"),
		Entry("push", uint32(0xE92D4003), "STMDB SP!, {R0-R1, LR}"),
		Entry("branch exchange", uint32(0xE12FFF10), "BX R0"),
		Entry("status read", uint32(0xE10F0000), "MRS R0, CPSR"),
		Entry("status write", uint32(0xE321F01F), "MSR CPSR_c, #0x1F"),
		Entry("multiply", uint32(0xE0100291), "MULS R0, R1, R2"),
		Entry("coprocessor", uint32(0xEE100F10), "MRC p15, 0, R0, c0, c0, 0"),
		Entry("software interrupt", uint32(0xEF000010), "SWI #0x10"),
		Entry("undefined", uint32(0xE7F000F0), "UND 0xE7F000F0"),
	)

	DescribeTable("Thumb instructions",
		func(op uint16, want string) {
			bus.thumbProgram(0x1000, op)
			Expect(cpu.DisassembleAs(0x1000, true)).To(Equal(want))
		},
		Entry("move immediate", uint16(0x2042), "MOVS R0, #0x42"),
		Entry("add registers", uint16(0x1888), "ADDS R0, R1, R2"),
		Entry("push", uint16(0xB501), "PUSH {R0, LR}"),
		Entry("pop", uint16(0xBD01), "POP {R0, PC}"),
		Entry("high move", uint16(0x4680), "MOV R8, R0"),
		Entry("conditional branch", uint16(0xD002), "BEQ 0x00001008"),
	)

	It("should not change state or log", func() {
		bus.program(0x1000, 0xEF000000, 0xE7F000F0)
		before := *cpu.Regs()

		cpu.Disassemble(0x1000)
		cpu.Disassemble(0x1004)

		Expect(*cpu.Regs()).To(Equal(before))
		Expect(cpu.InstructionCount()).To(BeZero())
		Expect(lines).To(BeEmpty())
	})
})
