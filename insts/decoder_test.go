package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/insts"
)

var _ = Describe("Decoder", func() {
	var (
		v5 *insts.Decoder
		v4 *insts.Decoder
	)

	BeforeEach(func() {
		v5 = insts.NewDecoder(insts.ARMv5)
		v4 = insts.NewDecoder(insts.ARMv4)
	})

	Describe("ARM classification", func() {
		DescribeTable("formats shared by both revisions",
			func(word uint32, format insts.Format) {
				Expect(v5.DecodeARM(insts.Opcode(word))).To(Equal(format))
				Expect(v4.DecodeARM(insts.Opcode(word))).To(Equal(format))
			},
			Entry("ADDS R0, R1, R2", uint32(0xE0910002), insts.FormatDataProc),
			Entry("MOV R0, #0xFF", uint32(0xE3A000FF), insts.FormatDataProc),
			Entry("MOV R0, R1, LSL R2", uint32(0xE1A00211), insts.FormatDataProc),
			Entry("MUL R0, R1, R2", uint32(0xE0000291), insts.FormatMultiply),
			Entry("UMULL R0, R1, R2, R3", uint32(0xE0810392), insts.FormatMultiplyLong),
			Entry("SWP R0, R2, [R1]", uint32(0xE1010092), insts.FormatSwap),
			Entry("LDRH R0, [R1, #4]", uint32(0xE1D100B4), insts.FormatHalfword),
			Entry("MRS R0, CPSR", uint32(0xE10F0000), insts.FormatPSR),
			Entry("MSR CPSR_fc, R0", uint32(0xE129F000), insts.FormatPSR),
			Entry("MSR CPSR_f, #imm", uint32(0xE328F20F), insts.FormatPSR),
			Entry("BX R1", uint32(0xE12FFF11), insts.FormatBX),
			Entry("LDR R0, [R1, #4]", uint32(0xE5910004), insts.FormatLoadStore),
			Entry("LDR R0, [R1, R2]", uint32(0xE7910002), insts.FormatLoadStore),
			Entry("undefined media space", uint32(0xE7F000F0), insts.FormatUndefined),
			Entry("LDMIA SP!, {R0-R3}", uint32(0xE8BD000F), insts.FormatBlock),
			Entry("B", uint32(0xEA000000), insts.FormatBranch),
			Entry("BL", uint32(0xEB000000), insts.FormatBranch),
			Entry("SWI #0", uint32(0xEF000000), insts.FormatSWI),
			Entry("MCR p15, 0, R0, c7, c10, 4", uint32(0xEE070F9A), insts.FormatCoprocRegister),
			Entry("CDP", uint32(0xEE000000), insts.FormatCoprocData),
			Entry("LDC", uint32(0xED900000), insts.FormatCoprocTransfer),
		)

		DescribeTable("ARMv5 additions",
			func(word uint32, format insts.Format) {
				Expect(v5.DecodeARM(insts.Opcode(word))).To(Equal(format))
				Expect(v4.DecodeARM(insts.Opcode(word))).NotTo(Equal(format))
			},
			Entry("BLX R1", uint32(0xE12FFF31), insts.FormatBLXReg),
			Entry("CLZ R0, R1", uint32(0xE16F0F11), insts.FormatCLZ),
			Entry("QADD R0, R1, R2", uint32(0xE1020051), insts.FormatQArith),
			Entry("BKPT #0", uint32(0xE1200070), insts.FormatBKPT),
			Entry("SMULBB R0, R1, R2", uint32(0xE1600281), insts.FormatDSPMultiply),
			Entry("BLX #imm", uint32(0xFA000000), insts.FormatBLXImm),
			Entry("PLD [R1]", uint32(0xF5D1F000), insts.FormatPLD),
		)

		It("should treat condition 0b1111 as a normal instruction on ARMv4", func() {
			Expect(v4.DecodeARM(insts.Opcode(0xFA000000))).To(Equal(insts.FormatBranch))
		})

		It("should name formats", func() {
			Expect(insts.FormatSwap.ARMName()).To(Equal("swap"))
		})
	})

	Describe("Thumb classification", func() {
		DescribeTable("formats shared by both revisions",
			func(half uint16, format insts.Format) {
				Expect(v5.DecodeThumb(insts.Opcode(half))).To(Equal(format))
				Expect(v4.DecodeThumb(insts.Opcode(half))).To(Equal(format))
			},
			Entry("LSL R0, R1, #2", uint16(0x0088), insts.ThumbShiftImm),
			Entry("ADD R0, R1, R2", uint16(0x1888), insts.ThumbAddSub),
			Entry("MOV R0, #0xFF", uint16(0x20FF), insts.ThumbImm8),
			Entry("EOR R0, R1", uint16(0x4048), insts.ThumbALU),
			Entry("BX R1", uint16(0x4708), insts.ThumbHiReg),
			Entry("LDR R0, [PC, #4]", uint16(0x4801), insts.ThumbPCLoad),
			Entry("STR R0, [R1, R2]", uint16(0x5088), insts.ThumbLoadStoreReg),
			Entry("LDRSH R0, [R1, R2]", uint16(0x5E88), insts.ThumbLoadStoreSign),
			Entry("LDR R0, [R1, #4]", uint16(0x6848), insts.ThumbLoadStoreImm),
			Entry("LDRH R0, [R1, #4]", uint16(0x8888), insts.ThumbLoadStoreHalf),
			Entry("LDR R0, [SP, #4]", uint16(0x9801), insts.ThumbSPLoadStore),
			Entry("ADD R0, PC, #4", uint16(0xA001), insts.ThumbLoadAddress),
			Entry("SUB SP, #8", uint16(0xB082), insts.ThumbSPAdjust),
			Entry("PUSH {LR}", uint16(0xB500), insts.ThumbPushPop),
			Entry("POP {PC}", uint16(0xBD00), insts.ThumbPushPop),
			Entry("STMIA R1!, {R0, R1}", uint16(0xC103), insts.ThumbBlock),
			Entry("BEQ", uint16(0xD0FE), insts.ThumbCondBranch),
			Entry("SWI #0", uint16(0xDF00), insts.ThumbSWI),
			Entry("undefined conditional", uint16(0xDE00), insts.ThumbUndefined),
			Entry("B", uint16(0xE7FE), insts.ThumbBranch),
			Entry("BL prefix", uint16(0xF000), insts.ThumbBLPrefix),
			Entry("BL suffix", uint16(0xF800), insts.ThumbBLSuffix),
		)

		It("should only accept BKPT and BLX suffix on ARMv5", func() {
			Expect(v5.DecodeThumb(insts.Opcode(0xBE00))).To(Equal(insts.ThumbBKPT))
			Expect(v4.DecodeThumb(insts.Opcode(0xBE00))).To(Equal(insts.ThumbUndefined))
			Expect(v5.DecodeThumb(insts.Opcode(0xE800))).To(Equal(insts.ThumbBLXSuffix))
			Expect(v4.DecodeThumb(insts.Opcode(0xE800))).To(Equal(insts.ThumbUndefined))
		})
	})
})
