package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/emu"
	"github.com/sarchlab/ndsim/insts"
)

var _ = Describe("Shifter", func() {
	const v = 0x80000001

	DescribeTable("register-specified shifts",
		func(kind insts.ShiftType, amount uint32, carryIn bool, want uint32, wantCarry bool) {
			got, carry := emu.ShiftRegister(kind, v, amount, carryIn)
			Expect(got).To(Equal(want))
			Expect(carry).To(Equal(wantCarry))
		},
		Entry("LSL 0", insts.ShiftLSL, uint32(0), true, uint32(v), true),
		Entry("LSL 1", insts.ShiftLSL, uint32(1), false, uint32(0x00000002), true),
		Entry("LSL 31", insts.ShiftLSL, uint32(31), true, uint32(0x80000000), false),
		Entry("LSL 32", insts.ShiftLSL, uint32(32), false, uint32(0), true),
		Entry("LSL 33", insts.ShiftLSL, uint32(33), true, uint32(0), false),
		Entry("LSL 255", insts.ShiftLSL, uint32(255), true, uint32(0), false),

		Entry("LSR 0", insts.ShiftLSR, uint32(0), false, uint32(v), false),
		Entry("LSR 1", insts.ShiftLSR, uint32(1), false, uint32(0x40000000), true),
		Entry("LSR 31", insts.ShiftLSR, uint32(31), true, uint32(1), false),
		Entry("LSR 32", insts.ShiftLSR, uint32(32), false, uint32(0), true),
		Entry("LSR 33", insts.ShiftLSR, uint32(33), true, uint32(0), false),
		Entry("LSR 255", insts.ShiftLSR, uint32(255), true, uint32(0), false),

		Entry("ASR 0", insts.ShiftASR, uint32(0), true, uint32(v), true),
		Entry("ASR 1", insts.ShiftASR, uint32(1), false, uint32(0xC0000000), true),
		Entry("ASR 31", insts.ShiftASR, uint32(31), true, uint32(0xFFFFFFFF), false),
		Entry("ASR 32", insts.ShiftASR, uint32(32), false, uint32(0xFFFFFFFF), true),
		Entry("ASR 33", insts.ShiftASR, uint32(33), false, uint32(0xFFFFFFFF), true),
		Entry("ASR 255", insts.ShiftASR, uint32(255), false, uint32(0xFFFFFFFF), true),

		Entry("ROR 0", insts.ShiftROR, uint32(0), false, uint32(v), false),
		Entry("ROR 1", insts.ShiftROR, uint32(1), false, uint32(0xC0000000), true),
		Entry("ROR 31", insts.ShiftROR, uint32(31), true, uint32(0x00000003), false),
		Entry("ROR 32", insts.ShiftROR, uint32(32), false, uint32(v), true),
		Entry("ROR 33", insts.ShiftROR, uint32(33), false, uint32(0xC0000000), true),
		Entry("ROR 255", insts.ShiftROR, uint32(255), true, uint32(0x00000003), false),
	)

	It("should treat immediate LSR #0 as a shift by 32", func() {
		got, carry := emu.ShiftImmediate(insts.ShiftLSR, v, 0, false)
		Expect(got).To(BeZero())
		Expect(carry).To(BeTrue())
	})

	It("should treat immediate ROR #0 as RRX", func() {
		got, carry := emu.ShiftImmediate(insts.ShiftROR, v, 0, true)
		Expect(got).To(Equal(uint32(0xC0000000)))
		Expect(carry).To(BeTrue())
	})

	It("should only change the carry of a rotated immediate", func() {
		_, carry := emu.RotatedImmediate(insts.Opcode(0xE3B000FF), true)
		Expect(carry).To(BeTrue())
		got, carry := emu.RotatedImmediate(insts.Opcode(0xE3B0010F), false)
		Expect(got).To(Equal(uint32(0xC0000003)))
		Expect(carry).To(BeTrue())
	})
})

var _ = Describe("ALU", func() {
	It("should report carry and overflow from the adder", func() {
		r, c, v := emu.AddWithCarry(0xFFFFFFFF, 1, false)
		Expect(r).To(BeZero())
		Expect(c).To(BeTrue())
		Expect(v).To(BeFalse())
	})

	It("should set the carry on a subtraction without borrow", func() {
		r, c, v := emu.Sub(5, 3)
		Expect(r).To(Equal(uint32(2)))
		Expect(c).To(BeTrue())
		Expect(v).To(BeFalse())

		_, c, v = emu.Sub(0x80000000, 1)
		Expect(c).To(BeTrue())
		Expect(v).To(BeTrue())
	})

	It("should saturate", func() {
		r, sat := emu.SaturatingSub(-0x80000000, 1)
		Expect(r).To(Equal(int32(-0x80000000)))
		Expect(sat).To(BeTrue())
		r, sat = emu.SaturatingAdd(1, 2)
		Expect(r).To(Equal(int32(3)))
		Expect(sat).To(BeFalse())
	})

	It("should count leading zeros", func() {
		Expect(emu.CountLeadingZeros(0)).To(Equal(uint32(32)))
		Expect(emu.CountLeadingZeros(1)).To(Equal(uint32(31)))
		Expect(emu.CountLeadingZeros(0x80000000)).To(BeZero())
	})
})
