package bits_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/bits"
)

var _ = Describe("Bit fields", func() {
	It("should read single bits", func() {
		Expect(bits.Bit(uint32(0x80000000), 31)).To(BeTrue())
		Expect(bits.Bit(uint32(0x80000000), 30)).To(BeFalse())
		Expect(bits.Bit(uint16(0x0001), 0)).To(BeTrue())
	})

	It("should extract inclusive ranges", func() {
		Expect(bits.Field(uint32(0xE3A000FF), 28, 31)).To(Equal(uint32(0xE)))
		Expect(bits.Field(uint32(0xE3A000FF), 0, 7)).To(Equal(uint32(0xFF)))
		Expect(bits.Field(uint32(0xFFFFFFFF), 0, 31)).To(Equal(uint32(0xFFFFFFFF)))
		Expect(bits.Field(uint16(0xD0FE), 8, 11)).To(Equal(uint16(0x0)))
	})

	It("should build masks", func() {
		Expect(bits.Mask[uint32](4, 7)).To(Equal(uint32(0xF0)))
		Expect(bits.Mask[uint32](0, 31)).To(Equal(uint32(0xFFFFFFFF)))
	})

	It("should set bits and fields", func() {
		Expect(bits.SetBit(uint32(0), 5, true)).To(Equal(uint32(0x20)))
		Expect(bits.SetBit(uint32(0x21), 5, false)).To(Equal(uint32(0x01)))
		Expect(bits.SetField(uint32(0xFFFFFFFF), 0, 4, 0x13)).To(Equal(uint32(0xFFFFFFF3)))
	})

	It("should split words into bytes and halfwords", func() {
		Expect(bits.Byte(0x11223344, 0)).To(Equal(uint8(0x44)))
		Expect(bits.Byte(0x11223344, 3)).To(Equal(uint8(0x11)))
		Expect(bits.Halfword(0x11223344, 1)).To(Equal(uint16(0x1122)))
	})

	It("should sign extend and rotate", func() {
		Expect(bits.SignExtend(0x800000, 24)).To(Equal(uint32(0xFF800000)))
		Expect(bits.SignExtend(0x7FFFFF, 24)).To(Equal(uint32(0x007FFFFF)))
		Expect(bits.RotateRight(0x000000FF, 8)).To(Equal(uint32(0xFF000000)))
		Expect(bits.RotateRight(0x12345678, 0)).To(Equal(uint32(0x12345678)))
	})

	It("should merge masked bytes", func() {
		Expect(bits.Merge(0xAABBCCDD, 0x00001100, 0x0000FF00)).To(Equal(uint32(0xAABB11DD)))
	})
})
