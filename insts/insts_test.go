package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Opcode type", func() {
		var o insts.Opcode
		Expect(o).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder(insts.ARMv5)
		Expect(decoder).ToNot(BeNil())
		Expect(decoder.Arch()).To(Equal(insts.ARMv5))
	})
})

var _ = Describe("Opcode", func() {
	// ADDS R0, R1, R2 -> 0xE0910002
	op := insts.Opcode(0xE0910002)

	It("should expose the ARM register fields", func() {
		Expect(op.Cond()).To(Equal(insts.CondAL))
		Expect(op.Rn()).To(Equal(1))
		Expect(op.Rd()).To(Equal(0))
		Expect(op.Rm()).To(Equal(2))
		Expect(op.SetFlags()).To(BeTrue())
		Expect(op.Immediate()).To(BeFalse())
		Expect(op.DataOp()).To(Equal(insts.DataADD))
	})

	It("should expose raw bit ranges", func() {
		Expect(op.Bit(20)).To(BeTrue())
		Expect(op.Bits(25, 27)).To(Equal(uint32(0)))
		Expect(op.Byte(3)).To(Equal(uint8(0xE0)))
		Expect(op.Halfword(0)).To(Equal(uint16(0x0002)))
	})

	It("should name data operations", func() {
		Expect(insts.DataMOV.String()).To(Equal("MOV"))
		Expect(insts.DataCMP.IsTest()).To(BeTrue())
		Expect(insts.DataADD.IsLogical()).To(BeFalse())
		Expect(insts.DataBIC.IsLogical()).To(BeTrue())
	})
})

var _ = Describe("Cond", func() {
	type flags struct{ n, z, c, v bool }

	// reference truth table from the architecture manual
	reference := func(cond insts.Cond, f flags) bool {
		switch cond {
		case insts.CondEQ:
			return f.z
		case insts.CondNE:
			return !f.z
		case insts.CondCS:
			return f.c
		case insts.CondCC:
			return !f.c
		case insts.CondMI:
			return f.n
		case insts.CondPL:
			return !f.n
		case insts.CondVS:
			return f.v
		case insts.CondVC:
			return !f.v
		case insts.CondHI:
			return f.c && !f.z
		case insts.CondLS:
			return !f.c || f.z
		case insts.CondGE:
			return f.n == f.v
		case insts.CondLT:
			return f.n != f.v
		case insts.CondGT:
			return !f.z && f.n == f.v
		case insts.CondLE:
			return f.z || f.n != f.v
		}
		return true
	}

	It("should match the truth table for every flag combination", func() {
		for cond := insts.Cond(0); cond < 16; cond++ {
			for nzcv := 0; nzcv < 16; nzcv++ {
				f := flags{
					n: nzcv&8 != 0,
					z: nzcv&4 != 0,
					c: nzcv&2 != 0,
					v: nzcv&1 != 0,
				}
				Expect(cond.Holds(f.n, f.z, f.c, f.v)).To(Equal(reference(cond, f)),
					"cond=%v nzcv=%04b", cond, nzcv)
			}
		}
	})

	It("should always hold for the all-ones encoding", func() {
		for nzcv := 0; nzcv < 16; nzcv++ {
			Expect(insts.CondNV.Holds(nzcv&8 != 0, nzcv&4 != 0, nzcv&2 != 0, nzcv&1 != 0)).To(BeTrue())
		}
	})

	It("should print assembler suffixes", func() {
		Expect(insts.CondEQ.String()).To(Equal("EQ"))
		Expect(insts.CondAL.String()).To(Equal(""))
	})
})
