package dma_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/dma"
	"github.com/sarchlab/ndsim/irq"
)

const (
	enable   = 1 << 31
	irqBit   = 1 << 30
	word     = 1 << 26
	repeat   = 1 << 25
	dstFixed = 2 << 21
	dstDec   = 1 << 21
	dstRel   = 3 << 21
	srcFixed = 2 << 23
)

func sad(n int) uint32 { return dma.AddrBase + uint32(12*n) }
func dad(n int) uint32 { return sad(n) + 4 }
func cnt(n int) uint32 { return sad(n) + 8 }

var _ = Describe("Controller", func() {
	var (
		mem *flatMemory
		ic  *irq.Controller
		c   *dma.Controller
	)

	program := func(n int, src, dst, control uint32) {
		c.WriteRegister(sad(n), src, 0xFFFFFFFF)
		c.WriteRegister(dad(n), dst, 0xFFFFFFFF)
		c.WriteRegister(cnt(n), control, 0xFFFFFFFF)
	}

	BeforeEach(func() {
		mem = newFlatMemory()
		ic = irq.New(false)
		c = dma.New(dma.ProfileCPU9, mem, ic)
	})

	It("should copy words immediately and disarm", func() {
		for i := uint32(0); i < 4; i++ {
			mem.Write32(0x02000000+4*i, 0x100+i)
		}
		program(0, 0x02000000, 0x02100000, enable|word|4)

		Expect(c.Channel(0).Pending()).To(BeTrue())
		Expect(c.Clock()).To(Equal(4))

		for i := uint32(0); i < 4; i++ {
			Expect(mem.Read32(0x02100000 + 4*i)).To(Equal(0x100 + i))
		}
		Expect(c.Channel(0).Enabled()).To(BeFalse())
		Expect(c.Stats().Transfers).To(Equal(uint64(1)))
	})

	It("should copy halfwords with a fixed source", func() {
		mem.Write16(0x02000000, 0xBEEF)
		program(1, 0x02000000, 0x02100000, enable|srcFixed|3)
		c.Clock()

		Expect(mem.Read16(0x02100000)).To(Equal(uint16(0xBEEF)))
		Expect(mem.Read16(0x02100002)).To(Equal(uint16(0xBEEF)))
		Expect(mem.Read16(0x02100004)).To(Equal(uint16(0xBEEF)))
	})

	It("should walk the destination downward", func() {
		program(0, 0x02000000, 0x02100010, enable|word|dstDec|2)
		c.Clock()

		_, dst, _ := c.Channel(0).Latched()
		Expect(dst).To(Equal(uint32(0x02100008)))
	})

	It("should wait for its start timing", func() {
		program(2, 0x02000000, 0x02100000, enable|word|1<<27|1)
		Expect(c.Clock()).To(BeZero())

		c.Trigger(dma.HBlank)
		Expect(c.Clock()).To(BeZero())

		c.Trigger(dma.VBlank)
		Expect(c.Clock()).To(Equal(1))
	})

	It("should transfer from the addresses latched when armed", func() {
		mem.Write32(0x02000000, 0xAAAA5555)
		mem.Write32(0x02200000, 0x12345678)
		program(0, 0x02000000, 0x02100000, enable|word|1<<27|1)

		c.WriteRegister(sad(0), 0x02200000, 0xFFFFFFFF)
		c.WriteRegister(dad(0), 0x02300000, 0xFFFFFFFF)

		c.Trigger(dma.VBlank)
		Expect(c.Clock()).To(Equal(1))

		Expect(mem.Read32(0x02100000)).To(Equal(uint32(0xAAAA5555)))
		Expect(mem.Read32(0x02300000)).To(BeZero())
	})

	It("should reload count and destination on repeat", func() {
		program(0, 0x02000000, 0x02100000, enable|word|repeat|dstRel|2<<27|2)

		c.Trigger(dma.HBlank)
		c.Clock()

		ch := c.Channel(0)
		src, dst, count := ch.Latched()
		Expect(ch.Enabled()).To(BeTrue())
		Expect(src).To(Equal(uint32(0x02000008)))
		Expect(dst).To(Equal(uint32(0x02100000)))
		Expect(count).To(Equal(uint32(2)))
	})

	It("should raise its completion interrupt", func() {
		program(3, 0x02000000, 0x02100000, enable|irqBit|1)
		c.Clock()
		Expect(ic.Pending(irq.DMA3)).To(BeTrue())
	})

	It("should leave a disabled channel alone", func() {
		program(0, 0x02000000, 0x02100000, word|1)
		Expect(c.Clock()).To(BeZero())
		Expect(mem.writes).To(BeZero())
	})

	It("should store fill words on the CPU9 only", func() {
		Expect(c.WriteRegister(dma.AddrFill+4, 0xCAFE, 0xFFFF)).To(BeTrue())
		v, ok := c.ReadRegister(dma.AddrFill + 4)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint32(0xCAFE)))

		c7 := dma.New(dma.ProfileCPU7, mem, ic)
		_, ok = c7.ReadRegister(dma.AddrFill)
		Expect(ok).To(BeFalse())
	})

	It("should keep untouched bytes on sub-word writes", func() {
		c.WriteRegister(sad(0), 0x02345678, 0xFFFFFFFF)
		c.WriteRegister(sad(0), 0x00AB0000, 0x00FF0000)
		v, _ := c.ReadRegister(sad(0))
		Expect(v).To(Equal(uint32(0x02AB5678)))
	})

	DescribeTable("count of zero transfers the channel maximum",
		func(profile dma.Profile, n int, want uint32) {
			c = dma.New(profile, mem, ic)
			c.WriteRegister(cnt(n), enable|dstFixed|srcFixed, 0xFFFFFFFF)

			_, _, count := c.Channel(n).Latched()
			Expect(count).To(Equal(want))
		},
		Entry("CPU9 channel 0", dma.ProfileCPU9, 0, uint32(0x200000)),
		Entry("CPU9 channel 3", dma.ProfileCPU9, 3, uint32(0x200000)),
		Entry("CPU7 channel 0", dma.ProfileCPU7, 0, uint32(0x4000)),
		Entry("CPU7 channel 2", dma.ProfileCPU7, 2, uint32(0x4000)),
		Entry("CPU7 channel 3", dma.ProfileCPU7, 3, uint32(0x10000)),
	)

	DescribeTable("CPU7 start timings",
		func(n int, bits uint32, want dma.Timing) {
			c = dma.New(dma.ProfileCPU7, mem, ic)
			c.WriteRegister(cnt(n), bits<<28, 0xFFFFFFFF)
			Expect(c.Timing(n)).To(Equal(want))
		},
		Entry("immediate", 0, uint32(0), dma.Immediate),
		Entry("vblank", 1, uint32(1), dma.VBlank),
		Entry("card", 2, uint32(2), dma.Card),
		Entry("wireless on channel 0", 0, uint32(3), dma.Wireless),
		Entry("GBA slot on channel 1", 1, uint32(3), dma.GBASlot),
	)
})
