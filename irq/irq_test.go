package irq_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/irq"
)

var _ = Describe("Controller", func() {
	var c *irq.Controller

	BeforeEach(func() {
		c = irq.New(false)
	})

	It("should clear IF bits only where ones are written", func() {
		c.SetTimer(0, true)
		Expect(c.IF()).To(Equal(uint32(0x8)))

		c.WriteRegister(irq.AddrIF, 0x0000, 0xFFFF)
		Expect(c.IF()).To(Equal(uint32(0x8)))

		c.WriteRegister(irq.AddrIF, 0x0008, 0xFFFF)
		Expect(c.IF()).To(BeZero())
	})

	It("should request an interrupt only with IME and a matching IE bit", func() {
		c.Raise(irq.VBlank)
		Expect(c.IsRequestingInterrupt()).To(BeFalse())

		c.WriteRegister(irq.AddrIE, 1, 0xFFFFFFFF)
		Expect(c.IsRequestingInterrupt()).To(BeFalse())

		c.WriteRegister(irq.AddrIME, 1, 0xFFFFFFFF)
		Expect(c.IsRequestingInterrupt()).To(BeTrue())
	})

	It("should wake without the master enable", func() {
		c.SetIE(1 << irq.IPCSync)
		c.Raise(irq.IPCSync)

		Expect(c.IsRequestingInterrupt()).To(BeFalse())
		Expect(c.IsRequestingWake()).To(BeTrue())
	})

	It("should honour byte lanes on IE writes", func() {
		c.SetIE(0x11223344)
		c.WriteRegister(irq.AddrIE, 0xAA00, 0xFF00)
		Expect(c.IE()).To(Equal(uint32(0x1122AA44)))
	})

	It("should read back IME as a single bit", func() {
		c.WriteRegister(irq.AddrIME, 0xFFFFFFFF, 0xFFFFFFFF)
		v, ok := c.ReadRegister(irq.AddrIME)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint32(1)))
	})

	It("should not own the wake mask without one", func() {
		_, ok := c.ReadRegister(irq.AddrWake)
		Expect(ok).To(BeFalse())
		Expect(c.WriteRegister(irq.AddrWake, 1, 0xFF)).To(BeFalse())
		Expect(c.Ports()).To(HaveLen(3))
	})

	It("should wake on sources in the wake mask", func() {
		c = irq.New(true)
		c.WriteRegister(irq.AddrWake, 1<<irq.Keypad, 0xFFFFFFFF)
		c.Raise(irq.Keypad)

		Expect(c.IsRequestingWake()).To(BeTrue())
		Expect(c.IsRequestingInterrupt()).To(BeFalse())
	})

	It("should name lines", func() {
		Expect(irq.Timer2.String()).To(Equal("timer2"))
		Expect(irq.DMALine(3)).To(Equal(irq.DMA3))
		Expect(irq.Line(31).String()).To(Equal("unknown"))
	})

	It("should clear everything on reset", func() {
		c.SetIME(true)
		c.SetIE(0xFF)
		c.Raise(irq.HBlank)
		c.Reset()

		Expect(c.IME()).To(BeFalse())
		Expect(c.IE()).To(BeZero())
		Expect(c.IF()).To(BeZero())
	})
})
