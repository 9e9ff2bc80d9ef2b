package timer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/irq"
	"github.com/sarchlab/ndsim/timer"
)

const (
	countUp = 1 << 2
	irqBit  = 1 << 6
	enable  = 1 << 7
)

func addr(n int) uint32 { return timer.AddrBase + uint32(4*n) }

var _ = Describe("Unit", func() {
	var (
		ic *irq.Controller
		u  *timer.Unit
	)

	start := func(n int, reload uint16, control uint32) {
		u.WriteRegister(addr(n), uint32(reload), 0xFFFF)
		u.WriteRegister(addr(n), control<<16, 0xFFFF0000)
	}

	BeforeEach(func() {
		ic = irq.New(false)
		u = timer.New(ic)
	})

	It("should load the counter on the enable transition", func() {
		start(0, 0x1234, enable)
		v, ok := u.ReadRegister(addr(0))
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint32(enable)<<16 | 0x1234))
	})

	It("should count every cycle with no prescaler", func() {
		start(0, 0, enable)
		for i := 0; i < 10; i++ {
			u.Clock()
		}
		Expect(u.Timer(0).Counter).To(Equal(uint16(10)))
	})

	It("should divide by the prescaler", func() {
		start(1, 0, enable|1)
		for i := 0; i < 127; i++ {
			u.Clock()
		}
		Expect(u.Timer(1).Counter).To(Equal(uint16(1)))
		u.Clock()
		Expect(u.Timer(1).Counter).To(Equal(uint16(2)))
	})

	It("should reload and interrupt on overflow", func() {
		start(2, 0xFFFE, enable|irqBit)
		u.Clock()
		Expect(ic.Pending(irq.Timer2)).To(BeFalse())

		u.Clock()
		Expect(u.Timer(2).Counter).To(Equal(uint16(0xFFFE)))
		Expect(ic.Pending(irq.Timer2)).To(BeTrue())
		Expect(u.Overflows()).To(Equal(uint64(1)))
	})

	It("should cascade into a count-up timer", func() {
		start(0, 0xFFFF, enable)
		start(1, 0xFFFF, enable|countUp|irqBit)

		u.Clock()
		Expect(u.Timer(1).Counter).To(Equal(uint16(0xFFFF)))
		Expect(ic.Pending(irq.Timer1)).To(BeTrue())
	})

	It("should not advance a count-up timer on its own", func() {
		start(0, 0, 0)
		start(1, 5, enable|countUp)
		u.Clock()
		Expect(u.Timer(1).Counter).To(Equal(uint16(5)))
	})

	It("should keep counting when re-enabled while running", func() {
		start(3, 0, enable)
		u.Clock()
		u.WriteRegister(addr(3), (enable|irqBit)<<16, 0xFFFF0000)
		Expect(u.Timer(3).Counter).To(Equal(uint16(1)))
	})

	It("should refuse addresses outside the block", func() {
		_, ok := u.ReadRegister(timer.AddrBase + 16)
		Expect(ok).To(BeFalse())
	})
})
