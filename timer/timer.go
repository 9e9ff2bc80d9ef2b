// Package timer implements the four cascadable 16-bit timers of each CPU.
package timer

import "github.com/sarchlab/ndsim/irq"

// AddrBase is the address of TM0CNT_L. Each timer occupies one word: the
// low half is the reload value on write and the counter on read, the high
// half is the control register.
const AddrBase = 0x04000100

// Control bits.
const (
	ctlPrescaler = 0x3
	ctlCountUp   = 1 << 2
	ctlIRQ       = 1 << 6
	ctlEnable    = 1 << 7

	ctlWritable = ctlPrescaler | ctlCountUp | ctlIRQ | ctlEnable
)

var prescalers = [4]uint32{1, 64, 256, 1024}

// Timer is one counter.
type Timer struct {
	Reload  uint16
	Counter uint16
	Control uint16

	ticks uint32
}

// Enabled reports whether the timer runs.
func (t *Timer) Enabled() bool {
	return t.Control&ctlEnable != 0
}

// CountUp reports whether the timer counts overflows of the previous one.
func (t *Timer) CountUp() bool {
	return t.Control&ctlCountUp != 0
}

// Prescaler returns the number of cycles per count.
func (t *Timer) Prescaler() uint32 {
	return prescalers[t.Control&ctlPrescaler]
}

// Unit is one CPU's timer block.
type Unit struct {
	timers    [4]Timer
	irq       *irq.Controller
	overflows uint64
}

// New creates a timer unit that raises its overflow interrupts on ic.
func New(ic *irq.Controller) *Unit {
	return &Unit{irq: ic}
}

// Reset stops every timer and clears the registers.
func (u *Unit) Reset() {
	u.timers = [4]Timer{}
	u.overflows = 0
}

// Timer returns timer n.
func (u *Unit) Timer(n int) *Timer {
	return &u.timers[n&3]
}

// Overflows returns the number of overflows since reset.
func (u *Unit) Overflows() uint64 {
	return u.overflows
}

// Clock advances every running timer by one bus cycle.
func (u *Unit) Clock() {
	for n := range u.timers {
		t := &u.timers[n]
		if !t.Enabled() || (n > 0 && t.CountUp()) {
			continue
		}

		t.ticks++
		if t.ticks < t.Prescaler() {
			continue
		}
		t.ticks = 0
		u.count(n)
	}
}

// count increments timer n, handling overflow and the cascade into the
// next timer.
func (u *Unit) count(n int) {
	t := &u.timers[n]
	t.Counter++
	if t.Counter != 0 {
		return
	}

	t.Counter = t.Reload
	u.overflows++
	if t.Control&ctlIRQ != 0 {
		u.irq.Raise(irq.TimerLine(n))
	}

	if n == len(u.timers)-1 {
		return
	}
	next := &u.timers[n+1]
	if next.Enabled() && next.CountUp() {
		u.count(n + 1)
	}
}

// ReadRegister returns the word at addr, or false if addr is not a timer
// register.
func (u *Unit) ReadRegister(addr uint32) (uint32, bool) {
	n, ok := index(addr)
	if !ok {
		return 0, false
	}
	t := &u.timers[n]
	return uint32(t.Control)<<16 | uint32(t.Counter), true
}

// WriteRegister writes the bytes of v selected by mask. The low half sets
// the reload value; enabling a stopped timer loads the counter from it.
func (u *Unit) WriteRegister(addr, v, mask uint32) bool {
	n, ok := index(addr)
	if !ok {
		return false
	}
	t := &u.timers[n]

	if mask&0xFFFF != 0 {
		low := uint32(t.Reload)&^mask | v&mask
		t.Reload = uint16(low)
	}

	if mask&0xFFFF0000 != 0 {
		wasEnabled := t.Enabled()
		high := uint32(t.Control)<<16&^mask | v&mask
		t.Control = uint16(high>>16) & ctlWritable
		if !wasEnabled && t.Enabled() {
			t.Counter = t.Reload
			t.ticks = 0
		}
	}
	return true
}

func index(addr uint32) (int, bool) {
	if addr < AddrBase || addr >= AddrBase+16 {
		return 0, false
	}
	return int(addr-AddrBase) / 4, true
}
