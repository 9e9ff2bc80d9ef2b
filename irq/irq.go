// Package irq models the interrupt controller of one CPU: the master enable
// (IME), the enable mask (IE) and the write-1-to-clear flag register (IF).
// The CPU7 controller additionally has a mask of sources that end a halt.
package irq

// Register addresses.
const (
	AddrIME  = 0x04000208
	AddrIE   = 0x04000210
	AddrIF   = 0x04000214
	AddrWake = 0x04000218
)

// Line is an interrupt source, numbered by its IE/IF bit.
type Line uint8

// Interrupt sources.
const (
	VBlank          Line = 0
	HBlank          Line = 1
	VCount          Line = 2
	Timer0          Line = 3
	Timer1          Line = 4
	Timer2          Line = 5
	Timer3          Line = 6
	RTC             Line = 7
	DMA0            Line = 8
	DMA1            Line = 9
	DMA2            Line = 10
	DMA3            Line = 11
	Keypad          Line = 12
	GBASlot         Line = 13
	IPCSync         Line = 16
	IPCSendEmpty    Line = 17
	IPCRecvNonEmpty Line = 18
	CardTransfer    Line = 19
	CardIREQ        Line = 20
	GeometryFIFO    Line = 21
	Unfold          Line = 22
	SPI             Line = 23
	Wireless        Line = 24
)

var lineNames = map[Line]string{
	VBlank: "vblank", HBlank: "hblank", VCount: "vcount",
	Timer0: "timer0", Timer1: "timer1", Timer2: "timer2", Timer3: "timer3",
	RTC: "rtc", DMA0: "dma0", DMA1: "dma1", DMA2: "dma2", DMA3: "dma3",
	Keypad: "keypad", GBASlot: "gba-slot", IPCSync: "ipc-sync",
	IPCSendEmpty: "ipc-send-empty", IPCRecvNonEmpty: "ipc-recv-non-empty",
	CardTransfer: "card-transfer", CardIREQ: "card-ireq",
	GeometryFIFO: "geometry-fifo", Unfold: "unfold", SPI: "spi", Wireless: "wireless",
}

func (l Line) String() string {
	if name, ok := lineNames[l]; ok {
		return name
	}
	return "unknown"
}

// TimerLine returns the overflow line of timer n.
func TimerLine(n int) Line {
	return Timer0 + Line(n&3)
}

// DMALine returns the completion line of DMA channel n.
func DMALine(n int) Line {
	return DMA0 + Line(n&3)
}

// Controller is one CPU's interrupt controller.
type Controller struct {
	hasWake bool

	ime   bool
	ie    uint32
	flags uint32
	wake  uint32
}

// New creates a controller. hasWake adds the halt-wake enable mask at
// AddrWake.
func New(hasWake bool) *Controller {
	c := &Controller{hasWake: hasWake}
	c.Reset()
	return c
}

// Reset clears every register.
func (c *Controller) Reset() {
	c.ime = false
	c.ie = 0
	c.flags = 0
	c.wake = 0
}

// IME returns the master enable.
func (c *Controller) IME() bool {
	return c.ime
}

// IE returns the enable mask.
func (c *Controller) IE() uint32 {
	return c.ie
}

// IF returns the pending flags.
func (c *Controller) IF() uint32 {
	return c.flags
}

// SetIME sets the master enable.
func (c *Controller) SetIME(on bool) {
	c.ime = on
}

// SetIE replaces the enable mask.
func (c *Controller) SetIE(v uint32) {
	c.ie = v
}

// Acknowledge clears the flags whose bits are set in v.
func (c *Controller) Acknowledge(v uint32) {
	c.flags &^= v
}

// IsRequestingInterrupt reports whether the CPU should take an IRQ: the
// master enable is set and an enabled source is pending.
func (c *Controller) IsRequestingInterrupt() bool {
	return c.ime && c.ie&c.flags != 0
}

// IsRequestingWake reports whether a halted CPU resumes. The master enable
// does not gate it.
func (c *Controller) IsRequestingWake() bool {
	mask := c.ie
	if c.hasWake {
		mask |= c.wake
	}
	return mask&c.flags != 0
}

// Set sets or clears the flag of a line. Only the CPU side should clear
// flags; peripherals use Raise.
func (c *Controller) Set(l Line, on bool) {
	if on {
		c.flags |= 1 << l
	} else {
		c.flags &^= 1 << l
	}
}

// Raise sets the flag of a line and never clears it.
func (c *Controller) Raise(l Line) {
	c.flags |= 1 << l
}

// Pending reports whether the flag of a line is set.
func (c *Controller) Pending(l Line) bool {
	return c.flags&(1<<l) != 0
}

// SetVBlank sets or clears the VBlank flag.
func (c *Controller) SetVBlank(on bool) { c.Set(VBlank, on) }

// SetHBlank sets or clears the HBlank flag.
func (c *Controller) SetHBlank(on bool) { c.Set(HBlank, on) }

// SetVCount sets or clears the VCount-match flag.
func (c *Controller) SetVCount(on bool) { c.Set(VCount, on) }

// SetTimer sets or clears the overflow flag of timer n.
func (c *Controller) SetTimer(n int, on bool) { c.Set(TimerLine(n), on) }

// SetDMA sets or clears the completion flag of DMA channel n.
func (c *Controller) SetDMA(n int, on bool) { c.Set(DMALine(n), on) }

// SetIPCSync sets or clears the IPC sync flag.
func (c *Controller) SetIPCSync(on bool) { c.Set(IPCSync, on) }

// SetIPCSendEmpty sets or clears the IPC send-FIFO-empty flag.
func (c *Controller) SetIPCSendEmpty(on bool) { c.Set(IPCSendEmpty, on) }

// SetIPCRecvNonEmpty sets or clears the IPC receive-FIFO-not-empty flag.
func (c *Controller) SetIPCRecvNonEmpty(on bool) { c.Set(IPCRecvNonEmpty, on) }

// SetCardTransfer sets or clears the card transfer-complete flag.
func (c *Controller) SetCardTransfer(on bool) { c.Set(CardTransfer, on) }

// ReadRegister returns the word at addr, or false if addr is not one of
// the controller's registers.
func (c *Controller) ReadRegister(addr uint32) (uint32, bool) {
	switch addr {
	case AddrIME:
		if c.ime {
			return 1, true
		}
		return 0, true
	case AddrIE:
		return c.ie, true
	case AddrIF:
		return c.flags, true
	case AddrWake:
		if c.hasWake {
			return c.wake, true
		}
	}
	return 0, false
}

// WriteRegister writes the bytes of v selected by mask to the word at addr.
// IF is write-1-to-clear.
func (c *Controller) WriteRegister(addr, v, mask uint32) bool {
	switch addr {
	case AddrIME:
		if mask&1 != 0 {
			c.ime = v&1 != 0
		}
	case AddrIE:
		c.ie = c.ie&^mask | v&mask
	case AddrIF:
		c.Acknowledge(v & mask)
	case AddrWake:
		if !c.hasWake {
			return false
		}
		c.wake = c.wake&^mask | v&mask
	default:
		return false
	}
	return true
}

// Ports lists the register words the controller answers.
func (c *Controller) Ports() []uint32 {
	ports := []uint32{AddrIME, AddrIE, AddrIF}
	if c.hasWake {
		ports = append(ports, AddrWake)
	}
	return ports
}
