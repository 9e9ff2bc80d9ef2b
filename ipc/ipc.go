// Package ipc implements the inter-processor sync register and the pair of
// 16-word FIFOs connecting the two CPUs.
package ipc

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/ndsim/irq"
)

// Register addresses, identical on both CPUs.
const (
	AddrSync    = 0x04000180
	AddrFIFOCnt = 0x04000184
	AddrSend    = 0x04000188
	AddrRecv    = 0x04100000
)

// Depth is the capacity of each FIFO in words.
const Depth = 16

// IPCSYNC bits.
const (
	syncInput     = 0xF
	syncOutput    = 0xF << 8
	syncSendIRQ   = 1 << 13
	syncIRQEnable = 1 << 14
)

// IPCFIFOCNT bits.
const (
	cntSendEmpty    = 1 << 0
	cntSendFull     = 1 << 1
	cntSendEmptyIRQ = 1 << 2
	cntSendClear    = 1 << 3
	cntRecvEmpty    = 1 << 8
	cntRecvFull     = 1 << 9
	cntRecvIRQ      = 1 << 10
	cntError        = 1 << 14
	cntEnable       = 1 << 15
)

// Side names a CPU.
type Side int

// The two sides.
const (
	CPU9 Side = iota
	CPU7
)

func (s Side) other() Side {
	return 1 - s
}

// IPC is the shared state of both ports.
type IPC struct {
	ports [2]*Port
}

// Port is one CPU's view of the IPC registers.
type Port struct {
	ipc  *IPC
	side Side
	irq  *irq.Controller
	log  logr.Logger

	syncOutput    uint32
	syncIRQEnable bool

	enable       bool
	sendEmptyIRQ bool
	recvIRQ      bool
	errorFlag    bool

	// send holds the words this side has sent and the other side has not
	// yet received.
	send     []uint32
	lastRecv uint32
}

// New connects the two interrupt controllers.
func New(irq9, irq7 *irq.Controller) *IPC {
	x := &IPC{}
	x.ports[CPU9] = &Port{ipc: x, side: CPU9, irq: irq9, log: logr.Discard()}
	x.ports[CPU7] = &Port{ipc: x, side: CPU7, irq: irq7, log: logr.Discard()}
	return x
}

// SetLogger sets the logger of both ports.
func (x *IPC) SetLogger(log logr.Logger) {
	x.ports[CPU9].log = log.WithValues("side", "cpu9")
	x.ports[CPU7].log = log.WithValues("side", "cpu7")
}

// Port returns the register view of one side.
func (x *IPC) Port(s Side) *Port {
	return x.ports[s]
}

// Reset empties both FIFOs and clears every register.
func (x *IPC) Reset() {
	for _, p := range x.ports {
		p.syncOutput = 0
		p.syncIRQEnable = false
		p.enable = false
		p.sendEmptyIRQ = false
		p.recvIRQ = false
		p.errorFlag = false
		p.send = p.send[:0]
		p.lastRecv = 0
	}
}

func (p *Port) remote() *Port {
	return p.ipc.ports[p.side.other()]
}

// Send pushes a word to the other side. It does nothing while the FIFOs
// are disabled. A full FIFO drops its oldest word and sets the error flag.
func (p *Port) Send(v uint32) {
	if !p.enable {
		return
	}

	if len(p.send) == Depth {
		p.log.Info("IPC send FIFO overflow", "dropped", p.send[0])
		p.send = p.send[1:]
		p.errorFlag = true
	}

	wasEmpty := len(p.send) == 0
	p.send = append(p.send, v)

	r := p.remote()
	if wasEmpty && r.recvIRQ {
		r.irq.Raise(irq.IPCRecvNonEmpty)
	}
}

// Receive pops the oldest word sent by the other side. A receive from an
// empty FIFO sets the error flag and returns the last received word.
func (p *Port) Receive() uint32 {
	queue := &p.remote().send

	if !p.enable {
		if len(*queue) > 0 {
			return (*queue)[0]
		}
		return p.lastRecv
	}

	if len(*queue) == 0 {
		p.errorFlag = true
		return p.lastRecv
	}

	p.lastRecv = (*queue)[0]
	*queue = (*queue)[1:]

	r := p.remote()
	if len(*queue) == 0 && r.sendEmptyIRQ {
		r.irq.Raise(irq.IPCSendEmpty)
	}
	return p.lastRecv
}

// Pending returns the number of words this side has sent that are still
// waiting to be received.
func (p *Port) Pending() int {
	return len(p.send)
}

// Sync returns IPCSYNC as read by this side.
func (p *Port) Sync() uint32 {
	v := p.remote().syncOutput>>8&syncInput | p.syncOutput
	if p.syncIRQEnable {
		v |= syncIRQEnable
	}
	return v
}

func (p *Port) writeSync(v uint32) {
	p.syncOutput = v & syncOutput
	p.syncIRQEnable = v&syncIRQEnable != 0

	r := p.remote()
	if v&syncSendIRQ != 0 && r.syncIRQEnable {
		r.irq.Raise(irq.IPCSync)
	}
}

// Control returns IPCFIFOCNT as read by this side.
func (p *Port) Control() uint32 {
	var v uint32
	recv := len(p.remote().send)

	switch len(p.send) {
	case 0:
		v |= cntSendEmpty
	case Depth:
		v |= cntSendFull
	}
	switch recv {
	case 0:
		v |= cntRecvEmpty
	case Depth:
		v |= cntRecvFull
	}

	if p.sendEmptyIRQ {
		v |= cntSendEmptyIRQ
	}
	if p.recvIRQ {
		v |= cntRecvIRQ
	}
	if p.errorFlag {
		v |= cntError
	}
	if p.enable {
		v |= cntEnable
	}
	return v
}

func (p *Port) writeControl(v uint32) {
	if v&cntSendClear != 0 {
		p.send = p.send[:0]
	}
	if v&cntError != 0 {
		p.errorFlag = false
	}

	sendEmptyIRQ := v&cntSendEmptyIRQ != 0
	recvIRQ := v&cntRecvIRQ != 0

	// enabling an interrupt whose condition already holds fires it
	if sendEmptyIRQ && !p.sendEmptyIRQ && len(p.send) == 0 {
		p.irq.Raise(irq.IPCSendEmpty)
	}
	if recvIRQ && !p.recvIRQ && len(p.remote().send) > 0 {
		p.irq.Raise(irq.IPCRecvNonEmpty)
	}

	p.sendEmptyIRQ = sendEmptyIRQ
	p.recvIRQ = recvIRQ
	p.enable = v&cntEnable != 0
}

// ReadRegister returns the word at addr, or false if addr is not an IPC
// register.
func (p *Port) ReadRegister(addr uint32) (uint32, bool) {
	switch addr {
	case AddrSync:
		return p.Sync(), true
	case AddrFIFOCnt:
		return p.Control(), true
	case AddrSend:
		return 0, true
	case AddrRecv:
		return p.Receive(), true
	}
	return 0, false
}

// WriteRegister writes the bytes of v selected by mask to the word at addr.
func (p *Port) WriteRegister(addr, v, mask uint32) bool {
	switch addr {
	case AddrSync:
		p.writeSync(p.Sync()&^mask | v&mask)
	case AddrFIFOCnt:
		// the acknowledge and clear bits act only when written
		cur := p.Control() &^ (cntError | cntSendClear)
		p.writeControl(cur&^mask | v&mask)
	case AddrSend:
		p.Send(v & mask)
	case AddrRecv:
	default:
		return false
	}
	return true
}
