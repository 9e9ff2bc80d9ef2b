package emu

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/ndsim/bits"
	"github.com/sarchlab/ndsim/timing/cache"
	"github.com/sarchlab/ndsim/timing/latency"
)

// CP15 identification values of the ARM946E-S.
const (
	CP15MainID    = 0x41059461
	CP15CacheType = 0x0F0D2112
	CP15TCMSize   = 0x00140180
)

// Control register bits.
const (
	ControlProtectionUnit = 1 << 0
	ControlDCache         = 1 << 2
	ControlICache         = 1 << 12
	ControlHighVectors    = 1 << 13
	ControlDTCM           = 1 << 16
	ControlDTCMLoad       = 1 << 17
	ControlITCM           = 1 << 18
	ControlITCMLoad       = 1 << 19

	controlReset    = 0x00002078
	controlWritable = 0x000FF085
)

// TCMMapper is notified whenever the tightly coupled memory configuration
// changes. The CPU9 bus implements it.
type TCMMapper interface {
	MapITCM(size uint32, enabled, loadMode bool)
	MapDTCM(base, size uint32, enabled, loadMode bool)
}

// CP15 is the ARM946E-S system control coprocessor: identification,
// control, cache maintenance and TCM regions. The protection unit and
// cache lockdown registers are stored but have no effect.
type CP15 struct {
	log    logr.Logger
	mapper TCMMapper
	halt   func()

	control uint32
	dtcm    uint32
	itcm    uint32

	// protection-unit, lockdown and trace registers, keyed by encoding
	stored map[uint32]uint32

	icache *cache.Cache
	dcache *cache.Cache
}

// NewCP15 creates the coprocessor with caches whose miss penalties come from
// the timing configuration.
func NewCP15(mapper TCMMapper, timing *latency.TimingConfig, log logr.Logger) *CP15 {
	icfg := cache.DefaultICacheConfig()
	icfg.MissLatency = timing.ICacheMissPenalty
	dcfg := cache.DefaultDCacheConfig()
	dcfg.MissLatency = timing.DCacheMissPenalty

	p := &CP15{
		log:    log,
		mapper: mapper,
		icache: cache.New(icfg),
		dcache: cache.New(dcfg),
	}
	p.Reset()
	return p
}

// Reset restores the power-on control value, unmaps both TCMs and empties
// the caches.
func (p *CP15) Reset() {
	p.control = controlReset
	p.dtcm = 0
	p.itcm = 0
	p.stored = make(map[uint32]uint32)
	p.icache.Reset()
	p.dcache.Reset()
	p.remap()
}

func cp15Key(opc1, crn, crm, opc2 uint32) uint32 {
	return opc1<<12 | crn<<8 | crm<<4 | opc2
}

// Control returns the control register.
func (p *CP15) Control() uint32 {
	return p.control
}

// DTCM returns the data TCM base, size and enable state.
func (p *CP15) DTCM() (base, size uint32, enabled bool) {
	return p.dtcm &^ 0xFFF, regionSize(p.dtcm), p.control&ControlDTCM != 0
}

// ITCM returns the instruction TCM virtual size and enable state. Its base
// is always zero.
func (p *CP15) ITCM() (size uint32, enabled bool) {
	return regionSize(p.itcm), p.control&ControlITCM != 0
}

// ICache returns the instruction cache model.
func (p *CP15) ICache() *cache.Cache {
	return p.icache
}

// DCache returns the data cache model.
func (p *CP15) DCache() *cache.Cache {
	return p.dcache
}

func regionSize(reg uint32) uint32 {
	return 512 << bits.Field(reg, 1, 5)
}

func (p *CP15) remap() {
	if p.mapper == nil {
		return
	}
	base, dsize, den := p.DTCM()
	isize, ien := p.ITCM()
	p.mapper.MapDTCM(base, dsize, den, p.control&ControlDTCMLoad != 0)
	p.mapper.MapITCM(isize, ien, p.control&ControlITCMLoad != 0)
}

// Read performs MRC p15. It returns false for registers that do not exist.
func (p *CP15) Read(opc1, crn, crm, opc2 uint32) (uint32, bool) {
	switch {
	case crn == 0 && crm == 0:
		switch opc2 {
		case 1:
			return CP15CacheType, true
		case 2:
			return CP15TCMSize, true
		default:
			return CP15MainID, true
		}
	case crn == 1 && crm == 0 && opc2 == 0:
		return p.control, true
	case crn == 9 && crm == 1 && opc2 == 0:
		return p.dtcm, true
	case crn == 9 && crm == 1 && opc2 == 1:
		return p.itcm, true
	case crn == 7:
		// cache operations are write-only
		return 0, true
	}

	if v, ok := p.stored[cp15Key(opc1, crn, crm, opc2)]; ok || storedRegister(crn) {
		return v, true
	}
	return 0, false
}

// storedRegister reports whether crn is one of the registers kept without
// effect: protection unit (c2, c3, c5, c6), lockdown (c9,c0) and trace
// process ID (c13).
func storedRegister(crn uint32) bool {
	switch crn {
	case 2, 3, 5, 6, 9, 13:
		return true
	}
	return false
}

// Write performs MCR p15. It returns false for registers that do not exist.
func (p *CP15) Write(opc1, crn, crm, opc2, v uint32) bool {
	switch {
	case crn == 1 && crm == 0 && opc2 == 0:
		p.control = bits.Merge(p.control, v, controlWritable)
		p.remap()
		return true
	case crn == 9 && crm == 1 && opc2 == 0:
		p.dtcm = v
		p.remap()
		return true
	case crn == 9 && crm == 1 && opc2 == 1:
		p.itcm = v
		p.remap()
		return true
	case crn == 7:
		return p.cacheOp(crm, opc2, v)
	case storedRegister(crn):
		p.stored[cp15Key(opc1, crn, crm, opc2)] = v
		return true
	}
	return false
}

func (p *CP15) cacheOp(crm, opc2, v uint32) bool {
	switch crm<<4 | opc2 {
	case 0x04, 0x82:
		// wait for interrupt
		if p.halt != nil {
			p.halt()
		}
	case 0x50:
		p.icache.InvalidateAll()
	case 0x51:
		p.icache.Invalidate(v)
	case 0x60:
		p.dcache.InvalidateAll()
	case 0x61:
		p.dcache.Invalidate(v)
	case 0xA1:
		p.dcache.Clean(v)
	case 0xE1:
		p.dcache.Clean(v)
		p.dcache.Invalidate(v)
	case 0xA2, 0xE2, 0xA4:
		// set/way maintenance and write buffer drain have no timing effect
	case 0xD1:
		p.icache.Read(v)
	default:
		return false
	}
	return true
}

// cacheable reports whether the address is served through the caches:
// main memory and the BIOS, never the TCMs.
func (p *CP15) cacheable(addr uint32) bool {
	if size, on := p.ITCM(); on && addr < size {
		return false
	}
	if base, size, on := p.DTCM(); on && addr-base < size {
		return false
	}
	region := addr >> 24
	return region == 0x02 || region == 0xFF
}

// fetchAccess returns the extra cycles of an instruction fetch.
func (p *CP15) fetchAccess(addr uint32) int {
	if p.control&ControlICache == 0 || !p.cacheable(addr) {
		return 0
	}
	return int(p.icache.Read(addr).Latency)
}

// dataAccess returns the extra cycles of a data access.
func (p *CP15) dataAccess(addr uint32, write bool) int {
	if p.control&ControlDCache == 0 || !p.cacheable(addr) {
		return 0
	}
	if write {
		return int(p.dcache.Write(addr).Latency)
	}
	return int(p.dcache.Read(addr).Latency)
}
