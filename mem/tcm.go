package mem

// tcm holds the CPU9 tightly coupled memories and their CP15 mapping.
// ITCM sits at address 0 mirrored across its virtual size; DTCM sits at a
// configurable base and serves data accesses only. In load mode a TCM
// takes writes and leaves reads to the bus.
type tcm struct {
	itcm []byte
	dtcm []byte

	itcmSize uint32
	itcmOn   bool
	itcmLoad bool

	dtcmBase uint32
	dtcmSize uint32
	dtcmOn   bool
	dtcmLoad bool
}

func newTCM() tcm {
	return tcm{
		itcm: make([]byte, ITCMSize),
		dtcm: make([]byte, DTCMSize),
	}
}

func (t *tcm) reset() {
	clear(t.itcm)
	clear(t.dtcm)
	t.itcmOn = false
	t.dtcmOn = false
}

func (t *tcm) lookup(addr uint32, fetch, write bool) ([]byte, uint32) {
	if t.itcm == nil {
		return nil, 0
	}

	if t.dtcmOn && !fetch && addr-t.dtcmBase < t.dtcmSize && (write || !t.dtcmLoad) {
		return t.dtcm, (addr - t.dtcmBase) & (DTCMSize - 1)
	}
	if t.itcmOn && addr < t.itcmSize && (write || !t.itcmLoad) {
		return t.itcm, addr & (ITCMSize - 1)
	}
	return nil, 0
}

// MapITCM applies the CP15 instruction TCM region.
func (b *Bus) MapITCM(size uint32, enabled, loadMode bool) {
	if b.tcm.itcm == nil {
		return
	}
	b.tcm.itcmSize = size
	b.tcm.itcmOn = enabled
	b.tcm.itcmLoad = loadMode
}

// MapDTCM applies the CP15 data TCM region.
func (b *Bus) MapDTCM(base, size uint32, enabled, loadMode bool) {
	if b.tcm.dtcm == nil {
		return
	}
	b.tcm.dtcmBase = base
	b.tcm.dtcmSize = size
	b.tcm.dtcmOn = enabled
	b.tcm.dtcmLoad = loadMode
}

// ITCM returns the instruction TCM contents, or nil on the CPU7 bus.
func (b *Bus) ITCM() []byte {
	return b.tcm.itcm
}

// DTCM returns the data TCM contents, or nil on the CPU7 bus.
func (b *Bus) DTCM() []byte {
	return b.tcm.dtcm
}
