package mem

// Device is a block of memory-mapped registers. Registers are addressed
// by word; mask selects the bytes a write touches. A device answers false
// for words it does not own.
type Device interface {
	ReadRegister(addr uint32) (uint32, bool)
	WriteRegister(addr, v, mask uint32) bool
}

// MapIO attaches dev to the given register words. Several devices may
// share a word when each owns different bytes of it; reads combine their
// answers and writes go to all of them.
func (b *Bus) MapIO(dev Device, words ...uint32) {
	for _, w := range words {
		w &^= 3
		b.io[w] = append(b.io[w], dev)
	}
}

// MapIORange attaches dev to every word in [start, end).
func (b *Bus) MapIORange(dev Device, start, end uint32) {
	for w := start &^ 3; w < end; w += 4 {
		b.MapIO(dev, w)
	}
}

// SetFallback sets the device asked about words no mapped device owns.
func (b *Bus) SetFallback(dev Device) {
	b.fallback = dev
}

func (b *Bus) readIO(addr uint32) (uint32, bool) {
	devs, mapped := b.io[addr]
	if !mapped {
		if b.fallback != nil {
			return b.fallback.ReadRegister(addr)
		}
		return 0, false
	}

	var v uint32
	found := false
	for _, d := range devs {
		if x, ok := d.ReadRegister(addr); ok {
			v |= x
			found = true
		}
	}
	return v, found
}

func (b *Bus) writeIO(addr, v, mask uint32) bool {
	devs, mapped := b.io[addr]
	if !mapped {
		return b.fallback != nil && b.fallback.WriteRegister(addr, v, mask)
	}

	found := false
	for _, d := range devs {
		if d.WriteRegister(addr, v, mask) {
			found = true
		}
	}
	return found
}
