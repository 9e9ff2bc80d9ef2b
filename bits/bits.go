// Package bits provides helpers for extracting and setting bit ranges in
// fixed-width integers.
//
// All ranges are inclusive: Field(v, 4, 7) returns bits 7..4 of v shifted
// down to bit 0.
package bits

// Unsigned is the set of fixed-width unsigned integers the helpers accept.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Bit reports whether bit n of v is set.
func Bit[T Unsigned](v T, n uint) bool {
	return (v>>n)&1 == 1
}

// Field returns bits hi..lo (inclusive) of v, shifted down to bit 0.
func Field[T Unsigned](v T, lo, hi uint) T {
	width := hi - lo + 1
	if width >= 64 {
		return v >> lo
	}
	return (v >> lo) & T((uint64(1)<<width)-1)
}

// Mask returns a value with bits hi..lo (inclusive) set.
func Mask[T Unsigned](lo, hi uint) T {
	width := hi - lo + 1
	if width >= 64 {
		return ^T(0) << lo
	}
	return T((uint64(1)<<width)-1) << lo
}

// SetBit returns v with bit n set to on.
func SetBit[T Unsigned](v T, n uint, on bool) T {
	if on {
		return v | T(1)<<n
	}
	return v &^ (T(1) << n)
}

// SetField returns v with bits hi..lo replaced by the low bits of field.
func SetField[T Unsigned](v T, lo, hi uint, field T) T {
	m := Mask[T](lo, hi)
	return (v &^ m) | ((field << lo) & m)
}

// Byte returns byte n (0 = least significant) of a 32-bit word.
func Byte(v uint32, n uint) uint8 {
	return uint8(v >> (8 * n))
}

// Halfword returns halfword n (0 = least significant) of a 32-bit word.
func Halfword(v uint32, n uint) uint16 {
	return uint16(v >> (16 * n))
}

// SignExtend sign-extends the low width bits of v to 32 bits.
func SignExtend(v uint32, width uint) uint32 {
	shift := 32 - width
	return uint32(int32(v<<shift) >> shift)
}

// RotateRight rotates a 32-bit word right by n (taken modulo 32).
func RotateRight(v uint32, n uint) uint32 {
	n &= 31
	return (v >> n) | (v << (32 - n))
}

// Merge writes the bytes of value selected by mask into old. It is the
// read-modify-write step used by registers that accept sub-word writes.
func Merge(old, value, mask uint32) uint32 {
	return (old &^ mask) | (value & mask)
}
