// Package mathunit implements the ARM9 divide and square-root
// coprocessor. Results are recomputed on every parameter or control write,
// so the busy bits always read as zero.
package mathunit

// Register addresses.
const (
	AddrDivCnt     = 0x04000280
	AddrNumer      = 0x04000290
	AddrDenom      = 0x04000298
	AddrResult     = 0x040002A0
	AddrRemainder  = 0x040002A8
	AddrSqrtCnt    = 0x040002B0
	AddrSqrtResult = 0x040002B4
	AddrSqrtParam  = 0x040002B8
)

// Divide modes.
const (
	Div32     = 0
	Div64By32 = 1
	Div64     = 2
)

const (
	divModeMask  = 3
	divByZero    = 1 << 14
	sqrtModeMask = 1
)

// Unit holds the divider and square-root registers.
type Unit struct {
	divCnt    uint32
	numer     uint64
	denom     uint64
	result    uint64
	remainder uint64

	sqrtCnt    uint32
	sqrtParam  uint64
	sqrtResult uint32
}

// New creates a math unit in its reset state.
func New() *Unit {
	u := &Unit{}
	u.Reset()
	return u
}

// Reset clears every register.
func (u *Unit) Reset() {
	*u = Unit{}
}

// Result returns DIV_RESULT.
func (u *Unit) Result() uint64 {
	return u.result
}

// Remainder returns DIVREM_RESULT.
func (u *Unit) Remainder() uint64 {
	return u.remainder
}

// SqrtResult returns SQRT_RESULT.
func (u *Unit) SqrtResult() uint32 {
	return u.sqrtResult
}

// DivideByZero reports the error bit of DIVCNT.
func (u *Unit) DivideByZero() bool {
	return u.divCnt&divByZero != 0
}

func (u *Unit) divide() {
	mode := u.divCnt & divModeMask
	if mode == 3 {
		mode = Div64By32
	}

	if u.denom == 0 {
		u.divCnt |= divByZero
	} else {
		u.divCnt &^= divByZero
	}

	var numer, denom int64
	switch mode {
	case Div32:
		numer = int64(int32(u.numer))
		denom = int64(int32(u.denom))
	case Div64By32:
		numer = int64(u.numer)
		denom = int64(int32(u.denom))
	default:
		numer = int64(u.numer)
		denom = int64(u.denom)
	}

	if denom == 0 {
		u.remainder = uint64(numer)
		if numer < 0 {
			u.result = 1
		} else {
			u.result = ^uint64(0)
		}
		if mode == Div32 {
			u.result ^= 0xFFFFFFFF00000000
		}
		return
	}

	// the most negative numerator over -1 yields the numerator itself
	u.result = uint64(numer / denom)
	u.remainder = uint64(numer % denom)
}

func (u *Unit) sqrt() {
	param := u.sqrtParam
	if u.sqrtCnt&sqrtModeMask == 0 {
		param = uint64(uint32(param))
	}
	u.sqrtResult = isqrt(param)
}

// isqrt returns the floor of the square root of v.
func isqrt(v uint64) uint32 {
	var root, bit uint64 = 0, 1 << 62
	for bit > v {
		bit >>= 2
	}
	for bit != 0 {
		if v >= root+bit {
			v -= root + bit
			root = root>>1 + bit
		} else {
			root >>= 1
		}
		bit >>= 2
	}
	return uint32(root)
}

// ReadRegister returns the word at addr, or false if addr is not a math
// unit register.
func (u *Unit) ReadRegister(addr uint32) (uint32, bool) {
	switch addr {
	case AddrDivCnt:
		return u.divCnt, true
	case AddrNumer, AddrNumer + 4:
		return half(u.numer, addr-AddrNumer), true
	case AddrDenom, AddrDenom + 4:
		return half(u.denom, addr-AddrDenom), true
	case AddrResult, AddrResult + 4:
		return half(u.result, addr-AddrResult), true
	case AddrRemainder, AddrRemainder + 4:
		return half(u.remainder, addr-AddrRemainder), true
	case AddrSqrtCnt:
		return u.sqrtCnt, true
	case AddrSqrtResult:
		return u.sqrtResult, true
	case AddrSqrtParam, AddrSqrtParam + 4:
		return half(u.sqrtParam, addr-AddrSqrtParam), true
	}
	return 0, false
}

// WriteRegister writes the bytes of v selected by mask to the word at
// addr. Result registers ignore writes.
func (u *Unit) WriteRegister(addr, v, mask uint32) bool {
	switch addr {
	case AddrDivCnt:
		u.divCnt = u.divCnt&^(mask&divModeMask) | v&mask&divModeMask
		u.divide()
	case AddrNumer, AddrNumer + 4:
		u.numer = setHalf(u.numer, addr-AddrNumer, v, mask)
		u.divide()
	case AddrDenom, AddrDenom + 4:
		u.denom = setHalf(u.denom, addr-AddrDenom, v, mask)
		u.divide()
	case AddrSqrtCnt:
		u.sqrtCnt = u.sqrtCnt&^(mask&sqrtModeMask) | v&mask&sqrtModeMask
		u.sqrt()
	case AddrSqrtParam, AddrSqrtParam + 4:
		u.sqrtParam = setHalf(u.sqrtParam, addr-AddrSqrtParam, v, mask)
		u.sqrt()
	case AddrResult, AddrResult + 4, AddrRemainder, AddrRemainder + 4, AddrSqrtResult:
	default:
		return false
	}
	return true
}

// Ports lists the register words the unit answers.
func (u *Unit) Ports() []uint32 {
	var ports []uint32
	for addr := uint32(AddrDivCnt); addr < AddrSqrtParam+8; addr += 4 {
		if _, ok := u.ReadRegister(addr); ok {
			ports = append(ports, addr)
		}
	}
	return ports
}

func half(v uint64, offset uint32) uint32 {
	return uint32(v >> (8 * offset))
}

func setHalf(cur uint64, offset, v, mask uint32) uint64 {
	shift := 8 * offset
	m := uint64(mask) << shift
	return cur&^m | uint64(v)<<shift&m
}
