package emu

import (
	"math"
	mathbits "math/bits"

	"github.com/sarchlab/ndsim/bits"
	"github.com/sarchlab/ndsim/insts"
)

// AddWithCarry returns a + b + carry along with the carry-out and signed
// overflow of the 32-bit addition.
func AddWithCarry(a, b uint32, carry bool) (result uint32, carryOut, overflow bool) {
	var cin uint64
	if carry {
		cin = 1
	}
	sum := uint64(a) + uint64(b) + cin
	result = uint32(sum)
	carryOut = sum>>32 != 0
	overflow = bits.Bit(^(a^b)&(a^result), 31)
	return result, carryOut, overflow
}

// Sub returns a - b with ARM carry semantics: carry set means no borrow.
func Sub(a, b uint32) (result uint32, carry, overflow bool) {
	return AddWithCarry(a, ^b, true)
}

// dataOpResult holds the outcome of one of the 16 data-processing
// operations.
type dataOpResult struct {
	value    uint32
	carry    bool
	overflow bool
	// arith is set for the operations whose C and V come from the adder.
	arith bool
}

// evalDataOp evaluates a data-processing operation. shifterCarry is the
// carry-out of the shifter, used by the logical operations.
func evalDataOp(op insts.DataOp, a, b uint32, carryIn, shifterCarry bool) dataOpResult {
	switch op {
	case insts.DataAND, insts.DataTST:
		return dataOpResult{value: a & b, carry: shifterCarry}
	case insts.DataEOR, insts.DataTEQ:
		return dataOpResult{value: a ^ b, carry: shifterCarry}
	case insts.DataORR:
		return dataOpResult{value: a | b, carry: shifterCarry}
	case insts.DataMOV:
		return dataOpResult{value: b, carry: shifterCarry}
	case insts.DataBIC:
		return dataOpResult{value: a &^ b, carry: shifterCarry}
	case insts.DataMVN:
		return dataOpResult{value: ^b, carry: shifterCarry}
	}

	var r dataOpResult
	r.arith = true
	switch op {
	case insts.DataSUB, insts.DataCMP:
		r.value, r.carry, r.overflow = Sub(a, b)
	case insts.DataRSB:
		r.value, r.carry, r.overflow = Sub(b, a)
	case insts.DataADD, insts.DataCMN:
		r.value, r.carry, r.overflow = AddWithCarry(a, b, false)
	case insts.DataADC:
		r.value, r.carry, r.overflow = AddWithCarry(a, b, carryIn)
	case insts.DataSBC:
		r.value, r.carry, r.overflow = AddWithCarry(a, ^b, carryIn)
	case insts.DataRSC:
		r.value, r.carry, r.overflow = AddWithCarry(b, ^a, carryIn)
	}
	return r
}

// setFlags writes N, Z, C and, for arithmetic operations, V.
func (r dataOpResult) setFlags(p *PSR) {
	p.SetNZ(r.value)
	p.SetC(r.carry)
	if r.arith {
		p.SetV(r.overflow)
	}
}

// SaturatingAdd returns a + b clamped to the signed 32-bit range and
// whether clamping happened.
func SaturatingAdd(a, b int32) (int32, bool) {
	return saturate(int64(a) + int64(b))
}

// SaturatingSub returns a - b clamped to the signed 32-bit range and
// whether clamping happened.
func SaturatingSub(a, b int32) (int32, bool) {
	return saturate(int64(a) - int64(b))
}

func saturate(v int64) (int32, bool) {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32, true
	case v < math.MinInt32:
		return math.MinInt32, true
	}
	return int32(v), false
}

// CountLeadingZeros returns the number of zero bits above the highest set
// bit; 32 for zero.
func CountLeadingZeros(v uint32) uint32 {
	return uint32(mathbits.LeadingZeros32(v))
}
