package insts

import "github.com/sarchlab/ndsim/bits"

// Opcode is a read-only view over a raw ARM (32-bit) or Thumb (16-bit)
// instruction word. Thumb opcodes occupy the low 16 bits.
type Opcode uint32

// Bit reports whether bit n is set.
func (o Opcode) Bit(n uint) bool {
	return bits.Bit(uint32(o), n)
}

// Bits returns bits hi..lo (inclusive) shifted down to bit 0.
func (o Opcode) Bits(lo, hi uint) uint32 {
	return bits.Field(uint32(o), lo, hi)
}

// Byte returns byte n of the opcode.
func (o Opcode) Byte(n uint) uint8 {
	return bits.Byte(uint32(o), n)
}

// Halfword returns halfword n of the opcode.
func (o Opcode) Halfword(n uint) uint16 {
	return bits.Halfword(uint32(o), n)
}

// Cond returns the ARM condition field (bits 31..28).
func (o Opcode) Cond() Cond {
	return Cond(o >> 28)
}

// Rn returns the ARM first operand / base register (bits 19..16).
func (o Opcode) Rn() int {
	return int(o.Bits(16, 19))
}

// Rd returns the ARM destination register (bits 15..12).
func (o Opcode) Rd() int {
	return int(o.Bits(12, 15))
}

// Rs returns the ARM shift-amount / multiplier register (bits 11..8).
func (o Opcode) Rs() int {
	return int(o.Bits(8, 11))
}

// Rm returns the ARM second operand register (bits 3..0).
func (o Opcode) Rm() int {
	return int(o.Bits(0, 3))
}

// SetFlags returns the S bit (bit 20) of data-processing and multiply
// instructions.
func (o Opcode) SetFlags() bool {
	return o.Bit(20)
}

// Immediate reports whether bit 25 (the I bit) is set.
func (o Opcode) Immediate() bool {
	return o.Bit(25)
}

// ThumbLow3 returns a Thumb 3-bit register field starting at bit lo.
func (o Opcode) ThumbLow3(lo uint) int {
	return int(o.Bits(lo, lo+2))
}

// ShiftType represents a barrel shifter operation.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right (RRX when the immediate amount is 0)
)

var shiftNames = [4]string{"LSL", "LSR", "ASR", "ROR"}

func (s ShiftType) String() string {
	return shiftNames[s&3]
}

// DataOp is one of the 16 data-processing operations.
type DataOp uint8

// Data-processing operations (bits 24..21).
const (
	DataAND DataOp = iota
	DataEOR
	DataSUB
	DataRSB
	DataADD
	DataADC
	DataSBC
	DataRSC
	DataTST
	DataTEQ
	DataCMP
	DataCMN
	DataORR
	DataMOV
	DataBIC
	DataMVN
)

var dataOpNames = [16]string{
	"AND", "EOR", "SUB", "RSB", "ADD", "ADC", "SBC", "RSC",
	"TST", "TEQ", "CMP", "CMN", "ORR", "MOV", "BIC", "MVN",
}

func (d DataOp) String() string {
	return dataOpNames[d&0xF]
}

// IsTest reports whether the operation only sets flags (TST, TEQ, CMP, CMN).
func (d DataOp) IsTest() bool {
	return d >= DataTST && d <= DataCMN
}

// IsLogical reports whether the operation takes its carry from the shifter.
func (d DataOp) IsLogical() bool {
	switch d {
	case DataAND, DataEOR, DataTST, DataTEQ, DataORR, DataMOV, DataBIC, DataMVN:
		return true
	}
	return false
}

// DataOp returns the data-processing operation field (bits 24..21).
func (o Opcode) DataOp() DataOp {
	return DataOp(o.Bits(21, 24))
}
