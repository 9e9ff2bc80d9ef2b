package benchmarks

// ARM instruction encoding helpers. Immediates are passed as the 12-bit
// rotate/imm8 field.

// Condition codes.
const (
	CondEQ = 0x0
	CondNE = 0x1
	CondAL = 0xE
)

// Data-processing opcodes.
const (
	OpAND = 0x0
	OpSUB = 0x2
	OpADD = 0x4
	OpCMP = 0xA
	OpORR = 0xC
	OpMOV = 0xD
)

// EncodeDataImm encodes a data-processing instruction with an immediate
// operand: Rd = Rn op imm.
func EncodeDataImm(op, rd, rn uint8, imm12 uint16, setFlags bool) uint32 {
	inst := uint32(CondAL) << 28
	inst |= 1 << 25 // I = 1
	inst |= uint32(op&0xF) << 21
	if setFlags {
		inst |= 1 << 20
	}
	inst |= uint32(rn&0xF) << 16
	inst |= uint32(rd&0xF) << 12
	inst |= uint32(imm12 & 0xFFF)
	return inst
}

// EncodeDataReg encodes a data-processing instruction with an unshifted
// register operand: Rd = Rn op Rm.
func EncodeDataReg(op, rd, rn, rm uint8, setFlags bool) uint32 {
	inst := uint32(CondAL) << 28
	inst |= uint32(op&0xF) << 21
	if setFlags {
		inst |= 1 << 20
	}
	inst |= uint32(rn&0xF) << 16
	inst |= uint32(rd&0xF) << 12
	inst |= uint32(rm & 0xF)
	return inst
}

// EncodeMOVImm encodes MOV Rd, #imm.
func EncodeMOVImm(rd uint8, imm12 uint16) uint32 {
	return EncodeDataImm(OpMOV, rd, 0, imm12, false)
}

// EncodeADDImm encodes ADD/ADDS Rd, Rn, #imm.
func EncodeADDImm(rd, rn uint8, imm12 uint16, setFlags bool) uint32 {
	return EncodeDataImm(OpADD, rd, rn, imm12, setFlags)
}

// EncodeSUBImm encodes SUB/SUBS Rd, Rn, #imm.
func EncodeSUBImm(rd, rn uint8, imm12 uint16, setFlags bool) uint32 {
	return EncodeDataImm(OpSUB, rd, rn, imm12, setFlags)
}

// EncodeMUL encodes MUL Rd, Rm, Rs.
func EncodeMUL(rd, rm, rs uint8) uint32 {
	return uint32(CondAL)<<28 | uint32(rd&0xF)<<16 | uint32(rs&0xF)<<8 | 0x90 | uint32(rm&0xF)
}

// EncodeLDR encodes LDR Rd, [Rn, #imm].
func EncodeLDR(rd, rn uint8, imm12 uint16) uint32 {
	return 0xE5900000 | uint32(rn&0xF)<<16 | uint32(rd&0xF)<<12 | uint32(imm12&0xFFF)
}

// EncodeSTR encodes STR Rd, [Rn, #imm].
func EncodeSTR(rd, rn uint8, imm12 uint16) uint32 {
	return 0xE5800000 | uint32(rn&0xF)<<16 | uint32(rd&0xF)<<12 | uint32(imm12&0xFFF)
}

// EncodeB encodes a conditional branch. offset is relative to the branch
// instruction itself.
func EncodeB(cond uint8, offset int32) uint32 {
	imm24 := uint32((offset-8)/4) & 0xFFFFFF
	return uint32(cond&0xF)<<28 | 0b101<<25 | imm24
}

// EncodeBL encodes a branch with link. offset is relative to the branch
// instruction itself.
func EncodeBL(offset int32) uint32 {
	return EncodeB(CondAL, offset) | 1<<24
}

// EncodeBXLR encodes BX LR.
func EncodeBXLR() uint32 {
	return 0xE12FFF1E
}

// EncodeHalt encodes the CP15 wait-for-interrupt operation
// (MCR p15, 0, R0, c7, c0, 4).
func EncodeHalt() uint32 {
	return 0xEE070F90
}
