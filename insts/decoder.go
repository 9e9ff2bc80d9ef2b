package insts

// Arch selects the architecture revision the decoder accepts.
type Arch uint8

// Architecture revisions.
const (
	ARMv4 Arch = iota // ARMv4T: ARM7TDMI
	ARMv5             // ARMv5TE: ARM946E-S
)

// Format represents an instruction encoding format.
type Format uint8

// ARM instruction formats.
const (
	FormatUnknown Format = iota

	FormatDataProc       // Data processing, immediate or register operand
	FormatMultiply       // MUL, MLA
	FormatMultiplyLong   // UMULL, UMLAL, SMULL, SMLAL
	FormatSwap           // SWP, SWPB
	FormatHalfword       // LDRH, STRH, LDRSB, LDRSH, LDRD, STRD
	FormatPSR            // MRS, MSR (register and immediate)
	FormatBX             // BX
	FormatBLXReg         // BLX register (ARMv5)
	FormatCLZ            // CLZ (ARMv5)
	FormatQArith         // QADD, QSUB, QDADD, QDSUB (ARMv5)
	FormatDSPMultiply    // SMLAxy, SMLAWy, SMULWy, SMLALxy, SMULxy (ARMv5)
	FormatBKPT           // BKPT (ARMv5)
	FormatLoadStore      // LDR, STR, LDRB, STRB
	FormatBlock          // LDM, STM
	FormatBranch         // B, BL
	FormatBLXImm         // BLX immediate (ARMv5, condition 0b1111)
	FormatPLD            // PLD (ARMv5, condition 0b1111)
	FormatCoprocTransfer // LDC, STC
	FormatCoprocData     // CDP
	FormatCoprocRegister // MRC, MCR
	FormatSWI            // SWI
	FormatUndefined      // Architecturally undefined encoding

	numARMFormats
)

// Thumb instruction formats.
const (
	ThumbUnknown Format = iota

	ThumbShiftImm       // LSL, LSR, ASR by immediate
	ThumbAddSub         // ADD, SUB register or 3-bit immediate
	ThumbImm8           // MOV, CMP, ADD, SUB with 8-bit immediate
	ThumbALU            // 16 register-register ALU operations
	ThumbHiReg          // ADD, CMP, MOV on high registers, BX, BLX
	ThumbPCLoad         // LDR Rd, [PC, #imm]
	ThumbLoadStoreReg   // LDR, STR, LDRB, STRB register offset
	ThumbLoadStoreSign  // STRH, LDRSB, LDRH, LDRSH register offset
	ThumbLoadStoreImm   // LDR, STR, LDRB, STRB immediate offset
	ThumbLoadStoreHalf  // LDRH, STRH immediate offset
	ThumbSPLoadStore    // LDR, STR SP-relative
	ThumbLoadAddress    // ADD Rd, PC/SP, #imm
	ThumbSPAdjust       // ADD SP, #+/-imm
	ThumbPushPop        // PUSH, POP
	ThumbBlock          // LDMIA, STMIA
	ThumbCondBranch     // B<cond>
	ThumbSWI            // SWI
	ThumbBKPT           // BKPT (ARMv5)
	ThumbBranch         // B
	ThumbBLPrefix       // first half of BL/BLX
	ThumbBLSuffix       // second half of BL
	ThumbBLXSuffix      // second half of BLX (ARMv5)
	ThumbUndefined      // Architecturally undefined encoding

	numThumbFormats
)

// NumARMFormats is the size of a handler table indexed by ARM format.
const NumARMFormats = int(numARMFormats)

// NumThumbFormats is the size of a handler table indexed by Thumb format.
const NumThumbFormats = int(numThumbFormats)

var armFormatNames = [numARMFormats]string{
	"unknown", "data-processing", "multiply", "multiply-long", "swap",
	"halfword", "psr", "bx", "blx-reg", "clz", "q-arith", "dsp-multiply",
	"bkpt", "load-store", "block", "branch", "blx-imm", "pld",
	"coproc-transfer", "coproc-data", "coproc-register", "swi", "undefined",
}

// ARMName returns a readable name for an ARM format.
func (f Format) ARMName() string {
	if f >= numARMFormats {
		return "invalid"
	}
	return armFormatNames[f]
}

// Decoder classifies raw opcodes into formats.
type Decoder struct {
	arch Arch

	armClasses   [8]func(Opcode) Format
	thumbClasses [8]func(Opcode) Format
}

// NewDecoder creates a decoder for the given architecture revision.
func NewDecoder(arch Arch) *Decoder {
	d := &Decoder{arch: arch}

	d.armClasses = [8]func(Opcode) Format{
		d.armClass000,
		d.armClass001,
		func(Opcode) Format { return FormatLoadStore },
		d.armClass011,
		func(Opcode) Format { return FormatBlock },
		func(Opcode) Format { return FormatBranch },
		func(Opcode) Format { return FormatCoprocTransfer },
		d.armClass111,
	}

	d.thumbClasses = [8]func(Opcode) Format{
		d.thumbClass000,
		func(Opcode) Format { return ThumbImm8 },
		d.thumbClass010,
		func(Opcode) Format { return ThumbLoadStoreImm },
		d.thumbClass100,
		d.thumbClass101,
		d.thumbClass110,
		d.thumbClass111,
	}

	return d
}

// Arch returns the architecture revision of the decoder.
func (d *Decoder) Arch() Arch {
	return d.arch
}

// DecodeARM classifies a 32-bit ARM opcode.
func (d *Decoder) DecodeARM(op Opcode) Format {
	if op.Cond() == CondNV && d.arch >= ARMv5 {
		return d.armUnconditional(op)
	}
	return d.armClasses[op.Bits(25, 27)](op)
}

// DecodeThumb classifies a 16-bit Thumb opcode.
func (d *Decoder) DecodeThumb(op Opcode) Format {
	return d.thumbClasses[op.Bits(13, 15)](op)
}

func (d *Decoder) v5Only(f Format) Format {
	if d.arch >= ARMv5 {
		return f
	}
	return FormatUndefined
}

// armUnconditional decodes the ARMv5 condition 0b1111 space.
func (d *Decoder) armUnconditional(op Opcode) Format {
	switch {
	case op.Bits(25, 27) == 0b101:
		return FormatBLXImm
	case uint32(op)&0x0D70F000 == 0x0550F000:
		return FormatPLD
	}
	return FormatUndefined
}

// armClass000 covers data processing with register operand, multiplies,
// swaps, halfword transfers and the miscellaneous instruction space.
func (d *Decoder) armClass000(op Opcode) Format {
	if op.Bit(7) && op.Bit(4) {
		if op.Bits(5, 6) != 0 {
			return FormatHalfword
		}

		switch op.Bits(23, 24) {
		case 0b00:
			if op.Bit(22) {
				return FormatUndefined
			}
			return FormatMultiply
		case 0b01:
			return FormatMultiplyLong
		case 0b10:
			if op.Bits(20, 21) == 0 && op.Bits(8, 11) == 0 {
				return FormatSwap
			}
		}
		return FormatUndefined
	}

	// TST, TEQ, CMP and CMN without the S bit are the miscellaneous space
	if op.Bits(23, 24) == 0b10 && !op.Bit(20) {
		return d.armMisc(op)
	}

	return FormatDataProc
}

func (d *Decoder) armMisc(op Opcode) Format {
	if op.Bit(7) {
		// bit 4 is clear here, the multiply space was checked first
		return d.v5Only(FormatDSPMultiply)
	}

	switch op.Bits(4, 6) {
	case 0b000:
		return FormatPSR
	case 0b001:
		switch op.Bits(21, 22) {
		case 0b01:
			return FormatBX
		case 0b11:
			return d.v5Only(FormatCLZ)
		}
	case 0b011:
		if op.Bits(21, 22) == 0b01 {
			return d.v5Only(FormatBLXReg)
		}
	case 0b101:
		return d.v5Only(FormatQArith)
	case 0b111:
		if op.Bits(21, 22) == 0b01 {
			return d.v5Only(FormatBKPT)
		}
	}

	return FormatUndefined
}

// armClass001 covers data processing with immediate operand and MSR
// immediate.
func (d *Decoder) armClass001(op Opcode) Format {
	if op.Bits(23, 24) == 0b10 && !op.Bit(20) {
		if op.Bit(21) {
			return FormatPSR
		}
		return FormatUndefined
	}
	return FormatDataProc
}

// armClass011 covers register-offset single transfers. Bit 4 set is the
// architecturally undefined instruction space.
func (d *Decoder) armClass011(op Opcode) Format {
	if op.Bit(4) {
		return FormatUndefined
	}
	return FormatLoadStore
}

// armClass111 covers SWI and the coprocessor operations.
func (d *Decoder) armClass111(op Opcode) Format {
	switch {
	case op.Bit(24):
		return FormatSWI
	case op.Bit(4):
		return FormatCoprocRegister
	}
	return FormatCoprocData
}

// thumbClass000 covers shifts by immediate and add/subtract.
func (d *Decoder) thumbClass000(op Opcode) Format {
	if op.Bits(11, 12) == 0b11 {
		return ThumbAddSub
	}
	return ThumbShiftImm
}

// thumbClass010 covers ALU operations, high register operations, PC-relative
// loads and register-offset transfers.
func (d *Decoder) thumbClass010(op Opcode) Format {
	switch {
	case op.Bit(12):
		if op.Bit(9) {
			return ThumbLoadStoreSign
		}
		return ThumbLoadStoreReg
	case op.Bit(11):
		return ThumbPCLoad
	case op.Bit(10):
		return ThumbHiReg
	}
	return ThumbALU
}

func (d *Decoder) thumbClass100(op Opcode) Format {
	if op.Bit(12) {
		return ThumbSPLoadStore
	}
	return ThumbLoadStoreHalf
}

func (d *Decoder) thumbClass101(op Opcode) Format {
	if !op.Bit(12) {
		return ThumbLoadAddress
	}

	switch op.Bits(8, 11) {
	case 0b0000:
		return ThumbSPAdjust
	case 0b0100, 0b0101, 0b1100, 0b1101:
		return ThumbPushPop
	case 0b1110:
		if d.arch >= ARMv5 {
			return ThumbBKPT
		}
	}
	return ThumbUndefined
}

func (d *Decoder) thumbClass110(op Opcode) Format {
	if !op.Bit(12) {
		return ThumbBlock
	}

	switch op.Bits(8, 11) {
	case 0b1111:
		return ThumbSWI
	case 0b1110:
		return ThumbUndefined
	}
	return ThumbCondBranch
}

func (d *Decoder) thumbClass111(op Opcode) Format {
	switch op.Bits(11, 12) {
	case 0b00:
		return ThumbBranch
	case 0b01:
		if d.arch >= ARMv5 && !op.Bit(0) {
			return ThumbBLXSuffix
		}
		return ThumbUndefined
	case 0b10:
		return ThumbBLPrefix
	}
	return ThumbBLSuffix
}
