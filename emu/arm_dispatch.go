package emu

import "github.com/sarchlab/ndsim/insts"

// armTable maps every ARM format produced by the decoder to its handler.
// The decoder performs the class-bits split (27..25) and the sub-decoding;
// this table is the second level.
func armTable() [insts.NumARMFormats]armHandler {
	return [insts.NumARMFormats]armHandler{
		insts.FormatUnknown:        (*Context).unreachable,
		insts.FormatDataProc:       (*Context).armDataProc,
		insts.FormatMultiply:       (*Context).armMultiply,
		insts.FormatMultiplyLong:   (*Context).armMultiplyLong,
		insts.FormatSwap:           (*Context).armSwap,
		insts.FormatHalfword:       (*Context).armHalfword,
		insts.FormatPSR:            (*Context).armPSR,
		insts.FormatBX:             (*Context).armBX,
		insts.FormatBLXReg:         (*Context).armBLXReg,
		insts.FormatCLZ:            (*Context).armCLZ,
		insts.FormatQArith:         (*Context).armQArith,
		insts.FormatDSPMultiply:    (*Context).armDSPMultiply,
		insts.FormatBKPT:           (*Context).armBKPT,
		insts.FormatLoadStore:      (*Context).armLoadStore,
		insts.FormatBlock:          (*Context).armBlock,
		insts.FormatBranch:         (*Context).armBranch,
		insts.FormatBLXImm:         (*Context).armBLXImm,
		insts.FormatPLD:            (*Context).armPLD,
		insts.FormatCoprocTransfer: (*Context).armCoprocOther,
		insts.FormatCoprocData:     (*Context).armCoprocOther,
		insts.FormatCoprocRegister: (*Context).armCoprocRegister,
		insts.FormatSWI:            (*Context).armSWI,
		insts.FormatUndefined:      (*Context).armUndefined,
	}
}

// mnemonic appends the condition suffix of an ARM opcode. The
// unconditional space has no suffix.
func armMnemonic(base string, op insts.Opcode) string {
	if op.Cond() == insts.CondNV {
		return base
	}
	return base + op.Cond().String()
}

func (c *Context) armUndefined(op insts.Opcode) int {
	if c.Disasm != nil {
		c.Disasm.set("UND", "0x%08X", uint32(op))
		return 0
	}
	return c.unimplemented(op)
}

func (c *Context) armPLD(op insts.Opcode) int {
	if c.Disasm != nil {
		c.Disasm.set("PLD", "[%s]", regName(op.Rn()))
		return 0
	}
	return c.cost(insts.FormatPLD)
}

func (c *Context) armSWI(op insts.Opcode) int {
	if c.Disasm != nil {
		c.Disasm.set(armMnemonic("SWI", op), "#0x%X", op.Bits(0, 23))
		return 0
	}
	c.EnterException(ExceptionSWI, c.addr+4)
	return c.cost(insts.FormatSWI)
}

func (c *Context) armBKPT(op insts.Opcode) int {
	if c.Disasm != nil {
		c.Disasm.set("BKPT", "#0x%X", op.Bits(8, 19)<<4|op.Bits(0, 3))
		return 0
	}
	c.EnterException(ExceptionPrefetchAbort, c.addr+4)
	return c.cost(insts.FormatBKPT)
}
