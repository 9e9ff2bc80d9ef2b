// Package bios generates the exception vector stubs installed when no
// BIOS image is supplied. The stubs cover what direct-booted software
// relies on: the IRQ vector dispatches to the handler pointer the
// software installs, and the software interrupt and undefined vectors
// return immediately.
package bios

import "encoding/binary"

// Handler pointer locations read by the IRQ stub.
const (
	// IRQHandlerOffset9 is added to the DTCM base on the CPU9.
	IRQHandlerOffset9 = 0x3FFC
	// IRQHandler7 is the CPU7 handler pointer, the last word of its
	// private work RAM.
	IRQHandler7 = 0x0380FFFC
)

// Vector table offsets.
const (
	VectorReset         = 0x00
	VectorUndefined     = 0x04
	VectorSWI           = 0x08
	VectorPrefetchAbort = 0x0C
	VectorDataAbort     = 0x10
	VectorReserved      = 0x14
	VectorIRQ           = 0x18
	VectorFIQ           = 0x1C

	// IRQEntry is where the IRQ vector branches to.
	IRQEntry = 0x20
)

// Encoded instructions used by the stubs.
const (
	opLoop       = 0xEAFFFFFE // B .
	opReturn     = 0xE1B0F00E // MOVS PC, LR
	opReturnIRQ  = 0xE25EF004 // SUBS PC, LR, #4
	opReturnDABT = 0xE25EF008 // SUBS PC, LR, #8
	opBranchIRQ  = 0xEA000000 // B IRQEntry from VectorIRQ

	opPush     = 0xE92D500F // STMDB SP!, {R0-R3, R12, LR}
	opPop      = 0xE8BD500F // LDMIA SP!, {R0-R3, R12, LR}
	opLinkPC   = 0xE1A0E00F // MOV LR, PC
	opCallR0   = 0xE12FFF10 // BX R0
	opLoadPtr  = 0xE5100004 // LDR R0, [R0, #-4]
	opDTCMBase = 0xEE190F11 // MRC p15, 0, R0, c9, c1, 0
	opClearLo  = 0xE1A00620 // MOV R0, R0, LSR #12
	opRestore  = 0xE1A00600 // MOV R0, R0, LSL #12
	opAddDTCM  = 0xE2800901 // ADD R0, R0, #0x4000
	opIOBase   = 0xE3A00301 // MOV R0, #0x04000000
)

func vectors() []uint32 {
	return []uint32{
		opLoop,       // reset
		opReturn,     // undefined
		opReturn,     // swi
		opReturnIRQ,  // prefetch abort
		opReturnDABT, // data abort
		opLoop,       // reserved
		opBranchIRQ,  // irq
		opReturnIRQ,  // fiq
	}
}

// irqEntry loads the handler pointer into R0, calls it and returns from
// the exception.
func irqEntry(loadPointer []uint32) []uint32 {
	code := []uint32{opPush}
	code = append(code, loadPointer...)
	return append(code, opLinkPC, opCallR0, opPop, opReturnIRQ)
}

// Stub9 returns the CPU9 stub, to be mapped at the high vector base. The
// IRQ handler pointer is read from the last word of the DTCM.
func Stub9() []byte {
	return assemble(append(vectors(), irqEntry([]uint32{
		opDTCMBase, opClearLo, opRestore, opAddDTCM, opLoadPtr,
	})...))
}

// Stub7 returns the CPU7 stub, to be mapped at address 0. The IRQ handler
// pointer is read through the work RAM mirror just below the I/O region.
func Stub7() []byte {
	return assemble(append(vectors(), irqEntry([]uint32{
		opIOBase, opLoadPtr,
	})...))
}

func assemble(code []uint32) []byte {
	out := make([]byte, 4*len(code))
	for i, op := range code {
		binary.LittleEndian.PutUint32(out[4*i:], op)
	}
	return out
}
