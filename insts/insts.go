// Package insts provides ARM and Thumb instruction definitions and decoding.
//
// This package wraps raw opcodes in a read-only Opcode view and classifies
// them into encoding formats. It supports:
//   - The 32-bit ARM instruction set (ARMv4T and the ARMv5TE additions)
//   - The 16-bit Thumb instruction set, including the two-half BL/BLX pair
//   - The 16 condition codes and their truth table
//
// Classification is two-level: the class bits (27..25 for ARM, 15..13 for
// Thumb) select a sub-decoder which inspects further fields.
//
// Usage:
//
//	decoder := insts.NewDecoder(insts.ARMv5)
//	op := insts.Opcode(0xE0910002) // ADDS R0, R1, R2
//	format := decoder.DecodeARM(op)
//	fmt.Printf("Format: %v, Rd: %d, Rn: %d\n", format, op.Rd(), op.Rn())
package insts
