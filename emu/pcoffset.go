package emu

// PCOffset names the ways an instruction can read R15. Each kind sees the
// program counter a fixed distance ahead of the executing instruction,
// depending on the instruction set.
type PCOffset uint8

// PC read kinds.
const (
	// PCOffsetALU is an operand of a data-processing or multiply
	// instruction, or a branch base.
	PCOffsetALU PCOffset = iota

	// PCOffsetShiftByRegister is a data-processing operand when the shift
	// amount comes from a register. The extra internal cycle advances the
	// pipeline one more word.
	PCOffsetShiftByRegister

	// PCOffsetAddress is the base or offset of a load/store address.
	PCOffsetAddress

	// PCOffsetStore is the value of R15 written to memory by STR and STM.
	PCOffsetStore

	numPCOffsets
)

// pcOffsets[thumb][kind]
var pcOffsets = [2][numPCOffsets]uint32{
	{8, 12, 8, 12},
	{4, 4, 4, 4},
}

var pcOffsetNames = [numPCOffsets]string{"alu", "shift-by-register", "address", "store"}

func (k PCOffset) String() string {
	if k >= numPCOffsets {
		return "invalid"
	}
	return pcOffsetNames[k]
}

// Offset returns the number of bytes added to the current instruction
// address when R15 is read this way.
func (k PCOffset) Offset(thumb bool) uint32 {
	t := 0
	if thumb {
		t = 1
	}
	return pcOffsets[t][k%numPCOffsets]
}
