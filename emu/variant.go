package emu

import "github.com/sarchlab/ndsim/insts"

// Variant carries the handful of values that differ between the two CPUs.
// One decode tree and one set of handlers serve both; handlers consult the
// variant where behavior diverges.
type Variant struct {
	// Name identifies the CPU in logs ("cpu9", "cpu7").
	Name string

	// Arch selects the instruction set revision accepted by the decoder.
	Arch insts.Arch

	// VectorBase is the address of the exception vector table.
	VectorBase uint32

	// HasCP15 reports whether the system control coprocessor is present.
	HasCP15 bool

	// Interworking reports whether loads into R15 switch instruction set
	// based on bit 0 of the loaded value.
	Interworking bool
}

// CPU9 is the ARM946E-S (ARMv5TE).
var CPU9 = Variant{
	Name:         "cpu9",
	Arch:         insts.ARMv5,
	VectorBase:   0xFFFF0000,
	HasCP15:      true,
	Interworking: true,
}

// CPU7 is the ARM7TDMI (ARMv4T).
var CPU7 = Variant{
	Name:         "cpu7",
	Arch:         insts.ARMv4,
	VectorBase:   0x00000000,
	HasCP15:      false,
	Interworking: false,
}

// IsARMv5 reports whether the variant implements the ARMv5TE additions.
func (v *Variant) IsARMv5() bool {
	return v.Arch >= insts.ARMv5
}

// Exception identifies an exception vector.
type Exception uint8

// Exception kinds, in vector-table order.
const (
	ExceptionReset Exception = iota
	ExceptionUndefined
	ExceptionSWI
	ExceptionPrefetchAbort
	ExceptionDataAbort
	exceptionReserved
	ExceptionIRQ
	ExceptionFIQ
)

var exceptionNames = [...]string{
	"reset", "undefined", "swi", "prefetch-abort", "data-abort", "reserved", "irq", "fiq",
}

func (e Exception) String() string {
	if int(e) < len(exceptionNames) {
		return exceptionNames[e]
	}
	return "invalid"
}

// Mode returns the processor mode the exception enters.
func (e Exception) Mode() Mode {
	switch e {
	case ExceptionUndefined:
		return ModeUND
	case ExceptionPrefetchAbort, ExceptionDataAbort:
		return ModeABT
	case ExceptionIRQ:
		return ModeIRQ
	case ExceptionFIQ:
		return ModeFIQ
	default:
		return ModeSVC
	}
}

// Vector returns the address of the exception's vector for the variant.
func (v *Variant) Vector(e Exception) uint32 {
	return v.VectorBase + uint32(e)*4
}
