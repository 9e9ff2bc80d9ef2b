// Package latency provides the per-instruction-class cycle cost model.
//
// Costs are approximate: every instruction class has a fixed cost, with a few
// additive penalties (register-specified shifts, registers transferred by a
// block instruction, pipeline refill, cache misses). The values can be
// configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/ndsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with the default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with a custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the base cost in cycles of an ARM instruction format.
func (t *Table) GetLatency(f insts.Format) uint64 {
	switch f {
	case insts.FormatDataProc, insts.FormatPSR, insts.FormatCLZ,
		insts.FormatQArith, insts.FormatPLD:
		return t.config.ALULatency

	case insts.FormatMultiply, insts.FormatDSPMultiply:
		return t.config.MultiplyLatency

	case insts.FormatMultiplyLong:
		return t.config.MultiplyLongLatency

	case insts.FormatLoadStore, insts.FormatHalfword:
		return t.config.LoadLatency

	case insts.FormatBlock:
		return t.config.BlockLatency

	case insts.FormatSwap:
		return t.config.SwapLatency

	case insts.FormatBranch, insts.FormatBX, insts.FormatBLXReg, insts.FormatBLXImm:
		return t.config.BranchLatency

	case insts.FormatSWI, insts.FormatBKPT:
		return t.config.SyscallLatency

	case insts.FormatCoprocRegister, insts.FormatCoprocData, insts.FormatCoprocTransfer:
		return t.config.CoprocLatency

	default:
		return 1
	}
}

// GetThumbLatency returns the base cost in cycles of a Thumb instruction
// format.
func (t *Table) GetThumbLatency(f insts.Format) uint64 {
	switch f {
	case insts.ThumbShiftImm, insts.ThumbAddSub, insts.ThumbImm8, insts.ThumbALU,
		insts.ThumbHiReg, insts.ThumbLoadAddress, insts.ThumbSPAdjust:
		return t.config.ALULatency

	case insts.ThumbPCLoad, insts.ThumbLoadStoreReg, insts.ThumbLoadStoreSign,
		insts.ThumbLoadStoreImm, insts.ThumbLoadStoreHalf, insts.ThumbSPLoadStore:
		return t.config.LoadLatency

	case insts.ThumbPushPop, insts.ThumbBlock:
		return t.config.BlockLatency

	case insts.ThumbCondBranch, insts.ThumbBranch, insts.ThumbBLPrefix,
		insts.ThumbBLSuffix, insts.ThumbBLXSuffix:
		return t.config.BranchLatency

	case insts.ThumbSWI, insts.ThumbBKPT:
		return t.config.SyscallLatency

	default:
		return 1
	}
}

// IsMemoryOp returns true if the ARM format accesses memory.
func (t *Table) IsMemoryOp(f insts.Format) bool {
	switch f {
	case insts.FormatLoadStore, insts.FormatHalfword, insts.FormatBlock,
		insts.FormatSwap, insts.FormatCoprocTransfer:
		return true
	default:
		return false
	}
}

// IsBranchOp returns true if the ARM format always changes control flow.
func (t *Table) IsBranchOp(f insts.Format) bool {
	switch f {
	case insts.FormatBranch, insts.FormatBX, insts.FormatBLXReg, insts.FormatBLXImm:
		return true
	default:
		return false
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
