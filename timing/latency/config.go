package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the approximate cycle cost of each instruction class.
// Values are in CPU cycles of the executing core and follow the ARM7TDMI /
// ARM946E-S technical reference manuals rounded to a fixed cost per class.
type TimingConfig struct {
	// ALULatency is the cost of a data-processing instruction. Default: 1.
	ALULatency uint64 `json:"alu_latency"`

	// ShiftByRegisterPenalty is added when the shift amount comes from a
	// register. Default: 1.
	ShiftByRegisterPenalty uint64 `json:"shift_by_register_penalty"`

	// MultiplyLatency is the cost of MUL/MLA and the DSP 32-bit multiplies.
	// Default: 2.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// MultiplyLongLatency is the cost of the 64-bit result multiplies.
	// Default: 3.
	MultiplyLongLatency uint64 `json:"multiply_long_latency"`

	// LoadLatency is the cost of a single register load. Default: 3.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the cost of a single register store. Default: 2.
	StoreLatency uint64 `json:"store_latency"`

	// BlockLatency is the fixed part of LDM/STM/PUSH/POP. Default: 2.
	BlockLatency uint64 `json:"block_latency"`

	// BlockPerRegisterLatency is added per transferred register. Default: 1.
	BlockPerRegisterLatency uint64 `json:"block_per_register_latency"`

	// SwapLatency is the cost of SWP/SWPB. Default: 4.
	SwapLatency uint64 `json:"swap_latency"`

	// BranchLatency is the cost of a branch before the refill. Default: 1.
	BranchLatency uint64 `json:"branch_latency"`

	// PipelineRefillPenalty is added whenever an instruction writes the
	// program counter. Default: 2.
	PipelineRefillPenalty uint64 `json:"pipeline_refill_penalty"`

	// SyscallLatency is the cost of SWI and BKPT before the refill.
	// Default: 1.
	SyscallLatency uint64 `json:"syscall_latency"`

	// CoprocLatency is the cost of MRC/MCR. Default: 2.
	CoprocLatency uint64 `json:"coproc_latency"`

	// ConditionFailedLatency is the cost of an instruction whose condition
	// does not hold. Default: 1.
	ConditionFailedLatency uint64 `json:"condition_failed_latency"`

	// ICacheMissPenalty is added to a fetch that misses the instruction
	// cache. Default: 8.
	ICacheMissPenalty uint64 `json:"icache_miss_penalty"`

	// DCacheMissPenalty is added to a data access that misses the data
	// cache. Default: 8.
	DCacheMissPenalty uint64 `json:"dcache_miss_penalty"`
}

// DefaultTimingConfig returns a TimingConfig with the default cycle costs.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:              1,
		ShiftByRegisterPenalty:  1,
		MultiplyLatency:         2,
		MultiplyLongLatency:     3,
		LoadLatency:             3,
		StoreLatency:            2,
		BlockLatency:            2,
		BlockPerRegisterLatency: 1,
		SwapLatency:             4,
		BranchLatency:           1,
		PipelineRefillPenalty:   2,
		SyscallLatency:          1,
		CoprocLatency:           2,
		ConditionFailedLatency:  1,
		ICacheMissPenalty:       8,
		DCacheMissPenalty:       8,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that every per-instruction cost is at least one cycle.
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.MultiplyLatency == 0 || c.MultiplyLongLatency == 0 {
		return fmt.Errorf("multiply latencies must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.BlockLatency == 0 {
		return fmt.Errorf("block_latency must be > 0")
	}
	if c.SwapLatency == 0 {
		return fmt.Errorf("swap_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.SyscallLatency == 0 {
		return fmt.Errorf("syscall_latency must be > 0")
	}
	if c.CoprocLatency == 0 {
		return fmt.Errorf("coproc_latency must be > 0")
	}
	if c.ConditionFailedLatency == 0 {
		return fmt.Errorf("condition_failed_latency must be > 0")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
