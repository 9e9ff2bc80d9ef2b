package benchmarks

import (
	"github.com/sarchlab/ndsim/emu"
	"github.com/sarchlab/ndsim/mem"
)

// Immediates used by the programs, in rotate/imm8 form.
const (
	immScratch = 0x621 // 0x02100000
	immDTCM    = 0x79F // 0x027C0000
)

// GetMicrobenchmarks returns the standard set of CPU9 microbenchmarks.
// Each benchmark targets a specific CPU characteristic.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		tcmSequential(),
		functionCalls(),
		branchLoop(),
		multiplyChain(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		branchLoop(),
		memorySequential(),
		functionCalls(),
	}
}

func arithmeticSequential() Benchmark {
	instrs := make([]uint32, 0, 21)
	for i := 0; i < 20; i++ {
		r := uint8(i % 5)
		instrs = append(instrs, EncodeADDImm(r, r, 1, false))
	}
	instrs = append(instrs, EncodeHalt())

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADD operations - measures ALU throughput",
		Program:     BuildProgram(instrs...),
		// R0 = 0 + 4*1
		ExpectedExit: 4,
	}
}

func dependencyChain() Benchmark {
	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDs (R0 = R0 + 1)",
		Program:      buildDependencyChain(20),
		ExpectedExit: 20,
	}
}

func buildDependencyChain(n int) []byte {
	instrs := make([]uint32, 0, n+1)
	for i := 0; i < n; i++ {
		instrs = append(instrs, EncodeADDImm(0, 0, 1, false))
	}
	instrs = append(instrs, EncodeHalt())
	return BuildProgram(instrs...)
}

// storeLoadPairs stores R0 at ten consecutive words from R1 and reads each
// back.
func storeLoadPairs(base uint16) []byte {
	instrs := []uint32{EncodeMOVImm(1, base)}
	for i := uint16(0); i < 10; i++ {
		instrs = append(instrs, EncodeSTR(0, 1, 4*i), EncodeLDR(0, 1, 4*i))
	}
	instrs = append(instrs, EncodeHalt())
	return BuildProgram(instrs...)
}

func setR0(v uint32) func(*emu.RegFile, *mem.Bus) {
	return func(regs *emu.RegFile, _ *mem.Bus) {
		regs.SetR(0, v)
	}
}

func memorySequential() Benchmark {
	return Benchmark{
		Name:         "memory_sequential",
		Description:  "10 store/load pairs to main RAM - measures cached memory latency",
		Setup:        setR0(42),
		Program:      storeLoadPairs(immScratch),
		ExpectedExit: 42,
	}
}

func tcmSequential() Benchmark {
	return Benchmark{
		Name:         "tcm_sequential",
		Description:  "10 store/load pairs to the DTCM - measures uncached TCM latency",
		Setup:        setR0(42),
		Program:      storeLoadPairs(immDTCM),
		ExpectedExit: 42,
	}
}

func functionCalls() Benchmark {
	const calls = 5
	instrs := []uint32{EncodeMOVImm(0, 0)}
	funcIndex := 1 + calls + 1
	for i := 1; i <= calls; i++ {
		instrs = append(instrs, EncodeBL(int32(4*(funcIndex-i))))
	}
	instrs = append(instrs,
		EncodeHalt(),
		EncodeADDImm(0, 0, 1, false),
		EncodeBXLR(),
	)

	return Benchmark{
		Name:         "function_calls",
		Description:  "5 function calls (BL + BX LR pairs) - measures call overhead",
		Program:      BuildProgram(instrs...),
		ExpectedExit: calls,
	}
}

func branchLoop() Benchmark {
	return Benchmark{
		Name:        "branch_loop",
		Description: "10-iteration counted loop - measures taken branch cost",
		Program: BuildProgram(
			EncodeMOVImm(0, 0),
			EncodeMOVImm(1, 10),
			EncodeADDImm(0, 0, 1, false), // loop:
			EncodeSUBImm(1, 1, 1, true),
			EncodeB(CondNE, -8),
			EncodeHalt(),
		),
		ExpectedExit: 10,
	}
}

func multiplyChain() Benchmark {
	instrs := []uint32{
		EncodeMOVImm(0, 1),
		EncodeMOVImm(1, 3),
	}
	for i := 0; i < 5; i++ {
		instrs = append(instrs,
			EncodeMUL(2, 0, 1),
			EncodeDataReg(OpMOV, 0, 0, 2, false),
		)
	}
	instrs = append(instrs, EncodeHalt())

	return Benchmark{
		Name:         "multiply_chain",
		Description:  "5 dependent multiplies - measures multiplier latency",
		Program:      BuildProgram(instrs...),
		ExpectedExit: 243,
	}
}
