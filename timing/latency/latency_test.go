package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/insts"
	"github.com/sarchlab/ndsim/timing/latency"
)

var _ = Describe("Latency", func() {
	var (
		table   *latency.Table
		decoder *insts.Decoder
	)

	BeforeEach(func() {
		table = latency.NewTable()
		decoder = insts.NewDecoder(insts.ARMv5)
	})

	Describe("Default Timing Values", func() {
		It("should have correct ALU latency", func() {
			Expect(table.Config().ALULatency).To(Equal(uint64(1)))
		})

		It("should have correct load latency", func() {
			Expect(table.Config().LoadLatency).To(Equal(uint64(3)))
		})

		It("should have correct refill penalty", func() {
			Expect(table.Config().PipelineRefillPenalty).To(Equal(uint64(2)))
		})
	})

	Describe("ARM Instruction Latencies", func() {
		It("should return 1 cycle for ADDS register", func() {
			// ADDS R0, R1, R2 -> 0xE0910002
			f := decoder.DecodeARM(insts.Opcode(0xE0910002))
			Expect(table.GetLatency(f)).To(Equal(uint64(1)))
		})

		It("should return MultiplyLatency for MUL", func() {
			// MUL R0, R1, R2 -> 0xE0000291
			f := decoder.DecodeARM(insts.Opcode(0xE0000291))
			Expect(table.GetLatency(f)).To(Equal(uint64(2)))
		})

		It("should return MultiplyLongLatency for UMULL", func() {
			// UMULL R0, R1, R2, R3 -> 0xE0810392
			f := decoder.DecodeARM(insts.Opcode(0xE0810392))
			Expect(table.GetLatency(f)).To(Equal(uint64(3)))
		})

		It("should return LoadLatency for LDR", func() {
			// LDR R0, [R1, #4] -> 0xE5910004
			f := decoder.DecodeARM(insts.Opcode(0xE5910004))
			Expect(table.GetLatency(f)).To(Equal(uint64(3)))
		})

		It("should return BranchLatency for B", func() {
			f := decoder.DecodeARM(insts.Opcode(0xEA000000))
			Expect(table.GetLatency(f)).To(Equal(uint64(1)))
		})

		It("should return 1 cycle for undefined encodings", func() {
			Expect(table.GetLatency(insts.FormatUndefined)).To(Equal(uint64(1)))
		})
	})

	Describe("Thumb Instruction Latencies", func() {
		It("should return LoadLatency for LDR PC-relative", func() {
			f := decoder.DecodeThumb(insts.Opcode(0x4801))
			Expect(table.GetThumbLatency(f)).To(Equal(uint64(3)))
		})

		It("should return BlockLatency for PUSH", func() {
			f := decoder.DecodeThumb(insts.Opcode(0xB500))
			Expect(table.GetThumbLatency(f)).To(Equal(uint64(2)))
		})
	})

	Describe("Instruction Type Detection", func() {
		It("should detect memory operations", func() {
			Expect(table.IsMemoryOp(insts.FormatLoadStore)).To(BeTrue())
			Expect(table.IsMemoryOp(insts.FormatSwap)).To(BeTrue())
			Expect(table.IsMemoryOp(insts.FormatDataProc)).To(BeFalse())
		})

		It("should detect branch operations", func() {
			Expect(table.IsBranchOp(insts.FormatBranch)).To(BeTrue())
			Expect(table.IsBranchOp(insts.FormatBX)).To(BeTrue())
			Expect(table.IsBranchOp(insts.FormatLoadStore)).To(BeFalse())
		})
	})

	Describe("Custom Configuration", func() {
		It("should use custom config values", func() {
			config := latency.DefaultTimingConfig()
			config.ALULatency = 2
			config.LoadLatency = 8
			config.BranchLatency = 3
			customTable := latency.NewTableWithConfig(config)

			Expect(customTable.GetLatency(insts.FormatDataProc)).To(Equal(uint64(2)))
			Expect(customTable.GetLatency(insts.FormatLoadStore)).To(Equal(uint64(8)))
			Expect(customTable.GetLatency(insts.FormatBranch)).To(Equal(uint64(3)))
		})
	})
})

var _ = Describe("TimingConfig", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			config := latency.DefaultTimingConfig()
			Expect(config.Validate()).To(Succeed())
		})
	})

	Describe("Validation", func() {
		It("should reject zero ALU latency", func() {
			config := latency.DefaultTimingConfig()
			config.ALULatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero branch latency", func() {
			config := latency.DefaultTimingConfig()
			config.BranchLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero load latency", func() {
			config := latency.DefaultTimingConfig()
			config.LoadLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero condition-failed latency", func() {
			config := latency.DefaultTimingConfig()
			config.ConditionFailedLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should accept zero cache miss penalties", func() {
			config := latency.DefaultTimingConfig()
			config.ICacheMissPenalty = 0
			config.DCacheMissPenalty = 0
			Expect(config.Validate()).To(Succeed())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultTimingConfig()
			clone := original.Clone()

			clone.ALULatency = 100

			Expect(original.ALULatency).To(Equal(uint64(1)))
			Expect(clone.ALULatency).To(Equal(uint64(100)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := latency.DefaultTimingConfig()
			original.ALULatency = 5
			original.LoadLatency = 10

			path := filepath.Join(tempDir, "timing.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ALULatency).To(Equal(uint64(5)))
			Expect(loaded.LoadLatency).To(Equal(uint64(10)))
		})

		It("should keep defaults for fields missing from the file", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"alu_latency": 4}`), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ALULatency).To(Equal(uint64(4)))
			Expect(loaded.SwapLatency).To(Equal(uint64(4)))
			Expect(loaded.PipelineRefillPenalty).To(Equal(uint64(2)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig("/nonexistent/path/timing.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
