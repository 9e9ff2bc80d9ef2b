package script_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/loader"
	"github.com/sarchlab/ndsim/machine"
	"github.com/sarchlab/ndsim/script"
)

var _ = Describe("Engine", func() {
	var (
		m   *machine.Machine
		e   *script.Engine
		out *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		m, err = machine.New()
		Expect(err).NotTo(HaveOccurred())

		prog := &loader.Program{
			EntryPoint: 0x02000000,
			Segments: []loader.Segment{{
				Addr: 0x02000000,
				Data: []byte{
					0x2A, 0x00, 0xA0, 0xE3, // MOV R0, #0x2A
					0xFE, 0xFF, 0xFF, 0xEA, // B .
				},
				MemSize: 8,
			}},
		}
		Expect(m.BootELF(prog)).To(Succeed())

		out = &bytes.Buffer{}
		e = script.New(m, out)
		DeferCleanup(e.Close)
	})

	It("should step and read registers", func() {
		Expect(e.Run(`
			local pc = step(9)
			print(pc == 0x02000000, reg(9, 0))
		`)).To(Succeed())
		Expect(out.String()).To(Equal("true\t42\n"))
	})

	It("should write registers and memory", func() {
		Expect(e.Run(`
			setreg(7, 3, 0x1234)
			write32(9, 0x02100000, 0xCAFEF00D)
			write8(7, 0x02100004, 0x1FF)
			print(reg(7, 3), read32(7, 0x02100000) == 0xCAFEF00D, read16(9, 0x02100004))
		`)).To(Succeed())
		Expect(out.String()).To(Equal("4660\ttrue\t255\n"))
	})

	It("should disassemble at the PC", func() {
		Expect(e.Run(`print(disasm(9), disasm(9, 0x02000004))`)).To(Succeed())
		Expect(out.String()).To(Equal("MOV R0, #0x2A\tB 0x02000004\n"))
	})

	It("should run ticks and report statistics", func() {
		Expect(e.Run(`
			run(100)
			local s = stats()
			print(s.ticks, halted(7), s.cpu9_cycles >= 200)
		`)).To(Succeed())
		Expect(out.String()).To(Equal("100\tfalse\ttrue\n"))
	})

	It("should report the CPSR", func() {
		Expect(e.Run(`print(cpsr(9) % 32 == 0x1F)`)).To(Succeed())
		Expect(out.String()).To(Equal("true\n"))
	})

	It("should reject an unknown CPU", func() {
		err := e.Run(`reg(5, 0)`)
		Expect(err).To(MatchError(ContainSubstring("cpu must be 9 or 7")))
	})

	It("should run a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "test.lua")
		Expect(os.WriteFile(path, []byte(`frame() print(stats().frames)`), 0o644)).To(Succeed())

		Expect(e.RunFile(path)).To(Succeed())
		Expect(out.String()).To(Equal("1\n"))
	})
})
