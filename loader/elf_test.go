package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/loader"
)

const (
	machineARM = 40
	machineX86 = 3
)

// testSegment describes one PT_LOAD segment of a generated ELF.
type testSegment struct {
	addr    uint32
	data    []byte
	memSize uint32
	flags   uint32
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	code := []byte{
		0x2A, 0x00, 0xA0, 0xE3, // mov r0, #42
		0x1E, 0xFF, 0x2F, 0xE1, // bx lr
	}

	Context("with a valid ARM ELF binary", func() {
		var elfPath string

		BeforeEach(func() {
			elfPath = filepath.Join(tempDir, "test.elf")
			createARMELF(elfPath, machineARM, 0x02000000, []testSegment{
				{addr: 0x02000000, data: code, flags: 0x5},
			})
		})

		It("should extract the entry point", func() {
			prog, err := loader.LoadELF(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x02000000)))
		})

		It("should load segment contents and permissions", func() {
			prog, err := loader.LoadELF(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(1))

			seg := prog.Segments[0]
			Expect(seg.Addr).To(Equal(uint32(0x02000000)))
			Expect(seg.Data).To(Equal(code))
			Expect(seg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())
			Expect(seg.Flags & loader.SegmentFlagWrite).To(BeZero())
		})
	})

	It("should keep a Thumb entry bit", func() {
		elfPath := filepath.Join(tempDir, "thumb.elf")
		createARMELF(elfPath, machineARM, 0x02000001, []testSegment{
			{addr: 0x02000000, data: code, flags: 0x5},
		})

		prog, err := loader.LoadELF(elfPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.EntryPoint & 1).To(Equal(uint32(1)))
	})

	It("should load multiple segments with BSS", func() {
		elfPath := filepath.Join(tempDir, "multi.elf")
		data := []byte{1, 2, 3, 4}
		createARMELF(elfPath, machineARM, 0x02000000, []testSegment{
			{addr: 0x02000000, data: code, flags: 0x5},
			{addr: 0x02100000, data: data, memSize: 1024, flags: 0x6},
		})

		prog, err := loader.LoadELF(elfPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Segments).To(HaveLen(2))

		bss := prog.Segments[1]
		Expect(bss.Data).To(Equal(data))
		Expect(bss.MemSize).To(Equal(uint32(1024)))
		Expect(bss.Flags & loader.SegmentFlagWrite).NotTo(BeZero())
	})

	Context("with an invalid file", func() {
		It("should return error for non-existent file", func() {
			_, err := loader.LoadELF("/nonexistent/path/to/file.elf")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to open"))
		})

		It("should return error for non-ELF file", func() {
			path := filepath.Join(tempDir, "not-elf.bin")
			Expect(os.WriteFile(path, []byte("not an elf file"), 0644)).To(Succeed())

			_, err := loader.LoadELF(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("ELF"))
		})

		It("should reject other machines", func() {
			path := filepath.Join(tempDir, "x86.elf")
			createARMELF(path, machineX86, 0, nil)

			_, err := loader.LoadELF(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not an ARM"))
		})

		It("should reject 64-bit files", func() {
			path := filepath.Join(tempDir, "elf64.elf")
			createMinimal64BitELF(path)

			_, err := loader.LoadELF(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not a 32-bit"))
		})
	})
})

// createARMELF writes a little-endian ELF32 executable with the given
// PT_LOAD segments.
func createARMELF(path string, machine uint16, entry uint32, segs []testSegment) {
	const ehsize, phentsize = 52, 32

	header := make([]byte, ehsize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1                                   // 32-bit
	header[5] = 1                                   // little endian
	header[6] = 1                                   // version
	binary.LittleEndian.PutUint16(header[16:18], 2) // executable
	binary.LittleEndian.PutUint16(header[18:20], machine)
	binary.LittleEndian.PutUint32(header[20:24], 1) // version
	binary.LittleEndian.PutUint32(header[24:28], entry)
	binary.LittleEndian.PutUint32(header[28:32], ehsize) // phoff
	binary.LittleEndian.PutUint16(header[40:42], ehsize)
	binary.LittleEndian.PutUint16(header[42:44], phentsize)
	binary.LittleEndian.PutUint16(header[44:46], uint16(len(segs)))
	binary.LittleEndian.PutUint16(header[46:48], 40) // shentsize

	offset := uint32(ehsize + phentsize*len(segs))
	var progs, payload []byte
	for _, s := range segs {
		memSize := s.memSize
		if memSize == 0 {
			memSize = uint32(len(s.data))
		}

		ph := make([]byte, phentsize)
		binary.LittleEndian.PutUint32(ph[0:4], 1) // PT_LOAD
		binary.LittleEndian.PutUint32(ph[4:8], offset)
		binary.LittleEndian.PutUint32(ph[8:12], s.addr)
		binary.LittleEndian.PutUint32(ph[12:16], s.addr)
		binary.LittleEndian.PutUint32(ph[16:20], uint32(len(s.data)))
		binary.LittleEndian.PutUint32(ph[20:24], memSize)
		binary.LittleEndian.PutUint32(ph[24:28], s.flags)
		binary.LittleEndian.PutUint32(ph[28:32], 4)

		progs = append(progs, ph...)
		payload = append(payload, s.data...)
		offset += uint32(len(s.data))
	}

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()
	_, _ = file.Write(header)
	_, _ = file.Write(progs)
	_, _ = file.Write(payload)
}

// createMinimal64BitELF creates a minimal 64-bit ELF to test rejection.
func createMinimal64BitELF(path string) {
	header := make([]byte, 64)

	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 2                                     // 64-bit
	header[5] = 1                                     // little endian
	header[6] = 1                                     // version
	binary.LittleEndian.PutUint16(header[16:18], 2)   // executable
	binary.LittleEndian.PutUint16(header[18:20], 183) // AArch64
	binary.LittleEndian.PutUint32(header[20:24], 1)   // version
	binary.LittleEndian.PutUint16(header[52:54], 64)  // ehsize
	binary.LittleEndian.PutUint16(header[54:56], 56)  // phentsize

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()
	_, _ = file.Write(header)
}
