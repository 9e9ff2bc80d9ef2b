package loader_test

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/loader"
)

// buildImage returns an image whose ARM9 binary is arm9 and ARM7 binary
// is arm7, placed after a 0x200-byte header.
func buildImage(arm9, arm7 []byte) []byte {
	image := make([]byte, 0x200)
	copy(image, "HOMEBREW")
	copy(image[0x0C:], "NTRJ")

	off9 := uint32(0x200)
	off7 := off9 + uint32(len(arm9))

	put := func(at int, vals ...uint32) {
		for i, v := range vals {
			binary.LittleEndian.PutUint32(image[at+4*i:], v)
		}
	}
	put(0x20, off9, 0x02000800, 0x02000000, uint32(len(arm9)))
	put(0x30, off7, 0x037F8000, 0x037F8000, uint32(len(arm7)))

	image = append(image, arm9...)
	return append(image, arm7...)
}

var _ = Describe("Cartridge header", func() {
	arm9 := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	arm7 := []byte{9, 10, 11, 12}

	It("should parse the boot fields", func() {
		h, err := loader.ParseHeader(buildImage(arm9, arm7))
		Expect(err).NotTo(HaveOccurred())

		Expect(h.Title).To(Equal("HOMEBREW"))
		Expect(h.GameCode).To(Equal("NTRJ"))
		Expect(h.ARM9).To(Equal(loader.Binary{
			ROMOffset: 0x200, Entry: 0x02000800, LoadAddr: 0x02000000, Size: 8,
		}))
		Expect(h.ARM7.ROMOffset).To(Equal(uint32(0x208)))
		Expect(h.ARM7.Entry).To(Equal(uint32(0x037F8000)))
	})

	It("should reject a short image", func() {
		_, err := loader.ParseHeader(make([]byte, loader.MinHeaderSize-1))
		Expect(errors.Is(err, loader.ErrHeaderTooShort)).To(BeTrue())
	})

	It("should slice the binaries", func() {
		image := buildImage(arm9, arm7)
		h, _ := loader.ParseHeader(image)

		b, err := loader.Section(image, h.ARM7)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(arm7))
	})

	It("should reject a binary past the end of the image", func() {
		image := buildImage(arm9, arm7)
		h, _ := loader.ParseHeader(image)
		h.ARM7.Size = 0xFFFFFFFF

		_, err := loader.Section(image, h.ARM7)
		Expect(errors.Is(err, loader.ErrSectionOutOfRange)).To(BeTrue())
	})

	It("should pad the header block", func() {
		block := loader.HeaderBlock([]byte{0xAA})
		Expect(block).To(HaveLen(loader.HeaderSize))
		Expect(block[0]).To(Equal(uint8(0xAA)))
		Expect(block[1]).To(BeZero())
	})

	Describe("LoadROM", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "rom-loader-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(dir)
		})

		It("should read an image from disk", func() {
			path := filepath.Join(dir, "game.nds")
			Expect(os.WriteFile(path, buildImage(arm9, arm7), 0644)).To(Succeed())

			rom, err := loader.LoadROM(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(rom.ARM9()).To(Equal(arm9))
			Expect(rom.ARM7()).To(Equal(arm7))
		})

		It("should wrap header errors", func() {
			path := filepath.Join(dir, "short.nds")
			Expect(os.WriteFile(path, []byte{1, 2, 3}, 0644)).To(Succeed())

			_, err := loader.LoadROM(path)
			Expect(errors.Is(err, loader.ErrHeaderTooShort)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("failed to parse ROM header"))
		})

		It("should reject a truncated image", func() {
			path := filepath.Join(dir, "cut.nds")
			image := buildImage(arm9, arm7)
			Expect(os.WriteFile(path, image[:len(image)-1], 0644)).To(Succeed())

			_, err := loader.LoadROM(path)
			Expect(errors.Is(err, loader.ErrSectionOutOfRange)).To(BeTrue())
		})
	})
})
