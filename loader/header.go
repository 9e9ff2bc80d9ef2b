// Package loader reads the executables the simulator boots: cartridge
// images, of which only the header fields needed for direct boot are
// interpreted, and homebrew ARM ELF files.
package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Header layout.
const (
	// MinHeaderSize covers every field the loader interprets.
	MinHeaderSize = 0x40
	// HeaderSize is the size of the header block copied to main RAM on
	// direct boot.
	HeaderSize = 0x170

	offTitle    = 0x00
	offGameCode = 0x0C
	offARM9     = 0x20
	offARM7     = 0x30
)

var (
	// ErrHeaderTooShort is returned when an image is smaller than the
	// header fields the loader reads.
	ErrHeaderTooShort = errors.New("cartridge header too short")
	// ErrSectionOutOfRange is returned when a binary's ROM offset and
	// size fall outside the image.
	ErrSectionOutOfRange = errors.New("binary outside cartridge image")
)

// Binary describes one CPU's executable within the image.
type Binary struct {
	// ROMOffset is the position of the binary in the image.
	ROMOffset uint32
	// Entry is the address execution starts at.
	Entry uint32
	// LoadAddr is the address the binary is copied to.
	LoadAddr uint32
	// Size is the length of the binary in bytes.
	Size uint32
}

// Header holds the boot fields of a cartridge header.
type Header struct {
	Title    string
	GameCode string
	ARM9     Binary
	ARM7     Binary
}

// ROM is a cartridge image with its parsed header.
type ROM struct {
	Data   []byte
	Header *Header
}

// ParseHeader reads the header fields at the start of an image.
func ParseHeader(image []byte) (*Header, error) {
	if len(image) < MinHeaderSize {
		return nil, fmt.Errorf("%d bytes: %w", len(image), ErrHeaderTooShort)
	}

	return &Header{
		Title:    cString(image[offTitle:offGameCode]),
		GameCode: cString(image[offGameCode : offGameCode+4]),
		ARM9:     parseBinary(image[offARM9:]),
		ARM7:     parseBinary(image[offARM7:]),
	}, nil
}

func parseBinary(b []byte) Binary {
	return Binary{
		ROMOffset: binary.LittleEndian.Uint32(b[0:]),
		Entry:     binary.LittleEndian.Uint32(b[4:]),
		LoadAddr:  binary.LittleEndian.Uint32(b[8:]),
		Size:      binary.LittleEndian.Uint32(b[12:]),
	}
}

func cString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Section returns the bytes of a binary within image.
func Section(image []byte, b Binary) ([]byte, error) {
	end := uint64(b.ROMOffset) + uint64(b.Size)
	if end > uint64(len(image)) {
		return nil, fmt.Errorf("offset 0x%x size 0x%x in %d bytes: %w",
			b.ROMOffset, b.Size, len(image), ErrSectionOutOfRange)
	}
	return image[b.ROMOffset:end], nil
}

// HeaderBlock returns the header bytes copied to main RAM on direct boot,
// zero-padded if the image is shorter.
func HeaderBlock(image []byte) []byte {
	block := make([]byte, HeaderSize)
	copy(block, image)
	return block
}

// LoadROM reads a cartridge image from disk and parses its header.
func LoadROM(path string) (*ROM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM file: %w", err)
	}

	h, err := ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ROM header: %w", err)
	}

	for _, b := range []Binary{h.ARM9, h.ARM7} {
		if _, err := Section(data, b); err != nil {
			return nil, fmt.Errorf("failed to locate binary: %w", err)
		}
	}

	return &ROM{Data: data, Header: h}, nil
}

// ARM9 returns the ARM9 binary's bytes.
func (r *ROM) ARM9() []byte {
	b, _ := Section(r.Data, r.Header.ARM9)
	return b
}

// ARM7 returns the ARM7 binary's bytes.
func (r *ROM) ARM7() []byte {
	b, _ := Section(r.Data, r.Header.ARM7)
	return b
}
