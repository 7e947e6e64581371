package cart

import (
	"errors"
	"fmt"
	"os"
)

const (
	// MaxBIOSSize is the size of the boot ROM overlay.
	MaxBIOSSize = 0x100
	// WindowSize is the ROM range the bus maps without bank switching.
	WindowSize = 0x8000
)

// Image is a cartridge ROM plus what was learned from its header.
type Image struct {
	ROM    []byte
	Header *Header // nil when the image has no header

	// Warnings are non-fatal problems worth logging before running.
	Warnings []string
}

// Inspect validates rom and collects header warnings. Only an empty image
// is rejected.
func Inspect(rom []byte) (*Image, error) {
	if len(rom) == 0 {
		return nil, errors.New("empty ROM image")
	}
	img := &Image{ROM: rom}
	h, err := ParseHeader(rom)
	if err != nil {
		img.Warnings = append(img.Warnings, "no cartridge header")
		return img, nil
	}
	img.Header = h
	if !HeaderChecksumOK(rom) {
		img.Warnings = append(img.Warnings, fmt.Sprintf("header checksum mismatch (stored %02X)", h.HeaderChecksum))
	}
	if h.Banked() {
		img.Warnings = append(img.Warnings, fmt.Sprintf("%s cartridge with %d banks: only the first 32KiB is mapped", h.CartTypeStr, h.ROMBanks))
	} else if len(rom) > WindowSize {
		img.Warnings = append(img.Warnings, fmt.Sprintf("image is %d bytes: only the first 32KiB is mapped", len(rom)))
	}
	return img, nil
}

// LoadROM reads and inspects a cartridge image.
func LoadROM(path string) (*Image, error) {
	rom, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ROM: %w", err)
	}
	img, err := Inspect(rom)
	if err != nil {
		return nil, fmt.Errorf("load ROM %s: %w", path, err)
	}
	return img, nil
}

// LoadBIOS reads a boot ROM. An empty path returns nil, meaning boot is skipped.
func LoadBIOS(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	bios, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read BIOS: %w", err)
	}
	if len(bios) > MaxBIOSSize {
		return nil, fmt.Errorf("load BIOS %s: %d bytes exceeds %d", path, len(bios), MaxBIOSSize)
	}
	return bios, nil
}
