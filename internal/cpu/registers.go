package cpu

// Flag bit positions inside F.
const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

// Flags holds the four condition bits.
type Flags struct {
	Zero      bool
	Negative  bool
	HalfCarry bool
	Carry     bool
}

// Byte packs the flags into the upper nibble of F. The low nibble is always 0.
func (f Flags) Byte() byte {
	var b byte
	if f.Zero {
		b |= flagZ
	}
	if f.Negative {
		b |= flagN
	}
	if f.HalfCarry {
		b |= flagH
	}
	if f.Carry {
		b |= flagC
	}
	return b
}

// FlagsFromByte unpacks F. The low nibble is ignored.
func FlagsFromByte(b byte) Flags {
	return Flags{
		Zero:      b&flagZ != 0,
		Negative:  b&flagN != 0,
		HalfCarry: b&flagH != 0,
		Carry:     b&flagC != 0,
	}
}

// Registers is the SM83 register file.
type Registers struct {
	A, B, C, D, E, H, L byte
	F                   Flags

	SP uint16
	PC uint16
}

func (r *Registers) AF() uint16     { return uint16(r.A)<<8 | uint16(r.F.Byte()) }
func (r *Registers) SetAF(v uint16) { r.A = byte(v >> 8); r.F = FlagsFromByte(byte(v)) }
func (r *Registers) BC() uint16     { return uint16(r.B)<<8 | uint16(r.C) }
func (r *Registers) SetBC(v uint16) { r.B = byte(v >> 8); r.C = byte(v) }
func (r *Registers) DE() uint16     { return uint16(r.D)<<8 | uint16(r.E) }
func (r *Registers) SetDE(v uint16) { r.D = byte(v >> 8); r.E = byte(v) }
func (r *Registers) HL() uint16     { return uint16(r.H)<<8 | uint16(r.L) }
func (r *Registers) SetHL(v uint16) { r.H = byte(v >> 8); r.L = byte(v) }

// postBoot is the DMG register state left behind by the boot ROM.
var postBoot = Registers{
	A: 0x01, F: FlagsFromByte(0xB0),
	B: 0x00, C: 0x13,
	D: 0x00, E: 0xD8,
	H: 0x01, L: 0x4D,
	SP: 0xFFFE,
	PC: 0x0100,
}
