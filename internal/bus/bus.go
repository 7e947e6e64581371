// Package bus implements the DMG memory map: a flat 64KiB image with the boot
// ROM overlay, the cartridge ROM window, echo RAM and the I/O registers whose
// writes have side effects.
package bus

import (
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/fault"
)

// I/O register addresses with bus-level behaviour.
const (
	JOYP uint16 = 0xFF00
	DIV  uint16 = 0xFF04
	TAC  uint16 = 0xFF07
	IF   uint16 = 0xFF0F
	STAT uint16 = 0xFF41
	LY   uint16 = 0xFF44
	DMA  uint16 = 0xFF46
	BOOT uint16 = 0xFF50
	IE   uint16 = 0xFFFF
)

// Joypad bits for SetJoypadState. A set bit means pressed.
const (
	JoypRight byte = 1 << iota
	JoypLeft
	JoypUp
	JoypDown
	JoypA
	JoypB
	JoypSelectBtn
	JoypStart
)

// Bus owns the memory image. BIOS and ROM are never written.
type Bus struct {
	mem  [0x10000]byte
	bios []byte
	rom  []byte
	boot bool

	joyp byte // pressed buttons, see Joyp*

	onDIVReset func()

	fault *fault.Fault
}

// New maps bios over 0x0000-0x00FF until 0xFF50 is written. An empty bios
// starts with the overlay disabled.
func New(bios, rom []byte) *Bus {
	return &Bus{bios: bios, rom: rom, boot: len(bios) > 0}
}

// BootActive reports whether the BIOS overlay is mapped.
func (b *Bus) BootActive() bool { return b.boot }

// SetDIVResetHook registers fn to run after a CPU write to DIV.
func (b *Bus) SetDIVResetHook(fn func()) { b.onDIVReset = fn }

// SetJoypadState replaces the pressed button mask.
func (b *Bus) SetJoypadState(mask byte) { b.joyp = mask }

// Fault returns the first addressing fault seen by the bus, or nil.
func (b *Bus) Fault() error {
	if b.fault == nil {
		return nil
	}
	return b.fault
}

func (b *Bus) Read8(addr uint16) byte     { return b.read(uint32(addr)) }
func (b *Bus) Write8(addr uint16, v byte) { b.write(uint32(addr), v) }

// Read16 reads little-endian. At 0xFFFF the high byte lies outside the
// address space and raises an addressing fault.
func (b *Bus) Read16(addr uint16) uint16 {
	lo := uint16(b.read(uint32(addr)))
	hi := uint16(b.read(uint32(addr) + 1))
	return lo | hi<<8
}

func (b *Bus) Write16(addr uint16, v uint16) {
	b.write(uint32(addr), byte(v))
	b.write(uint32(addr)+1, byte(v>>8))
}

// Peek and Poke access the image directly, with no overlay and no side
// effects. The PPU and timer keep their registers up to date through them.
func (b *Bus) Peek(addr uint16) byte    { return b.mem[addr] }
func (b *Bus) Poke(addr uint16, v byte) { b.mem[addr] = v }

func (b *Bus) read(addr uint32) byte {
	switch {
	case addr < 0x0100 && b.boot:
		if int(addr) < len(b.bios) {
			return b.bios[addr]
		}
		return 0xFF
	case addr < 0x8000:
		if int(addr) < len(b.rom) {
			return b.rom[addr]
		}
		return 0xFF
	case addr < 0xE000:
		return b.mem[addr]
	case addr < 0xFE00:
		return b.mem[addr-0x2000]
	case addr < 0xFEA0:
		return b.mem[addr]
	case addr < 0xFF00:
		return 0
	case addr < 0x10000:
		return b.readIO(uint16(addr))
	default:
		b.addressFault(addr)
		return 0
	}
}

func (b *Bus) readIO(addr uint16) byte {
	switch addr {
	case JOYP:
		return b.joypad()
	case TAC:
		return 0xF8 | b.mem[addr]
	case IF:
		return 0xE0 | b.mem[addr]
	case STAT:
		return 0x80 | b.mem[addr]
	}
	return b.mem[addr]
}

func (b *Bus) write(addr uint32, v byte) {
	switch {
	case addr < 0x8000:
		// ROM and BIOS are read-only
	case addr < 0xE000:
		b.mem[addr] = v
	case addr < 0xFE00:
		b.mem[addr-0x2000] = v
	case addr < 0xFEA0:
		b.mem[addr] = v
	case addr < 0xFF00:
		// unusable
	case addr < 0x10000:
		b.writeIO(uint16(addr), v)
	default:
		b.addressFault(addr)
	}
}

func (b *Bus) writeIO(addr uint16, v byte) {
	switch addr {
	case JOYP:
		b.mem[addr] = v & 0x30
	case DIV:
		b.mem[addr] = 0
		if b.onDIVReset != nil {
			b.onDIVReset()
		}
	case TAC:
		b.mem[addr] = v & 0x07
	case IF:
		b.mem[addr] = v & 0x1F
	case STAT:
		// mode and coincidence bits belong to the PPU
		b.mem[addr] = b.mem[addr]&0x07 | v&0x78
	case LY:
		// read-only
	case DMA:
		src := uint16(v) << 8
		for i := uint16(0); i < 0xA0; i++ {
			b.mem[0xFE00+i] = b.Read8(src + i)
		}
	case BOOT:
		b.boot = false
	default:
		b.mem[addr] = v
	}
}

// joypad composes JOYP from the selected groups. Bits are active low.
func (b *Bus) joypad() byte {
	sel := b.mem[JOYP] & 0x30
	low := byte(0x0F)
	if sel&0x10 == 0 {
		low &^= b.joyp & 0x0F
	}
	if sel&0x20 == 0 {
		low &^= b.joyp >> 4
	}
	return 0xC0 | sel | low
}

func (b *Bus) addressFault(addr uint32) {
	if b.fault == nil {
		b.fault = fault.NewAddressing(addr)
	}
}
