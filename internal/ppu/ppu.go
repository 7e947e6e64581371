// Package ppu implements the DMG pixel pipeline: scanline timing, STAT mode
// transitions and interrupts, and background/window rendering into an RGBA
// frame buffer.
package ppu

const (
	Width  = 160
	Height = 144

	lineCycles  = 456
	oamEnd      = lineCycles - 80 // budget above this is OAM scan
	transferEnd = oamEnd - 172    // budget above this is pixel transfer
	vblankLine  = 144
	lastLine    = 153
)

// Register addresses.
const (
	LCDC uint16 = 0xFF40
	STAT uint16 = 0xFF41
	SCY  uint16 = 0xFF42
	SCX  uint16 = 0xFF43
	LY   uint16 = 0xFF44
	LYC  uint16 = 0xFF45
	BGP  uint16 = 0xFF47
	WY   uint16 = 0xFF4A
	WX   uint16 = 0xFF4B
)

// STAT mode values.
const (
	ModeHBlank   byte = 0
	ModeVBlank   byte = 1
	ModeOAM      byte = 2
	ModeTransfer byte = 3
)

// Interrupt bits raised by the PPU.
const (
	irqVBlank = 0
	irqSTAT   = 1
)

// shades maps a palette value to grey.
var shades = [4]byte{255, 192, 96, 0}

// InterruptRequester is a callback signature to request IF bits (0:VBlank, 1:STAT).
type InterruptRequester func(bit int) error

// Memory gives the PPU raw access to VRAM and its registers.
type Memory interface {
	Peek(addr uint16) byte
	Poke(addr uint16, v byte)
}

// PPU tracks the scanline budget and owns the frame buffer.
type PPU struct {
	mem Memory
	req InterruptRequester

	// budget counts down from lineCycles across one scanline.
	budget int
	// winLine is the window row drawn on the next line that shows it.
	winLine byte
	// lycMatch latches LY==LYC so the STAT interrupt fires on the rising edge.
	lycMatch bool

	fb [Width * Height * 4]byte
}

func New(mem Memory, req InterruptRequester) *PPU {
	p := &PPU{mem: mem, req: req, budget: lineCycles}
	for i := 3; i < len(p.fb); i += 4 {
		p.fb[i] = 0xFF
	}
	return p
}

// Framebuffer returns the RGBA frame, row-major, 4 bytes per pixel.
func (p *PPU) Framebuffer() []byte { return p.fb[:] }

// Budget returns the cycles left in the current scanline.
func (p *PPU) Budget() int { return p.budget }

// Advance moves the pipeline forward by cycles elapsed on the CPU.
func (p *PPU) Advance(cycles int) error {
	if p.mem.Peek(LCDC)&0x80 == 0 {
		p.mem.Poke(LY, 0)
		p.mem.Poke(STAT, p.mem.Peek(STAT)&^0x03|ModeHBlank)
		p.budget = lineCycles
		p.winLine = 0
		p.lycMatch = false
		return nil
	}

	for cycles > 0 {
		if err := p.updateMode(); err != nil {
			return err
		}
		// Stop at the next mode boundary so every entry edge is seen.
		step := p.budget
		switch {
		case p.budget > oamEnd:
			step = p.budget - oamEnd
		case p.budget > transferEnd:
			step = p.budget - transferEnd
		}
		if step > cycles {
			step = cycles
		}
		p.budget -= step
		cycles -= step

		if p.budget <= 0 {
			p.budget += lineCycles
			if err := p.nextLine(); err != nil {
				return err
			}
		}
		if err := p.updateLYC(); err != nil {
			return err
		}
	}
	return p.updateMode()
}

// nextLine renders the finished line and moves LY on.
func (p *PPU) nextLine() error {
	ly := p.mem.Peek(LY)
	if ly < vblankLine {
		p.renderLine(ly)
	}
	ly++
	switch {
	case ly == vblankLine:
		p.mem.Poke(LY, ly)
		return p.request(irqVBlank)
	case ly > lastLine:
		ly = 0
		p.winLine = 0
	}
	p.mem.Poke(LY, ly)
	return nil
}

func (p *PPU) mode() byte {
	if p.mem.Peek(LY) >= vblankLine {
		return ModeVBlank
	}
	switch {
	case p.budget > oamEnd:
		return ModeOAM
	case p.budget > transferEnd:
		return ModeTransfer
	default:
		return ModeHBlank
	}
}

// updateMode writes the mode bits and raises STAT on entry into a mode whose
// enable bit is set.
func (p *PPU) updateMode() error {
	stat := p.mem.Peek(STAT)
	mode := p.mode()
	if stat&0x03 == mode {
		return nil
	}
	p.mem.Poke(STAT, stat&^0x03|mode)
	var enable byte
	switch mode {
	case ModeHBlank:
		enable = 1 << 3
	case ModeVBlank:
		enable = 1 << 4
	case ModeOAM:
		enable = 1 << 5
	}
	if stat&enable != 0 {
		return p.request(irqSTAT)
	}
	return nil
}

func (p *PPU) updateLYC() error {
	stat := p.mem.Peek(STAT)
	match := p.mem.Peek(LY) == p.mem.Peek(LYC)
	if match {
		stat |= 1 << 2
	} else {
		stat &^= 1 << 2
	}
	p.mem.Poke(STAT, stat)
	rising := match && !p.lycMatch
	p.lycMatch = match
	if rising && stat&(1<<6) != 0 {
		return p.request(irqSTAT)
	}
	return nil
}

func (p *PPU) request(bit int) error {
	if p.req == nil {
		return nil
	}
	return p.req(bit)
}
