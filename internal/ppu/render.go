package ppu

// peekReader lets the fetcher read VRAM through the PPU's Memory.
type peekReader struct{ mem Memory }

func (r peekReader) Read(addr uint16) byte { return r.mem.Peek(addr) }

// renderLine draws background and window for scanline ly into the frame buffer.
func (p *PPU) renderLine(ly byte) {
	lcdc := p.mem.Peek(LCDC)
	row := p.fb[int(ly)*Width*4 : (int(ly)+1)*Width*4]

	if lcdc&0x01 == 0 {
		for x := 0; x < Width; x++ {
			setPixel(row, x, shades[0])
		}
		return
	}

	vram := peekReader{p.mem}
	tileData8000 := lcdc&0x10 != 0
	bgMap := uint16(0x9800)
	if lcdc&0x08 != 0 {
		bgMap = 0x9C00
	}
	line := renderBGScanlineUsingFetcher(vram, bgMap, tileData8000, p.mem.Peek(SCX), p.mem.Peek(SCY), ly)

	wy, wx := p.mem.Peek(WY), p.mem.Peek(WX)
	if lcdc&0x20 != 0 && wy <= ly && wx <= 166 {
		winMap := uint16(0x9800)
		if lcdc&0x40 != 0 {
			winMap = 0x9C00
		}
		start := int(wx) - 7
		win := renderWindowScanlineUsingFetcher(vram, winMap, tileData8000, start, p.winLine)
		if start < 0 {
			start = 0
		}
		copy(line[start:], win[start:])
		p.winLine++
	}

	bgp := p.mem.Peek(BGP)
	for x, ci := range line {
		setPixel(row, x, shades[(bgp>>(ci*2))&0x03])
	}
}

func setPixel(row []byte, x int, shade byte) {
	i := x * 4
	row[i+0] = shade
	row[i+1] = shade
	row[i+2] = shade
	row[i+3] = 0xFF
}
