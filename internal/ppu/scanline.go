package ppu

// renderBGScanlineUsingFetcher returns the 160 background colour indices of
// screen line ly, scrolled by scx/scy. The map wraps in both directions.
func renderBGScanlineUsingFetcher(mem VRAMReader, mapBase uint16, tileData8000 bool, scx, scy, ly byte) [Width]byte {
	var out [Width]byte
	f := newTileFetcher(mem, mapBase, tileData8000, uint16(ly)+uint16(scy), uint16(scx>>3))
	f.skip(int(scx & 7))
	for x := range out {
		out[x] = f.pixel()
	}
	return out
}

// renderWindowScanlineUsingFetcher renders window row winLine starting at
// screen column startX (WX-7). Columns left of startX are 0. A negative
// startX clips the first window pixels.
func renderWindowScanlineUsingFetcher(mem VRAMReader, mapBase uint16, tileData8000 bool, startX int, winLine byte) [Width]byte {
	var out [Width]byte
	if startX >= Width {
		return out
	}
	f := newTileFetcher(mem, mapBase, tileData8000, uint16(winLine), 0)
	if startX < 0 {
		f.skip(-startX)
		startX = 0
	}
	for x := startX; x < Width; x++ {
		out[x] = f.pixel()
	}
	return out
}
