package ppu

// VRAMReader provides read-only access for the fetcher and scanline helpers.
type VRAMReader interface {
	Read(addr uint16) byte
}

// fifo is a small ring buffer of 2-bit colour indices.
type fifo struct {
	buf  [16]byte // two tiles
	head int
	tail int
	size int
}

func (q *fifo) Clear()   { q.head, q.tail, q.size = 0, 0, 0 }
func (q *fifo) Len() int { return q.size }
func (q *fifo) Push(ci byte) bool {
	if q.size == len(q.buf) {
		return false
	}
	q.buf[q.tail] = ci & 0x03
	q.tail = (q.tail + 1) % len(q.buf)
	q.size++
	return true
}
func (q *fifo) Pop() (byte, bool) {
	if q.size == 0 {
		return 0, false
	}
	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

// tileFetcher walks one row of a 32x32 tile map left to right, decoding a
// tile row into the FIFO whenever it runs dry. Background and window both
// use it; only the starting map position differs.
type tileFetcher struct {
	mem      VRAMReader
	q        fifo
	mapRow   uint16 // address of the first map entry of the row
	tileX    uint16 // next map column, wraps at 32
	fineY    byte   // row within the tile
	unsigned bool   // 0x8000 addressing; otherwise signed around 0x9000
}

// newTileFetcher positions a fetcher at map pixel row y and map column tileX.
func newTileFetcher(mem VRAMReader, mapBase uint16, unsigned bool, y uint16, tileX uint16) *tileFetcher {
	return &tileFetcher{
		mem:      mem,
		mapRow:   mapBase + ((y>>3)&31)*32,
		tileX:    tileX & 31,
		fineY:    byte(y & 7),
		unsigned: unsigned,
	}
}

// tileRowAddr returns the address of row fineY of tile n.
func tileRowAddr(n byte, fineY byte, unsigned bool) uint16 {
	row := uint16(fineY&7) * 2
	if unsigned {
		return 0x8000 + uint16(n)*16 + row
	}
	return uint16(int32(0x9000) + int32(int8(n))*16 + int32(row))
}

// fetch decodes the tile at the current column and moves to the next one.
func (f *tileFetcher) fetch() {
	n := f.mem.Read(f.mapRow + f.tileX)
	addr := tileRowAddr(n, f.fineY, f.unsigned)
	lo := f.mem.Read(addr)
	hi := f.mem.Read(addr + 1)
	for bit := 7; bit >= 0; bit-- {
		f.q.Push((hi>>bit&1)<<1 | lo>>bit&1)
	}
	f.tileX = (f.tileX + 1) & 31
}

// pixel returns the next colour index.
func (f *tileFetcher) pixel() byte {
	if f.q.Len() == 0 {
		f.fetch()
	}
	ci, _ := f.q.Pop()
	return ci
}

// skip discards n pixels, used for fine scroll and window clipping.
func (f *tileFetcher) skip(n int) {
	for ; n > 0; n-- {
		f.pixel()
	}
}
