// Package termview draws the frame buffer in a terminal using the upper half
// block character, so each text cell shows two vertically stacked pixels.
package termview

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/term"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
)

const (
	defaultCols = 80
	defaultRows = 24

	halfBlock = "▀"
	home      = "\x1b[H"
	reset     = "\x1b[0m"
)

// View renders frames to w at a fixed cell size.
type View struct {
	w          io.Writer
	cols, rows int
}

// New sizes the view from the terminal on fd. When fd is not a terminal an
// 80x24 grid is used.
func New(w io.Writer, fd int) *View {
	cols, rows := defaultCols, defaultRows
	if term.IsTerminal(fd) {
		if c, r, err := term.GetSize(fd); err == nil && c > 0 && r > 1 {
			cols, rows = c, r
		}
	}
	return NewSized(w, cols, rows)
}

// NewSized returns a view using exactly cols x rows cells. One row is kept
// free for the status line.
func NewSized(w io.Writer, cols, rows int) *View {
	return &View{w: w, cols: max(cols, 1), rows: max(rows-1, 1)}
}

// Dimensions returns the rendered size in pixels.
func (v *View) Dimensions() (width, height int) {
	scale := max(
		float64(ppu.Width)/float64(v.cols),
		float64(ppu.Height)/float64(v.rows*2),
		1,
	)
	width = int(float64(ppu.Width) / scale)
	height = int(float64(ppu.Height)/scale) &^ 1
	return max(width, 1), max(height, 2)
}

// Render draws fb from the top-left corner of the terminal followed by
// status on its own line.
func (v *View) Render(fb []byte, status string) error {
	if len(fb) < ppu.Width*ppu.Height*4 {
		return fmt.Errorf("frame buffer is %d bytes", len(fb))
	}
	width, height := v.Dimensions()
	bw := bufio.NewWriter(v.w)
	bw.WriteString(home)

	var lastFg, lastBg [3]byte
	first := true
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			fg := sample(fb, x, y, width, height)
			bg := sample(fb, x, y+1, width, height)
			if first || fg != lastFg {
				fmt.Fprintf(bw, "\x1b[38;2;%d;%d;%dm", fg[0], fg[1], fg[2])
			}
			if first || bg != lastBg {
				fmt.Fprintf(bw, "\x1b[48;2;%d;%d;%dm", bg[0], bg[1], bg[2])
			}
			lastFg, lastBg, first = fg, bg, false
			bw.WriteString(halfBlock)
		}
		bw.WriteString(reset + "\r\n")
		first = true
	}
	bw.WriteString(status)
	bw.WriteString("\x1b[K")
	return bw.Flush()
}

// sample picks the source pixel for output pixel (x, y) by nearest neighbour.
func sample(fb []byte, x, y, width, height int) [3]byte {
	sx := x * ppu.Width / width
	sy := y * ppu.Height / height
	i := (sy*ppu.Width + sx) * 4
	return [3]byte{fb[i], fb[i+1], fb[i+2]}
}
