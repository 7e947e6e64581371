package ui

import (
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
)

var (
	shade      = color.RGBA{0, 0, 0, 160}
	faultColor = color.RGBA{0xFF, 0x60, 0x60, 0xFF}
)

// faultColumns is how many 7px glyphs fit across the screen with a margin.
const faultColumns = (ppu.Width - 8) / 7

// dim darkens the game picture under an overlay.
func (a *App) dim(screen *ebiten.Image) {
	if a.overlay == nil {
		a.overlay = ebiten.NewImage(ppu.Width, ppu.Height)
		a.overlay.Fill(shade)
	}
	screen.DrawImage(a.overlay, nil)
}

func (a *App) drawMenu(screen *ebiten.Image) {
	a.dim(screen)
	for i := menuItem(0); i < menuItems; i++ {
		prefix := "  "
		if int(i) == a.menuIdx {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+a.menuLabel(i), 10, 10+int(i)*14)
	}
}

func (a *App) drawFault(screen *ebiten.Image) {
	a.dim(screen)
	lines := append([]string{"EMULATION STOPPED"}, wrap(a.err.Error(), faultColumns)...)
	lines = append(lines, "", "Esc: menu")
	face := basicfont.Face7x13
	for i, line := range lines {
		text.Draw(screen, line, face, 4, 14+i*face.Height, faultColor)
	}
}

func (a *App) drawToast(screen *ebiten.Image) {
	if a.toastMsg == "" || time.Now().After(a.toastUntil) {
		return
	}
	ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, ppu.Height-16)
}

// wrap breaks s into lines of at most width characters, preferring spaces.
func wrap(s string, width int) []string {
	var lines []string
	for _, word := range strings.Fields(s) {
		for len(word) > width {
			lines = append(lines, word[:width])
			word = word[width:]
		}
		n := len(lines)
		if n > 0 && len(lines[n-1])+1+len(word) <= width {
			lines[n-1] += " " + word
			continue
		}
		lines = append(lines, word)
	}
	return lines
}
