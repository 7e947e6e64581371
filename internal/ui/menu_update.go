package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type menuItem int

const (
	itemResume menuItem = iota
	itemPause
	itemReset
	itemScreenshot
	itemQuit
	menuItems
)

func (a *App) menuLabel(i menuItem) string {
	switch i {
	case itemResume:
		return "Resume"
	case itemPause:
		if a.paused {
			return "Unpause"
		}
		return "Pause"
	case itemReset:
		return "Reset"
	case itemScreenshot:
		return "Screenshot"
	default:
		return "Quit"
	}
}

func (a *App) updateMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < int(menuItems)-1 {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.showMenu = false
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.selectMenu(menuItem(a.menuIdx))
	}
}

func (a *App) selectMenu(i menuItem) {
	switch i {
	case itemResume:
		a.showMenu = false
	case itemPause:
		a.paused = !a.paused
		a.showMenu = false
	case itemReset:
		a.reset()
		a.showMenu = false
	case itemScreenshot:
		a.saveScreenshot()
	case itemQuit:
		a.quit = true
	}
}
