package ui

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/screenshot"
)

// FrameHook runs after every emulated frame. Returning stop ends the session.
type FrameHook func() (stop bool, err error)

type App struct {
	cfg  Config
	m    *emu.Machine
	hook FrameHook
	tex  *ebiten.Image

	overlay *ebiten.Image

	paused bool
	fast   bool
	quit   bool

	// menu
	showMenu bool
	menuIdx  int

	toastMsg   string
	toastUntil time.Time

	// err is the fault that stopped emulation; shown until reset.
	err error
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(ppu.Width*cfg.Scale, ppu.Height*cfg.Scale)
	return &App{cfg: cfg, m: m}
}

// SetFrameHook installs fn to run after each frame.
func (a *App) SetFrameHook(fn FrameHook) { a.hook = fn }

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	if a.quit {
		return ebiten.Termination
	}
	a.m.SetButtons(buttonsFromKeys(ebiten.IsKeyPressed))

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.showMenu = !a.showMenu
		a.menuIdx = 0
	}
	if a.showMenu {
		a.updateMenu()
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	// Fast-forward (Tab): while held, run several frames per update
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		a.saveScreenshot()
	}

	if a.err != nil {
		return nil
	}
	switch {
	case a.paused:
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			a.runFrame()
		}
	case a.fast:
		for i := 0; i < 5 && a.err == nil && !a.quit; i++ {
			a.runFrame()
		}
	default:
		a.runFrame()
	}
	return nil
}

// runFrame steps one frame and the hook. A fault stops emulation and is
// kept for the overlay rather than ending the program.
func (a *App) runFrame() {
	if err := a.m.StepFrame(); err != nil {
		log.Printf("emulation stopped: %v", err)
		a.err = err
		return
	}
	if a.hook == nil {
		return
	}
	stop, err := a.hook()
	if err != nil {
		log.Printf("frame hook: %v", err)
		a.hook = nil
		a.toast("script disabled")
		return
	}
	if stop {
		a.quit = true
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(ppu.Width, ppu.Height)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, nil)

	switch {
	case a.showMenu:
		a.drawMenu(screen)
	case a.err != nil:
		a.drawFault(screen)
	}
	a.drawToast(screen)
}

func (a *App) Layout(outW, outH int) (int, int) { return ppu.Width, ppu.Height }

func (a *App) reset() {
	a.m.Reset()
	a.err = nil
	a.paused = false
	a.toast("reset")
}

func (a *App) saveScreenshot() {
	path, err := screenshot.SaveTimestamped(a.cfg.ScreenshotDir, a.m.Framebuffer(), a.cfg.Scale)
	if err != nil {
		log.Printf("%v", err)
		a.toast("screenshot failed")
		return
	}
	log.Printf("saved %s", path)
	a.toast("screenshot saved")
}

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

// buttonsFromKeys maps the keyboard onto the joypad.
func buttonsFromKeys(pressed func(ebiten.Key) bool) emu.Buttons {
	return emu.Buttons{
		Right:  pressed(ebiten.KeyArrowRight),
		Left:   pressed(ebiten.KeyArrowLeft),
		Up:     pressed(ebiten.KeyArrowUp),
		Down:   pressed(ebiten.KeyArrowDown),
		A:      pressed(ebiten.KeyZ),
		B:      pressed(ebiten.KeyX),
		Start:  pressed(ebiten.KeyEnter),
		Select: pressed(ebiten.KeyShiftRight),
	}
}
