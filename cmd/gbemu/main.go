package main

import (
	"context"
	"flag"
	"fmt"
	"hash/crc32"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/script"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/screenshot"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/statsview"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/termview"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ui"
)

type CLIFlags struct {
	ROMPath  string
	BIOSPath string
	Scale    int
	Title    string
	Trace    bool

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")

	Term      bool
	Script    string
	StatsView string
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	flag.StringVar(&f.BIOSPath, "bios", "", "optional 256-byte DMG boot ROM")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "gbemu", "window title")
	flag.BoolVar(&f.Trace, "trace", false, "CPU trace log")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode (0 runs the terminal view until interrupted)")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")

	flag.BoolVar(&f.Term, "term", false, "draw frames in the terminal instead of a window")
	flag.StringVar(&f.Script, "script", "", "Lua script with an on_frame hook")
	flag.StringVar(&f.StatsView, "statsview", "", "serve runtime stats on this address (e.g. localhost:12600)")
	flag.Parse()
	return f
}

// frameHook adapts an optional script to the per-frame hook.
func frameHook(s *script.Script) func() (bool, error) {
	if s == nil || !s.HasHook() {
		return nil
	}
	return s.OnFrame
}

// runFrames steps frames, calling hook after each. It returns the frames
// completed and whether the hook asked to stop.
func runFrames(m *emu.Machine, frames int, hook func() (bool, error)) (int, bool, error) {
	for i := 0; i < frames; i++ {
		if err := m.StepFrame(); err != nil {
			return i, false, err
		}
		if hook == nil {
			continue
		}
		stop, err := hook()
		if err != nil {
			return i + 1, false, err
		}
		if stop {
			return i + 1, true, nil
		}
	}
	return frames, false, nil
}

func runHeadless(m *emu.Machine, frames int, pngPath, expectCRC string, hook func() (bool, error)) error {
	if frames <= 0 {
		frames = 1
	}

	start := time.Now()
	ran, _, runErr := runFrames(m, frames, hook)
	dur := time.Since(start)

	fb := m.Framebuffer() // RGBA 160x144*4
	crc := crc32.ChecksumIEEE(fb)
	fps := float64(ran) / dur.Seconds()

	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		ran, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := screenshot.Save(pngPath, fb, 1); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}
	if runErr != nil {
		return runErr
	}

	if expectCRC != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

// runTerminal renders at roughly 60 frames per second until interrupted,
// the frame limit is reached or the machine faults.
func runTerminal(ctx context.Context, m *emu.Machine, frames int, hook func() (bool, error)) error {
	view := termview.New(os.Stdout, int(os.Stdout.Fd()))
	fmt.Print("\x1b[2J\x1b[?25l")
	defer fmt.Print("\x1b[0m\x1b[?25h\n")

	tick := time.NewTicker(time.Second / 60)
	defer tick.Stop()
	for n := 0; frames <= 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
		_, stopped, err := runFrames(m, 1, hook)
		if rerr := view.Render(m.Framebuffer(), fmt.Sprintf("frame %d", m.Frames())); rerr != nil {
			return rerr
		}
		if err != nil || stopped {
			return err
		}
	}
	return nil
}

func main() {
	f := parseFlags()
	if f.ROMPath == "" {
		log.Fatal("-rom is required")
	}

	img, err := cart.LoadROM(f.ROMPath)
	if err != nil {
		log.Fatal(err)
	}
	if h := img.Header; h != nil {
		log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
	}
	for _, w := range img.Warnings {
		log.Printf("warning: %s", w)
	}
	bios, err := cart.LoadBIOS(f.BIOSPath)
	if err != nil {
		log.Fatal(err)
	}

	m, err := emu.New(emu.Config{Trace: f.Trace}, bios, img.ROM)
	if err != nil {
		log.Fatal(err)
	}

	var s *script.Script
	if f.Script != "" {
		if s, err = script.Load(f.Script, m); err != nil {
			log.Fatal(err)
		}
		defer s.Close()
	}
	hook := frameHook(s)

	if f.StatsView != "" {
		statsview.Launch(os.Stderr, f.StatsView)
	}

	switch {
	case f.Headless:
		if err := runHeadless(m, f.Frames, f.PNGOut, f.Expect, hook); err != nil {
			log.Fatal(err)
		}
	case f.Term:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := runTerminal(ctx, m, f.Frames, hook); err != nil {
			log.Fatal(err)
		}
	default:
		app := ui.NewApp(ui.Config{Title: f.Title, Scale: f.Scale}, m)
		if hook != nil {
			app.SetFrameHook(hook)
		}
		if err := app.Run(); err != nil {
			log.Fatal(err)
		}
	}
}
