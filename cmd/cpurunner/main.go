package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/fault"
)

// traceEntry is one executed instruction, recorded before it ran.
type traceEntry struct {
	pc                     uint16
	op                     byte
	text                   string
	cyc                    int
	a, f, b, c, d, e, h, l byte
	sp                     uint16
	ime                    bool
	ifreg                  byte
	ie                     byte
}

func (te traceEntry) String() string {
	return fmt.Sprintf("PC=%04X OP=%02X %-12s cyc=%d A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X IME=%t IF=%02X IE=%02X",
		te.pc, te.op, te.text, te.cyc, te.a, te.f, te.b, te.c, te.d, te.e, te.h, te.l, te.sp, te.ime, te.ifreg, te.ie)
}

// traceRing keeps the most recent entries.
type traceRing struct {
	buf  []traceEntry
	idx  int
	fill int
}

func newTraceRing(n int) *traceRing {
	return &traceRing{buf: make([]traceEntry, max(n, 0))}
}

func (r *traceRing) add(te traceEntry) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.idx] = te
	r.idx = (r.idx + 1) % len(r.buf)
	if r.fill < len(r.buf) {
		r.fill++
	}
}

// entries returns the ring in chronological order.
func (r *traceRing) entries() []traceEntry {
	out := make([]traceEntry, 0, r.fill)
	start := (r.idx - r.fill + len(r.buf)) % max(len(r.buf), 1)
	for j := 0; j < r.fill; j++ {
		out = append(out, r.buf[(start+j)%len(r.buf)])
	}
	return out
}

type result struct {
	steps  int
	cycles int
	hitPC  bool
	err    error
}

// run steps m up to steps times or until PC equals until (when until >= 0).
func run(m *emu.Machine, steps int, until int, trace io.Writer, ring *traceRing) result {
	var res result
	c := m.CPU()
	b := m.Bus()
	for res.steps < steps {
		pc := c.PC
		if until >= 0 && int(pc) == until {
			res.hitPC = true
			return res
		}
		te := traceEntry{pc: pc, op: b.Read8(pc)}
		te.text, _ = c.Disassemble(pc)
		te.a, te.f, te.b, te.c = c.A, c.F.Byte(), c.B, c.C
		te.d, te.e, te.h, te.l = c.D, c.E, c.H, c.L
		te.sp, te.ime = c.SP, c.IME
		te.ifreg, te.ie = b.Read8(0xFF0F), b.Read8(0xFFFF)

		cyc, err := m.Step()
		te.cyc = cyc
		ring.add(te)
		if trace != nil {
			fmt.Fprintln(trace, te)
		}
		if err != nil {
			res.err = err
			return res
		}
		res.cycles += cyc
		res.steps++
	}
	return res
}

func parseUntil(s string) (int, error) {
	if s == "" {
		return -1, nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("-until: %w", err)
	}
	return int(v), nil
}

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	biosPath := flag.String("bios", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	steps := flag.Int("steps", 5_000_000, "max CPU steps to run")
	trace := flag.Bool("trace", false, "print every executed instruction")
	until := flag.String("until", "", "stop when PC reaches this address (e.g. 0x0150); empty to disable")
	traceWindow := flag.Int("traceWindow", 200, "number of recent instructions to print when a fault stops the run")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	stopPC, err := parseUntil(*until)
	if err != nil {
		log.Fatal(err)
	}
	img, err := cart.LoadROM(*romPath)
	if err != nil {
		log.Fatal(err)
	}
	for _, w := range img.Warnings {
		log.Printf("warning: %s", w)
	}
	bios, err := cart.LoadBIOS(*biosPath)
	if err != nil {
		log.Fatal(err)
	}
	m, err := emu.New(emu.Config{}, bios, img.ROM)
	if err != nil {
		log.Fatal(err)
	}

	var tw io.Writer
	if *trace {
		tw = os.Stdout
	}
	ring := newTraceRing(*traceWindow)

	start := time.Now()
	res := run(m, *steps, stopPC, tw, ring)
	elapsed := time.Since(start).Truncate(time.Millisecond)

	if res.err != nil {
		fmt.Printf("\n%v\n", res.err)
		var f *fault.Fault
		if errors.As(res.err, &f) && f.HasState {
			fmt.Printf("registers: %s\n", f.State)
		}
		if entries := ring.entries(); len(entries) > 0 {
			fmt.Printf("\n--- recent trace (last %d instructions) ---\n", len(entries))
			for _, te := range entries {
				fmt.Println(te)
			}
			fmt.Printf("--- end trace ---\n")
		}
		fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", res.steps, res.cycles, elapsed)
		os.Exit(1)
	}
	if res.hitPC {
		fmt.Printf("\nReached PC=%04X.\n", stopPC)
	}
	fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", res.steps, res.cycles, elapsed)
}
