// Package emu wires the CPU, bus, PPU, timer and interrupt controller into a
// single Machine and drives them one instruction at a time.
package emu

import (
	"errors"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/bus"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/fault"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/interrupt"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/timer"
)

const (
	// FrameCycles is one full frame: 154 lines of 456 cycles.
	FrameCycles = 154 * 456
	// serviceCycles is the cost of dispatching an interrupt.
	serviceCycles = 20
	maxBIOSSize   = 0x100
)

type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

func (b Buttons) mask() byte {
	var mask byte
	if b.Right {
		mask |= bus.JoypRight
	}
	if b.Left {
		mask |= bus.JoypLeft
	}
	if b.Up {
		mask |= bus.JoypUp
	}
	if b.Down {
		mask |= bus.JoypDown
	}
	if b.A {
		mask |= bus.JoypA
	}
	if b.B {
		mask |= bus.JoypB
	}
	if b.Select {
		mask |= bus.JoypSelectBtn
	}
	if b.Start {
		mask |= bus.JoypStart
	}
	return mask
}

// Machine owns every component. Nothing is shared outside it.
type Machine struct {
	cfg  Config
	bios []byte
	rom  []byte

	bus   *bus.Bus
	cpu   *cpu.CPU
	irq   *interrupt.Controller
	ppu   *ppu.PPU
	timer *timer.Timer

	buttons byte
	cycles  uint64
	frames  uint64

	// hookErr carries an error out of the DIV reset hook.
	hookErr error
	// err latches the first fault; the machine does not run past it.
	err error
}

// New builds a machine over bios and rom. Both buffers are kept and never
// written. Without a BIOS the machine starts in the DMG post-boot state at
// 0x0100.
func New(cfg Config, bios, rom []byte) (*Machine, error) {
	if len(bios) > maxBIOSSize {
		return nil, fmt.Errorf("bios is %d bytes, at most %d allowed", len(bios), maxBIOSSize)
	}
	m := &Machine{cfg: cfg, bios: bios, rom: rom}
	m.Reset()
	return m, nil
}

// Reset powers the machine back on with the same BIOS and ROM.
func (m *Machine) Reset() {
	b := bus.New(m.bios, m.rom)
	m.bus = b
	m.irq = interrupt.New(b)
	req := func(bit int) error { return m.irq.Request(interrupt.Line(bit)) }
	m.ppu = ppu.New(b, req)
	m.timer = timer.New(b, req)
	m.cpu = cpu.New(b)
	b.SetDIVResetHook(func() {
		if err := m.timer.ResetDivider(); err != nil && m.hookErr == nil {
			m.hookErr = err
		}
	})
	b.SetJoypadState(m.buttons)

	m.cycles, m.frames = 0, 0
	m.hookErr, m.err = nil, nil

	b.Poke(ppu.STAT, 0x84)
	b.Poke(ppu.BGP, 0xFC)
	b.Poke(0xFF48, 0xFF) // OBP0
	b.Poke(0xFF49, 0xFF) // OBP1
	if len(m.bios) == 0 {
		m.cpu.ResetNoBoot()
		m.applyPostBootIO()
	}
}

// applyPostBootIO sets the I/O registers the boot ROM leaves behind, so ROMs
// can start at 0x0100 with the LCD on.
func (m *Machine) applyPostBootIO() {
	b := m.bus
	b.Poke(bus.JOYP, 0x30)
	b.Poke(timer.TIMA, 0x00)
	b.Poke(timer.TMA, 0x00)
	b.Poke(timer.TAC, 0x00)
	b.Poke(ppu.LCDC, 0x91) // LCD on, BG on, tile data 8000, BG map 9800
	b.Poke(ppu.SCY, 0x00)
	b.Poke(ppu.SCX, 0x00)
	b.Poke(ppu.LYC, 0x00)
	b.Poke(ppu.WY, 0x00)
	b.Poke(ppu.WX, 0x00)
	b.Poke(bus.IF, 0x01)
	b.Poke(bus.IE, 0x00)
}

// Step executes one instruction, advances PPU and timer by its cycles and
// then delivers at most one pending interrupt. It returns the total cycles
// including interrupt dispatch.
func (m *Machine) Step() (int, error) {
	if m.err != nil {
		return 0, m.err
	}

	pc := m.cpu.PC
	var text string
	if m.cfg.Trace {
		text, _ = m.cpu.Disassemble(pc)
	}
	cycles, err := m.cpu.Step()
	if err != nil {
		return 0, m.fail(err)
	}
	if m.cfg.Trace {
		m.trace(pc, text, cycles)
	}
	if err := m.advance(cycles); err != nil {
		return 0, m.fail(err)
	}

	served, err := m.irq.Deliver(m.cpu)
	if err != nil {
		return 0, m.fail(err)
	}
	if served {
		cycles += serviceCycles
		if err := m.advance(serviceCycles); err != nil {
			return 0, m.fail(err)
		}
	}
	if err := m.bus.Fault(); err != nil {
		return 0, m.fail(err)
	}
	m.cycles += uint64(cycles)
	return cycles, nil
}

func (m *Machine) advance(cycles int) error {
	if err := m.ppu.Advance(cycles); err != nil {
		return err
	}
	if err := m.timer.Advance(cycles); err != nil {
		return err
	}
	if err := m.hookErr; err != nil {
		m.hookErr = nil
		return err
	}
	return nil
}

// fail latches err and attaches the register snapshot to faults.
func (m *Machine) fail(err error) error {
	var f *fault.Fault
	if errors.As(err, &f) {
		f.WithState(m.cpu.Snapshot())
	}
	m.err = err
	return err
}

func (m *Machine) trace(pc uint16, text string, cycles int) {
	r := m.cpu.Registers
	m.cfg.logger().Printf("PC=%04X OP=%02X %-12s cyc=%d A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X",
		pc, m.bus.Read8(pc), text, cycles, r.A, r.F.Byte(), r.B, r.C, r.D, r.E, r.H, r.L, r.SP)
}

// StepFrame runs whole instructions until at least one frame of cycles has
// elapsed.
func (m *Machine) StepFrame() error {
	acc := 0
	for acc < FrameCycles {
		n, err := m.Step()
		if err != nil {
			return err
		}
		acc += n
	}
	m.frames++
	return nil
}

// Framebuffer returns the 160x144 RGBA frame. It is updated in place.
func (m *Machine) Framebuffer() []byte { return m.ppu.Framebuffer() }

// SetButtons replaces the pressed button state. A newly pressed button
// requests the joypad interrupt and wakes the CPU from STOP.
func (m *Machine) SetButtons(b Buttons) {
	mask := b.mask()
	pressed := mask &^ m.buttons
	m.buttons = mask
	m.bus.SetJoypadState(mask)
	if pressed != 0 {
		_ = m.irq.Request(interrupt.Joypad)
		m.cpu.Wake()
	}
}

// Err returns the latched fault, if any.
func (m *Machine) Err() error { return m.err }

func (m *Machine) CPU() *cpu.CPU { return m.cpu }
func (m *Machine) Bus() *bus.Bus { return m.bus }

// Cycles returns the cycles executed since the last reset.
func (m *Machine) Cycles() uint64 { return m.cycles }

// Frames returns the frames completed by StepFrame since the last reset.
func (m *Machine) Frames() uint64 { return m.frames }
