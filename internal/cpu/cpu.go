// Package cpu implements the SM83 instruction engine: the register file,
// the primary and CB-prefixed opcode tables and the fetch/decode/execute step.
package cpu

import (
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/fault"
)

// Bus is the CPU's view of memory.
type Bus interface {
	Read8(addr uint16) byte
	Write8(addr uint16, v byte)
}

const (
	regIF uint16 = 0xFF0F
	regIE uint16 = 0xFFFF
)

// CPU executes one instruction per Step against a Bus.
type CPU struct {
	Registers

	// IME is the global interrupt enable. EI and RETI set it immediately.
	IME bool

	halted  bool
	stopped bool

	// opPC is the address of the instruction being executed.
	opPC uint16
	// err is set by handlers that cannot complete, currently only an
	// undefined CB sub-opcode.
	err error

	bus Bus
}

// New returns a CPU with zeroed registers, ready to run a boot ROM from 0x0000.
func New(b Bus) *CPU {
	return &CPU{bus: b}
}

// ResetNoBoot sets registers to the DMG post-boot state with PC=0x0100.
func (c *CPU) ResetNoBoot() {
	c.Registers = postBoot
	c.IME = false
	c.halted = false
	c.stopped = false
}

func (c *CPU) Halted() bool  { return c.halted }
func (c *CPU) Stopped() bool { return c.stopped }

// Wake leaves the stopped state. It is called when a button is pressed.
func (c *CPU) Wake() { c.stopped = false }

// InterruptsEnabled reports IME.
func (c *CPU) InterruptsEnabled() bool { return c.IME }

// Service pushes PC, jumps to vector and clears IME and the halted state.
func (c *CPU) Service(vector uint16) {
	c.halted = false
	c.IME = false
	c.push16(c.PC)
	c.PC = vector
}

// Snapshot returns the register file in the form carried by faults.
func (c *CPU) Snapshot() fault.State {
	return fault.State{
		A: c.A, F: c.F.Byte(), B: c.B, C: c.C, D: c.D, E: c.E, H: c.H, L: c.L,
		SP: c.SP, PC: c.PC,
	}
}

// Step executes one instruction and returns the elapsed clock cycles.
// While halted or stopped it burns 4 cycles without fetching.
func (c *CPU) Step() (int, error) {
	if c.stopped {
		return 4, nil
	}
	if c.halted {
		if c.bus.Read8(regIF)&c.bus.Read8(regIE)&0x1F == 0 {
			return 4, nil
		}
		c.halted = false
	}

	c.opPC = c.PC
	op := c.fetch8()
	in := &primary[op]
	if in.exec == nil {
		return 0, c.decodeFault(op, false)
	}
	extra := in.exec(c)
	if c.err != nil {
		err := c.err
		c.err = nil
		return 0, err
	}
	return in.cycles + extra, nil
}

// prefix runs the CB sub-opcode and returns its own cost.
func (c *CPU) prefix() int {
	op := c.fetch8()
	in := &prefixed[op]
	if in.exec == nil {
		c.err = c.decodeFault(op, true)
		return 0
	}
	return in.cycles + in.exec(c)
}

func (c *CPU) decodeFault(op byte, prefixed bool) error {
	var ctx [5]byte
	for i := range ctx {
		ctx[i] = c.bus.Read8(c.opPC - 2 + uint16(i))
	}
	c.PC = c.opPC
	return fault.NewDecode(op, prefixed, c.opPC, ctx[:]).WithState(c.Snapshot())
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read8(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write8(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | hi<<8
}

func (c *CPU) push16(v uint16) {
	c.SP--
	c.write8(c.SP, byte(v>>8))
	c.SP--
	c.write8(c.SP, byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.read8(c.SP))
	c.SP++
	hi := uint16(c.read8(c.SP))
	c.SP++
	return lo | hi<<8
}

// Operand index 0..7 selects B, C, D, E, H, L, (HL), A.
func (c *CPU) reg8(i byte) byte {
	switch i & 7 {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.HL())
	default:
		return c.A
	}
}

func (c *CPU) setReg8(i byte, v byte) {
	switch i & 7 {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.write8(c.HL(), v)
	default:
		c.A = v
	}
}

// Condition index 0..3 selects NZ, Z, NC, C.
func (c *CPU) cond(i byte) bool {
	switch i & 3 {
	case 0:
		return !c.F.Zero
	case 1:
		return c.F.Zero
	case 2:
		return !c.F.Carry
	default:
		return c.F.Carry
	}
}
