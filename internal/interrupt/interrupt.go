// Package interrupt implements the IF/IE interrupt controller and vectored
// delivery.
package interrupt

import (
	"math/bits"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/fault"
)

// Line is an interrupt request bit in IF.
type Line int

const (
	VBlank  Line = iota // vector 0x40
	LCDStat             // vector 0x48
	Timer               // vector 0x50
	Joypad              // vector 0x60
)

const (
	regIF uint16 = 0xFF0F
	regIE uint16 = 0xFFFF
)

var vectors = [...]uint16{0x40, 0x48, 0x50, 0x60}

// Vector returns the handler address for l.
func (l Line) Vector() (uint16, error) {
	if l < VBlank || l > Joypad {
		return 0, fault.NewConsistency(int(l))
	}
	return vectors[l], nil
}

// Memory is raw access to the IF and IE registers.
type Memory interface {
	Peek(addr uint16) byte
	Poke(addr uint16, v byte)
}

// Servicer is the CPU side of delivery.
type Servicer interface {
	InterruptsEnabled() bool
	Service(vector uint16)
}

// Controller requests and delivers interrupts through IF and IE.
type Controller struct {
	mem Memory
}

func New(mem Memory) *Controller { return &Controller{mem: mem} }

// Request sets the IF bit for l.
func (c *Controller) Request(l Line) error {
	if l < VBlank || l > Joypad {
		return fault.NewConsistency(int(l))
	}
	c.mem.Poke(regIF, c.mem.Peek(regIF)|1<<uint(l))
	return nil
}

// Pending returns IF & IE.
func (c *Controller) Pending() byte {
	return c.mem.Peek(regIF) & c.mem.Peek(regIE)
}

// Deliver services the lowest pending and enabled interrupt if IME is set.
// It clears that IF bit, pushes PC and jumps to the vector. A pending bit
// above 3 is a consistency fault.
func (c *Controller) Deliver(s Servicer) (bool, error) {
	if !s.InterruptsEnabled() {
		return false, nil
	}
	pending := c.Pending()
	if pending == 0 {
		return false, nil
	}
	bit := bits.TrailingZeros8(pending)
	vec, err := Line(bit).Vector()
	if err != nil {
		return false, err
	}
	c.mem.Poke(regIF, c.mem.Peek(regIF)&^(1<<uint(bit)))
	s.Service(vec)
	return true, nil
}
