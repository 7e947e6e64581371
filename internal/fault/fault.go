// Package fault defines the single error type returned by the emulator core
// when execution cannot continue.
//
// Every fault is fatal. A driver stops stepping the machine once a fault is
// returned, but because it is an ordinary error value a test harness can
// inspect it with errors.As instead of the process crashing.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a fault.
type Kind int

const (
	// Decode is an opcode (primary or CB-prefixed) with no defined behaviour,
	// including the processor's documented illegal opcodes.
	Decode Kind = iota
	// Addressing is an access that falls outside the 16-bit address space.
	Addressing
	// Consistency is an interrupt bit outside 0..3 being requested or delivered.
	Consistency
)

var messages = map[Kind]string{
	Decode:      "decode fault",
	Addressing:  "addressing fault",
	Consistency: "internal consistency fault",
}

func (k Kind) String() string {
	if m, ok := messages[k]; ok {
		return m
	}
	return fmt.Sprintf("fault(%d)", int(k))
}

// State is a snapshot of the register file taken when the fault was raised.
type State struct {
	A, F, B, C, D, E, H, L byte
	SP, PC                 uint16
}

func (s State) String() string {
	return fmt.Sprintf("A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X PC=%04X",
		s.A, s.F, s.B, s.C, s.D, s.E, s.H, s.L, s.SP, s.PC)
}

// Fault is the error returned from the stepping functions of the core.
type Fault struct {
	Kind Kind

	// Decode faults
	Opcode   byte
	Prefixed bool   // Opcode is the byte following 0xCB
	Context  []byte // bytes from PC-2 to PC+2 around the failing opcode

	// Addr is the failing instruction address for decode faults and the
	// offending address for addressing faults. It is wider than 16 bits so
	// that an out-of-range address can be reported as is.
	Addr uint32

	// Bit is the offending interrupt bit for consistency faults.
	Bit int

	State    State
	HasState bool
}

// NewDecode returns a decode fault for op found at addr.
func NewDecode(op byte, prefixed bool, addr uint16, context []byte) *Fault {
	return &Fault{Kind: Decode, Opcode: op, Prefixed: prefixed, Addr: uint32(addr), Context: context}
}

// NewAddressing returns an addressing fault for addr.
func NewAddressing(addr uint32) *Fault {
	return &Fault{Kind: Addressing, Addr: addr}
}

// NewConsistency returns a consistency fault for an invalid interrupt bit.
func NewConsistency(bit int) *Fault {
	return &Fault{Kind: Consistency, Bit: bit}
}

// WithState attaches a register snapshot unless one is already present.
func (f *Fault) WithState(s State) *Fault {
	if !f.HasState {
		f.State = s
		f.HasState = true
	}
	return f
}

func (f *Fault) Error() string {
	var sb strings.Builder
	sb.WriteString(f.Kind.String())
	sb.WriteString(": ")
	switch f.Kind {
	case Decode:
		if f.Prefixed {
			fmt.Fprintf(&sb, "undefined opcode CB %02X at %04X", f.Opcode, f.Addr)
		} else {
			fmt.Fprintf(&sb, "illegal opcode %02X at %04X", f.Opcode, f.Addr)
		}
		if len(f.Context) > 0 {
			sb.WriteString(" [bytes")
			for _, b := range f.Context {
				fmt.Fprintf(&sb, " %02X", b)
			}
			sb.WriteString("]")
		}
	case Addressing:
		fmt.Fprintf(&sb, "address %05X outside 16-bit space", f.Addr)
	case Consistency:
		fmt.Fprintf(&sb, "interrupt bit %d outside 0..3", f.Bit)
	}
	if f.HasState {
		fmt.Fprintf(&sb, " (%s)", f.State)
	}
	return sb.String()
}

// Is reports whether err is a fault of kind k.
func Is(err error, k Kind) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind == k
	}
	return false
}
