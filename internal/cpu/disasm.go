package cpu

import (
	"fmt"
	"strings"
)

// Reader is the read-only memory view used by Disassemble.
type Reader interface {
	Read8(addr uint16) byte
}

// Disassemble decodes the instruction at addr and returns its text and length
// in bytes. Undefined opcodes decode as a one-byte "ILLEGAL xx".
func Disassemble(mem Reader, addr uint16) (string, int) {
	op := mem.Read8(addr)
	if op == 0xCB {
		sub := mem.Read8(addr + 1)
		if prefixed[sub].exec == nil {
			return fmt.Sprintf("ILLEGAL CB %02X", sub), 2
		}
		return prefixed[sub].name, 2
	}
	in := primary[op]
	if in.exec == nil {
		return fmt.Sprintf("ILLEGAL %02X", op), 1
	}
	name := in.name
	switch {
	case strings.Contains(name, "d16"), strings.Contains(name, "a16"):
		v := uint16(mem.Read8(addr+1)) | uint16(mem.Read8(addr+2))<<8
		return strings.NewReplacer("d16", fmt.Sprintf("$%04X", v), "a16", fmt.Sprintf("$%04X", v)).Replace(name), 3
	case strings.Contains(name, "r8"):
		off := int8(mem.Read8(addr + 1))
		if strings.HasPrefix(name, "JR") {
			return strings.Replace(name, "r8", fmt.Sprintf("$%04X", uint16(int32(addr)+2+int32(off))), 1), 2
		}
		return strings.Replace(name, "r8", fmt.Sprintf("%d", off), 1), 2
	case strings.Contains(name, "d8"), strings.Contains(name, "a8"):
		v := mem.Read8(addr + 1)
		name = strings.NewReplacer("d8", fmt.Sprintf("$%02X", v), "a8", fmt.Sprintf("$FF%02X", v)).Replace(name)
		return name, 2
	}
	return name, 1
}

// Disassemble decodes the instruction at addr on the CPU's bus.
func (c *CPU) Disassemble(addr uint16) (string, int) { return Disassemble(c.bus, addr) }
