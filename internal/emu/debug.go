package emu

import "strings"

// Read8 reads memory the way the CPU would. Used by scripts and tools.
func (m *Machine) Read8(addr uint16) byte { return m.bus.Read8(addr) }

// Write8 writes memory the way the CPU would, side effects included.
func (m *Machine) Write8(addr uint16, v byte) { m.bus.Write8(addr, v) }

// Register returns a register by name: A F B C D E H L, the pairs AF BC DE
// HL, SP or PC. Case is ignored.
func (m *Machine) Register(name string) (uint16, bool) {
	r := &m.cpu.Registers
	switch strings.ToUpper(name) {
	case "A":
		return uint16(r.A), true
	case "F":
		return uint16(r.F.Byte()), true
	case "B":
		return uint16(r.B), true
	case "C":
		return uint16(r.C), true
	case "D":
		return uint16(r.D), true
	case "E":
		return uint16(r.E), true
	case "H":
		return uint16(r.H), true
	case "L":
		return uint16(r.L), true
	case "AF":
		return r.AF(), true
	case "BC":
		return r.BC(), true
	case "DE":
		return r.DE(), true
	case "HL":
		return r.HL(), true
	case "SP":
		return r.SP, true
	case "PC":
		return r.PC, true
	}
	return 0, false
}
