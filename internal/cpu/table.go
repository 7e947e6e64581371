package cpu

// instruction is one opcode table entry. cycles is the cost of the path that
// does not branch; exec returns any extra cycles spent on the taken path.
// A nil exec marks an opcode with no defined behaviour.
type instruction struct {
	name   string
	cycles int
	exec   func(c *CPU) int
}

var (
	primary  [256]instruction
	prefixed [256]instruction
)

var (
	r8Names   = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	r16Names  = [4]string{"BC", "DE", "HL", "SP"}
	stkNames  = [4]string{"BC", "DE", "HL", "AF"}
	condNames = [4]string{"NZ", "Z", "NC", "C"}
	aluNames  = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}
	cbNames   = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}
)

func init() {
	fillPrimary()
	fillPrefixed()
}

func fillPrimary() {
	t := &primary

	t[0x00] = instruction{"NOP", 4, func(c *CPU) int { return 0 }}
	t[0x02] = instruction{"LD (BC),A", 8, func(c *CPU) int { c.write8(c.BC(), c.A); return 0 }}
	t[0x0A] = instruction{"LD A,(BC)", 8, func(c *CPU) int { c.A = c.read8(c.BC()); return 0 }}
	t[0x12] = instruction{"LD (DE),A", 8, func(c *CPU) int { c.write8(c.DE(), c.A); return 0 }}
	t[0x1A] = instruction{"LD A,(DE)", 8, func(c *CPU) int { c.A = c.read8(c.DE()); return 0 }}
	t[0x22] = instruction{"LD (HL+),A", 8, func(c *CPU) int {
		hl := c.HL()
		c.write8(hl, c.A)
		c.SetHL(hl + 1)
		return 0
	}}
	t[0x2A] = instruction{"LD A,(HL+)", 8, func(c *CPU) int {
		hl := c.HL()
		c.A = c.read8(hl)
		c.SetHL(hl + 1)
		return 0
	}}
	t[0x32] = instruction{"LD (HL-),A", 8, func(c *CPU) int {
		hl := c.HL()
		c.write8(hl, c.A)
		c.SetHL(hl - 1)
		return 0
	}}
	t[0x3A] = instruction{"LD A,(HL-)", 8, func(c *CPU) int {
		hl := c.HL()
		c.A = c.read8(hl)
		c.SetHL(hl - 1)
		return 0
	}}
	t[0x08] = instruction{"LD (a16),SP", 20, func(c *CPU) int {
		addr := c.fetch16()
		c.write8(addr, byte(c.SP))
		c.write8(addr+1, byte(c.SP>>8))
		return 0
	}}

	// Accumulator rotates always clear Z.
	t[0x07] = instruction{"RLCA", 4, func(c *CPU) int {
		var out bool
		c.A, out = rlc(c.A)
		c.F = Flags{Carry: out}
		return 0
	}}
	t[0x0F] = instruction{"RRCA", 4, func(c *CPU) int {
		var out bool
		c.A, out = rrc(c.A)
		c.F = Flags{Carry: out}
		return 0
	}}
	t[0x17] = instruction{"RLA", 4, func(c *CPU) int {
		var out bool
		c.A, out = rl(c.A, c.F.Carry)
		c.F = Flags{Carry: out}
		return 0
	}}
	t[0x1F] = instruction{"RRA", 4, func(c *CPU) int {
		var out bool
		c.A, out = rr(c.A, c.F.Carry)
		c.F = Flags{Carry: out}
		return 0
	}}

	t[0x10] = instruction{"STOP", 4, func(c *CPU) int { c.stopped = true; return 0 }}
	t[0x76] = instruction{"HALT", 4, func(c *CPU) int { c.halted = true; return 0 }}
	t[0x27] = instruction{"DAA", 4, func(c *CPU) int { c.A, c.F = daa(c.A, c.F); return 0 }}
	t[0x2F] = instruction{"CPL", 4, func(c *CPU) int {
		c.A = ^c.A
		c.F.Negative, c.F.HalfCarry = true, true
		return 0
	}}
	t[0x37] = instruction{"SCF", 4, func(c *CPU) int {
		c.F = Flags{Zero: c.F.Zero, Carry: true}
		return 0
	}}
	t[0x3F] = instruction{"CCF", 4, func(c *CPU) int {
		c.F = Flags{Zero: c.F.Zero, Carry: !c.F.Carry}
		return 0
	}}

	t[0x18] = instruction{"JR r8", 12, func(c *CPU) int { c.jr(true); return 0 }}
	t[0xC3] = instruction{"JP a16", 16, func(c *CPU) int { c.PC = c.fetch16(); return 0 }}
	t[0xE9] = instruction{"JP (HL)", 4, func(c *CPU) int { c.PC = c.HL(); return 0 }}
	t[0xCD] = instruction{"CALL a16", 24, func(c *CPU) int { c.call(true); return 0 }}
	t[0xC9] = instruction{"RET", 16, func(c *CPU) int { c.PC = c.pop16(); return 0 }}
	t[0xD9] = instruction{"RETI", 16, func(c *CPU) int {
		c.PC = c.pop16()
		c.IME = true
		return 0
	}}
	t[0xCB] = instruction{"PREFIX CB", 4, (*CPU).prefix}

	t[0xE0] = instruction{"LDH (a8),A", 12, func(c *CPU) int { c.write8(0xFF00|uint16(c.fetch8()), c.A); return 0 }}
	t[0xF0] = instruction{"LDH A,(a8)", 12, func(c *CPU) int { c.A = c.read8(0xFF00 | uint16(c.fetch8())); return 0 }}
	t[0xE2] = instruction{"LD (C),A", 8, func(c *CPU) int { c.write8(0xFF00|uint16(c.C), c.A); return 0 }}
	t[0xF2] = instruction{"LD A,(C)", 8, func(c *CPU) int { c.A = c.read8(0xFF00 | uint16(c.C)); return 0 }}
	t[0xEA] = instruction{"LD (a16),A", 16, func(c *CPU) int { c.write8(c.fetch16(), c.A); return 0 }}
	t[0xFA] = instruction{"LD A,(a16)", 16, func(c *CPU) int { c.A = c.read8(c.fetch16()); return 0 }}

	t[0xE8] = instruction{"ADD SP,r8", 16, func(c *CPU) int {
		c.SP, c.F = add16(c.SP, c.fetchSigned())
		return 0
	}}
	t[0xF8] = instruction{"LD HL,SP+r8", 12, func(c *CPU) int {
		var hl uint16
		hl, c.F = add16(c.SP, c.fetchSigned())
		c.SetHL(hl)
		return 0
	}}
	t[0xF9] = instruction{"LD SP,HL", 8, func(c *CPU) int { c.SP = c.HL(); return 0 }}

	t[0xF3] = instruction{"DI", 4, func(c *CPU) int { c.IME = false; return 0 }}
	t[0xFB] = instruction{"EI", 4, func(c *CPU) int { c.IME = true; return 0 }}

	for i := byte(0); i < 4; i++ {
		i := i
		base := i << 4
		t[base|0x01] = instruction{"LD " + r16Names[i] + ",d16", 12, func(c *CPU) int {
			c.setR16(i, c.fetch16())
			return 0
		}}
		t[base|0x03] = instruction{"INC " + r16Names[i], 8, func(c *CPU) int {
			c.setR16(i, c.r16(i)+1)
			return 0
		}}
		t[base|0x0B] = instruction{"DEC " + r16Names[i], 8, func(c *CPU) int {
			c.setR16(i, c.r16(i)-1)
			return 0
		}}
		t[base|0x09] = instruction{"ADD HL," + r16Names[i], 8, func(c *CPU) int {
			var hl uint16
			hl, c.F = add16(c.HL(), c.r16(i))
			c.SetHL(hl)
			return 0
		}}

		t[0xC1|base] = instruction{"POP " + stkNames[i], 12, func(c *CPU) int {
			c.setStack16(i, c.pop16())
			return 0
		}}
		t[0xC5|base] = instruction{"PUSH " + stkNames[i], 16, func(c *CPU) int {
			c.push16(c.stack16(i))
			return 0
		}}

		cc := i << 3
		t[0x20|cc] = instruction{"JR " + condNames[i] + ",r8", 8, func(c *CPU) int {
			if c.jr(c.cond(i)) {
				return 4
			}
			return 0
		}}
		t[0xC2|cc] = instruction{"JP " + condNames[i] + ",a16", 12, func(c *CPU) int {
			addr := c.fetch16()
			if !c.cond(i) {
				return 0
			}
			c.PC = addr
			return 4
		}}
		t[0xC4|cc] = instruction{"CALL " + condNames[i] + ",a16", 12, func(c *CPU) int {
			if c.call(c.cond(i)) {
				return 12
			}
			return 0
		}}
		t[0xC0|cc] = instruction{"RET " + condNames[i], 8, func(c *CPU) int {
			if !c.cond(i) {
				return 0
			}
			c.PC = c.pop16()
			return 12
		}}
	}

	for r := byte(0); r < 8; r++ {
		r := r
		cost := 4
		if r == 6 {
			cost = 12
		}
		t[r<<3|0x04] = instruction{"INC " + r8Names[r], cost, func(c *CPU) int {
			var v byte
			v, c.F = inc8(c.reg8(r), c.F)
			c.setReg8(r, v)
			return 0
		}}
		t[r<<3|0x05] = instruction{"DEC " + r8Names[r], cost, func(c *CPU) int {
			var v byte
			v, c.F = dec8(c.reg8(r), c.F)
			c.setReg8(r, v)
			return 0
		}}
		ld := 8
		if r == 6 {
			ld = 12
		}
		t[r<<3|0x06] = instruction{"LD " + r8Names[r] + ",d8", ld, func(c *CPU) int {
			c.setReg8(r, c.fetch8())
			return 0
		}}

		t[0xC6|r<<3] = instruction{aluNames[r] + "d8", 8, func(c *CPU) int {
			c.alu(r, c.fetch8())
			return 0
		}}
		vec := uint16(r) << 3
		t[0xC7|r<<3] = instruction{"RST " + hex2(byte(vec)) + "H", 16, func(c *CPU) int {
			c.push16(c.PC)
			c.PC = vec
			return 0
		}}
	}

	// 0x40..0x7F: LD r,r' with HALT in place of LD (HL),(HL).
	for op := 0x40; op < 0x80; op++ {
		if op == 0x76 {
			continue
		}
		dst, src := byte(op>>3)&7, byte(op)&7
		cost := 4
		if dst == 6 || src == 6 {
			cost = 8
		}
		t[op] = instruction{"LD " + r8Names[dst] + "," + r8Names[src], cost, func(c *CPU) int {
			c.setReg8(dst, c.reg8(src))
			return 0
		}}
	}

	// 0x80..0xBF: 8-bit arithmetic and logic on A.
	for op := 0x80; op < 0xC0; op++ {
		kind, src := byte(op>>3)&7, byte(op)&7
		cost := 4
		if src == 6 {
			cost = 8
		}
		t[op] = instruction{aluNames[kind] + r8Names[src], cost, func(c *CPU) int {
			c.alu(kind, c.reg8(src))
			return 0
		}}
	}
}

// fillPrefixed builds the CB table. Costs exclude the 4-cycle prefix.
func fillPrefixed() {
	for op := 0; op < 256; op++ {
		group, y, r := byte(op>>6), byte(op>>3)&7, byte(op)&7
		cost := 4
		if r == 6 {
			cost = 12
			if group == 1 {
				cost = 8
			}
		}
		var in instruction
		switch group {
		case 0:
			in = instruction{cbNames[y] + " " + r8Names[r], cost, func(c *CPU) int {
				c.setReg8(r, c.shift(y, c.reg8(r)))
				return 0
			}}
		case 1:
			mask := byte(1) << y
			in = instruction{"BIT " + string('0'+y) + "," + r8Names[r], cost, func(c *CPU) int {
				c.F = Flags{Zero: c.reg8(r)&mask == 0, HalfCarry: true, Carry: c.F.Carry}
				return 0
			}}
		case 2:
			mask := byte(1) << y
			in = instruction{"RES " + string('0'+y) + "," + r8Names[r], cost, func(c *CPU) int {
				c.setReg8(r, c.reg8(r)&^mask)
				return 0
			}}
		default:
			mask := byte(1) << y
			in = instruction{"SET " + string('0'+y) + "," + r8Names[r], cost, func(c *CPU) int {
				c.setReg8(r, c.reg8(r)|mask)
				return 0
			}}
		}
		prefixed[op] = in
	}
}

func (c *CPU) alu(kind byte, v byte) {
	var res byte
	var f Flags
	switch kind {
	case 0:
		res, f = add8(c.A, v, false)
	case 1:
		res, f = add8(c.A, v, c.F.Carry)
	case 2:
		res, f = sub8(c.A, v, false)
	case 3:
		res, f = sub8(c.A, v, c.F.Carry)
	case 4:
		res, f = and8(c.A, v)
	case 5:
		res, f = xor8(c.A, v)
	case 6:
		res, f = or8(c.A, v)
	default:
		_, c.F = sub8(c.A, v, false)
		return
	}
	c.A, c.F = res, f
}

// shift runs one of the CB rotate/shift operations and sets Z from the result.
func (c *CPU) shift(kind byte, v byte) byte {
	var res byte
	var out bool
	switch kind {
	case 0:
		res, out = rlc(v)
	case 1:
		res, out = rrc(v)
	case 2:
		res, out = rl(v, c.F.Carry)
	case 3:
		res, out = rr(v, c.F.Carry)
	case 4:
		res, out = sla(v)
	case 5:
		res, out = sra(v)
	case 6:
		res, out = swap(v)
	default:
		res, out = srl(v)
	}
	c.F = Flags{Zero: res == 0, Carry: out}
	return res
}

// jr consumes the offset byte and branches relative to the following
// instruction when take is set.
func (c *CPU) jr(take bool) bool {
	off := int8(c.fetch8())
	if take {
		c.PC = uint16(int32(c.PC) + int32(off))
	}
	return take
}

func (c *CPU) call(take bool) bool {
	addr := c.fetch16()
	if take {
		c.push16(c.PC)
		c.PC = addr
	}
	return take
}

// fetchSigned reads a signed offset and sign-extends it to 16 bits.
func (c *CPU) fetchSigned() uint16 { return uint16(int16(int8(c.fetch8()))) }

func (c *CPU) r16(i byte) uint16 {
	switch i & 3 {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	default:
		return c.SP
	}
}

func (c *CPU) setR16(i byte, v uint16) {
	switch i & 3 {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	default:
		c.SP = v
	}
}

// stack16 and setStack16 use AF in place of SP.
func (c *CPU) stack16(i byte) uint16 {
	if i&3 == 3 {
		return c.AF()
	}
	return c.r16(i)
}

func (c *CPU) setStack16(i byte, v uint16) {
	if i&3 == 3 {
		c.SetAF(v)
		return
	}
	c.setR16(i, v)
}

const hexDigits = "0123456789ABCDEF"

func hex2(b byte) string { return string([]byte{hexDigits[b>>4], hexDigits[b&0x0F]}) }
