package cpu

func add8(a, b byte, carryIn bool) (byte, Flags) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res := byte(r)
	return res, Flags{
		Zero:      res == 0,
		HalfCarry: (a&0x0F)+(b&0x0F)+ci > 0x0F,
		Carry:     r > 0xFF,
	}
}

func sub8(a, b byte, carryIn bool) (byte, Flags) {
	ci := 0
	if carryIn {
		ci = 1
	}
	r := int(a) - int(b) - ci
	res := byte(r)
	return res, Flags{
		Zero:      res == 0,
		Negative:  true,
		HalfCarry: int(a&0x0F)-int(b&0x0F)-ci < 0,
		Carry:     r < 0,
	}
}

func and8(a, b byte) (byte, Flags) {
	res := a & b
	return res, Flags{Zero: res == 0, HalfCarry: true}
}

func or8(a, b byte) (byte, Flags) {
	res := a | b
	return res, Flags{Zero: res == 0}
}

func xor8(a, b byte) (byte, Flags) {
	res := a ^ b
	return res, Flags{Zero: res == 0}
}

// inc8 and dec8 leave carry as it was.
func inc8(v byte, f Flags) (byte, Flags) {
	res := v + 1
	return res, Flags{Zero: res == 0, HalfCarry: v&0x0F == 0x0F, Carry: f.Carry}
}

func dec8(v byte, f Flags) (byte, Flags) {
	res := v - 1
	return res, Flags{Zero: res == 0, Negative: true, HalfCarry: v&0x0F == 0, Carry: f.Carry}
}

// add16 is shared by ADD HL,rr and the stack pointer adjustments. Zero and
// negative are always cleared; carries come from bits 11 and 15.
func add16(a, b uint16) (uint16, Flags) {
	r := uint32(a) + uint32(b)
	return uint16(r), Flags{
		HalfCarry: (a&0x0FFF)+(b&0x0FFF) > 0x0FFF,
		Carry:     r > 0xFFFF,
	}
}

// daa corrects a after a BCD add or subtract described by f.
func daa(a byte, f Flags) (byte, Flags) {
	var corr byte
	carry := f.Carry
	if f.HalfCarry || (!f.Negative && a&0x0F > 0x09) {
		corr |= 0x06
	}
	if f.Carry || (!f.Negative && a > 0x99) {
		corr |= 0x60
		carry = true
	}
	if f.Negative {
		a -= corr
	} else {
		a += corr
	}
	return a, Flags{Zero: a == 0, Negative: f.Negative, Carry: carry}
}

// Rotates and shifts. Each returns the result and the bit shifted out.

func rlc(v byte) (byte, bool) { return v<<1 | v>>7, v&0x80 != 0 }
func rrc(v byte) (byte, bool) { return v>>1 | v<<7, v&0x01 != 0 }

func rl(v byte, carry bool) (byte, bool) {
	res := v << 1
	if carry {
		res |= 0x01
	}
	return res, v&0x80 != 0
}

func rr(v byte, carry bool) (byte, bool) {
	res := v >> 1
	if carry {
		res |= 0x80
	}
	return res, v&0x01 != 0
}

func sla(v byte) (byte, bool)  { return v << 1, v&0x80 != 0 }
func sra(v byte) (byte, bool)  { return v>>1 | v&0x80, v&0x01 != 0 }
func srl(v byte) (byte, bool)  { return v >> 1, v&0x01 != 0 }
func swap(v byte) (byte, bool) { return v<<4 | v>>4, false }
