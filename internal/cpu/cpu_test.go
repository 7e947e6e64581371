package cpu

import (
	"errors"
	"testing"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/bus"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/fault"
)

func newCPUWithROM(code []byte) (*CPU, *bus.Bus) {
	rom := make([]byte, 0x8000)
	copy(rom, code)
	b := bus.New(nil, rom)
	c := New(b)
	c.SP = 0xFFFE
	return c, b
}

func step(t *testing.T, c *CPU) int {
	t.Helper()
	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("step at %04x: %v", c.PC, err)
	}
	return cycles
}

func TestCPU_NopAndPC(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x00})
	if cycles := step(t, c); cycles != 4 {
		t.Fatalf("NOP cycles got %d want 4", cycles)
	}
	if c.PC != 1 {
		t.Fatalf("PC after NOP got %#04x want 0x0001", c.PC)
	}
}

func TestCPU_LD_A_d8_And_XOR_A(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x3E, 0x12, 0xAF}) // LD A,0x12; XOR A
	if cycles := step(t, c); cycles != 8 {
		t.Fatalf("LD A,d8 cycles got %d want 8", cycles)
	}
	if c.A != 0x12 {
		t.Fatalf("A after LD got %02x want 12", c.A)
	}
	step(t, c)
	if c.A != 0x00 {
		t.Fatalf("A after XOR got %02x want 00", c.A)
	}
	if c.F != (Flags{Zero: true}) {
		t.Fatalf("flags after XOR A got %+v want Z only", c.F)
	}
}

func TestCPU_LD_a16_A_and_LD_A_a16(t *testing.T) {
	// LD A,0x5A; LD (0xC000),A; LD A,0x00; LD A,(0xC000)
	c, b := newCPUWithROM([]byte{0x3E, 0x5A, 0xEA, 0x00, 0xC0, 0x3E, 0x00, 0xFA, 0x00, 0xC0})
	step(t, c)
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("LD (a16),A cycles got %d want 16", cycles)
	}
	if got := b.Read8(0xC000); got != 0x5A {
		t.Fatalf("mem[C000] got %02x want 5A", got)
	}
	step(t, c)
	step(t, c)
	if c.A != 0x5A {
		t.Fatalf("A after LD A,(a16) got %02x want 5A", c.A)
	}
}

func TestCPU_JP_and_JR(t *testing.T) {
	code := make([]byte, 0x20)
	code[0x00] = 0xC3 // JP 0x0010
	code[0x01] = 0x10
	code[0x02] = 0x00
	code[0x10] = 0x18 // JR -2 loops onto itself
	code[0x11] = 0xFE
	c, _ := newCPUWithROM(code)
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("JP cycles got %d want 16", cycles)
	}
	if c.PC != 0x0010 {
		t.Fatalf("PC after JP got %04x want 0010", c.PC)
	}
	if cycles := step(t, c); cycles != 12 {
		t.Fatalf("JR cycles got %d want 12", cycles)
	}
	if c.PC != 0x0010 {
		t.Fatalf("PC after JR -2 got %04x want 0010", c.PC)
	}
}

func TestCPU_INC_B_Flags(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x06, 0x0F, 0x04, 0x06, 0xFF, 0x04}) // LD B,0F; INC B; LD B,FF; INC B
	c.F = Flags{Carry: true}
	step(t, c)
	step(t, c)
	if c.B != 0x10 {
		t.Fatalf("B got %02x want 10", c.B)
	}
	if c.F != (Flags{HalfCarry: true, Carry: true}) {
		t.Fatalf("flags after INC 0F got %+v", c.F)
	}
	step(t, c)
	step(t, c)
	if c.B != 0x00 || !c.F.Zero || !c.F.HalfCarry || !c.F.Carry || c.F.Negative {
		t.Fatalf("INC FF got B=%02x F=%+v", c.B, c.F)
	}
}

func TestCPU_DEC_Flags(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x0E, 0x10, 0x0D, 0x0E, 0x01, 0x0D}) // LD C,10; DEC C; LD C,01; DEC C
	step(t, c)
	step(t, c)
	if c.C != 0x0F || c.F != (Flags{Negative: true, HalfCarry: true}) {
		t.Fatalf("DEC 10 got C=%02x F=%+v", c.C, c.F)
	}
	step(t, c)
	step(t, c)
	if c.C != 0x00 || c.F != (Flags{Zero: true, Negative: true}) {
		t.Fatalf("DEC 01 got C=%02x F=%+v", c.C, c.F)
	}
}

func TestCPU_INC_DEC_HL_Indirect(t *testing.T) {
	// LD HL,C000; INC (HL); DEC (HL); DEC (HL)
	c, b := newCPUWithROM([]byte{0x21, 0x00, 0xC0, 0x34, 0x35, 0x35})
	b.Write8(0xC000, 0x41)
	step(t, c)
	if cycles := step(t, c); cycles != 12 {
		t.Fatalf("INC (HL) cycles got %d want 12", cycles)
	}
	if got := b.Read8(0xC000); got != 0x42 {
		t.Fatalf("INC (HL) got %02x want 42", got)
	}
	step(t, c)
	step(t, c)
	if got := b.Read8(0xC000); got != 0x40 {
		t.Fatalf("DEC (HL) got %02x want 40", got)
	}
}

func TestCPU_LD_16bit_and_LDH(t *testing.T) {
	// LD BC,1234; LD DE,5678; LD HL,C0DE; LD SP,DFF0; LD A,77; LDH (80),A; LD A,00; LDH A,(80)
	code := []byte{
		0x01, 0x34, 0x12,
		0x11, 0x78, 0x56,
		0x21, 0xDE, 0xC0,
		0x31, 0xF0, 0xDF,
		0x3E, 0x77,
		0xE0, 0x80,
		0x3E, 0x00,
		0xF0, 0x80,
	}
	c, b := newCPUWithROM(code)
	for i := 0; i < 4; i++ {
		if cycles := step(t, c); cycles != 12 {
			t.Fatalf("LD rr,d16 cycles got %d want 12", cycles)
		}
	}
	if c.BC() != 0x1234 || c.DE() != 0x5678 || c.HL() != 0xC0DE || c.SP != 0xDFF0 {
		t.Fatalf("16-bit loads got BC=%04x DE=%04x HL=%04x SP=%04x", c.BC(), c.DE(), c.HL(), c.SP)
	}
	step(t, c)
	if cycles := step(t, c); cycles != 12 {
		t.Fatalf("LDH (a8),A cycles got %d want 12", cycles)
	}
	if got := b.Read8(0xFF80); got != 0x77 {
		t.Fatalf("HRAM got %02x want 77", got)
	}
	step(t, c)
	step(t, c)
	if c.A != 0x77 {
		t.Fatalf("LDH A,(a8) got %02x want 77", c.A)
	}
}

func TestCPU_LD_C_Indirect(t *testing.T) {
	// LD C,81; LD A,3C; LD (C),A; LD A,00; LD A,(C)
	c, b := newCPUWithROM([]byte{0x0E, 0x81, 0x3E, 0x3C, 0xE2, 0x3E, 0x00, 0xF2})
	step(t, c)
	step(t, c)
	if cycles := step(t, c); cycles != 8 {
		t.Fatalf("LD (C),A cycles got %d want 8", cycles)
	}
	if got := b.Read8(0xFF81); got != 0x3C {
		t.Fatalf("FF81 got %02x want 3C", got)
	}
	step(t, c)
	step(t, c)
	if c.A != 0x3C {
		t.Fatalf("LD A,(C) got %02x want 3C", c.A)
	}
}

func TestCPU_LD_HL_IncDec(t *testing.T) {
	// LD HL,C000; LD A,11; LD (HL+),A; LD A,22; LD (HL-),A; LD A,(HL+); LD A,(HL-)
	c, b := newCPUWithROM([]byte{0x21, 0x00, 0xC0, 0x3E, 0x11, 0x22, 0x3E, 0x22, 0x32, 0x2A, 0x3A})
	step(t, c)
	step(t, c)
	step(t, c)
	if c.HL() != 0xC001 {
		t.Fatalf("HL after LD (HL+),A got %04x", c.HL())
	}
	step(t, c)
	step(t, c)
	if c.HL() != 0xC000 || b.Read8(0xC001) != 0x22 {
		t.Fatalf("LD (HL-),A got HL=%04x mem=%02x", c.HL(), b.Read8(0xC001))
	}
	step(t, c)
	if c.A != 0x11 || c.HL() != 0xC001 {
		t.Fatalf("LD A,(HL+) got A=%02x HL=%04x", c.A, c.HL())
	}
	step(t, c)
	if c.A != 0x22 || c.HL() != 0xC000 {
		t.Fatalf("LD A,(HL-) got A=%02x HL=%04x", c.A, c.HL())
	}
}

func TestCPU_LD_a16_SP(t *testing.T) {
	// LD SP,BEEF; LD (C100),SP
	c, b := newCPUWithROM([]byte{0x31, 0xEF, 0xBE, 0x08, 0x00, 0xC1})
	step(t, c)
	if cycles := step(t, c); cycles != 20 {
		t.Fatalf("LD (a16),SP cycles got %d want 20", cycles)
	}
	if lo, hi := b.Read8(0xC100), b.Read8(0xC101); lo != 0xEF || hi != 0xBE {
		t.Fatalf("stored SP got %02x%02x want BEEF", hi, lo)
	}
}

func TestCPU_CALL_RET(t *testing.T) {
	code := make([]byte, 0x30)
	code[0x00] = 0xCD // CALL 0x0020
	code[0x01] = 0x20
	code[0x02] = 0x00
	code[0x20] = 0xC9 // RET
	c, b := newCPUWithROM(code)
	if cycles := step(t, c); cycles != 24 {
		t.Fatalf("CALL cycles got %d want 24", cycles)
	}
	if c.PC != 0x0020 || c.SP != 0xFFFC {
		t.Fatalf("after CALL got PC=%04x SP=%04x", c.PC, c.SP)
	}
	if lo, hi := b.Read8(0xFFFC), b.Read8(0xFFFD); lo != 0x03 || hi != 0x00 {
		t.Fatalf("return address got %02x%02x want 0003", hi, lo)
	}
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("RET cycles got %d want 16", cycles)
	}
	if c.PC != 0x0003 || c.SP != 0xFFFE {
		t.Fatalf("after RET got PC=%04x SP=%04x", c.PC, c.SP)
	}
}

func TestCPU_RST(t *testing.T) {
	code := make([]byte, 0x40)
	code[0x00] = 0xEF // RST 28H
	c, _ := newCPUWithROM(code)
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("RST cycles got %d want 16", cycles)
	}
	if c.PC != 0x0028 {
		t.Fatalf("RST PC got %04x want 0028", c.PC)
	}
	if ret := c.pop16(); ret != 0x0001 {
		t.Fatalf("RST pushed %04x want 0001", ret)
	}
}

func TestCPU_PushPopRoundTrip(t *testing.T) {
	// PUSH BC; PUSH DE; PUSH HL; PUSH AF; POP BC; POP DE; POP HL; POP AF
	c, _ := newCPUWithROM([]byte{0xC5, 0xD5, 0xE5, 0xF5, 0xC1, 0xD1, 0xE1, 0xF1})
	c.SetBC(0x1111)
	c.SetDE(0x2222)
	c.SetHL(0x3333)
	c.SetAF(0x44F0)
	for i := 0; i < 4; i++ {
		if cycles := step(t, c); cycles != 16 {
			t.Fatalf("PUSH cycles got %d want 16", cycles)
		}
	}
	if c.SP != 0xFFF6 {
		t.Fatalf("SP after pushes got %04x want FFF6", c.SP)
	}
	for i := 0; i < 4; i++ {
		if cycles := step(t, c); cycles != 12 {
			t.Fatalf("POP cycles got %d want 12", cycles)
		}
	}
	// Popped in reverse: BC<-AF, DE<-HL, HL<-DE, AF<-BC.
	if c.BC() != 0x44F0 || c.DE() != 0x3333 || c.HL() != 0x2222 || c.AF() != 0x1110 {
		t.Fatalf("round trip got BC=%04x DE=%04x HL=%04x AF=%04x", c.BC(), c.DE(), c.HL(), c.AF())
	}
	if c.SP != 0xFFFE {
		t.Fatalf("SP after pops got %04x want FFFE", c.SP)
	}
}

func TestCPU_POP_AF_MasksFlagsLowNibble(t *testing.T) {
	// LD BC,12FF; PUSH BC; POP AF
	c, _ := newCPUWithROM([]byte{0x01, 0xFF, 0x12, 0xC5, 0xF1})
	step(t, c)
	step(t, c)
	step(t, c)
	if c.A != 0x12 {
		t.Fatalf("A got %02x want 12", c.A)
	}
	if got := c.F.Byte(); got != 0xF0 {
		t.Fatalf("F got %02x want F0", got)
	}
}

func TestCPU_DAA_AddAndSub(t *testing.T) {
	// LD A,45; ADD A,38; DAA
	c, _ := newCPUWithROM([]byte{0x3E, 0x45, 0xC6, 0x38, 0x27})
	step(t, c)
	step(t, c)
	step(t, c)
	if c.A != 0x83 || c.F.Carry || c.F.Negative {
		t.Fatalf("DAA after add got A=%02x F=%+v want 83", c.A, c.F)
	}

	// LD A,45; SUB 06; DAA
	c, _ = newCPUWithROM([]byte{0x3E, 0x45, 0xD6, 0x06, 0x27})
	step(t, c)
	step(t, c)
	step(t, c)
	if c.A != 0x39 || !c.F.Negative || c.F.Carry {
		t.Fatalf("DAA after sub got A=%02x F=%+v want 39 with N", c.A, c.F)
	}
}

func TestCPU_DAA_HalfCarryAdjust(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x27})
	c.A = 0x0F
	c.F = Flags{HalfCarry: true}
	step(t, c)
	if c.A != 0x15 || c.F.Carry || c.F.HalfCarry || c.F.Zero {
		t.Fatalf("DAA 0F with H got A=%02x F=%+v want 15", c.A, c.F)
	}
}

func TestCPU_EI_TakesEffectImmediately(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0xFB, 0xF3}) // EI; DI
	step(t, c)
	if !c.InterruptsEnabled() {
		t.Fatalf("IME not set after EI")
	}
	step(t, c)
	if c.InterruptsEnabled() {
		t.Fatalf("IME still set after DI")
	}
}

func TestCPU_HALT_WaitsForPendingInterrupt(t *testing.T) {
	c, b := newCPUWithROM([]byte{0x76, 0x00}) // HALT; NOP
	step(t, c)
	if !c.Halted() {
		t.Fatalf("CPU not halted")
	}
	for i := 0; i < 3; i++ {
		if cycles := step(t, c); cycles != 4 {
			t.Fatalf("halted step cycles got %d want 4", cycles)
		}
		if c.PC != 0x0001 {
			t.Fatalf("PC moved while halted: %04x", c.PC)
		}
	}
	// A request that is not enabled keeps the CPU halted.
	b.Write8(0xFF0F, 0x04)
	step(t, c)
	if !c.Halted() {
		t.Fatalf("woke on a disabled interrupt")
	}
	b.Write8(0xFFFF, 0x04)
	step(t, c)
	if c.Halted() || c.PC != 0x0002 {
		t.Fatalf("after wake got halted=%v PC=%04x", c.Halted(), c.PC)
	}
}

func TestCPU_STOP(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x10, 0x00, 0x00})
	step(t, c)
	if !c.Stopped() {
		t.Fatalf("CPU not stopped")
	}
	if c.PC != 0x0001 {
		t.Fatalf("STOP length got PC=%04x want 0001", c.PC)
	}
	if cycles := step(t, c); cycles != 4 || c.PC != 0x0001 {
		t.Fatalf("stopped step got cycles=%d PC=%04x", cycles, c.PC)
	}
	c.Wake()
	step(t, c)
	if c.Stopped() || c.PC != 0x0002 {
		t.Fatalf("after wake got stopped=%v PC=%04x", c.Stopped(), c.PC)
	}
}

func TestCPU_Service(t *testing.T) {
	c, b := newCPUWithROM([]byte{0xFB, 0x76}) // EI; HALT
	step(t, c)
	step(t, c)
	c.Service(0x0050)
	if c.PC != 0x0050 || c.IME || c.Halted() {
		t.Fatalf("after service got PC=%04x IME=%v halted=%v", c.PC, c.IME, c.Halted())
	}
	if lo, hi := b.Read8(0xFFFC), b.Read8(0xFFFD); lo != 0x02 || hi != 0x00 {
		t.Fatalf("pushed %02x%02x want 0002", hi, lo)
	}
}

func TestCPU_RETI_EnablesIME_AndCycles(t *testing.T) {
	code := make([]byte, 0x40)
	code[0x00] = 0xCD // CALL 0x0030
	code[0x01] = 0x30
	code[0x02] = 0x00
	code[0x30] = 0xD9 // RETI
	c, _ := newCPUWithROM(code)
	step(t, c)
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("RETI cycles got %d want 16", cycles)
	}
	if !c.IME || c.PC != 0x0003 {
		t.Fatalf("after RETI got IME=%v PC=%04x", c.IME, c.PC)
	}
}

func TestCPU_CB_Prefix_CyclesAndBehavior(t *testing.T) {
	// LD B,81; RLC B; LD HL,C000; BIT 7,(HL); SET 0,(HL); RES 7,(HL)
	c, b := newCPUWithROM([]byte{0x06, 0x81, 0xCB, 0x00, 0x21, 0x00, 0xC0, 0xCB, 0x7E, 0xCB, 0xC6, 0xCB, 0xBE})
	b.Write8(0xC000, 0x80)
	step(t, c)
	if cycles := step(t, c); cycles != 8 {
		t.Fatalf("RLC B cycles got %d want 8", cycles)
	}
	if c.B != 0x03 || !c.F.Carry || c.F.Zero {
		t.Fatalf("RLC B got B=%02x F=%+v", c.B, c.F)
	}
	step(t, c)
	if cycles := step(t, c); cycles != 12 {
		t.Fatalf("BIT 7,(HL) cycles got %d want 12", cycles)
	}
	if c.F.Zero || !c.F.HalfCarry || c.F.Negative || !c.F.Carry {
		t.Fatalf("BIT 7,(HL) flags got %+v", c.F)
	}
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("SET 0,(HL) cycles got %d want 16", cycles)
	}
	if got := b.Read8(0xC000); got != 0x81 {
		t.Fatalf("SET 0,(HL) got %02x want 81", got)
	}
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("RES 7,(HL) cycles got %d want 16", cycles)
	}
	if got := b.Read8(0xC000); got != 0x01 {
		t.Fatalf("RES 7,(HL) got %02x want 01", got)
	}
}

func TestCPU_CB_ShiftsAndSwap(t *testing.T) {
	cases := []struct {
		name  string
		op    byte
		in    byte
		carry bool
		want  byte
		out   bool
	}{
		{"RRC A", 0x0F, 0x01, false, 0x80, true},
		{"RL A", 0x17, 0x80, true, 0x01, true},
		{"RR A", 0x1F, 0x01, false, 0x00, true},
		{"SLA A", 0x27, 0xC0, false, 0x80, true},
		{"SRA A", 0x2F, 0x81, false, 0xC0, true},
		{"SWAP A", 0x37, 0xF1, true, 0x1F, false},
		{"SRL A", 0x3F, 0x81, false, 0x40, true},
	}
	for _, tc := range cases {
		c, _ := newCPUWithROM([]byte{0xCB, tc.op})
		c.A = tc.in
		c.F = Flags{Carry: tc.carry, Negative: true, HalfCarry: true}
		step(t, c)
		want := Flags{Zero: tc.want == 0, Carry: tc.out}
		if c.A != tc.want || c.F != want {
			t.Fatalf("%s %02x got %02x %+v want %02x %+v", tc.name, tc.in, c.A, c.F, tc.want, want)
		}
		if name, n := c.Disassemble(0); name != tc.name || n != 2 {
			t.Fatalf("disassembly of CB %02x got %q/%d", tc.op, name, n)
		}
	}
}

func TestCPU_ADD_HL_FlagsAndCarry(t *testing.T) {
	// LD HL,0FFF; LD BC,0001; ADD HL,BC
	c, _ := newCPUWithROM([]byte{0x21, 0xFF, 0x0F, 0x01, 0x01, 0x00, 0x09})
	c.F = Flags{Zero: true, Negative: true}
	step(t, c)
	step(t, c)
	if cycles := step(t, c); cycles != 8 {
		t.Fatalf("ADD HL,BC cycles got %d want 8", cycles)
	}
	if c.HL() != 0x1000 {
		t.Fatalf("HL got %04x want 1000", c.HL())
	}
	if c.F != (Flags{HalfCarry: true}) {
		t.Fatalf("ADD HL flags got %+v want H only", c.F)
	}

	// LD HL,8000; ADD HL,HL
	c, _ = newCPUWithROM([]byte{0x21, 0x00, 0x80, 0x29})
	step(t, c)
	step(t, c)
	if c.HL() != 0x0000 || c.F != (Flags{Carry: true}) {
		t.Fatalf("ADD HL,HL got HL=%04x F=%+v", c.HL(), c.F)
	}
}

func TestCPU_LD_HL_SP_plus_r8_and_ADD_SP_r8_Flags(t *testing.T) {
	// LD SP,0FFF; LD HL,SP+1; ADD SP,-1
	c, _ := newCPUWithROM([]byte{0x31, 0xFF, 0x0F, 0xF8, 0x01, 0xE8, 0xFF})
	step(t, c)
	if cycles := step(t, c); cycles != 12 {
		t.Fatalf("LD HL,SP+r8 cycles got %d want 12", cycles)
	}
	if c.HL() != 0x1000 || c.SP != 0x0FFF {
		t.Fatalf("LD HL,SP+1 got HL=%04x SP=%04x", c.HL(), c.SP)
	}
	if c.F != (Flags{HalfCarry: true}) {
		t.Fatalf("LD HL,SP+1 flags got %+v", c.F)
	}
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("ADD SP,r8 cycles got %d want 16", cycles)
	}
	// 0x0FFF + 0xFFFF carries out of both bit 11 and bit 15.
	if c.SP != 0x0FFE || c.F != (Flags{HalfCarry: true, Carry: true}) {
		t.Fatalf("ADD SP,-1 got SP=%04x F=%+v", c.SP, c.F)
	}
}

func TestCPU_16bit_INC_DEC_DoNotAffectFlags(t *testing.T) {
	// LD BC,FFFF; INC BC; DEC DE
	c, _ := newCPUWithROM([]byte{0x01, 0xFF, 0xFF, 0x03, 0x1B})
	c.F = Flags{Zero: true, Carry: true}
	step(t, c)
	if cycles := step(t, c); cycles != 8 {
		t.Fatalf("INC BC cycles got %d want 8", cycles)
	}
	if c.BC() != 0x0000 || c.F != (Flags{Zero: true, Carry: true}) {
		t.Fatalf("INC BC got BC=%04x F=%+v", c.BC(), c.F)
	}
	step(t, c)
	if c.DE() != 0xFFFF || c.F != (Flags{Zero: true, Carry: true}) {
		t.Fatalf("DEC DE got DE=%04x F=%+v", c.DE(), c.F)
	}
}

func TestCPU_Conditional_Cycles(t *testing.T) {
	cases := []struct {
		name  string
		code  []byte
		flags Flags
		want  int
		pc    uint16
	}{
		{"JR NZ taken", []byte{0x20, 0x05}, Flags{}, 12, 0x0007},
		{"JR NZ not taken", []byte{0x20, 0x05}, Flags{Zero: true}, 8, 0x0002},
		{"JP Z taken", []byte{0xCA, 0x34, 0x12}, Flags{Zero: true}, 16, 0x1234},
		{"JP Z not taken", []byte{0xCA, 0x34, 0x12}, Flags{}, 12, 0x0003},
		{"CALL C taken", []byte{0xDC, 0x00, 0x20}, Flags{Carry: true}, 24, 0x2000},
		{"CALL C not taken", []byte{0xDC, 0x00, 0x20}, Flags{}, 12, 0x0003},
		{"RET NC not taken", []byte{0xD0}, Flags{Carry: true}, 8, 0x0001},
	}
	for _, tc := range cases {
		c, _ := newCPUWithROM(tc.code)
		c.F = tc.flags
		if cycles := step(t, c); cycles != tc.want {
			t.Fatalf("%s cycles got %d want %d", tc.name, cycles, tc.want)
		}
		if c.PC != tc.pc {
			t.Fatalf("%s PC got %04x want %04x", tc.name, c.PC, tc.pc)
		}
	}

	// RET NC taken, after pushing a return address by hand.
	c, _ := newCPUWithROM([]byte{0xD0})
	c.push16(0x4321)
	if cycles := step(t, c); cycles != 20 {
		t.Fatalf("RET NC taken cycles got %d want 20", cycles)
	}
	if c.PC != 0x4321 {
		t.Fatalf("RET NC taken PC got %04x want 4321", c.PC)
	}
}

func TestCPU_ADC_SBC_HalfCarry(t *testing.T) {
	// LD A,0E; ADC A,01 with carry in
	c, _ := newCPUWithROM([]byte{0x3E, 0x0E, 0xCE, 0x01})
	c.F = Flags{Carry: true}
	step(t, c)
	step(t, c)
	if c.A != 0x10 || c.F != (Flags{HalfCarry: true}) {
		t.Fatalf("ADC got A=%02x F=%+v", c.A, c.F)
	}

	// LD A,10; SBC A,00 with carry in
	c, _ = newCPUWithROM([]byte{0x3E, 0x10, 0xDE, 0x00})
	c.F = Flags{Carry: true}
	step(t, c)
	step(t, c)
	if c.A != 0x0F || c.F != (Flags{Negative: true, HalfCarry: true}) {
		t.Fatalf("SBC got A=%02x F=%+v", c.A, c.F)
	}
}

func TestCPU_CP_LeavesA(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x3E, 0x42, 0xFE, 0x42, 0xFE, 0x43}) // LD A,42; CP 42; CP 43
	step(t, c)
	step(t, c)
	if c.A != 0x42 || c.F != (Flags{Zero: true, Negative: true}) {
		t.Fatalf("CP equal got A=%02x F=%+v", c.A, c.F)
	}
	step(t, c)
	if c.A != 0x42 || !c.F.Carry || c.F.Zero {
		t.Fatalf("CP greater got A=%02x F=%+v", c.A, c.F)
	}
}

func TestCPU_UnprefixedRotates_ClearZ(t *testing.T) {
	cases := []struct {
		name string
		op   byte
		in   byte
		want byte
		c    bool
	}{
		{"RLCA", 0x07, 0x80, 0x01, true},
		{"RRCA", 0x0F, 0x01, 0x80, true},
		{"RLA", 0x17, 0x80, 0x00, true},
		{"RRA", 0x1F, 0x01, 0x00, true},
	}
	for _, tc := range cases {
		c, _ := newCPUWithROM([]byte{tc.op})
		c.A = tc.in
		c.F = Flags{Zero: true, Negative: true, HalfCarry: true}
		step(t, c)
		if c.A != tc.want || c.F != (Flags{Carry: tc.c}) {
			t.Fatalf("%s got A=%02x F=%+v", tc.name, c.A, c.F)
		}
	}
}

func TestCPU_CCF_SCF_CPL_Flags(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x37, 0x3F, 0x2F}) // SCF; CCF; CPL
	c.A = 0x5A
	c.F = Flags{Zero: true, Negative: true, HalfCarry: true}
	step(t, c)
	if c.F != (Flags{Zero: true, Carry: true}) {
		t.Fatalf("SCF got %+v", c.F)
	}
	step(t, c)
	if c.F != (Flags{Zero: true}) {
		t.Fatalf("CCF got %+v", c.F)
	}
	step(t, c)
	if c.A != 0xA5 || c.F != (Flags{Zero: true, Negative: true, HalfCarry: true}) {
		t.Fatalf("CPL got A=%02x F=%+v", c.A, c.F)
	}
}

func TestCPU_LD_r_from_HL_CyclesAndBehavior(t *testing.T) {
	// LD HL,C010; LD D,(HL); LD (HL),E; LD B,D
	c, b := newCPUWithROM([]byte{0x21, 0x10, 0xC0, 0x56, 0x73, 0x42})
	b.Write8(0xC010, 0x99)
	c.E = 0x07
	step(t, c)
	if cycles := step(t, c); cycles != 8 {
		t.Fatalf("LD D,(HL) cycles got %d want 8", cycles)
	}
	if c.D != 0x99 {
		t.Fatalf("LD D,(HL) got %02x want 99", c.D)
	}
	if cycles := step(t, c); cycles != 8 {
		t.Fatalf("LD (HL),E cycles got %d want 8", cycles)
	}
	if got := b.Read8(0xC010); got != 0x07 {
		t.Fatalf("LD (HL),E got %02x want 07", got)
	}
	if cycles := step(t, c); cycles != 4 {
		t.Fatalf("LD B,D cycles got %d want 4", cycles)
	}
	if c.B != 0x99 {
		t.Fatalf("LD B,D got %02x want 99", c.B)
	}
}

func TestCPU_JP_HL(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0xE9})
	c.SetHL(0x1234)
	if cycles := step(t, c); cycles != 4 || c.PC != 0x1234 {
		t.Fatalf("JP (HL) got cycles=%d PC=%04x", cycles, c.PC)
	}
}

func TestCPU_IllegalOpcodeFaults(t *testing.T) {
	illegal := []byte{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}
	for _, op := range illegal {
		c, _ := newCPUWithROM([]byte{0x00, 0x00, op, 0x11, 0x22})
		step(t, c)
		step(t, c)
		c.A = 0x5C
		cycles, err := c.Step()
		if err == nil {
			t.Fatalf("opcode %02x did not fault", op)
		}
		if cycles != 0 {
			t.Fatalf("opcode %02x reported %d cycles", op, cycles)
		}
		var f *fault.Fault
		if !errors.As(err, &f) {
			t.Fatalf("opcode %02x error is %T", op, err)
		}
		if f.Kind != fault.Decode || f.Opcode != op || f.Prefixed || f.Addr != 0x0002 {
			t.Fatalf("opcode %02x fault got %+v", op, f)
		}
		want := []byte{0x00, 0x00, op, 0x11, 0x22}
		if string(f.Context) != string(want) {
			t.Fatalf("opcode %02x context got % x want % x", op, f.Context, want)
		}
		if !f.HasState || f.State.A != 0x5C || f.State.PC != 0x0002 {
			t.Fatalf("opcode %02x state got %+v", op, f.State)
		}
		if c.PC != 0x0002 {
			t.Fatalf("opcode %02x left PC at %04x", op, c.PC)
		}
	}
}

func TestTablesExhaustive(t *testing.T) {
	nilCount := 0
	for op := 0; op < 256; op++ {
		in := primary[op]
		if in.exec == nil {
			nilCount++
			continue
		}
		if in.cycles <= 0 || in.name == "" {
			t.Fatalf("primary %02x has cycles=%d name=%q", op, in.cycles, in.name)
		}
	}
	if nilCount != 11 {
		t.Fatalf("undefined primary opcodes got %d want 11", nilCount)
	}
	for op := 0; op < 256; op++ {
		in := prefixed[op]
		if in.exec == nil || in.cycles <= 0 || in.name == "" {
			t.Fatalf("prefixed %02x incomplete: %+v", op, in.name)
		}
	}
}

func TestResetNoBoot(t *testing.T) {
	c, _ := newCPUWithROM(nil)
	c.IME = true
	c.ResetNoBoot()
	if c.AF() != 0x01B0 || c.BC() != 0x0013 || c.DE() != 0x00D8 || c.HL() != 0x014D {
		t.Fatalf("post-boot registers got AF=%04x BC=%04x DE=%04x HL=%04x", c.AF(), c.BC(), c.DE(), c.HL())
	}
	if c.SP != 0xFFFE || c.PC != 0x0100 || c.IME {
		t.Fatalf("post-boot got SP=%04x PC=%04x IME=%v", c.SP, c.PC, c.IME)
	}
}

func TestDisassemble(t *testing.T) {
	code := []byte{
		0x00,
		0x3E, 0x12,
		0xC3, 0x50, 0x01,
		0x18, 0xFE,
		0xE0, 0x44,
		0xE8, 0xFE,
		0xD3,
		0xCB, 0x7C,
	}
	c, _ := newCPUWithROM(code)
	want := []struct {
		text string
		n    int
	}{
		{"NOP", 1},
		{"LD A,$12", 2},
		{"JP $0150", 3},
		{"JR $0006", 2},
		{"LDH ($FF44),A", 2},
		{"ADD SP,-2", 2},
		{"ILLEGAL D3", 1},
		{"BIT 7,H", 2},
	}
	addr := uint16(0)
	for _, w := range want {
		text, n := c.Disassemble(addr)
		if text != w.text || n != w.n {
			t.Fatalf("disassemble %04x got %q/%d want %q/%d", addr, text, n, w.text, w.n)
		}
		addr += uint16(n)
	}
}
