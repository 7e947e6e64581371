// Package timer implements DIV and the TIMA/TMA/TAC programmable timer.
package timer

const (
	DIV  uint16 = 0xFF04
	TIMA uint16 = 0xFF05
	TMA  uint16 = 0xFF06
	TAC  uint16 = 0xFF07
)

// timerBit is the bit of the internal counter whose falling edge clocks
// TIMA, indexed by TAC bits 0-1 (4096, 262144, 65536, 16384 Hz).
var timerBit = [4]uint{9, 3, 5, 7}

// Memory is raw access to the timer registers.
type Memory interface {
	Peek(addr uint16) byte
	Poke(addr uint16, v byte)
}

// InterruptRequester raises an IF bit.
type InterruptRequester func(bit int) error

const timerIRQ = 2

// Timer advances DIV and TIMA by elapsed CPU cycles.
type Timer struct {
	mem Memory
	req InterruptRequester

	// counter is the internal divider that clocks TIMA.
	counter uint16
}

func New(mem Memory, req InterruptRequester) *Timer {
	return &Timer{mem: mem, req: req}
}

// Advance adds cycles to DIV, wrapping at 8 bits, and clocks TIMA once per
// falling edge of the selected counter bit while TAC bit 2 is set.
func (t *Timer) Advance(cycles int) error {
	if cycles <= 0 {
		return nil
	}
	t.mem.Poke(DIV, t.mem.Peek(DIV)+byte(cycles))

	start := uint32(t.counter)
	end := start + uint32(cycles)
	t.counter = uint16(end)

	tac := t.mem.Peek(TAC)
	if tac&0x04 == 0 {
		return nil
	}
	period := uint32(1) << (timerBit[tac&0x03] + 1)
	for n := end/period - start/period; n > 0; n-- {
		if err := t.tick(); err != nil {
			return err
		}
	}
	return nil
}

// ResetDivider clears the internal counter after a DIV write. If the
// selected bit was high, clearing it is a falling edge and TIMA ticks.
func (t *Timer) ResetDivider() error {
	tac := t.mem.Peek(TAC)
	high := t.counter&(1<<timerBit[tac&0x03]) != 0
	t.counter = 0
	if tac&0x04 != 0 && high {
		return t.tick()
	}
	return nil
}

// Counter returns the internal divider.
func (t *Timer) Counter() uint16 { return t.counter }

func (t *Timer) tick() error {
	tima := t.mem.Peek(TIMA) + 1
	if tima != 0 {
		t.mem.Poke(TIMA, tima)
		return nil
	}
	t.mem.Poke(TIMA, t.mem.Peek(TMA))
	if t.req != nil {
		return t.req(timerIRQ)
	}
	return nil
}
