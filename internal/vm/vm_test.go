package vm

import (
	"strings"
	"testing"

	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/isa"
)

// stubDispatcher only implements halt, enough to drive Run() in tests
// that don't exercise I/O traps.
type stubDispatcher struct{}

func (stubDispatcher) Dispatch(m *Machine, vec uint8, dr uint8) error {
	return nil
}

func TestAddSetsFlags(t *testing.T) {
	m := New()
	m.Regs[1] = 0xFFFF // -1
	m.Regs[2] = 1
	// add r0, r1, r2 -> DR=0 SR1=1 mode=0 SR2=2
	word := uint16(isa.OpADD)<<12 | 0<<9 | 1<<6 | 2
	if err := m.execute(word); err != nil {
		t.Fatal(err)
	}
	if m.Regs[0] != 0 {
		t.Fatalf("expected r0=0, got %d", m.Regs[0])
	}
	if !m.Flags.Z || m.Flags.N {
		t.Fatalf("expected zero flag set, negative clear: %+v", m.Flags)
	}
	if !m.Flags.C {
		t.Fatalf("expected carry out of -1+1")
	}
}

func TestSignedOverflow(t *testing.T) {
	m := New()
	m.Regs[1] = 0x7FFF // INT16_MAX
	m.Regs[2] = 1
	word := uint16(isa.OpADD)<<12 | 0<<9 | 1<<6 | 2
	if err := m.execute(word); err != nil {
		t.Fatal(err)
	}
	if !m.Flags.V {
		t.Fatalf("expected signed overflow, got %+v", m.Flags)
	}
	if !m.Flags.N {
		t.Fatalf("expected negative result (wrapped to 0x8000)")
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	m := New()
	m.Regs[isa.SP] = 100
	m.Regs[0] = 0x1234
	w, ok := isa.EncodeMISC(isa.EopPush, 0, 0), true
	_ = ok
	if err := m.execute(w); err != nil {
		t.Fatal(err)
	}
	if m.Regs[isa.SP] != 99 {
		t.Fatalf("expected sp=99, got %d", m.Regs[isa.SP])
	}
	m.Regs[0] = 0
	popW := isa.EncodeMISC(isa.EopPop, 0, 0)
	if err := m.execute(popW); err != nil {
		t.Fatal(err)
	}
	if m.Regs[0] != 0x1234 || m.Regs[isa.SP] != 100 {
		t.Fatalf("pop did not restore r0/sp: r0=0x%04X sp=%d", m.Regs[0], m.Regs[isa.SP])
	}
}

func TestDivideByZero(t *testing.T) {
	m := New()
	m.Regs[0] = 10
	m.Regs[1] = 0
	w := isa.EncodeMISC(isa.EopDIV, 0, 1)
	err := m.execute(w)
	if !asmerr.Is(err, asmerr.Runtime) {
		t.Fatalf("expected RuntimeError, got %v", err)
	}
}

func TestRunDemoA(t *testing.T) {
	// mov r0,5 ; dout r0 ; nl ; halt
	code := []uint16{
		isa.EncodeTRAP(0, isa.TrapHalt), // placeholder, overwritten below
	}
	mvi, _ := isa.EncodeMVI(0, 5)
	code[0] = mvi
	code = append(code,
		isa.EncodeTRAP(0, isa.TrapDOUT),
		isa.EncodeTRAP(0, isa.TrapNL),
		isa.EncodeTRAP(0, isa.TrapHalt),
	)

	var out strings.Builder
	m := New()
	m.Output = &out
	m.Dispatcher = demoDispatcher{}
	if err := m.Load(code, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	if m.Running {
		t.Fatal("expected machine to halt")
	}
	if got := out.String(); got != "5\n" {
		t.Fatalf("expected dout+nl output %q, got %q", "5\n", got)
	}
}

// demoDispatcher implements just enough of §4.7 to drive TestRunDemoA
// without depending on internal/trap (kept import-free to test vm in
// isolation).
type demoDispatcher struct{}

func (demoDispatcher) Dispatch(m *Machine, vec uint8, dr uint8) error {
	switch vec {
	case isa.TrapDOUT:
		_, err := m.Output.Write([]byte(itoa(int16(m.Regs[dr]))))
		return err
	case isa.TrapNL:
		_, err := m.Output.Write([]byte("\n"))
		return err
	case isa.TrapHalt:
		return nil
	}
	return nil
}

func itoa(v int16) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	u := uint32(v)
	if neg {
		u = uint32(-int32(v))
	}
	var buf [6]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
