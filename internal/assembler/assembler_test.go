package assembler

import (
	"testing"

	"github.com/xyproto/lcc/internal/isa"
	"github.com/xyproto/lcc/internal/object"
)

func TestAssembleDemoA(t *testing.T) {
	src := "mov r0, 5\ndout r0\nnl\nhalt\n"
	res, err := Assemble("demoa.asm", src)
	if err != nil {
		t.Fatal(err)
	}
	m := res.Module
	if len(m.Code) != 4 {
		t.Fatalf("expected 4 words, got %d", len(m.Code))
	}
	if isa.Decode(m.Code[0]) != isa.OpMVI {
		t.Fatalf("word 0 should decode as MVI")
	}
	if isa.Decode(m.Code[1]) != isa.OpTRAP || (m.Code[1]&0xFF) != uint16(isa.TrapDOUT) {
		t.Fatalf("word 1 should be trap dout, got 0x%04X", m.Code[1])
	}
	if (m.Code[2] & 0xFF) != uint16(isa.TrapNL) {
		t.Fatalf("word 2 should be trap nl, got 0x%04X", m.Code[2])
	}
	if (m.Code[3] & 0xFF) != uint16(isa.TrapHalt) {
		t.Fatalf("word 3 should be trap halt, got 0x%04X", m.Code[3])
	}
	if !m.IsExecutable() {
		t.Fatalf("demoA has no externs/globals, should already be executable")
	}
}

func TestAssembleWordWithLabel(t *testing.T) {
	src := "x: .word 7\ny: .word x\n"
	res, err := Assemble("t.asm", src)
	if err != nil {
		t.Fatal(err)
	}
	m := res.Module
	if len(m.Code) != 2 || m.Code[0] != 7 || m.Code[1] != 0 {
		t.Fatalf("got code %v", m.Code)
	}
	as := m.OfKind(object.KindA)
	if len(as) != 1 || as[0].Addr != 1 {
		t.Fatalf("expected one A entry at address 1, got %+v", as)
	}
}

func TestAssembleMultiModule(t *testing.T) {
	startup := ".extern main\nbl main\n"
	m1 := ".global main\nmain: ret\n"
	r1, err := Assemble("startup.asm", startup)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Assemble("m1.asm", m1)
	if err != nil {
		t.Fatal(err)
	}
	es := r1.Module.OfKind(object.KindE)
	if len(es) != 1 || es[0].Label != "main" || es[0].Addr != 0 {
		t.Fatalf("expected one E entry for main at addr 0, got %+v", es)
	}
	gs := r2.Module.OfKind(object.KindG)
	if len(gs) != 1 || gs[0].Label != "main" || gs[0].Addr != 0 {
		t.Fatalf("expected one G entry for main at addr 0, got %+v", gs)
	}
	if r1.Module.IsExecutable() {
		t.Fatalf("startup.asm has an unresolved extern, should not be executable yet")
	}
}

func TestBranchOutOfRangeErrors(t *testing.T) {
	src := "br target\n" + repeatNop(300) + "target: halt\n"
	if _, err := Assemble("t.asm", src); err == nil {
		t.Fatal("expected a RangeError for a branch 300 words out of range")
	}
}

func repeatNop(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += "push r0\npop r0\n"
	}
	return s
}

func TestUndefinedNonExternLabelErrors(t *testing.T) {
	if _, err := Assemble("t.asm", "bl nowhere\n"); err == nil {
		t.Fatal("expected an UndefinedSymbol error")
	}
}

func TestDuplicateLabelErrors(t *testing.T) {
	if _, err := Assemble("t.asm", "x: halt\nx: halt\n"); err == nil {
		t.Fatal("expected a DuplicateSymbol error")
	}
}

func TestImmediateOutOfRangeErrors(t *testing.T) {
	if _, err := Assemble("t.asm", "add r0, r1, 16\n"); err == nil {
		t.Fatal("expected a RangeError for imm5=16")
	}
}
