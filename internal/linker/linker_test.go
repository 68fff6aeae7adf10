package linker

import (
	"testing"

	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/assembler"
	"github.com/xyproto/lcc/internal/isa"
	"github.com/xyproto/lcc/internal/object"
)

func mustAssemble(t *testing.T, file, src string) *object.Module {
	t.Helper()
	res, err := assembler.Assemble(file, src)
	if err != nil {
		t.Fatalf("assemble %s: %v", file, err)
	}
	return res.Module
}

// TestLinkMultiModule exercises spec §8 scenario 4: a startup module
// that bl's an extern "main", linked against a module that defines and
// exports it.
func TestLinkMultiModule(t *testing.T) {
	startup := mustAssemble(t, "startup.asm", ".extern main\n.start entry\nentry: bl main\n")
	m1 := mustAssemble(t, "m1.asm", ".global main\nmain: ret\n")

	out, err := Link([]*object.Module{startup, m1})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsExecutable() {
		t.Fatalf("linked image still has unresolved externs: %+v", out.Entries)
	}
	start, ok := out.Start()
	if !ok || start != 0 {
		t.Fatalf("expected start address 0, got %d ok=%v", start, ok)
	}
	// bl main sits at absolute address 0, main is at absolute address 1
	// (startup.asm is one word long). off = G - addr - 1 = 1 - 0 - 1 = 0.
	w := out.Code[0]
	if isa.Decode(w) != isa.OpBL {
		t.Fatalf("expected BL opcode, got 0x%04X", w)
	}
	if off := w & 0x07FF; off != 0 {
		t.Fatalf("expected pc-offset11 0, got %d", off)
	}
	if isa.Decode(out.Code[1]) != isa.OpJMP {
		t.Fatalf("expected RET (JMP-encoded) at address 1, got 0x%04X", out.Code[1])
	}
}

// TestLinkWordRelocation exercises the V-table (16-bit absolute extern)
// relocation path: a .word that refers to an extern label defined in a
// later module must resolve to that label's absolute address.
func TestLinkWordRelocation(t *testing.T) {
	mA := mustAssemble(t, "a.asm", ".extern val\nptr: .word val\n")
	mB := mustAssemble(t, "b.asm", ".global val\nval: .word 42\n")

	out, err := Link([]*object.Module{mA, mB})
	if err != nil {
		t.Fatal(err)
	}
	// mA is one word long (ptr), so val lives at absolute address 1.
	if out.Code[0] != 1 {
		t.Fatalf("expected ptr to resolve to address 1, got %d", out.Code[0])
	}
	if out.Code[1] != 42 {
		t.Fatalf("expected val's word to be 42, got %d", out.Code[1])
	}
}

func TestLinkUndefinedExternErrors(t *testing.T) {
	mA := mustAssemble(t, "a.asm", ".extern missing\nbl missing\n")
	_, err := Link([]*object.Module{mA})
	if err == nil {
		t.Fatal("expected an UndefinedSymbol error for an unresolved extern")
	}
	if !asmerr.Is(err, asmerr.UndefinedSymbol) {
		t.Fatalf("expected UndefinedSymbol, got %v", err)
	}
}

func TestLinkDuplicateGlobalErrors(t *testing.T) {
	m1 := mustAssemble(t, "m1.asm", ".global dup\ndup: halt\n")
	m2 := mustAssemble(t, "m2.asm", ".global dup\ndup: halt\n")
	_, err := Link([]*object.Module{m1, m2})
	if !asmerr.Is(err, asmerr.DuplicateSymbol) {
		t.Fatalf("expected DuplicateSymbol, got %v", err)
	}
}

func TestLinkMultipleStartErrors(t *testing.T) {
	m1 := mustAssemble(t, "m1.asm", ".start a\na: halt\n")
	m2 := mustAssemble(t, "m2.asm", ".start b\nb: halt\n")
	_, err := Link([]*object.Module{m1, m2})
	if !asmerr.Is(err, asmerr.MultipleEntryPoints) {
		t.Fatalf("expected MultipleEntryPoints, got %v", err)
	}
}
