package disasm

import (
	"strings"
	"testing"

	"github.com/xyproto/lcc/internal/assembler"
)

func TestDisassembleDemoA(t *testing.T) {
	res, err := assembler.Assemble("demoa.asm", "mov r0, 5\ndout r0\nnl\nhalt\n")
	if err != nil {
		t.Fatal(err)
	}
	text := NewContext().Disassemble(res.Module)
	for _, want := range []string{"mvi r0, 5", "trap r0, dout", "trap r0, nl", "trap r0, halt"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected disassembly to contain %q, got:\n%s", want, text)
		}
	}
}

func TestDisassembleReusesGlobalLabel(t *testing.T) {
	res, err := assembler.Assemble("t.asm", ".global loop\nloop: br loop\n")
	if err != nil {
		t.Fatal(err)
	}
	text := NewContext().Disassemble(res.Module)
	if !strings.Contains(text, "loop:") || !strings.Contains(text, "br loop") {
		t.Fatalf("expected the real label 'loop' (from the G entry) to be reused, got:\n%s", text)
	}
}

func TestDisassembleMintsLabelForUnlabeledTarget(t *testing.T) {
	// the object format only retains G label names; a plain local
	// label like "skip" isn't exported, so the disassembler must mint
	// its own name (L0) for the branch target rather than reuse it.
	res, err := assembler.Assemble("t.asm", "br skip\npush r0\nskip: halt\n")
	if err != nil {
		t.Fatal(err)
	}
	text := NewContext().Disassemble(res.Module)
	if !strings.Contains(text, "br L0") || !strings.Contains(text, "L0:") {
		t.Fatalf("expected a minted label L0 for the branch target, got:\n%s", text)
	}
}
