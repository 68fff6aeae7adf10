package listing

import (
	"strings"
	"testing"

	"github.com/xyproto/lcc/internal/assembler"
	"github.com/xyproto/lcc/internal/trap"
	"github.com/xyproto/lcc/internal/vm"
)

func TestAccumulatorTracesDemoA(t *testing.T) {
	res, err := assembler.Assemble("demoa.asm", "mov r0, 5\ndout r0\nnl\nhalt\n")
	if err != nil {
		t.Fatal(err)
	}
	m := vm.New()
	var out strings.Builder
	m.Output = &out
	m.Dispatcher = trap.Base{}
	acc := New("demoa.asm", "Doe, John J")
	m.Tracer = acc

	start, _ := res.Module.Start()
	if err := m.Load(res.Module.Code, start, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}

	text := acc.Text()
	if !strings.Contains(text, "Input file name = demoa.asm") {
		t.Fatalf("missing header line, got:\n%s", text)
	}
	if !strings.Contains(text, "Doe, John J") {
		t.Fatalf("missing identity line, got:\n%s", text)
	}
	if !strings.Contains(text, "instructions executed: 4") {
		t.Fatalf("expected 4 traced instructions, got:\n%s", text)
	}

	bin := acc.Binary()
	if !strings.Contains(bin, "1101 0000 0000 0101") { // mvi r0,5 = 0xD005
		t.Fatalf("expected grouped binary word for mvi r0,5, got:\n%s", bin)
	}
}

func TestNormalizeStripsCommentsAndCase(t *testing.T) {
	in := "Input file name = x.asm\n  MOV   R0 , 5  ; load five\nLCC Assemble v1\nHALT\n"
	got := Normalize(in)
	want := "mov r0 , 5\nhalt"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
