package object

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	m := &Module{
		Entries: []Entry{
			{Kind: KindS, Addr: 0},
			{Kind: KindG, Addr: 4, Label: "main"},
			{Kind: KindE, Addr: 2, Label: "sub"},
			{Kind: KindA, Addr: 6},
		},
		Code: []uint16{0x1042, 0xABCD, 0x0000},
	}
	var buf bytes.Buffer
	if err := m.Write(&buf); err != nil {
		t.Fatal(err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries) != len(m.Entries) {
		t.Fatalf("entry count: got %d want %d", len(got.Entries), len(m.Entries))
	}
	for i, e := range m.Entries {
		if got.Entries[i] != e {
			t.Fatalf("entry %d: got %+v want %+v", i, got.Entries[i], e)
		}
	}
	if len(got.Code) != len(m.Code) {
		t.Fatalf("code len: got %d want %d", len(got.Code), len(m.Code))
	}
	for i, w := range m.Code {
		if got.Code[i] != w {
			t.Fatalf("code[%d]: got 0x%04X want 0x%04X", i, got.Code[i], w)
		}
	}
}

func TestBadMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("garbage")))
	if err == nil {
		t.Fatal("expected a FormatError on bad magic")
	}
}

func TestIsExecutable(t *testing.T) {
	obj := &Module{Entries: []Entry{{Kind: KindE, Addr: 0, Label: "x"}}}
	if obj.IsExecutable() {
		t.Fatal("a module with an E entry is not executable")
	}
	exe := &Module{Entries: []Entry{{Kind: KindS, Addr: 0}, {Kind: KindA, Addr: 2}}}
	if !exe.IsExecutable() {
		t.Fatal("S+A only should be executable")
	}
	global := &Module{Entries: []Entry{{Kind: KindG, Addr: 0, Label: "main"}}}
	if global.IsExecutable() {
		t.Fatal("a module exporting a .global label still needs linking")
	}
}
