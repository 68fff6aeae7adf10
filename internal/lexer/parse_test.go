package lexer

import "testing"

func TestParseLabelWithColon(t *testing.T) {
	l, err := ParseLine("t.asm", 1, "loop: add r0, r1, r2 ; step")
	if err != nil {
		t.Fatal(err)
	}
	if !l.HasLabel || l.Label != "loop" {
		t.Fatalf("expected label loop, got %+v", l)
	}
	if l.Mnemonic != "add" {
		t.Fatalf("expected mnemonic add, got %q", l.Mnemonic)
	}
	if len(l.Operands) != 3 {
		t.Fatalf("expected 3 operands, got %d", len(l.Operands))
	}
	if l.Comment != "step" {
		t.Fatalf("expected comment 'step', got %q", l.Comment)
	}
}

func TestParseLabelWithoutColon(t *testing.T) {
	l, err := ParseLine("t.asm", 1, "x mvi r0, 5")
	if err != nil {
		t.Fatal(err)
	}
	if !l.HasLabel || l.Label != "x" {
		t.Fatalf("expected label x, got %+v", l)
	}
	if l.Mnemonic != "mvi" {
		t.Fatalf("expected mvi, got %q", l.Mnemonic)
	}
}

func TestParseBareMnemonic(t *testing.T) {
	l, err := ParseLine("t.asm", 1, "halt")
	if err != nil {
		t.Fatal(err)
	}
	if l.HasLabel {
		t.Fatalf("did not expect a label, got %q", l.Label)
	}
	if l.Mnemonic != "halt" {
		t.Fatalf("expected halt, got %q", l.Mnemonic)
	}
}

func TestParseHexBinCharLiterals(t *testing.T) {
	l, err := ParseLine("t.asm", 1, ".word 0xff")
	if err != nil {
		t.Fatal(err)
	}
	if l.Operands[0].Literal.Int != 0xff {
		t.Fatalf("expected 255, got %d", l.Operands[0].Literal.Int)
	}

	l, err = ParseLine("t.asm", 1, ".word 0b1010")
	if err != nil {
		t.Fatal(err)
	}
	if l.Operands[0].Literal.Int != 10 {
		t.Fatalf("expected 10, got %d", l.Operands[0].Literal.Int)
	}

	l, err = ParseLine("t.asm", 1, ".word '\\n'")
	if err != nil {
		t.Fatal(err)
	}
	if l.Operands[0].Literal.Char != '\n' {
		t.Fatalf("expected newline char, got %q", l.Operands[0].Literal.Char)
	}
}

func TestParseStringDirective(t *testing.T) {
	l, err := ParseLine("t.asm", 1, `msg: .string "hi\n"`)
	if err != nil {
		t.Fatal(err)
	}
	if !l.HasString {
		t.Fatalf("expected a string body")
	}
	if string(l.StringBytes) != "hi\n" {
		t.Fatalf("got %q", l.StringBytes)
	}
}

func TestCommentOnlyLine(t *testing.T) {
	l, err := ParseLine("t.asm", 1, "   ; just a comment")
	if err != nil {
		t.Fatal(err)
	}
	if l.Mnemonic != "" || l.HasLabel {
		t.Fatalf("expected blank line, got %+v", l)
	}
}

func TestUnknownMnemonicErrors(t *testing.T) {
	if _, err := ParseLine("t.asm", 1, "bogus"); err == nil {
		t.Fatal("expected a syntax error for an unrecognized bare word")
	}
}
