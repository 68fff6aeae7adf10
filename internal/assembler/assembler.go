// Package assembler implements the two-pass LCC assembler (§4.4):
// lexing and symbol collection in pass 1, full operand resolution and
// code emission in pass 2.
package assembler

import (
	"strings"

	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/lexer"
	"github.com/xyproto/lcc/internal/object"
	"github.com/xyproto/lcc/internal/symtab"
	"github.com/xyproto/lcc/internal/token"
)

// Result is the assembled module plus the symbol table pass 1 built,
// kept around for --debug dumps of the symbol table.
type Result struct {
	Module *object.Module
	Syms   *symtab.Table
}

// Assemble runs both passes over src (the full text of one source
// file) and returns its object module or executable container.
func Assemble(fileName, src string) (*Result, error) {
	rawLines := strings.Split(src, "\n")

	lines := make([]token.Line, 0, len(rawLines))
	for i, raw := range rawLines {
		l, err := lexer.ParseLine(fileName, i+1, raw)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	syms := symtab.New(fileName)
	a := &asmState{file: fileName, syms: syms}

	if err := a.pass1(lines); err != nil {
		return nil, err
	}
	mod, err := a.pass2(lines)
	if err != nil {
		return nil, err
	}
	return &Result{Module: mod, Syms: syms}, nil
}

type asmState struct {
	file       string
	syms       *symtab.Table
	startLabel string
	startLine  int
	haveStart  bool
	globals    []pendingName
	externs    []pendingName
}

type pendingName struct {
	name string
	line int
}

func (a *asmState) pass1(lines []token.Line) error {
	addr := uint32(0)
	for _, l := range lines {
		if l.HasLabel {
			if err := a.syms.Define(l.Label, uint16(addr), l.LineNo); err != nil {
				return err
			}
		}
		if l.Mnemonic == "" {
			continue
		}
		size, err := a.directiveSize(l)
		if err != nil {
			return err
		}
		switch l.Mnemonic {
		case ".start":
			if a.haveStart {
				return asmerr.AtLine(asmerr.MultipleEntryPoints, a.file, l.LineNo,
					"module already has a start address declared at line %d", a.startLine)
			}
			if len(l.Operands) != 1 || l.Operands[0].IsRegister || l.Operands[0].Literal.Kind != token.Label {
				return asmerr.AtLine(asmerr.Syntax, a.file, l.LineNo, ".start expects a label operand")
			}
			a.haveStart = true
			a.startLabel = l.Operands[0].Literal.Name
			a.startLine = l.LineNo
		case ".global", ".globl":
			name, err := singleLabelOperand(a.file, l)
			if err != nil {
				return err
			}
			a.syms.MarkGlobal(name)
			a.globals = append(a.globals, pendingName{name, l.LineNo})
		case ".extern":
			name, err := singleLabelOperand(a.file, l)
			if err != nil {
				return err
			}
			a.syms.MarkExtern(name)
			a.externs = append(a.externs, pendingName{name, l.LineNo})
		case ".org", ".orig":
			if len(l.Operands) != 1 || l.Operands[0].IsRegister || l.Operands[0].Literal.Kind == token.Label {
				return asmerr.AtLine(asmerr.Syntax, a.file, l.LineNo, "%s expects a numeric address", l.Mnemonic)
			}
			v := l.Operands[0].Literal.Value()
			if v != 0 {
				return asmerr.AtLine(asmerr.Range, a.file, l.LineNo,
					"%s only supports address 0 in single-module assembly, got %d", l.Mnemonic, v)
			}
			addr = 0
			continue
		}
		addr += size
		if addr > 0xFFFF {
			return asmerr.AtLine(asmerr.Range, a.file, l.LineNo, "module exceeds the 16-bit address space")
		}
	}
	return nil
}

func singleLabelOperand(file string, l token.Line) (string, error) {
	if len(l.Operands) != 1 || l.Operands[0].IsRegister || l.Operands[0].Literal.Kind != token.Label {
		return "", asmerr.AtLine(asmerr.Syntax, file, l.LineNo, "%s expects a single label operand", l.Mnemonic)
	}
	return l.Operands[0].Literal.Name, nil
}

// directiveSize returns the number of words a line occupies, per §4.2.
// Non-emitting directives and blank lines return 0; every instruction
// mnemonic is exactly one word.
func (a *asmState) directiveSize(l token.Line) (uint32, error) {
	switch l.Mnemonic {
	case ".word":
		return 1, nil
	case ".zero", ".space", ".blkw", ".fill":
		n, err := countOperand(a.file, l)
		if err != nil {
			return 0, err
		}
		return n, nil
	case ".string", ".asciz", ".stringz":
		return uint32(len(l.StringBytes)) + 1, nil
	case ".start", ".global", ".globl", ".extern", ".org", ".orig":
		return 0, nil
	default:
		return 1, nil // every instruction mnemonic is one word
	}
}

func countOperand(file string, l token.Line) (uint32, error) {
	if len(l.Operands) != 1 || l.Operands[0].IsRegister || l.Operands[0].Literal.Kind == token.Label {
		return 0, asmerr.AtLine(asmerr.Syntax, file, l.LineNo, "%s expects a numeric word count", l.Mnemonic)
	}
	v := l.Operands[0].Literal.Value()
	if v < 0 {
		return 0, asmerr.AtLine(asmerr.Syntax, file, l.LineNo, "%s expects a non-negative word count", l.Mnemonic)
	}
	return uint32(v), nil
}
