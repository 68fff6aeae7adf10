package assembler

import (
	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/object"
	"github.com/xyproto/lcc/internal/symtab"
	"github.com/xyproto/lcc/internal/token"
)

func (a *asmState) pass2(lines []token.Line) (*object.Module, error) {
	addr := uint32(0)
	var code []uint16
	var entries []object.Entry

	for _, l := range lines {
		if l.Mnemonic == "" {
			continue
		}
		switch l.Mnemonic {
		case ".start":
			sym, ok := a.syms.Lookup(l.Operands[0].Literal.Name)
			if !ok || !sym.Defined {
				return nil, asmerr.AtLine(asmerr.UndefinedSymbol, a.file, l.LineNo,
					"start label %q is not defined in this module", l.Operands[0].Literal.Name)
			}
			entries = append(entries, object.Entry{Kind: object.KindS, Addr: sym.Address})
			continue
		case ".global", ".globl":
			name := l.Operands[0].Literal.Name
			sym, ok := a.syms.Lookup(name)
			if !ok || !sym.Defined {
				return nil, asmerr.AtLine(asmerr.UndefinedSymbol, a.file, l.LineNo,
					"global label %q is not defined in this module", name)
			}
			entries = append(entries, object.Entry{Kind: object.KindG, Addr: sym.Address, Label: name})
			continue
		case ".extern":
			continue
		case ".org", ".orig":
			addr = 0
			continue
		case ".word":
			w, extra, err := a.encodeWord(l, uint16(addr))
			if err != nil {
				return nil, err
			}
			code = append(code, w)
			entries = append(entries, extra...)
			addr++
			continue
		case ".zero", ".space", ".blkw", ".fill":
			n, err := countOperand(a.file, l)
			if err != nil {
				return nil, err
			}
			for i := uint32(0); i < n; i++ {
				code = append(code, 0)
			}
			addr += n
			continue
		case ".string", ".asciz", ".stringz":
			for _, b := range l.StringBytes {
				code = append(code, uint16(b))
			}
			code = append(code, 0)
			addr += uint32(len(l.StringBytes)) + 1
			continue
		}

		w, extra, err := encodeInstruction(a.file, a.syms, l, uint16(addr))
		if err != nil {
			return nil, err
		}
		code = append(code, w)
		entries = append(entries, extra...)
		addr++
	}

	mod := &object.Module{Entries: entries, Code: code}
	return mod, nil
}

// encodeWord resolves the operand of a `.word EXPR` directive (§4.2,
// §4.4: labels either resolve locally with an A relocation entry, or
// become a 16-bit absolute V extern entry).
func (a *asmState) encodeWord(l token.Line, addr uint16) (uint16, []object.Entry, error) {
	op := l.Operands[0]
	if op.IsRegister {
		return 0, nil, asmerr.AtLine(asmerr.Syntax, a.file, l.LineNo, ".word does not accept a register operand")
	}
	if op.Literal.Kind != token.Label {
		return uint16(op.Literal.Value()), nil, nil
	}
	name := op.Literal.Name
	sym, ok := a.syms.Lookup(name)
	if !ok {
		return 0, nil, asmerr.AtLine(asmerr.UndefinedSymbol, a.file, l.LineNo, "undefined label %q", name)
	}
	if sym.Defined {
		return sym.Address, []object.Entry{{Kind: object.KindA, Addr: addr}}, nil
	}
	if sym.IsExtern {
		return 0, []object.Entry{{Kind: object.KindV, Addr: addr, Label: name}}, nil
	}
	return 0, nil, asmerr.AtLine(asmerr.UndefinedSymbol, a.file, l.LineNo, "undefined label %q", name)
}

// resolveRef looks up a label used as a PC-relative or branch target.
// If it's locally defined it returns (address, true, nil). If it is
// declared extern but not locally defined, defined is false and err is
// nil (caller emits an E/e entry). Otherwise it's an UndefinedSymbol
// error.
func resolveRef(file string, syms *symtab.Table, l token.Line, name string) (addr uint16, defined bool, err error) {
	sym, ok := syms.Lookup(name)
	if !ok {
		return 0, false, asmerr.AtLine(asmerr.UndefinedSymbol, file, l.LineNo, "undefined label %q", name)
	}
	if sym.Defined {
		return sym.Address, true, nil
	}
	if sym.IsExtern {
		return 0, false, nil
	}
	return 0, false, asmerr.AtLine(asmerr.UndefinedSymbol, file, l.LineNo, "undefined label %q", name)
}
