package assembler

import (
	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/isa"
	"github.com/xyproto/lcc/internal/object"
	"github.com/xyproto/lcc/internal/symtab"
	"github.com/xyproto/lcc/internal/token"
)

func wantOperands(file string, l token.Line, n int) error {
	if len(l.Operands) != n {
		return asmerr.AtLine(asmerr.Syntax, file, l.LineNo,
			"%s expects %d operand(s), got %d", l.Mnemonic, n, len(l.Operands))
	}
	return nil
}

func regAt(file string, l token.Line, idx int) (uint8, error) {
	op := l.Operands[idx]
	if !op.IsRegister {
		return 0, asmerr.AtLine(asmerr.Syntax, file, l.LineNo, "%s operand %d must be a register", l.Mnemonic, idx+1)
	}
	n, _ := isa.LookupRegister(op.Register)
	return n, nil
}

func immAt(file string, l token.Line, idx int) (int32, error) {
	op := l.Operands[idx]
	if op.IsRegister || op.Literal.Kind == token.Label {
		return 0, asmerr.AtLine(asmerr.Syntax, file, l.LineNo, "%s operand %d must be an immediate", l.Mnemonic, idx+1)
	}
	return op.Literal.Value(), nil
}

func labelAt(file string, l token.Line, idx int) (string, error) {
	op := l.Operands[idx]
	if op.IsRegister || op.Literal.Kind != token.Label {
		return "", asmerr.AtLine(asmerr.Syntax, file, l.LineNo, "%s operand %d must be a label", l.Mnemonic, idx+1)
	}
	return op.Literal.Name, nil
}

// isRegOperand reports whether operand idx was written as a register,
// used to disambiguate the register/immediate third operand of
// add/and/sub/cmp.
func isRegOperand(l token.Line, idx int) bool {
	return l.Operands[idx].IsRegister
}

// pcRel resolves a label operand at slot width `bits`, either as a
// local pcoffset (computed against addr+1, §4.3) or as an extern
// reference producing an E/e header entry with the offset field left
// zero for the linker to patch (§4.5).
func pcRel(file string, syms *symtab.Table, l token.Line, name string, addr uint16, bits uint, externKind byte) (off int32, entry *object.Entry, err error) {
	target, defined, err := resolveRef(file, syms, l, name)
	if err != nil {
		return 0, nil, err
	}
	if !defined {
		return 0, &object.Entry{Kind: externKind, Addr: addr, Label: name}, nil
	}
	off = int32(target) - int32(addr) - 1
	if _, ok := isa.FitsSigned(off, bits); !ok {
		return 0, nil, asmerr.AtLine(asmerr.Range, file, l.LineNo,
			"branch target %q does not fit in a signed %d-bit offset (offset=%d)", name, bits, off)
	}
	return off, nil, nil
}

// encodeInstruction assembles one instruction mnemonic line into its
// 16-bit word plus any extern/local relocation entries (§4.3, §4.4).
func encodeInstruction(file string, syms *symtab.Table, l token.Line, addr uint16) (uint16, []object.Entry, error) {
	m := l.Mnemonic

	// br{cc}
	if cc, ok := isa.LookupCC(stripBrPrefix(m)); ok && isBrMnemonic(m) {
		if err := wantOperands(file, l, 1); err != nil {
			return 0, nil, err
		}
		name, err := labelAt(file, l, 0)
		if err != nil {
			return 0, nil, err
		}
		off, entry, err := pcRel(file, syms, l, name, addr, 9, object.Kinde)
		if err != nil {
			return 0, nil, err
		}
		if entry != nil {
			w, _ := isa.EncodeBR(cc, 0)
			return w, []object.Entry{*entry}, nil
		}
		w, _ := isa.EncodeBR(cc, off)
		return w, nil, nil
	}

	switch m {
	case "add", "and", "sub":
		return encodeALU(file, l, opFor(m))
	case "ld", "lea":
		return encodeLDLEA(file, syms, l, addr, opFor(m))
	case "st":
		return encodeST(file, syms, l, addr)
	case "bl":
		if err := wantOperands(file, l, 1); err != nil {
			return 0, nil, err
		}
		name, err := labelAt(file, l, 0)
		if err != nil {
			return 0, nil, err
		}
		off, entry, err := pcRel(file, syms, l, name, addr, 11, object.KindE)
		if err != nil {
			return 0, nil, err
		}
		if entry != nil {
			w, _ := isa.EncodeBL(0)
			return w, []object.Entry{*entry}, nil
		}
		w, _ := isa.EncodeBL(off)
		return w, nil, nil
	case "blr", "jsrr":
		return encodeRegOff6(file, l, func(br uint8, off int32) (uint16, bool) { return isa.EncodeBLR(br, off) })
	case "ldr":
		return encodeRegRegOff6(file, l, isa.EncodeLDR)
	case "str":
		return encodeRegRegOff6(file, l, isa.EncodeSTR)
	case "cmp":
		return encodeCMP(file, l)
	case "not":
		if err := wantOperands(file, l, 2); err != nil {
			return 0, nil, err
		}
		dr, err := regAt(file, l, 0)
		if err != nil {
			return 0, nil, err
		}
		sr, err := regAt(file, l, 1)
		if err != nil {
			return 0, nil, err
		}
		return isa.EncodeNOT(dr, sr), nil, nil
	case "jmp":
		return encodeRegOff6(file, l, func(br uint8, off int32) (uint16, bool) { return isa.EncodeJMP(br, off) })
	case "ret":
		if err := wantOperands(file, l, 0); err != nil {
			return 0, nil, err
		}
		return isa.EncodeRET(), nil, nil
	case "mvi", "mov":
		if err := wantOperands(file, l, 2); err != nil {
			return 0, nil, err
		}
		dr, err := regAt(file, l, 0)
		if err != nil {
			return 0, nil, err
		}
		imm, err := immAt(file, l, 1)
		if err != nil {
			return 0, nil, err
		}
		w, ok := isa.EncodeMVI(dr, imm)
		if !ok {
			return 0, nil, asmerr.AtLine(asmerr.Range, file, l.LineNo, "%s immediate %d does not fit in signed 9 bits", m, imm)
		}
		return w, nil, nil
	case "trap":
		if err := wantOperands(file, l, 2); err != nil {
			return 0, nil, err
		}
		dr, err := regAt(file, l, 0)
		if err != nil {
			return 0, nil, err
		}
		vec, err := immAt(file, l, 1)
		if err != nil {
			return 0, nil, err
		}
		if vec < 0 || vec > 0xFF {
			return 0, nil, asmerr.AtLine(asmerr.Range, file, l.LineNo, "trap vector %d does not fit in 8 bits", vec)
		}
		return isa.EncodeTRAP(dr, uint8(vec)), nil, nil
	case "push", "pop":
		if err := wantOperands(file, l, 1); err != nil {
			return 0, nil, err
		}
		dr, err := regAt(file, l, 0)
		if err != nil {
			return 0, nil, err
		}
		eop := isa.EopPush
		if m == "pop" {
			eop = isa.EopPop
		}
		return isa.EncodeMISC(eop, dr, 0), nil, nil
	case "mvr", "srl", "sra", "sll", "rol", "ror", "mul", "div", "rem", "or", "xor", "sext":
		eop, _ := isa.LookupEop(m)
		if err := wantOperands(file, l, 2); err != nil {
			return 0, nil, err
		}
		dr, err := regAt(file, l, 0)
		if err != nil {
			return 0, nil, err
		}
		sr, err := regAt(file, l, 1)
		if err != nil {
			return 0, nil, err
		}
		return isa.EncodeMISC(eop, dr, sr), nil, nil
	default:
		if vec, hasOperand, ok := isa.LookupTrapMnemonic(m); ok {
			return encodeNamedTrap(file, l, vec, hasOperand)
		}
		return 0, nil, asmerr.AtLine(asmerr.Syntax, file, l.LineNo, "unknown mnemonic %q", m)
	}
}

func isBrMnemonic(m string) bool {
	return len(m) >= 2 && m[:2] == "br"
}

func stripBrPrefix(m string) string {
	if len(m) >= 2 && m[:2] == "br" {
		return m[2:]
	}
	return m
}

func opFor(m string) isa.Op {
	switch m {
	case "add":
		return isa.OpADD
	case "and":
		return isa.OpAND
	case "sub":
		return isa.OpSUB
	case "ld":
		return isa.OpLD
	case "lea":
		return isa.OpLEA
	default:
		return isa.OpADD
	}
}

func encodeALU(file string, l token.Line, op isa.Op) (uint16, []object.Entry, error) {
	if err := wantOperands(file, l, 3); err != nil {
		return 0, nil, err
	}
	dr, err := regAt(file, l, 0)
	if err != nil {
		return 0, nil, err
	}
	sr1, err := regAt(file, l, 1)
	if err != nil {
		return 0, nil, err
	}
	if isRegOperand(l, 2) {
		sr2, err := regAt(file, l, 2)
		if err != nil {
			return 0, nil, err
		}
		return isa.EncodeALUReg(op, dr, sr1, sr2), nil, nil
	}
	imm, err := immAt(file, l, 2)
	if err != nil {
		return 0, nil, err
	}
	w, ok := isa.EncodeALUImm(op, dr, sr1, imm)
	if !ok {
		return 0, nil, asmerr.AtLine(asmerr.Range, file, l.LineNo, "%s immediate %d does not fit in signed 5 bits", l.Mnemonic, imm)
	}
	return w, nil, nil
}

func encodeLDLEA(file string, syms *symtab.Table, l token.Line, addr uint16, op isa.Op) (uint16, []object.Entry, error) {
	if err := wantOperands(file, l, 2); err != nil {
		return 0, nil, err
	}
	dr, err := regAt(file, l, 0)
	if err != nil {
		return 0, nil, err
	}
	name, err := labelAt(file, l, 1)
	if err != nil {
		return 0, nil, err
	}
	off, entry, err := pcRel(file, syms, l, name, addr, 9, object.Kinde)
	if err != nil {
		return 0, nil, err
	}
	encode := isa.EncodeLD
	if op == isa.OpLEA {
		encode = isa.EncodeLEA
	}
	if entry != nil {
		w, _ := encode(dr, 0)
		return w, []object.Entry{*entry}, nil
	}
	w, _ := encode(dr, off)
	return w, nil, nil
}

func encodeST(file string, syms *symtab.Table, l token.Line, addr uint16) (uint16, []object.Entry, error) {
	if err := wantOperands(file, l, 2); err != nil {
		return 0, nil, err
	}
	sr, err := regAt(file, l, 0)
	if err != nil {
		return 0, nil, err
	}
	name, err := labelAt(file, l, 1)
	if err != nil {
		return 0, nil, err
	}
	off, entry, err := pcRel(file, syms, l, name, addr, 9, object.Kinde)
	if err != nil {
		return 0, nil, err
	}
	if entry != nil {
		w, _ := isa.EncodeST(sr, 0)
		return w, []object.Entry{*entry}, nil
	}
	w, _ := isa.EncodeST(sr, off)
	return w, nil, nil
}

func encodeRegOff6(file string, l token.Line, enc func(uint8, int32) (uint16, bool)) (uint16, []object.Entry, error) {
	if len(l.Operands) != 1 && len(l.Operands) != 2 {
		return 0, nil, asmerr.AtLine(asmerr.Syntax, file, l.LineNo, "%s expects 1 or 2 operands", l.Mnemonic)
	}
	br, err := regAt(file, l, 0)
	if err != nil {
		return 0, nil, err
	}
	off := int32(0)
	if len(l.Operands) == 2 {
		off, err = immAt(file, l, 1)
		if err != nil {
			return 0, nil, err
		}
	}
	w, ok := enc(br, off)
	if !ok {
		return 0, nil, asmerr.AtLine(asmerr.Range, file, l.LineNo, "%s offset %d does not fit in signed 6 bits", l.Mnemonic, off)
	}
	return w, nil, nil
}

func encodeRegRegOff6(file string, l token.Line, enc func(uint8, uint8, int32) (uint16, bool)) (uint16, []object.Entry, error) {
	if err := wantOperands(file, l, 3); err != nil {
		return 0, nil, err
	}
	dr, err := regAt(file, l, 0)
	if err != nil {
		return 0, nil, err
	}
	br, err := regAt(file, l, 1)
	if err != nil {
		return 0, nil, err
	}
	off, err := immAt(file, l, 2)
	if err != nil {
		return 0, nil, err
	}
	w, ok := enc(dr, br, off)
	if !ok {
		return 0, nil, asmerr.AtLine(asmerr.Range, file, l.LineNo, "%s offset %d does not fit in signed 6 bits", l.Mnemonic, off)
	}
	return w, nil, nil
}

func encodeCMP(file string, l token.Line) (uint16, []object.Entry, error) {
	if err := wantOperands(file, l, 2); err != nil {
		return 0, nil, err
	}
	sr1, err := regAt(file, l, 0)
	if err != nil {
		return 0, nil, err
	}
	if isRegOperand(l, 1) {
		sr2, err := regAt(file, l, 1)
		if err != nil {
			return 0, nil, err
		}
		return isa.EncodeCMPReg(sr1, sr2), nil, nil
	}
	imm, err := immAt(file, l, 1)
	if err != nil {
		return 0, nil, err
	}
	w, ok := isa.EncodeCMPImm(sr1, imm)
	if !ok {
		return 0, nil, asmerr.AtLine(asmerr.Range, file, l.LineNo, "cmp immediate %d does not fit in signed 5 bits", imm)
	}
	return w, nil, nil
}

func encodeNamedTrap(file string, l token.Line, vec uint8, hasOperand bool) (uint16, []object.Entry, error) {
	dr := uint8(0)
	if hasOperand {
		if err := wantOperands(file, l, 1); err != nil {
			return 0, nil, err
		}
		var err error
		dr, err = regAt(file, l, 0)
		if err != nil {
			return 0, nil, err
		}
	} else if err := wantOperands(file, l, 0); err != nil {
		return 0, nil, err
	}
	return isa.EncodeTRAP(dr, vec), nil, nil
}
