package lexer

import (
	"strings"

	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/isa"
	"github.com/xyproto/lcc/internal/token"
)

// directives is the directive name set of §4.2.
var directives = map[string]bool{
	".word": true, ".zero": true, ".space": true, ".blkw": true, ".fill": true,
	".string": true, ".asciz": true, ".stringz": true,
	".start": true, ".global": true, ".globl": true, ".extern": true,
	".org": true, ".orig": true,
}

// mnemonics is every instruction and pseudo-instruction mnemonic this
// assembler accepts. Named trap mnemonics (halt, nl, dout, ...) and
// `mov` (an alias for `mvi`) are first-class here because §8's demoA
// seed scenario assembles `mov r0, 5` and `dout r0; nl; halt` directly.
var mnemonics = map[string]bool{
	"add": true, "ld": true, "st": true, "bl": true, "blr": true, "jsrr": true,
	"and": true, "ldr": true, "str": true, "cmp": true, "not": true,
	"sub": true, "jmp": true, "ret": true, "mvi": true, "mov": true,
	"lea": true, "trap": true,
	"push": true, "pop": true, "mvr": true,
	"srl": true, "sra": true, "sll": true, "rol": true, "ror": true,
	"mul": true, "div": true, "rem": true, "or": true, "xor": true, "sext": true,
	"halt": true, "nl": true, "dout": true, "udout": true, "hout": true,
	"aout": true, "sout": true, "din": true, "hin": true, "ain": true, "sin": true,
}

func init() {
	for cc := isa.CCZ; cc <= isa.CCAL; cc++ {
		mnemonics["br"+cc.Mnemonic()] = true
	}
	mnemonics["br"] = true
}

// IsKnownWord reports whether name (already lowercased) is a directive
// or instruction mnemonic this assembler recognizes.
func IsKnownWord(name string) bool {
	return directives[name] || mnemonics[name]
}

// ParseLine lexes one raw source line into a token.Line (§4.1).
func ParseLine(file string, lineNo int, raw string) (token.Line, error) {
	out := token.Line{Raw: raw, FileName: file, LineNo: lineNo}

	code := stripComment(raw)
	if len(code) != len(raw) {
		out.Comment = strings.TrimSpace(raw[len(code)+1:])
	}

	s := &scanner{file: file, line: lineNo, src: code}
	toks, err := s.tokens()
	if err != nil {
		return out, err
	}
	if len(toks) == 0 {
		return out, nil
	}

	i := 0
	// Label with explicit colon.
	if toks[0].kind == tokIdent && len(toks) > 1 && toks[1].kind == tokColon {
		out.Label = toks[0].text
		out.HasLabel = true
		i = 2
	} else if toks[0].kind == tokIdent && !IsKnownWord(strings.ToLower(toks[0].text)) {
		// Colon-less label: only valid when something follows it.
		if len(toks) == 1 {
			return out, asmerr.AtLine(asmerr.Syntax, file, lineNo,
				"unknown mnemonic or directive %q", toks[0].text)
		}
		out.Label = toks[0].text
		out.HasLabel = true
		i = 1
	}

	if i >= len(toks) {
		return out, nil
	}

	if toks[i].kind != tokIdent {
		return out, asmerr.AtLine(asmerr.Syntax, file, lineNo, "expected mnemonic or directive")
	}
	out.Mnemonic = strings.ToLower(toks[i].text)
	i++

	if isStringDirective(out.Mnemonic) {
		if i >= len(toks) || toks[i].kind != tokString {
			return out, asmerr.AtLine(asmerr.Syntax, file, lineNo,
				"%s expects a string literal operand", out.Mnemonic)
		}
		out.StringBytes = []byte(toks[i].text)
		out.HasString = true
		i++
		if i != len(toks) {
			return out, asmerr.AtLine(asmerr.Syntax, file, lineNo, "unexpected tokens after string literal")
		}
		return out, nil
	}

	expectOperand := true
	for i < len(toks) {
		if toks[i].kind == tokComma {
			if expectOperand {
				return out, asmerr.AtLine(asmerr.Syntax, file, lineNo, "unexpected comma")
			}
			expectOperand = true
			i++
			continue
		}
		if !expectOperand {
			return out, asmerr.AtLine(asmerr.Syntax, file, lineNo, "expected comma between operands")
		}
		op, n, err := parseOperand(file, lineNo, toks[i:])
		if err != nil {
			return out, err
		}
		out.Operands = append(out.Operands, op)
		i += n
		expectOperand = false
	}
	if expectOperand && len(out.Operands) > 0 {
		return out, asmerr.AtLine(asmerr.Syntax, file, lineNo, "trailing comma")
	}
	return out, nil
}

// parseOperand consumes one operand starting at toks[0] and returns how
// many tokens it consumed. A string literal is rejected here: strings
// only appear as the sole argument of .string-family directives, whose
// decoded bodies ParseLine stores in Line.StringBytes.
func parseOperand(file string, lineNo int, toks []tok) (token.Operand, int, error) {
	t := toks[0]
	switch t.kind {
	case tokIdent:
		if reg, ok := isa.LookupRegister(t.text); ok {
			return token.Reg(isa.RegisterName(reg)), 1, nil
		}
		return token.Lit(token.NewLabel(t.text)), 1, nil
	case tokNumber:
		return token.Lit(token.NewInt(t.ival)), 1, nil
	case tokChar:
		return token.Lit(token.NewChar(t.bval)), 1, nil
	case tokString:
		return token.Operand{}, 0, asmerr.AtLine(asmerr.Syntax, file, lineNo,
			"string literal not valid as an instruction operand")
	default:
		return token.Operand{}, 0, asmerr.AtLine(asmerr.Syntax, file, lineNo, "expected operand")
	}
}

func isStringDirective(mnemonic string) bool {
	switch mnemonic {
	case ".string", ".asciz", ".stringz":
		return true
	default:
		return false
	}
}
