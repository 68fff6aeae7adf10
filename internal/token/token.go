// Package token defines the tagged literal type the lexer produces.
//
// The source toolchain this spec distills from reads decimal, hex,
// binary, and char literals with duck-typed branching at every call
// site. This repo parses each literal exactly once, at lex time, into
// one of three tagged shapes (§9's redesign note).
package token

// Kind tags which alternative of a Literal is populated.
type Kind int

const (
	Int Kind = iota
	Char
	Label
)

// Literal is a tagged union: exactly one of Int/Char/Name is
// meaningful, selected by Kind.
type Literal struct {
	Kind Kind
	Int  int32  // decimal, hex, or binary integer, sign already applied
	Char byte   // single-character literal, escapes already resolved
	Name string // label reference
}

func NewInt(v int32) Literal   { return Literal{Kind: Int, Int: v} }
func NewChar(v byte) Literal   { return Literal{Kind: Char, Char: v} }
func NewLabel(v string) Literal { return Literal{Kind: Label, Name: v} }

// Value returns the literal's numeric value, resolving Char to its
// byte value. It panics on a Label literal: callers must resolve
// labels against a symbol table first.
func (l Literal) Value() int32 {
	switch l.Kind {
	case Int:
		return l.Int
	case Char:
		return int32(l.Char)
	default:
		panic("token: Value called on a Label literal")
	}
}

// Operand is one parsed operand of an instruction or directive line:
// a bare register name, or a literal (possibly an unresolved label).
type Operand struct {
	IsRegister bool
	Register   string // lowercase register name: r0..r7, fp, sp, lr
	Literal    Literal
}

func Reg(name string) Operand { return Operand{IsRegister: true, Register: name} }
func Lit(l Literal) Operand   { return Operand{Literal: l} }

// Line is the fully lexed shape of one source line (§4.1).
type Line struct {
	Label       string // empty if no label on this line
	HasLabel    bool
	Mnemonic    string // mnemonic or directive name, lowercased; empty if blank/comment-only line
	Operands    []Operand
	StringBytes []byte // decoded body of a .string/.asciz/.stringz directive
	HasString   bool
	Comment     string
	Raw         string // the original source line, for listings and error messages
	FileName    string
	LineNo      int
}
