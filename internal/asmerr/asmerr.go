// Package asmerr defines the error taxonomy shared by the assembler,
// linker, and interpreter.
package asmerr

import "fmt"

// Kind classifies an error the way the spec's error table does.
type Kind int

const (
	Syntax Kind = iota
	UndefinedSymbol
	DuplicateSymbol
	MultipleEntryPoints
	Range
	Format
	Runtime
	PossibleInfiniteLoop
	IO
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "SyntaxError"
	case UndefinedSymbol:
		return "UndefinedSymbol"
	case DuplicateSymbol:
		return "DuplicateSymbol"
	case MultipleEntryPoints:
		return "MultipleEntryPoints"
	case Range:
		return "RangeError"
	case Format:
		return "FormatError"
	case Runtime:
		return "RuntimeError"
	case PossibleInfiniteLoop:
		return "PossibleInfiniteLoop"
	case IO:
		return "IOError"
	default:
		return "Error"
	}
}

// Site names where an error occurred: a source line, a module, or a
// runtime address, depending on which stage raised it.
type Site struct {
	File    string
	Line    int
	Module  string
	Address int // -1 when not applicable
}

func (s Site) String() string {
	switch {
	case s.File != "" && s.Line > 0:
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	case s.Module != "" && s.Address >= 0:
		return fmt.Sprintf("%s+0x%04X", s.Module, s.Address)
	case s.Module != "":
		return s.Module
	case s.Address >= 0:
		return fmt.Sprintf("0x%04X", s.Address)
	default:
		return ""
	}
}

// Error is the concrete error type raised by every stage of the
// toolchain. It never gets silently swallowed: each stage aborts on
// the first one (§7).
type Error struct {
	Kind    Kind
	Site    Site
	Message string
}

func (e *Error) Error() string {
	loc := e.Site.String()
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Kind, e.Message)
}

// New builds an Error at the given site.
func New(kind Kind, site Site, format string, args ...any) *Error {
	return &Error{Kind: kind, Site: site, Message: fmt.Sprintf(format, args...)}
}

// AtLine builds an Error naming a source file and line number.
func AtLine(kind Kind, file string, line int, format string, args ...any) *Error {
	return New(kind, Site{File: file, Line: line, Address: -1}, format, args...)
}

// AtModule builds an Error naming a module and an optional address.
func AtModule(kind Kind, module string, address int, format string, args ...any) *Error {
	return New(kind, Site{Module: module, Address: address}, format, args...)
}

// AtAddress builds an Error naming a bare runtime address.
func AtAddress(kind Kind, address int, format string, args ...any) *Error {
	return New(kind, Site{Address: address}, format, args...)
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
