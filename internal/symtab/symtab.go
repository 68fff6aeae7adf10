// Package symtab implements the assembler-local symbol table (§3).
package symtab

import "github.com/xyproto/lcc/internal/asmerr"

// Symbol is one label's bookkeeping entry.
type Symbol struct {
	Name     string
	Address  uint16
	Defined  bool // false until the label's definition line is seen in pass 1
	IsGlobal bool
	IsExtern bool
}

// Table is a module's label -> address map, built in pass 1 and
// consulted (read-only) in pass 2.
type Table struct {
	file string
	syms map[string]*Symbol
}

func New(file string) *Table {
	return &Table{file: file, syms: make(map[string]*Symbol)}
}

// Define records a label's address. At most one definition per label
// (§3 invariant); redefinition is a DuplicateSymbol error.
func (t *Table) Define(name string, addr uint16, line int) error {
	s, ok := t.syms[name]
	if !ok {
		t.syms[name] = &Symbol{Name: name, Address: addr, Defined: true}
		return nil
	}
	if s.Defined {
		return asmerr.AtLine(asmerr.DuplicateSymbol, t.file, line,
			"label %q already defined at address 0x%04X", name, s.Address)
	}
	s.Address = addr
	s.Defined = true
	return nil
}

// MarkGlobal records that name is exported. It may be declared before
// or after its definition.
func (t *Table) MarkGlobal(name string) {
	t.ensure(name).IsGlobal = true
}

// MarkExtern records that name is defined in another module.
func (t *Table) MarkExtern(name string) {
	t.ensure(name).IsExtern = true
}

func (t *Table) ensure(name string) *Symbol {
	s, ok := t.syms[name]
	if !ok {
		s = &Symbol{Name: name}
		t.syms[name] = s
	}
	return s
}

// Lookup returns a label's bookkeeping entry, if any reference or
// declaration has touched it.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	s, ok := t.syms[name]
	return s, ok
}

// All returns every symbol the table has seen, for listing/debug dumps.
func (t *Table) All() []*Symbol {
	out := make([]*Symbol, 0, len(t.syms))
	for _, s := range t.syms {
		out = append(out, s)
	}
	return out
}
