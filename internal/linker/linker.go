// Package linker concatenates object modules into a flat 16-bit
// address space and resolves the three relocation kinds of §4.5.
package linker

import (
	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/object"
)

const memSize = 1 << 16

type externRef struct {
	addr  uint16
	label string
}

type localRef struct {
	addr       uint16
	moduleBase uint16
}

// state is the linker's working set (§3 "Linker state"). It uniquely
// owns mca; per-module entries are moved into the shared tables with
// their addresses rebased to absolute.
type state struct {
	mca      [memSize]uint16
	mcaIndex uint32

	globals     map[string]uint16
	globalOrder []object.Entry

	haveStart bool
	startAddr uint16

	eTable  []externRef // 11-bit pc-relative
	e9Table []externRef // 9-bit pc-relative
	vTable  []externRef // 16-bit absolute
	aTable  []localRef
}

// Link combines modules, in argument order, into one executable
// Module. Module base addresses are assigned by concatenation order.
func Link(modules []*object.Module) (*object.Module, error) {
	s := &state{globals: make(map[string]uint16)}

	for i, m := range modules {
		if err := s.ingest(i, m); err != nil {
			return nil, err
		}
	}

	if err := s.relocateExternal(s.eTable, 11, object.KindE); err != nil {
		return nil, err
	}
	if err := s.relocateExternal(s.e9Table, 9, object.Kinde); err != nil {
		return nil, err
	}
	derivedA, err := s.relocateAbsolute(s.vTable)
	if err != nil {
		return nil, err
	}
	s.relocateLocal()

	var entries []object.Entry
	if s.haveStart {
		entries = append(entries, object.Entry{Kind: object.KindS, Addr: s.startAddr})
	}
	entries = append(entries, s.globalOrder...)
	for _, r := range s.aTable {
		entries = append(entries, object.Entry{Kind: object.KindA, Addr: r.addr})
	}
	entries = append(entries, derivedA...)

	return &object.Module{
		Entries: entries,
		Code:    append([]uint16(nil), s.mca[:s.mcaIndex]...),
	}, nil
}

func (s *state) ingest(moduleIndex int, m *object.Module) error {
	moduleBase := uint16(s.mcaIndex)
	moduleName := moduleLabel(moduleIndex)

	for _, e := range m.Entries {
		absAddr := e.Addr + moduleBase
		switch e.Kind {
		case object.KindS:
			if s.haveStart {
				return asmerr.AtModule(asmerr.MultipleEntryPoints, moduleName, int(absAddr),
					"more than one module declares a start address")
			}
			s.haveStart = true
			s.startAddr = absAddr
		case object.KindG:
			if _, dup := s.globals[e.Label]; dup {
				return asmerr.AtModule(asmerr.DuplicateSymbol, moduleName, int(absAddr),
					"global %q is defined in more than one module", e.Label)
			}
			s.globals[e.Label] = absAddr
			s.globalOrder = append(s.globalOrder, object.Entry{Kind: object.KindG, Addr: absAddr, Label: e.Label})
		case object.KindE:
			s.eTable = append(s.eTable, externRef{absAddr, e.Label})
		case object.Kinde:
			s.e9Table = append(s.e9Table, externRef{absAddr, e.Label})
		case object.KindV:
			s.vTable = append(s.vTable, externRef{absAddr, e.Label})
		case object.KindA:
			s.aTable = append(s.aTable, localRef{absAddr, moduleBase})
		}
	}

	if int(s.mcaIndex)+len(m.Code) > memSize {
		return asmerr.AtModule(asmerr.Range, moduleName, -1, "linked image exceeds the 16-bit address space")
	}
	for i, w := range m.Code {
		s.mca[int(moduleBase)+i] = w
	}
	s.mcaIndex += uint32(len(m.Code))
	return nil
}

func moduleLabel(i int) string {
	return "module[" + itoa(i) + "]"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// relocateExternal patches every E/e entry: w <- (w & ~fieldMask) |
// ((w + G - addr - 1) & fieldMask), computed against the pre-local
// code word (§4.5: External-then-Local ordering is mandatory).
func (s *state) relocateExternal(table []externRef, bits uint, kind byte) error {
	fieldMask := uint32(1)<<bits - 1
	for _, ref := range table {
		g, ok := s.globals[ref.label]
		if !ok {
			return asmerr.AtAddress(asmerr.UndefinedSymbol, int(ref.addr),
				"undefined external symbol %q", ref.label)
		}
		w := uint32(s.mca[ref.addr])
		patched := (w + uint32(g) - uint32(ref.addr) - 1) & fieldMask
		s.mca[ref.addr] = uint16(w&^fieldMask) | uint16(patched)
		_ = kind
	}
	return nil
}

// relocateAbsolute patches every V entry: w <- w + G. It returns a
// derived A entry for each, per §4.5's executable-emission rule that
// resolved V entries convert to A entries in the final container.
func (s *state) relocateAbsolute(table []externRef) ([]object.Entry, error) {
	var derived []object.Entry
	for _, ref := range table {
		g, ok := s.globals[ref.label]
		if !ok {
			return nil, asmerr.AtAddress(asmerr.UndefinedSymbol, int(ref.addr),
				"undefined external symbol %q", ref.label)
		}
		s.mca[ref.addr] = s.mca[ref.addr] + g
		derived = append(derived, object.Entry{Kind: object.KindA, Addr: ref.addr})
	}
	return derived, nil
}

// relocateLocal applies module-base rebasing to every A entry. This
// must run after external relocation (§4.5).
func (s *state) relocateLocal() {
	for _, ref := range s.aTable {
		s.mca[ref.addr] = s.mca[ref.addr] + ref.moduleBase
	}
}
