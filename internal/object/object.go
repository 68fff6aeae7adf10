// Package object reads and writes the tagged container format shared
// by object modules (.o) and executables (.e), §3/§6.
package object

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/xyproto/lcc/internal/asmerr"
)

// Entry kinds, one byte tag each.
const (
	KindS byte = 'S' // start address
	KindG byte = 'G' // global definition
	KindE byte = 'E' // extern ref, 11-bit pc-relative
	Kinde byte = 'e' // extern ref, 9-bit pc-relative
	KindV byte = 'V' // extern ref, 16-bit absolute
	KindA byte = 'A' // local ref needing base relocation
)

// Entry is one header record. Label is empty for S and A entries.
type Entry struct {
	Kind  byte
	Addr  uint16
	Label string
}

// Module is the in-memory form of an .o or .e container.
type Module struct {
	Plus    bool // 'op' magic: the LCC+ variant (§3)
	Entries []Entry
	Code    []uint16
}

// Start returns the module's S entry address, if any (§3: at most one).
func (m *Module) Start() (uint16, bool) {
	for _, e := range m.Entries {
		if e.Kind == KindS {
			return e.Addr, true
		}
	}
	return 0, false
}

// OfKind returns every entry of the given tag, in file order.
func (m *Module) OfKind(kind byte) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// IsExecutable reports whether m carries no .global, no .extern, and
// no unresolved reference (§4.4: "emit .o iff any .global, .extern, or
// unresolved reference is present"). A module that merely exports a
// locally-defined label via .global still needs linking before it can
// run, even though every reference inside it already resolves.
func (m *Module) IsExecutable() bool {
	for _, e := range m.Entries {
		switch e.Kind {
		case KindG, KindE, Kinde, KindV:
			return false
		}
	}
	return true
}

// Write serializes m in the on-disk tagged-stream format (§3).
func (m *Module) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	magic := []byte{'o'}
	if m.Plus {
		magic = append(magic, 'p')
	}
	if _, err := bw.Write(magic); err != nil {
		return err
	}
	for _, e := range m.Entries {
		if err := writeEntry(bw, e); err != nil {
			return err
		}
	}
	if err := bw.WriteByte('C'); err != nil {
		return err
	}
	for _, w16 := range m.Code {
		if err := binary.Write(bw, binary.LittleEndian, w16); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeEntry(w *bufio.Writer, e Entry) error {
	if err := w.WriteByte(e.Kind); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, e.Addr); err != nil {
		return err
	}
	switch e.Kind {
	case KindG, KindE, Kinde, KindV:
		if _, err := w.WriteString(e.Label); err != nil {
			return err
		}
		if err := w.WriteByte(0); err != nil {
			return err
		}
	}
	return nil
}

// Read parses a tagged-stream container (§3). FormatError on a bad
// magic, truncated entry, or unknown tag.
func Read(r io.Reader) (*Module, error) {
	br := bufio.NewReader(r)
	magic0, err := br.ReadByte()
	if err != nil || magic0 != 'o' {
		return nil, asmerr.New(asmerr.Format, asmerr.Site{Address: -1}, "missing object magic")
	}
	m := &Module{}
	b, err := br.Peek(1)
	if err == nil && len(b) == 1 && b[0] == 'p' {
		m.Plus = true
		br.ReadByte()
	}

	for {
		tag, err := br.ReadByte()
		if err != nil {
			return nil, asmerr.New(asmerr.Format, asmerr.Site{Address: -1}, "truncated header: %v", err)
		}
		if tag == 'C' {
			break
		}
		var addr uint16
		if err := binary.Read(br, binary.LittleEndian, &addr); err != nil {
			return nil, asmerr.New(asmerr.Format, asmerr.Site{Address: -1}, "truncated header entry: %v", err)
		}
		e := Entry{Kind: tag, Addr: addr}
		switch tag {
		case KindS, KindA:
			// no label
		case KindG, KindE, Kinde, KindV:
			label, err := readCString(br)
			if err != nil {
				return nil, err
			}
			e.Label = label
		default:
			return nil, asmerr.New(asmerr.Format, asmerr.Site{Address: -1}, "unknown header tag %q", tag)
		}
		m.Entries = append(m.Entries, e)
	}

	for {
		var w16 uint16
		if err := binary.Read(br, binary.LittleEndian, &w16); err != nil {
			if err == io.EOF {
				break
			}
			return nil, asmerr.New(asmerr.Format, asmerr.Site{Address: -1}, "truncated code word: %v", err)
		}
		m.Code = append(m.Code, w16)
	}
	return m, nil
}

func readCString(br *bufio.Reader) (string, error) {
	s, err := br.ReadString(0)
	if err != nil {
		return "", asmerr.New(asmerr.Format, asmerr.Site{Address: -1}, "unterminated label string: %v", err)
	}
	return s[:len(s)-1], nil
}
