// Package listing generates the byte-exact .lst/.bst trace files of
// §4.8. An Accumulator implements vm.Tracer, so the interpreter's core
// loop never needs to know the listing format.
package listing

import (
	"fmt"
	"strings"

	"github.com/xyproto/lcc/internal/disasm"
	"github.com/xyproto/lcc/internal/isa"
	"github.com/xyproto/lcc/internal/vm"
)

// Row is one executed-instruction trace entry.
type Row struct {
	Addr   uint16
	Word   uint16
	Text   string
	Regs   [isa.NumRegs]uint16
	Flags  vm.Flags
}

// Accumulator collects one Row per executed instruction (§3
// "Interpreter state": a lazy sequence of rows owned by one
// interpreter instance).
type Accumulator struct {
	InputFile string
	Identity  string

	rows []Row
	dis  *disasm.Context
}

var _ vm.Tracer = (*Accumulator)(nil)

// New builds an Accumulator for one run; inputFile and identity feed
// the two header lines §4.8 requires at the top of .lst/.bst.
func New(inputFile, identity string) *Accumulator {
	return &Accumulator{InputFile: inputFile, Identity: identity, dis: disasm.NewContext()}
}

// Trace implements vm.Tracer, appending one row per executed word.
func (a *Accumulator) Trace(m *vm.Machine, instrAddr, ir uint16) {
	a.rows = append(a.rows, Row{
		Addr:  instrAddr,
		Word:  ir,
		Text:  a.dis.DisassembleWord(instrAddr, ir),
		Regs:  m.Regs,
		Flags: m.Flags,
	})
}

func (a *Accumulator) header() []string {
	return []string{
		fmt.Sprintf("Input file name = %s", a.InputFile),
		a.Identity,
	}
}

// Text renders the .lst form: hex address, hex word, disassembled
// text, and the n/z/c/v flags after execution. Rows do not print
// register values; the footer prints the register file after the last
// traced instruction.
func (a *Accumulator) Text() string {
	var b strings.Builder
	for _, line := range a.header() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, r := range a.rows {
		fmt.Fprintf(&b, "%04X  %04X  %-24s %s\n", r.Addr, r.Word, r.Text, regSnapshot(r))
	}
	b.WriteString(a.footer())
	return b.String()
}

// Binary renders the .bst form: identical rows, but the instruction
// word is rendered as a grouped 16-bit binary field.
func (a *Accumulator) Binary() string {
	var b strings.Builder
	for _, line := range a.header() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, r := range a.rows {
		fmt.Fprintf(&b, "%04X  %s  %-24s %s\n", r.Addr, groupedBinary(r.Word), r.Text, regSnapshot(r))
	}
	b.WriteString(a.footer())
	return b.String()
}

func (a *Accumulator) footer() string {
	var b strings.Builder
	b.WriteString("-- registers --\n")
	if len(a.rows) > 0 {
		last := a.rows[len(a.rows)-1]
		for i, r := range last.Regs {
			fmt.Fprintf(&b, "r%d=%04X ", i, r)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "instructions executed: %d\n", len(a.rows))
	return b.String()
}

func regSnapshot(r Row) string {
	return fmt.Sprintf("n=%s z=%s c=%s v=%s",
		boolBit(r.Flags.N), boolBit(r.Flags.Z), boolBit(r.Flags.C), boolBit(r.Flags.V))
}

func boolBit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// groupedBinary renders w as four nibble-separated 4-bit groups, e.g.
// "0001 0010 0011 0100".
func groupedBinary(w uint16) string {
	var b strings.Builder
	for i := 15; i >= 0; i-- {
		if (w>>uint(i))&1 == 1 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
		if i%4 == 0 && i != 0 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Normalize applies the §4.8 equivalence rule used by golden-file
// comparison: strip `;` comments, collapse whitespace, lowercase, and
// drop banner lines.
func Normalize(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if idx := strings.IndexByte(line, ';'); idx >= 0 {
			line = line[:idx]
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "Input file name =") || strings.HasPrefix(trimmed, "LCC Assemble") {
			continue
		}
		collapsed := strings.ToLower(strings.Join(strings.Fields(trimmed), " "))
		out = append(out, collapsed)
	}
	return strings.Join(out, "\n")
}
