// Package disasm turns code words back into LCC assembly text. All
// working state lives in a Context built per invocation (§9's redesign
// note against the source's process-wide codeLabelCounter/
// dataLabelCounter/labels globals).
package disasm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xyproto/lcc/internal/isa"
	"github.com/xyproto/lcc/internal/object"
)

// Context owns every piece of state a disassembly pass needs: the
// address->label map (seeded from the module's G entries, then
// filled in with invented names for unlabeled branch/data targets)
// and the two counters used to mint those invented names.
type Context struct {
	Labels      map[uint16]string
	codeCounter int
	dataCounter int
}

// NewContext builds an empty disassembly context.
func NewContext() *Context {
	return &Context{Labels: make(map[uint16]string)}
}

// DisassembleWord renders a single instruction word without running a
// full label-discovery pass; used by the listing writer, which only
// needs one row at a time as the interpreter executes.
func (c *Context) DisassembleWord(addr, w uint16) string {
	return instrText(addr, w, c.Labels)
}

// Disassemble renders m's code section as assembly text, one line per
// word, synthesizing labels for any branch or data reference that
// doesn't already have one from the module's G entries.
func (c *Context) Disassemble(m *object.Module) string {
	for _, e := range m.Entries {
		switch e.Kind {
		case object.KindG, object.KindS:
			if e.Label != "" {
				c.Labels[e.Addr] = e.Label
			}
		}
	}

	type target struct {
		addr   uint16
		isData bool
	}
	var targets []target
	for addr, w := range m.Code {
		if t, isData, ok := instrTarget(uint16(addr), w); ok {
			targets = append(targets, target{t, isData})
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].addr < targets[j].addr })
	for _, t := range targets {
		if _, named := c.Labels[t.addr]; named {
			continue
		}
		c.Labels[t.addr] = c.mint(t.isData)
	}

	var b strings.Builder
	for addr, w := range m.Code {
		a := uint16(addr)
		if label, ok := c.Labels[a]; ok {
			fmt.Fprintf(&b, "%s:\n", label)
		}
		fmt.Fprintf(&b, "%04X  %04X  %s\n", a, w, instrText(a, w, c.Labels))
	}
	return b.String()
}

func (c *Context) mint(isData bool) string {
	if isData {
		name := fmt.Sprintf("D%d", c.dataCounter)
		c.dataCounter++
		return name
	}
	name := fmt.Sprintf("L%d", c.codeCounter)
	c.codeCounter++
	return name
}

// instrTarget reports the absolute address a pc-relative instruction
// references, and whether that reference reads data (ld/st/lea) as
// opposed to transferring control (br/bl). ok is false for anything
// without a label-shaped operand (register-indexed instructions,
// trap, mvi, ALU ops).
func instrTarget(addr, w uint16) (target uint16, isData, ok bool) {
	next := addr + 1
	switch isa.Decode(w) {
	case isa.OpBR:
		off := isa.SignExtend(w&0x1FF, 9)
		return uint16(int32(next)+int32(off)) & 0xFFFF, false, true
	case isa.OpLD, isa.OpST, isa.OpLEA:
		off := isa.SignExtend(w&0x1FF, 9)
		return uint16(int32(next)+int32(off)) & 0xFFFF, true, true
	case isa.OpBL:
		if w&0x0800 != 0 {
			off := isa.SignExtend(w&0x7FF, 11)
			return uint16(int32(next)+int32(off)) & 0xFFFF, false, true
		}
	}
	return 0, false, false
}

// instrText renders one decoded instruction as assembly text, using
// labels to name any pc-relative target.
func instrText(addr, w uint16, labels map[uint16]string) string {
	next := addr + 1
	nameAt := func(off int16) string {
		a := uint16(int32(next)+int32(off)) & 0xFFFF
		if name, ok := labels[a]; ok {
			return name
		}
		return fmt.Sprintf("0x%04X", a)
	}
	reg := func(n uint16) string { return isa.RegisterName(uint8(n & 0x7)) }

	switch isa.Decode(w) {
	case isa.OpBR:
		cc := isa.CC((w >> 9) & 0x7)
		off := isa.SignExtend(w&0x1FF, 9)
		mnem := "br" + cc.Mnemonic()
		return fmt.Sprintf("%s %s", mnem, nameAt(off))
	case isa.OpADD, isa.OpAND, isa.OpSUB:
		return instrALUText(w)
	case isa.OpLD:
		off := isa.SignExtend(w&0x1FF, 9)
		return fmt.Sprintf("ld %s, %s", reg(w>>9), nameAt(off))
	case isa.OpST:
		off := isa.SignExtend(w&0x1FF, 9)
		return fmt.Sprintf("st %s, %s", reg(w>>9), nameAt(off))
	case isa.OpBL:
		if w&0x0800 != 0 {
			off := isa.SignExtend(w&0x7FF, 11)
			return fmt.Sprintf("bl %s", nameAt(off))
		}
		br := reg(w >> 6)
		off := isa.SignExtend(w&0x3F, 6)
		if off == 0 {
			return fmt.Sprintf("blr %s", br)
		}
		return fmt.Sprintf("blr %s, %d", br, off)
	case isa.OpLDR:
		dr, br := reg(w>>9), reg(w>>6)
		off := isa.SignExtend(w&0x3F, 6)
		return fmt.Sprintf("ldr %s, %s, %d", dr, br, off)
	case isa.OpSTR:
		sr, br := reg(w>>9), reg(w>>6)
		off := isa.SignExtend(w&0x3F, 6)
		return fmt.Sprintf("str %s, %s, %d", sr, br, off)
	case isa.OpCMP:
		sr1 := reg(w >> 6)
		if (w>>5)&1 == 1 {
			imm := isa.SignExtend(w&0x1F, 5)
			return fmt.Sprintf("cmp %s, %d", sr1, imm)
		}
		return fmt.Sprintf("cmp %s, %s", sr1, reg(w))
	case isa.OpNOT:
		return fmt.Sprintf("not %s, %s", reg(w>>9), reg(w>>6))
	case isa.OpMISC:
		return instrMiscText(w, reg)
	case isa.OpJMP:
		br := reg(w >> 6)
		off := isa.SignExtend(w&0x3F, 6)
		if br == "lr" && off == 0 {
			return "ret"
		}
		if off == 0 {
			return fmt.Sprintf("jmp %s", br)
		}
		return fmt.Sprintf("jmp %s, %d", br, off)
	case isa.OpMVI:
		imm := isa.SignExtend(w&0x1FF, 9)
		return fmt.Sprintf("mvi %s, %d", reg(w>>9), imm)
	case isa.OpLEA:
		off := isa.SignExtend(w&0x1FF, 9)
		return fmt.Sprintf("lea %s, %s", reg(w>>9), nameAt(off))
	case isa.OpTRAP:
		dr := reg(w >> 8)
		vec := uint8(w & 0xFF)
		if name, ok := isa.TrapName[vec]; ok {
			return fmt.Sprintf("trap %s, %s (0x%02X)", dr, name, vec)
		}
		return fmt.Sprintf("trap %s, 0x%02X", dr, vec)
	default:
		return fmt.Sprintf(".word 0x%04X", w)
	}
}

func instrALUText(w uint16) string {
	var mnem string
	switch isa.Decode(w) {
	case isa.OpADD:
		mnem = "add"
	case isa.OpAND:
		mnem = "and"
	case isa.OpSUB:
		mnem = "sub"
	}
	dr := isa.RegisterName(uint8((w >> 9) & 0x7))
	sr1 := isa.RegisterName(uint8((w >> 6) & 0x7))
	if (w>>5)&1 == 1 {
		imm := isa.SignExtend(w&0x1F, 5)
		return fmt.Sprintf("%s %s, %s, %d", mnem, dr, sr1, imm)
	}
	sr2 := isa.RegisterName(uint8(w & 0x7))
	return fmt.Sprintf("%s %s, %s, %s", mnem, dr, sr1, sr2)
}

func instrMiscText(w uint16, reg func(uint16) string) string {
	drsr := w >> 9
	sr1 := w >> 6
	eop := isa.Eop(w & 0x3F)
	if isa.UnaryEop(eop) {
		return fmt.Sprintf("%s %s", eop.Mnemonic(), reg(drsr))
	}
	name := eop.Mnemonic()
	if name == "" {
		return fmt.Sprintf(".word 0x%04X", w)
	}
	return fmt.Sprintf("%s %s, %s", name, reg(drsr), reg(sr1))
}
