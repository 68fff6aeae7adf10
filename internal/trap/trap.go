// Package trap implements the §4.7 TRAP service routines as a
// TrapDispatcher plugged into a vm.Machine at construction — the same
// swappable-backend shape the teacher uses for its CodeGenerator
// interface (§9's redesign note against subclassing dispatch).
package trap

import (
	"fmt"
	"strconv"

	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/isa"
	"github.com/xyproto/lcc/internal/vm"
)

// Base implements the fixed vectors 0x00-0x0E required by every LCC
// program. Breakpoint is called for `bp`; a nil Breakpoint makes `bp`
// a no-op, appropriate for non-interactive (test/batch) runs.
type Base struct {
	Breakpoint func(m *vm.Machine) error
}

var _ vm.TrapDispatcher = Base{}

// Dispatch implements vm.TrapDispatcher.
func (b Base) Dispatch(m *vm.Machine, vec uint8, dr uint8) error {
	switch vec {
	case isa.TrapHalt:
		return nil
	case isa.TrapNL:
		return writeString(m, "\n")
	case isa.TrapDOUT:
		return writeString(m, strconv.FormatInt(int64(int16(m.Regs[dr])), 10))
	case isa.TrapUDOUT:
		return writeString(m, strconv.FormatUint(uint64(m.Regs[dr]), 10))
	case isa.TrapHOUT:
		return writeString(m, fmt.Sprintf("%04X", m.Regs[dr]))
	case isa.TrapAOUT:
		return writeString(m, string(rune(m.Regs[dr]&0xFF)))
	case isa.TrapSOUT:
		return doSout(m, dr)
	case isa.TrapDIN:
		return doDin(m, dr)
	case isa.TrapHIN:
		return doHin(m, dr)
	case isa.TrapAIN:
		return doAin(m, dr)
	case isa.TrapSIN:
		return doSin(m, dr)
	case isa.TrapM:
		return doDumpMemory(m, dr)
	case isa.TrapR:
		return doDumpRegisters(m)
	case isa.TrapS:
		return doDumpStack(m)
	case isa.TrapBP:
		if b.Breakpoint != nil {
			return b.Breakpoint(m)
		}
		return nil
	default:
		return asmerr.AtAddress(asmerr.Runtime, int(m.PC), "invalid trap vector 0x%02X", vec)
	}
}

func writeString(m *vm.Machine, s string) error {
	if m.Output == nil {
		return nil
	}
	_, err := m.Output.Write([]byte(s))
	return err
}

func doSout(m *vm.Machine, dr uint8) error {
	addr := m.Regs[dr]
	var buf []byte
	for {
		w := m.Mem[addr]
		if w&0xFF == 0 {
			break
		}
		buf = append(buf, byte(w&0xFF))
		addr++
	}
	return writeString(m, string(buf))
}

func doDin(m *vm.Machine, dr uint8) error {
	line, err := m.ReadLine()
	if err != nil {
		return asmerr.AtAddress(asmerr.IO, int(m.PC), "din: %v", err)
	}
	v, err := strconv.ParseInt(line, 10, 32)
	if err != nil {
		return asmerr.AtAddress(asmerr.Runtime, int(m.PC), "invalid decimal")
	}
	m.Regs[dr] = uint16(v)
	return nil
}

func doHin(m *vm.Machine, dr uint8) error {
	line, err := m.ReadLine()
	if err != nil {
		return asmerr.AtAddress(asmerr.IO, int(m.PC), "hin: %v", err)
	}
	v, err := strconv.ParseUint(trimHexPrefix(line), 16, 32)
	if err != nil {
		return asmerr.AtAddress(asmerr.Runtime, int(m.PC), "invalid hex")
	}
	m.Regs[dr] = uint16(v)
	return nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

func doAin(m *vm.Machine, dr uint8) error {
	b, err := m.ReadByte()
	if err != nil {
		return asmerr.AtAddress(asmerr.IO, int(m.PC), "ain: %v", err)
	}
	m.Regs[dr] = uint16(b)
	return nil
}

func doSin(m *vm.Machine, dr uint8) error {
	line, err := m.ReadLine()
	if err != nil {
		return asmerr.AtAddress(asmerr.IO, int(m.PC), "sin: %v", err)
	}
	addr := m.Regs[dr]
	for i := 0; i < len(line); i++ {
		m.Mem[addr] = uint16(line[i])
		addr++
	}
	m.Mem[addr] = 0
	return nil
}

func doDumpMemory(m *vm.Machine, dr uint8) error {
	base := m.Regs[dr]
	var out string
	for i := uint16(0); i < 8; i++ {
		out += fmt.Sprintf("%04X: %04X\n", base+i, m.Mem[base+i])
	}
	return writeString(m, out)
}

func doDumpRegisters(m *vm.Machine) error {
	out := fmt.Sprintf("pc=%04X n=%v z=%v c=%v v=%v\n", m.PC, m.Flags.N, m.Flags.Z, m.Flags.C, m.Flags.V)
	for i, r := range m.Regs {
		out += fmt.Sprintf("r%d=%04X ", i, r)
	}
	out += "\n"
	return writeString(m, out)
}

func doDumpStack(m *vm.Machine) error {
	sp := m.Regs[isa.SP]
	var out string
	for i := uint16(0); i < 8; i++ {
		out += fmt.Sprintf("%04X: %04X\n", sp+i, m.Mem[sp+i])
	}
	return writeString(m, out)
}
