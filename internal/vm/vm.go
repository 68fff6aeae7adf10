// Package vm implements the LCC interpreter core: registers, memory,
// flags, and the fetch-decode-execute loop of §4.6. Trap vectors are
// not hardwired here — a Machine is constructed with a TrapDispatcher,
// the same plugin-at-construction shape the teacher uses for its
// CodeGenerator backends (§9's redesign note against subclassing).
package vm

import (
	"bufio"
	"io"

	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/isa"
)

const memSize = 1 << 16

// DefaultInstrCap is the default instruction budget before the VM
// gives up and reports a possible infinite loop (§4.6).
const DefaultInstrCap = 500_000

// Flags holds the four condition bits set by ALU and CMP instructions
// (§3).
type Flags struct {
	N, Z, C, V bool
}

// Tracer receives one callback per executed instruction, letting the
// listing writer observe the machine without the vm package knowing
// anything about .lst/.bst formatting.
type Tracer interface {
	Trace(m *Machine, instrAddr, ir uint16)
}

// TrapDispatcher handles `trap vec8` (§4.7). Dispatch may mutate m
// (registers, memory, Output) and returns a RuntimeError for an
// unrecognized vector or a failed input parse.
type TrapDispatcher interface {
	Dispatch(m *Machine, vec uint8, dr uint8) error
}

// Machine is one interpreter instance (§3 "Interpreter state"). It
// exclusively owns its memory, registers, and flags for its lifetime.
type Machine struct {
	Mem     [memSize]uint16
	Regs    [isa.NumRegs]uint16
	PC      uint16
	Flags   Flags
	Running bool

	InstrCount uint64
	InstrCap   uint64

	Dispatcher TrapDispatcher
	Tracer     Tracer

	Output io.Writer
	input  *bufio.Reader
}

// New builds a Machine with the default instruction cap and no I/O
// wired up; callers set Output/SetInput and a Dispatcher before Run.
func New() *Machine {
	return &Machine{InstrCap: DefaultInstrCap}
}

// SetInput wires the FIFO input source consumed by din/hin/ain/sin.
func (m *Machine) SetInput(r io.Reader) {
	m.input = bufio.NewReader(r)
}

// ReadLine reads one newline-terminated line from the input buffer,
// trimming the trailing '\n' (and a preceding '\r', if present).
func (m *Machine) ReadLine() (string, error) {
	if m.input == nil {
		return "", io.EOF
	}
	line, err := m.input.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

// ReadByte reads a single byte from the input buffer (used by `ain`).
func (m *Machine) ReadByte() (byte, error) {
	if m.input == nil {
		return 0, io.EOF
	}
	return m.input.ReadByte()
}

// Load copies an executable's code into memory at loadPoint and sets
// pc from its S entry (§4.6). G/A entries are ignored: their
// addresses are already absolute.
func (m *Machine) Load(code []uint16, start uint16, loadPoint uint16) error {
	if int(loadPoint)+len(code) > memSize {
		return asmerr.AtAddress(asmerr.Range, int(loadPoint), "executable does not fit in memory at load point 0x%04X", loadPoint)
	}
	for i, w := range code {
		m.Mem[int(loadPoint)+i] = w
	}
	m.PC = loadPoint + start
	m.Running = true
	return nil
}

// Run executes instructions until halt, an error, or the instruction
// cap is exceeded (§4.6 Termination).
func (m *Machine) Run() error {
	if m.InstrCap == 0 {
		m.InstrCap = DefaultInstrCap
	}
	for m.Running {
		if m.InstrCount >= m.InstrCap {
			return asmerr.AtAddress(asmerr.PossibleInfiniteLoop, int(m.PC),
				"exceeded instruction cap of %d with no halt", m.InstrCap)
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunState is the result of StepBatch, the run-until-suspend contract
// §9 asks for in place of the LCC+ source's cooperative-batching
// inheritance: the host drains output/reinjects input and re-invokes
// StepBatch until Halted.
type RunState struct {
	Running       bool
	Halted        bool
	AwaitingInput bool
}

// StepBatch executes up to n instructions, stopping early on halt or
// on a blocking input trap with nothing buffered; in the latter case pc
// is left on that trap so the next call retries it. It does not check
// the instruction cap and never returns a PossibleInfiniteLoop error
// itself — the cap is enforced by the caller's own budget across
// repeated calls, mirroring the LCC+ event loop that re-invokes this
// every tick.
func (m *Machine) StepBatch(n int) (RunState, error) {
	for i := 0; i < n && m.Running; i++ {
		pc := m.PC
		if err := m.Step(); err != nil {
			if err, ok := err.(*asmerr.Error); ok && err.Kind == asmerr.IO {
				m.PC = pc
				m.InstrCount--
				return RunState{Running: m.Running, AwaitingInput: true}, nil
			}
			return RunState{}, err
		}
	}
	return RunState{Running: m.Running, Halted: !m.Running}, nil
}

// Step executes exactly one instruction (§4.6 "Step").
func (m *Machine) Step() error {
	instrAddr := m.PC
	ir := m.Mem[m.PC]
	m.PC = (m.PC + 1) & 0xFFFF
	m.InstrCount++

	if err := m.execute(ir); err != nil {
		return err
	}
	if m.Tracer != nil {
		m.Tracer.Trace(m, instrAddr, ir)
	}
	return nil
}

func (m *Machine) setNZ(result uint16) {
	m.Flags.N = result&0x8000 != 0
	m.Flags.Z = result == 0
}
