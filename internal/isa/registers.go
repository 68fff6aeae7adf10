// Package isa holds the static description of the LCC instruction set:
// the register file, the opcode table, and the per-opcode encoding
// shape, grounded on the teacher's reg.go register table and on
// oisee/z80-optimizer's pkg/inst catalog pattern.
package isa

import "strings"

// NumRegs is the number of general-purpose registers (§3).
const NumRegs = 8

// Register aliases, per §3: r5=fp, r6=sp, r7=lr.
const (
	FP = 5
	SP = 6
	LR = 7
)

// registerNames maps every accepted spelling (case-insensitive) to its
// register number.
var registerNames = map[string]uint8{
	"r0": 0, "r1": 1, "r2": 2, "r3": 3, "r4": 4,
	"r5": 5, "r6": 6, "r7": 7,
	"fp": FP, "sp": SP, "lr": LR,
}

// LookupRegister resolves a register operand spelling (case-insensitive)
// to its 3-bit register number. ok is false for anything else.
func LookupRegister(name string) (uint8, bool) {
	n, ok := registerNames[strings.ToLower(name)]
	return n, ok
}

// RegisterName returns the canonical lowercase name for a register
// number, preferring the alias for fp/sp/lr the way disassembly output
// and listings do.
func RegisterName(n uint8) string {
	switch n {
	case FP:
		return "fp"
	case SP:
		return "sp"
	case LR:
		return "lr"
	default:
		return "r" + string(rune('0'+n))
	}
}
