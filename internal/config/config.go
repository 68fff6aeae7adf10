// Package config resolves the few environment-tunable knobs the core
// exposes (§6 "Environment variables", §9's open question on the
// instruction cap), using the teacher's own env helper library.
package config

import (
	"github.com/xyproto/env/v2"

	"github.com/xyproto/lcc/internal/vm"
)

// InstrCap returns the interpreter's instruction-count cap: the
// LCC_INSTR_CAP environment variable if set and valid, otherwise
// vm.DefaultInstrCap (§9: fixed at 500,000 for the base interpreter,
// but implementations may make it configurable).
func InstrCap() uint64 {
	return uint64(env.Int64("LCC_INSTR_CAP", vm.DefaultInstrCap))
}

// Verbose reports whether the LCC_VERBOSE environment variable is set
// to a true value. No CLI in this module reads it, so it enables no
// extra output.
func Verbose() bool {
	return env.Bool("LCC_VERBOSE")
}
