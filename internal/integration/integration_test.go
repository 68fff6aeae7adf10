// Package integration exercises the assembler, linker, and
// interpreter together end to end, in the style hejops/gone's cpu
// package tests its own fetch-decode-execute loop, but with
// stretchr/testify's require/assert for the higher-level plumbing
// these multi-stage checks need.
package integration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyproto/lcc/internal/assembler"
	"github.com/xyproto/lcc/internal/linker"
	"github.com/xyproto/lcc/internal/object"
	"github.com/xyproto/lcc/internal/trap"
	"github.com/xyproto/lcc/internal/vm"
)

func assemble(t *testing.T, file, src string) *object.Module {
	t.Helper()
	res, err := assembler.Assemble(file, src)
	require.NoError(t, err, "assembling %s", file)
	return res.Module
}

// TestAssembleLinkRunMultiModule chains all three stages: a startup
// module that calls an extern "main" defined in a second module,
// linked into one executable and run to completion (§8 scenario 4).
func TestAssembleLinkRunMultiModule(t *testing.T) {
	startup := assemble(t, "startup.asm", ".extern main\n.start entry\nentry: bl main\nhalt\n")
	lib := assemble(t, "lib.asm", ".global main\nmain: mvi r0, 7\ndout r0\nnl\nret\n")

	require.False(t, lib.IsExecutable(), "a module exporting .global main still needs linking")

	exe, err := linker.Link([]*object.Module{startup, lib})
	require.NoError(t, err)
	require.True(t, exe.IsExecutable(), "a linked image must have no outstanding externs")

	start, ok := exe.Start()
	require.True(t, ok, "expected a start address")

	m := vm.New()
	var out strings.Builder
	m.Output = &out
	m.Dispatcher = trap.Base{}
	require.NoError(t, m.Load(exe.Code, start, 0))
	require.NoError(t, m.Run())

	assert.Equal(t, "7\n", out.String())
	assert.False(t, m.Running, "halt must leave the machine stopped")
}

// TestAssembleLinkRunWordRelocation checks that a .word reference to
// an extern label survives assembly, linking, and execution with the
// correct absolute value (§4.5's V-table 16-bit extern relocation,
// exercised end to end rather than unit-tested against the linker alone).
func TestAssembleLinkRunWordRelocation(t *testing.T) {
	main := assemble(t, "main.asm", ".extern val\n.start entry\nentry: ld r0, ptr\nldr r0, r0, 0\ndout r0\nnl\nhalt\nptr: .word val\n")
	data := assemble(t, "data.asm", ".global val\nval: .word 9\n")

	exe, err := linker.Link([]*object.Module{main, data})
	require.NoError(t, err)

	start, ok := exe.Start()
	require.True(t, ok)

	m := vm.New()
	var out strings.Builder
	m.Output = &out
	m.Dispatcher = trap.Base{}
	require.NoError(t, m.Load(exe.Code, start, 0))
	require.NoError(t, m.Run())

	assert.Equal(t, "9\n", out.String())
}

// TestRunUndefinedExternFailsAtLinkTime confirms that an unresolved
// extern is caught by the linker before the interpreter ever sees it.
func TestRunUndefinedExternFailsAtLinkTime(t *testing.T) {
	lonely := assemble(t, "lonely.asm", ".extern missing\n.start entry\nentry: bl missing\n")
	_, err := linker.Link([]*object.Module{lonely})
	assert.Error(t, err)
}
