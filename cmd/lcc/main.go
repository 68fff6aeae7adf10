// Command lcc is the combined assemble/link/run/disassemble driver
// (§6): a single cobra CLI wrapping the same internal packages the
// standalone assembler/linker/interpreter binaries use.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/xyproto/lcc/internal/assembler"
	"github.com/xyproto/lcc/internal/config"
	"github.com/xyproto/lcc/internal/disasm"
	"github.com/xyproto/lcc/internal/linker"
	"github.com/xyproto/lcc/internal/listing"
	"github.com/xyproto/lcc/internal/object"
	"github.com/xyproto/lcc/internal/termio"
	"github.com/xyproto/lcc/internal/trap"
	"github.com/xyproto/lcc/internal/vm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error into §6's exit-code contract: 1 for
// usage/assembly/link/runtime errors, 2 for environment errors (a
// file that can't be opened or created). cobra itself already prints
// the error, so this only decides the code.
func exitCodeFor(err error) int {
	if _, ok := err.(envError); ok {
		return 2
	}
	return 1
}

type envError struct{ error }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lcc",
		Short:         "LCC toolchain: assemble, link, run, and disassemble",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newAsmCmd(), newLinkCmd(), newRunCmd(), newDisCmd())
	return root
}

func newAsmCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "asm FILE.asm [FILE.asm ...]",
		Short: "Assemble source files into .o/.e containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				out, err := assembleOne(cmd, path, debug)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", path, out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "dump the symbol table and object module to stderr")
	return cmd
}

func assembleOne(cmd *cobra.Command, path string, debug bool) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", envError{err}
	}
	res, err := assembler.Assemble(path, string(src))
	if err != nil {
		return "", err
	}
	if debug {
		fmt.Fprintf(cmd.ErrOrStderr(), "-- %s: symbol table --\n%s", path, spew.Sdump(res.Syms.All()))
		fmt.Fprintf(cmd.ErrOrStderr(), "-- %s: object module --\n%s", path, spew.Sdump(res.Module))
	}
	ext := ".o"
	if res.Module.IsExecutable() {
		ext = ".e"
	}
	out := trimExt(path) + ext
	f, err := os.Create(out)
	if err != nil {
		return "", envError{err}
	}
	defer f.Close()
	if err := res.Module.Write(f); err != nil {
		return "", err
	}
	return out, nil
}

func newLinkCmd() *cobra.Command {
	var outPath string
	var debug bool
	cmd := &cobra.Command{
		Use:   "link FILE.o [FILE.o ...]",
		Short: "Link object modules into an executable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modules := make([]*object.Module, 0, len(args))
			for _, path := range args {
				m, err := readModule(path)
				if err != nil {
					return err
				}
				if debug {
					fmt.Fprintf(cmd.ErrOrStderr(), "-- %s: input module --\n%s", path, spew.Sdump(m))
				}
				modules = append(modules, m)
			}
			exe, err := linker.Link(modules)
			if err != nil {
				return err
			}
			if debug {
				fmt.Fprintf(cmd.ErrOrStderr(), "-- linked module --\n%s", spew.Sdump(exe))
			}
			if outPath == "" {
				outPath = trimExt(args[0]) + ".e"
			}
			f, err := os.Create(outPath)
			if err != nil {
				return envError{err}
			}
			defer f.Close()
			if err := exe.Write(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "-> %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output executable path")
	cmd.Flags().BoolVar(&debug, "debug", false, "dump each input module and the linked result to stderr")
	return cmd
}

func newRunCmd() *cobra.Command {
	var loadPointHex string
	var noStats bool
	var plus bool
	var debug bool
	cmd := &cobra.Command{
		Use:   "run FILE.e [FILE.e ...]",
		Short: "Run executables to completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loadPoint, err := strconv.ParseUint(strings.TrimPrefix(loadPointHex, "0x"), 16, 16)
			if err != nil {
				return fmt.Errorf("invalid load point %q: %w", loadPointHex, err)
			}
			for _, path := range args {
				if err := runOne(cmd, path, uint16(loadPoint), noStats, plus, debug); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&loadPointHex, "load-point", "L", "0", "load point in hex")
	cmd.Flags().BoolVar(&noStats, "nostats", false, "suppress .lst/.bst emission")
	cmd.Flags().BoolVar(&plus, "plus", false, "use the LCC+ trap set instead of the base set")
	cmd.Flags().BoolVar(&debug, "debug", false, "dump the loaded module and final register file to stderr")
	return cmd
}

func runOne(cmd *cobra.Command, path string, loadPoint uint16, noStats, plus, debug bool) error {
	mod, err := readModule(path)
	if err != nil {
		return err
	}
	if debug {
		fmt.Fprintf(cmd.ErrOrStderr(), "-- %s: loaded module --\n%s", path, spew.Sdump(mod))
	}
	start, _ := mod.Start()

	m := vm.New()
	m.InstrCap = config.InstrCap()
	m.Output = cmd.OutOrStdout()
	m.SetInput(cmd.InOrStdin())
	if plus {
		m.Dispatcher = trap.NewPlus()
	} else {
		m.Dispatcher = trap.Base{}
	}

	var acc *listing.Accumulator
	if !noStats {
		identity, err := loadIdentity(m)
		if err != nil {
			return err
		}
		acc = listing.New(path, identity)
		m.Tracer = acc
	}

	if err := m.Load(mod.Code, start, loadPoint); err != nil {
		return err
	}

	// §4.7: ain/bp want raw, unbuffered keystrokes, but only when the
	// input side is an *os.File that is a controlling terminal (under
	// `go test` stdin is not one, so this is skipped).
	if f, ok := cmd.InOrStdin().(*os.File); ok && termio.IsTerminal(int(f.Fd())) {
		raw, err := termio.Enable(int(f.Fd()))
		if err != nil {
			return err
		}
		defer raw.Restore()
		resume := func(m *vm.Machine) error {
			return termio.WaitForResume(cmd.InOrStdin(), cmd.OutOrStdout())
		}
		if p, ok := m.Dispatcher.(*trap.Plus); ok {
			p.Breakpoint = resume
		} else {
			m.Dispatcher = trap.Base{Breakpoint: resume}
		}
	}

	runErr := m.Run()

	if debug {
		fmt.Fprintf(cmd.ErrOrStderr(), "-- %s: final registers --\n%s", path, spew.Sdump(m.Regs))
	}

	if acc != nil {
		base := trimExt(path)
		if err := os.WriteFile(base+".lst", []byte(acc.Text()), 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(base+".bst", []byte(acc.Binary()), 0o644); err != nil {
			return err
		}
	}
	return runErr
}

// loadIdentity mirrors the standalone interpreter's name.nnn handling
// (§4.8), reading the reply over the machine's own input stream so
// nothing buffered for din/hin/ain/sin is lost.
func loadIdentity(m *vm.Machine) (string, error) {
	matches, err := filepath.Glob("name.*")
	if err == nil {
		for _, f := range matches {
			if data, err := os.ReadFile(f); err == nil {
				return strings.TrimSpace(string(data)), nil
			}
		}
	}
	fmt.Fprint(os.Stdout, "Name (LastName, First M): ")
	name, _ := m.ReadLine()
	name = strings.TrimSpace(name)
	if err := os.WriteFile("name.001", []byte(name+"\n"), 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func newDisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dis FILE.o|FILE.e [FILE... ]",
		Short: "Disassemble object modules or executables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				m, err := readModule(path)
				if err != nil {
					return err
				}
				ctx := disasm.NewContext()
				fmt.Fprint(cmd.OutOrStdout(), ctx.Disassemble(m))
			}
			return nil
		},
	}
}

func readModule(path string) (*object.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, envError{err}
	}
	defer f.Close()
	return object.Read(f)
}

func trimExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
