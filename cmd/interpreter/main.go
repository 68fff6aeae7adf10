// Command interpreter loads an executable and runs it to completion,
// optionally emitting the .lst/.bst trace files of §4.8.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/xyproto/lcc/internal/config"
	"github.com/xyproto/lcc/internal/listing"
	"github.com/xyproto/lcc/internal/object"
	"github.com/xyproto/lcc/internal/termio"
	"github.com/xyproto/lcc/internal/trap"
	"github.com/xyproto/lcc/internal/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("interpreter", flag.ContinueOnError)
	loadPointHex := fs.String("L", "0", "load point in hex")
	noStats := fs.Bool("nostats", false, "suppress .lst/.bst emission")
	debug := fs.Bool("debug", false, "dump the loaded module and final register file to stderr")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: interpreter [-L HEX] [-nostats] [-debug] FILE.e [FILE.e ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	inputs := fs.Args()
	if len(inputs) == 0 {
		fs.Usage()
		return 1
	}

	loadPoint, err := strconv.ParseUint(strings.TrimPrefix(*loadPointHex, "0x"), 16, 16)
	if err != nil {
		fmt.Fprintf(os.Stderr, "interpreter: invalid -L value %q: %v\n", *loadPointHex, err)
		return 1
	}

	for _, path := range inputs {
		if err := runOne(path, uint16(loadPoint), *noStats, *debug); err != nil {
			fmt.Fprintf(os.Stderr, "interpreter: %v\n", err)
			return 1
		}
	}
	return 0
}

func runOne(path string, loadPoint uint16, noStats, debug bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	mod, err := object.Read(f)
	f.Close()
	if err != nil {
		return err
	}
	if debug {
		fmt.Fprintf(os.Stderr, "-- %s: loaded module --\n%s", path, spew.Sdump(mod))
	}
	start, _ := mod.Start()

	m := vm.New()
	m.InstrCap = config.InstrCap()
	m.Output = os.Stdout
	m.SetInput(os.Stdin)
	m.Dispatcher = trap.Base{}

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

	// §4.7: ain/bp need raw, unbuffered keystrokes. Enable raw mode
	// only around the run itself, not the line-oriented name prompt
	// above, and restore the terminal before returning either way.
	fd := int(os.Stdin.Fd())
	if termio.IsTerminal(fd) {
		raw, err := termio.Enable(fd)
		if err != nil {
			return err
		}
		m.Dispatcher = trap.Base{Breakpoint: func(m *vm.Machine) error {
			return termio.WaitForResume(os.Stdin, os.Stdout)
		}}
		defer raw.Restore()
	}

	runErr := m.Run()

	if debug {
		fmt.Fprintf(os.Stderr, "-- %s: final registers --\n%s", path, spew.Sdump(m.Regs))
	}

	if acc != nil {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := os.WriteFile(base+".lst", []byte(acc.Text()), 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(base+".bst", []byte(acc.Binary()), 0o644); err != nil {
			return err
		}
	}
	return runErr
}

// loadIdentity reads the "LastName, First M" line from a name.nnn side
// file (§4.8), prompting once (over the machine's own input stream, so
// nothing already buffered for din/hin/ain/sin is lost) and creating
// it if absent.
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
