// Command assembler assembles one or more LCC source files into
// object (.o) or executable (.e) containers, per §6's command-line
// surface.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/xyproto/lcc/internal/assembler"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("assembler", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "dump the symbol table and object module to stderr")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: assembler [-debug] FILE.asm [FILE.asm ...]")
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

	for _, path := range inputs {
		if err := assembleOne(path, *debug); err != nil {
			fmt.Fprintf(os.Stderr, "assembler: %v\n", err)
			return 1
		}
	}
	return 0
}

func assembleOne(path string, debug bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res, err := assembler.Assemble(path, string(src))
	if err != nil {
		return err
	}
	if debug {
		fmt.Fprintf(os.Stderr, "-- %s: symbol table --\n%s", path, spew.Sdump(res.Syms.All()))
		fmt.Fprintf(os.Stderr, "-- %s: object module --\n%s", path, spew.Sdump(res.Module))
	}
	ext := ".o"
	if res.Module.IsExecutable() {
		ext = ".e"
	}
	out := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ext

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := res.Module.Write(f); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s -> %s\n", path, out)
	return nil
}
