// Command linker links one or more object modules into a single
// executable container, per §4.5/§6.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/xyproto/lcc/internal/linker"
	"github.com/xyproto/lcc/internal/object"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("linker", flag.ContinueOnError)
	out := fs.String("o", "", "output executable path (default <first-input-base>.e)")
	debug := fs.Bool("debug", false, "dump each input module and the linked result to stderr")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: linker [-o OUTFILE] [-debug] FILE.o [FILE.o ...]")
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

	modules := make([]*object.Module, 0, len(inputs))
	for _, path := range inputs {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "linker: %v\n", err)
			return 2
		}
		m, err := object.Read(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "linker: %s: %v\n", path, err)
			return 1
		}
		if *debug {
			fmt.Fprintf(os.Stderr, "-- %s: input module --\n%s", path, spew.Sdump(m))
		}
		modules = append(modules, m)
	}

	exe, err := linker.Link(modules)
	if err != nil {
		fmt.Fprintf(os.Stderr, "linker: %v\n", err)
		return 1
	}
	if *debug {
		fmt.Fprintf(os.Stderr, "-- linked module --\n%s", spew.Sdump(exe))
	}

	outPath := *out
	if outPath == "" {
		base := filepath.Base(inputs[0])
		outPath = strings.TrimSuffix(base, filepath.Ext(base)) + ".e"
	}
	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "linker: %v\n", err)
		return 2
	}
	defer f.Close()
	if err := exe.Write(f); err != nil {
		fmt.Fprintf(os.Stderr, "linker: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "-> %s\n", outPath)
	return 0
}
