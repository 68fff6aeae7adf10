// Package termio wraps golang.org/x/term for the interactive ain/bp
// traps of §4.7: reading one keystroke without waiting for Enter, and
// pausing a breakpoint until the operator resumes it.
package termio

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/term"
)

// Raw records a terminal file descriptor switched into raw mode and the
// state to restore; the CLIs hold it around a whole program run.
type Raw struct {
	fd    int
	saved *term.State
}

// IsTerminal reports whether fd refers to an interactive terminal;
// callers use this to fall back to buffered line input in test mode.
func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

// Enable switches fd into raw mode. Callers must defer Restore.
func Enable(fd int) (*Raw, error) {
	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("termio: enable raw mode: %w", err)
	}
	return &Raw{fd: fd, saved: saved}, nil
}

// Restore returns the terminal to its prior mode.
func (r *Raw) Restore() error {
	if r == nil || r.saved == nil {
		return nil
	}
	return term.Restore(r.fd, r.saved)
}

// ReadByte reads a single raw byte from r. The `ain` trap does not call
// it; it reads through vm.Machine.ReadByte in every mode.
func ReadByte(r *bufio.Reader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return b, nil
}

// WaitForResume blocks on a single keystroke, used by the `bp` trap to
// pause execution until the operator presses a key.
func WaitForResume(r io.Reader, prompt io.Writer) error {
	if prompt != nil {
		fmt.Fprint(prompt, "-- breakpoint: press any key to resume --")
	}
	buf := make([]byte, 1)
	_, err := r.Read(buf)
	if prompt != nil {
		fmt.Fprintln(prompt)
	}
	return err
}
