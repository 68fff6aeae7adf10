package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runLCC executes the root command with args inside dir, returning
// combined stdout/stderr text and any error.
func runLCC(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cmd := newRootCmd()
	var out strings.Builder
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestAsmThenRunRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := "mov r0, 5\ndout r0\nnl\nhalt\n"
	if err := os.WriteFile(filepath.Join(dir, "demoa.asm"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "name.001"), []byte("Doe, John J\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runLCC(t, dir, "asm", "demoa.asm"); err != nil {
		t.Fatalf("asm failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "demoa.e")); err != nil {
		t.Fatalf("expected demoa.e, got %v", err)
	}

	out, err := runLCC(t, dir, "run", "demoa.e")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "5") {
		t.Fatalf("expected program output to contain 5, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "demoa.lst")); err != nil {
		t.Fatalf("expected demoa.lst, got %v", err)
	}
}

func TestDisAfterAsm(t *testing.T) {
	dir := t.TempDir()
	src := ".global main\nmain: mvi r0, 5\nhalt\n"
	if err := os.WriteFile(filepath.Join(dir, "m.asm"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runLCC(t, dir, "asm", "m.asm"); err != nil {
		t.Fatalf("asm failed: %v", err)
	}
	out, err := runLCC(t, dir, "dis", "m.o")
	if err != nil {
		t.Fatalf("dis failed: %v", err)
	}
	if !strings.Contains(out, "mvi r0, 5") {
		t.Fatalf("expected disassembly of mvi, got %q", out)
	}
}

func TestLinkMissingFileIsEnvError(t *testing.T) {
	dir := t.TempDir()
	_, err := runLCC(t, dir, "link", "nope.o")
	if err == nil {
		t.Fatal("expected an error for a missing input file")
	}
	if exitCodeFor(err) != 2 {
		t.Fatalf("expected exit code 2 for a missing file, got %d", exitCodeFor(err))
	}
}

func TestRunInvalidLoadPointIsUsageError(t *testing.T) {
	dir := t.TempDir()
	src := ".global main\nmain: halt\n"
	if err := os.WriteFile(filepath.Join(dir, "m.asm"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runLCC(t, dir, "asm", "m.asm"); err != nil {
		t.Fatalf("asm failed: %v", err)
	}
	_, err := runLCC(t, dir, "run", "-L", "zz", "m.e")
	if err == nil {
		t.Fatal("expected an error for a malformed load point")
	}
	if exitCodeFor(err) != 1 {
		t.Fatalf("expected exit code 1 for a usage error, got %d", exitCodeFor(err))
	}
}
