package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSymlinkDirectory(t *testing.T) {
	if !SymlinkSupported() {
		t.Skip("symlinks not supported on this system")
	}
	tmp := t.TempDir()

	src := filepath.Join(tmp, "code-reviewer")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "SKILL.md"), []byte("# reviewer\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(tmp, "root", "code-reviewer")
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Symlink(src, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(link, "SKILL.md"))
	if err != nil {
		t.Fatalf("reading through link: %v", err)
	}
	if string(data) != "# reviewer\n" {
		t.Errorf("content through link = %q", data)
	}

	info, err := os.Lstat(link)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Error("destination is not a symlink")
	}
}

func TestSymlinkOccupiedDestination(t *testing.T) {
	if !SymlinkSupported() {
		t.Skip("symlinks not supported on this system")
	}
	tmp := t.TempDir()

	src := filepath.Join(tmp, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(tmp, "occupied")
	if err := os.WriteFile(link, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Single attempt, never clobbering. Callers clear the destination
	// first or fall back to copying on error.
	if err := Symlink(src, link); err == nil {
		t.Fatal("expected error for occupied destination")
	}
	data, err := os.ReadFile(link)
	if err != nil || string(data) != "x" {
		t.Fatalf("existing file disturbed: %q, %v", data, err)
	}
}

func TestSymlinkSupported(t *testing.T) {
	if runtime.GOOS != "windows" && !SymlinkSupported() {
		t.Error("SymlinkSupported() = false on a Unix system")
	}
}
