package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// Symlink creates a symbolic link at link pointing to target. It makes a
// single attempt; callers that want a copy fallback handle the error
// themselves. On Windows this requires developer mode or elevation.
func Symlink(target, link string) error {
	return os.Symlink(target, link)
}

// SymlinkSupported reports whether the current platform can create native
// symlinks. On Windows this probes by creating a throwaway link.
func SymlinkSupported() bool {
	if runtime.GOOS != "windows" {
		return true
	}

	tmpDir := os.TempDir()
	link := filepath.Join(tmpDir, ".grimoire-symlink-test")
	defer os.Remove(link)

	return os.Symlink(tmpDir, link) == nil
}
