// Package fsutil holds the filesystem primitives shared by the sync,
// catalog and install layers: mirrored tree copies, idempotent
// materialization, atomic writes and install-root containment.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grimoire-labs/grimoire/internal/platform"
)

// Permission constants.
const (
	DirPermSecure  os.FileMode = 0o700
	FilePermSecure os.FileMode = 0o600
	DirPermNormal  os.FileMode = 0o755
)

// mirrorExcluded lists entry names never mirrored. The set must stay
// aligned with the digest's exclusions or copy-mode re-verification of an
// installed bundle would fail.
var mirrorExcluded = map[string]bool{
	".git": true,
}

// Mirror makes dst an exact copy of the tree at src, removing any previous
// dst first. Symlinks are recreated with their original targets, never
// dereferenced.
func Mirror(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("removing existing %s: %w", dst, err)
		}
	}
	if err := copyTree(src, dst); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return nil
}

// copyTree recursively copies src to dst, excluding entries in
// mirrorExcluded.
func copyTree(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if mirrorExcluded[entry.Name()] {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return err
			}
		case entry.IsDir():
			if err := copyTree(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
		// Other special files (sockets, devices) are skipped.
	}
	return nil
}

// CopyFile copies a single regular file from src to dst, preserving
// permissions.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, srcInfo.Mode().Perm())
}

// EnsureDir creates a directory if it does not exist. Existing directories
// are left untouched, including their permissions.
func EnsureDir(path string, perm os.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	// MkdirAll may not apply exact perms if parent dirs needed creation.
	if err := platform.Chmod(path, perm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	return nil
}

// EnsureFile creates a file with content if it does not exist. It reports
// whether the file was created by this call.
func EnsureFile(path, content string, perm os.FileMode) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return false, fmt.Errorf("creating file %s: %w", path, err)
	}
	return true, nil
}

// WriteFileAtomic writes data to path via a same-directory temp file and
// rename, so readers never observe a partial document.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(perm); err != nil && !isWindowsChmodErr(err) {
		tmp.Close()
		return fmt.Errorf("setting permissions on %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func isWindowsChmodErr(err error) bool {
	return os.IsPermission(err) && os.PathSeparator == '\\'
}

// WithinRoot reports whether path lies inside root (or is root itself),
// judged lexically on absolute cleaned paths.
func WithinRoot(root, path string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
