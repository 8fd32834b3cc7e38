// Package digest computes the content digest of a bundle directory.
//
// The digest is a SHA-256 over a canonical traversal: entries sorted by
// relative path, .git pruned, symlinks hashed by their link target string
// (never dereferenced), regular files hashed by path, kind, declared size
// and raw bytes. Byte-identical trees therefore hash identically no matter
// how they were produced or walked.
package digest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	godigest "github.com/opencontainers/go-digest"
)

// ErrMismatch reports that a tree's computed digest differs from the
// declared one.
var ErrMismatch = errors.New("content digest mismatch")

type entry struct {
	rel  string
	kind byte // 'f' file, 'l' symlink, 'd' directory
}

// Tree returns the canonical digest of the directory rooted at root, in
// the literal form "sha256:<64-lowercase-hex>".
func Tree(root string) (godigest.Digest, error) {
	var entries []entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			entries = append(entries, entry{rel: filepath.ToSlash(rel), kind: 'l'})
		case d.IsDir():
			entries = append(entries, entry{rel: filepath.ToSlash(rel), kind: 'd'})
		case d.Type().IsRegular():
			entries = append(entries, entry{rel: filepath.ToSlash(rel), kind: 'f'})
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })

	digester := godigest.Canonical.Digester()
	h := digester.Hash()
	for _, e := range entries {
		abs := filepath.Join(root, filepath.FromSlash(e.rel))
		switch e.kind {
		case 'd':
			writeHeader(h, e.rel, e.kind, 0)
		case 'l':
			target, err := os.Readlink(abs)
			if err != nil {
				return "", fmt.Errorf("reading link %s: %w", e.rel, err)
			}
			writeHeader(h, e.rel, e.kind, int64(len(target)))
			io.WriteString(h, target)
		case 'f':
			info, err := os.Lstat(abs)
			if err != nil {
				return "", fmt.Errorf("stat %s: %w", e.rel, err)
			}
			writeHeader(h, e.rel, e.kind, info.Size())
			f, err := os.Open(abs)
			if err != nil {
				return "", fmt.Errorf("opening %s: %w", e.rel, err)
			}
			_, err = io.Copy(h, f)
			f.Close()
			if err != nil {
				return "", fmt.Errorf("hashing %s: %w", e.rel, err)
			}
		}
		io.WriteString(h, "\x00")
	}
	return digester.Digest(), nil
}

// NUL-delimited header keeps path/kind/size boundaries unambiguous; paths
// cannot contain NUL on any supported filesystem.
func writeHeader(w io.Writer, rel string, kind byte, size int64) {
	io.WriteString(w, rel)
	w.Write([]byte{0, kind, 0})
	io.WriteString(w, strconv.FormatInt(size, 10))
	w.Write([]byte{0})
}

// Verify recomputes the digest of root and compares it against want.
// A malformed want value or any difference yields an error wrapping
// ErrMismatch where applicable.
func Verify(root, want string) error {
	if err := godigest.Digest(want).Validate(); err != nil {
		return fmt.Errorf("declared digest %q: %w", want, err)
	}
	got, err := Tree(root)
	if err != nil {
		return err
	}
	if got.String() != want {
		return fmt.Errorf("%w: computed %s, declared %s", ErrMismatch, got, want)
	}
	return nil
}
