package digest

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func sampleTree(t *testing.T, root string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "SKILL.md"), "---\nname: reviewer\n---\nbody\n")
	writeFile(t, filepath.Join(root, "resources", "prompt.txt"), "be thorough\n")
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")
	if err := os.Symlink("resources/prompt.txt", filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
}

func TestTreeDeterministic(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()

	// Populate b in a different creation order than a.
	sampleTree(t, a)
	writeFile(t, filepath.Join(b, "a.txt"), "alpha")
	writeFile(t, filepath.Join(b, "resources", "prompt.txt"), "be thorough\n")
	writeFile(t, filepath.Join(b, "SKILL.md"), "---\nname: reviewer\n---\nbody\n")
	if err := os.Symlink("resources/prompt.txt", filepath.Join(b, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	da, err := Tree(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := Tree(b)
	if err != nil {
		t.Fatal(err)
	}
	if da != db {
		t.Fatalf("identical trees hashed differently: %s vs %s", da, db)
	}
}

func TestTreeLiteralFormat(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "f"), "x")
	d, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := regexp.MatchString(`^sha256:[0-9a-f]{64}$`, d.String()); !ok {
		t.Fatalf("digest literal %q not in sha256:<64-lowercase-hex> form", d)
	}
}

func TestTreeSensitivity(t *testing.T) {
	root := t.TempDir()
	sampleTree(t, root)
	before, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}

	// Single byte flip.
	writeFile(t, filepath.Join(root, "a.txt"), "alphb")
	after, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Fatal("single-byte mutation did not change the digest")
	}
}

func TestTreeSymlinkHashedByTarget(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "doc.md"), "content")
	if err := os.Symlink("doc.md", filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	before, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}

	// Retarget the link without touching the old target's bytes.
	writeFile(t, filepath.Join(root, "other.md"), "content")
	if err := os.Remove(filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("other.md", filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}
	retargeted, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}
	if before == retargeted {
		t.Fatal("changing a link target did not change the digest")
	}
}

func TestTreeIgnoresGitDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "f.txt"), "data")
	before, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main")
	after, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Fatal(".git contents leaked into the digest")
	}
}

func TestVerify(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "f.txt"), "data")
	d, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}

	if err := Verify(root, d.String()); err != nil {
		t.Fatalf("verify against own digest failed: %v", err)
	}

	writeFile(t, filepath.Join(root, "f.txt"), "tampered")
	err = Verify(root, d.String())
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}

	if err := Verify(root, "sha256:nothex"); err == nil {
		t.Fatal("malformed declared digest accepted")
	}
}
