package credential

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeProvider is an in-memory Provider that can be forced to fail.
type fakeProvider struct {
	secrets map[string]string
	broken  bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{secrets: map[string]string{}}
}

func (f *fakeProvider) Store(id, secret string) error {
	if f.broken {
		return errors.New("backend unavailable")
	}
	f.secrets[id] = secret
	return nil
}

func (f *fakeProvider) Get(id string) (string, error) {
	if f.broken {
		return "", errors.New("backend unavailable")
	}
	s, ok := f.secrets[id]
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

func (f *fakeProvider) Delete(id string) error {
	if f.broken {
		return errors.New("backend unavailable")
	}
	if _, ok := f.secrets[id]; !ok {
		return ErrNotFound
	}
	delete(f.secrets, id)
	return nil
}

func TestCompositeFallsBackOnStoreFailure(t *testing.T) {
	primary := newFakeProvider()
	primary.broken = true
	secondary := newFakeProvider()
	store := NewStoreWith(primary, secondary)

	if err := store.Store("acme", "tok"); err != nil {
		t.Fatalf("store should fall back: %v", err)
	}
	if secondary.secrets["acme"] != "tok" {
		t.Fatal("secret not stored in fallback provider")
	}

	got, err := store.Get("acme")
	if err != nil || got != "tok" {
		t.Fatalf("get after fallback store: %q, %v", got, err)
	}
}

func TestCompositeGetFirstHitWins(t *testing.T) {
	primary := newFakeProvider()
	secondary := newFakeProvider()
	primary.secrets["acme"] = "from-primary"
	secondary.secrets["acme"] = "from-secondary"
	store := NewStoreWith(primary, secondary)

	got, err := store.Get("acme")
	if err != nil {
		t.Fatal(err)
	}
	if got != "from-primary" {
		t.Fatalf("got %q, want the first provider's value", got)
	}
}

func TestCompositeDeleteRemovesEverywhere(t *testing.T) {
	primary := newFakeProvider()
	secondary := newFakeProvider()
	primary.secrets["acme"] = "a"
	secondary.secrets["acme"] = "b"
	store := NewStoreWith(primary, secondary)

	if err := store.Delete("acme"); err != nil {
		t.Fatal(err)
	}
	if _, ok := primary.secrets["acme"]; ok {
		t.Fatal("secret survived in primary")
	}
	if _, ok := secondary.secrets["acme"]; ok {
		t.Fatal("secret survived in secondary")
	}

	// Deleting an absent secret is not an error.
	if err := store.Delete("acme"); err != nil {
		t.Fatalf("delete of absent secret: %v", err)
	}
}

func TestCompositeGetNotFound(t *testing.T) {
	store := NewStoreWith(newFakeProvider(), newFakeProvider())
	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileVaultRoundTrip(t *testing.T) {
	dir := t.TempDir()
	vault := NewFileVault(filepath.Join(dir, "credentials"))

	if err := vault.Store("acme", "s3cret"); err != nil {
		t.Fatal(err)
	}
	if err := vault.Store("other", "token2"); err != nil {
		t.Fatal(err)
	}

	got, err := vault.Get("acme")
	if err != nil || got != "s3cret" {
		t.Fatalf("get: %q, %v", got, err)
	}

	// A fresh vault over the same directory reuses the persisted key.
	reopened := NewFileVault(filepath.Join(dir, "credentials"))
	got, err = reopened.Get("other")
	if err != nil || got != "token2" {
		t.Fatalf("get after reopen: %q, %v", got, err)
	}
}

func TestFileVaultBlobIsOpaque(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "credentials")
	vault := NewFileVault(dir)

	if err := vault.Store("acme", "hunter2-very-secret"); err != nil {
		t.Fatal(err)
	}

	blob, err := os.ReadFile(filepath.Join(dir, "vault.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(blob, []byte("hunter2-very-secret")) {
		t.Fatal("plaintext secret visible in the vault blob")
	}
}

func TestFileVaultRejectsTampering(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "credentials")
	vault := NewFileVault(dir)

	if err := vault.Store("acme", "tok"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "vault.bin")
	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	blob[len(blob)-1] ^= 0xFF
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := vault.Get("acme"); err == nil {
		t.Fatal("tampered vault was accepted")
	}
}

func TestFileVaultDelete(t *testing.T) {
	vault := NewFileVault(filepath.Join(t.TempDir(), "credentials"))

	if err := vault.Store("acme", "tok"); err != nil {
		t.Fatal(err)
	}
	if err := vault.Delete("acme"); err != nil {
		t.Fatal(err)
	}
	if _, err := vault.Get("acme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := vault.Delete("acme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}
