package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/grimoire-labs/grimoire/internal/fsutil"
)

const (
	keyFile  = "vault.key"
	blobFile = "vault.bin"
	keySize  = 32 // AES-256
)

// FileVault keeps all sources' secrets in one AES-256-GCM encrypted blob.
// The key is random, generated once and persisted beside the blob with
// owner-only permissions. Each write uses a fresh random nonce, prefixed
// to the ciphertext; reads validate the authentication tag and reject
// tampered blobs.
type FileVault struct {
	dir string
	mu  sync.Mutex
}

// NewFileVault returns a vault rooted at dir. Nothing is created until
// the first write.
func NewFileVault(dir string) *FileVault {
	return &FileVault{dir: dir}
}

func (v *FileVault) Store(sourceID, secret string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.readAll()
	if err != nil {
		return err
	}
	secrets[sourceID] = secret
	return v.writeAll(secrets)
}

func (v *FileVault) Get(sourceID string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.readAll()
	if err != nil {
		return "", err
	}
	secret, ok := secrets[sourceID]
	if !ok {
		return "", ErrNotFound
	}
	return secret, nil
}

func (v *FileVault) Delete(sourceID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.readAll()
	if err != nil {
		return err
	}
	if _, ok := secrets[sourceID]; !ok {
		return ErrNotFound
	}
	delete(secrets, sourceID)
	return v.writeAll(secrets)
}

// key returns the vault key, generating and persisting it on first use.
func (v *FileVault) key() ([]byte, error) {
	path := filepath.Join(v.dir, keyFile)
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != keySize {
			return nil, fmt.Errorf("vault key %s is corrupted (%d bytes)", path, len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading vault key: %w", err)
	}

	key = make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating vault key: %w", err)
	}
	if err := fsutil.EnsureDir(v.dir, fsutil.DirPermSecure); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, fsutil.FilePermSecure); err != nil {
		return nil, fmt.Errorf("persisting vault key: %w", err)
	}
	return key, nil
}

func (v *FileVault) aead() (cipher.AEAD, error) {
	key, err := v.key()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("initializing GCM: %w", err)
	}
	return gcm, nil
}

func (v *FileVault) readAll() (map[string]string, error) {
	blob, err := os.ReadFile(filepath.Join(v.dir, blobFile))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading vault: %w", err)
	}

	gcm, err := v.aead()
	if err != nil {
		return nil, err
	}
	if len(blob) < gcm.NonceSize() {
		return nil, fmt.Errorf("vault blob too short (%d bytes)", len(blob))
	}
	nonce, ciphertext := blob[:gcm.NonceSize()], blob[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting vault: %w", err)
	}

	secrets := map[string]string{}
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("parsing vault contents: %w", err)
	}
	return secrets, nil
}

func (v *FileVault) writeAll(secrets map[string]string) error {
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("encoding vault contents: %w", err)
	}

	gcm, err := v.aead()
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}
	blob := gcm.Seal(nonce, nonce, plaintext, nil)

	if err := fsutil.EnsureDir(v.dir, fsutil.DirPermSecure); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(v.dir, blobFile), blob, fsutil.FilePermSecure); err != nil {
		return fmt.Errorf("writing vault: %w", err)
	}
	return nil
}
