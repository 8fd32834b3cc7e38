package credential

import (
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/grimoire-labs/grimoire/internal/branding"
)

// keychain stores secrets in the platform keychain (macOS Keychain,
// Windows Credential Manager, Secret Service on Linux). Any backend
// failure, including an absent dbus session, just pushes callers to the
// next provider.
type keychain struct {
	service string
}

func newKeychain() *keychain {
	return &keychain{service: branding.CLIName()}
}

func (k *keychain) Store(sourceID, secret string) error {
	return keyring.Set(k.service, sourceID, secret)
}

func (k *keychain) Get(sourceID string) (string, error) {
	secret, err := keyring.Get(k.service, sourceID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return secret, nil
}

func (k *keychain) Delete(sourceID string) error {
	if err := keyring.Delete(k.service, sourceID); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
