// Package credential stores per-source access tokens. A composite of an
// opportunistic platform-keychain provider and a mandatory encrypted-file
// vault: secrets survive on machines without a keychain, and callers never
// learn which backend served a request.
package credential

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no secret is stored for a source.
var ErrNotFound = errors.New("credential not found")

// Provider is a single credential backend.
type Provider interface {
	Store(sourceID, secret string) error
	Get(sourceID string) (string, error)
	Delete(sourceID string) error
}

// Store fans out to its providers in order.
type Store struct {
	providers []Provider
}

// NewStore returns the standard composite: platform keychain first, then
// the encrypted file vault rooted at dir.
func NewStore(dir string) *Store {
	return &Store{providers: []Provider{
		newKeychain(),
		NewFileVault(dir),
	}}
}

// NewStoreWith builds a composite from explicit providers, in priority
// order.
func NewStoreWith(providers ...Provider) *Store {
	return &Store{providers: providers}
}

// Store saves a secret in the first provider that accepts it.
func (s *Store) Store(sourceID, secret string) error {
	var errs []error
	for _, p := range s.providers {
		if err := p.Store(sourceID, secret); err == nil {
			return nil
		} else {
			errs = append(errs, err)
		}
	}
	return fmt.Errorf("storing credential for %s: %w", sourceID, errors.Join(errs...))
}

// Get returns the secret for sourceID from the first provider holding it.
func (s *Store) Get(sourceID string) (string, error) {
	var errs []error
	for _, p := range s.providers {
		secret, err := p.Get(sourceID)
		if err == nil {
			return secret, nil
		}
		if !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return "", fmt.Errorf("reading credential for %s: %w", sourceID, errors.Join(errs...))
	}
	return "", ErrNotFound
}

// Delete removes the secret from every provider so no stale copy remains.
// Absence in a provider is not an error.
func (s *Store) Delete(sourceID string) error {
	var errs []error
	for _, p := range s.providers {
		if err := p.Delete(sourceID); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("deleting credential for %s: %w", sourceID, errors.Join(errs...))
	}
	return nil
}
