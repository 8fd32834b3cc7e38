package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/grimoire-labs/grimoire/internal/branding"
)

// Paths resolves the directory roots the engine persists into. The zero
// value is not useful; construct with DefaultPaths, or fill the fields
// directly in tests.
type Paths struct {
	// Home holds user intent: config, the source registries, credentials.
	Home string
	// Data holds reproducible machine state: git mirrors and extractions.
	Data string
	// Cache holds disposable state: the last successfully built catalogs.
	Cache string
}

// DefaultPaths resolves the standard locations: ~/.grimoire for home and
// XDG base directories for data and cache, each overridable through
// GRIMOIRE_HOME, GRIMOIRE_DATA_DIR and GRIMOIRE_CACHE_DIR.
func DefaultPaths() Paths {
	name := branding.CLIName()
	p := Paths{
		Home:  Dir(),
		Data:  filepath.Join(xdg.DataHome, name),
		Cache: filepath.Join(xdg.CacheHome, name),
	}
	if v := os.Getenv(branding.EnvVar("DATA_DIR")); v != "" {
		p.Data = v
	}
	if v := os.Getenv(branding.EnvVar("CACHE_DIR")); v != "" {
		p.Cache = v
	}
	return p
}

// SourcesDir returns the directory holding the per-kind source registry
// documents.
func (p Paths) SourcesDir() string { return filepath.Join(p.Home, "sources") }

// CredentialsDir returns the directory holding the encrypted vault.
func (p Paths) CredentialsDir() string { return filepath.Join(p.Home, "credentials") }

// MirrorsDir returns the directory holding per-source git mirrors and
// extracted subtrees.
func (p Paths) MirrorsDir() string { return filepath.Join(p.Data, "mirrors") }

// CatalogCacheDir returns the directory holding cached catalog documents.
func (p Paths) CatalogCacheDir() string { return filepath.Join(p.Cache, "catalog") }
