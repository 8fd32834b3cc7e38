// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package and rebuild; Go's //go:embed
// bakes the values into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName           string `yaml:"cli_name"`
	DisplayName       string `yaml:"display_name"`
	Description       string `yaml:"description"`
	HomeDir           string `yaml:"home_dir"`
	EnvPrefix         string `yaml:"env_prefix"`
	OfficialSourceURL string `yaml:"official_source_url"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:           "grimoire",
			DisplayName:       "Grimoire",
			Description:       "Package manager for AI coding-agent skills and hooks",
			HomeDir:           ".grimoire",
			EnvPrefix:         "GRIMOIRE",
			OfficialSourceURL: "https://github.com/grimoire-labs/spellbook.git",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "grimoire").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "Grimoire").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".grimoire").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "GRIMOIRE").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// OfficialSourceURL returns the git URL of the built-in official source.
func OfficialSourceURL() string { load(); return defaults.OfficialSourceURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "GRIMOIRE_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
