// Package target defines the supported agent integrations and where
// bundles land for each of them.
package target

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/grimoire-labs/grimoire/internal/bundle"
)

// Name identifies a supported agent target.
type Name string

const (
	ClaudeCode Name = "claude-code"
	OpenCode   Name = "opencode"
	Cursor     Name = "cursor"
)

// Scope selects between user-global and project-local install roots.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeProject Scope = "project"
)

// ParseScope converts a string to a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeUser:
		return ScopeUser, nil
	case ScopeProject:
		return ScopeProject, nil
	}
	return "", fmt.Errorf("unknown scope %q (expected %q or %q)", s, ScopeUser, ScopeProject)
}

// Target describes one agent's install layout.
type Target struct {
	Name Name

	userDir    func(home string, kind bundle.Kind) string
	projectDir func(project string, kind bundle.Kind) string
}

// Root resolves the install root for a scope. home is the user's home
// directory, project the project path; each is required only by its
// scope.
func (t Target) Root(scope Scope, home, project string, kind bundle.Kind) (string, error) {
	switch scope {
	case ScopeUser:
		if home == "" {
			return "", errors.New("home directory unknown")
		}
		return t.userDir(home, kind), nil
	case ScopeProject:
		if project == "" {
			return "", fmt.Errorf("target %s: project path required for project scope", t.Name)
		}
		return t.projectDir(project, kind), nil
	}
	return "", fmt.Errorf("unknown scope %q", scope)
}

// registry maps each target to its layout. Claude Code and Cursor use
// plural kind directories; OpenCode uses singular ones.
var registry = map[Name]Target{
	ClaudeCode: {
		Name: ClaudeCode,
		userDir: func(home string, kind bundle.Kind) string {
			return filepath.Join(home, ".claude", kind.Plural())
		},
		projectDir: func(project string, kind bundle.Kind) string {
			return filepath.Join(project, ".claude", kind.Plural())
		},
	},
	OpenCode: {
		Name: OpenCode,
		userDir: func(home string, kind bundle.Kind) string {
			return filepath.Join(home, ".config", "opencode", string(kind))
		},
		projectDir: func(project string, kind bundle.Kind) string {
			return filepath.Join(project, ".opencode", string(kind))
		},
	},
	Cursor: {
		Name: Cursor,
		userDir: func(home string, kind bundle.Kind) string {
			return filepath.Join(home, ".cursor", kind.Plural())
		},
		projectDir: func(project string, kind bundle.Kind) string {
			return filepath.Join(project, ".cursor", kind.Plural())
		},
	},
}

// All returns every supported target name in stable order.
func All() []Name {
	return []Name{ClaudeCode, OpenCode, Cursor}
}

// Resolve returns the target for name.
func Resolve(name string) (Target, bool) {
	t, ok := registry[Name(name)]
	return t, ok
}
