package target

import (
	"path/filepath"
	"testing"

	"github.com/grimoire-labs/grimoire/internal/bundle"
)

func TestResolve(t *testing.T) {
	for _, name := range All() {
		tgt, ok := Resolve(string(name))
		if !ok {
			t.Fatalf("known target %s did not resolve", name)
		}
		if tgt.Name != name {
			t.Errorf("resolved %s, got %s", name, tgt.Name)
		}
	}
	if _, ok := Resolve("emacs"); ok {
		t.Error("unknown target resolved")
	}
}

func TestRootLayouts(t *testing.T) {
	home := "/home/dev"
	project := "/work/repo"

	cases := []struct {
		target Name
		scope  Scope
		kind   bundle.Kind
		want   string
	}{
		{ClaudeCode, ScopeUser, bundle.Skill, filepath.Join(home, ".claude", "skills")},
		{ClaudeCode, ScopeUser, bundle.Hook, filepath.Join(home, ".claude", "hooks")},
		{ClaudeCode, ScopeProject, bundle.Skill, filepath.Join(project, ".claude", "skills")},
		{OpenCode, ScopeUser, bundle.Skill, filepath.Join(home, ".config", "opencode", "skill")},
		{OpenCode, ScopeProject, bundle.Hook, filepath.Join(project, ".opencode", "hook")},
		{Cursor, ScopeUser, bundle.Skill, filepath.Join(home, ".cursor", "skills")},
		{Cursor, ScopeProject, bundle.Hook, filepath.Join(project, ".cursor", "hooks")},
	}
	for _, tc := range cases {
		tgt, _ := Resolve(string(tc.target))
		got, err := tgt.Root(tc.scope, home, project, tc.kind)
		if err != nil {
			t.Fatalf("%s/%s/%s: %v", tc.target, tc.scope, tc.kind, err)
		}
		if got != tc.want {
			t.Errorf("%s/%s/%s = %q, want %q", tc.target, tc.scope, tc.kind, got, tc.want)
		}
	}
}

func TestRootRequiresScopeInput(t *testing.T) {
	tgt, _ := Resolve(string(ClaudeCode))

	if _, err := tgt.Root(ScopeUser, "", "/work/repo", bundle.Skill); err == nil {
		t.Error("user scope accepted empty home")
	}
	if _, err := tgt.Root(ScopeProject, "/home/dev", "", bundle.Skill); err == nil {
		t.Error("project scope accepted empty project path")
	}
	if _, err := tgt.Root(Scope("global"), "/home/dev", "/work/repo", bundle.Skill); err == nil {
		t.Error("unknown scope accepted")
	}
}

func TestParseScope(t *testing.T) {
	if s, err := ParseScope("user"); err != nil || s != ScopeUser {
		t.Errorf("ParseScope(user) = %v, %v", s, err)
	}
	if s, err := ParseScope("project"); err != nil || s != ScopeProject {
		t.Errorf("ParseScope(project) = %v, %v", s, err)
	}
	if _, err := ParseScope("system"); err == nil {
		t.Error("ParseScope accepted unknown scope")
	}
}
