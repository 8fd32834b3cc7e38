package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/grimoire-labs/grimoire/internal/bundle"
)

func writeBundleFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadBundleFrontmatter(t *testing.T) {
	dir := t.TempDir()
	writeBundleFile(t, dir, "SKILL.md", `---
name: code-reviewer
description: Reviews pull requests
category: engineering
version: "1.2"
tags:
  - review
  - quality
---
# Code Reviewer

Body instructions here.
`)

	m, err := LoadBundle(dir, bundle.Skill)
	if err != nil {
		t.Fatal(err)
	}
	if m.Form != FormFrontmatter {
		t.Fatalf("form = %q, want frontmatter", m.Form)
	}
	if m.Name != "code-reviewer" || m.Description != "Reviews pull requests" {
		t.Fatalf("unexpected manifest: %+v", m.Manifest)
	}
	if m.Version != "1.2" {
		t.Fatalf("version = %q", m.Version)
	}
	if len(m.Tags) != 2 || m.Tags[0] != "review" {
		t.Fatalf("tags = %v", m.Tags)
	}
}

func TestLoadBundleStructuredWinsOverFrontmatter(t *testing.T) {
	dir := t.TempDir()
	writeBundleFile(t, dir, "SKILL.md", `---
name: frontmatter-name
---
body
`)
	writeBundleFile(t, dir, "skill.yaml", `name: structured-name
description: From the structured manifest
`)

	m, err := LoadBundle(dir, bundle.Skill)
	if err != nil {
		t.Fatal(err)
	}
	if m.Form != FormStructured {
		t.Fatalf("form = %q, want structured", m.Form)
	}
	if m.Name != "structured-name" {
		t.Fatalf("structured manifest did not win: %q", m.Name)
	}
}

func TestLoadBundleStructuredJSON(t *testing.T) {
	dir := t.TempDir()
	writeBundleFile(t, dir, "manifest.json", `{"name": "json-bundle", "description": "declared in JSON"}`)

	m, err := LoadBundle(dir, bundle.Skill)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "json-bundle" || m.Form != FormStructured {
		t.Fatalf("unexpected: %+v", m)
	}
}

func TestLoadBundleHookMarker(t *testing.T) {
	dir := t.TempDir()
	writeBundleFile(t, dir, "HOOK.md", `---
name: pre-commit-guard
description: Runs before each commit
---
`)

	m, err := LoadBundle(dir, bundle.Hook)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "pre-commit-guard" {
		t.Fatalf("name = %q", m.Name)
	}
}

func TestLoadBundleMissingManifest(t *testing.T) {
	dir := t.TempDir()
	writeBundleFile(t, dir, "README.md", "just docs")

	_, err := LoadBundle(dir, bundle.Skill)
	if !errors.Is(err, ErrNoManifest) {
		t.Fatalf("expected ErrNoManifest, got %v", err)
	}
}

func TestLoadBundleMarkerWithoutFrontmatter(t *testing.T) {
	dir := t.TempDir()
	writeBundleFile(t, dir, "SKILL.md", "# No frontmatter here\n")

	_, err := LoadBundle(dir, bundle.Skill)
	if !errors.Is(err, ErrNoManifest) {
		t.Fatalf("expected ErrNoManifest, got %v", err)
	}
}

func TestLoadBundleSchemaIssuesDoNotAbort(t *testing.T) {
	dir := t.TempDir()
	// Name violates the slug pattern; parsing must still succeed.
	writeBundleFile(t, dir, "skill.yaml", `name: "Not A Slug"
description: bad name
`)

	m, err := LoadBundle(dir, bundle.Skill)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Issues) == 0 {
		t.Fatal("expected schema issues for non-slug name")
	}
	if m.Name != "Not A Slug" {
		t.Fatalf("fields should still parse: %q", m.Name)
	}
}

func TestExtractFrontmatter(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		block string
		ok    bool
	}{
		{"normal", "---\nname: x\n---\nbody", "name: x\n", true},
		{"crlf", "---\r\nname: x\r\n---\r\nbody", "name: x\r\n", true},
		{"unterminated", "---\nname: x\n", "", false},
		{"no block", "# heading\n", "", false},
		{"empty file", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, ok := ExtractFrontmatter([]byte(tt.in))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && string(block) != tt.block {
				t.Fatalf("block = %q, want %q", block, tt.block)
			}
		})
	}
}

func TestParsedManifestAccessors(t *testing.T) {
	parsed, err := parseFields([]byte(`name: tool
version: 2.5
count: 7
tags: [a, b]
single: solo
nested:
  k: v
`), FormFrontmatter)
	if err != nil {
		t.Fatal(err)
	}

	if got := parsed.StringField("name"); got != "tool" {
		t.Errorf("StringField(name) = %q", got)
	}
	if got := parsed.StringField("version"); got != "2.5" {
		t.Errorf("scalar number not formatted: %q", got)
	}
	if got := parsed.StringField("missing"); got != "" {
		t.Errorf("absent field = %q, want empty", got)
	}
	if got := parsed.StringField("nested"); got != "" {
		t.Errorf("non-scalar field = %q, want empty", got)
	}
	if got := parsed.ListField("tags"); len(got) != 2 || got[1] != "b" {
		t.Errorf("ListField(tags) = %v", got)
	}
	if got := parsed.ListField("single"); len(got) != 1 || got[0] != "solo" {
		t.Errorf("scalar list promotion = %v", got)
	}
	if got := parsed.ListField("missing"); got != nil {
		t.Errorf("absent list = %v, want nil", got)
	}
}
