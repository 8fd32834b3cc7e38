// Package manifest parses and validates bundle manifests. A bundle
// declares itself either through YAML frontmatter at the top of its
// marker file (SKILL.md, HOOK.md) or through a structured manifest file;
// when both exist the structured manifest wins. Structured manifests are
// additionally validated against an embedded JSON schema.
package manifest
