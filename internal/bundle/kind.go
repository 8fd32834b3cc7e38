// Package bundle defines the entity kinds grimoire manages and the
// filesystem conventions that identify a bundle directory.
package bundle

import "fmt"

// Kind is the class of entity a source publishes and a target consumes.
type Kind string

const (
	// Skill is a reusable capability bundle (instructions plus resources).
	Skill Kind = "skill"
	// Hook is a lifecycle hook bundle executed by the agent harness.
	Hook Kind = "hook"
)

// Kinds lists all supported kinds in stable order.
func Kinds() []Kind { return []Kind{Skill, Hook} }

// ParseKind converts a user-supplied string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Skill, Hook:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown kind %q (expected %q or %q)", s, Skill, Hook)
}

// Marker returns the marker file name whose presence makes an immediate
// child directory a bundle of this kind (e.g., SKILL.md).
func (k Kind) Marker() string {
	if k == Hook {
		return "HOOK.md"
	}
	return "SKILL.md"
}

// ManifestNames returns the structured manifest file names for this kind,
// in precedence order. A structured manifest always wins over frontmatter
// parsed from the marker file.
func (k Kind) ManifestNames() []string {
	return []string{string(k) + ".yaml", "manifest.yaml", "manifest.json"}
}

// Plural returns the kind's directory-friendly plural (e.g., "skills").
func (k Kind) Plural() string { return string(k) + "s" }

func (k Kind) String() string { return string(k) }
