package manifest

import "fmt"

// Form records which declaration form a manifest was parsed from.
type Form string

const (
	FormFrontmatter Form = "frontmatter"
	FormStructured  Form = "structured"
)

// ParsedManifest is the typed view over a parsed manifest document.
// Fields are reached through the explicit accessors only; there is no
// dynamic property access.
type ParsedManifest struct {
	fields map[string]any
	form   Form
}

// Form returns the declaration form this manifest was parsed from.
func (m *ParsedManifest) Form() Form { return m.form }

// StringField returns the named field as a string. Absent fields and
// non-scalar values yield "". Scalar non-strings are formatted, so
// `version: 1.2` round-trips as "1.2".
func (m *ParsedManifest) StringField(key string) string {
	v, ok := m.fields[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case bool, int, int64, float64:
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}

// ListField returns the named field as a list of strings. A scalar value
// becomes a one-element list; absent fields yield nil.
func (m *ParsedManifest) ListField(key string) []string {
	v, ok := m.fields[key]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{val}
	default:
		return nil
	}
}

// Manifest is the flattened field set the catalog consumes.
type Manifest struct {
	Name        string
	Description string
	Category    string
	Version     string
	License     string
	Tags        []string
	Resources   []string
}

// Manifest flattens the parsed fields into the catalog-facing view.
func (m *ParsedManifest) Manifest() Manifest {
	return Manifest{
		Name:        m.StringField("name"),
		Description: m.StringField("description"),
		Category:    m.StringField("category"),
		Version:     m.StringField("version"),
		License:     m.StringField("license"),
		Tags:        m.ListField("tags"),
		Resources:   m.ListField("resources"),
	}
}
