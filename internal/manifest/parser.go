package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/grimoire-labs/grimoire/internal/bundle"
)

// ErrNoManifest is returned when a directory carries neither a structured
// manifest nor a marker file with frontmatter.
var ErrNoManifest = errors.New("no manifest found")

// BundleManifest is the outcome of parsing one bundle directory.
type BundleManifest struct {
	Manifest
	Form Form
	// Issues holds schema findings for structured manifests. They
	// degrade the entry, they do not abort anything.
	Issues []ValidationIssue
}

// LoadBundle parses the manifest of the bundle directory dir for the
// given kind. A structured manifest file wins over frontmatter in the
// marker file.
func LoadBundle(dir string, kind bundle.Kind) (*BundleManifest, error) {
	for _, name := range kind.ManifestNames() {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading manifest %s: %w", path, err)
		}
		return parseStructured(data, path)
	}

	markerPath := filepath.Join(dir, kind.Marker())
	data, err := os.ReadFile(markerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNoManifest, dir)
		}
		return nil, fmt.Errorf("reading marker %s: %w", markerPath, err)
	}

	block, ok := ExtractFrontmatter(data)
	if !ok {
		return nil, fmt.Errorf("%w: marker %s has no frontmatter block", ErrNoManifest, markerPath)
	}
	parsed, err := parseFields(block, FormFrontmatter)
	if err != nil {
		return nil, fmt.Errorf("parsing frontmatter in %s: %w", markerPath, err)
	}
	return &BundleManifest{Manifest: parsed.Manifest(), Form: FormFrontmatter}, nil
}

func parseStructured(data []byte, path string) (*BundleManifest, error) {
	parsed, err := parseFields(data, FormStructured)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating manifest %s: %w", path, err)
	}
	return &BundleManifest{
		Manifest: parsed.Manifest(),
		Form:     FormStructured,
		Issues:   result.Issues,
	}, nil
}

// parseFields unmarshals a YAML (or JSON) document into a ParsedManifest.
func parseFields(data []byte, form Form) (*ParsedManifest, error) {
	fields := map[string]any{}
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return &ParsedManifest{fields: fields, form: form}, nil
}

// frontmatter delimiter line.
var fmDelimiter = []byte("---")

// ExtractFrontmatter returns the YAML block delimited by "---" lines at
// the very top of a marker file. The second return is false when no
// complete block exists.
func ExtractFrontmatter(data []byte) ([]byte, bool) {
	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimRight(lines[0], "\r\n"), fmDelimiter) {
		return nil, false
	}
	var block bytes.Buffer
	for _, line := range lines[1:] {
		if bytes.Equal(bytes.TrimRight(line, "\r\n"), fmDelimiter) {
			return block.Bytes(), true
		}
		block.Write(line)
	}
	return nil, false
}
