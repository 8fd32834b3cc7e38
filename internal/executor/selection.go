package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grimoire-labs/grimoire/internal/catalog"
	"github.com/grimoire-labs/grimoire/internal/source"
)

// Selection is one requested bundle: source-qualified
// ("acme/reviewer") or bare ("reviewer"). Bare selections are
// canonicalized into composite ids before planning; nothing downstream
// sees the ambiguous form.
type Selection struct {
	SourceID string
	Name     string
}

// Qualified reports whether the selection pins a source.
func (s Selection) Qualified() bool { return s.SourceID != "" }

func (s Selection) String() string {
	if s.SourceID == "" {
		return s.Name
	}
	return s.SourceID + "/" + s.Name
}

// ParseSelection parses one selection argument.
func ParseSelection(raw string) (Selection, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Selection{}, fmt.Errorf("empty selection")
	}
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		if strings.Contains(trimmed[i+1:], "/") {
			return Selection{}, fmt.Errorf("malformed selection %q (expected <source>/<name>)", raw)
		}
		src := source.Slugify(trimmed[:i])
		name := source.Slugify(trimmed[i+1:])
		if src == "" || name == "" {
			return Selection{}, fmt.Errorf("malformed selection %q (expected <source>/<name>)", raw)
		}
		return Selection{SourceID: src, Name: name}, nil
	}
	name := source.Slugify(trimmed)
	if name == "" {
		return Selection{}, fmt.Errorf("malformed selection %q", raw)
	}
	return Selection{Name: name}, nil
}

// ParseSelections parses a list of selection arguments.
func ParseSelections(raw []string) ([]Selection, error) {
	out := make([]Selection, 0, len(raw))
	for _, r := range raw {
		sel, err := ParseSelection(r)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

// resolve canonicalizes selections into composite ids against the
// catalog. Qualified selections pass through unchecked; unknown ids
// degrade to per-entity skips later. A bare name must match exactly one
// entry, except that the official source wins when it carries the only
// official match.
func resolve(cat *catalog.Catalog, sels []Selection) ([]string, error) {
	ids := make([]string, 0, len(sels))
	for _, sel := range sels {
		if sel.Qualified() {
			ids = append(ids, sel.String())
			continue
		}

		matches := cat.ByName(sel.Name)
		switch len(matches) {
		case 1:
			ids = append(ids, matches[0].CompositeID)
		case 0:
			return nil, fmt.Errorf("no bundle named %q in any enabled source", sel.Name)
		default:
			var official []catalog.Entry
			for _, m := range matches {
				if m.SourceID == source.OfficialID {
					official = append(official, m)
				}
			}
			if len(official) == 1 {
				ids = append(ids, official[0].CompositeID)
				continue
			}
			candidates := make([]string, 0, len(matches))
			for _, m := range matches {
				candidates = append(candidates, m.CompositeID)
			}
			sort.Strings(candidates)
			return nil, fmt.Errorf("bundle name %q is ambiguous, use <source>/<name> (candidates: %s)",
				sel.Name, strings.Join(candidates, ", "))
		}
	}
	return ids, nil
}
