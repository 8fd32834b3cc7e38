package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/grimoire-labs/grimoire/internal/source"
)

// indexFileName is the optional curated metadata file at the root of a
// source's bundle tree.
const indexFileName = "index.json"

// indexDoc maps bundle name to curated metadata.
type indexDoc struct {
	Entries map[string]indexEntry `json:"entries"`
}

type indexEntry struct {
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Version     string   `json:"version,omitempty"`
	Resources   []string `json:"resources,omitempty"`
}

// mergeIndex overlays the source's index.json onto the discovered
// entries. Curated fields win over manifest fields. Names present only
// in the index are synthesized as entries without a local bundle, so a
// source can announce bundles it does not ship in this tree.
func mergeIndex(root string, src source.Source, entries []Entry, st *SourceStatus, now time.Time) []Entry {
	data, err := os.ReadFile(filepath.Join(root, indexFileName))
	if err != nil {
		if !os.IsNotExist(err) {
			st.Diagnostics = append(st.Diagnostics, fmt.Sprintf("%s: %v", indexFileName, err))
		}
		return entries
	}
	var doc indexDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		st.Diagnostics = append(st.Diagnostics, fmt.Sprintf("%s: %v", indexFileName, err))
		return entries
	}

	// Index keys are matched by slug so "Code Review" curates the
	// discovered bundle "code-review". Sorted iteration keeps collisions
	// deterministic.
	rawNames := make([]string, 0, len(doc.Entries))
	for name := range doc.Entries {
		rawNames = append(rawNames, name)
	}
	sort.Strings(rawNames)
	curated := make(map[string]indexEntry, len(doc.Entries))
	slugs := make([]string, 0, len(doc.Entries))
	for _, name := range rawNames {
		slug := source.Slugify(name)
		if slug == "" {
			continue
		}
		if _, ok := curated[slug]; !ok {
			slugs = append(slugs, slug)
		}
		curated[slug] = doc.Entries[name]
	}

	present := map[string]bool{}
	for i := range entries {
		present[entries[i].Name] = true
		ie, ok := curated[entries[i].Name]
		if !ok {
			continue
		}
		if ie.Description != "" {
			entries[i].Description = ie.Description
		}
		if ie.Category != "" {
			entries[i].Category = ie.Category
		}
		if ie.Version != "" {
			entries[i].Version = normalizeVersion(ie.Version)
		}
		if len(ie.Resources) > 0 {
			entries[i].Resources = ie.Resources
		}
	}

	for _, slug := range slugs {
		if present[slug] {
			continue
		}
		present[slug] = true
		ie := curated[slug]
		entries = append(entries, Entry{
			CompositeID: src.ID + "/" + slug,
			SourceID:    src.ID,
			SourceName:  src.Name,
			SourceURL:   src.RepoURL,
			Name:        slug,
			Description: ie.Description,
			Category:    ie.Category,
			Resources:   ie.Resources,
			Version:     normalizeVersion(ie.Version),
			UpdatedAt:   now,
		})
	}
	return entries
}
