package catalog

import (
	"time"

	"github.com/grimoire-labs/grimoire/internal/bundle"
)

// Origin says where a returned catalog came from. Anything but live means
// the caller is looking at stale data, flagged but usable.
type Origin string

const (
	OriginLive     Origin = "live"
	OriginCache    Origin = "cache"
	OriginSnapshot Origin = "snapshot"
)

// FormatVersion is the catalog document format version.
const FormatVersion = "1"

// Entry is one discoverable bundle.
type Entry struct {
	// CompositeID is "<sourceId>/<name>", unique per build.
	CompositeID string   `json:"compositeId"`
	SourceID    string   `json:"sourceId"`
	SourceName  string   `json:"sourceName"`
	SourceURL   string   `json:"sourceUrl"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Resources   []string `json:"resources,omitempty"`
	// SourcePath is the bundle directory inside the source's extraction.
	// Empty for entries synthesized from a repo index alone.
	SourcePath    string    `json:"sourcePath,omitempty"`
	ContentDigest string    `json:"contentDigest,omitempty"`
	Version       string    `json:"version,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SourceStatus is the per-source outcome recorded in a catalog build.
type SourceStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Synced   bool   `json:"synced"`
	Revision string `json:"revision,omitempty"`
	// Error is the redacted failure that kept this source out of the
	// build, if any.
	Error       string   `json:"error,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Catalog is a point-in-time aggregation of all bundles discoverable
// across the enabled sources of one kind.
type Catalog struct {
	GeneratedAt     time.Time      `json:"generatedAt"`
	Source          bundle.Kind    `json:"source"`
	Version         string         `json:"version"`
	Sources         []SourceStatus `json:"sources"`
	Entries         []Entry        `json:"entries"`
	Origin          Origin         `json:"catalogSource"`
	Stale           bool           `json:"stale"`
	StaleReason     string         `json:"staleReason,omitempty"`
	CacheAgeSeconds int64          `json:"cacheAgeSeconds,omitempty"`
}

// Lookup returns the entry with the given composite id.
func (c *Catalog) Lookup(compositeID string) (Entry, bool) {
	for _, e := range c.Entries {
		if e.CompositeID == compositeID {
			return e, true
		}
	}
	return Entry{}, false
}

// ByName returns all entries whose bare name matches.
func (c *Catalog) ByName(name string) []Entry {
	var out []Entry
	for _, e := range c.Entries {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
