// Package state persists what is installed in one install root: one
// JSON document per root, listing the managed entities plus a bounded
// history of install and uninstall events. Files placed by hand next to
// managed ones are invisible here; only recorded installs are managed.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/grimoire-labs/grimoire/internal/fsutil"
	"github.com/grimoire-labs/grimoire/internal/logging"
)

const (
	// FileName is the state document kept inside each install root.
	FileName = ".grimoire-state.json"

	// SchemaVersion is the document schema this build reads and writes.
	SchemaVersion = 1

	// historyLimit bounds the event ring.
	historyLimit = 100
)

// Mode says how a bundle is materialized on disk.
type Mode string

const (
	ModeSymlink Mode = "symlink"
	ModeCopy    Mode = "copy"
)

// History actions.
const (
	ActionInstall   = "install"
	ActionUninstall = "uninstall"
)

// Entity is one managed bundle in an install root.
type Entity struct {
	Name        string `json:"name"`
	CompositeID string `json:"compositeId"`
	SourceID    string `json:"sourceId"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	// SourceRevision is the source commit the bundle came from.
	SourceRevision string `json:"sourceRevision,omitempty"`
	// SourceContentDigest is the digest the installed bytes were
	// verified against.
	SourceContentDigest string `json:"sourceContentDigest,omitempty"`
	// Orphaned marks an entity whose catalog binding no longer
	// resolves. It stays managed so uninstall still works.
	Orphaned bool `json:"orphaned"`
	// InstallMode is what was requested; EffectiveMode what actually
	// happened (copy when a symlink attempt fell back).
	InstallMode     Mode   `json:"installMode"`
	EffectiveMode   Mode   `json:"effectiveMode"`
	DestinationPath string `json:"destinationPath"`
	SourcePath      string `json:"sourcePath,omitempty"`
}

// Event is one history entry.
type Event struct {
	At          time.Time `json:"at"`
	Action      string    `json:"action"`
	CompositeID string    `json:"compositeId"`
	Detail      string    `json:"detail,omitempty"`
}

// Document is the persisted state of one install root.
type Document struct {
	SchemaVersion    int      `json:"schemaVersion"`
	InstallerVersion string   `json:"installerVersion,omitempty"`
	Target           string   `json:"target"`
	Scope            string   `json:"scope"`
	ProjectPath      string   `json:"projectPath,omitempty"`
	ManagedEntities  []Entity `json:"managedEntities"`
	// ManagedBaselinePaths records files the installer materialized on
	// first use of the root, like the .gitignore. Bundles are not listed
	// here.
	ManagedBaselinePaths []string  `json:"managedBaselinePaths,omitempty"`
	History              []Event   `json:"history,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Get returns the entity with the given composite id.
func (d *Document) Get(compositeID string) (Entity, bool) {
	for _, e := range d.ManagedEntities {
		if e.CompositeID == compositeID {
			return e, true
		}
	}
	return Entity{}, false
}

// Upsert replaces or adds the entity with the same composite id.
func (d *Document) Upsert(e Entity) {
	for i := range d.ManagedEntities {
		if d.ManagedEntities[i].CompositeID == e.CompositeID {
			d.ManagedEntities[i] = e
			return
		}
	}
	d.ManagedEntities = append(d.ManagedEntities, e)
}

// Remove deletes the entity with the given composite id and reports
// whether it was present.
func (d *Document) Remove(compositeID string) bool {
	for i := range d.ManagedEntities {
		if d.ManagedEntities[i].CompositeID == compositeID {
			d.ManagedEntities = append(d.ManagedEntities[:i], d.ManagedEntities[i+1:]...)
			return true
		}
	}
	return false
}

// AddBaseline records a materialized baseline file once.
func (d *Document) AddBaseline(path string) {
	for _, p := range d.ManagedBaselinePaths {
		if p == path {
			return
		}
	}
	d.ManagedBaselinePaths = append(d.ManagedBaselinePaths, path)
}

// Record appends a history event, trimming the ring to its bound.
func (d *Document) Record(action, compositeID, detail string) {
	d.History = append(d.History, Event{
		At:          time.Now().UTC(),
		Action:      action,
		CompositeID: compositeID,
		Detail:      detail,
	})
	if len(d.History) > historyLimit {
		d.History = d.History[len(d.History)-historyLimit:]
	}
}

// Ref identifies a catalog entry during reconciliation.
type Ref struct {
	CompositeID string
	SourceID    string
	SourceURL   string
	Name        string
}

// Reconcile lines managed entities up with the current catalog. An
// entity whose composite id disappeared is re-pointed when its bare
// name still resolves to exactly one catalog entry; otherwise it stays
// managed and is flagged orphaned. Orphans whose identity reappears
// are un-flagged.
func (d *Document) Reconcile(refs []Ref) bool {
	byID := make(map[string]Ref, len(refs))
	byName := make(map[string][]Ref, len(refs))
	for _, r := range refs {
		byID[r.CompositeID] = r
		byName[r.Name] = append(byName[r.Name], r)
	}

	changed := false
	for i := range d.ManagedEntities {
		e := &d.ManagedEntities[i]
		if _, ok := byID[e.CompositeID]; ok {
			if e.Orphaned {
				e.Orphaned = false
				changed = true
			}
			continue
		}
		if candidates := byName[e.Name]; len(candidates) == 1 {
			e.CompositeID = candidates[0].CompositeID
			e.SourceID = candidates[0].SourceID
			e.SourceURL = candidates[0].SourceURL
			e.Orphaned = false
			changed = true
			continue
		}
		if !e.Orphaned {
			e.Orphaned = true
			changed = true
		}
	}
	return changed
}

// Store reads and writes the state document of one install root.
type Store struct {
	root    string
	version string
	log     *logging.Logger
}

// NewStore returns the store for root. installerVersion is recorded on
// every save and checked for skew on load.
func NewStore(root, installerVersion string, log *logging.Logger) *Store {
	return &Store{root: root, version: installerVersion, log: log}
}

func (s *Store) Path() string {
	return filepath.Join(s.root, FileName)
}

// Load returns the root's document, or a fresh empty one when none
// exists yet.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{SchemaVersion: SchemaVersion, ManagedEntities: []Entity{}}, nil
		}
		return nil, fmt.Errorf("reading install state %s: %w", s.Path(), err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing install state %s: %w", s.Path(), err)
	}
	if doc.SchemaVersion > SchemaVersion {
		s.log.Warnf("install state %s uses schema %d, newer than supported %d", s.Path(), doc.SchemaVersion, SchemaVersion)
	}
	s.warnVersionSkew(doc.InstallerVersion)
	if doc.ManagedEntities == nil {
		doc.ManagedEntities = []Entity{}
	}
	return &doc, nil
}

// Save rewrites the document atomically with fresh timestamps.
func (s *Store) Save(doc *Document) error {
	doc.SchemaVersion = SchemaVersion
	doc.InstallerVersion = s.version
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.ManagedEntities == nil {
		doc.ManagedEntities = []Entity{}
	}
	if len(doc.History) > historyLimit {
		doc.History = doc.History[len(doc.History)-historyLimit:]
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding install state: %w", err)
	}
	if err := fsutil.EnsureDir(s.root, fsutil.DirPermNormal); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(s.Path(), data, 0o644); err != nil {
		return fmt.Errorf("writing install state: %w", err)
	}
	return nil
}

// Delete removes the state document. Absence is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing install state: %w", err)
	}
	return nil
}

// warnVersionSkew flags documents written by a newer major installer.
func (s *Store) warnVersionSkew(docVersion string) {
	if docVersion == "" || s.version == "" {
		return
	}
	dv, err := semver.NewVersion(docVersion)
	if err != nil {
		return
	}
	cv, err := semver.NewVersion(s.version)
	if err != nil {
		return
	}
	if dv.Major() > cv.Major() {
		s.log.Warnf("install state in %s was written by version %s, current is %s", s.root, docVersion, s.version)
	}
}
