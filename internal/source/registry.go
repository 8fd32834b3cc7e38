package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grimoire-labs/grimoire/internal/bundle"
	"github.com/grimoire-labs/grimoire/internal/fsutil"
	"github.com/grimoire-labs/grimoire/internal/redact"
)

// Registry persists the sources for one kind. The built-in official
// source is bootstrapped only while no registry document exists yet, so
// explicitly removing it sticks.
type Registry struct {
	path        string
	kind        bundle.Kind
	officialURL string
}

type document struct {
	Sources []Source `json:"sources"`
}

// NewRegistry returns the registry stored at dir/<kind>s.json.
func NewRegistry(dir string, kind bundle.Kind, officialURL string) *Registry {
	return &Registry{
		path:        filepath.Join(dir, kind.Plural()+".json"),
		kind:        kind,
		officialURL: officialURL,
	}
}

// Load returns all persisted sources. A missing document yields the
// built-in official source without touching the filesystem.
func (r *Registry) Load() ([]Source, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			official := r.officialSource()
			official.normalize()
			return []Source{official}, nil
		}
		return nil, fmt.Errorf("reading source registry %s: %w", r.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing source registry %s: %w", r.path, err)
	}
	for i := range doc.Sources {
		doc.Sources[i].normalize()
	}
	return doc.Sources, nil
}

// Get returns the source with the given id.
func (r *Registry) Get(id string) (Source, error) {
	sources, err := r.Load()
	if err != nil {
		return Source{}, err
	}
	id = Slugify(id)
	for _, s := range sources {
		if s.ID == id {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Add registers a new source and rewrites the document. The stored,
// normalized form is returned.
func (r *Registry) Add(s Source) (Source, error) {
	s.normalize()
	if err := s.validate(); err != nil {
		return Source{}, err
	}

	sources, err := r.Load()
	if err != nil {
		return Source{}, err
	}
	for _, existing := range sources {
		if existing.ID == s.ID {
			return Source{}, fmt.Errorf("%w: %s", ErrDuplicate, s.ID)
		}
	}

	sources = append(sources, s)
	if err := r.save(sources); err != nil {
		return Source{}, err
	}
	return s, nil
}

// Update replaces the source with the same id and rewrites the document.
func (r *Registry) Update(s Source) error {
	s.normalize()
	if err := s.validate(); err != nil {
		return err
	}

	sources, err := r.Load()
	if err != nil {
		return err
	}
	for i := range sources {
		if sources[i].ID == s.ID {
			sources[i] = s
			return r.save(sources)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, s.ID)
}

// Remove deletes a source. Sources flagged removable=false are refused.
func (r *Registry) Remove(id string) error {
	id = Slugify(id)
	sources, err := r.Load()
	if err != nil {
		return err
	}
	for i, s := range sources {
		if s.ID != id {
			continue
		}
		if !s.Removable {
			return fmt.Errorf("%w: %s", ErrNotRemovable, id)
		}
		sources = append(sources[:i], sources[i+1:]...)
		return r.save(sources)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// SyncStatus is the per-sync outcome recorded on a source.
type SyncStatus struct {
	SyncedAt           time.Time
	Err                error
	Revision           string
	LocalRepoPath      string
	LocalExtractedPath string
}

// SetSyncStatus records a sync outcome on the source, success or failure.
// Error text is redacted before it is written anywhere.
func (r *Registry) SetSyncStatus(id string, status SyncStatus) error {
	sources, err := r.Load()
	if err != nil {
		return err
	}
	id = Slugify(id)
	for i := range sources {
		if sources[i].ID != id {
			continue
		}
		at := status.SyncedAt
		sources[i].LastSyncAt = &at
		if status.Err != nil {
			sources[i].LastError = redact.String(status.Err.Error())
		} else {
			sources[i].LastError = ""
			sources[i].Revision = status.Revision
			sources[i].LocalRepoPath = status.LocalRepoPath
			sources[i].LocalExtractedPath = status.LocalExtractedPath
		}
		return r.save(sources)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (r *Registry) save(sources []Source) error {
	for i := range sources {
		sources[i].normalize()
	}
	data, err := json.MarshalIndent(document{Sources: sources}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding source registry: %w", err)
	}
	if err := fsutil.EnsureDir(filepath.Dir(r.path), fsutil.DirPermNormal); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(r.path, data, fsutil.FilePermSecure); err != nil {
		return fmt.Errorf("writing source registry: %w", err)
	}
	return nil
}

func (r *Registry) officialSource() Source {
	return Source{
		ID:        OfficialID,
		Name:      "Official",
		RepoURL:   r.officialURL,
		Official:  true,
		Enabled:   true,
		RootPath:  "/" + r.kind.Plural(),
		Removable: true,
	}
}
