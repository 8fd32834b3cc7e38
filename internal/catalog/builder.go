// Package catalog discovers bundles across all enabled sources and
// aggregates them into a single catalog document. Building never fails
// outright: when live data cannot be produced the previous cached
// catalog is served, then the embedded snapshot, each flagged stale.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/grimoire-labs/grimoire/internal/bundle"
	"github.com/grimoire-labs/grimoire/internal/credential"
	"github.com/grimoire-labs/grimoire/internal/digest"
	"github.com/grimoire-labs/grimoire/internal/gitsync"
	"github.com/grimoire-labs/grimoire/internal/logging"
	"github.com/grimoire-labs/grimoire/internal/manifest"
	"github.com/grimoire-labs/grimoire/internal/redact"
	"github.com/grimoire-labs/grimoire/internal/source"
)

// syncLimit bounds how many sources sync at once.
const syncLimit = 4

// denylist names directories that are never bundles regardless of what
// they contain.
var denylist = map[string]bool{
	"example":      true,
	"examples":     true,
	"template":     true,
	"templates":    true,
	"node_modules": true,
}

// Syncer mirrors a source locally. *gitsync.Synchronizer implements it.
type Syncer interface {
	Sync(ctx context.Context, src source.Source, token string) (gitsync.Result, error)
	Fresh(sourceID string, maxAge time.Duration) bool
}

// TokenSource resolves per-source access tokens. *credential.Store
// implements it.
type TokenSource interface {
	Get(sourceID string) (string, error)
}

// Config wires a Builder.
type Config struct {
	Kind     bundle.Kind
	Registry *source.Registry
	Sync     Syncer
	// Tokens may be nil; sources then sync unauthenticated.
	Tokens   TokenSource
	CacheDir string
	// MaxAge is the freshness window within which a source is not
	// re-synced. Zero or negative means every build syncs.
	MaxAge time.Duration
	Log    *logging.Logger
}

// Builder assembles catalogs for one bundle kind.
type Builder struct {
	kind     bundle.Kind
	registry *source.Registry
	sync     Syncer
	tokens   TokenSource
	cacheDir string
	maxAge   time.Duration
	log      *logging.Logger
}

func NewBuilder(cfg Config) *Builder {
	return &Builder{
		kind:     cfg.Kind,
		registry: cfg.Registry,
		sync:     cfg.Sync,
		tokens:   cfg.Tokens,
		cacheDir: cfg.CacheDir,
		maxAge:   cfg.MaxAge,
		log:      cfg.Log,
	}
}

// Build syncs every enabled source and scans its extraction for
// bundles. refresh forces a sync even for fresh mirrors. A source that
// fails is recorded on the catalog and in the registry but never stops
// the build; only when no source produces anything does the result
// degrade to cache or snapshot.
func (b *Builder) Build(ctx context.Context, refresh bool) *Catalog {
	sources, err := b.registry.Load()
	if err != nil {
		b.log.Warnf("loading source registry: %v", err)
		return b.degraded(redact.String(fmt.Sprintf("source registry unreadable: %v", err)))
	}

	var enabled []source.Source
	for _, s := range sources {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}

	statuses := make([]*SourceStatus, len(enabled))
	perSource := make([][]Entry, len(enabled))

	var g errgroup.Group
	g.SetLimit(syncLimit)
	for i, src := range enabled {
		i, src := i, src
		g.Go(func() error {
			st := &SourceStatus{ID: src.ID, Name: src.Name, URL: src.RepoURL}
			perSource[i] = b.buildSource(ctx, src, refresh, st)
			statuses[i] = st
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]Entry, 0)
	flat := make([]SourceStatus, 0, len(enabled))
	succeeded := 0
	for i := range enabled {
		flat = append(flat, *statuses[i])
		if statuses[i].Synced {
			succeeded++
		}
		entries = append(entries, perSource[i]...)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CompositeID < entries[j].CompositeID })

	if len(enabled) > 0 && succeeded == 0 {
		return b.degraded(fmt.Sprintf("all %d sources failed to sync", len(enabled)))
	}

	cat := &Catalog{
		GeneratedAt: time.Now().UTC(),
		Source:      b.kind,
		Version:     FormatVersion,
		Sources:     flat,
		Entries:     entries,
		Origin:      OriginLive,
	}
	b.writeCache(cat)
	return cat
}

// buildSource brings one source's mirror up to date when needed and
// scans it. Failures land in st and in the registry's sync status; they
// never propagate.
func (b *Builder) buildSource(ctx context.Context, src source.Source, refresh bool, st *SourceStatus) []Entry {
	extracted := src.LocalExtractedPath
	revision := src.Revision

	fresh := !refresh && extracted != "" && dirExists(extracted) && b.sync.Fresh(src.ID, b.maxAge)
	if !fresh {
		res, err := b.sync.Sync(ctx, src, b.token(src.ID))
		status := source.SyncStatus{
			SyncedAt:           time.Now(),
			Err:                err,
			Revision:           res.Revision,
			LocalRepoPath:      res.LocalRepoPath,
			LocalExtractedPath: res.ExtractedPath,
		}
		if rerr := b.registry.SetSyncStatus(src.ID, status); rerr != nil {
			b.log.Warnf("recording sync status for %s: %v", src.ID, rerr)
		}
		if err != nil {
			b.log.Warnf("syncing %s: %v", src.ID, err)
			st.Error = redact.String(err.Error())
			return nil
		}
		extracted = res.ExtractedPath
		revision = res.Revision
	}

	st.Synced = true
	st.Revision = revision
	return b.scan(src, extracted, st)
}

// token resolves the source's access token. Absence is normal; real
// lookup failures are logged and treated as absence.
func (b *Builder) token(sourceID string) string {
	if b.tokens == nil {
		return ""
	}
	tok, err := b.tokens.Get(sourceID)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			b.log.Warnf("reading credential for %s: %v", sourceID, redact.Error(err))
		}
		return ""
	}
	return tok
}

// scan walks the immediate children of the source's extraction. Each
// directory carrying a manifest becomes an entry; everything else is
// skipped. Per-bundle problems degrade to diagnostics.
func (b *Builder) scan(src source.Source, root string, st *SourceStatus) []Entry {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		st.Synced = false
		st.Error = redact.String(fmt.Sprintf("reading extraction: %v", err))
		return nil
	}

	now := time.Now().UTC()
	seen := map[string]bool{}
	var entries []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if !de.IsDir() || strings.HasPrefix(name, ".") || denylist[name] {
			continue
		}
		dir := filepath.Join(root, name)

		bm, err := manifest.LoadBundle(dir, b.kind)
		if err != nil {
			if !errors.Is(err, manifest.ErrNoManifest) {
				st.Diagnostics = append(st.Diagnostics, fmt.Sprintf("%s: %v", name, err))
			}
			continue
		}
		for _, issue := range bm.Issues {
			st.Diagnostics = append(st.Diagnostics, fmt.Sprintf("%s: %s", name, issue))
		}

		entryName := source.Slugify(bm.Name)
		if entryName == "" {
			entryName = source.Slugify(name)
		}
		if entryName == "" {
			continue
		}
		if seen[entryName] {
			st.Diagnostics = append(st.Diagnostics, fmt.Sprintf("%s: duplicate bundle name %q", name, entryName))
			continue
		}
		seen[entryName] = true

		d, err := digest.Tree(dir)
		if err != nil {
			st.Diagnostics = append(st.Diagnostics, fmt.Sprintf("%s: digesting: %v", name, err))
		}

		entries = append(entries, Entry{
			CompositeID:   src.ID + "/" + entryName,
			SourceID:      src.ID,
			SourceName:    src.Name,
			SourceURL:     src.RepoURL,
			Name:          entryName,
			Description:   bm.Description,
			Category:      bm.Category,
			Resources:     bm.Resources,
			SourcePath:    dir,
			ContentDigest: d.String(),
			Version:       normalizeVersion(bm.Version),
			UpdatedAt:     now,
		})
	}

	return mergeIndex(root, src, entries, st, now)
}

// normalizeVersion canonicalizes semver-ish versions ("v1.2", "1.2.3")
// and passes anything else through verbatim.
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if sv, err := semver.NewVersion(v); err == nil {
		return sv.String()
	}
	return v
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// degraded serves the freshest fallback available.
func (b *Builder) degraded(reason string) *Catalog {
	if cat, age, err := b.loadCache(); err == nil {
		cat.Origin = OriginCache
		cat.Stale = true
		cat.StaleReason = reason
		cat.CacheAgeSeconds = int64(age.Seconds())
		return cat
	} else if !os.IsNotExist(err) {
		b.log.Warnf("loading catalog cache: %v", err)
	}

	cat, err := loadSnapshot(b.kind)
	if err != nil {
		b.log.Warnf("loading embedded catalog snapshot: %v", err)
		cat = &Catalog{Source: b.kind, Version: FormatVersion}
	}
	cat.Origin = OriginSnapshot
	cat.Stale = true
	cat.StaleReason = reason
	return cat
}
