package executor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grimoire-labs/grimoire/internal/catalog"
	"github.com/grimoire-labs/grimoire/internal/digest"
	"github.com/grimoire-labs/grimoire/internal/fsutil"
	"github.com/grimoire-labs/grimoire/internal/planner"
	"github.com/grimoire-labs/grimoire/internal/platform"
	"github.com/grimoire-labs/grimoire/internal/state"
	"github.com/grimoire-labs/grimoire/internal/target"
)

// symlink is a variable so tests can force the copy-fallback path.
var symlink = platform.Symlink

// apply runs the install/sync pipeline for one target root: baseline,
// reconcile, plan, removals before installs, then persist.
func (e *Executor) apply(root string, req Request, cat *catalog.Catalog, desired []string, rep *Report) {
	store := state.NewStore(root, e.version, e.log)
	doc, err := store.Load()
	if err != nil {
		rep.errorf("%v", err)
		return
	}
	doc.Target = string(rep.Target)
	doc.Scope = string(req.Scope)
	if req.Scope == target.ScopeProject {
		doc.ProjectPath = req.ProjectPath
	}

	if err := e.materializeBaseline(root, doc); err != nil {
		rep.errorf("%v", err)
		return
	}

	doc.Reconcile(refs(cat))

	managed := make([]string, 0, len(doc.ManagedEntities))
	for _, ent := range doc.ManagedEntities {
		managed = append(managed, ent.CompositeID)
	}
	removeUnselected := req.RemoveUnselected || req.Operation == OpSync
	plan := planner.Compute(desired, managed, removeUnselected)

	for _, id := range plan.Remove {
		ent, ok := doc.Get(id)
		if !ok {
			continue
		}
		if err := removeWithin(root, ent.DestinationPath); err != nil {
			rep.errorf("%s: %v", id, err)
			continue
		}
		doc.Remove(id)
		doc.Record(state.ActionUninstall, id, "unselected")
		rep.Removed = append(rep.Removed, id)
	}

	rep.Skipped = append(rep.Skipped, plan.Keep...)

	revisions := make(map[string]string, len(cat.Sources))
	for _, s := range cat.Sources {
		revisions[s.ID] = s.Revision
	}
	// Bundles land at root/<name>, so one bare name can only be owned
	// by one source per root.
	names := make(map[string]string, len(doc.ManagedEntities))
	for _, ent := range doc.ManagedEntities {
		names[ent.Name] = ent.CompositeID
	}

	for _, id := range plan.Install {
		entry, ok := cat.Lookup(id)
		if !ok {
			rep.Skipped = append(rep.Skipped, id)
			rep.warnf("%s: not in catalog, skipped", id)
			continue
		}
		if entry.SourcePath == "" {
			rep.Skipped = append(rep.Skipped, id)
			rep.warnf("%s: catalog entry has no local bundle, skipped", id)
			continue
		}
		if owner, taken := names[entry.Name]; taken && owner != id {
			rep.Skipped = append(rep.Skipped, id)
			rep.warnf("%s: name %q already installed from %s, skipped", id, entry.Name, owner)
			continue
		}

		ent, warnings, err := e.install(root, entry, req.Mode, revisions[entry.SourceID])
		for _, w := range warnings {
			rep.warnf("%s", w)
		}
		if err != nil {
			rep.errorf("%s: %v", id, err)
			continue
		}
		names[ent.Name] = id
		doc.Upsert(ent)
		doc.Record(state.ActionInstall, id, string(ent.EffectiveMode))
		rep.Applied = append(rep.Applied, id)
	}

	if err := store.Save(doc); err != nil {
		rep.errorf("%v", err)
	}
}

// install places one bundle into the root. The source tree is verified
// before anything is written; copy installs are verified again after
// copying, and a failed re-verification removes the copy.
func (e *Executor) install(root string, entry catalog.Entry, mode state.Mode, revision string) (state.Entity, []string, error) {
	var warnings []string

	dest := filepath.Join(root, entry.Name)
	if !fsutil.WithinRoot(root, dest) {
		return state.Entity{}, nil, fmt.Errorf("destination %s escapes install root", dest)
	}

	declared := entry.ContentDigest
	if declared == "" {
		d, err := digest.Tree(entry.SourcePath)
		if err != nil {
			return state.Entity{}, nil, fmt.Errorf("computing digest: %w", err)
		}
		declared = d.String()
		warnings = append(warnings, fmt.Sprintf("%s: source declares no digest, trusting locally computed %s", entry.CompositeID, declared))
	} else if err := digest.Verify(entry.SourcePath, declared); err != nil {
		return state.Entity{}, nil, fmt.Errorf("source bundle: %w", err)
	}

	if err := removeWithin(root, dest); err != nil {
		return state.Entity{}, warnings, err
	}

	effective := mode
	if mode == state.ModeSymlink {
		if err := symlink(entry.SourcePath, dest); err != nil {
			warnings = append(warnings, fmt.Sprintf("SYMLINK_FALLBACK %s: %v", entry.CompositeID, err))
			effective = state.ModeCopy
		}
	}
	if effective == state.ModeCopy {
		if err := fsutil.Mirror(entry.SourcePath, dest); err != nil {
			return state.Entity{}, warnings, fmt.Errorf("copying bundle: %w", err)
		}
		if err := digest.Verify(dest, declared); err != nil {
			_ = os.RemoveAll(dest)
			return state.Entity{}, warnings, fmt.Errorf("installed copy: %w", err)
		}
	}

	return state.Entity{
		Name:                entry.Name,
		CompositeID:         entry.CompositeID,
		SourceID:            entry.SourceID,
		SourceURL:           entry.SourceURL,
		SourceRevision:      revision,
		SourceContentDigest: declared,
		InstallMode:         mode,
		EffectiveMode:       effective,
		DestinationPath:     dest,
		SourcePath:          entry.SourcePath,
	}, warnings, nil
}

// materializeBaseline makes the install root usable before anything
// else: the directory itself plus a .gitignore keeping the
// machine-local state document out of version control. Existing files
// are never touched.
func (e *Executor) materializeBaseline(root string, doc *state.Document) error {
	if err := fsutil.EnsureDir(root, fsutil.DirPermNormal); err != nil {
		return err
	}
	ignorePath := filepath.Join(root, ".gitignore")
	created, err := fsutil.EnsureFile(ignorePath, state.FileName+"\n", 0o644)
	if err != nil {
		return err
	}
	if created {
		doc.AddBaseline(ignorePath)
	}
	return nil
}

// uninstall removes managed bundles from one root. force deletes the
// entire root; otherwise only recorded paths go, each re-validated for
// containment first. The state document disappears with the last
// entity.
func (e *Executor) uninstall(root string, req Request, rep *Report) {
	store := state.NewStore(root, e.version, e.log)

	if req.Force {
		if doc, err := store.Load(); err == nil {
			for _, ent := range doc.ManagedEntities {
				rep.Removed = append(rep.Removed, ent.CompositeID)
			}
		}
		if err := os.RemoveAll(root); err != nil {
			rep.errorf("deleting install root: %v", err)
		}
		return
	}

	doc, err := store.Load()
	if err != nil {
		rep.errorf("%v", err)
		return
	}

	var victims []state.Entity
	if len(req.Selection) == 0 {
		victims = append(victims, doc.ManagedEntities...)
	} else {
		for _, sel := range req.Selection {
			ent, ok := findEntity(doc, sel)
			if !ok {
				rep.Skipped = append(rep.Skipped, sel.String())
				rep.warnf("%s: not managed here, skipped", sel)
				continue
			}
			victims = append(victims, ent)
		}
	}

	for _, ent := range victims {
		if err := removeWithin(root, ent.DestinationPath); err != nil {
			rep.errorf("%s: %v", ent.CompositeID, err)
			continue
		}
		doc.Remove(ent.CompositeID)
		doc.Record(state.ActionUninstall, ent.CompositeID, "")
		rep.Removed = append(rep.Removed, ent.CompositeID)
	}

	if len(doc.ManagedEntities) == 0 {
		if err := store.Delete(); err != nil {
			rep.errorf("%v", err)
		}
		return
	}
	if err := store.Save(doc); err != nil {
		rep.errorf("%v", err)
	}
}

// findEntity resolves a selection against recorded state: qualified by
// composite id, bare by name.
func findEntity(doc *state.Document, sel Selection) (state.Entity, bool) {
	if sel.Qualified() {
		return doc.Get(sel.String())
	}
	for _, ent := range doc.ManagedEntities {
		if ent.Name == sel.Name {
			return ent, true
		}
	}
	return state.Entity{}, false
}

// removeWithin deletes path only when it sits inside root. A symlink at
// path is removed as a link; its target is never followed.
func removeWithin(root, path string) error {
	if path == "" || !fsutil.WithinRoot(root, path) {
		return fmt.Errorf("refusing to delete %q: outside install root %s", path, root)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}
