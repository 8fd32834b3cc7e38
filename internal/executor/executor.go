// Package executor applies install, uninstall and sync requests to
// agent targets. Each run plans against the current catalog and the
// target's recorded install state, materializes bundles with integrity
// verification, and rewrites the state document. One failing target
// never aborts the others.
package executor

import (
	"context"
	"fmt"

	"github.com/grimoire-labs/grimoire/internal/bundle"
	"github.com/grimoire-labs/grimoire/internal/catalog"
	"github.com/grimoire-labs/grimoire/internal/logging"
	"github.com/grimoire-labs/grimoire/internal/state"
	"github.com/grimoire-labs/grimoire/internal/target"
)

// CatalogProvider yields the catalog a run plans against.
// *catalog.Builder implements it.
type CatalogProvider interface {
	Build(ctx context.Context, refresh bool) *catalog.Catalog
}

// Config wires an Executor.
type Config struct {
	Kind    bundle.Kind
	Catalog CatalogProvider
	// Home is the user's home directory; user-scope install roots
	// resolve below it.
	Home string
	// Version is the installer version stamped into state documents.
	Version string
	Log     *logging.Logger
}

// Executor runs requests for one bundle kind.
type Executor struct {
	kind    bundle.Kind
	catalog CatalogProvider
	home    string
	version string
	log     *logging.Logger
}

func New(cfg Config) *Executor {
	return &Executor{
		kind:    cfg.Kind,
		catalog: cfg.Catalog,
		home:    cfg.Home,
		version: cfg.Version,
		log:     cfg.Log,
	}
}

// Execute runs one request across its targets in request order.
// Contract violations (unknown operation or mode, missing targets,
// unresolvable bare names) fail synchronously before any target is
// touched; everything else is captured in the per-target reports.
func (e *Executor) Execute(ctx context.Context, req Request) ([]Report, error) {
	switch req.Operation {
	case OpInstall, OpUninstall, OpSync:
	default:
		return nil, fmt.Errorf("unknown operation %q", req.Operation)
	}
	if len(req.Targets) == 0 {
		return nil, fmt.Errorf("no targets given")
	}
	if req.Scope == "" {
		req.Scope = target.ScopeUser
	}
	if req.Scope == target.ScopeProject && req.ProjectPath == "" {
		return nil, fmt.Errorf("project scope requires a project path")
	}
	switch req.Mode {
	case "":
		req.Mode = state.ModeSymlink
	case state.ModeSymlink, state.ModeCopy:
	default:
		return nil, fmt.Errorf("unknown install mode %q", req.Mode)
	}

	var cat *catalog.Catalog
	var desired []string
	if req.Operation != OpUninstall {
		cat = e.catalog.Build(ctx, req.Refresh)
		if cat.Stale {
			e.log.Warnf("catalog is stale (%s): %s", cat.Origin, cat.StaleReason)
		}
		ids, err := resolve(cat, req.Selection)
		if err != nil {
			return nil, err
		}
		desired = ids
	}

	reports := make([]Report, 0, len(req.Targets))
	for _, name := range req.Targets {
		rep := newReport(name)

		tgt, ok := target.Resolve(string(name))
		if !ok {
			rep.errorf("unknown target %q", name)
			reports = append(reports, rep)
			continue
		}
		root, err := tgt.Root(req.Scope, e.home, req.ProjectPath, e.kind)
		if err != nil {
			rep.errorf("%v", err)
			reports = append(reports, rep)
			continue
		}
		rep.Root = root

		if req.Operation == OpUninstall {
			e.uninstall(root, req, &rep)
		} else {
			e.apply(root, req, cat, desired, &rep)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// refs projects catalog entries into reconciliation references.
func refs(cat *catalog.Catalog) []state.Ref {
	out := make([]state.Ref, 0, len(cat.Entries))
	for _, e := range cat.Entries {
		out = append(out, state.Ref{
			CompositeID: e.CompositeID,
			SourceID:    e.SourceID,
			SourceURL:   e.SourceURL,
			Name:        e.Name,
		})
	}
	return out
}
