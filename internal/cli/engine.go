package cli

import (
	"fmt"
	"os"

	"github.com/grimoire-labs/grimoire/internal/bundle"
	"github.com/grimoire-labs/grimoire/internal/catalog"
	"github.com/grimoire-labs/grimoire/internal/config"
	"github.com/grimoire-labs/grimoire/internal/credential"
	"github.com/grimoire-labs/grimoire/internal/executor"
	"github.com/grimoire-labs/grimoire/internal/gitsync"
	"github.com/grimoire-labs/grimoire/internal/logging"
	"github.com/grimoire-labs/grimoire/internal/source"
	"github.com/grimoire-labs/grimoire/internal/target"
)

// engine holds the wired collaborators for one bundle kind. Commands
// construct it per invocation; nothing here carries business logic.
type engine struct {
	kind     bundle.Kind
	settings config.Settings
	paths    config.Paths
	log      *logging.Logger
	registry *source.Registry
	creds    *credential.Store
	builder  *catalog.Builder
	exec     *executor.Executor
	home     string
}

func newEngine(kindName string) (*engine, error) {
	kind, err := bundle.ParseKind(kindName)
	if err != nil {
		return nil, err
	}

	settings := config.Load()
	paths := config.DefaultPaths()
	log := logging.New(settings.LogLevel, os.Stderr)

	registry := source.NewRegistry(paths.SourcesDir(), kind, settings.OfficialSourceURL)
	creds := credential.NewStore(paths.CredentialsDir())
	syncer := gitsync.New(paths.MirrorsDir(), kind, settings.GitTimeout, log)

	builder := catalog.NewBuilder(catalog.Config{
		Kind:     kind,
		Registry: registry,
		Sync:     syncer,
		Tokens:   creds,
		CacheDir: paths.CatalogCacheDir(),
		MaxAge:   settings.SyncMaxAge,
		Log:      log,
	})

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}

	exec := executor.New(executor.Config{
		Kind:    kind,
		Catalog: builder,
		Home:    home,
		Version: buildVersion,
		Log:     log,
	})

	return &engine{
		kind:     kind,
		settings: settings,
		paths:    paths,
		log:      log,
		registry: registry,
		creds:    creds,
		builder:  builder,
		exec:     exec,
		home:     home,
	}, nil
}

// resolveScope parses the scope flag and fills the project path with the
// working directory when project scope is requested without one.
func resolveScope(scopeName, project string) (target.Scope, string, error) {
	scope, err := target.ParseScope(scopeName)
	if err != nil {
		return "", "", err
	}
	if scope != target.ScopeProject {
		return scope, "", nil
	}
	if project == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("resolving working directory: %w", err)
		}
		project = wd
	}
	return scope, project, nil
}
