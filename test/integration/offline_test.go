//go:build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grimoire-labs/grimoire/internal/catalog"
	"github.com/grimoire-labs/grimoire/internal/executor"
	"github.com/grimoire-labs/grimoire/internal/state"
	"github.com/grimoire-labs/grimoire/internal/target"
)

// TestOfflineServesCachedCatalogAndInstalls verifies the degradation
// chain end to end: once the upstream disappears, builds fall back to
// the cached catalog and installs keep working from the local mirror.
func TestOfflineServesCachedCatalogAndInstalls(t *testing.T) {
	official := makeUpstream(t, "code-review")
	env := setupTestEnv(t, official)

	cat := env.Builder.Build(context.Background(), false)
	if cat.Origin != catalog.OriginLive || len(cat.Entries) != 1 {
		t.Fatalf("first build: origin=%s entries=%d", cat.Origin, len(cat.Entries))
	}

	// Upstream goes away; a forced refresh cannot reach it anymore.
	if err := os.RemoveAll(official); err != nil {
		t.Fatal(err)
	}
	cat = env.Builder.Build(context.Background(), true)
	if cat.Origin != catalog.OriginCache || !cat.Stale {
		t.Fatalf("offline build: origin=%s stale=%t reason=%q", cat.Origin, cat.Stale, cat.StaleReason)
	}
	if len(cat.Entries) != 1 {
		t.Fatalf("cached entries = %d", len(cat.Entries))
	}
	if cat.CacheAgeSeconds < 0 {
		t.Fatalf("cache age = %d", cat.CacheAgeSeconds)
	}

	// The sync failure is recorded on the source, never with secrets.
	srcs, err := env.Registry.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(srcs) != 1 || srcs[0].LastError == "" {
		t.Fatalf("sync failure not recorded: %+v", srcs)
	}

	// The mirror extraction survives and is still inside the freshness
	// window, so installing keeps working without the upstream.
	rep := env.run(t, executor.Request{
		Operation: executor.OpInstall,
		Targets:   []target.Name{target.ClaudeCode},
		Mode:      state.ModeCopy,
		Selection: []executor.Selection{{SourceID: "official", Name: "code-review"}},
	})
	if len(rep.Applied) != 1 {
		t.Fatalf("applied = %v", rep.Applied)
	}
	assertDirExists(t, filepath.Join(env.claudeRoot(), "code-review"))
}
