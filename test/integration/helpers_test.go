//go:build integration

package integration_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grimoire-labs/grimoire/internal/bundle"
	"github.com/grimoire-labs/grimoire/internal/catalog"
	"github.com/grimoire-labs/grimoire/internal/executor"
	"github.com/grimoire-labs/grimoire/internal/gitsync"
	"github.com/grimoire-labs/grimoire/internal/logging"
	"github.com/grimoire-labs/grimoire/internal/source"
	"github.com/grimoire-labs/grimoire/internal/state"
)

const installerVersion = "1.0.0"

// testEnv wires the real engine components against isolated temp
// directories. Only the git binary is external.
type testEnv struct {
	Home     string // fake user home; install roots resolve below it
	Registry *source.Registry
	Builder  *catalog.Builder
	Exec     *executor.Executor
}

// setupTestEnv builds a full engine for skills whose official source is
// the given local git repository.
func setupTestEnv(t *testing.T, officialUpstream string) *testEnv {
	t.Helper()
	requireGit(t)

	home := t.TempDir()
	log := logging.Discard()

	registry := source.NewRegistry(filepath.Join(home, ".grimoire", "sources"), bundle.Skill, officialUpstream)
	syncer := gitsync.New(t.TempDir(), bundle.Skill, time.Minute, log)

	builder := catalog.NewBuilder(catalog.Config{
		Kind:     bundle.Skill,
		Registry: registry,
		Sync:     syncer,
		CacheDir: t.TempDir(),
		MaxAge:   time.Hour,
		Log:      log,
	})

	exec := executor.New(executor.Config{
		Kind:    bundle.Skill,
		Catalog: builder,
		Home:    home,
		Version: installerVersion,
		Log:     log,
	})

	return &testEnv{Home: home, Registry: registry, Builder: builder, Exec: exec}
}

// claudeRoot is the user-scope skill directory for the claude-code target.
func (e *testEnv) claudeRoot() string {
	return filepath.Join(e.Home, ".claude", "skills")
}

func (e *testEnv) loadState(t *testing.T) *state.Document {
	t.Helper()
	doc, err := state.NewStore(e.claudeRoot(), installerVersion, logging.Discard()).Load()
	if err != nil {
		t.Fatalf("loading state: %v", err)
	}
	return doc
}

// run executes a request against the claude-code target and fails the
// test on any per-target error.
func (e *testEnv) run(t *testing.T, req executor.Request) executor.Report {
	t.Helper()
	rep := e.runAllowingErrors(t, req)
	if rep.Failed() {
		t.Fatalf("target failed: %v", rep.Errors)
	}
	return rep
}

func (e *testEnv) runAllowingErrors(t *testing.T, req executor.Request) executor.Report {
	t.Helper()
	reports, err := e.Exec.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	return reports[0]
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

// makeUpstream builds a git repository publishing the named bundles
// under /skills.
func makeUpstream(t *testing.T, bundles ...string) string {
	t.Helper()
	dir := t.TempDir()
	gitCmd(t, dir, "init", "-b", "main")
	for _, name := range bundles {
		writeBundle(t, dir, name)
	}
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-m", "publish bundles")
	return dir
}

func writeBundle(t *testing.T, upstream, name string) {
	t.Helper()
	dir := filepath.Join(upstream, "skills", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "---\nname: " + name + "\ndescription: " + name + " for integration tests\nversion: 1.0.0\n---\n\nInstructions for " + name + ".\n"
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// commitBundle adds one more bundle to an existing upstream.
func commitBundle(t *testing.T, upstream, name string) {
	t.Helper()
	writeBundle(t, upstream, name)
	gitCmd(t, upstream, "add", ".")
	gitCmd(t, upstream, "commit", "-m", "add "+name)
}

func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected directory %s: %v", path, err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", path)
	}
}

func assertGone(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be gone (err=%v)", path, err)
	}
}
