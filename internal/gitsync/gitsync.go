// Package gitsync mirrors bundle sources from their git remotes into
// stable local extraction paths. It shells out to the external git client;
// there is no native protocol implementation.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grimoire-labs/grimoire/internal/bundle"
	"github.com/grimoire-labs/grimoire/internal/fsutil"
	"github.com/grimoire-labs/grimoire/internal/logging"
	"github.com/grimoire-labs/grimoire/internal/redact"
	"github.com/grimoire-labs/grimoire/internal/source"
)

const (
	repoDirName    = "repo"
	extractDirName = "extracted"

	// syncedMarker records the last successful sync as a Unix timestamp.
	// It lives beside the repo directory, not inside it, so git never
	// sees it.
	syncedMarker = ".synced-at"

	// tmpSuffix is appended to the repo dir during the atomic first clone.
	tmpSuffix = ".tmp"

	// wildcardRefspec survives upstream default-branch renames.
	wildcardRefspec = "+refs/heads/*:refs/remotes/origin/*"
)

// Result is a successful sync outcome.
type Result struct {
	LocalRepoPath string
	ExtractedPath string
	Revision      string
}

// Synchronizer keeps one mirrored clone plus extracted subtree per source.
// Calls for the same source serialize on a per-id mutex; different sources
// proceed concurrently.
type Synchronizer struct {
	root string
	kind bundle.Kind
	git  *gitRunner
	log  *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a Synchronizer mirroring under root (one subdirectory per
// kind and source id). timeout bounds each git invocation.
func New(root string, kind bundle.Kind, timeout time.Duration, log *logging.Logger) *Synchronizer {
	return &Synchronizer{
		root:  root,
		kind:  kind,
		git:   &gitRunner{timeout: timeout},
		log:   log,
		locks: map[string]*sync.Mutex{},
	}
}

// Sync brings the local mirror of src up to date with its remote and
// mirrors the configured subtree into the extraction path. The token is
// used in-memory for transport only; the persisted remote URL stays
// credential-free. All returned errors are redacted.
func (s *Synchronizer) Sync(ctx context.Context, src source.Source, token string) (Result, error) {
	lock := s.lockFor(src.ID)
	lock.Lock()
	defer lock.Unlock()

	res, err := s.sync(ctx, src, token)
	if err != nil {
		return Result{}, redact.Error(err)
	}
	return res, nil
}

func (s *Synchronizer) sync(ctx context.Context, src source.Source, token string) (Result, error) {
	if err := ensureGit(); err != nil {
		return Result{}, err
	}

	base := s.sourceDir(src.ID)
	repoDir := filepath.Join(base, repoDirName)
	extractDir := filepath.Join(base, extractDirName)

	authURL, authenticated := transportURL(src, token)
	if authenticated {
		// Whatever happens below, credentials must not survive in the
		// local git config.
		defer s.resetOrigin(repoDir, src.RepoURL)
	}

	cloned := false
	if _, err := os.Stat(filepath.Join(repoDir, ".git")); os.IsNotExist(err) {
		if err := s.clone(ctx, authURL, repoDir); err != nil {
			return Result{}, err
		}
		cloned = true
	}

	if !cloned {
		if _, err := s.git.runRetry(ctx, repoDir, "remote", "set-url", "origin", authURL); err != nil {
			return Result{}, err
		}
		if _, err := s.git.runRetry(ctx, repoDir, "config", "--replace-all", "remote.origin.fetch", wildcardRefspec); err != nil {
			return Result{}, err
		}
		if _, err := s.git.run(ctx, repoDir, "fetch", "--prune", "origin"); err != nil {
			return Result{}, err
		}
	}

	branch, err := s.defaultBranch(ctx, repoDir)
	if err != nil {
		return Result{}, err
	}
	if _, err := s.git.run(ctx, repoDir, "reset", "--hard", "origin/"+branch); err != nil {
		return Result{}, err
	}

	revision, err := s.git.run(ctx, repoDir, "rev-parse", "HEAD")
	if err != nil {
		return Result{}, err
	}

	subtree, err := s.resolveSubtree(repoDir, src)
	if err != nil {
		return Result{}, err
	}
	if err := fsutil.Mirror(subtree, extractDir); err != nil {
		return Result{}, err
	}

	s.markSynced(base)
	s.log.Debugf("synced %s at %s", src.ID, revision)

	return Result{
		LocalRepoPath: repoDir,
		ExtractedPath: extractDir,
		Revision:      revision,
	}, nil
}

// clone performs the initial shallow clone via a temp directory and
// rename, so a half-finished clone never masquerades as a mirror.
func (s *Synchronizer) clone(ctx context.Context, remoteURL, repoDir string) error {
	tmpDir := repoDir + tmpSuffix
	_ = os.RemoveAll(tmpDir)

	if err := fsutil.EnsureDir(filepath.Dir(repoDir), fsutil.DirPermNormal); err != nil {
		return err
	}
	if _, err := s.git.run(ctx, "", "clone", "--depth=1", remoteURL, tmpDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return err
	}
	if err := os.RemoveAll(repoDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("removing previous mirror: %w", err)
	}
	if err := os.Rename(tmpDir, repoDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("finalizing clone: %w", err)
	}
	return nil
}

// defaultBranch resolves the branch to mirror via a fallback chain:
// remote HEAD symref, local origin/HEAD, main/master, first origin ref.
func (s *Synchronizer) defaultBranch(ctx context.Context, repoDir string) (string, error) {
	if out, err := s.git.run(ctx, repoDir, "ls-remote", "--symref", "origin", "HEAD"); err == nil {
		for _, line := range strings.Split(out, "\n") {
			if !strings.HasPrefix(line, "ref:") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				if branch, ok := strings.CutPrefix(fields[1], "refs/heads/"); ok {
					return branch, nil
				}
			}
		}
	}

	if out, err := s.git.run(ctx, repoDir, "symbolic-ref", "refs/remotes/origin/HEAD"); err == nil {
		if branch, ok := strings.CutPrefix(strings.TrimSpace(out), "refs/remotes/origin/"); ok {
			return branch, nil
		}
	}

	for _, branch := range []string{"main", "master"} {
		if _, err := s.git.run(ctx, repoDir, "rev-parse", "--verify", "--quiet", "refs/remotes/origin/"+branch); err == nil {
			return branch, nil
		}
	}

	if out, err := s.git.run(ctx, repoDir, "for-each-ref", "--format=%(refname:strip=3)", "refs/remotes/origin"); err == nil {
		for _, name := range strings.Fields(out) {
			if name != "" && name != "HEAD" {
				return name, nil
			}
		}
	}

	return "", errors.New("could not determine default branch")
}

// resolveSubtree locates the configured bundle root inside the mirror.
// When the configured path is absent, the repo root is accepted as the
// bundle root if at least one immediate subdirectory carries the kind's
// marker file (supports pre-convention repositories).
func (s *Synchronizer) resolveSubtree(repoDir string, src source.Source) (string, error) {
	rel := strings.TrimPrefix(src.RootPath, "/")
	if rel == "" {
		return repoDir, nil
	}

	dir := filepath.Join(repoDir, filepath.FromSlash(rel))
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, nil
	}

	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return "", fmt.Errorf("reading mirror root: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(repoDir, entry.Name(), s.kind.Marker())); err == nil {
			s.log.Debugf("source %s: root path %s absent, using repo root", src.ID, src.RootPath)
			return repoDir, nil
		}
	}
	return "", fmt.Errorf("root path %s not found in repository", src.RootPath)
}

// resetOrigin restores the credential-free remote URL. It runs on its own
// context so cleanup happens even after the sync deadline expired.
func (s *Synchronizer) resetOrigin(repoDir, plainURL string) {
	if _, err := os.Stat(filepath.Join(repoDir, ".git")); err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.git.runRetry(ctx, repoDir, "remote", "set-url", "origin", plainURL); err != nil {
		s.log.Warnf("resetting origin URL: %v", redact.Error(err))
	}
}

// Fresh reports whether the source's mirror was synced within maxAge.
func (s *Synchronizer) Fresh(sourceID string, maxAge time.Duration) bool {
	data, err := os.ReadFile(filepath.Join(s.sourceDir(sourceID), syncedMarker))
	if err != nil {
		return false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return false
	}
	return time.Since(time.Unix(ts, 0)) <= maxAge
}

func (s *Synchronizer) markSynced(base string) {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	_ = os.WriteFile(filepath.Join(base, syncedMarker), []byte(ts), 0o644)
}

func (s *Synchronizer) sourceDir(sourceID string) string {
	return filepath.Join(s.root, string(s.kind), sourceID)
}

// lockFor returns the mutex serializing syncs of one source id.
func (s *Synchronizer) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

// transportURL returns the URL git should use for remote operations and
// whether it embeds a credential. Tokens apply to https transport only;
// ssh relies on ambient agent auth.
func transportURL(src source.Source, token string) (string, bool) {
	if token == "" || src.Transport != source.TransportHTTPS {
		return src.RepoURL, false
	}
	u, err := url.Parse(src.RepoURL)
	if err != nil || u.Host == "" {
		return src.RepoURL, false
	}
	u.User = url.UserPassword("x-access-token", token)
	return u.String(), true
}
