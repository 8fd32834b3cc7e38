// Package source persists the registry of git repositories that publish
// skill or hook bundles. One JSON document per kind, rewritten whole and
// atomically on every mutation.
package source

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grimoire-labs/grimoire/internal/redact"
)

// Transport selects how the git remote is reached.
type Transport string

const (
	TransportHTTPS Transport = "https"
	TransportSSH   Transport = "ssh"
)

// OfficialID is the id of the built-in official source.
const OfficialID = "official"

var (
	ErrNotFound     = errors.New("source not found")
	ErrDuplicate    = errors.New("source id already registered")
	ErrNotRemovable = errors.New("source is not removable")
)

// Source is one registered bundle repository.
type Source struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RepoURL   string    `json:"repoUrl"`
	Transport Transport `json:"transport"`
	Official  bool      `json:"official"`
	Enabled   bool      `json:"enabled"`
	// RootPath is the subtree holding bundles, as an absolute reference
	// inside the repository (e.g. "/skills").
	RootPath  string `json:"rootPath"`
	Removable bool   `json:"removable"`

	LastSyncAt         *time.Time `json:"lastSyncAt,omitempty"`
	LastError          string     `json:"lastError,omitempty"`
	LocalRepoPath      string     `json:"localRepoPath,omitempty"`
	LocalExtractedPath string     `json:"localExtractedPath,omitempty"`
	Revision           string     `json:"revision,omitempty"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify lowercases s and reduces it to [a-z0-9-] with single dashes.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugStrip.ReplaceAllString(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

// normalize applies the invariants enforced on every load and save:
// slugged id, credential-free URL, redacted error text.
func (s *Source) normalize() {
	s.ID = Slugify(s.ID)
	s.RepoURL = redact.CleanURL(strings.TrimSpace(s.RepoURL))
	s.LastError = redact.String(s.LastError)
	if s.Transport == "" {
		s.Transport = inferTransport(s.RepoURL)
	}
}

// validate rejects malformed sources before any I/O happens.
func (s *Source) validate() error {
	if s.ID == "" {
		return errors.New("source id must not be empty")
	}
	if s.RepoURL == "" {
		return fmt.Errorf("source %s: repository URL must not be empty", s.ID)
	}
	if s.RootPath == "" {
		s.RootPath = "/"
	}
	if !strings.HasPrefix(s.RootPath, "/") {
		return fmt.Errorf("source %s: root path %q must start with /", s.ID, s.RootPath)
	}
	switch s.Transport {
	case TransportHTTPS, TransportSSH:
	default:
		return fmt.Errorf("source %s: unknown transport %q", s.ID, s.Transport)
	}
	return nil
}

func inferTransport(repoURL string) Transport {
	if strings.HasPrefix(repoURL, "http://") || strings.HasPrefix(repoURL, "https://") {
		return TransportHTTPS
	}
	return TransportSSH
}
