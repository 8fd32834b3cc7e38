package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grimoire-labs/grimoire/internal/fsutil"
)

// cacheEnvelope wraps a cached catalog with its write time, so age is
// reported without trusting file mtimes.
type cacheEnvelope struct {
	CachedAt time.Time `json:"cachedAt"`
	Catalog  *Catalog  `json:"catalog"`
}

func (b *Builder) cachePath() string {
	return filepath.Join(b.cacheDir, b.kind.Plural()+".json")
}

// writeCache persists a live catalog for later degraded reads. A failed
// write only costs a future fallback, so it is logged and swallowed.
func (b *Builder) writeCache(cat *Catalog) {
	if b.cacheDir == "" {
		return
	}
	data, err := json.MarshalIndent(cacheEnvelope{CachedAt: time.Now().UTC(), Catalog: cat}, "", "  ")
	if err != nil {
		b.log.Warnf("encoding catalog cache: %v", err)
		return
	}
	if err := fsutil.EnsureDir(b.cacheDir, fsutil.DirPermNormal); err != nil {
		b.log.Warnf("creating catalog cache dir: %v", err)
		return
	}
	if err := fsutil.WriteFileAtomic(b.cachePath(), data, 0o644); err != nil {
		b.log.Warnf("writing catalog cache: %v", err)
	}
}

// loadCache returns the previously cached catalog and its age.
func (b *Builder) loadCache() (*Catalog, time.Duration, error) {
	if b.cacheDir == "" {
		return nil, 0, os.ErrNotExist
	}
	data, err := os.ReadFile(b.cachePath())
	if err != nil {
		return nil, 0, err
	}
	var env cacheEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, fmt.Errorf("parsing catalog cache: %w", err)
	}
	if env.Catalog == nil {
		return nil, 0, errors.New("catalog cache is empty")
	}
	return env.Catalog, time.Since(env.CachedAt), nil
}
