package catalog

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/grimoire-labs/grimoire/internal/bundle"
)

// The snapshot ships inside the binary as the fallback of last resort:
// a read-only catalog of the official source, regenerated at release
// time.
//
//go:embed snapshot/*.json
var snapshotFS embed.FS

func loadSnapshot(kind bundle.Kind) (*Catalog, error) {
	data, err := snapshotFS.ReadFile("snapshot/" + kind.Plural() + ".json")
	if err != nil {
		return nil, fmt.Errorf("reading embedded snapshot: %w", err)
	}
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing embedded snapshot: %w", err)
	}
	return &cat, nil
}
