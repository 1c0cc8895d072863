package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"parkcraft.io/internal/persistence/indexdb"
)

// openRuntimeIndex returns nil when indexing is disabled. The index never
// affects park determinism.
func openRuntimeIndex(parkDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("PC_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}
	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(parkDir, "index", "park.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported PC_INDEX_BACKEND: %s", backend)
	}
}
