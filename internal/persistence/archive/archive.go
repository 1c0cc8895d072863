package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"parkcraft.io/internal/persistence/snapshot"
)

type Meta struct {
	ParkID        string `json:"park_id"`
	Tick          uint64 `json:"tick"`
	Snapshot      string `json:"snapshot"`
	CreatedAt     string `json:"created_at"`
	MapSize       int    `json:"map_size"`
	Cash          int64  `json:"cash"`
	CatalogDigest string `json:"catalog_digest"`
}

// ArchiveSnapshot copies every everyTicks-th snapshot into
// `parkDir/archives/tick_<N>/` next to a meta.json. Snapshots hold the last
// executed tick, so the archived one is at tick = everyTicks*k - 1.
func ArchiveSnapshot(parkDir, snapshotPath string, snap snapshot.SnapshotV1, everyTicks int) (archivedPath string, archived bool, err error) {
	if everyTicks <= 0 {
		return "", false, nil
	}
	if (snap.Header.Tick+1)%uint64(everyTicks) != 0 {
		return "", false, nil
	}

	archiveDir := filepath.Join(parkDir, "archives", fmt.Sprintf("tick_%012d", snap.Header.Tick))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}
	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := Meta{
		ParkID:        snap.Header.ParkID,
		Tick:          snap.Header.Tick,
		Snapshot:      filepath.Base(dst),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
		MapSize:       snap.MapSize,
		Cash:          snap.Cash,
		CatalogDigest: snap.CatalogDigest,
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}
	return dst, true, nil
}

// Prune keeps the newest keep snapshots in dir and removes the rest.
// Archived copies live elsewhere and are never touched.
func Prune(dir string, keep int) (removed []string, err error) {
	if keep <= 0 {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".snap.zst") {
			names = append(names, e.Name())
		}
	}
	// FileName zero-pads ticks, so lexical order is tick order.
	sort.Strings(names)
	if len(names) <= keep {
		return nil, nil
	}
	for _, n := range names[:len(names)-keep] {
		p := filepath.Join(dir, n)
		if err := os.Remove(p); err != nil {
			return removed, err
		}
		removed = append(removed, p)
	}
	return removed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
