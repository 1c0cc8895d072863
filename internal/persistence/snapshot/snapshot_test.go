package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/park/tool"
)

func sample(tick uint64) SnapshotV1 {
	m := tile.NewMap(4, 16)
	_, _ = m.Insert(tile.XY{X: 1, Y: 2}, tile.Element{
		Type: tile.TypePath, BaseZ: 16, ClearanceZ: 48, Quadrants: tile.AllQuadrants,
		Path: tile.PathProps{Surface: 1, Railings: 0, Edges: 0b0101},
	})
	sel := tool.NewSelection()
	sel.NormalSurface = 1
	return SnapshotV1{
		Header:        Header{Version: Version, ParkID: "park_1", Tick: tick},
		TickRate:      40,
		MapSize:       4,
		CatalogDigest: "deadbeef",
		Cash:          9500,
		WeatherIndex:  2,
		WeatherLeft:   17,
		SweepCursor:   9,
		Selection:     *sel,
		Restricted:    []objects.Selection{{Type: objects.ScenerySmall, Index: 3}},
		Tiles:         m.Export(),
	}
}

func TestWriteReadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshots", FileName(120))
	want := sample(120)
	if err := WriteSnapshot(path, want); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got.Header != want.Header || got.Cash != want.Cash || got.WeatherLeft != 17 || got.SweepCursor != 9 {
		t.Fatalf("scalar fields differ: %+v", got.Header)
	}
	if got.Selection != want.Selection {
		t.Fatalf("selection: got %+v want %+v", got.Selection, want.Selection)
	}
	if len(got.Restricted) != 1 || got.Restricted[0] != want.Restricted[0] {
		t.Fatalf("restricted: %+v", got.Restricted)
	}
	m, err := tile.Import(got.MapSize, got.Tiles)
	if err != nil {
		t.Fatalf("import tiles: %v", err)
	}
	orig, _ := tile.Import(want.MapSize, want.Tiles)
	if m.Digest() != orig.Digest() {
		t.Fatalf("map digest changed across snapshot")
	}
}

func TestReadHeaderAndLatest(t *testing.T) {
	dir := t.TempDir()
	for _, tick := range []uint64{40, 400, 80} {
		if err := WriteSnapshot(filepath.Join(dir, FileName(tick)), sample(tick)); err != nil {
			t.Fatalf("write %d: %v", tick, err)
		}
	}
	// Junk files are skipped.
	if err := os.WriteFile(filepath.Join(dir, "broken.snap.zst"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Latest(dir)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	h, err := ReadHeader(p)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Tick != 400 || h.ParkID != "park_1" {
		t.Fatalf("latest header=%+v", h)
	}
	empty, err := Latest(t.TempDir())
	if err != nil || empty != "" {
		t.Fatalf("empty dir: %q %v", empty, err)
	}
}

func TestReadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName(1))
	s := sample(1)
	s.Header.Version = 9
	if err := WriteSnapshot(path, s); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}
