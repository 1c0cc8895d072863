package scenery

import (
	"testing"

	"parkcraft.io/internal/park/climate"
	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/tile"
)

type invalidation struct {
	xy     tile.XY
	lo, hi int
}

type fakeScreen struct {
	invalidated []invalidation
	fountains   []bool
}

func (f *fakeScreen) InvalidateTile(xy tile.XY, lo, hi int) {
	f.invalidated = append(f.invalidated, invalidation{xy, lo, hi})
}

func (f *fakeScreen) StartFountain(_ tile.XY, _ int, snow bool) {
	f.fountains = append(f.fountains, snow)
}

func loadCatalog(t *testing.T) *objects.Catalog {
	t.Helper()
	cat, err := objects.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func smallIndex(t *testing.T, cat *objects.Catalog, name string) int {
	t.Helper()
	i, ok := cat.IndexOf(objects.ScenerySmall, "rct2.scenery_small."+name)
	if !ok {
		t.Fatalf("missing small scenery %s", name)
	}
	return i
}

func newUpdater(t *testing.T, w climate.Weather) (*Updater, *fakeScreen) {
	t.Helper()
	screen := &fakeScreen{}
	return &Updater{
		Map:         tile.NewMap(8, 16),
		Catalog:     loadCatalog(t),
		Weather:     w,
		Invalidator: screen,
		Fountains:   screen,
	}, screen
}

func plant(t *testing.T, m *tile.Map, xy tile.XY, entry int, age uint8, quads uint8) int {
	t.Helper()
	i, err := m.Insert(xy, tile.Element{
		Type:       tile.TypeSmallScenery,
		BaseZ:      16,
		ClearanceZ: 48,
		Quadrants:  quads,
		Entry:      entry,
		Age:        age,
	})
	if err != nil {
		t.Fatalf("insert plant: %v", err)
	}
	return i
}

func TestUpdateAgeRules(t *testing.T) {
	cases := []struct {
		name    string
		weather climate.Weather
		object  string
		age     uint8
		cheats  Cheats
		want    uint8
	}{
		{"dry ages", climate.Sunny, "tic", 10, Cheats{}, 11},
		{"rain waters", climate.Rain, "tic", 10, Cheats{}, 0},
		{"thunder waters", climate.Thunder, "tbush", 30, Cheats{}, 0},
		{"snow is dry", climate.Snow, "tic", 10, Cheats{}, 11},
		{"young plants age in rain", climate.Rain, "tic", 4, Cheats{}, 5},
		{"not waterable", climate.Rain, "brbase", 10, Cheats{}, 11},
		{"cheat freezes waterable", climate.Sunny, "tic", 10, Cheats{DisablePlantAging: true}, 10},
		{"cheat ignores others", climate.Sunny, "brbase", 10, Cheats{DisablePlantAging: true}, 11},
		{"saturates", climate.Sunny, "brbase", 255, Cheats{}, 255},
	}
	for _, tc := range cases {
		u, _ := newUpdater(t, tc.weather)
		u.Cheats = tc.cheats
		xy := tile.XY{X: 2, Y: 2}
		i := plant(t, u.Map, xy, smallIndex(t, u.Catalog, tc.object), tc.age, 1)
		u.UpdateAge(xy, i)
		if got := u.Map.Elements(xy)[i].Age; got != tc.want {
			t.Fatalf("%s: age=%d want %d", tc.name, got, tc.want)
		}
	}
}

func TestWitherInvalidatesAtThresholds(t *testing.T) {
	u, screen := newUpdater(t, climate.Sunny)
	xy := tile.XY{X: 1, Y: 1}
	bed := plant(t, u.Map, xy, smallIndex(t, u.Catalog, "fbdr"), WitherAge1-1, 1)
	u.IncreaseAge(xy, bed)
	if len(screen.invalidated) != 1 {
		t.Fatalf("expected redraw at age %d, got %d", WitherAge1, len(screen.invalidated))
	}
	u.IncreaseAge(xy, bed)
	if len(screen.invalidated) != 1 {
		t.Fatalf("unexpected redraw at age %d", WitherAge1+1)
	}
	u.Map.Element(xy, bed).Age = WitherAge2 - 1
	u.IncreaseAge(xy, bed)
	if len(screen.invalidated) != 2 {
		t.Fatalf("expected redraw at age %d", WitherAge2)
	}

	tree := plant(t, u.Map, tile.XY{X: 3, Y: 3}, smallIndex(t, u.Catalog, "tic"), WitherAge1-1, 1)
	u.IncreaseAge(tile.XY{X: 3, Y: 3}, tree)
	if len(screen.invalidated) != 2 {
		t.Fatalf("trees do not wither")
	}
}

func TestGhostPlantsDoNotAge(t *testing.T) {
	u, _ := newUpdater(t, climate.Sunny)
	xy := tile.XY{X: 2, Y: 2}
	i := plant(t, u.Map, xy, smallIndex(t, u.Catalog, "brbase"), 7, 1)
	u.Map.Element(xy, i).Ghost = true
	u.IncreaseAge(xy, i)
	u.UpdateTile(xy)
	if got := u.Map.Elements(xy)[i].Age; got != 7 {
		t.Fatalf("ghost aged to %d", got)
	}
}

func TestCoverScan(t *testing.T) {
	xy := tile.XY{X: 4, Y: 4}

	// A plant with no occupied quadrants lets the scan reach the path above.
	u, screen := newUpdater(t, climate.Rain)
	i := plant(t, u.Map, xy, smallIndex(t, u.Catalog, "tic"), 20, 0)
	if _, err := u.Map.Insert(xy, tile.Element{Type: tile.TypePath, BaseZ: 64, ClearanceZ: 96}); err != nil {
		t.Fatalf("insert path: %v", err)
	}
	u.UpdateAge(xy, i)
	if got := u.Map.Elements(xy)[i].Age; got != 21 {
		t.Fatalf("covered plant age=%d want 21", got)
	}
	if len(screen.invalidated) != 1 || screen.invalidated[0].lo != 64 || screen.invalidated[0].hi != 96 {
		t.Fatalf("expected cover redraw, got %+v", screen.invalidated)
	}

	// Ghost cover is ignored and the scan runs off the tile.
	u, _ = newUpdater(t, climate.Rain)
	i = plant(t, u.Map, xy, smallIndex(t, u.Catalog, "tic"), 20, 0)
	if _, err := u.Map.Insert(xy, tile.Element{Type: tile.TypePath, BaseZ: 64, ClearanceZ: 96, Ghost: true}); err != nil {
		t.Fatalf("insert ghost path: %v", err)
	}
	u.UpdateAge(xy, i)
	if got := u.Map.Elements(xy)[i].Age; got != 0 {
		t.Fatalf("ghost cover must not shelter, age=%d", got)
	}

	// A plant occupying its quadrant stops the scan at once.
	u, _ = newUpdater(t, climate.Rain)
	i = plant(t, u.Map, xy, smallIndex(t, u.Catalog, "tic"), 20, 1)
	if _, err := u.Map.Insert(xy, tile.Element{Type: tile.TypePath, BaseZ: 64, ClearanceZ: 96}); err != nil {
		t.Fatalf("insert path: %v", err)
	}
	u.UpdateAge(xy, i)
	if got := u.Map.Elements(xy)[i].Age; got != 0 {
		t.Fatalf("plant occupying its quadrant is watered, age=%d", got)
	}

	// Centred small scenery above counts as cover.
	u, _ = newUpdater(t, climate.Rain)
	i = plant(t, u.Map, xy, smallIndex(t, u.Catalog, "tic"), 20, 0)
	if _, err := u.Map.Insert(xy, tile.Element{
		Type:       tile.TypeSmallScenery,
		BaseZ:      64,
		ClearanceZ: 96,
		Entry:      smallIndex(t, u.Catalog, "tlamp"),
	}); err != nil {
		t.Fatalf("insert lamp: %v", err)
	}
	u.UpdateAge(xy, i)
	if got := u.Map.Elements(xy)[i].Age; got != 21 {
		t.Fatalf("lamp cover age=%d want 21", got)
	}
}

func TestUpdateTileFountains(t *testing.T) {
	u, screen := newUpdater(t, climate.Sunny)
	water, _ := u.Catalog.IndexOf(objects.SceneryPathItem, "rct2.footpath_item.jumpfnt1")
	snow, _ := u.Catalog.IndexOf(objects.SceneryPathItem, "rct2.footpath_item.jumpsnw1")
	bench, _ := u.Catalog.IndexOf(objects.SceneryPathItem, "rct2.footpath_item.bench1")

	add := func(xy tile.XY, entry int, ghost bool) {
		_, err := u.Map.Insert(xy, tile.Element{
			Type:       tile.TypePath,
			BaseZ:      16,
			ClearanceZ: 48,
			Path:       tile.PathProps{HasAddition: true, Addition: entry, AdditionGhost: ghost},
		})
		if err != nil {
			t.Fatalf("insert path: %v", err)
		}
	}
	add(tile.XY{X: 1, Y: 1}, water, false)
	add(tile.XY{X: 2, Y: 1}, snow, false)
	add(tile.XY{X: 3, Y: 1}, water, true)
	add(tile.XY{X: 4, Y: 1}, bench, false)

	for x := 1; x <= 4; x++ {
		u.UpdateTile(tile.XY{X: x, Y: 1})
	}
	if len(screen.fountains) != 2 || screen.fountains[0] || !screen.fountains[1] {
		t.Fatalf("fountains=%v want [false true]", screen.fountains)
	}
}

func TestUpdateTileSkipsGhostsWhenNetworked(t *testing.T) {
	u, screen := newUpdater(t, climate.Sunny)
	u.Networked = true
	xy := tile.XY{X: 5, Y: 5}
	water, _ := u.Catalog.IndexOf(objects.SceneryPathItem, "rct2.footpath_item.jumpfnt1")
	if _, err := u.Map.Insert(xy, tile.Element{
		Type:       tile.TypePath,
		BaseZ:      16,
		ClearanceZ: 48,
		Ghost:      true,
		Path:       tile.PathProps{HasAddition: true, Addition: water},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	u.UpdateTile(xy)
	if len(screen.fountains) != 0 {
		t.Fatalf("ghost path started a fountain")
	}

	u.Networked = false
	u.UpdateTile(xy)
	if len(screen.fountains) != 1 {
		t.Fatalf("local ghost path should animate, got %d", len(screen.fountains))
	}
}
