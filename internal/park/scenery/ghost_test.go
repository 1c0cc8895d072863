package scenery

import (
	"errors"
	"testing"

	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/tile"
)

type removal struct {
	kind  string
	dir   tile.Direction
	flags actions.Flags
}

type recordingRemover struct {
	calls []removal
}

func (r *recordingRemover) add(kind string, dir tile.Direction, flags actions.Flags) (actions.Result, error) {
	r.calls = append(r.calls, removal{kind, dir, flags})
	return actions.Result{}, nil
}

func (r *recordingRemover) RemoveSmallScenery(_ tile.XYZ, _ uint8, _ int, flags actions.Flags) (actions.Result, error) {
	return r.add("small", 0, flags)
}

func (r *recordingRemover) RemovePathAddition(_ tile.XYZ, flags actions.Flags) (actions.Result, error) {
	return r.add("addition", 0, flags)
}

func (r *recordingRemover) RemoveWall(_ tile.XYZ, dir tile.Direction, flags actions.Flags) (actions.Result, error) {
	return r.add("wall", dir, flags)
}

func (r *recordingRemover) RemoveLargeScenery(_ tile.XYZ, dir tile.Direction, flags actions.Flags) (actions.Result, error) {
	return r.add("large", dir, flags)
}

func (r *recordingRemover) RemoveBanner(_ tile.XYZ, dir tile.Direction, flags actions.Flags) (actions.Result, error) {
	return r.add("banner", dir, flags)
}

func TestRemoveOrderAndFlags(t *testing.T) {
	m := tile.NewMap(4, 16)
	pos := tile.XYZ{X: 1, Y: 1, Z: 16}
	if _, err := m.Insert(pos.XY(), tile.Element{Type: tile.TypePath, BaseZ: 16, ClearanceZ: 48}); err != nil {
		t.Fatalf("insert path: %v", err)
	}
	g := GhostPlacement{
		Flags:        GhostSmall | GhostPathAddition | GhostWall | GhostLarge | GhostBanner,
		Pos:          pos,
		Rotation:     1,
		WallRotation: 3,
	}
	r := &recordingRemover{}
	g.Remove(r, m)

	want := []removal{
		{"small", 0, ghostFlags},
		{"addition", 0, ghostFlags},
		{"wall", 3, ghostFlags},
		{"large", 1, ghostFlags},
		{"banner", 1, ghostFlags},
	}
	if len(r.calls) != len(want) {
		t.Fatalf("calls=%v", r.calls)
	}
	for i := range want {
		if r.calls[i] != want[i] {
			t.Fatalf("call %d: got %+v want %+v", i, r.calls[i], want[i])
		}
	}
	if g.Flags != 0 {
		t.Fatalf("flags left set: %b", g.Flags)
	}

	r.calls = nil
	g.Remove(r, m)
	if len(r.calls) != 0 {
		t.Fatalf("second remove issued %d calls", len(r.calls))
	}
}

func TestRemovePathAdditionNeedsPath(t *testing.T) {
	m := tile.NewMap(4, 16)
	g := GhostPlacement{Flags: GhostPathAddition, Pos: tile.XYZ{X: 2, Y: 2, Z: 32}}
	r := &recordingRemover{}
	g.Remove(r, m)
	if len(r.calls) != 0 {
		t.Fatalf("removal issued without a path: %v", r.calls)
	}
	if g.Flags != 0 {
		t.Fatalf("flag must clear even when nothing is removed")
	}
}

func TestPlaceReplacesGhost(t *testing.T) {
	cat := loadCatalog(t)
	m := tile.NewMap(8, 16)
	x := actions.NewExecutor(m, cat, actions.DefaultPrices(), 1000)
	pos := tile.XYZ{X: 3, Y: 3, Z: 16}

	// A real plant on the same spot must survive ghost removal.
	bed := smallIndex(t, cat, "fbbig")
	if _, err := x.PlaceSmallScenery(pos, 1, bed, actions.Apply); err != nil {
		t.Fatalf("place real plant: %v", err)
	}
	cash := x.Cash

	var g GhostPlacement
	if err := g.Place(x, x, m, objects.Selection{Type: objects.ScenerySmall, Index: bed}, tile.XYZ{X: 4, Y: 3, Z: 16}, 2, 0); err != nil {
		t.Fatalf("ghost small: %v", err)
	}
	if g.Flags != GhostSmall || g.Quadrant != 2 || !g.Cost.Defined() {
		t.Fatalf("ghost state %+v", g)
	}

	wall, _ := cat.IndexOf(objects.SceneryWall, "rct2.scenery_wall.wallwf32")
	if err := g.Place(x, x, m, objects.Selection{Type: objects.SceneryWall, Index: wall}, pos, 0, 3); err != nil {
		t.Fatalf("ghost wall: %v", err)
	}
	if g.Flags != GhostWall || g.WallRotation != 3 {
		t.Fatalf("ghost state %+v", g)
	}
	if n := m.Count(tile.TypeSmallScenery); n != 1 {
		t.Fatalf("small scenery count=%d want 1 (the real plant)", n)
	}

	g.Remove(x, m)
	if n := m.Count(tile.TypeWall); n != 0 {
		t.Fatalf("ghost wall left behind")
	}
	if x.Cash != cash {
		t.Fatalf("ghosts spent money: %d -> %d", cash, x.Cash)
	}
}

func TestGhostPathAddition(t *testing.T) {
	cat := loadCatalog(t)
	m := tile.NewMap(8, 16)
	x := actions.NewExecutor(m, cat, actions.DefaultPrices(), 1000)
	pos := tile.XYZ{X: 2, Y: 5, Z: 16}
	if _, err := x.PlacePath(actions.PathPlacement{Pos: pos}, actions.Apply); err != nil {
		t.Fatalf("place path: %v", err)
	}
	lamp, _ := cat.IndexOf(objects.SceneryPathItem, "rct2.footpath_item.lamp1")

	var g GhostPlacement
	if err := g.Place(x, x, m, objects.Selection{Type: objects.SceneryPathItem, Index: lamp}, pos, 0, 0); err != nil {
		t.Fatalf("ghost addition: %v", err)
	}
	i, _ := m.FindPath(pos.XY(), pos.Z, false)
	if p := m.Elements(pos.XY())[i].Path; !p.HasAddition || !p.AdditionGhost {
		t.Fatalf("expected ghost addition, got %+v", p)
	}
	g.Remove(x, m)
	if p := m.Elements(pos.XY())[i].Path; p.HasAddition {
		t.Fatalf("ghost addition not removed")
	}
	if m.Count(tile.TypePath) != 1 {
		t.Fatalf("path removed with its addition")
	}
}

func TestPlaceFailureKeepsNoFlag(t *testing.T) {
	cat := loadCatalog(t)
	m := tile.NewMap(8, 16)
	x := actions.NewExecutor(m, cat, actions.DefaultPrices(), 1000)
	lamp, _ := cat.IndexOf(objects.SceneryPathItem, "rct2.footpath_item.lamp1")

	var g GhostPlacement
	err := g.Place(x, x, m, objects.Selection{Type: objects.SceneryPathItem, Index: lamp}, tile.XYZ{X: 1, Y: 1, Z: 16}, 0, 0)
	if !errors.Is(err, actions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if g.Flags != 0 || g.Cost.Defined() {
		t.Fatalf("failed placement left state %+v", g)
	}
}
