package scenery

import (
	"fmt"

	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/tile"
)

// GhostFlags records which kinds of scenery preview are on the map.
type GhostFlags uint8

const (
	GhostSmall GhostFlags = 1 << iota
	GhostPathAddition
	GhostWall
	GhostLarge
	GhostBanner
)

// Remover is the subset of the executor used to clear previews.
type Remover interface {
	RemoveSmallScenery(pos tile.XYZ, quadrant uint8, entry int, flags actions.Flags) (actions.Result, error)
	RemovePathAddition(pos tile.XYZ, flags actions.Flags) (actions.Result, error)
	RemoveWall(pos tile.XYZ, dir tile.Direction, flags actions.Flags) (actions.Result, error)
	RemoveLargeScenery(pos tile.XYZ, dir tile.Direction, flags actions.Flags) (actions.Result, error)
	RemoveBanner(pos tile.XYZ, dir tile.Direction, flags actions.Flags) (actions.Result, error)
}

// Placer is the subset of the executor used to place previews.
type Placer interface {
	PlaceSmallScenery(pos tile.XYZ, quadrant uint8, entry int, flags actions.Flags) (actions.Result, error)
	PlacePathAddition(pos tile.XYZ, entry int, flags actions.Flags) (actions.Result, error)
	PlaceWall(pos tile.XYZ, dir tile.Direction, entry int, flags actions.Flags) (actions.Result, error)
	PlaceLargeScenery(pos tile.XYZ, dir tile.Direction, entry int, flags actions.Flags) (actions.Result, error)
	PlaceBanner(pos tile.XYZ, dir tile.Direction, entry int, flags actions.Flags) (actions.Result, error)
}

const ghostFlags = actions.Apply | actions.Ghost | actions.AllowDuringPaused | actions.NoSpend

// GhostPlacement is the scenery tool's preview state.
type GhostPlacement struct {
	Flags        GhostFlags        `json:"flags"`
	Pos          tile.XYZ          `json:"pos"`
	Quadrant     uint8             `json:"quadrant"`
	Rotation     tile.Direction    `json:"rotation"`
	WallRotation tile.Direction    `json:"wall_rotation"`
	Object       objects.Selection `json:"object"`
	Cost         actions.Money     `json:"cost"`
}

// Remove clears every preview whose flag is set.
func (g *GhostPlacement) Remove(r Remover, m *tile.Map) {
	if g.Flags&GhostSmall != 0 {
		g.Flags &^= GhostSmall
		_, _ = r.RemoveSmallScenery(g.Pos, g.Quadrant, g.Object.Index, ghostFlags)
	}
	if g.Flags&GhostPathAddition != 0 {
		g.Flags &^= GhostPathAddition
		for _, e := range m.Elements(g.Pos.XY()) {
			if e.Type != tile.TypePath || e.BaseZ != g.Pos.Z {
				continue
			}
			_, _ = r.RemovePathAddition(g.Pos, ghostFlags)
			break
		}
	}
	if g.Flags&GhostWall != 0 {
		g.Flags &^= GhostWall
		_, _ = r.RemoveWall(g.Pos, g.WallRotation, ghostFlags)
	}
	if g.Flags&GhostLarge != 0 {
		g.Flags &^= GhostLarge
		_, _ = r.RemoveLargeScenery(g.Pos, g.Rotation, ghostFlags)
	}
	if g.Flags&GhostBanner != 0 {
		g.Flags &^= GhostBanner
		_, _ = r.RemoveBanner(g.Pos, g.Rotation, ghostFlags)
	}
}

var ghostFlagFor = map[objects.SceneryType]GhostFlags{
	objects.ScenerySmall:    GhostSmall,
	objects.SceneryPathItem: GhostPathAddition,
	objects.SceneryWall:     GhostWall,
	objects.SceneryLarge:    GhostLarge,
	objects.SceneryBanner:   GhostBanner,
}

// PlaceObject runs the placement action matching the object's scenery type.
// Walls and banners use rotation as their edge direction.
func PlaceObject(p Placer, obj objects.Selection, pos tile.XYZ, quadrant uint8, rotation tile.Direction, flags actions.Flags) (actions.Result, error) {
	switch obj.Type {
	case objects.ScenerySmall:
		return p.PlaceSmallScenery(pos, quadrant, obj.Index, flags)
	case objects.SceneryPathItem:
		return p.PlacePathAddition(pos, obj.Index, flags)
	case objects.SceneryWall:
		return p.PlaceWall(pos, rotation, obj.Index, flags)
	case objects.SceneryLarge:
		return p.PlaceLargeScenery(pos, rotation, obj.Index, flags)
	case objects.SceneryBanner:
		return p.PlaceBanner(pos, rotation, obj.Index, flags)
	}
	return actions.Result{}, fmt.Errorf("%s: unknown scenery type", obj)
}

// Place clears the current preview and shows obj at pos instead.
func (g *GhostPlacement) Place(p Placer, r Remover, m *tile.Map, obj objects.Selection, pos tile.XYZ, quadrant uint8, rotation tile.Direction) error {
	g.Remove(r, m)
	g.Cost = actions.MoneyUndefined

	res, err := PlaceObject(p, obj, pos, quadrant, rotation, ghostFlags)
	if err != nil {
		return fmt.Errorf("ghost %s: %w", obj, err)
	}
	g.Flags |= ghostFlagFor[obj.Type]
	g.Pos = pos
	g.Quadrant = quadrant & 3
	g.Object = obj
	if obj.Type == objects.SceneryWall {
		g.WallRotation = rotation & 3
	} else {
		g.Rotation = rotation & 3
	}
	g.Cost = res.Cost
	return nil
}
