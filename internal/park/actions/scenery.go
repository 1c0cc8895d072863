package actions

import (
	"fmt"

	"parkcraft.io/internal/park/tile"
)

const sceneryClearance = 4 * tile.ZStep

func (x *Executor) placeElement(action string, pos tile.XYZ, e tile.Element, flags Flags) (Result, error) {
	res := Result{Cost: MoneyUndefined, Pos: pos}
	if err := x.checkPaused(flags); err != nil {
		return res, err
	}
	if err := x.checkPos(pos); err != nil {
		return res, fmt.Errorf("%s at %v: %w", action, pos.Array(), err)
	}
	if e.Type != tile.TypeWall && e.Type != tile.TypeBanner {
		if err := x.checkClearance(pos.XY(), e.BaseZ, e.ClearanceZ); err != nil {
			return res, fmt.Errorf("%s at %v: %w", action, pos.Array(), err)
		}
	}
	res.Cost = x.Prices.Scenery
	if !x.canAfford(res.Cost, flags) {
		return res, ErrInsufficientFunds
	}
	if !flags.Has(Apply) {
		return res, nil
	}
	e.Ghost = flags.Has(Ghost)
	if _, err := x.Map.Insert(pos.XY(), e); err != nil {
		return res, fmt.Errorf("%s: %w", action, err)
	}
	x.spend(res.Cost, flags)
	x.record(action, pos, e.Entry, res.Cost, flags)
	return res, nil
}

func (x *Executor) PlaceSmallScenery(pos tile.XYZ, quadrant uint8, entry int, flags Flags) (Result, error) {
	def, ok := x.Catalog.Small(entry)
	if !ok {
		return Result{Cost: MoneyUndefined, Pos: pos}, fmt.Errorf("small scenery %d: %w", entry, ErrInvalidEntry)
	}
	quads := uint8(1) << (quadrant & 3)
	if def.VOffsetCentre {
		quads = tile.AllQuadrants
	}
	return x.placeElement("PLACE_SMALL_SCENERY", pos, tile.Element{
		Type:       tile.TypeSmallScenery,
		BaseZ:      pos.Z,
		ClearanceZ: pos.Z + sceneryClearance,
		Quadrants:  quads,
		Quadrant:   quadrant & 3,
		Entry:      entry,
	}, flags)
}

func (x *Executor) PlaceLargeScenery(pos tile.XYZ, dir tile.Direction, entry int, flags Flags) (Result, error) {
	if _, ok := x.Catalog.Large(entry); !ok {
		return Result{Cost: MoneyUndefined, Pos: pos}, fmt.Errorf("large scenery %d: %w", entry, ErrInvalidEntry)
	}
	return x.placeElement("PLACE_LARGE_SCENERY", pos, tile.Element{
		Type:       tile.TypeLargeScenery,
		BaseZ:      pos.Z,
		ClearanceZ: pos.Z + 2*sceneryClearance,
		Quadrants:  tile.AllQuadrants,
		Entry:      entry,
		Direction:  dir & 3,
	}, flags)
}

func (x *Executor) PlaceWall(pos tile.XYZ, dir tile.Direction, entry int, flags Flags) (Result, error) {
	if _, ok := x.Catalog.Wall(entry); !ok {
		return Result{Cost: MoneyUndefined, Pos: pos}, fmt.Errorf("wall %d: %w", entry, ErrInvalidEntry)
	}
	return x.placeElement("PLACE_WALL", pos, tile.Element{
		Type:       tile.TypeWall,
		BaseZ:      pos.Z,
		ClearanceZ: pos.Z + sceneryClearance,
		Entry:      entry,
		Direction:  dir & 3,
	}, flags)
}

func (x *Executor) PlaceBanner(pos tile.XYZ, dir tile.Direction, entry int, flags Flags) (Result, error) {
	if _, ok := x.Catalog.Banner(entry); !ok {
		return Result{Cost: MoneyUndefined, Pos: pos}, fmt.Errorf("banner %d: %w", entry, ErrInvalidEntry)
	}
	return x.placeElement("PLACE_BANNER", pos, tile.Element{
		Type:       tile.TypeBanner,
		BaseZ:      pos.Z,
		ClearanceZ: pos.Z + sceneryClearance,
		Entry:      entry,
		Direction:  dir & 3,
	}, flags)
}

// PlaceEntrance adds a park entrance element. Entrances are not scenery but
// count as covering for watering purposes.
func (x *Executor) PlaceEntrance(pos tile.XYZ, dir tile.Direction, flags Flags) (Result, error) {
	return x.placeElement("PLACE_ENTRANCE", pos, tile.Element{
		Type:       tile.TypeEntrance,
		BaseZ:      pos.Z,
		ClearanceZ: pos.Z + 2*sceneryClearance,
		Quadrants:  tile.AllQuadrants,
		Direction:  dir & 3,
	}, flags)
}

// PlacePathAddition attaches an addition to the path at pos.Z.
func (x *Executor) PlacePathAddition(pos tile.XYZ, entry int, flags Flags) (Result, error) {
	res := Result{Cost: MoneyUndefined, Pos: pos}
	if err := x.checkPaused(flags); err != nil {
		return res, err
	}
	if !x.Map.InBounds(pos.XY()) {
		return res, fmt.Errorf("place path addition at %v: %w", pos.Array(), ErrOffEdge)
	}
	if _, ok := x.Catalog.PathAddition(entry); !ok {
		return res, fmt.Errorf("path addition %d: %w", entry, ErrInvalidEntry)
	}
	i, ok := x.Map.FindPath(pos.XY(), pos.Z, false)
	if !ok {
		return res, fmt.Errorf("place path addition at %v: %w", pos.Array(), ErrNotFound)
	}
	if x.Map.Element(pos.XY(), i).Path.HasAddition {
		return res, fmt.Errorf("place path addition at %v: %w", pos.Array(), ErrAlreadyBuilt)
	}
	res.Cost = x.Prices.Scenery
	if !x.canAfford(res.Cost, flags) {
		return res, ErrInsufficientFunds
	}
	if !flags.Has(Apply) {
		return res, nil
	}
	e := x.Map.Element(pos.XY(), i)
	e.Path.HasAddition = true
	e.Path.Addition = entry
	e.Path.AdditionGhost = flags.Has(Ghost)
	x.Map.MarkDirty(pos.XY())
	x.spend(res.Cost, flags)
	x.record("PLACE_PATH_ADDITION", pos, entry, res.Cost, flags)
	return res, nil
}

func (x *Executor) removeMatching(action string, pos tile.XYZ, flags Flags, match func(e tile.Element) bool) (Result, error) {
	res := Result{Cost: MoneyUndefined, Pos: pos}
	if err := x.checkPaused(flags); err != nil {
		return res, err
	}
	if !x.Map.InBounds(pos.XY()) {
		return res, fmt.Errorf("%s at %v: %w", action, pos.Array(), ErrOffEdge)
	}
	ghost := flags.Has(Ghost)
	idx := -1
	for i, e := range x.Map.Elements(pos.XY()) {
		if e.BaseZ == pos.Z && e.Ghost == ghost && match(e) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return res, fmt.Errorf("%s at %v: %w", action, pos.Array(), ErrNotFound)
	}
	res.Cost = 0
	if !ghost {
		res.Cost = -x.Prices.ScenerySell
	}
	if !flags.Has(Apply) {
		return res, nil
	}
	entry := x.Map.Element(pos.XY(), idx).Entry
	if err := x.Map.RemoveAt(pos.XY(), idx); err != nil {
		return res, fmt.Errorf("%s: %w", action, err)
	}
	x.spend(res.Cost, flags)
	x.record(action, pos, entry, res.Cost, flags)
	return res, nil
}

func (x *Executor) RemoveSmallScenery(pos tile.XYZ, quadrant uint8, entry int, flags Flags) (Result, error) {
	return x.removeMatching("REMOVE_SMALL_SCENERY", pos, flags, func(e tile.Element) bool {
		if e.Type != tile.TypeSmallScenery || e.Entry != entry {
			return false
		}
		return e.Quadrants == tile.AllQuadrants || e.Quadrant == quadrant&3
	})
}

func (x *Executor) RemoveWall(pos tile.XYZ, dir tile.Direction, flags Flags) (Result, error) {
	return x.removeMatching("REMOVE_WALL", pos, flags, func(e tile.Element) bool {
		return e.Type == tile.TypeWall && e.Direction == dir&3
	})
}

func (x *Executor) RemoveLargeScenery(pos tile.XYZ, dir tile.Direction, flags Flags) (Result, error) {
	return x.removeMatching("REMOVE_LARGE_SCENERY", pos, flags, func(e tile.Element) bool {
		return e.Type == tile.TypeLargeScenery && e.Direction == dir&3
	})
}

func (x *Executor) RemoveBanner(pos tile.XYZ, dir tile.Direction, flags Flags) (Result, error) {
	return x.removeMatching("REMOVE_BANNER", pos, flags, func(e tile.Element) bool {
		return e.Type == tile.TypeBanner && e.Direction == dir&3
	})
}

// RemovePathAddition detaches the addition from the path at pos.Z. Ghost
// removals only match ghost additions.
func (x *Executor) RemovePathAddition(pos tile.XYZ, flags Flags) (Result, error) {
	res := Result{Cost: MoneyUndefined, Pos: pos}
	if err := x.checkPaused(flags); err != nil {
		return res, err
	}
	if !x.Map.InBounds(pos.XY()) {
		return res, fmt.Errorf("remove path addition at %v: %w", pos.Array(), ErrOffEdge)
	}
	ghost := flags.Has(Ghost)
	var target *tile.Element
	els := x.Map.Elements(pos.XY())
	for i := range els {
		e := &els[i]
		if e.Type == tile.TypePath && e.BaseZ == pos.Z && e.Path.HasAddition && e.Path.AdditionGhost == ghost {
			target = e
			break
		}
	}
	if target == nil {
		return res, fmt.Errorf("remove path addition at %v: %w", pos.Array(), ErrNotFound)
	}
	res.Cost = 0
	if !ghost {
		res.Cost = -x.Prices.ScenerySell
	}
	if !flags.Has(Apply) {
		return res, nil
	}
	entry := target.Path.Addition
	target.Path.HasAddition = false
	target.Path.Addition = 0
	target.Path.AdditionGhost = false
	x.Map.MarkDirty(pos.XY())
	x.spend(res.Cost, flags)
	x.record("REMOVE_PATH_ADDITION", pos, entry, res.Cost, flags)
	return res, nil
}
