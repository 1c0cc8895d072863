package actions

import (
	"fmt"

	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/tile"
)

// PathClearance is the vertical space a footpath occupies.
const PathClearance = 2 * tile.PathHeightStep

// Executor validates and applies construction actions against a map.
// It is owned by the park loop and is not safe for concurrent use.
type Executor struct {
	Map     *tile.Map
	Catalog *objects.Catalog
	Prices  Prices

	Cash    Money
	NoMoney bool

	paused       bool
	buildInPause bool

	Recorder Recorder
}

func NewExecutor(m *tile.Map, cat *objects.Catalog, prices Prices, cash Money) *Executor {
	return &Executor{
		Map:     m,
		Catalog: cat,
		Prices:  prices,
		Cash:    cash,
	}
}

func (x *Executor) Paused() bool { return x.paused }
func (x *Executor) SetPaused(v bool) { x.paused = v }
func (x *Executor) BuildInPause() bool { return x.buildInPause }
func (x *Executor) SetBuildInPause(v bool) { x.buildInPause = v }

func (x *Executor) checkPaused(flags Flags) error {
	if x.paused && !x.buildInPause && !flags.Has(AllowDuringPaused) {
		return ErrPaused
	}
	return nil
}

func (x *Executor) checkPos(pos tile.XYZ) error {
	if !x.Map.InBounds(pos.XY()) {
		return ErrOffEdge
	}
	if pos.Z < 0 {
		return ErrTooLow
	}
	if pos.Z > tile.MaxZ-PathClearance {
		return ErrTooHigh
	}
	return nil
}

func (x *Executor) canAfford(cost Money, flags Flags) bool {
	if x.NoMoney || flags.Has(Ghost) || flags.Has(NoSpend) || cost <= 0 {
		return true
	}
	return cost <= x.Cash
}

func (x *Executor) spend(cost Money, flags Flags) {
	if x.NoMoney || flags.Has(Ghost) || flags.Has(NoSpend) {
		return
	}
	x.Cash -= cost
}

func (x *Executor) record(action string, pos tile.XYZ, entry int, cost Money, flags Flags) {
	if x.Recorder == nil || flags.Has(Ghost) {
		return
	}
	x.Recorder.RecordAction(Audit{Action: action, Pos: pos, Entry: entry, Cost: cost, Cash: x.Cash})
}

func (x *Executor) checkPathEntry(p PathPlacement) error {
	if p.ConstructFlags&IsLegacyPathObject != 0 {
		if _, ok := x.Catalog.LegacyPath(p.Surface); !ok {
			return fmt.Errorf("legacy path %d: %w", p.Surface, ErrInvalidEntry)
		}
		return nil
	}
	if _, ok := x.Catalog.Surface(p.Surface); !ok {
		return fmt.Errorf("surface %d: %w", p.Surface, ErrInvalidEntry)
	}
	if _, ok := x.Catalog.Railing(p.Railings); !ok {
		return fmt.Errorf("railings %d: %w", p.Railings, ErrInvalidEntry)
	}
	return nil
}

func pathProps(p PathPlacement) tile.PathProps {
	props := tile.PathProps{
		Surface:  p.Surface,
		Railings: p.Railings,
		Queue:    p.ConstructFlags&IsQueue != 0,
		Legacy:   p.ConstructFlags&IsLegacyPathObject != 0,
	}
	if p.Slope.Sloped {
		props.Sloped = true
		props.SlopeDirection = p.Slope.Direction & 3
	}
	return props
}

// sameType reports whether an existing path already has the type and slope
// a placement would give it.
func sameType(have, want tile.PathProps) bool {
	return have.Surface == want.Surface && have.Railings == want.Railings &&
		have.Queue == want.Queue && have.Legacy == want.Legacy &&
		have.Sloped == want.Sloped && (!have.Sloped || have.SlopeDirection == want.SlopeDirection)
}

// PlacePath validates, costs and (with Apply) builds a footpath at p.Pos.
func (x *Executor) PlacePath(p PathPlacement, flags Flags) (Result, error) {
	res := Result{Cost: MoneyUndefined, Pos: p.Pos}
	if err := x.checkPaused(flags); err != nil {
		return res, err
	}
	if err := x.checkPos(p.Pos); err != nil {
		return res, fmt.Errorf("place path at %v: %w", p.Pos.Array(), err)
	}
	if err := x.checkPathEntry(p); err != nil {
		return res, fmt.Errorf("place path: %w", err)
	}
	if p.Slope.Irregular {
		return res, fmt.Errorf("place path at %v: %w", p.Pos.Array(), ErrLandSlopeUnsuitable)
	}

	xy := p.Pos.XY()
	surface, _ := x.Map.Surface(xy)
	res.Underground = p.Pos.Z < surface.BaseZ

	props := pathProps(p)
	cost := x.Prices.Path
	existing, found := x.Map.FindPath(xy, p.Pos.Z, false)
	if found && flags.Has(Ghost) {
		return res, fmt.Errorf("place path at %v: %w", p.Pos.Array(), ErrAlreadyBuilt)
	}
	if found && sameType(x.Map.Elements(xy)[existing].Path, props) {
		// Nothing to re-type: a drag across built path is free.
		res.Cost = 0
		return res, nil
	}
	if !found {
		if err := x.checkClearance(xy, p.Pos.Z, p.Pos.Z+PathClearance); err != nil {
			return res, fmt.Errorf("place path at %v: %w", p.Pos.Array(), err)
		}
		if steps := (p.Pos.Z - surface.BaseZ) / tile.PathHeightStep; steps > 0 {
			cost += x.Prices.Support * Money(steps)
		}
	}
	res.Cost = cost
	if !x.canAfford(cost, flags) {
		return res, ErrInsufficientFunds
	}
	if !flags.Has(Apply) {
		return res, nil
	}

	if found {
		// Re-type an existing path in place.
		x.disconnect(xy, p.Pos.Z)
		e := x.Map.Element(xy, existing)
		props.HasAddition = e.Path.HasAddition
		props.Addition = e.Path.Addition
		props.AdditionGhost = e.Path.AdditionGhost
		e.Path = props
		x.Map.MarkDirty(xy)
		x.connect(xy, p.Pos.Z)
	} else {
		ghost := flags.Has(Ghost)
		if _, err := x.Map.Insert(xy, tile.Element{
			Type:       tile.TypePath,
			BaseZ:      p.Pos.Z,
			ClearanceZ: p.Pos.Z + PathClearance,
			Ghost:      ghost,
			Quadrants:  tile.AllQuadrants,
			Path:       props,
		}); err != nil {
			return res, fmt.Errorf("place path: %w", err)
		}
		if !ghost {
			x.connect(xy, p.Pos.Z)
		}
	}
	x.spend(cost, flags)
	x.record("PLACE_PATH", p.Pos, p.Surface, cost, flags)
	return res, nil
}

// checkClearance rejects placements overlapping solid non-ghost elements.
// Surfaces are handled by the underground rule and walls sit on tile edges.
func (x *Executor) checkClearance(xy tile.XY, lo, hi int) error {
	for _, e := range x.Map.Elements(xy) {
		if e.Ghost {
			continue
		}
		switch e.Type {
		case tile.TypeSurface, tile.TypeWall, tile.TypeBanner:
			continue
		}
		if e.Overlaps(lo, hi) {
			return ErrObstructed
		}
	}
	return nil
}

// connect links the non-ghost path at (xy, z) with every neighbour whose
// edge meets it at the same height.
func (x *Executor) connect(xy tile.XY, z int) {
	i, ok := x.Map.FindPath(xy, z, false)
	if !ok {
		return
	}
	self := x.Map.Element(xy, i)
	for d := tile.Direction(0); d < 4; d++ {
		ez, ok := self.Path.EdgeZ(z, d)
		if !ok {
			continue
		}
		n := xy.Step(d)
		els := x.Map.Elements(n)
		for j := range els {
			o := &els[j]
			if o.Type != tile.TypePath || o.Ghost {
				continue
			}
			oz, ok := o.Path.EdgeZ(o.BaseZ, d.Reverse())
			if !ok || oz != ez {
				continue
			}
			self.Path.Edges |= 1 << d
			o.Path.Edges |= 1 << d.Reverse()
			x.Map.MarkDirty(n)
		}
	}
	x.Map.MarkDirty(xy)
}

// disconnect clears the edges of the path at (xy, z) and the matching edges
// of its neighbours.
func (x *Executor) disconnect(xy tile.XY, z int) {
	i, ok := x.Map.FindPath(xy, z, false)
	if !ok {
		return
	}
	self := x.Map.Element(xy, i)
	for d := tile.Direction(0); d < 4; d++ {
		ez, ok := self.Path.EdgeZ(z, d)
		if !ok {
			continue
		}
		n := xy.Step(d)
		els := x.Map.Elements(n)
		for j := range els {
			o := &els[j]
			if o.Type != tile.TypePath || o.Ghost {
				continue
			}
			if oz, ok := o.Path.EdgeZ(o.BaseZ, d.Reverse()); ok && oz == ez {
				o.Path.Edges &^= 1 << d.Reverse()
				x.Map.MarkDirty(n)
			}
		}
	}
	self.Path.Edges = 0
	x.Map.MarkDirty(xy)
}

// RemovePath removes the path whose base is exactly pos.Z. Ghost removals only
// match ghost paths; regular removals only match built ones.
func (x *Executor) RemovePath(pos tile.XYZ, flags Flags) (Result, error) {
	res := Result{Cost: MoneyUndefined, Pos: pos}
	if err := x.checkPaused(flags); err != nil {
		return res, err
	}
	if !x.Map.InBounds(pos.XY()) {
		return res, fmt.Errorf("remove path at %v: %w", pos.Array(), ErrOffEdge)
	}
	ghost := flags.Has(Ghost)
	i, ok := x.Map.FindPath(pos.XY(), pos.Z, ghost)
	if !ok {
		return res, fmt.Errorf("remove path at %v: %w", pos.Array(), ErrNotFound)
	}
	res.Cost = 0
	if !ghost {
		res.Cost = -x.Prices.PathRefund
	}
	if !flags.Has(Apply) {
		return res, nil
	}
	entry := x.Map.Element(pos.XY(), i).Path.Surface
	if !ghost {
		x.disconnect(pos.XY(), pos.Z)
		i, _ = x.Map.FindPath(pos.XY(), pos.Z, false)
	}
	if err := x.Map.RemoveAt(pos.XY(), i); err != nil {
		return res, fmt.Errorf("remove path: %w", err)
	}
	x.spend(res.Cost, flags)
	x.record("REMOVE_PATH", pos, entry, res.Cost, flags)
	return res, nil
}
