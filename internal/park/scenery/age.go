package scenery

import (
	"parkcraft.io/internal/park/climate"
	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/tile"
)

// Plants wither visibly when their age reaches these values.
const (
	WitherAge1 = 40
	WitherAge2 = 55

	// MinWaterAge is the age below which plants never need watering.
	MinWaterAge = 5
)

// Invalidator is told when part of a tile needs redrawing.
type Invalidator interface {
	InvalidateTile(xy tile.XY, lo, hi int)
}

// FountainStarter starts jumping fountain animations.
type FountainStarter interface {
	StartFountain(xy tile.XY, z int, snow bool)
}

type Cheats struct {
	DisablePlantAging bool `yaml:"disable_plant_aging" json:"disable_plant_aging"`
	IgnoreResearch    bool `yaml:"ignore_research" json:"ignore_research"`
	Sandbox           bool `yaml:"sandbox" json:"sandbox"`
}

// Updater ages small scenery and triggers path fountains tile by tile.
type Updater struct {
	Map     *tile.Map
	Catalog *objects.Catalog
	Weather climate.Weather
	Cheats  Cheats
	// Networked makes ghosts invisible to the update, as they only exist
	// for the client that placed them.
	Networked bool

	Invalidator Invalidator
	Fountains   FountainStarter
}

func (u *Updater) invalidate(xy tile.XY, lo, hi int) {
	if u.Invalidator != nil {
		u.Invalidator.InvalidateTile(xy, lo, hi)
	}
}

// UpdateTile runs the scenery update for every element on a tile.
func (u *Updater) UpdateTile(xy tile.XY) {
	els := u.Map.Elements(xy)
	for i := 0; i < len(els); i++ {
		e := els[i]
		if u.Networked && e.Ghost {
			continue
		}
		switch e.Type {
		case tile.TypeSmallScenery:
			u.UpdateAge(xy, i)
		case tile.TypePath:
			if !e.Path.HasAddition || e.Path.AdditionGhost {
				continue
			}
			def, ok := u.Catalog.PathAddition(e.Path.Addition)
			if !ok || u.Fountains == nil {
				continue
			}
			if def.JumpingFountainWater {
				u.Fountains.StartFountain(xy, e.BaseZ, false)
			} else if def.JumpingFountainSnow {
				u.Fountains.StartFountain(xy, e.BaseZ, true)
			}
		}
	}
}

// UpdateAge ages the small scenery element at index i, or waters it when it
// is rained on.
func (u *Updater) UpdateAge(xy tile.XY, i int) {
	els := u.Map.Elements(xy)
	if i < 0 || i >= len(els) || els[i].Type != tile.TypeSmallScenery {
		return
	}
	def, ok := u.Catalog.Small(els[i].Entry)
	if !ok {
		return
	}
	if u.Cheats.DisablePlantAging && def.CanBeWatered {
		return
	}
	if !def.CanBeWatered || u.Weather.IsDry() || els[i].Age < MinWaterAge {
		u.IncreaseAge(xy, i)
		return
	}

	// Look for cover above the plant. The scan starts at the plant itself and
	// stops at the first element occupying a quadrant, so a plant that
	// occupies its own quadrant is always watered.
	for above := i; els[above].OccupiedQuadrants() == 0; {
		above++
		if above >= len(els) {
			break
		}
		a := els[above]
		if a.Ghost {
			continue
		}
		switch a.Type {
		case tile.TypeLargeScenery, tile.TypeEntrance, tile.TypePath:
			u.invalidate(xy, a.BaseZ, a.ClearanceZ)
			u.IncreaseAge(xy, i)
			return
		case tile.TypeSmallScenery:
			if d, ok := u.Catalog.Small(a.Entry); ok && d.VOffsetCentre {
				u.IncreaseAge(xy, i)
				return
			}
		}
	}

	els[i].Age = 0
	u.Map.MarkDirty(xy)
	u.invalidate(xy, els[i].BaseZ, els[i].ClearanceZ)
}

// IncreaseAge ages a plant by one, saturating at 255. Ghosts do not age.
func (u *Updater) IncreaseAge(xy tile.XY, i int) {
	e := u.Map.Element(xy, i)
	if e == nil || e.Ghost || e.Age == 255 {
		return
	}
	e.Age++
	u.Map.MarkDirty(xy)
	if e.Age != WitherAge1 && e.Age != WitherAge2 {
		return
	}
	if def, ok := u.Catalog.Small(e.Entry); ok && def.CanWither {
		u.invalidate(xy, e.BaseZ, e.ClearanceZ)
	}
}
