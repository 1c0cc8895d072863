package tool

import (
	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/tile"
)

// Slope is the construction slope picked in bridge mode.
type Slope uint8

const (
	SlopeLevel Slope = iota
	SlopeUp
	SlopeDown
)

func (s Slope) String() string {
	switch s {
	case SlopeUp:
		return "UP"
	case SlopeDown:
		return "DOWN"
	default:
		return "LEVEL"
	}
}

func ParseSlope(s string) (Slope, bool) {
	switch s {
	case "LEVEL":
		return SlopeLevel, true
	case "UP":
		return SlopeUp, true
	case "DOWN":
		return SlopeDown, true
	}
	return 0, false
}

type landSlope struct {
	slope actions.PathSlope
	raise bool
}

func sloped(d tile.Direction) landSlope {
	return landSlope{slope: actions.PathSlope{Sloped: true, Direction: d}}
}

var (
	flat      = landSlope{}
	irregular = landSlope{slope: actions.PathSlope{Irregular: true}}
	raise     = landSlope{raise: true}
)

// defaultPathSlope maps the raised-corner mask of a surface to the path slope
// that fits it. Three raised corners put a flat path one step higher.
var defaultPathSlope = [16]landSlope{
	flat, irregular, irregular, sloped(2),
	irregular, irregular, sloped(3), raise,
	irregular, sloped(1), irregular, raise,
	sloped(0), raise, raise, irregular,
}

// DefaultPathSlope returns the slope for a path laid on a surface with the
// given slope bits, and whether the path must be raised by one step.
func DefaultPathSlope(surfaceSlope uint8) (actions.PathSlope, bool) {
	s := defaultPathSlope[surfaceSlope&tile.CornersMask]
	return s.slope, s.raise
}
