package tool

import "parkcraft.io/internal/park/tile"

// Buttons is the pressed/enabled view of the tool window controls. Direction
// buttons are indexed by screen direction.
type Buttons struct {
	LandPressed      bool    `json:"land_pressed"`
	BridgePressed    bool    `json:"bridge_pressed"`
	DirectionPressed int     `json:"direction_pressed"`
	SlopePressed     Slope   `json:"slope_pressed"`
	DirectionEnabled [4]bool `json:"direction_enabled"`
	SlopeEnabled     bool    `json:"slope_enabled"`
	ConstructEnabled bool    `json:"construct_enabled"`
	RemoveEnabled    bool    `json:"remove_enabled"`
}

func (c *Controller) Buttons() Buttons {
	b := Buttons{
		LandPressed:      c.mode == ModeLand,
		BridgePressed:    c.mode == ModeBridgeTool || c.mode == ModeBridge,
		DirectionPressed: -1,
	}
	if c.mode != ModeBridge {
		return b
	}
	b.DirectionPressed = int(tile.Dir(int(c.dir) + c.rotation))
	b.SlopePressed = c.slope
	b.SlopeEnabled = true
	b.ConstructEnabled = true
	b.RemoveEnabled = true
	if c.valid == tile.InvalidDirection {
		b.DirectionEnabled = [4]bool{true, true, true, true}
	} else {
		b.DirectionEnabled[tile.Dir(int(c.valid)+c.rotation)] = true
	}
	return b
}
