package tool

import (
	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/tile"
)

// State is a read-only copy of the controller for clients and logs.
type State struct {
	Mode            string         `json:"mode"`
	Direction       tile.Direction `json:"direction"`
	Slope           string         `json:"slope"`
	ValidDirections tile.Direction `json:"valid_directions"`
	From            tile.XYZ       `json:"from"`
	// Cost is nil while unknown.
	Cost          *int64      `json:"cost"`
	ErrorOccurred bool        `json:"error_occurred"`
	LastError     string      `json:"last_error,omitempty"`
	Rotation      int         `json:"rotation"`
	Underground   bool        `json:"underground"`
	Provisional   Provisional `json:"provisional"`
	Marker        Marker      `json:"marker"`
	Selection     Selection   `json:"selection"`
	Buttons       Buttons     `json:"buttons"`
}

func (c *Controller) State() State {
	st := State{
		Mode:            c.mode.String(),
		Direction:       c.dir,
		Slope:           c.slope.String(),
		ValidDirections: c.valid,
		From:            c.from,
		ErrorOccurred:   c.errorOccurred,
		Rotation:        c.rotation,
		Underground:     c.underground,
		Provisional:     c.prov,
		Marker:          c.marker,
		Selection:       *c.sel,
		Buttons:         c.Buttons(),
	}
	if c.cost != actions.MoneyUndefined {
		v := int64(c.cost)
		st.Cost = &v
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}
