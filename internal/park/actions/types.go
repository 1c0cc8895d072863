package actions

import (
	"errors"
	"math"

	"parkcraft.io/internal/park/tile"
)

// Flags modify how an action executes.
type Flags uint8

const (
	// Apply commits the action. Without it the action is only validated and costed.
	Apply Flags = 1 << iota
	// Ghost marks the result as a provisional preview element.
	Ghost
	// NoSpend leaves park cash untouched.
	NoSpend
	// AllowDuringPaused lets the action run while the game is paused.
	AllowDuringPaused
)

func (f Flags) Has(o Flags) bool { return f&o == o }

// Money is in the smallest currency unit.
type Money int64

// MoneyUndefined marks an unknown cost.
const MoneyUndefined Money = math.MinInt64

func (m Money) Defined() bool { return m != MoneyUndefined }

// PathSlope describes the slope a footpath is placed with.
type PathSlope struct {
	Sloped    bool           `json:"sloped"`
	Direction tile.Direction `json:"direction"`
	// Irregular marks land that no path slope fits.
	Irregular bool `json:"irregular,omitempty"`
}

type ConstructFlags uint8

const (
	IsQueue ConstructFlags = 1 << iota
	// IsLegacyPathObject means Surface refers to a legacy path entry.
	IsLegacyPathObject
)

type PathPlacement struct {
	Pos            tile.XYZ
	Slope          PathSlope
	Surface        int
	Railings       int
	Direction      tile.Direction
	ConstructFlags ConstructFlags
}

type Result struct {
	Cost        Money
	Pos         tile.XYZ
	Underground bool
}

var (
	ErrOffEdge             = errors.New("off edge of map")
	ErrTooLow              = errors.New("too low")
	ErrTooHigh             = errors.New("too high")
	ErrPaused              = errors.New("not allowed while paused")
	ErrLandSlopeUnsuitable = errors.New("land slope unsuitable")
	ErrInvalidEntry        = errors.New("object entry not loaded")
	ErrObstructed          = errors.New("obstructed")
	ErrAlreadyBuilt        = errors.New("already built")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNotFound            = errors.New("element not found")
)

// Prices configures construction costs.
type Prices struct {
	Path        Money `yaml:"path"`
	PathRefund  Money `yaml:"path_refund"`
	Support     Money `yaml:"support"`
	Scenery     Money `yaml:"scenery"`
	ScenerySell Money `yaml:"scenery_refund"`
}

func DefaultPrices() Prices {
	return Prices{
		Path:        120,
		PathRefund:  90,
		Support:     50,
		Scenery:     80,
		ScenerySell: 40,
	}
}

// Audit is one applied, non-ghost action.
type Audit struct {
	Action string   `json:"action"`
	Pos    tile.XYZ `json:"pos"`
	Entry  int      `json:"entry"`
	Cost   Money    `json:"cost"`
	Cash   Money    `json:"cash"`
}

type Recorder interface {
	RecordAction(a Audit)
}
