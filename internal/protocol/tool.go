package protocol

import "parkcraft.io/internal/park/tool"

// Path tool operations carried by TOOL.
const (
	OpOpen             = "OPEN"
	OpClose            = "CLOSE"
	OpLandMode         = "LAND_MODE"
	OpBridgeMode       = "BRIDGE_MODE"
	OpPointerMove      = "POINTER_MOVE"
	OpPointerDown      = "POINTER_DOWN"
	OpPointerDrag      = "POINTER_DRAG"
	OpPointerUp        = "POINTER_UP"
	OpSelectDirection  = "SELECT_DIRECTION"
	OpSelectSlope      = "SELECT_SLOPE"
	OpConstruct        = "CONSTRUCT"
	OpRemove           = "REMOVE"
	OpTurnLeft         = "TURN_LEFT"
	OpTurnRight        = "TURN_RIGHT"
	OpSlopeUp          = "SLOPE_UP"
	OpSlopeDown        = "SLOPE_DOWN"
	OpDemolishCurrent  = "DEMOLISH_CURRENT"
	OpBuildCurrent     = "BUILD_CURRENT"
	OpSelectSurface    = "SELECT_SURFACE"
	OpSelectLegacyPath = "SELECT_LEGACY_PATH"
	OpSelectRailings   = "SELECT_RAILINGS"
	OpRotateCamera     = "ROTATE_CAMERA"
)

// Scenery tool operations carried by SCENERY.
const (
	OpGhost      = "GHOST"
	OpClearGhost = "CLEAR_GHOST"
	OpPlace      = "PLACE"
)

// TOOL (client -> server). Fields are read according to Op.
type ToolMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Op              string `json:"op"`

	Screen    [2]int `json:"screen,omitempty"`
	Direction int    `json:"direction,omitempty"`
	Slope     string `json:"slope,omitempty"`
	Entry     int    `json:"entry,omitempty"`
	Queue     bool   `json:"queue,omitempty"`
	Rotation  int    `json:"rotation,omitempty"`
}

type ObjectRef struct {
	// Type is SMALL, PATH_ITEM, WALL, LARGE or BANNER.
	Type string `json:"type"`
	ID   string `json:"id"`
}

// SCENERY (client -> server)
type SceneryMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	ID              string    `json:"id"`
	Op              string    `json:"op"`
	Object          ObjectRef `json:"object,omitempty"`
	Pos             [3]int    `json:"pos,omitempty"`
	Quadrant        int       `json:"quadrant,omitempty"`
	Rotation        int       `json:"rotation,omitempty"`
}

// STATE (server -> client)
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	SessionID       string `json:"session_id"`
	Weather         string `json:"weather"`

	// Cash is omitted in no-money parks.
	Cash    *int64       `json:"cash,omitempty"`
	Tool    tool.State   `json:"tool"`
	Scenery SceneryGhost `json:"scenery"`
}

type SceneryGhost struct {
	Flags  uint8     `json:"flags"`
	Pos    [3]int    `json:"pos"`
	Object ObjectRef `json:"object,omitempty"`
	Cost   *int64    `json:"cost"`
}
