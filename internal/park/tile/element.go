package tile

type ElementType uint8

const (
	TypeSurface ElementType = iota + 1
	TypePath
	TypeSmallScenery
	TypeLargeScenery
	TypeWall
	TypeEntrance
	TypeBanner
)

func (t ElementType) String() string {
	switch t {
	case TypeSurface:
		return "SURFACE"
	case TypePath:
		return "PATH"
	case TypeSmallScenery:
		return "SMALL_SCENERY"
	case TypeLargeScenery:
		return "LARGE_SCENERY"
	case TypeWall:
		return "WALL"
	case TypeEntrance:
		return "ENTRANCE"
	case TypeBanner:
		return "BANNER"
	default:
		return "UNKNOWN"
	}
}

// Surface slope bits: one per raised corner, plus a steep flag.
const (
	CornerN      uint8 = 1 << 0
	CornerE      uint8 = 1 << 1
	CornerS      uint8 = 1 << 2
	CornerW      uint8 = 1 << 3
	CornersMask  uint8 = 0x0F
	DoubleHeight uint8 = 1 << 4
)

// AllQuadrants marks an element that fills the whole tile footprint.
const AllQuadrants uint8 = 0x0F

type SurfaceProps struct {
	Slope uint8 `json:"slope"`
}

func (s SurfaceProps) Corners() uint8 { return s.Slope & CornersMask }
func (s SurfaceProps) Steep() bool    { return s.Slope&DoubleHeight != 0 }

type PathProps struct {
	Surface  int  `json:"surface"`
	Railings int  `json:"railings"`
	Queue    bool `json:"queue,omitempty"`
	Legacy   bool `json:"legacy,omitempty"`

	Sloped         bool      `json:"sloped,omitempty"`
	SlopeDirection Direction `json:"slope_direction"`
	Edges          uint8     `json:"edges"`

	HasAddition   bool `json:"has_addition,omitempty"`
	Addition      int  `json:"addition,omitempty"`
	AdditionGhost bool `json:"addition_ghost,omitempty"`
}

func (p PathProps) Connected(d Direction) bool { return p.Edges&(1<<(d&3)) != 0 }

// EdgeZ reports the height at which the path meets the given edge. Sloped
// paths only connect along their slope axis.
func (p PathProps) EdgeZ(baseZ int, d Direction) (int, bool) {
	if !p.Sloped {
		return baseZ, true
	}
	switch d & 3 {
	case p.SlopeDirection:
		return baseZ + PathHeightStep, true
	case p.SlopeDirection.Reverse():
		return baseZ, true
	default:
		return 0, false
	}
}

// Element is one layer on a tile. Only the props matching Type are meaningful.
type Element struct {
	Type       ElementType `json:"type"`
	BaseZ      int         `json:"base_z"`
	ClearanceZ int         `json:"clearance_z"`
	Ghost      bool        `json:"ghost,omitempty"`
	Quadrants  uint8       `json:"quadrants"`

	// Object entry index for scenery, walls, banners and entrances.
	Entry     int       `json:"entry,omitempty"`
	Direction Direction `json:"direction,omitempty"`

	// Small scenery only.
	Age      uint8 `json:"age,omitempty"`
	Quadrant uint8 `json:"quadrant,omitempty"`

	Surface SurfaceProps `json:"surface"`
	Path    PathProps    `json:"path"`
}

func (e Element) OccupiedQuadrants() uint8 { return e.Quadrants & AllQuadrants }

func (e Element) Overlaps(lo, hi int) bool {
	return e.BaseZ < hi && lo < e.ClearanceZ
}
