package tile

// Height units. One land step is ZStep; footpaths rise by PathHeightStep per slope.
const (
	ZStep          = 8
	PathHeightStep = 16
	MaxZ           = 255 * ZStep

	// Tile size in map units (world coords); screen picking uses the same scale.
	Size = 32
)

// Direction is a map-relative heading. 0 = -X, 1 = +Y, 2 = +X, 3 = -Y.
type Direction uint8

const InvalidDirection Direction = 0xFF

// Delta holds the tile offset for each direction.
var Delta = [4]XY{
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 1, Y: 0},
	{X: 0, Y: -1},
}

// Dir folds any integer into a direction (modulo 4, negatives included).
func Dir(v int) Direction { return Direction(v & 3) }

func (d Direction) Valid() bool { return d < 4 }

func (d Direction) Reverse() Direction { return d ^ 2 }

type XY struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p XY) Step(d Direction) XY {
	dd := Delta[d&3]
	return XY{X: p.X + dd.X, Y: p.Y + dd.Y}
}

func (p XY) Back(d Direction) XY {
	dd := Delta[d&3]
	return XY{X: p.X - dd.X, Y: p.Y - dd.Y}
}

func (p XY) WithZ(z int) XYZ { return XYZ{X: p.X, Y: p.Y, Z: z} }

type XYZ struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (p XYZ) XY() XY { return XY{X: p.X, Y: p.Y} }

func (p XYZ) Array() [3]int { return [3]int{p.X, p.Y, p.Z} }
