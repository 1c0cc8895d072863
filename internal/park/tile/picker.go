package tile

// ScreenXY is a pointer position in viewport pixels. The viewport is a
// top-down projection of the map, Size pixels per tile, rotated by the camera.
type ScreenXY struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type PickKind uint8

const (
	PickNone PickKind = iota
	PickTerrain
	PickFootpath
)

func (k PickKind) String() string {
	switch k {
	case PickTerrain:
		return "TERRAIN"
	case PickFootpath:
		return "FOOTPATH"
	default:
		return "NONE"
	}
}

type Pick struct {
	Kind    PickKind
	Index   int
	Element Element
	Loc     XY
}

// Picker resolves viewport coordinates against a map.
type Picker struct {
	Map      *Map
	Rotation int
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// screenToWorld undoes the camera rotation. A rotation of one quarter turn
// shows world (x, y) at screen (y, n-1-x).
func (p Picker) screenToWorld(s XY) XY {
	n := p.Map.Size()
	out := s
	for i := 0; i < p.Rotation&3; i++ {
		out = XY{X: n - 1 - out.Y, Y: out.X}
	}
	return out
}

func (p Picker) locate(s ScreenXY) (XY, int, int, bool) {
	if p.Map == nil {
		return XY{}, 0, 0, false
	}
	st := XY{X: floorDiv(s.X, Size), Y: floorDiv(s.Y, Size)}
	px := s.X - st.X*Size
	py := s.Y - st.Y*Size
	loc := p.screenToWorld(st)
	if !p.Map.InBounds(loc) {
		return XY{}, 0, 0, false
	}
	return loc, px, py, true
}

// ResolveScreenPosition finds the topmost pickable element under the pointer:
// the highest non-ghost footpath, or the terrain surface.
func (p Picker) ResolveScreenPosition(s ScreenXY) Pick {
	loc, _, _, ok := p.locate(s)
	if !ok {
		return Pick{Kind: PickNone}
	}
	els := p.Map.Elements(loc)
	surface := -1
	for i := len(els) - 1; i >= 0; i-- {
		e := els[i]
		if e.Ghost {
			continue
		}
		if e.Type == TypePath {
			return Pick{Kind: PickFootpath, Index: i, Element: e, Loc: loc}
		}
		if e.Type == TypeSurface && surface < 0 {
			surface = i
		}
	}
	if surface < 0 {
		return Pick{Kind: PickNone}
	}
	return Pick{Kind: PickTerrain, Index: surface, Element: els[surface], Loc: loc}
}

// BridgeInfo resolves the pointer like ResolveScreenPosition and also reports
// the world direction of the tile edge nearest to the pointer.
func (p Picker) BridgeInfo(s ScreenXY) (Pick, Direction, bool) {
	_, px, py, ok := p.locate(s)
	if !ok {
		return Pick{Kind: PickNone}, InvalidDirection, false
	}
	pick := p.ResolveScreenPosition(s)
	if pick.Kind == PickNone {
		return pick, InvalidDirection, false
	}
	// Screen edges use the same numbering as world directions.
	dist := [4]int{px, Size - 1 - py, Size - 1 - px, py}
	sd := 0
	for i := 1; i < 4; i++ {
		if dist[i] < dist[sd] {
			sd = i
		}
	}
	return pick, Dir(sd - p.Rotation), true
}

// WorldToScreen returns the pixel at the centre of a tile for the given rotation.
func (p Picker) WorldToScreen(w XY) ScreenXY {
	n := p.Map.Size()
	out := w
	for i := 0; i < p.Rotation&3; i++ {
		out = XY{X: out.Y, Y: n - 1 - out.X}
	}
	return ScreenXY{X: out.X*Size + Size/2, Y: out.Y*Size + Size/2}
}
