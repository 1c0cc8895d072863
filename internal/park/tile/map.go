package tile

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
)

type Tile struct {
	Elements []Element

	dirty bool
	hash  [32]byte
}

func (t *Tile) Digest() [32]byte {
	if t.dirty || t.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [8]byte
		put := func(v int) {
			binary.LittleEndian.PutUint64(tmp[:], uint64(int64(v)))
			h.Write(tmp[:])
		}
		for _, e := range t.Elements {
			put(int(e.Type))
			put(e.BaseZ)
			put(e.ClearanceZ)
			if e.Ghost {
				put(1)
			} else {
				put(0)
			}
			put(int(e.Quadrants))
			put(e.Entry)
			put(int(e.Direction))
			put(int(e.Age))
			put(int(e.Quadrant))
			put(int(e.Surface.Slope))
			put(e.Path.Surface)
			put(e.Path.Railings)
			put(int(e.Path.SlopeDirection))
			put(int(e.Path.Edges))
			put(e.Path.Addition)
			var flags int
			for i, b := range []bool{e.Path.Queue, e.Path.Legacy, e.Path.Sloped, e.Path.HasAddition, e.Path.AdditionGhost} {
				if b {
					flags |= 1 << i
				}
			}
			put(flags)
		}
		copy(t.hash[:], h.Sum(nil))
		t.dirty = false
	}
	return t.hash
}

// Map is a square grid of tiles stored as one arena indexed by y*size+x.
// Each tile keeps its elements ordered bottom-up by BaseZ.
type Map struct {
	size  int
	tiles []Tile
}

// NewMap builds a flat map with a surface element at baseZ on every tile.
func NewMap(size, baseZ int) *Map {
	if size <= 0 {
		size = 1
	}
	m := &Map{
		size:  size,
		tiles: make([]Tile, size*size),
	}
	for i := range m.tiles {
		m.tiles[i].Elements = []Element{{
			Type:       TypeSurface,
			BaseZ:      baseZ,
			ClearanceZ: baseZ,
		}}
		m.tiles[i].dirty = true
	}
	return m
}

func (m *Map) Size() int { return m.size }

func (m *Map) InBounds(p XY) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.size && p.Y < m.size
}

func (m *Map) index(p XY) int { return p.Y*m.size + p.X }

// Tile returns nil for out of bounds positions.
func (m *Map) Tile(p XY) *Tile {
	if !m.InBounds(p) {
		return nil
	}
	return &m.tiles[m.index(p)]
}

// Elements returns the live element slice for a tile. Callers may modify
// elements in place but must use Insert/RemoveAt to change the list.
func (m *Map) Elements(p XY) []Element {
	t := m.Tile(p)
	if t == nil {
		return nil
	}
	return t.Elements
}

// Element returns a pointer into the tile's element list.
func (m *Map) Element(p XY, i int) *Element {
	t := m.Tile(p)
	if t == nil || i < 0 || i >= len(t.Elements) {
		return nil
	}
	return &t.Elements[i]
}

func (m *Map) MarkDirty(p XY) {
	if t := m.Tile(p); t != nil {
		t.dirty = true
	}
}

// Insert places e after every element with BaseZ <= e.BaseZ and returns its index.
func (m *Map) Insert(p XY, e Element) (int, error) {
	t := m.Tile(p)
	if t == nil {
		return -1, fmt.Errorf("insert %v: out of bounds", p)
	}
	i := sort.Search(len(t.Elements), func(i int) bool { return t.Elements[i].BaseZ > e.BaseZ })
	t.Elements = append(t.Elements, Element{})
	copy(t.Elements[i+1:], t.Elements[i:])
	t.Elements[i] = e
	t.dirty = true
	return i, nil
}

func (m *Map) RemoveAt(p XY, i int) error {
	t := m.Tile(p)
	if t == nil {
		return fmt.Errorf("remove %v: out of bounds", p)
	}
	if i < 0 || i >= len(t.Elements) {
		return fmt.Errorf("remove %v: bad element index %d", p, i)
	}
	t.Elements = append(t.Elements[:i], t.Elements[i+1:]...)
	t.dirty = true
	return nil
}

// Surface returns the tile's surface element.
func (m *Map) Surface(p XY) (Element, bool) {
	for _, e := range m.Elements(p) {
		if e.Type == TypeSurface {
			return e, true
		}
	}
	return Element{}, false
}

// SetSurface reshapes the surface of a tile.
func (m *Map) SetSurface(p XY, baseZ int, slope uint8) {
	t := m.Tile(p)
	if t == nil {
		return
	}
	for i := range t.Elements {
		if t.Elements[i].Type != TypeSurface {
			continue
		}
		t.Elements[i].BaseZ = baseZ
		t.Elements[i].ClearanceZ = baseZ
		t.Elements[i].Surface.Slope = slope
		t.dirty = true
	}
	sort.SliceStable(t.Elements, func(i, j int) bool { return t.Elements[i].BaseZ < t.Elements[j].BaseZ })
}

// FindPath returns the index of the path whose base sits at z.
func (m *Map) FindPath(p XY, z int, ghost bool) (int, bool) {
	for i, e := range m.Elements(p) {
		if e.Type == TypePath && e.BaseZ == z && e.Ghost == ghost {
			return i, true
		}
	}
	return -1, false
}

// Count reports how many elements of the given type exist (ghosts included).
func (m *Map) Count(t ElementType) int {
	n := 0
	for i := range m.tiles {
		for _, e := range m.tiles[i].Elements {
			if e.Type == t {
				n++
			}
		}
	}
	return n
}

// Positions lists every tile position in sweep order (row-major).
func (m *Map) Positions() []XY {
	out := make([]XY, 0, len(m.tiles))
	for y := 0; y < m.size; y++ {
		for x := 0; x < m.size; x++ {
			out = append(out, XY{X: x, Y: y})
		}
	}
	return out
}

// PositionAt maps a sweep cursor onto a tile position.
func (m *Map) PositionAt(cursor int) XY {
	n := len(m.tiles)
	i := ((cursor % n) + n) % n
	return XY{X: i % m.size, Y: i / m.size}
}

func (m *Map) Digest() string {
	h := sha256.New()
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(m.size))
	h.Write(tmp[:])
	for i := range m.tiles {
		d := m.tiles[i].Digest()
		h.Write(d[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TileState is the exported form of one non-trivial tile.
type TileState struct {
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Elements []Element `json:"elements"`
}

// Export returns every tile, including plain surfaces, in sweep order.
func (m *Map) Export() []TileState {
	out := make([]TileState, 0, len(m.tiles))
	for i := range m.tiles {
		p := m.PositionAt(i)
		els := make([]Element, len(m.tiles[i].Elements))
		copy(els, m.tiles[i].Elements)
		out = append(out, TileState{X: p.X, Y: p.Y, Elements: els})
	}
	return out
}

func Import(size int, tiles []TileState) (*Map, error) {
	if size <= 0 {
		return nil, fmt.Errorf("import: bad map size %d", size)
	}
	m := &Map{size: size, tiles: make([]Tile, size*size)}
	for _, ts := range tiles {
		p := XY{X: ts.X, Y: ts.Y}
		if !m.InBounds(p) {
			return nil, fmt.Errorf("import: tile %v outside %dx%d map", p, size, size)
		}
		els := make([]Element, len(ts.Elements))
		copy(els, ts.Elements)
		sort.SliceStable(els, func(i, j int) bool { return els[i].BaseZ < els[j].BaseZ })
		t := &m.tiles[m.index(p)]
		t.Elements = els
		t.dirty = true
	}
	return m, nil
}

// AddHill raises a square plateau of half-width r around c by one path step
// and slopes the ring of tiles around it so paths can climb onto it.
// Corner bits: N sits at (+X,+Y), E at (+X,-Y), S at (-X,-Y), W at (-X,+Y).
func (m *Map) AddHill(c XY, r int) {
	if r < 0 {
		return
	}
	base, ok := m.Surface(c)
	if !ok {
		return
	}
	z := base.BaseZ
	for y := c.Y - r - 1; y <= c.Y+r+1; y++ {
		for x := c.X - r - 1; x <= c.X+r+1; x++ {
			p := XY{X: x, Y: y}
			if !m.InBounds(p) {
				continue
			}
			dx, dy := 0, 0
			switch {
			case x < c.X-r:
				dx = -1
			case x > c.X+r:
				dx = 1
			}
			switch {
			case y < c.Y-r:
				dy = -1
			case y > c.Y+r:
				dy = 1
			}
			if dx == 0 && dy == 0 {
				m.SetSurface(p, z+PathHeightStep, 0)
				continue
			}
			// Raise the corners that face the plateau.
			var corners uint8
			for _, cn := range []struct {
				bit    uint8
				cx, cy int
			}{{CornerN, 1, 1}, {CornerE, 1, -1}, {CornerS, -1, -1}, {CornerW, -1, 1}} {
				if (dx == 0 || cn.cx == -dx) && (dy == 0 || cn.cy == -dy) {
					corners |= cn.bit
				}
			}
			m.SetSurface(p, z, corners)
		}
	}
}
