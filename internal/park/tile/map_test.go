package tile

import "testing"

func TestDirectionWrapsModuloFour(t *testing.T) {
	for _, v := range []int{-9, -5, -4, -1, 0, 1, 3, 4, 7, 1000} {
		d := Dir(v)
		if !d.Valid() {
			t.Fatalf("Dir(%d)=%d not valid", v, d)
		}
		if int(d) != ((v%4)+4)%4 {
			t.Fatalf("Dir(%d)=%d", v, d)
		}
	}
	for d := Direction(0); d < 4; d++ {
		if d.Reverse().Reverse() != d {
			t.Fatalf("reverse not involutive for %d", d)
		}
		p := XY{X: 5, Y: 5}
		if p.Step(d).Back(d) != p {
			t.Fatalf("step/back mismatch for %d", d)
		}
		if p.Step(d).Step(d.Reverse()) != p {
			t.Fatalf("reverse step mismatch for %d", d)
		}
	}
}

func TestMapInsertKeepsOrder(t *testing.T) {
	m := NewMap(4, 16)
	p := XY{X: 1, Y: 2}
	if _, err := m.Insert(p, Element{Type: TypePath, BaseZ: 48, ClearanceZ: 80}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := m.Insert(p, Element{Type: TypePath, BaseZ: 32, ClearanceZ: 64}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	i, err := m.Insert(p, Element{Type: TypeSmallScenery, BaseZ: 32, ClearanceZ: 48})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if i != 2 {
		t.Fatalf("expected scenery after same-height path, got index %d", i)
	}
	els := m.Elements(p)
	for j := 1; j < len(els); j++ {
		if els[j-1].BaseZ > els[j].BaseZ {
			t.Fatalf("elements out of order: %+v", els)
		}
	}
	if _, err := m.Insert(XY{X: 4, Y: 0}, Element{Type: TypePath}); err == nil {
		t.Fatalf("expected out of bounds insert to fail")
	}
	if idx, ok := m.FindPath(p, 48, false); !ok || els[idx].BaseZ != 48 {
		t.Fatalf("FindPath(48)=%d,%v", idx, ok)
	}
	if err := m.RemoveAt(p, 99); err == nil {
		t.Fatalf("expected bad index to fail")
	}
}

func TestMapDigestTracksChanges(t *testing.T) {
	m := NewMap(3, 16)
	d0 := m.Digest()
	p := XY{X: 2, Y: 2}
	i, _ := m.Insert(p, Element{Type: TypePath, BaseZ: 16, ClearanceZ: 48})
	d1 := m.Digest()
	if d0 == d1 {
		t.Fatalf("digest did not change after insert")
	}
	if err := m.RemoveAt(p, i); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.Digest() != d0 {
		t.Fatalf("digest did not return to original after remove")
	}

	m.Element(p, 0).Surface.Slope = CornerN
	m.MarkDirty(p)
	if m.Digest() == d0 {
		t.Fatalf("digest ignored in-place edit after MarkDirty")
	}
}

func TestMapExportImportRoundTrip(t *testing.T) {
	m := NewMap(5, 16)
	m.AddHill(XY{X: 2, Y: 2}, 0)
	_, _ = m.Insert(XY{X: 0, Y: 0}, Element{Type: TypePath, BaseZ: 16, ClearanceZ: 48, Path: PathProps{Surface: 1, Edges: 0x5}})

	m2, err := Import(m.Size(), m.Export())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if m.Digest() != m2.Digest() {
		t.Fatalf("digest mismatch after import")
	}
	if _, err := Import(2, []TileState{{X: 3, Y: 0}}); err == nil {
		t.Fatalf("expected out of bounds tile rejected")
	}
}

func TestAddHillSlopesFacePlateau(t *testing.T) {
	m := NewMap(7, 16)
	m.AddHill(XY{X: 3, Y: 3}, 1)

	top, _ := m.Surface(XY{X: 3, Y: 3})
	if top.BaseZ != 32 || top.Surface.Corners() != 0 {
		t.Fatalf("plateau surface: %+v", top.Surface)
	}
	cases := []struct {
		p    XY
		want uint8
	}{
		{XY{X: 1, Y: 3}, CornerN | CornerE}, // -X side climbs toward +X
		{XY{X: 5, Y: 3}, CornerS | CornerW},
		{XY{X: 3, Y: 1}, CornerN | CornerW},
		{XY{X: 3, Y: 5}, CornerE | CornerS},
		{XY{X: 1, Y: 1}, CornerN},
		{XY{X: 0, Y: 0}, 0},
	}
	for _, tc := range cases {
		s, ok := m.Surface(tc.p)
		if !ok {
			t.Fatalf("no surface at %v", tc.p)
		}
		if s.Surface.Corners() != tc.want {
			t.Fatalf("%v corners=%04b want %04b", tc.p, s.Surface.Corners(), tc.want)
		}
	}
}

func TestPathEdgeZ(t *testing.T) {
	flat := PathProps{}
	for d := Direction(0); d < 4; d++ {
		if z, ok := flat.EdgeZ(40, d); !ok || z != 40 {
			t.Fatalf("flat edge %d: %d %v", d, z, ok)
		}
	}
	up := PathProps{Sloped: true, SlopeDirection: 2}
	if z, ok := up.EdgeZ(40, 2); !ok || z != 56 {
		t.Fatalf("high edge: %d %v", z, ok)
	}
	if z, ok := up.EdgeZ(40, 0); !ok || z != 40 {
		t.Fatalf("low edge: %d %v", z, ok)
	}
	if _, ok := up.EdgeZ(40, 1); ok {
		t.Fatalf("side edge of a sloped path must not connect")
	}
}
