package tile

import "testing"

func TestPickerRotationRoundTrip(t *testing.T) {
	m := NewMap(6, 16)
	for r := 0; r < 4; r++ {
		p := Picker{Map: m, Rotation: r}
		for _, w := range []XY{{0, 0}, {5, 0}, {2, 3}, {5, 5}} {
			pick := p.ResolveScreenPosition(p.WorldToScreen(w))
			if pick.Kind != PickTerrain || pick.Loc != w {
				t.Fatalf("rotation %d: %v resolved to %+v", r, w, pick)
			}
		}
	}
}

func TestPickerPrefersTopmostPath(t *testing.T) {
	m := NewMap(4, 16)
	loc := XY{X: 1, Y: 1}
	_, _ = m.Insert(loc, Element{Type: TypePath, BaseZ: 16, ClearanceZ: 48})
	_, _ = m.Insert(loc, Element{Type: TypePath, BaseZ: 64, ClearanceZ: 96, Ghost: true})
	p := Picker{Map: m}

	pick := p.ResolveScreenPosition(p.WorldToScreen(loc))
	if pick.Kind != PickFootpath || pick.Element.BaseZ != 16 {
		t.Fatalf("expected real path at 16, got %+v", pick)
	}
	if pick := p.ResolveScreenPosition(ScreenXY{X: -1, Y: 3}); pick.Kind != PickNone {
		t.Fatalf("expected none off map, got %+v", pick)
	}
}

func TestBridgeInfoEdgeDirection(t *testing.T) {
	m := NewMap(4, 16)
	loc := XY{X: 2, Y: 1}
	for r := 0; r < 4; r++ {
		p := Picker{Map: m, Rotation: r}
		c := p.WorldToScreen(loc)
		// Pointer hugging the left screen edge of the tile.
		s := ScreenXY{X: c.X - Size/2 + 1, Y: c.Y}
		pick, dir, ok := p.BridgeInfo(s)
		if !ok || pick.Loc != loc {
			t.Fatalf("rotation %d: pick %+v ok=%v", r, pick, ok)
		}
		if want := Dir(0 - r); dir != want {
			t.Fatalf("rotation %d: dir=%d want %d", r, dir, want)
		}
	}
}
