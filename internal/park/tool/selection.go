package tool

import (
	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/objects"
)

// NoEntry marks an unset object entry.
const NoEntry = -1

// Selection is the footpath object choice shared by every tool in the park.
type Selection struct {
	NormalSurface int  `json:"normal_surface"`
	QueueSurface  int  `json:"queue_surface"`
	Railings      int  `json:"railings"`
	LegacyPath    int  `json:"legacy_path"`
	QueueSelected bool `json:"queue_selected"`
}

func NewSelection() *Selection {
	return &Selection{
		NormalSurface: NoEntry,
		QueueSurface:  NoEntry,
		Railings:      NoEntry,
		LegacyPath:    NoEntry,
	}
}

// SelectedSurface is the surface entry paths are built with: the legacy path
// when one is chosen, else the queue or normal surface.
func (s Selection) SelectedSurface() int {
	if s.LegacyPath != NoEntry {
		return s.LegacyPath
	}
	if s.QueueSelected {
		return s.QueueSurface
	}
	return s.NormalSurface
}

func (s Selection) ConstructFlags() actions.ConstructFlags {
	var f actions.ConstructFlags
	if s.QueueSelected {
		f |= actions.IsQueue
	}
	if s.LegacyPath != NoEntry {
		f |= actions.IsLegacyPathObject
	}
	return f
}

// SurfaceOkay reports whether a surface entry can be offered for the queue or
// normal list. Editor-only surfaces need the editor or sandbox mode.
func SurfaceOkay(cat *objects.Catalog, index int, queue, editor bool) bool {
	d, ok := cat.Surface(index)
	if !ok {
		return false
	}
	if !editor && d.EditorOnly {
		return false
	}
	return d.Queue == queue
}

func LegacyPathOkay(cat *objects.Catalog, index int, editor bool) bool {
	d, ok := cat.LegacyPath(index)
	if !ok {
		return false
	}
	return editor || !d.EditorOnly
}

func defaultSurface(cat *objects.Catalog, queue, editor bool) int {
	for i := range cat.Surfaces {
		if SurfaceOkay(cat, i, queue, editor) {
			return i
		}
	}
	return NoEntry
}

func defaultRailings(cat *objects.Catalog) int {
	if len(cat.Railings) > 0 {
		return 0
	}
	return NoEntry
}

func defaultLegacyPath(cat *objects.Catalog, editor bool) int {
	for i := range cat.LegacyPaths {
		if LegacyPathOkay(cat, i, editor) {
			return i
		}
	}
	return NoEntry
}

// SelectDefault keeps every still-valid prior choice and fills the rest with
// the first suitable entry. It fails when neither a surface nor a legacy path
// can be offered.
func SelectDefault(sel *Selection, cat *objects.Catalog, editor bool) bool {
	surface := defaultSurface(cat, false, editor)
	if SurfaceOkay(cat, sel.NormalSurface, false, editor) {
		surface = sel.NormalSurface
	}
	queue := defaultSurface(cat, true, editor)
	if SurfaceOkay(cat, sel.QueueSurface, true, editor) {
		queue = sel.QueueSurface
	}
	railings := defaultRailings(cat)
	if _, ok := cat.Railing(sel.Railings); ok {
		railings = sel.Railings
	}
	legacy := defaultLegacyPath(cat, editor)
	if sel.LegacyPath != NoEntry {
		if LegacyPathOkay(cat, sel.LegacyPath, editor) {
			legacy = sel.LegacyPath
		} else {
			sel.LegacyPath = NoEntry
		}
	}
	if surface == NoEntry {
		if legacy == NoEntry {
			return false
		}
		sel.LegacyPath = legacy
	}
	sel.NormalSurface = surface
	sel.QueueSurface = queue
	sel.Railings = railings
	return true
}
