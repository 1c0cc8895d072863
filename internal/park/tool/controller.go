package tool

import (
	"errors"
	"fmt"
	"time"

	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/tile"
)

type Mode uint8

const (
	ModeLand Mode = iota
	ModeBridgeTool
	ModeBridge
	ModeClosed
)

func (m Mode) String() string {
	switch m {
	case ModeLand:
		return "LAND"
	case ModeBridgeTool:
		return "BRIDGE_TOOL"
	case ModeBridge:
		return "BRIDGE"
	default:
		return "CLOSED"
	}
}

// ArrowPulse is how long the bridge-mode direction arrow stays in one state.
const ArrowPulse = 200 * time.Millisecond

var (
	ErrClosed        = errors.New("path tool closed")
	ErrDisabled      = errors.New("control disabled")
	ErrNoPathObjects = errors.New("no footpath objects available")
	ErrBadSelection  = errors.New("object not selectable")
)

// Executor runs footpath actions for the tool.
type Executor interface {
	PlacePath(p actions.PathPlacement, flags actions.Flags) (actions.Result, error)
	RemovePath(pos tile.XYZ, flags actions.Flags) (actions.Result, error)
	Paused() bool
	BuildInPause() bool
}

// Provisional is the ghost path currently previewed by this tool.
type Provisional struct {
	Active         bool                   `json:"active"`
	Pos            tile.XYZ               `json:"pos"`
	Slope          actions.PathSlope      `json:"slope"`
	Surface        int                    `json:"surface"`
	Railings       int                    `json:"railings"`
	ConstructFlags actions.ConstructFlags `json:"construct_flags"`
	ShowArrow      bool                   `json:"show_arrow"`

	// RecheckRequested drops the ghost on the next update so it is rebuilt.
	RecheckRequested bool `json:"recheck_requested,omitempty"`
}

// Marker is the highlighted tile and direction arrow shown in the viewport.
type Marker struct {
	Visible  bool           `json:"visible"`
	Tile     tile.XY        `json:"tile"`
	Arrow    bool           `json:"arrow"`
	ArrowPos tile.XYZ       `json:"arrow_pos"`
	ArrowDir tile.Direction `json:"arrow_dir"`
}

type Config struct {
	Map       *tile.Map
	Catalog   *objects.Catalog
	Executor  Executor
	Selection *Selection
	// Editor shows editor-only objects (scenario editor or sandbox).
	Editor bool
}

// Controller is the footpath construction tool. It is driven synchronously by
// the park loop.
type Controller struct {
	m    *tile.Map
	cat  *objects.Catalog
	exec Executor
	sel  *Selection

	editor bool

	mode          Mode
	dir           tile.Direction
	slope         Slope
	valid         tile.Direction
	from          tile.XYZ
	cost          actions.Money
	errorOccurred bool
	prov          Provisional
	marker        Marker
	underground   bool
	lastErr       error

	rotation     int
	lastRotation int
	nextPulse    time.Time

	changed bool
}

func New(cfg Config) *Controller {
	sel := cfg.Selection
	if sel == nil {
		sel = NewSelection()
	}
	return &Controller{
		m:      cfg.Map,
		cat:    cfg.Catalog,
		exec:   cfg.Executor,
		sel:    sel,
		editor: cfg.Editor,
		mode:   ModeClosed,
		valid:  tile.InvalidDirection,
		cost:   actions.MoneyUndefined,
	}
}

// Open picks default objects and starts in land mode.
func (c *Controller) Open() error {
	if !SelectDefault(c.sel, c.cat, c.editor) {
		return ErrNoPathObjects
	}
	c.mode = ModeLand
	c.errorOccurred = false
	c.cost = actions.MoneyUndefined
	c.prov = Provisional{}
	c.valid = tile.InvalidDirection
	c.lastRotation = c.rotation
	c.changed = true
	return nil
}

// Close removes any ghost. The controller cannot be reopened.
func (c *Controller) Close() {
	if c.mode == ModeClosed {
		return
	}
	c.provisionalUpdate()
	c.marker = Marker{}
	c.underground = false
	c.mode = ModeClosed
	c.changed = true
}

func (c *Controller) picker() tile.Picker {
	return tile.Picker{Map: c.m, Rotation: c.rotation}
}

func (c *Controller) open() error {
	if c.mode == ModeClosed {
		return ErrClosed
	}
	return nil
}

// provisionalSet replaces the ghost path and returns the cost of the preview.
func (c *Controller) provisionalSet(surface, railings int, pos tile.XYZ, slope actions.PathSlope, cf actions.ConstructFlags) actions.Money {
	c.provisionalRemove()
	res, err := c.exec.PlacePath(actions.PathPlacement{
		Pos:            pos,
		Slope:          slope,
		Surface:        surface,
		Railings:       railings,
		Direction:      tile.InvalidDirection,
		ConstructFlags: cf,
	}, actions.Apply|actions.Ghost|actions.AllowDuringPaused|actions.NoSpend)
	c.changed = true
	if err != nil {
		return actions.MoneyUndefined
	}
	c.prov.Active = true
	c.prov.Pos = pos
	c.prov.Slope = slope
	c.prov.Surface = surface
	c.prov.Railings = railings
	c.prov.ConstructFlags = cf
	c.underground = res.Underground
	return res.Cost
}

func (c *Controller) provisionalRemove() {
	if !c.prov.Active {
		return
	}
	c.prov.Active = false
	_, _ = c.exec.RemovePath(c.prov.Pos, actions.Apply|actions.Ghost|actions.AllowDuringPaused|actions.NoSpend)
	c.changed = true
}

// provisionalUpdate hides the arrow and drops the ghost.
func (c *Controller) provisionalUpdate() {
	if c.prov.ShowArrow {
		c.prov.ShowArrow = false
		c.marker.Arrow = false
		c.changed = true
	}
	c.provisionalRemove()
}

func (c *Controller) setMode(m Mode) error {
	if err := c.open(); err != nil {
		return err
	}
	if c.mode == m {
		return nil
	}
	c.cost = actions.MoneyUndefined
	c.provisionalUpdate()
	c.marker = Marker{}
	c.mode = m
	c.errorOccurred = false
	c.changed = true
	return nil
}

func (c *Controller) SetLandMode() error { return c.setMode(ModeLand) }
func (c *Controller) SetBridgeTool() error { return c.setMode(ModeBridgeTool) }

// SetRotation changes the camera rotation used for picking and button layout.
func (c *Controller) SetRotation(r int) {
	c.rotation = r & 3
}

func (c *Controller) Rotation() int { return c.rotation }

// pickSlope derives the path slope and height for a picked element.
func pickSlope(pick tile.Pick) (actions.PathSlope, int) {
	z := pick.Element.BaseZ
	var slope actions.PathSlope
	raised := false
	switch pick.Kind {
	case tile.PickTerrain:
		slope, raised = DefaultPathSlope(pick.Element.Surface.Slope)
	case tile.PickFootpath:
		slope = actions.PathSlope{
			Sloped:    pick.Element.Path.Sloped,
			Direction: pick.Element.Path.SlopeDirection,
		}
	}
	if raised {
		z += tile.PathHeightStep
	}
	return slope, z
}

func (c *Controller) PointerMove(s tile.ScreenXY) error {
	if err := c.open(); err != nil {
		return err
	}
	switch c.mode {
	case ModeLand:
		c.provisionalAtPoint(s)
	case ModeBridgeTool:
		c.selectionStartBridgeAtPoint(s)
	}
	return nil
}

func (c *Controller) PointerDown(s tile.ScreenXY) error {
	if err := c.open(); err != nil {
		return err
	}
	switch c.mode {
	case ModeLand:
		c.placeAtPoint(s)
	case ModeBridgeTool:
		c.startBridgeAtPoint(s)
	}
	return nil
}

func (c *Controller) PointerDrag(s tile.ScreenXY) error {
	if err := c.open(); err != nil {
		return err
	}
	if c.mode == ModeLand {
		c.placeAtPoint(s)
	}
	return nil
}

func (c *Controller) PointerUp() error {
	if err := c.open(); err != nil {
		return err
	}
	if c.mode == ModeLand {
		c.errorOccurred = false
		c.changed = true
	}
	return nil
}

func (c *Controller) provisionalAtPoint(s tile.ScreenXY) {
	c.marker.Arrow = false
	pick := c.picker().ResolveScreenPosition(s)
	if pick.Kind == tile.PickNone {
		c.marker.Visible = false
		c.provisionalUpdate()
		c.changed = true
		return
	}
	if c.prov.Active && c.prov.Pos == pick.Loc.WithZ(pick.Element.BaseZ) {
		return
	}
	c.marker.Visible = true
	c.marker.Tile = pick.Loc
	c.provisionalUpdate()

	slope, z := pickSlope(pick)
	c.cost = c.provisionalSet(c.sel.SelectedSurface(), c.sel.Railings, pick.Loc.WithZ(z), slope, c.sel.ConstructFlags())
	c.changed = true
}

func (c *Controller) placeAtPoint(s tile.ScreenXY) {
	if c.errorOccurred {
		return
	}
	pick := c.picker().ResolveScreenPosition(s)
	if pick.Kind == tile.PickNone {
		return
	}
	c.provisionalUpdate()

	slope, z := pickSlope(pick)
	_, err := c.exec.PlacePath(actions.PathPlacement{
		Pos:            pick.Loc.WithZ(z),
		Slope:          slope,
		Surface:        c.sel.SelectedSurface(),
		Railings:       c.sel.Railings,
		Direction:      tile.InvalidDirection,
		ConstructFlags: c.sel.ConstructFlags(),
	}, actions.Apply)
	c.lastErr = err
	if err != nil {
		c.errorOccurred = true
	}
	c.changed = true
}

func (c *Controller) selectionStartBridgeAtPoint(s tile.ScreenXY) {
	pick, dir, ok := c.picker().BridgeInfo(s)
	c.changed = true
	if !ok {
		c.marker.Visible = false
		c.marker.Arrow = false
		return
	}
	c.marker.Visible = true
	c.marker.Arrow = true
	c.marker.Tile = pick.Loc

	z := pick.Element.BaseZ
	if pick.Kind == tile.PickTerrain {
		if pick.Element.Surface.Corners() != 0 {
			z += tile.PathHeightStep
		}
		if pick.Element.Surface.Steep() {
			z += tile.PathHeightStep
		}
	}
	c.marker.ArrowPos = pick.Loc.WithZ(z)
	c.marker.ArrowDir = dir
}

func (c *Controller) startBridgeAtPoint(s tile.ScreenXY) {
	pick, dir, ok := c.picker().BridgeInfo(s)
	if !ok {
		return
	}
	z := pick.Element.BaseZ
	switch pick.Kind {
	case tile.PickTerrain:
		// A path started on a slope sits level with the raised arrow.
		if pick.Element.Surface.Steep() {
			z += 2 * tile.PathHeightStep
		} else if pick.Element.Surface.Slope != 0 {
			z += tile.PathHeightStep
		}
	case tile.PickFootpath:
		if pick.Element.Path.Sloped && dir == pick.Element.Path.SlopeDirection {
			z += tile.PathHeightStep
		}
	}
	c.marker = Marker{}
	c.from = pick.Loc.WithZ(z)
	c.dir = dir
	c.prov = Provisional{}
	c.slope = SlopeLevel
	c.mode = ModeBridge
	c.valid = tile.InvalidDirection
	c.changed = true
}

// nextPathInfo returns where Construct would build and with which slope.
func (c *Controller) nextPathInfo() (tile.XYZ, actions.PathSlope) {
	loc := c.from.XY().Step(c.dir).WithZ(c.from.Z)
	var slope actions.PathSlope
	switch c.slope {
	case SlopeUp:
		slope = actions.PathSlope{Sloped: true, Direction: c.dir}
	case SlopeDown:
		loc.Z -= tile.PathHeightStep
		slope = actions.PathSlope{Sloped: true, Direction: c.dir.Reverse()}
	}
	return loc, slope
}

// NextPosition exposes the position the next bridge-mode piece would occupy.
func (c *Controller) NextPosition() tile.XYZ {
	loc, _ := c.nextPathInfo()
	return loc
}

func (c *Controller) requireBridge() error {
	if err := c.open(); err != nil {
		return err
	}
	if c.mode != ModeBridge {
		return ErrDisabled
	}
	return nil
}

// mousedownDirection applies a screen-relative direction choice.
func (c *Controller) mousedownDirection(uiDir int) {
	c.provisionalUpdate()
	c.dir = tile.Dir(uiDir - c.rotation)
	c.cost = actions.MoneyUndefined
	c.changed = true
}

// SelectDirection picks a direction as shown on screen.
func (c *Controller) SelectDirection(uiDir int) error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	if !c.Buttons().DirectionEnabled[uiDir&3] {
		return ErrDisabled
	}
	c.mousedownDirection(uiDir)
	return nil
}

func (c *Controller) SelectSlope(s Slope) error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	if s > SlopeDown {
		return fmt.Errorf("slope %d: %w", s, ErrDisabled)
	}
	c.provisionalUpdate()
	c.slope = s
	c.cost = actions.MoneyUndefined
	c.changed = true
	return nil
}

// Construct builds the next bridge-mode piece and advances the origin.
func (c *Controller) Construct() error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	c.cost = actions.MoneyUndefined
	c.provisionalUpdate()
	c.changed = true

	loc, slope := c.nextPathInfo()
	res, err := c.exec.PlacePath(actions.PathPlacement{
		Pos:            loc,
		Slope:          slope,
		Surface:        c.sel.SelectedSurface(),
		Railings:       c.sel.Railings,
		Direction:      c.dir,
		ConstructFlags: c.sel.ConstructFlags(),
	}, actions.Apply)
	c.lastErr = err
	if err != nil {
		return fmt.Errorf("construct: %w", err)
	}
	if c.slope == SlopeLevel {
		c.valid = tile.InvalidDirection
	} else {
		c.valid = c.dir
	}
	if res.Underground {
		c.underground = true
	}
	c.from = loc
	if c.slope == SlopeUp {
		c.from.Z += tile.PathHeightStep
	}
	return nil
}

// elementToRemove finds the path behind the construction origin. Ghosts are
// never picked.
func (c *Controller) elementToRemove() (int, bool) {
	if !c.m.InBounds(c.from.XY()) {
		return -1, false
	}
	z := c.from.Z
	if z > tile.MaxZ {
		z = tile.MaxZ
	}
	zLow := c.from.Z - tile.PathHeightStep
	for i, e := range c.m.Elements(c.from.XY()) {
		if e.Type != tile.TypePath || e.Ghost {
			continue
		}
		if e.BaseZ == z {
			if e.Path.Sloped && e.Path.SlopeDirection.Reverse() != c.dir {
				continue
			}
			return i, true
		}
		if e.BaseZ == zLow {
			// Flat paths one step down facing the build direction are skipped.
			if !e.Path.Sloped && e.Path.SlopeDirection == c.dir {
				continue
			}
			return i, true
		}
	}
	return -1, false
}

// Remove deletes the path behind the origin and walks the origin back along
// a connected edge.
func (c *Controller) Remove() error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	c.cost = actions.MoneyUndefined
	c.provisionalUpdate()
	c.changed = true

	idx, ok := c.elementToRemove()
	if !ok {
		c.lastErr = actions.ErrNotFound
		return fmt.Errorf("remove: %w", actions.ErrNotFound)
	}
	e := c.m.Elements(c.from.XY())[idx]

	z := e.BaseZ
	if e.Path.Sloped && e.Path.SlopeDirection.Reverse() == c.dir {
		z += tile.PathHeightStep
	}

	e0 := c.dir.Reverse()
	edge := e0
	switch {
	case e.Path.Connected(e0):
	case e.Path.Connected(tile.Dir(int(e0) + 1)):
		edge = tile.Dir(int(e0) + 1)
	case e.Path.Connected(tile.Dir(int(e0) + 3)):
		edge = tile.Dir(int(e0) + 3)
	case e.Path.Connected(tile.Dir(int(e0) + 2)):
		edge = tile.Dir(int(e0) + 2)
	}

	pos := c.from.XY().WithZ(e.BaseZ)
	_, err := c.exec.RemovePath(pos, actions.Apply)
	c.lastErr = err
	// The origin walks back even when the removal was refused.
	edge = edge.Reverse()
	c.from = c.from.XY().Back(edge).WithZ(z)
	c.dir = edge
	c.valid = tile.InvalidDirection
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// TurnLeft rotates the build direction one step anticlockwise.
func (c *Controller) TurnLeft() error { return c.turn(true) }

// TurnRight rotates the build direction one step clockwise.
func (c *Controller) TurnRight() error { return c.turn(false) }

func (c *Controller) turn(left bool) error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	b := c.Buttons()
	for _, on := range b.DirectionEnabled {
		if !on {
			return ErrDisabled
		}
	}
	adj := -1
	if c.rotation%2 == 1 {
		adj = 1
	}
	if !left {
		adj = -adj
	}
	c.mousedownDirection(int(c.dir) - c.rotation + adj)
	return nil
}

func (c *Controller) SlopeDown() error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	switch c.slope {
	case SlopeLevel:
		return c.SelectSlope(SlopeDown)
	case SlopeUp:
		return c.SelectSlope(SlopeLevel)
	}
	return nil
}

func (c *Controller) SlopeUp() error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	switch c.slope {
	case SlopeDown:
		return c.SelectSlope(SlopeLevel)
	case SlopeLevel:
		return c.SelectSlope(SlopeUp)
	}
	return nil
}

// DemolishCurrent is the keyboard shortcut for Remove. It is ignored while the
// game is paused unless building in pause is allowed.
func (c *Controller) DemolishCurrent() error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	if !c.Buttons().RemoveEnabled {
		return ErrDisabled
	}
	if c.exec.Paused() && !c.exec.BuildInPause() {
		return actions.ErrPaused
	}
	return c.Remove()
}

func (c *Controller) BuildCurrent() error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	if !c.Buttons().ConstructEnabled {
		return ErrDisabled
	}
	return c.Construct()
}

// SelectSurface picks a surface from the normal or queue list.
func (c *Controller) SelectSurface(entry int, queue bool) error {
	if err := c.open(); err != nil {
		return err
	}
	if !SurfaceOkay(c.cat, entry, queue, c.editor) {
		return fmt.Errorf("surface %d: %w", entry, ErrBadSelection)
	}
	c.sel.QueueSelected = queue
	c.sel.LegacyPath = NoEntry
	if queue {
		c.sel.QueueSurface = entry
	} else {
		c.sel.NormalSurface = entry
	}
	c.afterSelection()
	return nil
}

// SelectLegacyPath picks a legacy path object from the normal or queue list.
func (c *Controller) SelectLegacyPath(entry int, queue bool) error {
	if err := c.open(); err != nil {
		return err
	}
	if !LegacyPathOkay(c.cat, entry, c.editor) {
		return fmt.Errorf("legacy path %d: %w", entry, ErrBadSelection)
	}
	c.sel.QueueSelected = queue
	c.sel.LegacyPath = entry
	c.afterSelection()
	return nil
}

func (c *Controller) SelectRailings(entry int) error {
	if err := c.open(); err != nil {
		return err
	}
	if _, ok := c.cat.Railing(entry); !ok {
		return fmt.Errorf("railings %d: %w", entry, ErrBadSelection)
	}
	c.sel.Railings = entry
	c.afterSelection()
	return nil
}

func (c *Controller) afterSelection() {
	c.provisionalUpdate()
	c.cost = actions.MoneyUndefined
	c.changed = true
}

// SelectionChanged is called when another tool changed the shared selection.
// The ghost and cost were computed for the old surface, so both are dropped.
func (c *Controller) SelectionChanged() {
	if c.mode == ModeClosed {
		return
	}
	c.afterSelection()
}

// RequestRecheck asks the next update to rebuild the bridge-mode ghost.
func (c *Controller) RequestRecheck() {
	c.prov.RecheckRequested = true
}

// Update runs the per-frame work: bridge-mode ghost upkeep, the arrow pulse
// and button refresh after a camera rotation.
func (c *Controller) Update(now time.Time) {
	if c.mode == ModeClosed {
		return
	}
	if c.lastRotation != c.rotation {
		c.lastRotation = c.rotation
		c.changed = true
	}
	if c.mode != ModeBridge {
		return
	}
	if c.prov.RecheckRequested {
		c.provisionalRemove()
		c.prov.RecheckRequested = false
	}
	if !c.prov.Active {
		loc, slope := c.nextPathInfo()
		c.cost = c.provisionalSet(c.sel.SelectedSurface(), c.sel.Railings, loc, slope, c.sel.ConstructFlags())
	}
	if c.nextPulse.Before(now) {
		c.nextPulse = now.Add(ArrowPulse)
		c.prov.ShowArrow = !c.prov.ShowArrow
		loc, _ := c.nextPathInfo()
		c.marker.ArrowPos = loc
		c.marker.ArrowDir = c.dir
		c.marker.Arrow = c.prov.ShowArrow
		c.changed = true
	}
}

// TakeChanged reports whether visible state changed since the last call.
func (c *Controller) TakeChanged() bool {
	ch := c.changed
	c.changed = false
	return ch
}

func (c *Controller) Mode() Mode { return c.mode }
func (c *Controller) Direction() tile.Direction { return c.dir }
func (c *Controller) Slope() Slope { return c.slope }
func (c *Controller) ValidDirections() tile.Direction { return c.valid }
func (c *Controller) From() tile.XYZ { return c.from }
func (c *Controller) Cost() actions.Money { return c.cost }
func (c *Controller) ErrorOccurred() bool { return c.errorOccurred }
func (c *Controller) Provisional() Provisional { return c.prov }
func (c *Controller) Marker() Marker { return c.marker }
func (c *Controller) Underground() bool { return c.underground }
func (c *Controller) LastError() error { return c.lastErr }
func (c *Controller) Selection() Selection { return *c.sel }
