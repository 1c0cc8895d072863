package sim

import (
	"errors"
	"fmt"

	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/scenery"
	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/park/tool"
	"parkcraft.io/internal/protocol"
)

var (
	errBadRequest    = errors.New("bad request")
	errUnknownObject = errors.New("unknown object")
	errRestricted    = errors.New("scenery not available")
)

// applyEvent runs one client event and returns its log record and the id to
// acknowledge, if any.
func (p *Park) applyEvent(s *session, env Envelope) (RecordedEvent, string) {
	rec := RecordedEvent{SessionID: s.id, Tool: env.Tool, Scenery: env.Scenery}
	p.actor = s.id
	defer func() { p.actor = "" }()

	var (
		err error
		id  string
	)
	switch {
	case env.Tool != nil:
		id = env.Tool.ID
		err = p.applyTool(s, *env.Tool)
	case env.Scenery != nil:
		id = env.Scenery.ID
		err = p.applyScenery(s, *env.Scenery)
		s.dirty = true
	default:
		err = errBadRequest
	}
	rec.Code = CodeFor(err)
	return rec, id
}

func screenXY(v [2]int) tile.ScreenXY { return tile.ScreenXY{X: v[0], Y: v[1]} }

func (p *Park) applyTool(s *session, m protocol.ToolMsg) error {
	c := s.ctl
	switch m.Op {
	case protocol.OpOpen:
		if c.Mode() != tool.ModeClosed {
			return nil
		}
		s.ctl = p.newController(s.rotation)
		return s.ctl.Open()
	case protocol.OpClose:
		c.Close()
		return nil
	case protocol.OpLandMode:
		return c.SetLandMode()
	case protocol.OpBridgeMode:
		return c.SetBridgeTool()
	case protocol.OpPointerMove:
		return c.PointerMove(screenXY(m.Screen))
	case protocol.OpPointerDown:
		return c.PointerDown(screenXY(m.Screen))
	case protocol.OpPointerDrag:
		return c.PointerDrag(screenXY(m.Screen))
	case protocol.OpPointerUp:
		return c.PointerUp()
	case protocol.OpSelectDirection:
		return c.SelectDirection(m.Direction)
	case protocol.OpSelectSlope:
		sl, ok := tool.ParseSlope(m.Slope)
		if !ok {
			return fmt.Errorf("slope %q: %w", m.Slope, errBadRequest)
		}
		return c.SelectSlope(sl)
	case protocol.OpConstruct:
		return c.Construct()
	case protocol.OpRemove:
		return c.Remove()
	case protocol.OpTurnLeft:
		return c.TurnLeft()
	case protocol.OpTurnRight:
		return c.TurnRight()
	case protocol.OpSlopeUp:
		return c.SlopeUp()
	case protocol.OpSlopeDown:
		return c.SlopeDown()
	case protocol.OpDemolishCurrent:
		return c.DemolishCurrent()
	case protocol.OpBuildCurrent:
		return c.BuildCurrent()
	case protocol.OpSelectSurface:
		return c.SelectSurface(m.Entry, m.Queue)
	case protocol.OpSelectLegacyPath:
		return c.SelectLegacyPath(m.Entry, m.Queue)
	case protocol.OpSelectRailings:
		return c.SelectRailings(m.Entry)
	case protocol.OpRotateCamera:
		s.rotation = m.Rotation & 3
		c.SetRotation(s.rotation)
		return nil
	}
	return fmt.Errorf("tool op %q: %w", m.Op, errBadRequest)
}

func (p *Park) resolveObject(ref protocol.ObjectRef) (objects.Selection, error) {
	t, ok := objects.ParseSceneryType(ref.Type)
	if !ok {
		return objects.Selection{}, fmt.Errorf("scenery type %q: %w", ref.Type, errBadRequest)
	}
	idx, ok := p.cat.IndexOf(t, ref.ID)
	if !ok {
		return objects.Selection{}, fmt.Errorf("%s %q: %w", t, ref.ID, errUnknownObject)
	}
	sel := objects.Selection{Type: t, Index: idx}
	if !scenery.IsAvailableToBuild(sel, p.research, p.restrictions, p.tune.Cheats) {
		return sel, fmt.Errorf("%s: %w", ref.ID, errRestricted)
	}
	return sel, nil
}

func (p *Park) applyScenery(s *session, m protocol.SceneryMsg) error {
	switch m.Op {
	case protocol.OpClearGhost:
		s.ghost.Remove(p.exec, p.m)
		s.ghost.Cost = actions.MoneyUndefined
		return nil
	case protocol.OpGhost, protocol.OpPlace:
	default:
		return fmt.Errorf("scenery op %q: %w", m.Op, errBadRequest)
	}
	obj, err := p.resolveObject(m.Object)
	if err != nil {
		return err
	}
	pos := tile.XYZ{X: m.Pos[0], Y: m.Pos[1], Z: m.Pos[2]}
	quadrant := uint8(m.Quadrant & 3)
	rot := tile.Dir(m.Rotation)
	if m.Op == protocol.OpGhost {
		return s.ghost.Place(p.exec, p.exec, p.m, obj, pos, quadrant, rot)
	}
	s.ghost.Remove(p.exec, p.m)
	s.ghost.Cost = actions.MoneyUndefined
	_, err = scenery.PlaceObject(p.exec, obj, pos, quadrant, rot, actions.Apply)
	return err
}

// CodeFor maps a loop error onto a protocol error code. nil maps to "".
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errBadRequest):
		return protocol.ErrBadRequest
	case errors.Is(err, errRestricted):
		return protocol.ErrRestricted
	case errors.Is(err, tool.ErrClosed):
		return protocol.ErrToolClosed
	case errors.Is(err, tool.ErrDisabled):
		return protocol.ErrDisabled
	case errors.Is(err, actions.ErrPaused):
		return protocol.ErrNotAllowed
	case errors.Is(err, actions.ErrInsufficientFunds):
		return protocol.ErrNoResource
	case errors.Is(err, actions.ErrObstructed):
		return protocol.ErrBlocked
	case errors.Is(err, actions.ErrAlreadyBuilt):
		return protocol.ErrConflict
	case errors.Is(err, actions.ErrNotFound):
		return protocol.ErrNotFound
	case errors.Is(err, errUnknownObject),
		errors.Is(err, tool.ErrBadSelection),
		errors.Is(err, tool.ErrNoPathObjects),
		errors.Is(err, actions.ErrOffEdge),
		errors.Is(err, actions.ErrTooLow),
		errors.Is(err, actions.ErrTooHigh),
		errors.Is(err, actions.ErrLandSlopeUnsuitable),
		errors.Is(err, actions.ErrInvalidEntry):
		return protocol.ErrInvalidTarget
	}
	return protocol.ErrInternal
}
