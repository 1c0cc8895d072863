package sim

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/park/tool"
	"parkcraft.io/internal/protocol"
)

func (p *Park) stepInternal(joins []JoinRequest, leaves []string, events []Envelope) {
	start := time.Now()
	nowTick := p.tick.Load()
	now := p.clock(nowTick)

	var recJoins []RecordedJoin
	var recLeaves []string
	for _, id := range leaves {
		if p.removeSession(id) {
			recLeaves = append(recLeaves, id)
		}
	}
	for _, req := range joins {
		resp := p.addSession(req)
		if resp.Code == "" {
			recJoins = append(recJoins, RecordedJoin{SessionID: resp.Welcome.SessionID, Name: req.Name})
		}
		if req.Resp != nil {
			select {
			case req.Resp <- resp:
			default:
			}
		}
	}

	recEvents := make([]RecordedEvent, 0, len(events))
	for _, env := range events {
		s := p.sessions[env.SessionID]
		if s == nil {
			continue
		}
		rec, ackFor := p.applyEvent(s, env)
		recEvents = append(recEvents, rec)
		if ackFor != "" {
			p.sendAck(s, ackFor, rec.Code, nowTick)
		}
	}

	// Systems.
	p.weatherCh = p.weather.Tick()
	p.updater.Weather = p.weather.Current()
	p.sweepScenery()
	for _, id := range p.order {
		p.sessions[id].ctl.Update(now)
	}
	p.saveSelection()
	p.broadcastState(nowTick)

	digest := p.stateDigest(nowTick)
	if p.tickLogger != nil {
		_ = p.tickLogger.WriteTick(TickLogEntry{
			Tick:    nowTick,
			Joins:   recJoins,
			Leaves:  recLeaves,
			Events:  recEvents,
			Weather: p.weather.Current().String(),
			Digest:  digest,
		})
	}
	if p.auditLogger != nil {
		for _, a := range p.audits {
			_ = p.auditLogger.WriteAudit(a)
		}
	}
	p.audits = p.audits[:0]

	if p.snapshotSink != nil {
		every := uint64(p.tune.SnapshotEveryTicks)
		if every > 0 && nowTick != 0 && nowTick%every == 0 {
			snap := p.ExportSnapshot(nowTick)
			select {
			case p.snapshotSink <- snap:
			default:
			}
		}
	}

	stepMS := float64(time.Since(start).Microseconds()) / 1000.0
	p.tick.Add(1)
	p.storeMetrics(stepMS)
}

func (p *Park) newController(rotation int) *tool.Controller {
	c := tool.New(tool.Config{
		Map:       p.m,
		Catalog:   p.cat,
		Executor:  p.exec,
		Selection: p.sel,
		Editor:    p.editor(),
	})
	c.SetRotation(rotation)
	return c
}

func (p *Park) addSession(req JoinRequest) JoinResponse {
	if p.tune.MaxSessions > 0 && len(p.sessions) >= p.tune.MaxSessions {
		return JoinResponse{Code: protocol.ErrParkBusy}
	}
	id := req.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	if _, dup := p.sessions[id]; dup {
		return JoinResponse{Code: protocol.ErrBadRequest}
	}
	s := &session{
		id:        id,
		name:      req.Name,
		ctl:       p.newController(0),
		out:       req.Out,
		everyTick: req.StateEveryTick,
		dirty:     true,
	}
	s.ghost.Cost = actions.MoneyUndefined
	if err := s.ctl.Open(); err != nil {
		p.logger.Printf("session %s: path tool not opened: %v", id, err)
	}
	p.sessions[id] = s
	p.order = append(p.order, id)
	sort.Strings(p.order)
	return JoinResponse{Welcome: p.welcome(id)}
}

func (p *Park) removeSession(id string) bool {
	s := p.sessions[id]
	if s == nil {
		return false
	}
	s.ctl.Close()
	s.ghost.Remove(p.exec, p.m)
	delete(p.sessions, id)
	for i, v := range p.order {
		if v == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

func (p *Park) welcome(sessionID string) protocol.WelcomeMsg {
	files := make(map[string]string, len(p.cat.Digests))
	for k, v := range p.cat.Digests {
		files[k] = v
	}
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		ParkParams:      p.Params(),
		Catalogs:        protocol.CatalogDigests{Digest: p.cat.Digest(), Files: files},
		Selection:       *p.sel,
	}
}

// Params is fixed for the life of the park and safe to read from any
// goroutine.
func (p *Park) Params() protocol.ParkParams {
	return protocol.ParkParams{
		TickRateHz: p.tune.TickRateHz,
		MapSize:    p.tune.MapSize,
		BaseHeight: p.tune.BaseHeight,
		TilePixels: tile.Size,
		Networked:  p.tune.Networked,
		EditorMode: p.editor(),
	}
}

// sweepScenery updates the next batch of tiles in round-robin order.
func (p *Park) sweepScenery() {
	total := p.m.Size() * p.m.Size()
	n := p.tune.ScenerySweepPerTick
	if n > total {
		n = total
	}
	for i := 0; i < n; i++ {
		p.updater.UpdateTile(p.m.PositionAt(p.sweep))
		p.sweep = (p.sweep + 1) % total
	}
}

func (p *Park) saveSelection() {
	if *p.sel == p.savedSel {
		return
	}
	for _, id := range p.order {
		s := p.sessions[id]
		s.ctl.SelectionChanged()
		s.dirty = true
	}
	if p.selStore != nil {
		if err := p.selStore.SaveSelection(p.cfg.ID, *p.sel); err != nil {
			p.logger.Printf("save selection: %v", err)
			return
		}
	}
	p.savedSel = *p.sel
}

func (p *Park) broadcastState(tick uint64) {
	global := p.weatherCh || p.exec.Cash != p.lastCash
	p.lastCash = p.exec.Cash
	for _, id := range p.order {
		s := p.sessions[id]
		changed := s.ctl.TakeChanged()
		if !(changed || s.dirty || s.everyTick || global) {
			continue
		}
		s.dirty = false
		if s.out == nil {
			continue
		}
		b, err := json.Marshal(p.stateMsg(s, tick))
		if err != nil {
			continue
		}
		sendLatest(s.out, b)
	}
}

func (p *Park) stateMsg(s *session, tick uint64) protocol.StateMsg {
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		SessionID:       s.id,
		Weather:         p.weather.Current().String(),
		Tool:            s.ctl.State(),
	}
	if !p.exec.NoMoney {
		v := int64(p.exec.Cash)
		msg.Cash = &v
	}
	g := s.ghost
	msg.Scenery.Flags = uint8(g.Flags)
	msg.Scenery.Pos = g.Pos.Array()
	if g.Flags != 0 {
		msg.Scenery.Object = protocol.ObjectRef{Type: g.Object.Type.String(), ID: p.cat.ID(g.Object)}
	}
	if g.Cost.Defined() {
		v := int64(g.Cost)
		msg.Scenery.Cost = &v
	}
	return msg
}

func (p *Park) sendAck(s *session, ackFor, code string, tick uint64) {
	if s.out == nil {
		return
	}
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          ackFor,
		Accepted:        code == "",
		Code:            code,
		ServerTick:      tick,
	}
	b, err := json.Marshal(ack)
	if err != nil {
		return
	}
	sendLatest(s.out, b)
}

// stateDigest covers everything a replay must reproduce: the map, finances,
// weather, sweep position and the shared selection.
func (p *Park) stateDigest(tick uint64) string {
	h := sha256.New()
	var tmp [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		h.Write(tmp[:])
	}
	put(tick)
	h.Write([]byte(p.m.Digest()))
	put(uint64(p.exec.Cash))
	idx, left := p.weather.State()
	put(uint64(idx))
	put(left)
	put(uint64(p.sweep))
	for _, v := range []int{p.sel.NormalSurface, p.sel.QueueSurface, p.sel.Railings, p.sel.LegacyPath} {
		put(uint64(int64(v)))
	}
	if p.sel.QueueSelected {
		put(1)
	} else {
		put(0)
	}
	return hex.EncodeToString(h.Sum(nil))
}
