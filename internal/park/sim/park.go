package sim

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/climate"
	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/scenery"
	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/park/tool"
	"parkcraft.io/internal/park/tuning"
	"parkcraft.io/internal/persistence/snapshot"
	"parkcraft.io/internal/protocol"
)

type Config struct {
	ID     string
	Tuning tuning.Tuning
	Logger *log.Logger
}

type JoinRequest struct {
	Name string
	// SessionID is normally empty and a new id is generated. Replays pass
	// the recorded id.
	SessionID      string
	StateEveryTick bool
	Out            chan []byte
	Resp           chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	// Code is a protocol error code when the join was refused.
	Code string
}

// Envelope carries one client event into the loop. Exactly one of Tool and
// Scenery is set.
type Envelope struct {
	SessionID string
	Tool      *protocol.ToolMsg
	Scenery   *protocol.SceneryMsg
}

type RecordedJoin struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type RecordedEvent struct {
	SessionID string               `json:"session_id"`
	Tool      *protocol.ToolMsg    `json:"tool,omitempty"`
	Scenery   *protocol.SceneryMsg `json:"scenery,omitempty"`
	Code      string               `json:"code,omitempty"`
}

type TickLogEntry struct {
	Tick    uint64          `json:"tick"`
	Joins   []RecordedJoin  `json:"joins,omitempty"`
	Leaves  []string        `json:"leaves,omitempty"`
	Events  []RecordedEvent `json:"events,omitempty"`
	Weather string          `json:"weather"`
	Digest  string          `json:"digest"`
}

type AuditEntry struct {
	Tick    uint64 `json:"tick"`
	Session string `json:"session,omitempty"`
	Action  string `json:"action"`
	Pos     [3]int `json:"pos"`
	Entry   int    `json:"entry"`
	Cost    int64  `json:"cost"`
	Cash    int64  `json:"cash"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// SelectionStore persists the footpath selection shared by every tool.
type SelectionStore interface {
	SaveSelection(parkID string, sel tool.Selection) error
}

type session struct {
	id        string
	name      string
	ctl       *tool.Controller
	ghost     scenery.GhostPlacement
	rotation  int
	out       chan []byte
	everyTick bool
	dirty     bool
}

// Park is a single-threaded park simulation. All state is owned by the loop
// goroutine; other goroutines talk to it through channels.
type Park struct {
	cfg    Config
	tune   tuning.Tuning
	cat    *objects.Catalog
	logger *log.Logger

	m            *tile.Map
	exec         *actions.Executor
	sel          *tool.Selection
	savedSel     tool.Selection
	restrictions *scenery.Restrictions
	research     scenery.Research
	weather      *climate.Cycle
	updater      *scenery.Updater
	screen       *screenCounters
	sweep        int

	sessions map[string]*session
	order    []string

	inbox chan Envelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	tick     atomic.Uint64
	metrics  atomic.Value
	interval time.Duration
	epoch    time.Time

	// Loop-local bookkeeping for the tick being stepped.
	actor     string
	audits    []AuditEntry
	lastCash  actions.Money
	weatherCh bool

	tickLogger   TickLogger
	auditLogger  AuditLogger
	selStore     SelectionStore
	snapshotSink chan<- snapshot.SnapshotV1
}

func New(cfg Config, cat *objects.Catalog) (*Park, error) {
	if cat == nil {
		return nil, fmt.Errorf("park: nil catalog")
	}
	t := cfg.Tuning
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if cfg.ID == "" {
		cfg.ID = "park_1"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	m := tile.NewMap(t.MapSize, t.BaseHeight)
	for _, h := range t.Hills {
		m.AddHill(tile.XY{X: h.X, Y: h.Y}, h.Radius)
	}

	p := &Park{
		cfg:          cfg,
		tune:         t,
		cat:          cat,
		logger:       cfg.Logger,
		m:            m,
		sel:          tool.NewSelection(),
		restrictions: &scenery.Restrictions{},
		research:     scenery.AllInvented{},
		weather:      climate.NewCycle(t.Climate),
		screen:       &screenCounters{},
		sessions:     map[string]*session{},
		inbox:        make(chan Envelope, 1024),
		join:         make(chan JoinRequest, 64),
		leave:        make(chan string, 64),
		stop:         make(chan struct{}),
		interval:     time.Second / time.Duration(t.TickRateHz),
		epoch:        time.Unix(0, 0).UTC(),
	}

	p.exec = actions.NewExecutor(m, cat, t.Prices, t.Cash)
	p.exec.NoMoney = t.NoMoney
	p.exec.SetBuildInPause(t.BuildInPause)
	p.exec.Recorder = p
	p.lastCash = p.exec.Cash

	tool.SelectDefault(p.sel, cat, p.editor())
	p.savedSel = *p.sel

	if t.RestrictMiscScenery {
		p.restrictions.RestrictAllMisc(cat)
	}

	p.updater = &scenery.Updater{
		Map:         m,
		Catalog:     cat,
		Weather:     p.weather.Current(),
		Cheats:      t.Cheats,
		Networked:   t.Networked,
		Invalidator: p.screen,
		Fountains:   p.screen,
	}
	p.storeMetrics(0)
	return p, nil
}

func (p *Park) editor() bool { return p.tune.EditorMode || p.tune.Cheats.Sandbox }

func (p *Park) ID() string { return p.cfg.ID }

func (p *Park) TickRateHz() int { return p.tune.TickRateHz }

func (p *Park) CurrentTick() uint64 { return p.tick.Load() }

func (p *Park) Inbox() chan<- Envelope    { return p.inbox }
func (p *Park) Join() chan<- JoinRequest  { return p.join }
func (p *Park) Leave() chan<- string      { return p.leave }
func (p *Park) Catalog() *objects.Catalog { return p.cat }

func (p *Park) SetTickLogger(l TickLogger)         { p.tickLogger = l }
func (p *Park) SetAuditLogger(l AuditLogger)       { p.auditLogger = l }
func (p *Park) SetSelectionStore(s SelectionStore) { p.selStore = s }

func (p *Park) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { p.snapshotSink = ch }

// SetPaused pauses construction. Only call before Run or from tests.
func (p *Park) SetPaused(v bool) { p.exec.SetPaused(v) }

// RestoreSelection loads a saved selection, keeping only still-valid
// choices. Only call before Run.
func (p *Park) RestoreSelection(sel tool.Selection) {
	*p.sel = sel
	tool.SelectDefault(p.sel, p.cat, p.editor())
	p.savedSel = *p.sel
}

// Restrictions exposes the restricted scenery list. Only call before Run.
func (p *Park) Restrictions() *scenery.Restrictions { return p.restrictions }

// RecordAction implements actions.Recorder.
func (p *Park) RecordAction(a actions.Audit) {
	p.audits = append(p.audits, AuditEntry{
		Tick:    p.tick.Load(),
		Session: p.actor,
		Action:  a.Action,
		Pos:     a.Pos.Array(),
		Entry:   a.Entry,
		Cost:    int64(a.Cost),
		Cash:    int64(a.Cash),
	})
}

// screenCounters stands in for the viewport: it counts redraw requests and
// fountain starts for metrics.
type screenCounters struct {
	invalidations uint64
	fountains     uint64
	snowFountains uint64
}

func (s *screenCounters) InvalidateTile(tile.XY, int, int) { s.invalidations++ }

func (s *screenCounters) StartFountain(_ tile.XY, _ int, snow bool) {
	if snow {
		s.snowFountains++
		return
	}
	s.fountains++
}

// ScreenFor is the viewport point at the centre of a tile. Only for callers
// that drive the park with StepOnce; it reads the map directly.
func (p *Park) ScreenFor(xy tile.XY, rotation int) tile.ScreenXY {
	return tile.Picker{Map: p.m, Rotation: rotation}.WorldToScreen(xy)
}
