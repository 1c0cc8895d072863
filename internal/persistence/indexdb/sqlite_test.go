package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/park/tool"
	"parkcraft.io/internal/park/tuning"
	"parkcraft.io/internal/persistence/snapshot"
	"parkcraft.io/internal/protocol"
)

func openTemp(t *testing.T) (*SQLiteIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx, path
}

func TestSQLiteIndex_TicksAndEvents(t *testing.T) {
	idx, path := openTemp(t)
	_ = idx.WriteTick(sim.TickLogEntry{
		Tick:    7,
		Joins:   []sim.RecordedJoin{{SessionID: "s1", Name: "alice"}},
		Weather: "sunny",
		Digest:  "abc",
		Events: []sim.RecordedEvent{
			{SessionID: "s1", Tool: &protocol.ToolMsg{Type: protocol.TypeTool, Op: protocol.OpPointerDown}},
			{SessionID: "s1", Scenery: &protocol.SceneryMsg{Type: protocol.TypeScenery, Op: protocol.OpGhost}, Code: protocol.ErrRestricted},
		},
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		digest, weather string
		joins, events   int
	)
	if err := db.QueryRow(`SELECT digest,weather,joins,events FROM ticks WHERE tick=7`).Scan(&digest, &weather, &joins, &events); err != nil {
		t.Fatalf("tick row: %v", err)
	}
	if digest != "abc" || weather != "sunny" || joins != 1 || events != 2 {
		t.Fatalf("tick row mismatch: %s %s %d %d", digest, weather, joins, events)
	}
	var op, code string
	if err := db.QueryRow(`SELECT op,code FROM events WHERE tick=7 AND seq=1`).Scan(&op, &code); err != nil {
		t.Fatalf("event row: %v", err)
	}
	if op != "SCENERY/GHOST" || code != protocol.ErrRestricted {
		t.Fatalf("event row mismatch: %s %s", op, code)
	}
}

func TestSQLiteIndex_AuditsPaging(t *testing.T) {
	idx, _ := openTemp(t)
	for i := 0; i < 5; i++ {
		_ = idx.WriteAudit(sim.AuditEntry{Tick: uint64(i), Session: "s1", Action: "PLACE_PATH", Pos: [3]int{i, 2, 16}, Cost: 120, Cash: 10000 - int64(i+1)*120})
	}
	ctx := context.Background()
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	page, next, err := idx.Audits(ctx, 0, 3)
	if err != nil {
		t.Fatalf("Audits: %v", err)
	}
	if len(page) != 3 || page[0].Pos[0] != 0 || page[2].Tick != 2 {
		t.Fatalf("first page=%+v", page)
	}
	page, next, err = idx.Audits(ctx, next, 3)
	if err != nil {
		t.Fatalf("Audits: %v", err)
	}
	if len(page) != 2 || page[1].Cash != 10000-5*120 {
		t.Fatalf("second page=%+v", page)
	}
	page, again, err := idx.Audits(ctx, next, 3)
	if err != nil || len(page) != 0 || again != next {
		t.Fatalf("empty page: %v %d %v", page, again, err)
	}
}

func TestSQLiteIndex_Selection(t *testing.T) {
	idx, _ := openTemp(t)
	if _, ok, err := idx.LoadSelection("park-1"); err != nil || ok {
		t.Fatalf("empty load ok=%v err=%v", ok, err)
	}
	sel := *tool.NewSelection()
	sel.NormalSurface = 2
	sel.QueueSurface = 6
	sel.QueueSelected = true
	if err := idx.SaveSelection("park-1", sel); err != nil {
		t.Fatalf("SaveSelection: %v", err)
	}
	got, ok, err := idx.LoadSelection("park-1")
	if err != nil || !ok {
		t.Fatalf("LoadSelection ok=%v err=%v", ok, err)
	}
	if got != sel {
		t.Fatalf("selection=%+v want %+v", got, sel)
	}
}

func TestSQLiteIndex_SnapshotsAndCatalogs(t *testing.T) {
	idx, path := openTemp(t)
	idx.RecordSnapshot("/abs/000000002400.snap.zst", snapshot.SnapshotV1{
		Header:  snapshot.Header{Version: snapshot.Version, ParkID: "park-1", Tick: 2400},
		MapSize: 16,
		Cash:    9880,
	})
	if err := idx.UpsertCatalogs(nil, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var (
		park, p string
		cash    int64
	)
	if err := db.QueryRow(`SELECT park_id,path,cash FROM snapshots WHERE tick=2400`).Scan(&park, &p, &cash); err != nil {
		t.Fatalf("snapshot row: %v", err)
	}
	if park != "park-1" || p != "/abs/000000002400.snap.zst" || cash != 9880 {
		t.Fatalf("snapshot row mismatch: %s %s %d", park, p, cash)
	}
	var digest string
	if err := db.QueryRow(`SELECT digest FROM catalogs WHERE name='tuning'`).Scan(&digest); err != nil || len(digest) != 64 {
		t.Fatalf("tuning digest=%q err=%v", digest, err)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTick, tick: sim.TickLogEntry{Tick: 1}}

	_ = s.WriteTick(sim.TickLogEntry{Tick: 2})
	_ = s.WriteAudit(sim.AuditEntry{Tick: 2})
	s.RecordSnapshot("/tmp/2.snap.zst", snapshot.SnapshotV1{})

	st := s.Stats()
	if st.DropTickTotal != 1 || st.DropAuditTotal != 1 || st.DropSnapshotTotal != 1 {
		t.Fatalf("drops=%+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}
