package main

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/persistence/indexdb"
	persistlog "parkcraft.io/internal/persistence/log"
	"parkcraft.io/internal/persistence/snapshot"
)

func TestSummariseSnapshot(t *testing.T) {
	snap := snapshot.SnapshotV1{
		Header:  snapshot.Header{Version: 1, ParkID: "park_1", Tick: 42},
		MapSize: 2,
		Cash:    9500,
		Tiles: []tile.TileState{
			{X: 0, Y: 0, Elements: []tile.Element{{Type: tile.TypeSurface}, {Type: tile.TypePath, Path: tile.PathProps{Queue: true}}}},
			{X: 1, Y: 0, Elements: []tile.Element{{Type: tile.TypeSurface}, {Type: tile.TypePath, Path: tile.PathProps{Sloped: true}}}},
			{X: 0, Y: 1, Elements: []tile.Element{{Type: tile.TypeSurface}, {Type: tile.TypeSmallScenery}}},
		},
	}
	sum := summariseSnapshot(snap)
	if sum.ParkID != "park_1" || sum.Tick != 42 || sum.Cash != 9500 {
		t.Fatalf("header=%+v", sum)
	}
	if sum.Elements["SURFACE"] != 3 || sum.Elements["PATH"] != 2 || sum.Elements["SMALL_SCENERY"] != 1 {
		t.Fatalf("elements=%v", sum.Elements)
	}
	if sum.Queues != 1 || sum.Sloped != 1 {
		t.Fatalf("queues=%d sloped=%d", sum.Queues, sum.Sloped)
	}
}

func TestReadAudit(t *testing.T) {
	dir := t.TempDir()
	l := persistlog.NewAuditLogger(dir)
	entries := []sim.AuditEntry{
		{Tick: 1, Session: "s1", Action: "PLACE_PATH", Cost: 120},
		{Tick: 2, Session: "s2", Action: "PLACE_PATH", Cost: 120},
		{Tick: 3, Session: "s1", Action: "REMOVE_PATH", Cost: -90},
		{Tick: 9, Session: "s1", Action: "PLACE_PATH", Cost: 120},
	}
	for _, e := range entries {
		if err := l.WriteAudit(e); err != nil {
			t.Fatalf("WriteAudit: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	sum, err := readAudit(dir, 1, 3, "")
	if err != nil {
		t.Fatalf("readAudit: %v", err)
	}
	if sum.Entries != 3 || sum.FirstTick != 1 || sum.LastTick != 3 || sum.Spent != 150 {
		t.Fatalf("summary=%+v", sum)
	}
	if sum.Actions["PLACE_PATH"] != 2 || sum.Actions["REMOVE_PATH"] != 1 {
		t.Fatalf("actions=%v", sum.Actions)
	}

	sum, err = readAudit(dir, 0, 0, "s1")
	if err != nil {
		t.Fatalf("readAudit: %v", err)
	}
	if sum.Entries != 3 || sum.LastTick != 9 {
		t.Fatalf("session summary=%+v", sum)
	}
}

func TestMoney(t *testing.T) {
	cases := []struct {
		v    int64
		free bool
		want string
	}{
		{0, false, "$0"},
		{12500, false, "$12,500"},
		{-300, false, "-$300"},
		{5, true, "free"},
	}
	for _, tc := range cases {
		if got := money(tc.v, tc.free); got != tc.want {
			t.Fatalf("money(%d,%v)=%q want %q", tc.v, tc.free, got, tc.want)
		}
	}
}

func TestRunQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "park.sqlite")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.WriteTick(sim.TickLogEntry{Tick: 4, Weather: "sunny", Digest: "d4"})
	for i := 0; i < 3; i++ {
		_ = idx.WriteAudit(sim.AuditEntry{Tick: 4, Session: "s1", Action: "PLACE_PATH", Pos: [3]int{i, 1, 16}, Cost: 120})
	}
	_ = idx.WriteAudit(sim.AuditEntry{Tick: 4, Session: "s2", Action: "PLACE_PATH", Cost: 120})
	if err := idx.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var rows []any
	collect := func(v any) { rows = append(rows, v) }

	if err := runQuery(db, "audits", dbQuery{Limit: 10, Session: "s1"}, collect); err != nil {
		t.Fatalf("audits: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("audit rows=%d", len(rows))
	}

	rows = nil
	if err := runQuery(db, "ticks", dbQuery{}, collect); err != nil {
		t.Fatalf("ticks: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("tick rows=%d", len(rows))
	}
	if tick, err := latestTick(db); err != nil || tick != 4 {
		t.Fatalf("latestTick=%d err=%v", tick, err)
	}

	if err := runQuery(db, "rides", dbQuery{}, collect); err == nil {
		t.Fatalf("expected unknown query error")
	}
}

func TestFetchState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/v1/state" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"tick":3}`))
	}))
	defer srv.Close()

	b, status, err := fetchState(srv.URL + "/")
	if err != nil || status != http.StatusOK || string(b) != `{"tick":3}` {
		t.Fatalf("fetchState=%q %d %v", b, status, err)
	}
}
