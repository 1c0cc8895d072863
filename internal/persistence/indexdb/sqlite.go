package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/park/tool"
	"parkcraft.io/internal/park/tuning"
	"parkcraft.io/internal/persistence/snapshot"
	"parkcraft.io/internal/protocol"
)

// SQLiteIndex is a queryable copy of the park logs. Tick and audit rows are
// written by a single goroutine; the JSONL logs stay the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick     atomic.Uint64
	dropAudit    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	tick     sim.TickLogEntry
	audit    sim.AuditEntry
	snapshot snapshotRow
	done     chan struct{}
}

type snapshotRow struct {
	Tick    uint64
	ParkID  string
	Path    string
	MapSize int
	Tiles   int
	Cash    int64
	Weather int
}

// Stats reports writer queue pressure.
type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropTickTotal     uint64 `json:"drop_tick_total"`
	DropAuditTotal    uint64 `json:"drop_audit_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS selection (
			park_id TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			weather TEXT NOT NULL,
			joins INTEGER NOT NULL,
			leaves INTEGER NOT NULL,
			events INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			op TEXT NOT NULL,
			code TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_tick ON events(session_id, tick);`,
		`CREATE TABLE IF NOT EXISTS audits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tick INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			action TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			entry INTEGER NOT NULL,
			cost INTEGER NOT NULL,
			cash INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_session_tick ON audits(session_id, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_pos_tick ON audits(x, y, z, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			park_id TEXT NOT NULL,
			path TEXT NOT NULL,
			map_size INTEGER NOT NULL,
			tiles INTEGER NOT NULL,
			cash INTEGER NOT NULL,
			weather INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTickTotal:     s.dropTick.Load(),
		DropAuditTotal:    s.dropAudit.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

func (s *SQLiteIndex) WriteTick(entry sim.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind.
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry sim.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:    snap.Header.Tick,
		ParkID:  snap.Header.ParkID,
		Path:    path,
		MapSize: snap.MapSize,
		Tiles:   len(snap.Tiles),
		Cash:    snap.Cash,
		Weather: snap.WeatherIndex,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// Flush waits until every queued write is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SaveSelection writes synchronously; the sim only calls it when the
// selection changed.
func (s *SQLiteIndex) SaveSelection(parkID string, sel tool.Selection) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO selection(park_id,json,updated_at) VALUES(?,?,?)`,
		parkID, string(b), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteIndex) LoadSelection(parkID string) (tool.Selection, bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT json FROM selection WHERE park_id=?`, parkID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return tool.Selection{}, false, nil
	}
	if err != nil {
		return tool.Selection{}, false, err
	}
	var sel tool.Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return tool.Selection{}, false, fmt.Errorf("selection %s: %w", parkID, err)
	}
	return sel, true, nil
}

// Audits pages through the audit table in id order. nextID is the sinceID to
// pass for the following page.
func (s *SQLiteIndex) Audits(ctx context.Context, sinceID int64, limit int) ([]protocol.AuditRecord, int64, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,tick,session_id,action,x,y,z,entry,cost,cash FROM audits WHERE id>? ORDER BY id LIMIT ?`,
		sinceID, limit)
	if err != nil {
		return nil, sinceID, err
	}
	defer rows.Close()

	next := sinceID
	var out []protocol.AuditRecord
	for rows.Next() {
		var (
			r    protocol.AuditRecord
			tick int64
		)
		if err := rows.Scan(&r.ID, &tick, &r.Session, &r.Action, &r.Pos[0], &r.Pos[1], &r.Pos[2], &r.Entry, &r.Cost, &r.Cash); err != nil {
			return nil, sinceID, err
		}
		r.Tick = uint64(tick)
		next = r.ID
		out = append(out, r)
	}
	return out, next, rows.Err()
}

// UpsertCatalogs stores the object catalogs and the tuning actually applied,
// so an index can be matched to the configuration that produced it.
func (s *SQLiteIndex) UpsertCatalogs(cat *objects.Catalog, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if cat != nil {
		names := make([]string, 0, len(cat.Digests))
		for n := range cat.Digests {
			names = append(names, n)
		}
		sort.Strings(names)
		b, _ := json.Marshal(names)
		rows = append(rows, kv{name: "objects", digest: cat.Digest(), json: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('protocol_version',?)`, protocol.Version); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func eventOp(ev sim.RecordedEvent) string {
	switch {
	case ev.Tool != nil:
		return "TOOL/" + ev.Tool.Op
	case ev.Scenery != nil:
		return "SCENERY/" + ev.Scenery.Op
	}
	return ""
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,weather,joins,leaves,events,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO events(tick,seq,session_id,op,code,raw_json) VALUES(?,?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT INTO audits(tick,session_id,action,x,y,z,entry,cost,cash) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,park_id,path,map_size,tiles,cash,weather) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertEvent, insertAudit, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		commitEvery = 2000
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}
	// The pool holds one connection, so an idle queue must not keep a
	// transaction open or readers would block.
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || len(s.ch) == 0 {
			commit()
		}
	}

	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			b, _ := json.Marshal(e)
			if !exec(insertTick, int64(e.Tick), e.Digest, e.Weather, len(e.Joins), len(e.Leaves), len(e.Events), string(b)) {
				continue
			}
			for i, ev := range e.Events {
				raw, _ := json.Marshal(ev)
				if !exec(insertEvent, int64(e.Tick), i, ev.SessionID, eventOp(ev), ev.Code, string(raw)) {
					break
				}
			}

		case reqAudit:
			a := r.audit
			exec(insertAudit, int64(a.Tick), a.Session, a.Action, a.Pos[0], a.Pos[1], a.Pos[2], a.Entry, a.Cost, a.Cash)

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, int64(sn.Tick), sn.ParkID, sn.Path, sn.MapSize, sn.Tiles, sn.Cash, sn.Weather)
		}
		flushIfNeeded()
	}

	commit()
}
