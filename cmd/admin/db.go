package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

type dbQuery struct {
	Tick    uint64
	Limit   int
	Session string
	ParkID  string
}

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	parkID := fs.String("park", "", "park id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	tick := fs.Uint64("tick", 0, "tick filter for events (optional; defaults to latest tick)")
	limit := fs.Int("limit", 20, "result limit")
	session := fs.String("session", "", "session_id filter (audits, events)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*parkID) == "" {
			fmt.Fprintln(os.Stderr, "missing -park or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "parks", *parkID, "index", "park.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	opts := dbQuery{Tick: *tick, Limit: *limit, Session: strings.TrimSpace(*session), ParkID: strings.TrimSpace(*parkID)}
	if err := runQuery(db, q, opts, printJSON); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if strings.HasPrefix(err.Error(), "unknown query") {
			fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-park PARK|-db PATH] [-tick T] [-session S] snapshots|ticks|events|audits|selection|catalogs")
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// runQuery runs one named query and hands each row to emit.
func runQuery(db *sql.DB, q string, o dbQuery, emit func(any)) error {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	switch q {
	case "snapshots":
		rows, err := db.Query(`SELECT tick,park_id,path,map_size,tiles,cash,weather FROM snapshots ORDER BY tick DESC LIMIT ?`, o.Limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick    int64  `json:"tick"`
				ParkID  string `json:"park_id"`
				Path    string `json:"path"`
				MapSize int    `json:"map_size"`
				Tiles   int    `json:"tiles"`
				Cash    int64  `json:"cash"`
				Weather int    `json:"weather"`
			}
			if err := rows.Scan(&r.Tick, &r.ParkID, &r.Path, &r.MapSize, &r.Tiles, &r.Cash, &r.Weather); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			emit(r)
		}
		return rows.Err()

	case "ticks":
		rows, err := db.Query(`SELECT tick,digest,weather,joins,leaves,events FROM ticks ORDER BY tick DESC LIMIT ?`, o.Limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick    int64  `json:"tick"`
				Digest  string `json:"digest"`
				Weather string `json:"weather"`
				Joins   int    `json:"joins"`
				Leaves  int    `json:"leaves"`
				Events  int    `json:"events"`
			}
			if err := rows.Scan(&r.Tick, &r.Digest, &r.Weather, &r.Joins, &r.Leaves, &r.Events); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			emit(r)
		}
		return rows.Err()

	case "events":
		tick := o.Tick
		if tick == 0 {
			lt, err := latestTick(db)
			if err != nil {
				return fmt.Errorf("latest tick: %w", err)
			}
			tick = lt
		}
		query := `SELECT tick,seq,session_id,op,COALESCE(code,'') FROM events WHERE tick=? ORDER BY seq LIMIT ?`
		args := []any{tick, o.Limit}
		if o.Session != "" {
			query = `SELECT tick,seq,session_id,op,COALESCE(code,'') FROM events WHERE tick=? AND session_id=? ORDER BY seq LIMIT ?`
			args = []any{tick, o.Session, o.Limit}
		}
		rows, err := db.Query(query, args...)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick      int64  `json:"tick"`
				Seq       int    `json:"seq"`
				SessionID string `json:"session_id"`
				Op        string `json:"op"`
				Code      string `json:"code,omitempty"`
			}
			if err := rows.Scan(&r.Tick, &r.Seq, &r.SessionID, &r.Op, &r.Code); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			emit(r)
		}
		return rows.Err()

	case "audits":
		query := `SELECT id,tick,session_id,action,x,y,z,entry,cost,cash FROM audits ORDER BY id DESC LIMIT ?`
		args := []any{o.Limit}
		if o.Session != "" {
			query = `SELECT id,tick,session_id,action,x,y,z,entry,cost,cash FROM audits WHERE session_id=? ORDER BY id DESC LIMIT ?`
			args = []any{o.Session, o.Limit}
		}
		rows, err := db.Query(query, args...)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				ID        int64  `json:"id"`
				Tick      int64  `json:"tick"`
				SessionID string `json:"session_id"`
				Action    string `json:"action"`
				X         int    `json:"x"`
				Y         int    `json:"y"`
				Z         int    `json:"z"`
				Entry     int    `json:"entry"`
				Cost      int64  `json:"cost"`
				Cash      int64  `json:"cash"`
			}
			if err := rows.Scan(&r.ID, &r.Tick, &r.SessionID, &r.Action, &r.X, &r.Y, &r.Z, &r.Entry, &r.Cost, &r.Cash); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			emit(r)
		}
		return rows.Err()

	case "selection":
		query := `SELECT park_id,json,updated_at FROM selection ORDER BY park_id`
		var args []any
		if o.ParkID != "" {
			query = `SELECT park_id,json,updated_at FROM selection WHERE park_id=?`
			args = []any{o.ParkID}
		}
		rows, err := db.Query(query, args...)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				ParkID    string          `json:"park_id"`
				Selection json.RawMessage `json:"selection"`
				UpdatedAt string          `json:"updated_at"`
			}
			var raw string
			if err := rows.Scan(&r.ParkID, &raw, &r.UpdatedAt); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			r.Selection = json.RawMessage(raw)
			emit(r)
		}
		return rows.Err()

	case "catalogs":
		rows, err := db.Query(`SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Name      string `json:"name"`
				Digest    string `json:"digest"`
				UpdatedAt string `json:"updated_at"`
			}
			if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			emit(r)
		}
		return rows.Err()

	default:
		return fmt.Errorf("unknown query: %s", q)
	}
}

func latestTick(db *sql.DB) (uint64, error) {
	if db == nil {
		return 0, fmt.Errorf("nil db")
	}
	var t int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(tick),0) FROM ticks`).Scan(&t); err != nil {
		return 0, err
	}
	if t < 0 {
		return 0, nil
	}
	return uint64(t), nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
