package log

import (
	"path/filepath"
	"testing"
	"time"

	"parkcraft.io/internal/park/sim"
)

func TestTickLoggerRotatesAndReplays(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	l := NewTickLogger(dir)
	l.w.now = func() time.Time { return clock }

	for tick := uint64(1); tick <= 3; tick++ {
		if tick == 3 {
			clock = clock.Add(2 * time.Minute)
		}
		if err := l.WriteTick(sim.TickLogEntry{Tick: tick, Weather: "sunny", Digest: "d"}); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := Files(filepath.Join(dir, "events"), "events")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%v", files)
	}
	if filepath.Base(files[0]) != "events-2026-03-01-10.jsonl.zst" {
		t.Fatalf("first file=%s", files[0])
	}

	var ticks []uint64
	if err := ReadTicks(dir, func(e sim.TickLogEntry) error {
		ticks = append(ticks, e.Tick)
		return nil
	}); err != nil {
		t.Fatalf("ReadTicks: %v", err)
	}
	if len(ticks) != 3 || ticks[0] != 1 || ticks[2] != 3 {
		t.Fatalf("ticks=%v", ticks)
	}
}

func TestReopenedHourAppendsFrames(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		l := NewAuditLogger(dir)
		l.w.now = func() time.Time { return clock }
		if err := l.WriteAudit(sim.AuditEntry{Tick: uint64(i), Action: "PLACE_PATH"}); err != nil {
			t.Fatalf("WriteAudit: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	files, err := Files(filepath.Join(dir, "audit"), "audit")
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	n := 0
	if err := ReadLines(files[0], func([]byte) error { n++; return nil }); err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if n != 2 {
		t.Fatalf("lines=%d want 2", n)
	}
}
