package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/park/tuning"
)

func TestWriteMetrics(t *testing.T) {
	var buf bytes.Buffer
	writeMetrics(&buf, "p1", sim.ParkMetrics{
		Tick:          42,
		Sessions:      2,
		Paths:         7,
		Cash:          9880,
		Weather:       "RAIN",
		Fountains:     3,
		SnowFountains: 1,
		QueueDepths:   sim.QueueDepths{Inbox: 4},
	}, nil)
	out := buf.String()
	for _, want := range []string{
		`parkcraft_park_tick{park="p1"} 42`,
		`parkcraft_park_sessions{park="p1"} 2`,
		`parkcraft_park_elements{park="p1",kind="path"} 7`,
		`parkcraft_park_cash{park="p1"} 9880`,
		`parkcraft_park_weather{park="p1",weather="RAIN"} 1`,
		`parkcraft_park_fountains_total{park="p1",kind="water"} 3`,
		`parkcraft_park_fountains_total{park="p1",kind="snow"} 1`,
		`parkcraft_park_queue_depth{park="p1",queue="inbox"} 4`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "parkcraft_index_") {
		t.Fatalf("index metrics without an index")
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("PC_TEST_FLAG", "yes")
	if !envBool("PC_TEST_FLAG", false) {
		t.Fatalf("yes should be true")
	}
	t.Setenv("PC_TEST_FLAG", "off")
	if envBool("PC_TEST_FLAG", true) {
		t.Fatalf("off should be false")
	}
	t.Setenv("PC_TEST_FLAG", "maybe")
	if !envBool("PC_TEST_FLAG", true) {
		t.Fatalf("unknown should keep default")
	}
}

func TestLoopback(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:80": true,
		"[::1]:80":     true,
		"10.0.0.1:80":  false,
		"garbage":      false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("isLoopbackRemote(%q)=%v", in, got)
		}
	}
}

func TestOpenRuntimeIndex(t *testing.T) {
	idx, err := openRuntimeIndex(t.TempDir(), true)
	if err != nil || idx != nil {
		t.Fatalf("disabled: idx=%v err=%v", idx, err)
	}
	t.Setenv("PC_INDEX_BACKEND", "d1")
	if _, err := openRuntimeIndex(t.TempDir(), false); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
	t.Setenv("PC_INDEX_BACKEND", "")
	idx, err = openRuntimeIndex(t.TempDir(), false)
	if err != nil || idx == nil {
		t.Fatalf("sqlite: idx=%v err=%v", idx, err)
	}
	_ = idx.Close()
}

type countingTickLogger struct {
	mu sync.Mutex
	n  int
}

func (l *countingTickLogger) WriteTick(sim.TickLogEntry) error {
	l.mu.Lock()
	l.n++
	l.mu.Unlock()
	return nil
}

func (l *countingTickLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

func TestStartParkDoneAfterLastTick(t *testing.T) {
	cat, err := objects.Load("../../configs")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	tune := tuning.Defaults()
	tune.MapSize = 16
	tune.TickRateHz = 100
	p, err := sim.New(sim.Config{ID: "server_test", Tuning: tune}, cat)
	if err != nil {
		t.Fatalf("new park: %v", err)
	}
	logs := &countingTickLogger{}
	p.SetTickLogger(logs)

	ctx, cancel := context.WithCancel(context.Background())
	done := startPark(ctx, p, log.New(io.Discard, "", 0))
	deadline := time.Now().Add(5 * time.Second)
	for logs.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("park did not tick")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("park loop did not stop")
	}

	n, tick := logs.count(), p.CurrentTick()
	time.Sleep(50 * time.Millisecond)
	if logs.count() != n || p.CurrentTick() != tick {
		t.Fatalf("park wrote after done: ticks %d -> %d", n, logs.count())
	}
}
