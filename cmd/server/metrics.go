package main

import (
	"fmt"
	"io"

	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/persistence/indexdb"
)

// writeMetrics renders park metrics in the Prometheus text format.
func writeMetrics(w io.Writer, parkID string, m sim.ParkMetrics, idx *indexdb.SQLiteIndex) {
	gauge := func(name, help string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
	}
	counter := func(name, help string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
	}

	gauge("parkcraft_park_tick", "Current park tick.")
	fmt.Fprintf(w, "parkcraft_park_tick{park=%q} %d\n", parkID, m.Tick)

	gauge("parkcraft_park_sessions", "Connected tool sessions.")
	fmt.Fprintf(w, "parkcraft_park_sessions{park=%q} %d\n", parkID, m.Sessions)

	gauge("parkcraft_park_elements", "Placed elements by kind.")
	fmt.Fprintf(w, "parkcraft_park_elements{park=%q,kind=%q} %d\n", parkID, "path", m.Paths)
	fmt.Fprintf(w, "parkcraft_park_elements{park=%q,kind=%q} %d\n", parkID, "scenery", m.Scenery)

	gauge("parkcraft_park_cash", "Park cash balance.")
	fmt.Fprintf(w, "parkcraft_park_cash{park=%q} %d\n", parkID, m.Cash)

	gauge("parkcraft_park_weather", "Current weather (1 for the active kind).")
	fmt.Fprintf(w, "parkcraft_park_weather{park=%q,weather=%q} 1\n", parkID, m.Weather)

	counter("parkcraft_park_invalidations_total", "Tile redraw requests from scenery updates.")
	fmt.Fprintf(w, "parkcraft_park_invalidations_total{park=%q} %d\n", parkID, m.Invalidations)

	counter("parkcraft_park_fountains_total", "Jumping fountains started.")
	fmt.Fprintf(w, "parkcraft_park_fountains_total{park=%q,kind=%q} %d\n", parkID, "water", m.Fountains)
	fmt.Fprintf(w, "parkcraft_park_fountains_total{park=%q,kind=%q} %d\n", parkID, "snow", m.SnowFountains)

	gauge("parkcraft_park_queue_depth", "Channel backlog depth.")
	fmt.Fprintf(w, "parkcraft_park_queue_depth{park=%q,queue=%q} %d\n", parkID, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(w, "parkcraft_park_queue_depth{park=%q,queue=%q} %d\n", parkID, "join", m.QueueDepths.Join)
	fmt.Fprintf(w, "parkcraft_park_queue_depth{park=%q,queue=%q} %d\n", parkID, "leave", m.QueueDepths.Leave)

	gauge("parkcraft_park_step_ms", "Last tick step duration in milliseconds.")
	fmt.Fprintf(w, "parkcraft_park_step_ms{park=%q} %.3f\n", parkID, m.StepMS)

	if idx == nil {
		return
	}
	s := idx.Stats()
	gauge("parkcraft_index_queue_depth", "Index writer backlog.")
	fmt.Fprintf(w, "parkcraft_index_queue_depth %d\n", s.QueueDepth)
	counter("parkcraft_index_dropped_total", "Index writes dropped because the queue was full.")
	fmt.Fprintf(w, "parkcraft_index_dropped_total{kind=%q} %d\n", "tick", s.DropTickTotal)
	fmt.Fprintf(w, "parkcraft_index_dropped_total{kind=%q} %d\n", "audit", s.DropAuditTotal)
	fmt.Fprintf(w, "parkcraft_index_dropped_total{kind=%q} %d\n", "snapshot", s.DropSnapshotTotal)
}
