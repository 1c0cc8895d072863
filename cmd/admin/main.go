package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"parkcraft.io/internal/console"
	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/park/tile"
	persistlog "parkcraft.io/internal/persistence/log"
	"parkcraft.io/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	parkID := fs.String("park", "", "park id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "parks")
	if *parkID != "" {
		base = filepath.Join(base, *parkID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	parkID := fs.String("park", "", "park id (used to find the latest snapshot)")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	asJSON := fs.Bool("json", false, "print the summary as json")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		if strings.TrimSpace(*parkID) == "" {
			fmt.Fprintln(os.Stderr, "missing -park or -snapshot")
			os.Exit(2)
		}
		p, err := snapshot.Latest(filepath.Join(*dataDir, "parks", *parkID, "snapshots"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "latest snapshot:", err)
			os.Exit(1)
		}
		if p == "" {
			fmt.Fprintln(os.Stderr, "no snapshot found")
			os.Exit(2)
		}
		path = p
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	sum := summariseSnapshot(snap)
	if *asJSON {
		printJSON(sum)
		return
	}
	fmt.Printf("snapshot %s\n", filepath.Base(path))
	fmt.Printf("  park=%s tick=%s map=%dx%d cash=%s\n",
		sum.ParkID, humanize.Comma(int64(sum.Tick)), sum.MapSize, sum.MapSize, money(sum.Cash, sum.NoMoney))
	for _, k := range sortedKeys(sum.Elements) {
		fmt.Printf("  %-14s %s\n", k, humanize.Comma(int64(sum.Elements[k])))
	}
}

type snapshotSummary struct {
	ParkID   string         `json:"park_id"`
	Tick     uint64         `json:"tick"`
	MapSize  int            `json:"map_size"`
	Cash     int64          `json:"cash"`
	NoMoney  bool           `json:"no_money,omitempty"`
	Elements map[string]int `json:"elements"`
	Queues   int            `json:"queues"`
	Sloped   int            `json:"sloped_paths"`
}

func summariseSnapshot(s snapshot.SnapshotV1) snapshotSummary {
	out := snapshotSummary{
		ParkID:   s.Header.ParkID,
		Tick:     s.Header.Tick,
		MapSize:  s.MapSize,
		Cash:     s.Cash,
		NoMoney:  s.NoMoney,
		Elements: map[string]int{},
	}
	for _, t := range s.Tiles {
		for _, e := range t.Elements {
			out.Elements[e.Type.String()]++
			if e.Type != tile.TypePath {
				continue
			}
			if e.Path.Queue {
				out.Queues++
			}
			if e.Path.Sloped {
				out.Sloped++
			}
		}
	}
	return out
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	parkID := fs.String("park", "", "park id")
	sinceTick := fs.Uint64("since_tick", 0, "first tick (inclusive)")
	toTick := fs.Uint64("to_tick", 0, "last tick (inclusive, optional)")
	session := fs.String("session", "", "session id filter (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*parkID) == "" {
		fmt.Fprintln(os.Stderr, "missing -park")
		os.Exit(2)
	}
	sum, err := readAudit(filepath.Join(*dataDir, "parks", *parkID), *sinceTick, *toTick, *session)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	if sum.Entries == 0 {
		fmt.Println("no matching audit entries")
		return
	}
	fmt.Printf("audit ticks=%d..%d entries=%d spent=%s\n", sum.FirstTick, sum.LastTick, sum.Entries, money(sum.Spent, false))
	for _, k := range sortedKeys(sum.Actions) {
		fmt.Printf("  %-16s %s\n", k, humanize.Comma(int64(sum.Actions[k])))
	}
}

type auditSummary struct {
	Entries   int
	FirstTick uint64
	LastTick  uint64
	Spent     int64
	Actions   map[string]int
}

// readAudit folds every audit entry in [sinceTick, toTick] into a summary.
// toTick 0 means no upper bound.
func readAudit(parkDir string, sinceTick, toTick uint64, session string) (auditSummary, error) {
	sum := auditSummary{Actions: map[string]int{}}
	files, err := persistlog.Files(filepath.Join(parkDir, "audit"), "audit")
	if err != nil {
		return sum, err
	}
	for _, path := range files {
		err := persistlog.ReadLines(path, func(line []byte) error {
			var e sim.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			if e.Tick < sinceTick || (toTick != 0 && e.Tick > toTick) {
				return nil
			}
			if session != "" && e.Session != session {
				return nil
			}
			if sum.Entries == 0 {
				sum.FirstTick = e.Tick
			}
			sum.Entries++
			sum.LastTick = e.Tick
			sum.Spent += e.Cost
			sum.Actions[e.Action]++
			return nil
		})
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func money(v int64, free bool) string {
	if free {
		return "free"
	}
	return console.Money(&v)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
