package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"parkcraft.io/internal/console"
	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/park/tuning"
	"parkcraft.io/internal/persistence/snapshot"
)

// pathtool is an offline console: it runs a park in-process and steps one
// tick per command, printing the tool panel after each.
func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		snapPath   = flag.String("snapshot", "", "snapshot to load (optional)")
		savePath   = flag.String("save", "", "write a snapshot here on exit (optional)")
		name       = flag.String("name", "console", "session name")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[pathtool] ", log.LstdFlags)

	cat, err := objects.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		tune = tuning.Defaults()
	}

	p, err := sim.New(sim.Config{ID: "console", Tuning: tune, Logger: logger}, cat)
	if err != nil {
		logger.Fatalf("park: %v", err)
	}
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if err := p.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("loaded %s tick=%d", filepath.Base(*snapPath), snap.Header.Tick)
	}

	d, err := console.NewDriver(p, *name)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	run(d, os.Stdin, os.Stdout, isTerminal(os.Stdin))
	d.Close()

	if *savePath != "" {
		if err := snapshot.WriteSnapshot(*savePath, p.ExportSnapshot(p.CurrentTick())); err != nil {
			logger.Fatalf("write snapshot: %v", err)
		}
		logger.Printf("saved %s", *savePath)
	}
}

// run reads commands until EOF or quit. Errors are printed and the loop goes
// on.
func run(d *console.Driver, in io.Reader, out io.Writer, prompt bool) {
	sc := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		if !sc.Scan() {
			return
		}
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		text, quit, err := d.Exec(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if quit {
			return
		}
		if text != "" {
			fmt.Fprintln(out, text)
		}
	}
}

func isTerminal(f *os.File) bool {
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return st.Mode()&os.ModeCharDevice != 0
}
