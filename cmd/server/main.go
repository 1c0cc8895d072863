package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/park/tuning"
	"parkcraft.io/internal/persistence/archive"
	"parkcraft.io/internal/persistence/indexdb"
	persistlog "parkcraft.io/internal/persistence/log"
	"parkcraft.io/internal/persistence/snapshot"
	"parkcraft.io/internal/protocol"
	"parkcraft.io/internal/transport/observer"
	"parkcraft.io/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		parkID     = flag.String("park", "park_1", "park id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (ticks, audits, selection, snapshot rows)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cat, err := objects.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	parkDir := filepath.Join(*dataDir, "parks", *parkID)
	_ = os.MkdirAll(parkDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	idx, err := openRuntimeIndex(parkDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cat, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	p, err := sim.New(sim.Config{ID: *parkID, Tuning: tune, Logger: logger}, cat)
	if err != nil {
		logger.Fatalf("park: %v", err)
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad, err = snapshot.Latest(filepath.Join(parkDir, "snapshots"))
		if err != nil {
			logger.Fatalf("find latest snapshot: %v", err)
		}
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.ParkID != "" && snap.Header.ParkID != *parkID {
			logger.Fatalf("snapshot park id mismatch: flag=%s snap=%s", *parkID, snap.Header.ParkID)
		}
		if err := p.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), p.CurrentTick())
	} else if idx != nil {
		sel, ok, err := idx.LoadSelection(*parkID)
		if err != nil {
			logger.Printf("index: load selection: %v", err)
		} else if ok {
			p.RestoreSelection(sel)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(parkDir)
	auditLog := persistlog.NewAuditLogger(parkDir)
	defer tickLog.Close()
	defer auditLog.Close()
	if idx != nil {
		p.SetTickLogger(multiTickLogger{tickLog, idx})
		p.SetAuditLogger(multiAuditLogger{auditLog, idx})
		p.SetSelectionStore(idx)
	} else {
		p.SetTickLogger(tickLog)
		p.SetAuditLogger(auditLog)
	}

	snapCh := make(chan snapshot.SnapshotV1, 2)
	p.SetSnapshotSink(snapCh)
	snapDone := make(chan struct{})
	go func() {
		defer close(snapDone)
		writeSnapshots(ctx, parkDir, tune, snapCh, idx, logger)
	}()
	parkDone := startPark(ctx, p, logger)
	// The loggers and the index are closed by the defers above; nothing may
	// still be writing to them by then.
	defer func() {
		cancel()
		<-parkDone
		<-snapDone
	}()

	validator, err := protocol.NewValidator()
	if err != nil {
		logger.Fatalf("protocol schemas: %v", err)
	}
	wsSrv := ws.NewServer(p, validator, logger)
	if idx != nil {
		wsSrv.SetAuditSource(idx)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, *parkID, p.Metrics(), idx)
	})

	if envBool("PC_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				ParkID  string          `json:"park_id"`
				Tick    uint64          `json:"tick"`
				Metrics sim.ParkMetrics `json:"metrics"`
			}{
				ParkID:  *parkID,
				Tick:    p.CurrentTick(),
				Metrics: p.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		obsSrv := observer.NewServer(p, logger)
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else {
		logger.Printf("admin endpoints disabled (PC_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("PC_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// startPark runs the park loop until ctx is done. The returned channel is
// closed once the loop has stopped stepping.
func startPark(ctx context.Context, p *sim.Park, logger *log.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("park stopped: %v", err)
		}
	}()
	return done
}

// writeSnapshots persists snapshots from the park loop, then archives and
// prunes them.
func writeSnapshots(ctx context.Context, parkDir string, tune tuning.Tuning, ch <-chan snapshot.SnapshotV1, idx *indexdb.SQLiteIndex, logger *log.Logger) {
	dir := filepath.Join(parkDir, "snapshots")
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			path := filepath.Join(dir, snapshot.FileName(snap.Header.Tick))
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				logger.Printf("snapshot write: %v", err)
				continue
			}
			idx.RecordSnapshot(path, snap)
			if archived, ok, err := archive.ArchiveSnapshot(parkDir, path, snap, tune.ArchiveEveryTicks); err != nil {
				logger.Printf("archive snapshot: %v", err)
			} else if ok {
				logger.Printf("archived snapshot tick=%d to %s", snap.Header.Tick, archived)
			}
			if _, err := archive.Prune(dir, tune.KeepSnapshots); err != nil {
				logger.Printf("prune snapshots: %v", err)
			}
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

type multiTickLogger struct {
	a sim.TickLogger
	b sim.TickLogger
}

func (m multiTickLogger) WriteTick(entry sim.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a sim.AuditLogger
	b sim.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry sim.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
