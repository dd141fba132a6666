// Command server runs one world and its observer websocket endpoint.
// The renderer/input process connects over loopback, subscribes, and
// drives edits; the sim loop owns all state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cellworld.ai/internal/persistence/indexdb"
	persistlog "cellworld.ai/internal/persistence/log"
	"cellworld.ai/internal/persistence/snapshot"
	"cellworld.ai/internal/sim/mdp"
	"cellworld.ai/internal/sim/tuning"
	"cellworld.ai/internal/sim/world"
	"cellworld.ai/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8765", "listen address (loopback only)")
		dataDir    = flag.String("data", "./data", "data directory for logs, snapshots and the index db")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (optional)")
		worldID    = flag.String("world_id", "world_1", "world identifier")
		seed       = flag.Int64("seed", 0, "world seed (0 = default)")
		engine     = flag.String("engine", "", "policy engine override: planner | qlearn")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite diagnostics index")
		loadLatest = flag.Bool("load_latest", false, "resume from the latest indexed snapshot")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmsgprefix)

	cfg, err := buildConfig(*tuningPath, *worldID, *seed, *engine, logger)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	w, err := world.New(cfg)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	worldDir := filepath.Join(*dataDir, w.ID())

	var index *indexdb.SQLiteIndex
	if !*disableDB {
		index, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("index db: %v", err)
		}
		defer index.Close()
	}

	if *loadLatest {
		if err := resumeLatest(w, index, logger); err != nil {
			logger.Fatalf("resume: %v", err)
		}
	}

	tickLog := persistlog.NewTickLogger(worldDir)
	defer tickLog.Close()
	w.SetTickLogger(&tickSink{
		w:       w,
		log:     tickLog,
		index:   index,
		snapDir: filepath.Join(worldDir, "snapshots"),
		every:   uint64(w.Config().SnapshotEveryTicks),
		errLog:  logger,
	})

	obs := observer.NewServer(w, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", obs.WSHandler())
	mux.HandleFunc("/v1/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{Addr: *addr, Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Printf("world %s listening on %s (engine=%s grid=%dx%d seed=%d)",
			w.ID(), *addr, w.Engine(), cfg.GridWidth, cfg.GridHeight, cfg.Seed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("http: %v", err)
			cancel()
		}
	}()

	err = w.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("world loop: %v", err)
	}

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
	logger.Printf("stopped at tick %d", w.CurrentTick())
}

func buildConfig(tuningPath, worldID string, seed int64, engine string, logger *log.Logger) (world.Config, error) {
	var t tuning.Tuning
	if tuningPath != "" {
		var err error
		t, err = tuning.Load(tuningPath)
		if err != nil {
			return world.Config{}, err
		}
		logger.Printf("tuning loaded from %s", tuningPath)
	}

	cfg := world.Config{
		ID:         worldID,
		Seed:       seed,
		TickRateHz: t.TickRateHz,

		GridWidth:  t.GridWidth,
		GridHeight: t.GridHeight,

		InitialFood:  t.InitialFood,
		InitialCoins: t.InitialCoins,
		FoodTarget:   t.FoodTarget,
		CoinTarget:   t.CoinTarget,

		StartHealth: t.StartHealth,
		StartMoney:  t.StartMoney,

		Engine:    t.Engine,
		AllowStay: t.AllowStay,

		Gamma:       t.Gamma,
		ConvergeEps: t.ConvergeEps,

		Alpha:         t.Alpha,
		Epsilon:       t.Epsilon,
		TrainEpisodes: t.TrainEpisodes,
		TrainStepCap:  t.TrainStepCap,

		SnapshotEveryTicks: t.SnapshotEveryTicks,
	}
	if t.Boundary != "" {
		b, err := mdp.ParseBoundary(t.Boundary)
		if err != nil {
			return world.Config{}, err
		}
		cfg.Boundary = b
	}
	if t.FoodCostsMoney != nil && !*t.FoodCostsMoney {
		cfg.FreeFood = true
	}
	if engine != "" {
		cfg.Engine = engine
	}
	return cfg, nil
}

func resumeLatest(w *world.World, index *indexdb.SQLiteIndex, logger *log.Logger) error {
	if index == nil {
		return fmt.Errorf("-load_latest requires the index db")
	}
	row, ok, err := index.LatestSnapshot()
	if err != nil {
		return err
	}
	if !ok {
		logger.Printf("no snapshot indexed; starting fresh")
		return nil
	}
	snap, err := snapshot.ReadSnapshot(row.Path)
	if err != nil {
		return err
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return err
	}
	logger.Printf("resumed from %s at tick %d (%d agents)", row.Path, snap.Header.Tick, len(snap.Agents))
	return nil
}

// tickSink fans one tick entry out to the JSONL log, the sqlite index,
// and the periodic snapshot writer. WriteTick runs on the world loop
// goroutine, so reading world state here is safe; the snapshot file
// write itself goes to a background goroutine.
type tickSink struct {
	w       *world.World
	log     *persistlog.TickLogger
	index   *indexdb.SQLiteIndex
	snapDir string
	every   uint64
	errLog  *log.Logger
}

func (s *tickSink) WriteTick(entry world.TickLogEntry) error {
	if err := s.log.WriteTick(entry); err != nil {
		s.errLog.Printf("tick log: %v", err)
	}
	if s.index != nil {
		s.index.RecordTick(indexdb.TickRow{
			Tick:        entry.Tick,
			Alive:       entry.Stats.Alive,
			Deaths:      entry.Stats.Deaths,
			FoodEaten:   entry.Stats.FoodEaten,
			CoinsTaken:  entry.Stats.CoinsTaken,
			Replenished: entry.Stats.Replenished,
			Engine:      entry.Engine,
			Digest:      entry.Digest,
		})
	}
	if s.every > 0 && entry.Tick%s.every == 0 {
		snap := s.w.ExportSnapshot()
		path := filepath.Join(s.snapDir, fmt.Sprintf("snap-%012d.bin.zst", entry.Tick))
		go s.writeSnapshot(path, snap)
	}
	return nil
}

func (s *tickSink) writeSnapshot(path string, snap snapshot.SnapshotV1) {
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		s.errLog.Printf("snapshot %s: %v", path, err)
		return
	}
	if s.index != nil {
		s.index.RecordSnapshot(indexdb.SnapshotRow{
			Tick:   snap.Header.Tick,
			Path:   path,
			Agents: len(snap.Agents),
			Foods:  len(snap.Foods),
			Coins:  len(snap.Coins),
		})
	}
	s.errLog.Printf("snapshot written: %s", path)
}
