// Command headless runs a world for a fixed number of ticks without any
// renderer attached: place a few agents, optionally pre-train the
// Q-learner, step, report. Useful for tuning sweeps and regression
// checks on determinism.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"text/tabwriter"

	"cellworld.ai/internal/persistence/indexdb"
	"cellworld.ai/internal/sim/mdp"
	"cellworld.ai/internal/sim/tuning"
	"cellworld.ai/internal/sim/world"
)

func main() {
	var (
		ticks      = flag.Int("ticks", 1000, "number of ticks to run")
		agents     = flag.Int("agents", 5, "agents to place at random cells")
		seed       = flag.Int64("seed", 0, "world seed (0 = default)")
		engine     = flag.String("engine", "", "policy engine override: planner | qlearn")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (optional)")
		dataDir    = flag.String("data", "", "record tick/episode rows into <data>/<world>/index.db")
		train      = flag.Bool("train", false, "pre-train the Q-learner before stepping")
		reportEach = flag.Int("report_every", 100, "print a progress line every N ticks")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[headless] ", log.LstdFlags|log.Lmsgprefix)

	cfg := world.Config{ID: "headless", Seed: *seed, Engine: *engine}
	if *tuningPath != "" {
		t, err := tuning.Load(*tuningPath)
		if err != nil {
			logger.Fatalf("tuning: %v", err)
		}
		applyTuning(&cfg, t)
		if *engine != "" {
			cfg.Engine = *engine
		}
	}

	w, err := world.New(cfg)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	var index *indexdb.SQLiteIndex
	if *dataDir != "" {
		index, err = indexdb.OpenSQLite(filepath.Join(*dataDir, w.ID(), "index.db"))
		if err != nil {
			logger.Fatalf("index db: %v", err)
		}
		defer index.Close()
	}

	placeAgents(w, *agents, logger)

	if *train {
		trainCfg := w.Config()
		stats := w.TrainLearner(trainCfg.TrainEpisodes, trainCfg.TrainStepCap)
		if len(stats) == 0 {
			logger.Printf("training skipped (engine=%s)", w.Engine())
		} else {
			for _, ep := range stats {
				if index != nil {
					index.RecordEpisode(indexdb.EpisodeRow{
						Episode:     ep.Episode,
						Steps:       ep.Steps,
						TotalReward: ep.TotalReward,
						Epsilon:     ep.Epsilon,
					})
				}
			}
			last := stats[len(stats)-1]
			logger.Printf("trained %d episodes (last: steps=%d reward=%.1f epsilon=%.3f)",
				len(stats), last.Steps, last.TotalReward, last.Epsilon)
		}
	}

	var totals world.TickStats
	for i := 0; i < *ticks; i++ {
		stats := w.StepOnce()
		totals.Deaths += stats.Deaths
		totals.FoodEaten += stats.FoodEaten
		totals.CoinsTaken += stats.CoinsTaken
		totals.Replenished += stats.Replenished
		if index != nil {
			index.RecordTick(indexdb.TickRow{
				Tick:        w.CurrentTick(),
				Alive:       stats.Alive,
				Deaths:      stats.Deaths,
				FoodEaten:   stats.FoodEaten,
				CoinsTaken:  stats.CoinsTaken,
				Replenished: stats.Replenished,
				Engine:      w.Engine(),
				Digest:      stats.Digest,
			})
		}
		if *reportEach > 0 && (i+1)%*reportEach == 0 {
			logger.Printf("tick %d: alive=%d deaths=%d eaten=%d coins=%d",
				w.CurrentTick(), stats.Alive, totals.Deaths, totals.FoodEaten, totals.CoinsTaken)
		}
		if stats.Alive == 0 {
			logger.Printf("all agents dead at tick %d", w.CurrentTick())
			break
		}
	}

	printReport(w, totals)
}

func applyTuning(cfg *world.Config, t tuning.Tuning) {
	cfg.TickRateHz = t.TickRateHz
	cfg.GridWidth = t.GridWidth
	cfg.GridHeight = t.GridHeight
	cfg.InitialFood = t.InitialFood
	cfg.InitialCoins = t.InitialCoins
	cfg.FoodTarget = t.FoodTarget
	cfg.CoinTarget = t.CoinTarget
	cfg.StartHealth = t.StartHealth
	cfg.StartMoney = t.StartMoney
	cfg.Engine = t.Engine
	cfg.AllowStay = t.AllowStay
	cfg.Gamma = t.Gamma
	cfg.ConvergeEps = t.ConvergeEps
	cfg.Alpha = t.Alpha
	cfg.Epsilon = t.Epsilon
	cfg.TrainEpisodes = t.TrainEpisodes
	cfg.TrainStepCap = t.TrainStepCap
	cfg.SnapshotEveryTicks = t.SnapshotEveryTicks
	if t.Boundary != "" {
		if b, err := mdp.ParseBoundary(t.Boundary); err == nil {
			cfg.Boundary = b
		}
	}
	if t.FoodCostsMoney != nil && !*t.FoodCostsMoney {
		cfg.FreeFood = true
	}
}

func placeAgents(w *world.World, n int, logger *log.Logger) {
	cfg := w.Config()
	rng := rand.New(rand.NewSource(cfg.Seed + 1))
	placed := 0
	for attempts := 0; placed < n && attempts < n*20; attempts++ {
		p := mdp.Pos{X: rng.Intn(cfg.GridWidth), Y: rng.Intn(cfg.GridHeight)}
		if _, ok := w.AgentsSnapshot()[p]; ok {
			continue
		}
		if err := w.PlaceAgent(p); err != nil {
			logger.Fatalf("place %v: %v", p, err)
		}
		placed++
	}
	logger.Printf("placed %d agents (engine=%s grid=%dx%d seed=%d)",
		placed, w.Engine(), cfg.GridWidth, cfg.GridHeight, cfg.Seed)
}

func printReport(w *world.World, totals world.TickStats) {
	food, coins := w.PoolsSnapshot()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ticks run\t%d\n", w.CurrentTick())
	fmt.Fprintf(tw, "engine\t%s\n", w.Engine())
	fmt.Fprintf(tw, "agents alive\t%d\n", len(w.AgentsSnapshot()))
	fmt.Fprintf(tw, "deaths\t%d\n", totals.Deaths)
	fmt.Fprintf(tw, "food eaten\t%d\n", totals.FoodEaten)
	fmt.Fprintf(tw, "coins taken\t%d\n", totals.CoinsTaken)
	fmt.Fprintf(tw, "replenished\t%d\n", totals.Replenished)
	fmt.Fprintf(tw, "food on grid\t%d\n", len(food))
	fmt.Fprintf(tw, "coins on grid\t%d\n", len(coins))
	fmt.Fprintf(tw, "digest\t%s\n", w.StateDigest())
	_ = tw.Flush()
}
