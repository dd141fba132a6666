package world

import (
	"fmt"

	"cellworld.ai/internal/persistence/snapshot"
	"cellworld.ai/internal/sim/mdp"
)

// ExportSnapshot captures the world into the on-disk format. The
// Q-table is deliberately absent: learned policies do not persist across
// runs.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: 1,
			WorldID: w.cfg.ID,
			Tick:    w.tick.Load(),
		},
		Seed:       w.cfg.Seed,
		TickRateHz: w.cfg.TickRateHz,
		GridWidth:  w.cfg.GridWidth,
		GridHeight: w.cfg.GridHeight,
		Boundary:   w.cfg.Boundary.String(),
		Engine:     w.cfg.Engine,
		FoodTarget: w.cfg.FoodTarget,
		CoinTarget: w.cfg.CoinTarget,
		FreeFood:   w.cfg.FreeFood,
		AllowStay:  w.cfg.AllowStay,
		Running:    w.running,
		Foods:      poolList(w.food),
		Coins:      poolList(w.coins),
		Counters: snapshot.CountersV1{
			Deaths:     w.deaths,
			FoodEaten:  w.foodEaten,
			CoinsTaken: w.coinsTaken,
		},
	}
	for _, p := range w.sortedAgentPositions() {
		a := w.agents[p]
		snap.Agents = append(snap.Agents, snapshot.AgentV1{
			Pos:    [2]int{p.X, p.Y},
			Health: a.Health,
			Money:  a.Money,
		})
	}
	return snap
}

// ImportSnapshot replaces the world state with the snapshot's. Config
// knobs that shape behavior (boundary, engine, targets) come along so a
// resumed run keeps its semantics.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) error {
	b, err := mdp.ParseBoundary(snap.Boundary)
	if err != nil {
		return err
	}
	if snap.GridWidth <= 0 || snap.GridHeight <= 0 {
		return fmt.Errorf("snapshot has invalid grid %dx%d", snap.GridWidth, snap.GridHeight)
	}

	w.cfg.GridWidth = snap.GridWidth
	w.cfg.GridHeight = snap.GridHeight
	w.cfg.Boundary = b
	if snap.FoodTarget > 0 {
		w.cfg.FoodTarget = snap.FoodTarget
	}
	if snap.CoinTarget > 0 {
		w.cfg.CoinTarget = snap.CoinTarget
	}
	w.cfg.FreeFood = snap.FreeFood
	w.cfg.AllowStay = snap.AllowStay
	if snap.Engine != "" {
		if err := w.setEngine(snap.Engine); err != nil {
			return err
		}
	}

	agents := make(map[mdp.Pos]*Agent, len(snap.Agents))
	for _, a := range snap.Agents {
		p := mdp.Pos{X: a.Pos[0], Y: a.Pos[1]}
		if !w.inBounds(p) {
			return fmt.Errorf("snapshot agent at %v outside grid: %w", p, ErrInvalidPosition)
		}
		agents[p] = &Agent{Health: a.Health, Money: a.Money}
	}
	w.agents = agents
	w.food = poolFromList(snap.Foods)
	w.coins = poolFromList(snap.Coins)

	w.deaths = snap.Counters.Deaths
	w.foodEaten = snap.Counters.FoodEaten
	w.coinsTaken = snap.Counters.CoinsTaken
	w.running = snap.Running
	w.tick.Store(snap.Header.Tick)
	return nil
}

func poolFromList(list [][2]int) map[mdp.Pos]bool {
	pool := make(map[mdp.Pos]bool, len(list))
	for _, xy := range list {
		pool[mdp.Pos{X: xy[0], Y: xy[1]}] = true
	}
	return pool
}
