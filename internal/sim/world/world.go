// Package world owns the live simulation: the agent store, the resource
// pools and the tick driver. All state is accessed only from the world
// loop goroutine (or from tests driving StepOnce directly); transports
// talk to the loop through channels.
package world

import (
	"errors"
	"math/rand"
	"sync/atomic"

	"cellworld.ai/internal/sim/mdp"
)

// ErrInvalidPosition reports an agent edit outside the grid bounds. No
// mutation is performed when it is returned.
var ErrInvalidPosition = errors.New("position outside grid bounds")

// Agent is a grid-resident cell; its position is its identity and lives
// in the world's agent map key.
type Agent struct {
	Health int
	Money  int
}

type World struct {
	cfg Config
	rng *rand.Rand

	tick    atomic.Uint64
	running bool

	agents map[mdp.Pos]*Agent
	food   map[mdp.Pos]bool
	coins  map[mdp.Pos]bool

	engine mdp.PolicyEngine
	// The learner outlives engine switches so a detour through the
	// planner does not wipe the table. Cleared only by Reset.
	learner *mdp.QLearner

	// Lifetime counters, carried into snapshots.
	deaths     uint64
	foodEaten  uint64
	coinsTaken uint64

	lastStats TickStats

	// Control plane for Run; see runtime_loop.go.
	ctrl          chan ctrlReq
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	stop          chan struct{}

	observers map[string]*observerClient

	// Optional sinks (may be nil). Implemented in internal/persistence/*.
	tickLogger TickLogger
}

// TickLogger receives one entry per completed tick.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick    uint64           `json:"tick"`
	Engine  string           `json:"engine"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Stats   TickStats        `json:"stats"`
	Digest  string           `json:"digest"`
}

type RecordedAction struct {
	From   [2]int `json:"from"`
	Action string `json:"action"`
	To     [2]int `json:"to,omitempty"`
	Died   bool   `json:"died,omitempty"`
}

// TickStats summarizes a single tick.
type TickStats struct {
	Alive       int    `json:"alive"`
	Deaths      int    `json:"deaths"`
	FoodEaten   int    `json:"food_eaten"`
	CoinsTaken  int    `json:"coins_taken"`
	Replenished int    `json:"replenished"`
	Digest      string `json:"digest,omitempty"`
}

func New(cfg Config) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	w := &World{
		cfg:           cfg,
		rng:           rand.New(rand.NewSource(cfg.Seed)),
		agents:        map[mdp.Pos]*Agent{},
		food:          map[mdp.Pos]bool{},
		coins:         map[mdp.Pos]bool{},
		ctrl:          make(chan ctrlReq, 64),
		observerJoin:  make(chan ObserverJoinRequest, 8),
		observerLeave: make(chan string, 8),
		stop:          make(chan struct{}),
		observers:     map[string]*observerClient{},
	}
	w.seedPools()
	if err := w.setEngine(cfg.Engine); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) seedPools() {
	mdp.FillPool(w.rng, w.food, w.cfg.InitialFood, w.cfg.GridWidth, w.cfg.GridHeight, w.coins)
	mdp.FillPool(w.rng, w.coins, w.cfg.InitialCoins, w.cfg.GridWidth, w.cfg.GridHeight, w.food)
}

func (w *World) setEngine(name string) error {
	switch name {
	case mdp.EnginePlanner:
		w.engine = mdp.NewPlanner(w.cfg.Gamma, w.cfg.ConvergeEps)
	case mdp.EngineQLearn:
		if w.learner == nil {
			w.learner = mdp.NewQLearner(w.cfg.Alpha, w.cfg.Gamma, w.cfg.Epsilon, w.rng)
		}
		w.engine = w.learner
	default:
		return mdp.ValidEngine(name)
	}
	w.cfg.Engine = name
	return nil
}

// envView builds the planning env over the live pools. Engines read the
// pools only through State snapshots; commits go through Env.Consume on
// the same maps.
func (w *World) envView() *mdp.Env {
	spec := mdp.PlannerReward()
	if w.cfg.Engine == mdp.EngineQLearn {
		spec = mdp.LearnerReward()
	}
	return &mdp.Env{
		Width:          w.cfg.GridWidth,
		Height:         w.cfg.GridHeight,
		Boundary:       w.cfg.Boundary,
		Food:           w.food,
		Coins:          w.coins,
		FoodTarget:     w.cfg.FoodTarget,
		CoinTarget:     w.cfg.CoinTarget,
		Reward:         spec,
		FoodCostsMoney: !w.cfg.FreeFood,
		AllowStay:      w.cfg.AllowStay,
	}
}

func (w *World) Config() Config      { return w.cfg }
func (w *World) ID() string          { return w.cfg.ID }
func (w *World) Engine() string      { return w.cfg.Engine }
func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// SetTickLogger must be called before Run.
func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

// AgentsSnapshot returns a copy of the agent store.
func (w *World) AgentsSnapshot() map[mdp.Pos]Agent {
	out := make(map[mdp.Pos]Agent, len(w.agents))
	for p, a := range w.agents {
		out[p] = *a
	}
	return out
}

// PoolsSnapshot returns copies of the food and coin pools.
func (w *World) PoolsSnapshot() (food, coins map[mdp.Pos]bool) {
	food = make(map[mdp.Pos]bool, len(w.food))
	for p := range w.food {
		food[p] = true
	}
	coins = make(map[mdp.Pos]bool, len(w.coins))
	for p := range w.coins {
		coins[p] = true
	}
	return food, coins
}

func (w *World) LastStats() TickStats { return w.lastStats }

// TrainLearner runs Q-learning training episodes from the currently
// occupied states against cloned pools. It returns nil when the active
// engine is the planner or no agents exist.
func (w *World) TrainLearner(episodes, stepCap int) []mdp.EpisodeStats {
	if w.learner == nil || len(w.agents) == 0 {
		return nil
	}
	env := w.envView()
	starts := make([]mdp.State, 0, len(w.agents))
	for _, p := range w.sortedAgentPositions() {
		a := w.agents[p]
		starts = append(starts, mdp.NewState(p, mdp.Cell{Health: a.Health, Money: a.Money}, w.food, w.coins))
	}
	return w.learner.Train(env, w.rng, starts, episodes, stepCap)
}
