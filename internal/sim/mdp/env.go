// Package mdp holds the decision core of the cell simulation: state keys,
// the transition and reward functions, and the two policy engines (batch
// value iteration and tabular Q-learning). Everything here is pure with
// respect to the live world; randomness comes from an injected *rand.Rand
// and pool mutation only ever happens on copies the caller commits.
package mdp

import (
	"fmt"
	"math/rand"
)

// Boundary selects how a move that leaves the grid is resolved.
type Boundary int

const (
	// BoundaryWrap wraps coordinates modulo the grid size.
	BoundaryWrap Boundary = iota
	// BoundaryClamp keeps the agent on its current cell when the move
	// would leave the grid.
	BoundaryClamp
)

func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "", "wrap":
		return BoundaryWrap, nil
	case "clamp":
		return BoundaryClamp, nil
	}
	return 0, fmt.Errorf("unknown boundary mode %q", s)
}

func (b Boundary) String() string {
	if b == BoundaryClamp {
		return "clamp"
	}
	return "wrap"
}

// Pos is a grid cell, 0-indexed column/row.
type Pos struct {
	X int
	Y int
}

func (p Pos) Less(q Pos) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

// Env is the immutable-by-convention view of the grid an engine plans
// against: dimensions, boundary mode, resource pools and reward shaping.
// Engines must not mutate the pools; they work on State copies and the
// world commits consumption after a real step.
type Env struct {
	Width    int
	Height   int
	Boundary Boundary

	Food  map[Pos]bool
	Coins map[Pos]bool

	// FoodTarget/CoinTarget are the replenishment thresholds, used only
	// during Q-learning training episodes (the live world replenishes
	// its own pools each tick).
	FoodTarget int
	CoinTarget int

	Reward RewardSpec

	// FoodCostsMoney gates food consumption on money >= 1 and charges
	// one unit per meal. When false food is free.
	FoodCostsMoney bool

	AllowStay bool
}

func (e *Env) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < e.Width && p.Y >= 0 && p.Y < e.Height
}

// Move applies an action delta under the env's boundary mode.
func (e *Env) Move(p Pos, a Action) Pos {
	dx, dy := a.Delta()
	np := Pos{X: p.X + dx, Y: p.Y + dy}
	switch e.Boundary {
	case BoundaryClamp:
		if !e.InBounds(np) {
			return p
		}
		return np
	default:
		np.X = ((np.X % e.Width) + e.Width) % e.Width
		np.Y = ((np.Y % e.Height) + e.Height) % e.Height
		return np
	}
}

// Actions returns the action set in its canonical evaluation order.
// Value iteration breaks ties by this order, so it must be stable.
func (e *Env) Actions() []Action {
	if e.AllowStay {
		return []Action{ActionUp, ActionDown, ActionLeft, ActionRight, ActionStay}
	}
	return []Action{ActionUp, ActionDown, ActionLeft, ActionRight}
}

// Clone deep-copies the env so a training episode can consume resources
// without touching the caller's pools.
func (e *Env) Clone() *Env {
	c := *e
	c.Food = make(map[Pos]bool, len(e.Food))
	for p := range e.Food {
		c.Food[p] = true
	}
	c.Coins = make(map[Pos]bool, len(e.Coins))
	for p := range e.Coins {
		c.Coins[p] = true
	}
	return &c
}

// Consume commits the pool deltas of a real step: everything present in
// the env pools but absent from the state's pools was eaten.
func (e *Env) Consume(next State) {
	syncPool(e.Food, next.Foods)
	syncPool(e.Coins, next.Coins)
}

func syncPool(pool map[Pos]bool, kept []Pos) {
	keep := make(map[Pos]bool, len(kept))
	for _, p := range kept {
		keep[p] = true
	}
	for p := range pool {
		if !keep[p] {
			delete(pool, p)
		}
	}
}

// Replenish tops both pools back up to their targets.
func (e *Env) Replenish(rng *rand.Rand) {
	FillPool(rng, e.Food, e.FoodTarget, e.Width, e.Height, e.Coins)
	FillPool(rng, e.Coins, e.CoinTarget, e.Width, e.Height, e.Food)
}

// FillPool adds unique random positions to pool until it holds target
// entries. Positions already in pool or in avoid are re-rolled. The two
// pools are disjoint, so the fill stops short as soon as they cover the
// whole grid rather than rerolling forever; the world config validates
// up front that its targets always leave free cells.
func FillPool(rng *rand.Rand, pool map[Pos]bool, target, width, height int, avoid map[Pos]bool) {
	for len(pool) < target && len(pool)+len(avoid) < width*height {
		p := Pos{X: rng.Intn(width), Y: rng.Intn(height)}
		if pool[p] || avoid[p] {
			continue
		}
		pool[p] = true
	}
}
