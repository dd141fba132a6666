package mdp

import (
	"math/rand"
	"testing"
)

func TestValueIteration_ConvergesAndIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	env := testEnv(10, 10, BoundaryWrap, PlannerReward(), true)
	FillPool(rng, env.Food, 8, env.Width, env.Height, env.Coins)
	FillPool(rng, env.Coins, 4, env.Width, env.Height, env.Food)

	var states []State
	for i := 0; i < 20; i++ {
		p := Pos{X: rng.Intn(10), Y: rng.Intn(10)}
		states = append(states, NewState(p, Cell{Health: 5 + rng.Intn(6), Money: rng.Intn(4)}, env.Food, env.Coins))
	}

	p1 := ValueIteration(env, states, 0.9, 1e-4)
	p2 := ValueIteration(env, states, 0.9, 1e-4)
	if len(p1) != len(p2) {
		t.Fatalf("policy sizes differ: %d vs %d", len(p1), len(p2))
	}
	for k, a := range p1 {
		if p2[k] != a {
			t.Fatalf("policy differs at %s: %v vs %v", k, a, p2[k])
		}
	}
	for _, s := range states {
		if _, ok := p1[s.Key()]; !ok {
			t.Fatalf("no policy entry for live state %s", s.Key())
		}
	}
}

func TestValueIteration_PrefersFoodOverDeath(t *testing.T) {
	env := testEnv(20, 20, BoundaryWrap, PlannerReward(), true)
	env.Food[Pos{5, 6}] = true
	s := NewState(Pos{5, 5}, Cell{Health: 1, Money: 1}, env.Food, env.Coins)

	policy := ValueIteration(env, []State{s}, 0.9, 1e-4)
	a, ok := policy[s.Key()]
	if !ok {
		t.Fatalf("no policy entry for a state with a surviving action")
	}
	if a != ActionDown {
		t.Fatalf("policy chose %v, only %v survives", a, ActionDown)
	}
}

func TestValueIteration_DeadEndHasNoEntry(t *testing.T) {
	// Health 1, no reachable food: every move kills.
	env := testEnv(20, 20, BoundaryWrap, PlannerReward(), true)
	s := NewState(Pos{5, 5}, Cell{Health: 1, Money: 0}, env.Food, env.Coins)

	policy := ValueIteration(env, []State{s}, 0.9, 1e-4)
	if _, ok := policy[s.Key()]; ok {
		t.Fatalf("dead-end state has a policy entry")
	}
}

func TestValueIteration_TieBreakIsFirstActionInOrder(t *testing.T) {
	// Symmetric empty grid: all four moves are equivalent, so the first
	// evaluated action (UP) must win every time.
	env := testEnv(9, 9, BoundaryWrap, PlannerReward(), true)
	s := NewState(Pos{4, 4}, Cell{Health: 10, Money: 0}, env.Food, env.Coins)

	policy := ValueIteration(env, []State{s}, 0.9, 1e-4)
	a, ok := policy[s.Key()]
	if !ok {
		t.Fatalf("no policy entry")
	}
	if a != ActionUp {
		t.Fatalf("tie-break chose %v want %v", a, ActionUp)
	}
}
