package world

import "cellworld.ai/internal/sim/mdp"

// Debug helpers give tests deterministic preconditions without reaching
// into world internals. Loop-goroutine rules apply.

// DebugSetAgentVitals overwrites the vitals of the agent at p; it reports
// false when no agent is there.
func (w *World) DebugSetAgentVitals(p mdp.Pos, health, money int) bool {
	a, ok := w.agents[p]
	if !ok {
		return false
	}
	a.Health = health
	a.Money = money
	return true
}

// DebugSetPools replaces both resource pools wholesale.
func (w *World) DebugSetPools(food, coins []mdp.Pos) {
	w.food = map[mdp.Pos]bool{}
	for _, p := range food {
		w.food[p] = true
	}
	w.coins = map[mdp.Pos]bool{}
	for _, p := range coins {
		w.coins[p] = true
	}
}

// DebugLearnerRows reports the Q-table row count, 0 when no learner has
// been created yet.
func (w *World) DebugLearnerRows() int {
	if w.learner == nil {
		return 0
	}
	return w.learner.Rows()
}
