package world

import "cellworld.ai/internal/sim/mdp"

// Agent edits are effective immediately and perform no validation beyond
// bounds checking. They must run on the loop goroutine (or in tests
// driving the world synchronously); transports go through Control.

// PlaceAgent inserts an agent with starting vitals. Placing onto an
// occupied cell resets that agent to its starting vitals.
func (w *World) PlaceAgent(p mdp.Pos) error {
	if !w.inBounds(p) {
		return ErrInvalidPosition
	}
	w.agents[p] = &Agent{Health: w.cfg.StartHealth, Money: w.cfg.StartMoney}
	return nil
}

// RemoveAgent deletes the agent at p, if any.
func (w *World) RemoveAgent(p mdp.Pos) error {
	if !w.inBounds(p) {
		return ErrInvalidPosition
	}
	delete(w.agents, p)
	return nil
}

// ToggleAgent is the click behavior: remove when occupied, place when
// empty.
func (w *World) ToggleAgent(p mdp.Pos) error {
	if !w.inBounds(p) {
		return ErrInvalidPosition
	}
	if _, ok := w.agents[p]; ok {
		delete(w.agents, p)
		return nil
	}
	w.agents[p] = &Agent{Health: w.cfg.StartHealth, Money: w.cfg.StartMoney}
	return nil
}

// Reset clears all agents, regenerates both pools at their configured
// initial sizes and resets the active engine (for the learner this
// discards the Q-table).
func (w *World) Reset() {
	w.agents = map[mdp.Pos]*Agent{}
	w.food = map[mdp.Pos]bool{}
	w.coins = map[mdp.Pos]bool{}
	w.seedPools()
	if w.engine != nil {
		w.engine.Reset()
	}
	if w.learner != nil {
		w.learner.Reset()
	}
	w.deaths = 0
	w.foodEaten = 0
	w.coinsTaken = 0
	w.lastStats = TickStats{}
}

// SetEngine switches the active policy engine. The Q-table survives a
// switch away and back; only Reset clears it.
func (w *World) SetEngine(name string) error {
	return w.setEngine(name)
}

// SetRunning pauses or resumes ticking. Control traffic and observer
// frames keep flowing while paused.
func (w *World) SetRunning(running bool) { w.running = running }

func (w *World) Running() bool { return w.running }

func (w *World) inBounds(p mdp.Pos) bool {
	return p.X >= 0 && p.X < w.cfg.GridWidth && p.Y >= 0 && p.Y < w.cfg.GridHeight
}
