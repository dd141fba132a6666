package world

import (
	"sort"

	"cellworld.ai/internal/sim/mdp"
)

// StepOnce advances the world by one tick: every agent asks the active
// engine for an action, transitions for real (pool consumption commits),
// dead agents are dropped, and both pools are replenished back up to
// their targets. Agents are processed in sorted position order so a run
// is reproducible under a fixed seed; which of two agents claims a shared
// resource tile is decided by that order, an accepted nondeterminism of
// the model rather than a bug.
func (w *World) StepOnce() TickStats {
	stats := TickStats{}
	var actions []RecordedAction

	if len(w.agents) > 0 {
		env := w.envView()
		positions := w.sortedAgentPositions()

		states := make([]mdp.State, len(positions))
		for i, p := range positions {
			a := w.agents[p]
			states[i] = mdp.NewState(p, mdp.Cell{Health: a.Health, Money: a.Money}, w.food, w.coins)
		}
		w.engine.Prepare(env, states)

		moved := make(map[mdp.Pos]*Agent, len(positions))
		for i, p := range positions {
			// The action is chosen against the tick-start snapshot (the
			// planner's policy is keyed on exactly these states); the
			// step itself runs against the live pools, so an earlier
			// agent's claim on a shared tile sticks.
			act, ok := w.engine.ChooseAction(env, states[i])
			if !ok {
				// No surviving action: the documented fallback is to
				// stand still, which still pays the move penalty.
				act = mdp.ActionStay
			}
			a := w.agents[p]
			s := mdp.NewState(p, mdp.Cell{Health: a.Health, Money: a.Money}, w.food, w.coins)
			reward := mdp.Reward(env, s, act)
			next, alive := mdp.Transition(env, s, act)
			w.engine.Observe(env, s, act, reward, next, !alive)

			rec := RecordedAction{From: [2]int{p.X, p.Y}, Action: act.String()}
			if !alive {
				// Death: remove the agent, commit nothing from this
				// transition.
				rec.Died = true
				actions = append(actions, rec)
				stats.Deaths++
				w.deaths++
				continue
			}

			if len(next.Foods) != len(s.Foods) {
				stats.FoodEaten++
				w.foodEaten++
			}
			if len(next.Coins) != len(s.Coins) {
				stats.CoinsTaken++
				w.coinsTaken++
			}
			env.Consume(next)

			rec.To = [2]int{next.Pos.X, next.Pos.Y}
			actions = append(actions, rec)
			// Two agents converging on one cell merge; the later (in
			// sort order) wins the slot.
			moved[next.Pos] = &Agent{Health: next.Health, Money: next.Money}
		}
		w.agents = moved
	}

	stats.Replenished = w.replenish()
	stats.Alive = len(w.agents)

	tick := w.tick.Add(1)
	stats.Digest = w.StateDigest()
	w.lastStats = stats

	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:    tick,
			Engine:  w.cfg.Engine,
			Actions: actions,
			Stats:   stats,
			Digest:  stats.Digest,
		})
	}
	return stats
}

// replenish tops both pools back up to their thresholds and reports how
// many positions were added.
func (w *World) replenish() int {
	before := len(w.food) + len(w.coins)
	mdp.FillPool(w.rng, w.food, w.cfg.FoodTarget, w.cfg.GridWidth, w.cfg.GridHeight, w.coins)
	mdp.FillPool(w.rng, w.coins, w.cfg.CoinTarget, w.cfg.GridWidth, w.cfg.GridHeight, w.food)
	return len(w.food) + len(w.coins) - before
}

func (w *World) sortedAgentPositions() []mdp.Pos {
	positions := make([]mdp.Pos, 0, len(w.agents))
	for p := range w.agents {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Less(positions[j]) })
	return positions
}
