package mdp

import "math/rand"

// QLearner is the online tabular engine. The table is process-lifetime
// state owned by whichever world carries the learner; it survives across
// ticks and is cleared only by Reset.
type QLearner struct {
	Alpha        float64
	Gamma        float64
	Epsilon      float64
	EpsilonDecay float64
	EpsilonMin   float64

	rng   *rand.Rand
	table map[CompactKey]map[Action]float64
}

func NewQLearner(alpha, gamma, epsilon float64, rng *rand.Rand) *QLearner {
	if alpha <= 0 {
		alpha = 0.1
	}
	if gamma <= 0 || gamma >= 1 {
		gamma = 0.9
	}
	if epsilon <= 0 {
		epsilon = 0.9
	}
	return &QLearner{
		Alpha:        alpha,
		Gamma:        gamma,
		Epsilon:      epsilon,
		EpsilonDecay: 0.99,
		EpsilonMin:   0.01,
		rng:          rng,
		table:        map[CompactKey]map[Action]float64{},
	}
}

func (q *QLearner) Name() string { return EngineQLearn }

func (q *QLearner) Prepare(env *Env, states []State) {}

// row lazily initializes every action estimate to 0 for an unseen key.
func (q *QLearner) row(k CompactKey, actions []Action) map[Action]float64 {
	r, ok := q.table[k]
	if !ok {
		r = make(map[Action]float64, len(actions))
		for _, a := range actions {
			r[a] = 0
		}
		q.table[k] = r
	}
	return r
}

// ChooseAction is epsilon-greedy: explore uniformly with probability
// epsilon, otherwise exploit the row maximum, breaking ties by uniform
// choice among the tied actions.
func (q *QLearner) ChooseAction(env *Env, s State) (Action, bool) {
	actions := env.Actions()
	if q.rng.Float64() < q.Epsilon {
		return actions[q.rng.Intn(len(actions))], true
	}
	return q.greedy(env, s.Compact()), true
}

func (q *QLearner) greedy(env *Env, k CompactKey) Action {
	actions := env.Actions()
	r := q.row(k, actions)
	best := r[actions[0]]
	tied := []Action{actions[0]}
	for _, a := range actions[1:] {
		switch v := r[a]; {
		case v > best:
			best = v
			tied = tied[:1]
			tied[0] = a
		case v == best:
			tied = append(tied, a)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	return tied[q.rng.Intn(len(tied))]
}

// GreedyAction exposes the pure exploitation choice, used by tests and
// diagnostics to inspect the learned policy without epsilon noise.
func (q *QLearner) GreedyAction(env *Env, s State) Action {
	return q.greedy(env, s.Compact())
}

// Update applies the standard bootstrapped rule:
//
//	Q(s,a) += alpha * (r + gamma*max_a' Q(s',a') - Q(s,a))
//
// Terminal transitions bootstrap nothing: the target is the reward alone.
func (q *QLearner) Update(env *Env, s State, a Action, reward float64, next State, terminal bool) {
	actions := env.Actions()
	r := q.row(s.Compact(), actions)
	target := reward
	if !terminal {
		nr := q.row(next.Compact(), actions)
		best := nr[actions[0]]
		for _, na := range actions[1:] {
			if nr[na] > best {
				best = nr[na]
			}
		}
		target += q.Gamma * best
	}
	r[a] += q.Alpha * (target - r[a])
}

func (q *QLearner) Observe(env *Env, s State, a Action, reward float64, next State, terminal bool) {
	q.Update(env, s, a, reward, next, terminal)
}

// DecayEpsilon shifts behavior from exploration toward exploitation; one
// call per training episode.
func (q *QLearner) DecayEpsilon() {
	q.Epsilon *= q.EpsilonDecay
	if q.Epsilon < q.EpsilonMin {
		q.Epsilon = q.EpsilonMin
	}
}

func (q *QLearner) Reset() {
	q.table = map[CompactKey]map[Action]float64{}
}

// Rows reports the table size for diagnostics.
func (q *QLearner) Rows() int { return len(q.table) }

// EpisodeStats summarizes one training episode for the index database.
type EpisodeStats struct {
	Episode     int
	Steps       int
	TotalReward float64
	Epsilon     float64
}

// Train runs episodes of choose -> step -> update against clones of env,
// so the live pools are untouched. Each episode starts from a uniformly
// chosen entry of starts, replenishes the cloned pools when they are below
// target, and runs at most stepCap steps or until the walker dies.
func (q *QLearner) Train(env *Env, rng *rand.Rand, starts []State, episodes, stepCap int) []EpisodeStats {
	if len(starts) == 0 || episodes <= 0 {
		return nil
	}
	if stepCap <= 0 {
		stepCap = 100
	}
	stats := make([]EpisodeStats, 0, episodes)
	for ep := 0; ep < episodes; ep++ {
		eenv := env.Clone()
		eenv.Replenish(rng)

		start := starts[rng.Intn(len(starts))]
		s := NewState(start.Pos, Cell{Health: start.Health, Money: start.Money}, eenv.Food, eenv.Coins)

		total := 0.0
		steps := 0
		for ; steps < stepCap; steps++ {
			a, _ := q.ChooseAction(eenv, s)
			r := Reward(eenv, s, a)
			total += r
			next, alive := Transition(eenv, s, a)
			q.Update(eenv, s, a, r, next, !alive)
			if !alive {
				steps++
				break
			}
			eenv.Consume(next)
			eenv.Replenish(rng)
			s = NewState(next.Pos, Cell{Health: next.Health, Money: next.Money}, eenv.Food, eenv.Coins)
		}
		q.DecayEpsilon()
		stats = append(stats, EpisodeStats{Episode: ep, Steps: steps, TotalReward: total, Epsilon: q.Epsilon})
	}
	return stats
}
