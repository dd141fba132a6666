package mdp

import "math"

// Policy maps a full state key to the best action found for it. States
// where every action dies have no entry; callers fall back to ActionStay.
type Policy map[string]Action

// ValueIteration solves for an optimal deterministic policy over the given
// enumerated states. The state set must stay small (the states actually
// instantiated by living agents), because the full position x vitals x
// pool-configuration product is combinatorially large.
//
// Sweeps repeat until the largest absolute value change falls below eps.
// Ties between actions are broken by Env.Actions() order: the first action
// reaching the maximum wins, which makes re-solving the same input twice
// yield the same policy.
func ValueIteration(env *Env, states []State, gamma, eps float64) Policy {
	values := make(map[string]float64, len(states))
	keys := make([]string, len(states))
	for i, s := range states {
		keys[i] = s.Key()
		values[keys[i]] = 0
	}
	policy := make(Policy, len(states))
	actions := env.Actions()

	for {
		delta := 0.0
		for i, s := range states {
			best := math.Inf(-1)
			bestAction := ActionStay
			found := false
			for _, a := range actions {
				next, ok := Transition(env, s, a)
				if !ok {
					continue
				}
				v := Reward(env, s, a) + gamma*values[next.Key()]
				if !found || v > best {
					best = v
					bestAction = a
					found = true
				}
			}
			prev := values[keys[i]]
			if found {
				if d := math.Abs(best - prev); d > delta {
					delta = d
				}
				values[keys[i]] = best
				policy[keys[i]] = bestAction
			} else {
				// Dead end: value is -inf and the policy entry stays
				// undefined. A -inf to -inf sweep contributes no delta,
				// otherwise convergence would never be reached.
				if !math.IsInf(prev, -1) {
					delta = math.Inf(1)
				}
				values[keys[i]] = math.Inf(-1)
				delete(policy, keys[i])
			}
		}
		if delta < eps {
			return policy
		}
	}
}
