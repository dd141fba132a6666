package mdp

import "fmt"

// PolicyEngine is the strategy seam between the tick driver and the two
// policy-derivation algorithms. The driver calls Prepare once per tick
// with every state it is about to act on, then ChooseAction per agent and
// Observe after each real step.
type PolicyEngine interface {
	Name() string

	// Prepare is called once per tick before any ChooseAction.
	Prepare(env *Env, states []State)

	// ChooseAction returns the engine's action for the state. ok=false
	// means the engine has no opinion (dead-end state for the planner);
	// the caller applies the ActionStay fallback.
	ChooseAction(env *Env, s State) (Action, bool)

	// Observe feeds the outcome of a real step back to the engine.
	// terminal marks a death transition.
	Observe(env *Env, s State, a Action, reward float64, next State, terminal bool)

	// Reset discards learned/derived state on an explicit world reset.
	Reset()
}

const (
	EnginePlanner = "planner"
	EngineQLearn  = "qlearn"
)

// Planner re-solves value iteration each tick over the states of the
// currently living agents and answers lookups from the resulting policy.
// It keeps nothing across ticks.
type Planner struct {
	Gamma       float64
	ConvergeEps float64

	policy Policy
}

func NewPlanner(gamma, eps float64) *Planner {
	if gamma <= 0 || gamma >= 1 {
		gamma = 0.9
	}
	if eps <= 0 {
		eps = 1e-4
	}
	return &Planner{Gamma: gamma, ConvergeEps: eps}
}

func (p *Planner) Name() string { return EnginePlanner }

func (p *Planner) Prepare(env *Env, states []State) {
	p.policy = ValueIteration(env, states, p.Gamma, p.ConvergeEps)
}

func (p *Planner) ChooseAction(env *Env, s State) (Action, bool) {
	a, ok := p.policy[s.Key()]
	if !ok {
		return ActionStay, false
	}
	return a, true
}

func (p *Planner) Observe(env *Env, s State, a Action, reward float64, next State, terminal bool) {
}

func (p *Planner) Reset() { p.policy = nil }

var _ PolicyEngine = (*Planner)(nil)
var _ PolicyEngine = (*QLearner)(nil)

// EngineNames lists the selectable engines for flag/config validation.
func EngineNames() []string { return []string{EnginePlanner, EngineQLearn} }

func ValidEngine(name string) error {
	for _, n := range EngineNames() {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("unknown policy engine %q", name)
}
