package mdp

// Transition computes the successor of (state, action): move under the
// env's boundary mode, pay the per-move health point, eat food or pick up
// a coin on the target cell, and report death. ok=false means the agent
// dies on this action; no part of the returned state may be committed in
// that case.
//
// The returned state carries fresh pool slices, so probing a transition
// never disturbs the caller's pools. A real step commits via Env.Consume.
func Transition(env *Env, s State, a Action) (State, bool) {
	np := env.Move(s.Pos, a)

	health := s.Health - 1
	money := s.Money
	foods := s.Foods
	coins := s.Coins

	if containsPos(foods, np) && (!env.FoodCostsMoney || money >= 1) {
		health += 5
		if env.FoodCostsMoney {
			money--
		}
		foods = removePos(foods, np)
	}
	if containsPos(coins, np) {
		money++
		coins = removePos(coins, np)
	}

	if health <= 0 {
		return State{}, false
	}
	return State{Pos: np, Health: health, Money: money, Foods: foods, Coins: coins}, true
}

// RewardSpec shapes the scalar reward. The planner variant uses a flat -1
// move penalty; the learner variant softens it to -0.2 and adds a bonus
// proportional to current health so staying alive is worth something
// before any resource is reached.
type RewardSpec struct {
	MovePenalty  float64
	FoodBonus    float64
	CoinBonus    float64
	DeathPenalty float64
	HealthWeight float64
}

func PlannerReward() RewardSpec {
	return RewardSpec{MovePenalty: -1, FoodBonus: 10, CoinBonus: 5, DeathPenalty: -100}
}

func LearnerReward() RewardSpec {
	return RewardSpec{MovePenalty: -0.2, FoodBonus: 10, CoinBonus: 5, DeathPenalty: -100, HealthWeight: 0.1}
}

// Reward scores (state, action) by probing the transition. Death returns
// exactly the death penalty, overriding every other term. Resource bonuses
// are judged against the pre-transition pools so that eating the food
// still scores it.
func Reward(env *Env, s State, a Action) float64 {
	next, ok := Transition(env, s, a)
	if !ok {
		return env.Reward.DeathPenalty
	}
	r := env.Reward.MovePenalty + env.Reward.HealthWeight*float64(s.Health)
	if containsPos(s.Foods, next.Pos) {
		r += env.Reward.FoodBonus
	}
	if containsPos(s.Coins, next.Pos) {
		r += env.Reward.CoinBonus
	}
	return r
}
