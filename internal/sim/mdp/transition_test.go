package mdp

import (
	"math"
	"testing"
)

func testEnv(w, h int, b Boundary, spec RewardSpec, costsMoney bool) *Env {
	return &Env{
		Width:          w,
		Height:         h,
		Boundary:       b,
		Food:           map[Pos]bool{},
		Coins:          map[Pos]bool{},
		Reward:         spec,
		FoodCostsMoney: costsMoney,
	}
}

func TestTransition_MoveCostsOneHealth(t *testing.T) {
	env := testEnv(20, 20, BoundaryWrap, PlannerReward(), true)
	s := NewState(Pos{5, 5}, Cell{Health: 10, Money: 5}, env.Food, env.Coins)

	next, ok := Transition(env, s, ActionRight)
	if !ok {
		t.Fatalf("transition died unexpectedly")
	}
	if next.Pos != (Pos{6, 5}) {
		t.Fatalf("pos: got %v want %v", next.Pos, Pos{6, 5})
	}
	if next.Health != 9 {
		t.Fatalf("health: got %d want %d", next.Health, 9)
	}
	if next.Money != 5 {
		t.Fatalf("money: got %d want %d", next.Money, 5)
	}
}

func TestTransition_WrapAndClamp(t *testing.T) {
	wrap := testEnv(20, 20, BoundaryWrap, PlannerReward(), true)
	if got := wrap.Move(Pos{0, 0}, ActionLeft); got != (Pos{19, 0}) {
		t.Fatalf("wrap left: got %v want %v", got, Pos{19, 0})
	}
	if got := wrap.Move(Pos{19, 19}, ActionDown); got != (Pos{19, 0}) {
		t.Fatalf("wrap down: got %v want %v", got, Pos{19, 0})
	}

	clamp := testEnv(20, 20, BoundaryClamp, LearnerReward(), false)
	if got := clamp.Move(Pos{0, 0}, ActionLeft); got != (Pos{0, 0}) {
		t.Fatalf("clamp left: got %v want %v", got, Pos{0, 0})
	}
	if got := clamp.Move(Pos{0, 0}, ActionUp); got != (Pos{0, 0}) {
		t.Fatalf("clamp up: got %v want %v", got, Pos{0, 0})
	}
}

// The documented arithmetic of the free-food variant: agent at (5,5) with
// health 10 and no money steps down onto food and ends at health 14 with
// money unchanged.
func TestTransition_FreeFoodVariantArithmetic(t *testing.T) {
	env := testEnv(20, 20, BoundaryClamp, LearnerReward(), false)
	env.Food[Pos{5, 6}] = true
	s := NewState(Pos{5, 5}, Cell{Health: 10, Money: 0}, env.Food, env.Coins)

	next, ok := Transition(env, s, ActionDown)
	if !ok {
		t.Fatalf("transition died unexpectedly")
	}
	if next.Health != 14 {
		t.Fatalf("health: got %d want %d", next.Health, 14)
	}
	if next.Money != 0 {
		t.Fatalf("money: got %d want %d", next.Money, 0)
	}
	if containsPos(next.Foods, Pos{5, 6}) {
		t.Fatalf("food was not consumed")
	}
}

func TestTransition_FoodRequiresMoney(t *testing.T) {
	env := testEnv(20, 20, BoundaryWrap, PlannerReward(), true)
	env.Food[Pos{5, 6}] = true

	broke := NewState(Pos{5, 5}, Cell{Health: 10, Money: 0}, env.Food, env.Coins)
	next, ok := Transition(env, broke, ActionDown)
	if !ok {
		t.Fatalf("transition died unexpectedly")
	}
	if next.Health != 9 || next.Money != 0 {
		t.Fatalf("broke agent ate: health=%d money=%d", next.Health, next.Money)
	}
	if !containsPos(next.Foods, Pos{5, 6}) {
		t.Fatalf("food disappeared without being eaten")
	}

	funded := NewState(Pos{5, 5}, Cell{Health: 10, Money: 2}, env.Food, env.Coins)
	next, ok = Transition(env, funded, ActionDown)
	if !ok {
		t.Fatalf("transition died unexpectedly")
	}
	if next.Health != 14 || next.Money != 1 {
		t.Fatalf("funded agent: health=%d money=%d want 14/1", next.Health, next.Money)
	}
	if containsPos(next.Foods, Pos{5, 6}) {
		t.Fatalf("food was not consumed")
	}
}

func TestTransition_CoinPickup(t *testing.T) {
	env := testEnv(20, 20, BoundaryWrap, PlannerReward(), true)
	env.Coins[Pos{6, 5}] = true
	s := NewState(Pos{5, 5}, Cell{Health: 10, Money: 0}, env.Food, env.Coins)

	next, ok := Transition(env, s, ActionRight)
	if !ok {
		t.Fatalf("transition died unexpectedly")
	}
	if next.Money != 1 {
		t.Fatalf("money: got %d want %d", next.Money, 1)
	}
	if containsPos(next.Coins, Pos{6, 5}) {
		t.Fatalf("coin was not collected")
	}
}

func TestTransition_DeathSignaled(t *testing.T) {
	env := testEnv(20, 20, BoundaryWrap, PlannerReward(), true)
	s := NewState(Pos{5, 5}, Cell{Health: 1, Money: 0}, env.Food, env.Coins)

	if _, ok := Transition(env, s, ActionUp); ok {
		t.Fatalf("expected death at health 1 with no food")
	}
}

func TestTransition_ProbeLeavesPoolsUntouched(t *testing.T) {
	env := testEnv(20, 20, BoundaryWrap, PlannerReward(), true)
	env.Food[Pos{5, 6}] = true
	env.Coins[Pos{5, 4}] = true
	s := NewState(Pos{5, 5}, Cell{Health: 10, Money: 5}, env.Food, env.Coins)

	if _, ok := Transition(env, s, ActionDown); !ok {
		t.Fatalf("transition died unexpectedly")
	}
	if _, ok := Transition(env, s, ActionUp); !ok {
		t.Fatalf("transition died unexpectedly")
	}
	if !env.Food[Pos{5, 6}] || !env.Coins[Pos{5, 4}] {
		t.Fatalf("planning probe mutated live pools")
	}
	if !containsPos(s.Foods, Pos{5, 6}) || !containsPos(s.Coins, Pos{5, 4}) {
		t.Fatalf("planning probe mutated the input state")
	}
}

func TestReward_DeathOverridesEverything(t *testing.T) {
	env := testEnv(20, 20, BoundaryWrap, PlannerReward(), true)
	// Food on the target cell cannot rescue a 1-health broke agent, and
	// the bonus must not leak into the death penalty.
	env.Food[Pos{5, 6}] = true
	s := NewState(Pos{5, 5}, Cell{Health: 1, Money: 0}, env.Food, env.Coins)

	if got := Reward(env, s, ActionDown); got != -100 {
		t.Fatalf("death reward: got %v want %v", got, -100.0)
	}
}

func TestReward_BonusesAndShaping(t *testing.T) {
	env := testEnv(20, 20, BoundaryWrap, PlannerReward(), true)
	env.Food[Pos{5, 6}] = true
	env.Coins[Pos{6, 5}] = true
	s := NewState(Pos{5, 5}, Cell{Health: 10, Money: 5}, env.Food, env.Coins)

	if got := Reward(env, s, ActionDown); got != 9 { // -1 + 10
		t.Fatalf("food reward: got %v want %v", got, 9.0)
	}
	if got := Reward(env, s, ActionRight); got != 4 { // -1 + 5
		t.Fatalf("coin reward: got %v want %v", got, 4.0)
	}
	if got := Reward(env, s, ActionUp); got != -1 {
		t.Fatalf("plain move reward: got %v want %v", got, -1.0)
	}

	env.Reward = LearnerReward()
	if got := Reward(env, s, ActionUp); math.Abs(got-0.8) > 1e-9 { // -0.2 + 10*0.1
		t.Fatalf("shaped move reward: got %v want %v", got, 0.8)
	}
}

func TestState_KeyIgnoresInsertionOrder(t *testing.T) {
	a := map[Pos]bool{{1, 2}: true, {3, 4}: true, {0, 0}: true}
	b := map[Pos]bool{{3, 4}: true, {0, 0}: true, {1, 2}: true}

	sa := NewState(Pos{5, 5}, Cell{Health: 10, Money: 5}, a, nil)
	sb := NewState(Pos{5, 5}, Cell{Health: 10, Money: 5}, b, nil)
	if sa.Key() != sb.Key() {
		t.Fatalf("keys differ for equal pools:\n%s\n%s", sa.Key(), sb.Key())
	}

	sc := NewState(Pos{5, 5}, Cell{Health: 10, Money: 4}, a, nil)
	if sa.Key() == sc.Key() {
		t.Fatalf("keys equal for different money")
	}
}
