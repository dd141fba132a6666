package world

import (
	"fmt"

	"cellworld.ai/internal/sim/mdp"
)

type Config struct {
	ID         string
	Seed       int64
	TickRateHz int

	GridWidth  int
	GridHeight int
	Boundary   mdp.Boundary

	InitialFood  int
	InitialCoins int
	FoodTarget   int
	CoinTarget   int

	StartHealth int
	StartMoney  int

	// Engine selects the policy strategy: mdp.EnginePlanner or
	// mdp.EngineQLearn.
	Engine    string
	AllowStay bool

	// FreeFood disables the money-gated food variant: eating neither
	// requires nor costs money. The default (false) is the batch
	// variant's behavior; the two observed variants disagree here, so
	// the choice is an explicit knob rather than an engine side effect.
	FreeFood bool

	Gamma       float64
	ConvergeEps float64

	Alpha         float64
	Epsilon       float64
	TrainEpisodes int
	TrainStepCap  int

	SnapshotEveryTicks int
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if c.Seed == 0 {
		c.Seed = 1337
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
	if c.GridWidth <= 0 {
		c.GridWidth = 20
	}
	if c.GridHeight <= 0 {
		c.GridHeight = 20
	}
	if c.InitialFood <= 0 {
		c.InitialFood = 50
	}
	if c.InitialCoins <= 0 {
		c.InitialCoins = 20
	}
	if c.FoodTarget <= 0 {
		c.FoodTarget = 30
	}
	if c.CoinTarget <= 0 {
		c.CoinTarget = 10
	}
	if c.StartHealth <= 0 {
		c.StartHealth = 10
	}
	if c.StartMoney <= 0 {
		c.StartMoney = 5
	}
	if c.Engine == "" {
		c.Engine = mdp.EnginePlanner
	}
	if c.Gamma <= 0 || c.Gamma >= 1 {
		c.Gamma = 0.9
	}
	if c.ConvergeEps <= 0 {
		c.ConvergeEps = 1e-4
	}
	if c.Alpha <= 0 {
		c.Alpha = 0.1
	}
	if c.Epsilon <= 0 {
		c.Epsilon = 0.9
	}
	if c.TrainEpisodes <= 0 {
		c.TrainEpisodes = 200
	}
	if c.TrainStepCap <= 0 {
		c.TrainStepCap = 100
	}
	if c.SnapshotEveryTicks <= 0 {
		c.SnapshotEveryTicks = 3000
	}
}

func (c *Config) validate() error {
	if err := mdp.ValidEngine(c.Engine); err != nil {
		return err
	}
	capacity := c.GridWidth * c.GridHeight
	// The pools avoid each other, so the seed counts must fit together,
	// and each replenishment target must fit next to the other pool at
	// its largest possible size (its seed count or its own target,
	// whichever is bigger). Anything looser lets a fill run out of free
	// cells mid-tick.
	if c.InitialFood+c.InitialCoins > capacity {
		return fmt.Errorf("grid %dx%d cannot hold %d food + %d coins",
			c.GridWidth, c.GridHeight, c.InitialFood, c.InitialCoins)
	}
	maxFood := max(c.InitialFood, c.FoodTarget)
	maxCoins := max(c.InitialCoins, c.CoinTarget)
	if c.FoodTarget+maxCoins > capacity {
		return fmt.Errorf("grid %dx%d cannot replenish food to %d next to up to %d coins",
			c.GridWidth, c.GridHeight, c.FoodTarget, maxCoins)
	}
	if c.CoinTarget+maxFood > capacity {
		return fmt.Errorf("grid %dx%d cannot replenish coins to %d next to up to %d food",
			c.GridWidth, c.GridHeight, c.CoinTarget, maxFood)
	}
	return nil
}
