package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the on-disk knob file. Zero values mean "use the default";
// world.Config.applyDefaults fills them in.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`

	GridWidth  int `yaml:"grid_width"`
	GridHeight int `yaml:"grid_height"`

	InitialFood  int `yaml:"initial_food"`
	InitialCoins int `yaml:"initial_coins"`
	FoodTarget   int `yaml:"food_target"`
	CoinTarget   int `yaml:"coin_target"`

	StartHealth int `yaml:"start_health"`
	StartMoney  int `yaml:"start_money"`

	Boundary       string `yaml:"boundary"` // wrap | clamp
	Engine         string `yaml:"engine"`   // planner | qlearn
	AllowStay      bool   `yaml:"allow_stay"`
	FoodCostsMoney *bool  `yaml:"food_costs_money"`

	Gamma       float64 `yaml:"gamma"`
	ConvergeEps float64 `yaml:"converge_eps"`

	Alpha         float64 `yaml:"alpha"`
	Epsilon       float64 `yaml:"epsilon"`
	TrainEpisodes int     `yaml:"train_episodes"`
	TrainStepCap  int     `yaml:"train_step_cap"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
