package mdp

import "fmt"

// Action is one of the fixed grid moves. ActionStay doubles as the
// fallback when a state has no surviving action.
type Action int

const (
	ActionUp Action = iota
	ActionDown
	ActionLeft
	ActionRight
	ActionStay
)

var actionDeltas = [...][2]int{
	ActionUp:    {0, -1},
	ActionDown:  {0, 1},
	ActionLeft:  {-1, 0},
	ActionRight: {1, 0},
	ActionStay:  {0, 0},
}

var actionNames = [...]string{
	ActionUp:    "UP",
	ActionDown:  "DOWN",
	ActionLeft:  "LEFT",
	ActionRight: "RIGHT",
	ActionStay:  "STAY",
}

func (a Action) Delta() (dx, dy int) {
	d := actionDeltas[a]
	return d[0], d[1]
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("ACTION(%d)", int(a))
	}
	return actionNames[a]
}

func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if name == s {
			return Action(a), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}
