// Package worldtest drives the world through its exported API only, so
// these tests exercise exactly what a transport sees.
package worldtest

import (
	"testing"

	"cellworld.ai/internal/sim/mdp"
	world "cellworld.ai/internal/sim/world"
)

type Harness struct {
	T *testing.T
	W *world.World
}

func NewHarness(t *testing.T, cfg world.Config) *Harness {
	t.Helper()
	if cfg.ID == "" {
		cfg.ID = "test"
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, W: w}
}

func (h *Harness) Place(x, y int) {
	h.T.Helper()
	if err := h.W.PlaceAgent(mdp.Pos{X: x, Y: y}); err != nil {
		h.T.Fatalf("place (%d,%d): %v", x, y, err)
	}
}

// StepN advances n ticks and returns the digest after the last one.
func (h *Harness) StepN(n int) string {
	h.T.Helper()
	var digest string
	for i := 0; i < n; i++ {
		digest = h.W.StepOnce().Digest
	}
	return digest
}
