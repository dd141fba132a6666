package world

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"cellworld.ai/internal/sim/mdp"
)

// StateDigest hashes the canonical world state: tick, engine, sorted
// agents and sorted pools. Two worlds evolved from the same seed and the
// same edits produce identical digest sequences, which is what the
// determinism tests and the tick log lean on.
func (w *World) StateDigest() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tick=%d engine=%s grid=%dx%d/%s\n",
		w.tick.Load(), w.cfg.Engine, w.cfg.GridWidth, w.cfg.GridHeight, w.cfg.Boundary)

	for _, p := range w.sortedAgentPositions() {
		a := w.agents[p]
		fmt.Fprintf(&b, "a %d,%d h=%d m=%d\n", p.X, p.Y, a.Health, a.Money)
	}
	writeSortedPool(&b, "f", w.food)
	writeSortedPool(&b, "c", w.coins)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

func writeSortedPool(b *strings.Builder, tag string, pool map[mdp.Pos]bool) {
	ps := make([]mdp.Pos, 0, len(pool))
	for p := range pool {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })
	for _, p := range ps {
		fmt.Fprintf(b, "%s %d,%d\n", tag, p.X, p.Y)
	}
}
