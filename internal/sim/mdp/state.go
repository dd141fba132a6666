package mdp

import (
	"sort"
	"strconv"
	"strings"
)

// Cell is the per-agent attribute pair.
type Cell struct {
	Health int
	Money  int
}

// State is the full planning snapshot: agent position and vitals plus the
// sorted resource pools. Sorting makes Key independent of map insertion
// order, so two states compare equal iff every component is equal.
//
// Value iteration keys on the full snapshot (Key); the Q-table keys on the
// compact (position, health, money) triple only, since the learner has to
// generalize across pool configurations to ever revisit a row.
type State struct {
	Pos    Pos
	Health int
	Money  int
	Foods  []Pos
	Coins  []Pos
}

// NewState snapshots an agent and the current pools into a planning state.
func NewState(pos Pos, c Cell, food, coins map[Pos]bool) State {
	return State{
		Pos:    pos,
		Health: c.Health,
		Money:  c.Money,
		Foods:  sortedPositions(food),
		Coins:  sortedPositions(coins),
	}
}

func sortedPositions(pool map[Pos]bool) []Pos {
	out := make([]Pos, 0, len(pool))
	for p := range pool {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Key returns the canonical hashable identity of the full snapshot.
func (s State) Key() string {
	var b strings.Builder
	b.Grow(16 + 6*(len(s.Foods)+len(s.Coins)))
	writePos(&b, s.Pos)
	b.WriteByte('h')
	b.WriteString(strconv.Itoa(s.Health))
	b.WriteByte('m')
	b.WriteString(strconv.Itoa(s.Money))
	b.WriteByte('F')
	for _, p := range s.Foods {
		writePos(&b, p)
	}
	b.WriteByte('C')
	for _, p := range s.Coins {
		writePos(&b, p)
	}
	return b.String()
}

func writePos(b *strings.Builder, p Pos) {
	b.WriteString(strconv.Itoa(p.X))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(p.Y))
	b.WriteByte(';')
}

// CompactKey is the Q-table row key.
type CompactKey struct {
	Pos    Pos
	Health int
	Money  int
}

func (s State) Compact() CompactKey {
	return CompactKey{Pos: s.Pos, Health: s.Health, Money: s.Money}
}

func containsPos(ps []Pos, p Pos) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}

func removePos(ps []Pos, p Pos) []Pos {
	out := make([]Pos, 0, len(ps)-1)
	for _, q := range ps {
		if q != p {
			out = append(out, q)
		}
	}
	return out
}
