package world

import (
	"encoding/json"
	"sort"

	"cellworld.ai/internal/protocol"
	"cellworld.ai/internal/sim/mdp"
)

// ObserverJoinRequest registers a read-only session that receives one
// TICK frame per ticker firing. All observer state is maintained by the
// world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	Out       chan []byte
}

type observerClient struct {
	id  string
	out chan []byte
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) ObserverLeave() chan<- string             { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	w.observers[req.SessionID] = &observerClient{id: req.SessionID, out: req.Out}
	// Immediate first frame so a new observer does not wait a tick.
	w.sendFrame(w.observers[req.SessionID], w.buildFrame())
}

func (w *World) handleObserverLeave(id string) {
	delete(w.observers, id)
}

func (w *World) broadcastFrame() {
	if len(w.observers) == 0 {
		return
	}
	frame := w.buildFrame()
	for _, c := range w.observers {
		w.sendFrame(c, frame)
	}
}

// sendFrame never blocks the loop: a slow observer just skips frames.
func (w *World) sendFrame(c *observerClient, frame []byte) {
	select {
	case c.out <- frame:
	default:
	}
}

func (w *World) buildFrame() []byte {
	msg := protocol.TickMsg{
		Type:    protocol.TypeTick,
		Tick:    w.tick.Load(),
		Running: w.running,
		Engine:  w.cfg.Engine,
		Grid: protocol.GridParams{
			Width:    w.cfg.GridWidth,
			Height:   w.cfg.GridHeight,
			Boundary: w.cfg.Boundary.String(),
		},
		Agents: make([]protocol.AgentView, 0, len(w.agents)),
		Foods:  poolList(w.food),
		Coins:  poolList(w.coins),
		Stats: protocol.TickStats{
			Alive:       w.lastStats.Alive,
			Deaths:      w.lastStats.Deaths,
			FoodEaten:   w.lastStats.FoodEaten,
			CoinsTaken:  w.lastStats.CoinsTaken,
			Replenished: w.lastStats.Replenished,
			Digest:      w.lastStats.Digest,
		},
	}
	for _, p := range w.sortedAgentPositions() {
		a := w.agents[p]
		msg.Agents = append(msg.Agents, protocol.AgentView{
			Pos:    [2]int{p.X, p.Y},
			Health: a.Health,
			Money:  a.Money,
		})
	}
	b, _ := json.Marshal(msg)
	return b
}

func poolList(pool map[mdp.Pos]bool) [][2]int {
	out := make([][2]int, 0, len(pool))
	for p := range pool {
		out = append(out, [2]int{p.X, p.Y})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
