package worldtest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cellworld.ai/internal/protocol"
	world "cellworld.ai/internal/sim/world"
)

// Drives a running loop the way the observer transport does: control
// messages in, TICK frames out.
func TestRunLoop_ControlAndObserverFrames(t *testing.T) {
	h := NewHarness(t, world.Config{TickRateHz: 100})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = h.W.Run(ctx)
		close(done)
	}()
	defer func() {
		h.W.Stop()
		<-done
	}()

	pos := [2]int{5, 5}
	res := h.W.Control(ctx, protocol.ControlMsg{
		Type: protocol.TypeControl, ID: "C1", Op: protocol.OpPlaceAgent, Pos: &pos,
	})
	if !res.OK {
		t.Fatalf("place agent: %+v", res)
	}

	bad := [2]int{99, 99}
	res = h.W.Control(ctx, protocol.ControlMsg{
		Type: protocol.TypeControl, ID: "C2", Op: protocol.OpPlaceAgent, Pos: &bad,
	})
	if res.OK || res.Code != protocol.ErrInvalidPosition {
		t.Fatalf("out-of-bounds place: %+v", res)
	}

	running := true
	res = h.W.Control(ctx, protocol.ControlMsg{
		Type: protocol.TypeControl, ID: "C3", Op: protocol.OpSetRunning, Running: &running,
	})
	if !res.OK {
		t.Fatalf("set running: %+v", res)
	}

	out := make(chan []byte, 16)
	h.W.ObserverJoin() <- world.ObserverJoinRequest{SessionID: "O1", Out: out}

	deadline := time.After(5 * time.Second)
	for {
		var frame []byte
		select {
		case frame = <-out:
		case <-deadline:
			t.Fatalf("no advancing TICK frame received")
		}
		var msg protocol.TickMsg
		if err := json.Unmarshal(frame, &msg); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if msg.Type != protocol.TypeTick {
			t.Fatalf("frame type: got %q want %q", msg.Type, protocol.TypeTick)
		}
		if msg.Tick > 0 && msg.Running {
			if len(msg.Agents) != 1 {
				t.Fatalf("agents in frame: got %d want 1", len(msg.Agents))
			}
			break
		}
	}

	res = h.W.Control(ctx, protocol.ControlMsg{
		Type: protocol.TypeControl, ID: "C4", Op: protocol.OpSetEngine, Engine: "qlearn",
	})
	if !res.OK {
		t.Fatalf("set engine: %+v", res)
	}
	res = h.W.Control(ctx, protocol.ControlMsg{
		Type: protocol.TypeControl, ID: "C5", Op: protocol.OpSetEngine, Engine: "mcts",
	})
	if res.OK || res.Code != protocol.ErrUnknownEngine {
		t.Fatalf("unknown engine: %+v", res)
	}

	res = h.W.Control(ctx, protocol.ControlMsg{
		Type: protocol.TypeControl, ID: "C6", Op: protocol.OpReset,
	})
	if !res.OK {
		t.Fatalf("reset: %+v", res)
	}
}
