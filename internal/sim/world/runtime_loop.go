package world

import (
	"context"
	"time"

	"cellworld.ai/internal/protocol"
	"cellworld.ai/internal/sim/mdp"
)

type ctrlReq struct {
	msg  protocol.ControlMsg
	resp chan protocol.ControlResultMsg
}

// Control routes an edit from a transport into the loop goroutine and
// waits for the acknowledgement.
func (w *World) Control(ctx context.Context, msg protocol.ControlMsg) protocol.ControlResultMsg {
	req := ctrlReq{msg: msg, resp: make(chan protocol.ControlResultMsg, 1)}
	select {
	case w.ctrl <- req:
	case <-ctx.Done():
		return controlResult(msg.ID, false, protocol.ErrBusy, "world loop unavailable")
	}
	select {
	case res := <-req.resp:
		return res
	case <-ctx.Done():
		return controlResult(msg.ID, false, protocol.ErrBusy, "world loop unavailable")
	}
}

// Run drives the tick loop at the configured rate. Ticks advance only
// while running; control requests and observer sessions are serviced
// either way. Every ticker firing broadcasts a frame so a paused world
// still repaints after edits.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.ctrl:
			res := w.handleControl(req.msg)
			select {
			case req.resp <- res:
			default:
			}
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case <-ticker.C:
			if w.running {
				w.StepOnce()
			}
			w.broadcastFrame()
		}
	}
}

func (w *World) Stop() { close(w.stop) }

func (w *World) handleControl(msg protocol.ControlMsg) protocol.ControlResultMsg {
	switch msg.Op {
	case protocol.OpPlaceAgent, protocol.OpRemoveAgent, protocol.OpToggleAgent:
		if msg.Pos == nil {
			return controlResult(msg.ID, false, protocol.ErrBadRequest, "pos required")
		}
		p := mdp.Pos{X: msg.Pos[0], Y: msg.Pos[1]}
		var err error
		switch msg.Op {
		case protocol.OpPlaceAgent:
			err = w.PlaceAgent(p)
		case protocol.OpRemoveAgent:
			err = w.RemoveAgent(p)
		default:
			err = w.ToggleAgent(p)
		}
		if err != nil {
			return controlResult(msg.ID, false, protocol.ErrInvalidPosition, err.Error())
		}
		return controlResult(msg.ID, true, "", "")
	case protocol.OpSetRunning:
		if msg.Running == nil {
			return controlResult(msg.ID, false, protocol.ErrBadRequest, "running required")
		}
		w.SetRunning(*msg.Running)
		return controlResult(msg.ID, true, "", "")
	case protocol.OpReset:
		w.Reset()
		return controlResult(msg.ID, true, "", "")
	case protocol.OpSetEngine:
		if err := w.SetEngine(msg.Engine); err != nil {
			return controlResult(msg.ID, false, protocol.ErrUnknownEngine, err.Error())
		}
		return controlResult(msg.ID, true, "", "")
	}
	return controlResult(msg.ID, false, protocol.ErrBadRequest, "unknown control op")
}

func controlResult(id string, ok bool, code, message string) protocol.ControlResultMsg {
	if !protocol.IsKnownCode(code) {
		code = protocol.ErrInternal
	}
	return protocol.ControlResultMsg{
		Type:    protocol.TypeControlResult,
		ID:      id,
		OK:      ok,
		Code:    code,
		Message: message,
	}
}
