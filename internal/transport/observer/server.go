// Package observer is the websocket surface for the external
// renderer/input collaborator: one TICK frame out per tick, control
// edits in, acknowledged per message.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"cellworld.ai/internal/protocol"
	"cellworld.ai/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// BootstrapHandler reports the world parameters a renderer needs before
// subscribing. Loopback only.
func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		resp := struct {
			ProtocolVersion string              `json:"protocol_version"`
			WorldID         string              `json:"world_id"`
			Tick            uint64              `json:"tick"`
			Engine          string              `json:"engine"`
			Grid            protocol.GridParams `json:"grid"`
			TickRateHz      int                 `json:"tick_rate_hz"`
			Seed            int64               `json:"seed"`
		}{
			ProtocolVersion: protocol.Version,
			WorldID:         cfg.ID,
			Tick:            s.world.CurrentTick(),
			Engine:          s.world.Engine(),
			Grid: protocol.GridParams{
				Width:    cfg.GridWidth,
				Height:   cfg.GridHeight,
				Boundary: cfg.Boundary.String(),
			},
			TickRateHz: cfg.TickRateHz,
			Seed:       cfg.Seed,
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub protocol.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			closePolicy(conn, "bad subscribe")
			return
		}
		if sub.Type != protocol.TypeSubscribe || sub.ProtocolVersion != protocol.Version {
			closePolicy(conn, "expected SUBSCRIBE")
			return
		}
		_ = conn.SetReadDeadline(time.Time{})

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		out := make(chan []byte, 64)

		select {
		case s.world.ObserverJoin() <- world.ObserverJoinRequest{SessionID: sid, Out: out}:
		default:
			closeBusy(conn, "server busy")
			return
		}
		defer func() {
			select {
			case s.world.ObserverLeave() <- sid:
			default:
			}
		}()

		s.log.Printf("observer %s connected from %s", sid, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader: control messages in.
		go s.readControls(ctx, cancel, conn)

		// Writer: tick frames out.
		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-out:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					return
				}
			}
		}
	}
}

func (s *Server) readControls(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(raw)
		if err != nil || base.Type != protocol.TypeControl {
			s.writeResult(conn, protocol.ControlResultMsg{
				Type: protocol.TypeControlResult,
				OK:   false,
				Code: protocol.ErrProtoBadRequest,
			})
			continue
		}
		var ctl protocol.ControlMsg
		if err := json.Unmarshal(raw, &ctl); err != nil {
			s.writeResult(conn, protocol.ControlResultMsg{
				Type: protocol.TypeControlResult,
				OK:   false,
				Code: protocol.ErrProtoBadRequest,
			})
			continue
		}
		cctx, ccancel := context.WithTimeout(ctx, 5*time.Second)
		res := s.world.Control(cctx, ctl)
		ccancel()
		s.writeResult(conn, res)
	}
}

func (s *Server) writeResult(conn *websocket.Conn, res protocol.ControlResultMsg) {
	b, _ := json.Marshal(res)
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

func closeBusy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseTryAgainLater, reason),
		time.Now().Add(time.Second))
}

func isLoopbackRemote(remote string) bool {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	host = strings.Trim(host, "[]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
