package observer

import (
	"context"
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cellworld.ai/internal/protocol"
	"cellworld.ai/internal/sim/world"
)

func startTestServer(t *testing.T) (*httptest.Server, *world.World, func()) {
	t.Helper()
	w, err := world.New(world.Config{ID: "wstest", Seed: 42, TickRateHz: 50})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	srv := NewServer(w, log.New(os.Stdout, "[test] ", log.LstdFlags))
	ts := httptest.NewServer(srv.WSHandler())

	stop := func() {
		ts.Close()
		cancel()
		<-done
	}
	return ts, w, stop
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestWS_SubscribeThenFramesAndControl(t *testing.T) {
	ts, _, stop := startTestServer(t)
	defer stop()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub, _ := json.Marshal(protocol.SubscribeMsg{
		Type:            protocol.TypeSubscribe,
		ProtocolVersion: protocol.Version,
	})
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// The first TICK frame arrives immediately after the subscribe.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	frame := readUntilType(t, conn, protocol.TypeTick)
	var tick protocol.TickMsg
	if err := json.Unmarshal(frame, &tick); err != nil {
		t.Fatalf("tick frame: %v", err)
	}
	if tick.Grid.Width != 20 || tick.Grid.Height != 20 {
		t.Fatalf("grid in frame: %dx%d", tick.Grid.Width, tick.Grid.Height)
	}

	pos := [2]int{4, 4}
	ctl, _ := json.Marshal(protocol.ControlMsg{
		Type: protocol.TypeControl, ID: "C1", Op: protocol.OpPlaceAgent, Pos: &pos,
	})
	if err := conn.WriteMessage(websocket.TextMessage, ctl); err != nil {
		t.Fatalf("control: %v", err)
	}

	var res protocol.ControlResultMsg
	if err := json.Unmarshal(readUntilType(t, conn, protocol.TypeControlResult), &res); err != nil {
		t.Fatalf("control result: %v", err)
	}
	if !res.OK || res.ID != "C1" {
		t.Fatalf("control result: %+v", res)
	}
}

func TestWS_RejectsWrongProtocolVersion(t *testing.T) {
	ts, _, stop := startTestServer(t)
	defer stop()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub, _ := json.Marshal(protocol.SubscribeMsg{
		Type:            protocol.TypeSubscribe,
		ProtocolVersion: "0.0",
	})
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected close after bad handshake")
	}
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("close code: %v", err)
	}
}

// readUntilType skips interleaved messages of other types; TICK frames
// and control results share the socket.
func readUntilType(t *testing.T, conn *websocket.Conn, want string) []byte {
	t.Helper()
	for i := 0; i < 100; i++ {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		base, err := protocol.DecodeBase(raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type == want {
			return raw
		}
	}
	t.Fatalf("no %s message within 100 reads", want)
	return nil
}
