// Package protocol defines the JSON messages exchanged with the external
// renderer/input collaborator over the observer websocket. The simulation
// core never depends on this package's transport; it only fills the
// message structs.
package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeSubscribe     = "SUBSCRIBE"
	TypeTick          = "TICK"
	TypeControl       = "CONTROL"
	TypeControlResult = "CONTROL_RESULT"
)

// Control operations.
const (
	OpPlaceAgent  = "PLACE_AGENT"
	OpRemoveAgent = "REMOVE_AGENT"
	OpToggleAgent = "TOGGLE_AGENT"
	OpSetRunning  = "SET_RUNNING"
	OpReset       = "RESET"
	OpSetEngine   = "SET_ENGINE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// SubscribeMsg opens an observer session; it must be the first message on
// the socket.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// TickMsg is the per-tick state frame: everything the renderer needs to
// redraw, as an immutable snapshot.
type TickMsg struct {
	Type    string `json:"type"`
	Tick    uint64 `json:"tick"`
	Running bool   `json:"running"`
	Engine  string `json:"engine"`

	Grid GridParams `json:"grid"`

	Agents []AgentView `json:"agents"`
	Foods  [][2]int    `json:"foods"`
	Coins  [][2]int    `json:"coins"`

	Stats TickStats `json:"stats"`
}

type GridParams struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Boundary string `json:"boundary"`
}

type AgentView struct {
	Pos    [2]int `json:"pos"`
	Health int    `json:"health"`
	Money  int    `json:"money"`
}

type TickStats struct {
	Alive       int    `json:"alive"`
	Deaths      int    `json:"deaths"`
	FoodEaten   int    `json:"food_eaten"`
	CoinsTaken  int    `json:"coins_taken"`
	Replenished int    `json:"replenished"`
	Digest      string `json:"digest,omitempty"`
}

// ControlMsg is an input edit from the collaborator: place/remove/toggle
// an agent, pause or resume, reset, or switch the policy engine.
type ControlMsg struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Op   string `json:"op"`

	Pos     *[2]int `json:"pos,omitempty"`
	Running *bool   `json:"running,omitempty"`
	Engine  string  `json:"engine,omitempty"`
}

// ControlResultMsg acknowledges a ControlMsg by ID.
type ControlResultMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
