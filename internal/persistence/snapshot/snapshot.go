// Package snapshot defines the on-disk world snapshot: a JSON header line
// followed by a gob body, zstd-compressed. Snapshots capture the grid,
// agents and resource pools so a run can resume where it left off; they
// deliberately exclude the Q-table, since learned policies do not persist
// across runs.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed       int64  `json:"seed"`
	TickRateHz int    `json:"tick_rate_hz"`
	GridWidth  int    `json:"grid_width"`
	GridHeight int    `json:"grid_height"`
	Boundary   string `json:"boundary"`
	Engine     string `json:"engine"`

	FoodTarget int `json:"food_target"`
	CoinTarget int `json:"coin_target"`

	// Rule knobs: a resumed run must keep the consumption variant and
	// action set it was started with.
	FreeFood  bool `json:"free_food"`
	AllowStay bool `json:"allow_stay"`

	Running bool `json:"running"`

	Agents []AgentV1 `json:"agents"`
	Foods  [][2]int  `json:"foods"`
	Coins  [][2]int  `json:"coins"`

	Counters CountersV1 `json:"counters"`
}

type AgentV1 struct {
	Pos    [2]int `json:"pos"`
	Health int    `json:"health"`
	Money  int    `json:"money"`
}

type CountersV1 struct {
	Deaths     uint64 `json:"deaths"`
	FoodEaten  uint64 `json:"food_eaten"`
	CoinsTaken uint64 `json:"coins_taken"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// Read header line (ignore it; gob also contains the header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
