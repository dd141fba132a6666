package snapshot

import (
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "tick-42.snap.zst")
	in := SnapshotV1{
		Header:     Header{Version: 1, WorldID: "world_1", Tick: 42},
		Seed:       1337,
		TickRateHz: 5,
		GridWidth:  20,
		GridHeight: 20,
		Boundary:   "wrap",
		Engine:     "planner",
		FoodTarget: 30,
		CoinTarget: 10,
		Running:    true,
		Agents: []AgentV1{
			{Pos: [2]int{5, 5}, Health: 10, Money: 5},
			{Pos: [2]int{7, 2}, Health: 3, Money: 0},
		},
		Foods:    [][2]int{{1, 1}, {2, 2}},
		Coins:    [][2]int{{3, 3}},
		Counters: CountersV1{Deaths: 2, FoodEaten: 9, CoinsTaken: 4},
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Header != in.Header {
		t.Fatalf("header: got %+v want %+v", out.Header, in.Header)
	}
	if len(out.Agents) != 2 || out.Agents[0] != in.Agents[0] {
		t.Fatalf("agents: got %+v", out.Agents)
	}
	if len(out.Foods) != 2 || len(out.Coins) != 1 {
		t.Fatalf("pools: got %d foods %d coins", len(out.Foods), len(out.Coins))
	}
	if out.Counters != in.Counters {
		t.Fatalf("counters: got %+v want %+v", out.Counters, in.Counters)
	}
}

func TestReadSnapshot_MissingFile(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.snap.zst")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
