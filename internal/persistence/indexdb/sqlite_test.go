package indexdb

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteIndex_RecordAndCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "cellworld.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for i := 0; i < 5; i++ {
		idx.RecordTick(TickRow{
			Tick:   uint64(i),
			Alive:  3,
			Engine: "planner",
			Digest: "d",
		})
	}
	idx.RecordEpisode(EpisodeRow{Episode: 0, Steps: 100, TotalReward: -12.5, Epsilon: 0.89})
	idx.RecordSnapshot(SnapshotRow{Tick: 4, Path: "snap-4.zst", Agents: 3, Foods: 30, Coins: 10})

	// Queue is drained on Close.
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()

	n, err := idx2.TickCount()
	if err != nil {
		t.Fatalf("tick count: %v", err)
	}
	if n != 5 {
		t.Fatalf("ticks: got %d want %d", n, 5)
	}
	n, err = idx2.EpisodeCount()
	if err != nil {
		t.Fatalf("episode count: %v", err)
	}
	if n != 1 {
		t.Fatalf("episodes: got %d want %d", n, 1)
	}
	row, ok, err := idx2.LatestSnapshot()
	if err != nil || !ok {
		t.Fatalf("latest snapshot: ok=%v err=%v", ok, err)
	}
	if row.Tick != 4 || row.Path != "snap-4.zst" {
		t.Fatalf("snapshot row: got %+v", row)
	}
}

func TestSQLiteIndex_CloseIsIdempotent(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "cellworld.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	done := make(chan struct{})
	go func() {
		_ = idx.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("second close hung")
	}
}
