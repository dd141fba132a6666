// Package indexdb is the diagnostics read-model: per-tick stats,
// Q-learning training episodes and snapshot metadata indexed in sqlite.
// Writes go through a single writer goroutine so the sim loop never
// blocks on the database; the index never feeds state back into the sim.
package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqEpisode
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     TickRow
	episode  EpisodeRow
	snapshot SnapshotRow
}

// TickRow summarizes one simulation tick.
type TickRow struct {
	Tick        uint64
	Alive       int
	Deaths      int
	FoodEaten   int
	CoinsTaken  int
	Replenished int
	Engine      string
	Digest      string
}

// EpisodeRow summarizes one Q-learning training episode.
type EpisodeRow struct {
	Episode     int
	Steps       int
	TotalReward float64
	Epsilon     float64
}

// SnapshotRow indexes a written snapshot file.
type SnapshotRow struct {
	Tick   uint64
	Path   string
	Agents int
	Foods  int
	Coins  int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := &SQLiteIndex{
		db: db,
		ch: make(chan req, 1024),
	}
	idx.wg.Add(1)
	go idx.writer()
	return idx, nil
}

func initPragmas(db *sql.DB) error {
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS ticks (
  tick        INTEGER PRIMARY KEY,
  alive       INTEGER NOT NULL,
  deaths      INTEGER NOT NULL,
  food_eaten  INTEGER NOT NULL,
  coins_taken INTEGER NOT NULL,
  replenished INTEGER NOT NULL,
  engine      TEXT NOT NULL,
  digest      TEXT NOT NULL,
  recorded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS episodes (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  episode      INTEGER NOT NULL,
  steps        INTEGER NOT NULL,
  total_reward REAL NOT NULL,
  epsilon      REAL NOT NULL,
  recorded_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
  tick        INTEGER PRIMARY KEY,
  path        TEXT NOT NULL,
  agents      INTEGER NOT NULL,
  foods       INTEGER NOT NULL,
  coins       INTEGER NOT NULL,
  recorded_at TEXT NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// RecordTick enqueues a tick row; it drops the row rather than block the
// sim loop when the queue is full.
func (x *SQLiteIndex) RecordTick(row TickRow) {
	x.enqueue(req{kind: reqTick, tick: row})
}

func (x *SQLiteIndex) RecordEpisode(row EpisodeRow) {
	x.enqueue(req{kind: reqEpisode, episode: row})
}

func (x *SQLiteIndex) RecordSnapshot(row SnapshotRow) {
	x.enqueue(req{kind: reqSnapshot, snapshot: row})
}

func (x *SQLiteIndex) enqueue(r req) {
	if x == nil || x.closed.Load() {
		return
	}
	select {
	case x.ch <- r:
	default:
	}
}

func (x *SQLiteIndex) writer() {
	defer x.wg.Done()
	for r := range x.ch {
		now := time.Now().UTC().Format(time.RFC3339Nano)
		switch r.kind {
		case reqTick:
			_, _ = x.db.Exec(
				`INSERT OR REPLACE INTO ticks (tick, alive, deaths, food_eaten, coins_taken, replenished, engine, digest, recorded_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.tick.Tick, r.tick.Alive, r.tick.Deaths, r.tick.FoodEaten, r.tick.CoinsTaken,
				r.tick.Replenished, r.tick.Engine, r.tick.Digest, now)
		case reqEpisode:
			_, _ = x.db.Exec(
				`INSERT INTO episodes (episode, steps, total_reward, epsilon, recorded_at)
				 VALUES (?, ?, ?, ?, ?)`,
				r.episode.Episode, r.episode.Steps, r.episode.TotalReward, r.episode.Epsilon, now)
		case reqSnapshot:
			_, _ = x.db.Exec(
				`INSERT OR REPLACE INTO snapshots (tick, path, agents, foods, coins, recorded_at)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				r.snapshot.Tick, r.snapshot.Path, r.snapshot.Agents, r.snapshot.Foods, r.snapshot.Coins, now)
		}
	}
}

// Close drains the queue and closes the database.
func (x *SQLiteIndex) Close() error {
	if x == nil {
		return nil
	}
	var err error
	x.once.Do(func() {
		x.closed.Store(true)
		close(x.ch)
		x.wg.Wait()
		err = x.db.Close()
	})
	return err
}

// TickCount reports the number of indexed ticks; used by tests and the
// admin surface.
func (x *SQLiteIndex) TickCount() (int, error) {
	var n int
	err := x.db.QueryRow(`SELECT COUNT(*) FROM ticks`).Scan(&n)
	return n, err
}

// EpisodeCount reports the number of indexed training episodes.
func (x *SQLiteIndex) EpisodeCount() (int, error) {
	var n int
	err := x.db.QueryRow(`SELECT COUNT(*) FROM episodes`).Scan(&n)
	return n, err
}

// LatestSnapshot returns the most recent snapshot row, ok=false when none
// has been recorded.
func (x *SQLiteIndex) LatestSnapshot() (SnapshotRow, bool, error) {
	var row SnapshotRow
	err := x.db.QueryRow(
		`SELECT tick, path, agents, foods, coins FROM snapshots ORDER BY tick DESC LIMIT 1`,
	).Scan(&row.Tick, &row.Path, &row.Agents, &row.Foods, &row.Coins)
	if err == sql.ErrNoRows {
		return SnapshotRow{}, false, nil
	}
	if err != nil {
		return SnapshotRow{}, false, err
	}
	return row, true, nil
}
