// Package tracestore persists finished runs to SQLite so sweeps over seeds
// and network settings can be queried afterwards.
package tracestore

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dutch-casa/uav-swarm-simulator/internal/metrics"
)

// DB wraps a SQLite connection for run persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		drop_probability REAL NOT NULL,
		latency_ms INTEGER NOT NULL,
		jitter_ms INTEGER NOT NULL,
		total_messages INTEGER NOT NULL,
		dropped_messages INTEGER NOT NULL,
		total_replans INTEGER NOT NULL,
		makespan INTEGER NOT NULL,
		collision_detected INTEGER NOT NULL,
		wall_time_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trace (
		run_id INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		agent_id TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		active_agents INTEGER NOT NULL,
		messages_sent INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_trace_run ON trace(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunConfig is the configuration half of a persisted run row.
type RunConfig struct {
	Seed      uint64
	Agents    int
	Drop      float64
	LatencyMs int
	JitterMs  int
}

// SaveRun writes one run's configuration, metrics and trace, returning the
// new run id.
func (db *DB) SaveRun(cfg RunConfig, snap metrics.Snapshot, traces []metrics.TickTrace) (int64, error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	collision := 0
	if snap.CollisionDetected {
		collision = 1
	}

	res, err := tx.Exec(`
		INSERT INTO runs (seed, agents, drop_probability, latency_ms, jitter_ms,
			total_messages, dropped_messages, total_replans, makespan,
			collision_detected, wall_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(cfg.Seed), cfg.Agents, cfg.Drop, cfg.LatencyMs, cfg.JitterMs,
		int64(snap.TotalMessages), int64(snap.DroppedMessages), int64(snap.TotalReplans),
		snap.Makespan, collision, snap.WallTime.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Preparex(`
		INSERT INTO trace (run_id, tick, agent_id, x, y, active_agents, messages_sent)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare trace insert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for _, t := range traces {
		for _, p := range t.Positions {
			if _, err := stmt.Exec(runID, t.Tick, p.Agent.String(), p.Pos.X, p.Pos.Y, t.ActiveAgents, t.MessagesSent); err != nil {
				return 0, fmt.Errorf("insert trace row: %w", err)
			}
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	slog.Info("run saved", "run_id", runID, "trace_rows", rows)
	return runID, nil
}
