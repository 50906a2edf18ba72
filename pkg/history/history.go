// Package history keeps perf snapshots in SQLite so runs can be compared
// after the process exits.
package history

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/jingkaihe/streamstat/internal/errx"
	"github.com/jingkaihe/streamstat/pkg/perf"
	"github.com/jingkaihe/streamstat/pkg/storedb"
)

const module = "history"

// Snapshot is one instrument's table at one moment.
type Snapshot struct {
	RunID      string
	Instrument string
	TakenAt    time.Time
	Categories map[string]perf.Counters
}

// Run summarizes the latest snapshot of one run and instrument.
type Run struct {
	RunID      string        `json:"run_id"`
	Instrument string        `json:"instrument"`
	TakenAt    time.Time     `json:"taken_at"`
	Snapshots  int           `json:"snapshots"`
	Totals     perf.Counters `json:"totals"`
}

// Store is a snapshot history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := storedb.Open(storedb.OpenOptions{
		Path:       path,
		Module:     module,
		Migrations: migrations(),
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func migrations() []storedb.Migration {
	return []storedb.Migration{
		{
			Version: 1,
			Name:    "create_snapshots",
			SQL: `
CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  instrument TEXT NOT NULL,
  taken_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id, instrument, id DESC);

CREATE TABLE IF NOT EXISTS snapshot_counters (
  snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  category TEXT NOT NULL,
  miss_count INTEGER NOT NULL DEFAULT 0,
  stat_count INTEGER NOT NULL DEFAULT 0,
  read_count INTEGER NOT NULL DEFAULT 0,
  write_count INTEGER NOT NULL DEFAULT 0,
  bytes_total INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (snapshot_id, category)
);
`,
		},
	}
}

// Save records snap. A zero TakenAt is stamped with the current time.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	if snap.RunID == "" || snap.Instrument == "" {
		return errx.With(ErrInvalidSnapshot, ": run id and instrument are required")
	}
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errx.With(ErrStoreSave, ": begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots(run_id, instrument, taken_at) VALUES (?, ?, ?)`,
		snap.RunID, snap.Instrument, snap.TakenAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errx.With(ErrStoreSave, ": insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errx.With(ErrStoreSave, ": snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_counters(snapshot_id, category, miss_count, stat_count, read_count, write_count, bytes_total)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errx.With(ErrStoreSave, ": prepare counter insert: %w", err)
	}
	defer stmt.Close()

	for _, category := range sortedKeys(snap.Categories) {
		c := snap.Categories[category]
		if _, err := stmt.ExecContext(ctx, id, category,
			int64(c.Miss), int64(c.Stat), int64(c.Read), int64(c.Write), int64(c.Bytes)); err != nil {
			return errx.With(ErrStoreSave, ": insert counters for %q: %w", category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errx.With(ErrStoreSave, ": commit snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot of runID for instrument.
func (s *Store) Latest(ctx context.Context, runID, instrument string) (*Snapshot, error) {
	var (
		id      int64
		takenAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, taken_at FROM snapshots
		  WHERE run_id = ? AND instrument = ?
		  ORDER BY id DESC LIMIT 1`,
		runID, instrument,
	).Scan(&id, &takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errx.With(ErrNotFound, ": run %s instrument %s", runID, instrument)
	}
	if err != nil {
		return nil, errx.With(ErrStoreRead, ": query snapshot: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, takenAt)
	if err != nil {
		return nil, errx.With(ErrStoreRead, ": parse taken_at: %w", err)
	}
	categories, err := s.counters(ctx,
		`SELECT category, miss_count, stat_count, read_count, write_count, bytes_total
		   FROM snapshot_counters WHERE snapshot_id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &Snapshot{RunID: runID, Instrument: instrument, TakenAt: ts, Categories: categories}, nil
}

// Totals sums the latest snapshot of every run for instrument. Counters
// are cumulative within a run, so earlier snapshots of the same run are
// not added again.
func (s *Store) Totals(ctx context.Context, instrument string) (map[string]perf.Counters, error) {
	return s.counters(ctx,
		`SELECT c.category, SUM(c.miss_count), SUM(c.stat_count), SUM(c.read_count), SUM(c.write_count), SUM(c.bytes_total)
		   FROM snapshot_counters c
		  WHERE c.snapshot_id IN (
		        SELECT MAX(id) FROM snapshots WHERE instrument = ? GROUP BY run_id)
		  GROUP BY c.category`, instrument)
}

func (s *Store) counters(ctx context.Context, query string, args ...any) (map[string]perf.Counters, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errx.With(ErrStoreRead, ": query counters: %w", err)
	}
	defer rows.Close()

	out := make(map[string]perf.Counters)
	for rows.Next() {
		var (
			category                       string
			miss, stat, read, write, bytes int64
		)
		if err := rows.Scan(&category, &miss, &stat, &read, &write, &bytes); err != nil {
			return nil, errx.With(ErrStoreRead, ": scan counters: %w", err)
		}
		out[category] = perf.Counters{
			Miss:  uint64(miss),
			Stat:  uint64(stat),
			Read:  uint64(read),
			Write: uint64(write),
			Bytes: uint64(bytes),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errx.With(ErrStoreRead, ": iterate counters: %w", err)
	}
	return out, nil
}

// Runs lists runs newest first, one entry per run and instrument, with the
// totals of the latest snapshot. A limit of zero or less lists everything.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.run_id, s.instrument, s.taken_at, g.n,
		        COALESCE(SUM(c.miss_count), 0), COALESCE(SUM(c.stat_count), 0),
		        COALESCE(SUM(c.read_count), 0), COALESCE(SUM(c.write_count), 0),
		        COALESCE(SUM(c.bytes_total), 0)
		   FROM (SELECT MAX(id) AS id, COUNT(*) AS n FROM snapshots GROUP BY run_id, instrument) g
		   JOIN snapshots s ON s.id = g.id
		   LEFT JOIN snapshot_counters c ON c.snapshot_id = s.id
		  GROUP BY s.id
		  ORDER BY s.id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, errx.With(ErrStoreRead, ": query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                              Run
			takenAt                        string
			miss, stat, read, write, bytes int64
		)
		if err := rows.Scan(&r.RunID, &r.Instrument, &takenAt, &r.Snapshots,
			&miss, &stat, &read, &write, &bytes); err != nil {
			return nil, errx.With(ErrStoreRead, ": scan run: %w", err)
		}
		if r.TakenAt, err = time.Parse(time.RFC3339Nano, takenAt); err != nil {
			return nil, errx.With(ErrStoreRead, ": parse taken_at: %w", err)
		}
		r.Totals = perf.Counters{
			Miss:  uint64(miss),
			Stat:  uint64(stat),
			Read:  uint64(read),
			Write: uint64(write),
			Bytes: uint64(bytes),
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.With(ErrStoreRead, ": iterate runs: %w", err)
	}
	return runs, nil
}

// Prune deletes every run except the keep most recent ones.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots
		  WHERE run_id NOT IN (
		        SELECT run_id FROM snapshots GROUP BY run_id ORDER BY MAX(id) DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, errx.With(ErrStoreSave, ": prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errx.With(ErrStoreSave, ": prune: %w", err)
	}
	return n, nil
}

func sortedKeys(m map[string]perf.Counters) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
