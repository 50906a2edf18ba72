// Package storedb opens SQLite databases and applies per-module schema
// migrations.
package storedb

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jingkaihe/streamstat/internal/errx"
)

const busyTimeoutMS = 5000

// Migration is one schema step. Versions are per module and start at 1.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// OpenOptions selects the database file and the module whose migrations
// should be applied.
type OpenOptions struct {
	Path       string
	Module     string
	Migrations []Migration
}

// Open creates the parent directory if needed, opens the database and
// applies any migrations not yet recorded for opts.Module.
func Open(opts OpenOptions) (*sql.DB, error) {
	if opts.Path == "" {
		return nil, errx.With(ErrOpen, ": empty path")
	}
	if opts.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, errx.With(ErrOpen, ": create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(opts.Path))
	if err != nil {
		return nil, errx.With(ErrOpen, ": %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := Migrate(context.Background(), db, opts.Module, opts.Migrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout("+strconv.Itoa(busyTimeoutMS)+")")
	q.Add("_pragma", "foreign_keys(1)")
	if path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + path + "?" + q.Encode()
}

// Migrate applies the pending migrations of module inside one transaction
// each, in version order.
func Migrate(ctx context.Context, db *sql.DB, module string, migrations []Migration) error {
	if module == "" {
		return errx.With(ErrMigrate, ": empty module name")
	}
	sorted := append([]Migration(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	for i, m := range sorted {
		if m.Version < 1 || (i > 0 && sorted[i-1].Version == m.Version) {
			return errx.With(ErrMigrate, ": %s: invalid version %d", module, m.Version)
		}
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  module TEXT NOT NULL,
  version INTEGER NOT NULL,
  name TEXT NOT NULL,
  applied_at TEXT NOT NULL,
  PRIMARY KEY (module, version)
)`); err != nil {
		return errx.With(ErrMigrate, ": create schema_migrations: %w", err)
	}

	current, err := CurrentVersion(ctx, db, module)
	if err != nil {
		return err
	}
	for _, m := range sorted {
		if m.Version <= current {
			continue
		}
		if err := apply(ctx, db, module, m); err != nil {
			return err
		}
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, module string, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errx.With(ErrMigrate, ": begin %s/%d: %w", module, m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return errx.With(ErrMigrate, ": %s/%d %s: %w", module, m.Version, m.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations(module, version, name, applied_at) VALUES (?, ?, ?, ?)`,
		module, m.Version, m.Name, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return errx.With(ErrMigrate, ": record %s/%d: %w", module, m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return errx.With(ErrMigrate, ": commit %s/%d: %w", module, m.Version, err)
	}
	return nil
}

// CurrentVersion returns the highest applied migration of module, or 0.
func CurrentVersion(ctx context.Context, db *sql.DB, module string) (int, error) {
	var v sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schema_migrations WHERE module = ?`, module,
	).Scan(&v)
	if err != nil {
		return 0, errx.With(ErrMigrate, ": read version of %s: %w", module, err)
	}
	return int(v.Int64), nil
}
