// Package journal keeps a local SQLite history of what pairs changed:
// permission updates, restrictive actions and pair lifecycle.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/gopair/internal/clock"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Entry kinds.
const (
	KindPermissions = "permissions"
	KindHardcore    = "hardcore"
	KindPair        = "pair"
	KindConnection  = "connection"
)

// Entry is one journal row. Detail holds the event payload as JSON.
type Entry struct {
	ID      int64  `db:"id" json:"id"`
	AtMs    int64  `db:"at_ms" json:"atMs"`
	Kind    string `db:"kind" json:"kind"`
	UID     string `db:"uid" json:"uid,omitempty"`
	Enactor string `db:"enactor" json:"enactor,omitempty"`
	Detail  string `db:"detail" json:"detail"`
}

func (e Entry) At() time.Time { return time.UnixMilli(e.AtMs) }

// Store is the journal database.
type Store struct {
	db    *sqlx.DB
	clock clock.Clock
}

func dsn(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Open opens (or creates) the journal at path and applies migrations.
func Open(path string, clk clock.Clock) (*Store, error) {
	if clk == nil {
		clk = clock.Real()
	}
	if err := migrateUp(path); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	slog.Info("journal: opened", "path", path)
	return &Store{db: db, clock: clk}, nil
}

// migrateUp runs on its own handle: closing the migrator closes the
// database it was given.
func migrateUp(path string) error {
	raw, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(raw, &sqlite.Config{})
	if err != nil {
		raw.Close()
		return err
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		raw.Close()
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		raw.Close()
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record inserts e, stamping it with the current time when AtMs is zero.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.AtMs == 0 {
		e.AtMs = s.clock.Now().UnixMilli()
	}
	if e.Detail == "" {
		e.Detail = "{}"
	}
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO entries (at_ms, kind, uid, enactor, detail)
		 VALUES (:at_ms, :kind, :uid, :enactor, :detail)`, e)
	if err != nil {
		return 0, fmt.Errorf("journal: insert: %w", err)
	}
	return res.LastInsertId()
}

// Query filters Recent. Zero values match everything.
type Query struct {
	UID   string
	Kind  string
	Limit int
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, q Query) ([]Entry, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	var out []Entry
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, at_ms, kind, uid, enactor, detail FROM entries
		 WHERE (? = '' OR uid = ?) AND (? = '' OR kind = ?)
		 ORDER BY at_ms DESC, id DESC LIMIT ?`,
		q.UID, q.UID, q.Kind, q.Kind, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	return out, nil
}

// Prune deletes entries older than maxAge and returns how many went.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.clock.Now().Add(-maxAge).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE at_ms < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	return res.RowsAffected()
}
