// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C toolchain, and
// cross-compilation keeps working. The driver registers itself with
// database/sql under the name "sqlite".
//
// CONNECTIONS:
// The pool is capped at ONE connection. SQLite serialises writers anyway,
// and a single connection makes ":memory:" databases behave (every
// connection would otherwise get its own empty database). The flip side:
// code running inside InTx must use the transactional Store it is handed,
// never the outer one, or it waits forever for the busy connection.
//
// SCHEMA:
// Migrations are plain SQL files embedded from ./migrations and applied with
// goose on startup. Goose output goes to slog.Default() tagged
// component=goose.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/sakif/skill-tracker/internal/repository"
	"github.com/sakif/skill-tracker/internal/repository/sqlite/migrations"
)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the SQLite-backed repository.Store.
//
// q is either the pool or, inside InTx, the open transaction. All queries go
// through q so the same methods work in both modes.
type DB struct {
	conn *sql.DB
	q    dbtx
	inTx bool
}

var _ repository.Store = (*DB)(nil)

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// New opens (or creates) the database at dbPath and migrates it.
//
// dbPath examples:
//   - "data/skilltracker.db" → file-backed
//   - ":memory:"             → in-memory, gone on Close (tests)
func New(ctx context.Context, dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", withPragmas(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed during a write on file databases; for
	// ":memory:" SQLite answers "memory" and carries on.
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return &DB{conn: conn, q: conn}, nil
}

// withPragmas appends per-connection pragmas to the DSN. Foreign keys are
// OFF by default in SQLite; the cascades in the schema depend on them.
func withPragmas(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func migrate(ctx context.Context, conn *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{slog.Default().With(slog.String("component", "goose"))})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, conn, ".")
}

// gooseLogger adapts slog to goose.Logger.
type gooseLogger struct {
	logger *slog.Logger
}

var _ goose.Logger = gooseLogger{}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// InTx runs fn in a single transaction. See repository.Store.
func (db *DB) InTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("sqlite: committing transaction: %w", cerr)
		}
	}()

	return fn(&DB{conn: db.conn, q: tx, inTx: true})
}
