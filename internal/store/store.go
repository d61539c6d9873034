package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
	// Postgres through database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Driver selects the SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver accepts the driver names used in configuration.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

// ErrNotFound is returned for missing rows and for rows owned by someone else.
var ErrNotFound = errors.New("not found")

// Store owns the database handle and hands out repositories.
type Store struct {
	db      *sql.DB
	dialect string
}

// Open connects to the database, checks it is reachable and migrates the
// schema. SQLite connections get WAL, a busy timeout and foreign keys.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var (
		driverName  string
		dialectName string
	)
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			return nil, errors.New("open database: sqlite needs a file path or dsn")
		}
		driverName, dialectName = "sqlite", dialect.SQLite
		dsn = withPragmas(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("open database: postgres needs a dsn")
		}
		driverName, dialectName = "pgx", dialect.Postgres
	default:
		return nil, fmt.Errorf("open database: unsupported driver %q", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, dialect: dialectName}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(entsql.OpenDB(s.dialect, s.db))
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect reports the SQL dialect in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// StudentRepo returns the student and test read model.
func (s *Store) StudentRepo() StudentRepo {
	return &studentRepo{s: s}
}

// Recorder returns the write side used by diagnostic sessions.
func (s *Store) Recorder() *Recorder {
	return &Recorder{s: s}
}

// EventRepo returns the LLM request audit log.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{s: s}
}

// SnapshotRepo returns the session snapshot table.
func (s *Store) SnapshotRepo() SnapshotRepo {
	return &snapshotRepo{s: s}
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type querySource interface {
	Query() (string, []any)
}

func exec(ctx context.Context, q querier, b querySource) (sql.Result, error) {
	text, args := b.Query()
	return q.ExecContext(ctx, text, args...)
}

func query(ctx context.Context, q querier, b querySource) (*sql.Rows, error) {
	text, args := b.Query()
	return q.QueryContext(ctx, text, args...)
}

func queryRow(ctx context.Context, q querier, b querySource) *sql.Row {
	text, args := b.Query()
	return q.QueryRowContext(ctx, text, args...)
}

// pragmas are applied to every new SQLite connection through the DSN, so
// pooled connections all see them. Times are written in SQLite's own format
// so they compare correctly in SQL.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	var b strings.Builder
	b.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	if !strings.Contains(dsn, "_time_format=") {
		b.WriteString("&_time_format=sqlite")
	}
	return b.String()
}

// DefaultDBPath resolves the SQLite file path in priority order:
// 1. NEUROMATH_DB environment variable
// 2. $XDG_DATA_HOME/neuromath/neuromath.db
// 3. ~/.local/share/neuromath/neuromath.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("NEUROMATH_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "neuromath", "neuromath.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
