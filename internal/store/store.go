package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/angeloszaimis/experiments-viewer/config"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps the database handle for one engine.
type Store struct {
	db     *sql.DB
	engine string
	logger *slog.Logger
}

// Open connects to the configured database, verifies the connection and
// applies pending migrations.
func Open(ctx context.Context, dbc config.Database, logger *slog.Logger) (*Store, error) {
	driver, err := driverName(dbc.Engine)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dbc.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dbc.Engine, err)
	}

	// Each new connection to :memory: is a fresh database.
	if dbc.InMemory() {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dbc.Engine, err)
	}

	s := &Store{db: db, engine: dbc.Engine, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("Database ready",
		slog.String("engine", dbc.Engine),
		slog.String("name", dbc.Name))

	return s, nil
}

func driverName(engine string) (string, error) {
	switch engine {
	case config.EngineSQLite:
		return "sqlite", nil
	case config.EnginePostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database engine %q", engine)
	}
}

// Engine names the database engine in use.
func (s *Store) Engine() string {
	return s.engine
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	query = s.rebind(query)
	s.logger.Debug("exec", slog.String("sql", query), slog.Int("args", len(args)))
	return q.ExecContext(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, q execer, query string, args ...any) (*sql.Rows, error) {
	query = s.rebind(query)
	s.logger.Debug("query", slog.String("sql", query), slog.Int("args", len(args)))
	return q.QueryContext(ctx, query, args...)
}

func (s *Store) queryRow(ctx context.Context, q execer, query string, args ...any) *sql.Row {
	query = s.rebind(query)
	s.logger.Debug("query", slog.String("sql", query), slog.Int("args", len(args)))
	return q.QueryRowContext(ctx, query, args...)
}

// rebind rewrites '?' placeholders as $1, $2, ... for postgres.
func (s *Store) rebind(query string) string {
	if s.engine != config.EnginePostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
