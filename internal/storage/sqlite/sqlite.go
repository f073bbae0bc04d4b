// Package sqlite provides SQLite storage for generated tags, used for local
// development and tests. It implements the same ports.TagStore contract as
// the PostgreSQL driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports"
	"github.com/lueurxax/portfolio-tagger/migrations"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Pragmas applied to every connection. With modernc.org/sqlite each pragma
// must be prefixed with _pragma=.
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"

// DB wraps a single-connection SQLite database.
type DB struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// Open opens the database at path. Use MemoryPath for an in-memory database.
func Open(path string, logger *zerolog.Logger) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path required", apperrors.ErrInvalidConfig)
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	sqlDB, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// One connection serializes writers and keeps an in-memory database alive.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	return &DB{db: sqlDB, logger: logger}, nil
}

// Ping checks the database connection.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}

	return nil
}

// Close closes the database.
func (d *DB) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}

	return nil
}

type gooseLogger struct {
	logger *zerolog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal().Msgf(format, v...)
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(strings.TrimSuffix(format, "\n"), v...)
}

// Migrate applies the SQLite migrations.
func (d *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.SQLite)
	goose.SetLogger(&gooseLogger{logger: d.logger})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, d.db, migrations.SQLiteDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// wrapUniqueViolation maps a unique constraint failure to ErrDuplicate.
func wrapUniqueViolation(err error) error {
	var sqliteErr *sqlitedriver.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicate, sqliteErr.Error())
	}

	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicate, err.Error())
	}

	return err
}

func toMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func toMillisPtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}

	return time.UnixMilli(v.Int64).UTC()
}

func fromMillisPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}

	t := time.UnixMilli(v.Int64).UTC()

	return &t
}

func toNullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}

	i := int(v.Int64)

	return &i
}

// Ensure DB implements ports.TagStore.
var _ ports.TagStore = (*DB)(nil)
