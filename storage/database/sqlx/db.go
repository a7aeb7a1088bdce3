// Package sqlxrepos implements the repositories on PostgreSQL or SQLite, with sqlx and squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/trezcool/bursar/core"
)

//go:embed migrations
var migrations embed.FS

// Drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type dialect struct {
	goose       string
	migrations  string
	placeholder sq.PlaceholderFormat
	lockRows    string // suffix locking the selected rows until the end of the transaction
	automatic   string // predicate of the automatic finance entries index
}

var dialects = map[string]dialect{
	DriverPostgres: {
		goose:       "postgres",
		migrations:  "migrations/postgres",
		placeholder: sq.Dollar,
		lockRows:    "FOR UPDATE",
		automatic:   "automatic",
	},
	DriverSQLite: {
		goose:       "sqlite3",
		migrations:  "migrations/sqlite",
		placeholder: sq.Question,
		automatic:   "automatic = 1",
	},
}

var defaultOrdering = []string{
	core.DBOrdering{Field: "created_at", Ascending: true}.String(),
	core.DBOrdering{Field: "id", Ascending: true}.String(),
}

type DB struct {
	*sqlx.DB
	dialect dialect
}

// New wraps an open connection pool of the given driver.
func New(db *sql.DB, driver string) (*DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, errors.Errorf("unsupported SQL driver %q", driver)
	}
	if driver == DriverSQLite {
		// SQLite serializes writers; a single connection also keeps ":memory:" databases alive.
		db.SetMaxOpenConns(1)
	}
	return &DB{DB: sqlx.NewDb(db, driver), dialect: d}, nil
}

func Open(driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", driver)
	}
	sdb, err := New(db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return sdb, nil
}

// SQLiteDSN returns the DSN of the SQLite database at path, storing times in a sortable format.
func SQLiteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_time_format=sqlite"
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_time_format=sqlite", path)
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func (db *DB) Ping(ctx context.Context) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Migrate applies the pending migrations of the dialect.
func (db *DB) Migrate(ctx context.Context, logger core.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect(db.dialect.goose); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.UpContext(ctx, db.DB.DB, db.dialect.migrations); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

type gooseLogger struct {
	logger core.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal(fmt.Sprintf(format, v...))
}

func (db *DB) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(db.dialect.placeholder)
}

func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func exec(ctx context.Context, ext sqlx.ExecerContext, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return ext.ExecContext(ctx, query, args...)
}

func get(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

func selectAll(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

// affectedOrNotFound returns notFound when res touched no row.
func affectedOrNotFound(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
