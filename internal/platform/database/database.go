package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"expense_tracker/internal/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // Embedded driver for local runs and tests
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// DB is the process-wide store handle. It is opened once at startup and
// shared by every repository; database/sql does the pooling.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the store named by url and applies the schema.
// Accepted forms: postgres://..., postgresql://..., sqlite://<path> and
// sqlite::memory:. The timeout bounds connection establishment only.
func Open(ctx context.Context, url string, timeout time.Duration) (*DB, error) {
	var (
		db  *DB
		err error
	)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		db, err = openPostgres(url, timeout)
	case strings.HasPrefix(url, "sqlite:"):
		db, err = openSQLite(strings.TrimPrefix(strings.TrimPrefix(url, "sqlite:"), "//"))
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme in %q", url)
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", db.Dialect, err)
	}

	log.Printf("Successfully connected to %s database!", db.Dialect)
	return db, nil
}

func openPostgres(url string, timeout time.Duration) (*DB, error) {
	cfg, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	cfg.ConnectTimeout = timeout

	conn := stdlib.OpenDB(*cfg)
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return &DB{DB: conn, Dialect: Postgres}, nil
}

func openSQLite(path string) (*DB, error) {
	if path == "" {
		path = ":memory:"
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_time_format=sqlite"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// A single connection serialises writers and keeps :memory: databases
	// alive for the lifetime of the handle.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	for _, pragma := range []string{`PRAGMA foreign_keys = ON`, `PRAGMA busy_timeout = 5000`} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}
	return &DB{DB: conn, Dialect: SQLite}, nil
}

// Rebind rewrites ? placeholders into the dialect's native form.
func (d *DB) Rebind(query string) string {
	if d.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	err := d.DB.Close()
	log.Println("Database connection closed.")
	return err
}
