package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"lenderhub/internal/platform/config"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// DB is the shared store handle. Queries are written with ? placeholders and
// passed through Rebind before execution.
type DB struct {
	*sql.DB
	Dialect string
}

func Open(cfg config.DatabaseConfig) (*DB, error) {
	var (
		driver string
		dsn    = cfg.URL
	)

	switch cfg.Driver {
	case "", DialectSQLite:
		driver = "sqlite3"
		dsn = sqliteDSN(dsn)
		if err := ensureDir(dsn); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	dialect := cfg.Driver
	if dialect == "" {
		dialect = DialectSQLite
	}
	return &DB{DB: db, Dialect: dialect}, nil
}

// New wraps an already opened handle, e.g. one created by sqlmock.
func New(db *sql.DB, dialect string) *DB {
	return &DB{DB: db, Dialect: dialect}
}

// Rebind rewrites ? placeholders into $1..$n for Postgres.
func (d *DB) Rebind(query string) string {
	if d.Dialect != DialectPostgres {
		return query
	}

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

// sqliteDSN strips the file: scheme and adds a busy timeout so concurrent
// writers wait on the file lock instead of failing.
func sqliteDSN(url string) string {
	dsn := strings.TrimPrefix(url, "file:")
	if strings.Contains(dsn, "_busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000"
}

func ensureDir(dsn string) error {
	path, _, _ := strings.Cut(dsn, "?")
	if path == "" || path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
