package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Migrate applies (up) or rolls back (down) the embedded schema for the
// handle's dialect. The migrator is not closed because closing it would close
// the shared *sql.DB.
func Migrate(db *DB, direction string) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	switch direction {
	case DirectionUp:
		err = m.Up()
	case DirectionDown:
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Str("dialect", db.Dialect).Str("direction", direction).Msg("No migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	log.Info().Str("dialect", db.Dialect).Str("direction", direction).Msg("Migrations applied")
	return nil
}

func newMigrator(db *DB) (*migrate.Migrate, error) {
	var (
		dir    string
		name   string
		driver database.Driver
		err    error
	)

	switch db.Dialect {
	case DialectSQLite:
		dir, name = "migrations/sqlite", "sqlite3"
		driver, err = sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
	case DialectPostgres:
		dir, name = "migrations/postgres", "pgx5"
		driver, err = pgxmigrate.WithInstance(db.DB, &pgxmigrate.Config{})
	default:
		return nil, fmt.Errorf("unsupported dialect %q", db.Dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
