package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
)

// migrationsTable keeps the schema version apart from any application tables
// sharing the database.
const migrationsTable = "chatrelay_schema_migrations"

func postgresMigrator(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("postgres driver: %w", err)
	}
	source, err := iofs.New(sqlMigrations, "sql")
	if err != nil {
		return nil, fmt.Errorf("migrations source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	return m, nil
}

// withMigrator opens a migrator over db for the duration of fn. Closing
// the migrator closes db as well, so callers own a dedicated handle.
func withMigrator(db *sql.DB, fn func(*migrate.Migrate) error) error {
	m, err := postgresMigrator(db)
	if err != nil {
		return err
	}
	runErr := fn(m)
	srcErr, dbErr := m.Close()
	if runErr != nil {
		return runErr
	}
	return errors.Join(srcErr, dbErr)
}

// PostgresUp applies all pending migrations. Running it against an
// up-to-date schema is a no-op.
func PostgresUp(db *sql.DB) error {
	return withMigrator(db, func(m *migrate.Migrate) error {
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Debug("messages schema already up to date")
			return nil
		case err != nil:
			return fmt.Errorf("migrations up: %w", err)
		}
		if v, _, verr := m.Version(); verr == nil {
			log.WithField("version", v).Info("messages schema migrated")
		}
		return nil
	})
}

// PostgresDown rolls back steps migrations (1 when steps <= 0).
func PostgresDown(db *sql.DB, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return withMigrator(db, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrations down: %w", err)
		}
		return nil
	})
}

// PostgresVersion returns the current migration version. A database that
// was never migrated reports version 0.
func PostgresVersion(db *sql.DB) (version uint, dirty bool, err error) {
	err = withMigrator(db, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			version, dirty = 0, false
			return nil
		}
		if verr != nil {
			return fmt.Errorf("migrations version: %w", verr)
		}
		return nil
	})
	return version, dirty, err
}
