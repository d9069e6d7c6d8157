package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Up applies every pending migration. It reports whether anything changed.
func Up(db *sql.DB, databaseName string) (bool, error) {
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{DatabaseName: databaseName})
	if err != nil {
		return false, fmt.Errorf("migration driver: %w", err)
	}

	source, err := iofs.New(FS, ".")
	if err != nil {
		return false, fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, databaseName, driver)
	if err != nil {
		return false, err
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
