package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var fs embed.FS

func newMigrate(driver, dsn string) (*migrate.Migrate, error) {
	var dir, url string
	switch driver {
	case "sqlite":
		dir, url = "migrations/sqlite", "sqlite://"+dsn
	case "postgres":
		dir, url = "migrations/postgres", dsn
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	// Create a new source instance using the embedded migrations
	d, err := iofs.New(fs, dir)
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, url)
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		log.WithFields(log.Fields{
			"source_error":   srcErr,
			"database_error": dbErr,
		}).Warn("Error closing migrate instance")
	}
}

// Migrate applies all pending migrations for the given driver
func Migrate(driver, dsn string) error {
	log.WithFields(log.Fields{
		"driver": driver,
	}).Info("Running migrations")

	m, err := newMigrate(driver, dsn)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// Rollback reverts the last applied migration
func Rollback(driver, dsn string) error {
	log.WithFields(log.Fields{
		"driver": driver,
	}).Info("Rolling back last migration")

	m, err := newMigrate(driver, dsn)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Steps(-1); err != nil {
		return err
	}

	return nil
}
