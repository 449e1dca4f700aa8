package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlitePragmas are applied to every pooled connection through the DSN
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

func sqliteDSN(path string) string {
	params := make([]string, len(sqlitePragmas))
	for i, pragma := range sqlitePragmas {
		params[i] = "_pragma=" + pragma
	}
	return fmt.Sprintf("%s?%s", path, strings.Join(params, "&"))
}

func flavorOf(driver string) (sqlbuilder.Flavor, error) {
	switch driver {
	case "sqlite":
		return sqlbuilder.SQLite, nil
	case "postgres":
		return sqlbuilder.PostgreSQL, nil
	default:
		return 0, fmt.Errorf("unsupported driver %q", driver)
	}
}

func connection(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "sqlite":
		db, err := sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, err
		}

		db.SetMaxOpenConns(1)            // SQLite only supports one writer at a time
		db.SetMaxIdleConns(1)            // Keep one connection in the pool
		db.SetConnMaxLifetime(time.Hour) // Recreate connections after an hour
		db.SetConnMaxIdleTime(time.Hour) // Close idle connections after an hour
		return db, nil

	case "postgres":
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}

		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(time.Hour)
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}
