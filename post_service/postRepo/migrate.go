package postRepo

import (
	"database/sql"
	"embed"
	"errors"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func migrationSource() (source.Driver, error) {
	return iofs.New(migrationsFS, "migrations")
}

// ApplyMigrations brings the schema of db up to date. Postgres runs every
// migration in a transaction, a failed one leaves the previous version.
func ApplyMigrations(db *sql.DB, dbName string) error {
	src, err := migrationSource()
	if err != nil {
		return err
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Println("Using Same Connection for Migrations failed :", err.Error())
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Println("Migration of Database failed: ", err.Error())
		return err
	}
	version, dirty, _ := m.Version()
	log.Printf("Migrations applied successfully! version=%d dirty=%v", version, dirty)
	return nil
}
