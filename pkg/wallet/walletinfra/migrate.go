package walletinfra

import (
	"database/sql"
	"embed"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every pending schema migration.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errx.Wrap(err, "failed to select migration dialect", errx.TypeInternal)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return errx.Wrap(err, "failed to apply migrations", errx.TypeInternal)
	}
	return nil
}
