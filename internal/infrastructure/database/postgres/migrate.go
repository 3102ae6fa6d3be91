package postgres

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	apperrors "github.com/scholarvest/paperscore/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies all pending schema migrations. It is safe to run on every
// startup; an up-to-date schema is a no-op.
func Migrate(cfg Config, log logging.Logger) error {
	if log == nil {
		log = logging.NewNopLogger()
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.DSN())
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to initialize migrator")
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "migration failed")
	}

	log.Info("database schema up to date")
	return nil
}
