package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"zametki/pkg/logger"
)

// Константы сообщений для миграций схемы.
const (
	ErrOpenMigrations  = "failed to open migration source"
	ErrApplyMigrations = "failed to apply migrations"
)

// MigrateDSN накатывает все недостающие миграции из migrationsPath на базу,
// указанную в dsn. Отсутствие новых миграций не является ошибкой.
func MigrateDSN(ctx context.Context, dsn string, migrationsPath string) error {
	log := logger.Log(ctx).With(zap.String("path", migrationsPath))

	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		log.Error(ctx, ErrOpenMigrations, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrOpenMigrations, err)
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info(ctx, LogMigrationsApplied, zap.Bool("no_change", true))
		return nil
	case err != nil:
		log.Error(ctx, ErrApplyMigrations, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrApplyMigrations, err)
	}

	log.Info(ctx, LogMigrationsApplied)
	return nil
}
