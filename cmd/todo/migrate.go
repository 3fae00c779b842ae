package main

import (
	"context"
	"fmt"

	"github.com/Brajnn/ToDoAPI/internal/config"
	"github.com/Brajnn/ToDoAPI/internal/repository"
	"github.com/Brajnn/ToDoAPI/shared/logger"
)

// migrateUp применяет все ещё не применённые миграции
func migrateUp(ctx context.Context, cfg *config.Config) error {
	return migrate(ctx, cfg, func(m *repository.Migrator) error { return m.Up(ctx) })
}

// migrateDown откатывает steps последних миграций, steps должен быть положительным
func migrateDown(ctx context.Context, cfg *config.Config, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("--steps must be positive, got %d", steps)
	}
	return migrate(ctx, cfg, func(m *repository.Migrator) error { return m.Down(ctx, steps) })
}

func migrate(ctx context.Context, cfg *config.Config, run func(*repository.Migrator) error) error {
	log := logger.Logger

	_, sqlRepo, closer, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closer.Close()

	if sqlRepo == nil {
		log.WithField("driver", cfg.DB.Driver).Info("driver has no schema, nothing to migrate")
		return nil
	}

	m := repository.NewMigrator(sqlRepo.DB(), sqlRepo.Dialect(), log)
	if err := run(m); err != nil {
		return err
	}

	versions, err := m.AppliedVersions(ctx)
	if err != nil {
		return err
	}
	log.WithField("applied_versions", versions).Info("migrations finished")
	return nil
}
