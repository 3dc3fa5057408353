package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

const rollbackSuffix = "_rollback.sql"

// ErrNoMigrations is returned by RollbackLastMigration when nothing has been applied.
var ErrNoMigrations = errors.New("no migrations to rollback")

// RunMigrations brings the schema up to date. SQLite databases are migrated
// from the gorm models, postgres runs the SQL files in migrationsDir.
func RunMigrations(db *gorm.DB, migrationsDir string) error {
	if db.Dialector.Name() == "sqlite" {
		log.Info().Msg("using gorm auto-migration for sqlite")
		return AutoMigrate(db)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return ApplyMigrations(context.Background(), sqlDB, migrationsDir)
}

// AutoMigrate creates or updates every table from the gorm models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return nil
}

// ApplyMigrations executes every pending VERSION_name.sql file in dir, each in its own transaction.
func ApplyMigrations(ctx context.Context, db *sql.DB, dir string) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}

	files, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		version := strings.SplitN(file, "_", 2)[0]

		var applied bool
		err := db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if applied {
			log.Debug().Str("migration", file).Msg("skipping migration (already applied)")
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		err = inTx(ctx, db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", file, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", version, file,
			); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", file, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Info().Str("migration", file).Msg("applied migration")
	}

	return nil
}

// RollbackLastMigration undoes the most recently applied migration using its _rollback.sql file.
func RollbackLastMigration(ctx context.Context, db *sql.DB, dir string) (string, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return "", err
	}

	var version, name string
	err := db.QueryRowContext(ctx,
		"SELECT version, name FROM schema_migrations ORDER BY version DESC LIMIT 1",
	).Scan(&version, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoMigrations
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last migration: %w", err)
	}

	rollbackPath := filepath.Join(dir, strings.TrimSuffix(name, ".sql")+rollbackSuffix)
	content, err := os.ReadFile(rollbackPath)
	if err != nil {
		return "", fmt.Errorf("failed to read rollback file: %w", err)
	}

	err = inTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute rollback: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", version); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("migration", name).Msg("rolled back migration")
	return name, nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(32) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// migrationFiles lists forward migrations in dir sorted by name.
func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".sql" || strings.HasSuffix(name, rollbackSuffix) {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
