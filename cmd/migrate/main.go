package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
)

func main() {
	// Parse command line flags
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	migrationsDir := flag.String("dir", "migrations", "Directory holding the SQL migrations")
	flag.Parse()

	logger.Init(string(config.GetEnvironment()), os.Getenv("LOG_LEVEL"))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal().Msg("DATABASE_URL environment variable is not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if *rollback {
		name, err := database.RollbackLastMigration(ctx, db, *migrationsDir)
		if errors.Is(err, database.ErrNoMigrations) {
			log.Info().Msg("no migrations to rollback")
			return
		}
		if err != nil {
			log.Fatal().Err(err).Msg("rollback failed")
		}
		log.Info().Str("migration", name).Msg("rolled back migration")
		return
	}

	if err := database.ApplyMigrations(ctx, db, *migrationsDir); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("migrations applied")
}
