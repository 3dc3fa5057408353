package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/cache"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/jobs"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(string(cfg.Environment), cfg.LogLevel)

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, getMigrationsDir()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media storage")
	}

	// Without redis everything runs inline: no token revocation, no short link
	// cache, no rate limit and media is removed synchronously.
	var (
		remover service.ObjectRemover = jobs.NewInlineRemover(store)
		revoker service.TokenRevoker
		links   service.ShortLinkCache
	)
	if redisClient != nil {
		defer redisClient.Close()

		redisStore := cache.NewRedisStore(redisClient)
		revoker, links = redisStore, redisStore

		redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse redis url for the job queue")
		}
		queue := asynq.NewClient(redisOpt)
		defer queue.Close()
		remover = jobs.NewQueueRemover(queue)
	} else {
		log.Warn().Msg("REDIS_URL is not set, running without cache, rate limiting and job queue")
	}

	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL, revoker)
	srv := server.New(cfg, api.Dependencies{
		Auth:                  authService,
		Users:                 service.NewUserService(db, store, remover),
		Recipes:               service.NewRecipeService(db, store, remover, links),
		Ingredients:           service.NewIngredientService(db),
		DB:                    db,
		RecipeCreationLimiter: middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreateLimit),
		BaseURL:               cfg.PublicBaseURL,
	})

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("received signal")
	}

	log.Info().Msg("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}

func getMigrationsDir() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "migrations"
}
