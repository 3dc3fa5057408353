package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/jobs"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/storage"
)

const concurrency = 4

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(string(cfg.Environment), cfg.LogLevel)

	if cfg.RedisURL == "" {
		log.Fatal().Msg("REDIS_URL is required by the worker")
	}
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse redis url")
	}

	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media storage")
	}

	srv := jobs.NewServer(redisOpt, concurrency)
	log.Info().Int("concurrency", concurrency).Msg("starting worker")
	// Run blocks until SIGINT or SIGTERM and then drains in-flight tasks.
	if err := srv.Run(jobs.NewServeMux(store)); err != nil {
		log.Fatal().Err(err).Msg("worker stopped with error")
	}
}
