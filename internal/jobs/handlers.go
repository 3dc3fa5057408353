package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/internal/storage"
)

// DeleteMediaHandler removes stored images of deleted recipes and replaced avatars.
type DeleteMediaHandler struct {
	store storage.Storage
}

func NewDeleteMediaHandler(store storage.Storage) *DeleteMediaHandler {
	return &DeleteMediaHandler{store: store}
}

func (h *DeleteMediaHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload DeleteMediaPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal media deletion payload")
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if payload.Key == "" {
		return nil
	}

	if err := h.store.Delete(ctx, payload.Key); err != nil {
		log.Error().Err(err).Str("key", payload.Key).Msg("failed to delete media")
		return fmt.Errorf("delete media: %w", err)
	}

	log.Info().Str("key", payload.Key).Msg("media deleted")
	return nil
}

// NewServeMux registers every task handler of the worker.
func NewServeMux(store storage.Storage) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeDeleteMedia, NewDeleteMediaHandler(store))
	return mux
}

// NewServer creates the asynq server used by cmd/worker.
func NewServer(redisOpt asynq.RedisConnOpt, concurrency int) *asynq.Server {
	return asynq.NewServer(redisOpt, asynq.Config{
		Queues: map[string]int{
			QueueMedia: 5,
			"default":  1,
		},
		Concurrency: concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error().Err(err).Str("type", task.Type()).Msg("task failed")
		}),
	})
}
