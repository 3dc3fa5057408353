package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/internal/storage"
)

const (
	// TypeDeleteMedia removes an object from media storage.
	TypeDeleteMedia = "media:delete"

	QueueMedia = "media"
)

// DeleteMediaPayload is the body of a TypeDeleteMedia task.
type DeleteMediaPayload struct {
	Key string `json:"key"`
}

// NewDeleteMediaTask builds a task that removes key from storage.
func NewDeleteMediaTask(key string) (*asynq.Task, error) {
	payload, err := json.Marshal(DeleteMediaPayload{Key: key})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeDeleteMedia, payload), nil
}

// QueueRemover schedules media deletion on the asynq queue.
type QueueRemover struct {
	client *asynq.Client
}

func NewQueueRemover(client *asynq.Client) *QueueRemover {
	return &QueueRemover{client: client}
}

// Remove enqueues the deletion of key. Empty keys are ignored.
func (r *QueueRemover) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	task, err := NewDeleteMediaTask(key)
	if err != nil {
		return err
	}

	info, err := r.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueMedia),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue media deletion: %w", err)
	}

	log.Debug().Str("task_id", info.ID).Str("key", key).Msg("media deletion enqueued")
	return nil
}

// InlineRemover deletes media synchronously. It is used when no queue is configured.
type InlineRemover struct {
	store storage.Storage
}

func NewInlineRemover(store storage.Storage) *InlineRemover {
	return &InlineRemover{store: store}
}

func (r *InlineRemover) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return r.store.Delete(ctx, key)
}
