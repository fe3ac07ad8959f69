package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"photostore/internal/config"
)

// TypeSyncStart is the task type of the fire-and-forget sync kick.
const TypeSyncStart = "sync:start"

// SyncStartPayload is the task payload. The reason is for the worker's logs
// only; a sync pass always pushes everything dirty.
type SyncStartPayload struct {
	Reason      string `json:"reason"`
	RequestedAt int64  `json:"requested_at"`
}

// Trigger enqueues sync kicks after committed local mutations. Kicks within
// the uniqueness window collapse into one queued task.
type Trigger struct {
	client *asynq.Client
	queue  string
	logger *zerolog.Logger
}

// NewTrigger connects an enqueue-only client to the task broker.
func NewTrigger(cfg config.SyncConfig, logger *zerolog.Logger) *Trigger {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	return &Trigger{client: client, queue: cfg.Queue, logger: logger}
}

// StartSync enqueues one sync:start task. Duplicate kicks while a task is
// still queued are dropped by the broker.
func (t *Trigger) StartSync(ctx context.Context) error {
	payload, err := json.Marshal(SyncStartPayload{
		Reason:      "local_mutation",
		RequestedAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal sync task payload: %w", err)
	}

	task := asynq.NewTask(TypeSyncStart, payload)
	info, err := t.client.EnqueueContext(ctx, task,
		asynq.Queue(t.queue),
		asynq.Unique(30*time.Second),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue sync task: %w", err)
	}

	if t.logger != nil {
		t.logger.Debug().
			Str("task_id", info.ID).
			Str("queue", info.Queue).
			Msg("Sync kick enqueued")
	}
	return nil
}

// Close releases the broker connection.
func (t *Trigger) Close() error {
	return t.client.Close()
}
