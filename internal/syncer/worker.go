package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"photostore/internal/config"
	"photostore/internal/models"
)

// Pusher uploads one batch of dirty rows to the cloud endpoint. Transport
// lives behind this interface so the engine stays device-local.
type Pusher interface {
	PushAssets(ctx context.Context, assets []models.Photo) error
	PushAlbums(ctx context.Context, albums []models.PhotoAlbum) error
}

// Worker consumes sync:start tasks. Each task runs one full push pass over
// everything cloud-dirty, after waiting for local write transactions to
// drain.
type Worker struct {
	srv    *asynq.Server
	db     *gorm.DB
	coord  *Coordinator
	pusher Pusher
	logger *zerolog.Logger
}

// NewWorker builds the task server. pusher may be nil, in which case a pass
// only reports the dirty backlog.
func NewWorker(cfg config.SyncConfig, db *gorm.DB, coord *Coordinator, pusher Pusher, logger *zerolog.Logger) *Worker {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				cfg.Queue: 1,
			},
		},
	)
	return &Worker{srv: srv, db: db, coord: coord, pusher: pusher, logger: logger}
}

// Run registers the handlers and serves until Shutdown.
func (w *Worker) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSyncStart, w.handleSyncStart)
	return w.srv.Run(mux)
}

// Shutdown stops task processing gracefully.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

func (w *Worker) handleSyncStart(ctx context.Context, task *asynq.Task) error {
	var payload SyncStartPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal sync task payload: %w", err)
	}

	// Local writes win; sync waits for the store to go quiet.
	if err := w.coord.WaitIdle(ctx); err != nil {
		return err
	}

	var assets []models.Photo
	err := w.db.WithContext(ctx).
		Where("dirty <> ?", models.DirtySynced).
		Find(&assets).Error
	if err != nil {
		return fmt.Errorf("load dirty assets: %w", err)
	}

	var albums []models.PhotoAlbum
	err = w.db.WithContext(ctx).
		Where("dirty <> ?", models.DirtySynced).
		Find(&albums).Error
	if err != nil {
		return fmt.Errorf("load dirty albums: %w", err)
	}

	if w.logger != nil {
		w.logger.Info().
			Str("reason", payload.Reason).
			Int("dirty_assets", len(assets)).
			Int("dirty_albums", len(albums)).
			Msg("Sync pass started")
	}

	if w.pusher == nil || (len(assets) == 0 && len(albums) == 0) {
		return nil
	}
	if err := w.pusher.PushAssets(ctx, assets); err != nil {
		return fmt.Errorf("push dirty assets: %w", err)
	}
	if err := w.pusher.PushAlbums(ctx, albums); err != nil {
		return fmt.Errorf("push dirty albums: %w", err)
	}
	return nil
}
