package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"photostore/internal/config"
	"photostore/internal/logging"
	"photostore/internal/store"
)

// Scheduler runs the periodic self-healing jobs: a full recompute of every
// album and the physical purge of expired trash. Both run in-process so a
// device with sync disabled still heals.
type Scheduler struct {
	cron   *cron.Cron
	store  *store.Store
	logs   *logging.LogStorage
	cfg    config.MaintenanceConfig
	logger *zerolog.Logger
}

// NewScheduler wires the jobs but does not start them. logs may be nil when
// database log persistence is disabled.
func NewScheduler(st *store.Store, logs *logging.LogStorage, cfg config.MaintenanceConfig, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		store:  st,
		logs:   logs,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the cron entries and begins scheduling.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.RefreshSpec, s.runRefresh); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.PurgeSpec, s.runPurge); err != nil {
		return err
	}
	s.cron.Start()

	if s.logger != nil {
		s.logger.Info().
			Str("refresh_spec", s.cfg.RefreshSpec).
			Str("purge_spec", s.cfg.PurgeSpec).
			Msg("Maintenance schedule started")
	}
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.store.RefreshAllAlbums(ctx); err != nil {
		if s.logger != nil {
			s.logger.Error().Err(err).Msg("Scheduled album recompute failed")
		}
		return
	}
	if s.logger != nil {
		s.logger.Info().Msg("Scheduled album recompute finished")
	}
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	purged, err := s.store.PurgeAssets(ctx, s.cfg.TrashRetention)
	if err != nil {
		if s.logger != nil {
			s.logger.Error().Err(err).Msg("Scheduled purge failed")
		}
		return
	}
	if s.logger != nil {
		s.logger.Info().Int64("purged", purged).Msg("Scheduled purge finished")
	}

	if s.logs != nil && s.cfg.LogRetention > 0 {
		deleted, err := s.logs.DeleteOldLogs(ctx, s.cfg.LogRetention)
		if err != nil {
			if s.logger != nil {
				s.logger.Error().Err(err).Msg("Log cleanup failed")
			}
			return
		}
		if s.logger != nil && deleted > 0 {
			s.logger.Info().Int64("deleted", deleted).Msg("Old log entries removed")
		}
	}
}
