package store

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"photostore/internal/config"
	"photostore/internal/database"
	"photostore/internal/metrics"
)

// SyncTrigger kicks off a background cloud sync pass after a committed
// local mutation.
type SyncTrigger interface {
	StartSync(ctx context.Context) error
}

// Store is the media store facade. Every mutating operation runs inside
// one serialized write transaction that captures change data, refreshes
// touched albums, commits, and then notifies listeners.
type Store struct {
	db      *gorm.DB
	cfg     config.EngineConfig
	logger  *zerolog.Logger
	metrics *metrics.Metrics

	txns     *TransactionManager
	notifier *Notifier
	trigger  SyncTrigger
}

// NewStore wires the store over an opened database. sync and trigger may be
// nil when cloud sync is disabled.
func NewStore(dbm *database.DatabaseManager, cfg config.EngineConfig, logger *zerolog.Logger, m *metrics.Metrics, sync SyncController, trigger SyncTrigger) *Store {
	db := dbm.GetGormDB()
	return &Store{
		db:       db,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		txns:     NewTransactionManager(db, cfg, logger, m, sync),
		notifier: NewNotifier(cfg.NotifyRatePerSecond, cfg.NotifyBurst, logger, m),
		trigger:  trigger,
	}
}

// Notifier returns the store's notifier so callers can subscribe observers.
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

// OpContext is the per-transaction state handed to a mutation body.
type OpContext struct {
	DB      *gorm.DB
	Changes *ChangeSet
	tracker *ChangeDataManager
}

// CaptureBefore snapshots assets the mutation is about to touch.
func (op *OpContext) CaptureBefore(fileIDs []int64) error {
	return op.tracker.CaptureBefore(fileIDs)
}

// CaptureBeforeWhere snapshots assets matched by a Photos condition and
// returns their ids.
func (op *OpContext) CaptureBeforeWhere(cond string, args ...interface{}) ([]int64, error) {
	return op.tracker.CaptureBeforeWhere(cond, args...)
}

// CaptureAfter snapshots assets after the mutation ran.
func (op *OpContext) CaptureAfter(fileIDs []int64) error {
	return op.tracker.CaptureAfter(fileIDs)
}

// runInTxn runs a mutation body inside one serialized write transaction,
// refreshes the albums its change records touched, commits, and dispatches
// the merged notifications. Any error before commit rolls everything back,
// including the album refresh.
func (s *Store) runInTxn(ctx context.Context, fn func(op *OpContext) error) error {
	txn, err := s.txns.Start(ctx, false)
	if err != nil {
		return err
	}
	defer txn.Release()

	op := &OpContext{
		DB:      txn.DB(),
		Changes: NewChangeSet(),
		tracker: NewChangeDataManager(txn.DB(), s.cfg.ExceedThreshold),
	}

	if err := fn(op); err != nil {
		return err
	}

	refresher := NewAlbumRefresher(txn.DB(), s.logger, s.metrics)
	if err := refresher.RefreshForChanges(op.tracker, op.Changes); err != nil {
		return err
	}

	if err := txn.Finish(); err != nil {
		return err
	}

	s.notifier.Dispatch(ctx, op.Changes)

	if s.trigger != nil {
		if err := s.trigger.StartSync(ctx); err != nil && s.logger != nil {
			s.logger.Warn().Err(err).Msg("Post-commit sync trigger failed")
		}
	}
	return nil
}
