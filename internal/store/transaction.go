package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"photostore/internal/config"
	"photostore/internal/logging"
	"photostore/internal/metrics"
)

// SyncController pauses background cloud sync while a local write
// transaction holds the store, and wakes it back up afterwards.
type SyncController interface {
	Suspend()
	Resume()
}

// ErrBusy is returned when the store stays locked past the start timeout.
var ErrBusy = fmt.Errorf("store busy: write transaction slot not acquired")

// TransactionManager serializes write transactions over the media store.
// One writer holds the slot at a time; readers go straight to the pool.
type TransactionManager struct {
	db      *gorm.DB
	cfg     config.EngineConfig
	logger  *zerolog.Logger
	metrics *metrics.Metrics
	sync    SyncController

	slot chan struct{}
}

// NewTransactionManager creates a manager with a single writer slot.
// sync may be nil when cloud sync is disabled.
func NewTransactionManager(db *gorm.DB, cfg config.EngineConfig, logger *zerolog.Logger, m *metrics.Metrics, sync SyncController) *TransactionManager {
	tm := &TransactionManager{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		sync:    sync,
		slot:    make(chan struct{}, 1),
	}
	tm.slot <- struct{}{}
	return tm
}

// Txn is one serialized write transaction. Finish commits, Release rolls
// back anything uncommitted; Release is safe to call after Finish and the
// caller is expected to defer it.
type Txn struct {
	tx   *gorm.DB
	mgr  *TransactionManager
	done bool
}

// Start acquires the writer slot and opens a database transaction. A busy
// database is retried with backoff up to the configured budget; an upgrade
// start uses the larger budget because migrations hold the file longer.
func (tm *TransactionManager) Start(ctx context.Context, upgrade bool) (*Txn, error) {
	select {
	case <-tm.slot:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
	case <-time.After(tm.cfg.StartTimeout):
		if tm.metrics != nil {
			tm.metrics.TransactionsTotal.WithLabelValues("busy").Inc()
		}
		return nil, ErrBusy
	}

	if tm.sync != nil {
		tm.sync.Suspend()
	}

	budget := tm.cfg.MaxRetries
	if upgrade {
		budget = tm.cfg.UpgradeMaxRetries
	}

	var tx *gorm.DB
	for attempt := 1; ; attempt++ {
		tx = tm.db.WithContext(ctx).Begin()
		if tx.Error == nil {
			break
		}
		if attempt >= budget {
			tm.release()
			if tm.metrics != nil {
				tm.metrics.TransactionsTotal.WithLabelValues("begin_failed").Inc()
			}
			return nil, fmt.Errorf("%w: begin transaction after %d attempts: %v", ErrDB, attempt, tx.Error)
		}
		if tm.metrics != nil {
			tm.metrics.TransactionRetriesTotal.Inc()
		}
		logging.LogTransactionRetry(tm.logger, attempt, budget, upgrade, tx.Error)
		select {
		case <-time.After(tm.cfg.RetryBackoff):
		case <-ctx.Done():
			tm.release()
			return nil, fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
		}
	}

	return &Txn{tx: tx, mgr: tm}, nil
}

// DB returns the transactional handle for queries and writes.
func (t *Txn) DB() *gorm.DB {
	return t.tx
}

// Finish commits the transaction and frees the writer slot. After a commit
// failure the transaction is rolled back and every change in it is gone.
func (t *Txn) Finish() error {
	if t.done {
		return nil
	}
	t.done = true

	err := t.tx.Commit().Error
	if err != nil {
		t.tx.Rollback()
		t.mgr.release()
		if t.mgr.metrics != nil {
			t.mgr.metrics.TransactionsTotal.WithLabelValues("commit_failed").Inc()
		}
		return fmt.Errorf("%w: commit transaction: %v", ErrDB, err)
	}

	t.mgr.release()
	if t.mgr.metrics != nil {
		t.mgr.metrics.TransactionsTotal.WithLabelValues("committed").Inc()
	}
	return nil
}

// Release rolls back an unfinished transaction and frees the writer slot.
// It is idempotent.
func (t *Txn) Release() {
	if t.done {
		return
	}
	t.done = true

	t.tx.Rollback()
	t.mgr.release()
	if t.mgr.metrics != nil {
		t.mgr.metrics.TransactionsTotal.WithLabelValues("rolled_back").Inc()
	}
}

func (tm *TransactionManager) release() {
	if tm.sync != nil {
		tm.sync.Resume()
	}
	tm.slot <- struct{}{}
}
