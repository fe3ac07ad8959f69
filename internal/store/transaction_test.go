package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"photostore/internal/config"
	"photostore/internal/models"
	"photostore/internal/test"
)

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		ExceedThreshold:   500,
		MaxRetries:        2,
		UpgradeMaxRetries: 3,
		RetryBackoff:      time.Millisecond,
		StartTimeout:      50 * time.Millisecond,
	}
}

// mockGorm opens a GORM handle over a sqlmock connection.
func mockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery("select sqlite_version()").
		WillReturnRows(sqlmock.NewRows([]string{"sqlite_version()"}).AddRow("3.45.0"))

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

type countingSync struct {
	suspends int
	resumes  int
}

func (c *countingSync) Suspend() { c.suspends++ }
func (c *countingSync) Resume()  { c.resumes++ }

func TestTransactionSerializesWriters(t *testing.T) {
	db, tearDown := test.GetTestDB(t)
	defer tearDown()

	tm := NewTransactionManager(db, testEngineConfig(), nil, nil, nil)

	first, err := tm.Start(context.Background(), false)
	require.NoError(t, err)

	// Second writer cannot get the slot while the first holds it.
	_, err = tm.Start(context.Background(), false)
	assert.ErrorIs(t, err, ErrBusy)

	first.Release()

	second, err := tm.Start(context.Background(), false)
	require.NoError(t, err)
	second.Release()
}

func TestTransactionReleaseRollsBack(t *testing.T) {
	db, tearDown := test.GetTestDB(t)
	defer tearDown()

	tm := NewTransactionManager(db, testEngineConfig(), nil, nil, nil)
	txn, err := tm.Start(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, txn.DB().Create(&models.Photo{
		Data:        "/x/a.jpg",
		DisplayName: "a.jpg",
		MediaType:   models.MediaTypeImage,
	}).Error)
	txn.Release()

	var count int64
	require.NoError(t, db.Model(&models.Photo{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransactionFinishCommits(t *testing.T) {
	db, tearDown := test.GetTestDB(t)
	defer tearDown()

	tm := NewTransactionManager(db, testEngineConfig(), nil, nil, nil)
	txn, err := tm.Start(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, txn.DB().Create(&models.Photo{
		Data:        "/x/a.jpg",
		DisplayName: "a.jpg",
		MediaType:   models.MediaTypeImage,
	}).Error)
	require.NoError(t, txn.Finish())
	txn.Release() // idempotent after Finish

	var count int64
	require.NoError(t, db.Model(&models.Photo{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTransactionSuspendsSyncWhileHeld(t *testing.T) {
	db, tearDown := test.GetTestDB(t)
	defer tearDown()

	sync := &countingSync{}
	tm := NewTransactionManager(db, testEngineConfig(), nil, nil, sync)

	txn, err := tm.Start(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, sync.suspends)
	assert.Equal(t, 0, sync.resumes)

	require.NoError(t, txn.Finish())
	assert.Equal(t, 1, sync.resumes)
}

func TestTransactionBeginRetriesExhaustBudget(t *testing.T) {
	db, mock := mockGorm(t)

	cfg := testEngineConfig()
	tm := NewTransactionManager(db, cfg, nil, nil, nil)

	for i := 0; i < cfg.MaxRetries; i++ {
		mock.ExpectBegin().WillReturnError(assert.AnError)
	}

	_, err := tm.Start(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDB)
	require.NoError(t, mock.ExpectationsWereMet())

	// The slot is free again after the failed start.
	mock.ExpectBegin()
	txn, err := tm.Start(context.Background(), false)
	require.NoError(t, err)
	mock.ExpectRollback()
	txn.Release()
}

func TestTransactionUpgradeUsesLargerBudget(t *testing.T) {
	db, mock := mockGorm(t)

	cfg := testEngineConfig()
	tm := NewTransactionManager(db, cfg, nil, nil, nil)

	// More failures than the regular budget, one less than the upgrade one.
	for i := 0; i < cfg.UpgradeMaxRetries-1; i++ {
		mock.ExpectBegin().WillReturnError(assert.AnError)
	}
	mock.ExpectBegin()

	txn, err := tm.Start(context.Background(), true)
	require.NoError(t, err)
	mock.ExpectRollback()
	txn.Release()
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionCommitFailureDiscardsEverything(t *testing.T) {
	db, mock := mockGorm(t)

	tm := NewTransactionManager(db, testEngineConfig(), nil, nil, nil)

	// After a failed commit database/sql marks the tx done, so the
	// follow-up rollback never reaches the driver.
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(assert.AnError)

	txn, err := tm.Start(context.Background(), false)
	require.NoError(t, err)

	err = txn.Finish()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDB)
	require.NoError(t, mock.ExpectationsWereMet())

	// Slot must be free for the next writer.
	mock.ExpectBegin()
	next, err := tm.Start(context.Background(), false)
	require.NoError(t, err)
	mock.ExpectRollback()
	next.Release()
}
