package logging_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photostore/internal/logging"
	"photostore/internal/test"
)

func TestLogStorageQueryAndStats(t *testing.T) {
	db, tearDown := test.GetTestDB(t)
	defer tearDown()

	storage := logging.NewLogStorage(db)
	ctx := context.Background()
	now := time.Now()

	entries := []*logging.LogEntry{
		{Timestamp: now.Add(-time.Minute), Level: "info", Message: "album refresh finished", Module: "store", AlbumID: 7},
		{Timestamp: now.Add(-time.Minute), Level: "warn", Message: "transaction start retried", Module: "store"},
		{Timestamp: now.Add(-time.Minute), Level: "error", Message: "commit failed", Module: "store", Error: "database is locked"},
		{Timestamp: now.Add(-48 * time.Hour), Level: "info", Message: "stale entry", Module: "syncer"},
	}
	for _, e := range entries {
		require.NoError(t, storage.Store(ctx, e))
	}

	got, total, err := storage.Query(ctx, logging.LogFilters{Level: "warn", Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "transaction start retried", got[0].Message)

	got, total, err = storage.Query(ctx, logging.LogFilters{Search: "locked", Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "error", got[0].Level)

	got, total, err = storage.Query(ctx, logging.LogFilters{AlbumID: 7, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "album refresh finished", got[0].Message)

	recent, err := storage.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp) || recent[0].Timestamp.Equal(recent[1].Timestamp))

	stats, err := storage.GetLogStats(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.ErrorCount)
	assert.EqualValues(t, 1, stats.WarnCount)
}

func TestLogStorageDeleteOldLogs(t *testing.T) {
	db, tearDown := test.GetTestDB(t)
	defer tearDown()

	storage := logging.NewLogStorage(db)
	ctx := context.Background()

	require.NoError(t, storage.Store(ctx, &logging.LogEntry{Timestamp: time.Now().Add(-10 * 24 * time.Hour), Level: "info", Message: "old"}))
	require.NoError(t, storage.Store(ctx, &logging.LogEntry{Timestamp: time.Now(), Level: "info", Message: "fresh"}))

	deleted, err := storage.DeleteOldLogs(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	remaining, err := storage.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Message)
}

func TestDatabaseHookStoresAtMinLevel(t *testing.T) {
	db, tearDown := test.GetTestDB(t)
	defer tearDown()

	storage := logging.NewLogStorage(db)
	hook := logging.NewDatabaseHook(storage, zerolog.WarnLevel)
	logger := zerolog.New(nil).Level(zerolog.DebugLevel).Hook(hook)

	logger.Debug().Msg("below the floor")
	logger.Warn().Msg("storage volume nearly full")

	entries, err := storage.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0].Level)
	assert.Equal(t, "storage volume nearly full", entries[0].Message)
}

func TestContextualDatabaseLoggerExtractsFields(t *testing.T) {
	db, tearDown := test.GetTestDB(t)
	defer tearDown()

	storage := logging.NewLogStorage(db)
	zl := zerolog.New(nil).Level(zerolog.DebugLevel)
	ctxLogger := logging.NewContextualDatabaseLogger(&zl, storage)

	ctxLogger.LogWithStorage(context.Background(), zerolog.InfoLevel, "asset hidden", map[string]interface{}{
		"module":    "store",
		"file_id":   int64(42),
		"album_id":  int32(3),
		"operation": "hide",
		"attempt":   2,
	})

	require.Eventually(t, func() bool {
		entries, err := storage.GetRecent(context.Background(), 1)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	entries, err := storage.GetRecent(context.Background(), 1)
	require.NoError(t, err)
	entry := entries[0]
	assert.Equal(t, "store", entry.Module)
	assert.EqualValues(t, 42, entry.FileID)
	assert.EqualValues(t, 3, entry.AlbumID)
	assert.Equal(t, "hide", entry.Operation)
	assert.Contains(t, entry.Metadata, "attempt")
}
