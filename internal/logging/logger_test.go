package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Debug("not emitted")
	logger.Info("not emitted either")
	logger.Warnf("retrying in %dms", 50)

	out := buf.String()
	assert.NotContains(t, out, "not emitted")
	assert.Contains(t, out, "retrying in 50ms")
}

func TestLoggerSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	require.NoError(t, logger.SetLogLevel(ErrorLevel))
	logger.Info("suppressed after raise")
	logger.Error("still emitted")

	assert.NotContains(t, buf.String(), "suppressed after raise")
	assert.Contains(t, buf.String(), "still emitted")

	assert.Error(t, logger.SetLogLevel(LogLevel("chatty")))
}

func TestDomainLogEvents(t *testing.T) {
	var buf bytes.Buffer
	zl := NewLogger(DebugLevel, &buf).Zerolog()

	LogAlbumRefresh(zl, 12, 1025, "incremental", true)
	LogExceedFallback(zl, 720, 500)
	LogTransactionRetry(zl, 2, 5, false, assert.AnError)
	LogRecomputeSkipped(zl, 12, assert.AnError)
	LogNotificationFlush(zl, 3, false)

	out := buf.String()
	assert.Contains(t, out, "Album aggregates refreshed")
	assert.Contains(t, out, `"album_id":12`)
	assert.Contains(t, out, "falling back to full recompute")
	assert.Contains(t, out, `"threshold":500`)
	assert.Contains(t, out, "Transaction start retried")
	assert.Contains(t, out, "aggregates stay stale")
	assert.Contains(t, out, "Change notifications dispatched")
}

func TestDomainLogEventsNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogAlbumRefresh(nil, 1, 1025, "full", false)
		LogExceedFallback(nil, 1, 1)
		LogTransactionRetry(nil, 1, 1, true, nil)
		LogRecomputeSkipped(nil, 1, nil)
		LogNotificationFlush(nil, 0, true)
	})
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	sub := logger.WithFields(map[string]interface{}{"module": "store", "op": "hide"})
	sub.Info().Msg("field carrier")

	out := buf.String()
	assert.Contains(t, out, `"module":"store"`)
	assert.Contains(t, out, `"op":"hide"`)
}
