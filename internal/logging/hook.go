package logging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// DatabaseHook implements zerolog.Hook to store logs in database
type DatabaseHook struct {
	storage  *LogStorage
	minLevel zerolog.Level
}

// NewDatabaseHook creates a new database hook for zerolog
func NewDatabaseHook(storage *LogStorage, minLevel zerolog.Level) *DatabaseHook {
	return &DatabaseHook{
		storage:  storage,
		minLevel: minLevel,
	}
}

// Run implements the zerolog.Hook interface
func (h *DatabaseHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	// Only store logs at or above the minimum level
	if level < h.minLevel {
		return
	}

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
		Metadata:  "{}",
	}

	// Stored outside the caller's write transaction so a failed store never
	// blocks or aborts a mutation.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = h.storage.Store(ctx, entry)
}

// ContextualDatabaseLogger wraps a logger with database storage capabilities
type ContextualDatabaseLogger struct {
	logger  *zerolog.Logger
	storage *LogStorage
}

// NewContextualDatabaseLogger creates a logger that stores to database
func NewContextualDatabaseLogger(logger *zerolog.Logger, storage *LogStorage) *ContextualDatabaseLogger {
	return &ContextualDatabaseLogger{
		logger:  logger,
		storage: storage,
	}
}

// LogWithStorage logs a message and stores it in the database
func (l *ContextualDatabaseLogger) LogWithStorage(ctx context.Context, level zerolog.Level, msg string, fields map[string]interface{}) {
	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
	}

	// Extract known fields
	if module, ok := fields["module"].(string); ok {
		entry.Module = module
	}
	if function, ok := fields["function"].(string); ok {
		entry.Function = function
	}
	if fileID, ok := fields["file_id"].(int64); ok {
		entry.FileID = fileID
	}
	if albumID, ok := fields["album_id"].(int32); ok {
		entry.AlbumID = albumID
	}
	if operation, ok := fields["operation"].(string); ok {
		entry.Operation = operation
	}
	if duration, ok := fields["duration_ms"].(int64); ok {
		entry.Duration = duration
	}
	if filePath, ok := fields["file_path"].(string); ok {
		entry.FilePath = filePath
	}
	if err, ok := fields["error"].(string); ok {
		entry.Error = err
	}
	if stack, ok := fields["stack"].(string); ok {
		entry.Stack = stack
	}

	// Store remaining fields as metadata JSON
	metadata := make(map[string]interface{})
	knownFields := map[string]bool{
		"module": true, "function": true, "file_id": true, "album_id": true,
		"operation": true, "duration_ms": true, "file_path": true,
		"error": true, "stack": true,
	}
	for k, v := range fields {
		if !knownFields[k] {
			metadata[k] = v
		}
	}
	if len(metadata) > 0 {
		if metadataJSON, err := json.Marshal(metadata); err == nil {
			entry.Metadata = string(metadataJSON)
		}
	}

	// Store in database
	go func() {
		storeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.storage.Store(storeCtx, entry)
	}()

	// Also log to zerolog
	event := l.logger.WithLevel(level)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}
