package store

import (
	"errors"
)

// Sentinel errors for the refresh engine. ErrExceedsThreshold is a routing
// signal, not a failure: callers switch to full-corpus recompute when they
// see it.
var (
	ErrDB               = errors.New("database error")
	ErrInvalidTable     = errors.New("operation targets an unknown table")
	ErrInputEmpty       = errors.New("no change data supplied")
	ErrExceedsThreshold = errors.New("change batch exceeds incremental threshold")
)

// Integer result codes surfaced to IPC-level callers.
const (
	ResultOK           = 0
	ResultError        = -1
	ResultDBError      = -222
	ResultInvalidTable = -223
	ResultEmptyInput   = -224
)

// ResultCode maps an operation error to the integer contract callers expect.
// Empty input is a no-op success.
func ResultCode(err error) int {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrInputEmpty):
		return ResultOK
	case errors.Is(err, ErrInvalidTable):
		return ResultInvalidTable
	case errors.Is(err, ErrDB):
		return ResultDBError
	default:
		return ResultError
	}
}

// KnownTables is the set of tables mutation operations may target.
var KnownTables = map[string]bool{
	"Photos":           true,
	"PhotoAlbum":       true,
	"PhotoMap":         true,
	"AnalysisPhotoMap": true,
	"SourcePhotoMap":   true,
}

// ValidateTable rejects operations aimed outside the engine's known set
// before anything touches the store.
func ValidateTable(table string) error {
	if !KnownTables[table] {
		return ErrInvalidTable
	}
	return nil
}
