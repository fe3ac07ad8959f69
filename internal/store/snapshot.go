package store

import (
	"photostore/internal/models"
)

// AssetSnapshot is a point-in-time copy of the classification-relevant state
// of one asset, including its explicit album memberships. Snapshots are the
// inputs to the classifier; they never reach back into the store.
type AssetSnapshot struct {
	FileID      int64
	Data        string
	DisplayName string
	Title       string

	MediaType models.MediaType
	Subtype   models.PhotoSubtype

	DateAdded int64
	DateTaken int64

	IsFavorite  bool
	Hidden      bool
	DateTrashed int64
	TimePending int64

	Dirty      models.DirtyType
	SyncStatus models.SyncStatus
	CleanFlag  models.CleanFlag

	UserAlbums     []int32
	SourceAlbums   []int32
	AnalysisAlbums []int32
}

// SnapshotFromPhoto copies the classification-relevant fields of a row.
// Memberships are filled separately by the change-data manager.
func SnapshotFromPhoto(p *models.Photo) *AssetSnapshot {
	return &AssetSnapshot{
		FileID:      p.FileID,
		Data:        p.Data,
		DisplayName: p.DisplayName,
		Title:       p.Title,
		MediaType:   p.MediaType,
		Subtype:     p.Subtype,
		DateAdded:   p.DateAdded,
		DateTaken:   p.DateTaken,
		IsFavorite:  p.IsFavorite,
		Hidden:      p.Hidden,
		DateTrashed: p.DateTrashed,
		TimePending: p.TimePending,
		Dirty:       p.Dirty,
		SyncStatus:  p.SyncStatus,
		CleanFlag:   p.CleanFlag,
	}
}

// rankAfter reports whether snapshot a outranks (dateTaken, fileID) pair b,
// the ordering used for cover selection. Later dates win; equal dates break
// ties toward the higher id, so the most recently inserted asset wins
// deterministically.
func (a *AssetSnapshot) rankAfter(dateTaken, fileID int64) bool {
	if a.DateTaken != dateTaken {
		return a.DateTaken > dateTaken
	}
	return a.FileID > fileID
}
