package store

import (
	"fmt"

	"gorm.io/gorm"

	"photostore/internal/models"
)

// ChangeRecord is the ephemeral before/after snapshot pair for one asset in
// one mutation batch. A nil Before is an insert; a nil After is a physical
// delete.
type ChangeRecord struct {
	FileID int64
	Before *AssetSnapshot
	After  *AssetSnapshot
}

// ChangeDataManager captures before/after snapshots of the assets a mutation
// touches and tracks whether the batch is small enough for incremental
// refresh. It reads through the active transaction and never writes.
type ChangeDataManager struct {
	db        *gorm.DB
	threshold int
	records   map[int64]*ChangeRecord
	order     []int64
}

// NewChangeDataManager creates a change-data manager bound to the active
// transaction.
func NewChangeDataManager(db *gorm.DB, threshold int) *ChangeDataManager {
	return &ChangeDataManager{
		db:        db,
		threshold: threshold,
		records:   make(map[int64]*ChangeRecord),
	}
}

// CaptureBefore snapshots the pre-mutation state of the given assets. The
// first capture of an id wins, so repeated mutations of one asset within a
// batch keep the true original state.
func (m *ChangeDataManager) CaptureBefore(fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return nil
	}

	snaps, err := m.loadSnapshots(fileIDs)
	if err != nil {
		return fmt.Errorf("%w: capture before-snapshot: %v", ErrDB, err)
	}

	for _, id := range fileIDs {
		if _, exists := m.records[id]; exists {
			continue
		}
		m.records[id] = &ChangeRecord{FileID: id, Before: snaps[id]}
		m.order = append(m.order, id)
	}
	return nil
}

// CaptureBeforeWhere snapshots every asset matching the condition and
// returns the captured ids so the caller can apply the write to exactly that
// set.
func (m *ChangeDataManager) CaptureBeforeWhere(cond string, args ...interface{}) ([]int64, error) {
	var ids []int64
	err := m.db.Model(&models.Photo{}).Where(cond, args...).Pluck("file_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("%w: resolve mutation set: %v", ErrDB, err)
	}
	if err := m.CaptureBefore(ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// CaptureAfter snapshots the post-mutation state of the given assets,
// completing their change records. Assets with no surviving row get a nil
// after-snapshot.
func (m *ChangeDataManager) CaptureAfter(fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return nil
	}

	snaps, err := m.loadSnapshots(fileIDs)
	if err != nil {
		return fmt.Errorf("%w: capture after-snapshot: %v", ErrDB, err)
	}

	for _, id := range fileIDs {
		rec, exists := m.records[id]
		if !exists {
			rec = &ChangeRecord{FileID: id}
			m.records[id] = rec
			m.order = append(m.order, id)
		}
		rec.After = snaps[id]
	}
	return nil
}

// loadSnapshots reads asset rows and their explicit memberships in bulk.
func (m *ChangeDataManager) loadSnapshots(fileIDs []int64) (map[int64]*AssetSnapshot, error) {
	var photos []models.Photo
	if err := m.db.Where("file_id IN ?", fileIDs).Find(&photos).Error; err != nil {
		return nil, err
	}

	snaps := make(map[int64]*AssetSnapshot, len(photos))
	for i := range photos {
		snaps[photos[i].FileID] = SnapshotFromPhoto(&photos[i])
	}
	if len(snaps) == 0 {
		return snaps, nil
	}

	var userRows []models.PhotoMap
	if err := m.db.Where("map_asset IN ? AND dirty != ?", fileIDs, models.DirtyDeleted).Find(&userRows).Error; err != nil {
		return nil, err
	}
	for _, row := range userRows {
		if s, ok := snaps[row.MapAsset]; ok {
			s.UserAlbums = append(s.UserAlbums, row.MapAlbum)
		}
	}

	var sourceRows []models.SourcePhotoMap
	if err := m.db.Where("map_asset IN ? AND dirty != ?", fileIDs, models.DirtyDeleted).Find(&sourceRows).Error; err != nil {
		return nil, err
	}
	for _, row := range sourceRows {
		if s, ok := snaps[row.MapAsset]; ok {
			s.SourceAlbums = append(s.SourceAlbums, row.MapAlbum)
		}
	}

	var analysisRows []models.AnalysisPhotoMap
	if err := m.db.Where("map_asset IN ?", fileIDs).Find(&analysisRows).Error; err != nil {
		return nil, err
	}
	for _, row := range analysisRows {
		if s, ok := snaps[row.MapAsset]; ok {
			s.AnalysisAlbums = append(s.AnalysisAlbums, row.MapAlbum)
		}
	}

	return snaps, nil
}

// CheckIsExceed reports whether the batch has touched more distinct assets
// than the incremental threshold, signaling callers to fall back to
// full-corpus recompute.
func (m *ChangeDataManager) CheckIsExceed() bool {
	return len(m.records) > m.threshold
}

// Threshold returns the configured incremental limit.
func (m *ChangeDataManager) Threshold() int {
	return m.threshold
}

// TouchedCount returns the number of distinct assets captured so far.
func (m *ChangeDataManager) TouchedCount() int {
	return len(m.records)
}

// Records returns the change records in capture order.
func (m *ChangeDataManager) Records() []*ChangeRecord {
	out := make([]*ChangeRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out
}
