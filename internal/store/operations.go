package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"photostore/internal/models"
)

// AssetInput carries the caller-supplied fields of a new asset.
type AssetInput struct {
	Data        string
	Title       string
	DisplayName string
	Size        int64
	MediaType   models.MediaType
	Subtype     models.PhotoSubtype
	DateTaken   int64
	Duration    int32
	IsFavorite  bool
}

// dirtyBump marks rows cloud-dirty unless they are still unsynced or
// already flagged for deletion.
func dirtyBump() interface{} {
	return gorm.Expr("CASE WHEN dirty = ? THEN ? ELSE dirty END",
		models.DirtySynced, models.DirtyMdirty)
}

// markAssets emits one asset notification per captured record. Deletes use
// the before snapshot because the row may already be gone.
func markAssets(op *OpContext, fileIDs []int64, change ChangeType) {
	byID := make(map[int64]*ChangeRecord, len(fileIDs))
	for _, rec := range op.tracker.Records() {
		byID[rec.FileID] = rec
	}
	for _, id := range fileIDs {
		rec, ok := byID[id]
		if !ok {
			continue
		}
		snap := rec.After
		if change == ChangeDelete {
			snap = rec.Before
		}
		if snap == nil {
			continue
		}
		op.Changes.Mark(EntityAsset, id, BuildSnapshotURI(snap), change)
	}
}

// CreateAssets inserts new assets and returns their ids. New rows start
// cloud-dirty as new.
func (s *Store) CreateAssets(ctx context.Context, inputs []AssetInput) ([]int64, error) {
	if len(inputs) == 0 {
		return nil, ErrInputEmpty
	}

	var ids []int64
	err := s.runInTxn(ctx, func(op *OpContext) error {
		now := time.Now().Unix()
		for i := range inputs {
			in := &inputs[i]
			photo := models.Photo{
				Data:         in.Data,
				Title:        in.Title,
				DisplayName:  in.DisplayName,
				Size:         in.Size,
				MediaType:    in.MediaType,
				Subtype:      in.Subtype,
				DateAdded:    now,
				DateModified: now,
				DateTaken:    in.DateTaken,
				Duration:     in.Duration,
				IsFavorite:   in.IsFavorite,
				Dirty:        models.DirtyNew,
				Position:     models.PositionLocal,
			}
			if photo.DateTaken == 0 {
				photo.DateTaken = now
			}
			if err := op.DB.Create(&photo).Error; err != nil {
				return fmt.Errorf("%w: create asset: %v", ErrDB, err)
			}
			ids = append(ids, photo.FileID)
		}
		if err := op.CaptureAfter(ids); err != nil {
			return err
		}
		markAssets(op, ids, ChangeInsert)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateRows applies a validated column update to rows of a known table.
// Asset updates propagate through album aggregates; album updates only
// touch metadata, never the aggregate columns this engine owns.
func (s *Store) UpdateRows(ctx context.Context, table string, ids []int64, values map[string]interface{}) error {
	if err := ValidateTable(table); err != nil {
		return err
	}
	if len(ids) == 0 || len(values) == 0 {
		return ErrInputEmpty
	}

	switch table {
	case "Photos":
		return s.UpdateAssets(ctx, ids, values)
	case "PhotoAlbum":
		return s.updateAlbumRows(ctx, ids, values)
	default:
		// Map tables mutate through the membership operations only.
		return ErrInvalidTable
	}
}

// UpdateAssets applies column updates to assets and refreshes every album
// membership the change moved.
func (s *Store) UpdateAssets(ctx context.Context, fileIDs []int64, values map[string]interface{}) error {
	if len(fileIDs) == 0 || len(values) == 0 {
		return ErrInputEmpty
	}
	return s.runInTxn(ctx, func(op *OpContext) error {
		if err := op.CaptureBefore(fileIDs); err != nil {
			return err
		}

		updates := make(map[string]interface{}, len(values)+2)
		for col, val := range values {
			if col == "file_id" {
				continue
			}
			updates[col] = val
		}
		updates["date_modified"] = time.Now().Unix()
		updates["dirty"] = dirtyBump()

		err := op.DB.Model(&models.Photo{}).
			Where("file_id IN ?", fileIDs).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("%w: update assets: %v", ErrDB, err)
		}

		if err := op.CaptureAfter(fileIDs); err != nil {
			return err
		}
		markAssets(op, fileIDs, ChangeUpdate)
		return nil
	})
}

// TrashAssets moves assets to the trash. They leave every regular album
// and appear in the trash album.
func (s *Store) TrashAssets(ctx context.Context, fileIDs []int64) error {
	return s.UpdateAssets(ctx, fileIDs, map[string]interface{}{
		"date_trashed": time.Now().Unix(),
	})
}

// RestoreAssets brings trashed assets back into their albums.
func (s *Store) RestoreAssets(ctx context.Context, fileIDs []int64) error {
	return s.UpdateAssets(ctx, fileIDs, map[string]interface{}{
		"date_trashed": 0,
	})
}

// HideAssets toggles the hidden flag, moving the assets between the default
// and hidden views of every album they belong to.
func (s *Store) HideAssets(ctx context.Context, fileIDs []int64, hidden bool) error {
	return s.UpdateAssets(ctx, fileIDs, map[string]interface{}{
		"hidden": hidden,
	})
}

// FavoriteAssets toggles favorite membership.
func (s *Store) FavoriteAssets(ctx context.Context, fileIDs []int64, favorite bool) error {
	return s.UpdateAssets(ctx, fileIDs, map[string]interface{}{
		"is_favorite": favorite,
	})
}

// DeleteAssets logically deletes assets. The rows stay until the cloud
// acknowledges the deletion; from this moment they classify into no album.
func (s *Store) DeleteAssets(ctx context.Context, fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return ErrInputEmpty
	}
	return s.runInTxn(ctx, func(op *OpContext) error {
		if err := op.CaptureBefore(fileIDs); err != nil {
			return err
		}

		err := op.DB.Model(&models.Photo{}).
			Where("file_id IN ?", fileIDs).
			Updates(map[string]interface{}{
				"dirty":         models.DirtyDeleted,
				"date_modified": time.Now().Unix(),
			}).Error
		if err != nil {
			return fmt.Errorf("%w: delete assets: %v", ErrDB, err)
		}

		err = op.DB.Model(&models.PhotoMap{}).
			Where("map_asset IN ?", fileIDs).
			Update("dirty", models.DirtyDeleted).Error
		if err != nil {
			return fmt.Errorf("%w: flag album memberships deleted: %v", ErrDB, err)
		}
		err = op.DB.Model(&models.SourcePhotoMap{}).
			Where("map_asset IN ?", fileIDs).
			Update("dirty", models.DirtyDeleted).Error
		if err != nil {
			return fmt.Errorf("%w: flag source memberships deleted: %v", ErrDB, err)
		}

		if err := op.CaptureAfter(fileIDs); err != nil {
			return err
		}
		markAssets(op, fileIDs, ChangeDelete)
		return nil
	})
}

// PurgeAssets expires trash older than retention into logical deletes and
// physically removes rows whose deletion the cloud already has. Physically
// purged rows were invisible to every album, so only the expiry step moves
// aggregates.
func (s *Store) PurgeAssets(ctx context.Context, retention time.Duration) (int64, error) {
	var purged int64
	err := s.runInTxn(ctx, func(op *OpContext) error {
		cutoff := time.Now().Add(-retention).Unix()

		expired, err := op.CaptureBeforeWhere("date_trashed > 0 AND date_trashed < ? AND dirty <> ?", cutoff, models.DirtyDeleted)
		if err != nil {
			return err
		}
		if len(expired) > 0 {
			err = op.DB.Model(&models.Photo{}).
				Where("file_id IN ?", expired).
				Updates(map[string]interface{}{
					"dirty":         models.DirtyDeleted,
					"date_modified": time.Now().Unix(),
				}).Error
			if err != nil {
				return fmt.Errorf("%w: expire trashed assets: %v", ErrDB, err)
			}
			if err := op.CaptureAfter(expired); err != nil {
				return err
			}
			markAssets(op, expired, ChangeDelete)
		}

		var dead []int64
		err = op.DB.Model(&models.Photo{}).
			Where("dirty = ? AND clean_flag = ?", models.DirtyDeleted, models.CleanFlagNeedClean).
			Pluck("file_id", &dead).Error
		if err != nil {
			return fmt.Errorf("%w: list purgeable assets: %v", ErrDB, err)
		}
		if len(dead) == 0 {
			return nil
		}

		for _, model := range []interface{}{&models.PhotoMap{}, &models.SourcePhotoMap{}, &models.AnalysisPhotoMap{}} {
			if err := op.DB.Where("map_asset IN ?", dead).Delete(model).Error; err != nil {
				return fmt.Errorf("%w: purge memberships: %v", ErrDB, err)
			}
		}
		res := op.DB.Where("file_id IN ?", dead).Delete(&models.Photo{})
		if res.Error != nil {
			return fmt.Errorf("%w: purge assets: %v", ErrDB, res.Error)
		}
		purged = res.RowsAffected
		return nil
	})
	return purged, err
}

// CreateAlbum creates a user, source, or smart album. System albums are
// seeded at migration time and cannot be created here.
func (s *Store) CreateAlbum(ctx context.Context, name string, albumType models.AlbumType, subtype models.AlbumSubtype) (*models.PhotoAlbum, error) {
	if albumType == models.AlbumTypeSystem {
		return nil, fmt.Errorf("system albums are fixed and cannot be created")
	}
	if name == "" {
		return nil, ErrInputEmpty
	}

	album := &models.PhotoAlbum{
		AlbumType:    albumType,
		AlbumSubtype: subtype,
		AlbumName:    name,
		DateModified: time.Now().Unix(),
		Dirty:        models.DirtyNew,
	}
	err := s.runInTxn(ctx, func(op *OpContext) error {
		if err := op.DB.Create(album).Error; err != nil {
			return fmt.Errorf("%w: create album: %v", ErrDB, err)
		}
		op.Changes.Mark(EntityAlbum, int64(album.AlbumID), BuildAlbumURI(album.AlbumID), ChangeInsert)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return album, nil
}

// RenameAlbum changes an album's display name.
func (s *Store) RenameAlbum(ctx context.Context, albumID int32, name string) error {
	if name == "" {
		return ErrInputEmpty
	}
	return s.updateAlbumRows(ctx, []int64{int64(albumID)}, map[string]interface{}{
		"album_name": name,
	})
}

// updateAlbumRows applies metadata updates to album rows. Aggregate columns
// are stripped because only the refresh engine writes them.
func (s *Store) updateAlbumRows(ctx context.Context, albumIDs []int64, values map[string]interface{}) error {
	updates := make(map[string]interface{}, len(values)+2)
	for col, val := range values {
		switch col {
		case "album_id", "count", "cover_uri", "hidden_count", "hidden_cover",
			"contains_hidden", "image_count", "video_count":
			continue
		}
		updates[col] = val
	}
	if len(updates) == 0 {
		return ErrInputEmpty
	}
	updates["date_modified"] = time.Now().Unix()
	updates["dirty"] = dirtyBump()

	return s.runInTxn(ctx, func(op *OpContext) error {
		err := op.DB.Model(&models.PhotoAlbum{}).
			Where("album_id IN ?", albumIDs).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("%w: update albums: %v", ErrDB, err)
		}
		for _, id := range albumIDs {
			op.Changes.Mark(EntityAlbum, id, BuildAlbumURI(int32(id)), ChangeUpdate)
		}
		return nil
	})
}

// DeleteAlbum removes a non-system album and its membership rows. Member
// assets are untouched; their other albums keep their aggregates because
// nothing about the assets changed.
func (s *Store) DeleteAlbum(ctx context.Context, albumID int32) error {
	return s.runInTxn(ctx, func(op *OpContext) error {
		album, err := loadAlbum(op.DB, albumID)
		if err != nil {
			return err
		}
		if album.IsSystem() {
			return fmt.Errorf("system album %d cannot be deleted", albumID)
		}

		mapModel := membershipModel(album)
		if err := op.DB.Where("map_album = ?", albumID).Delete(mapModel).Error; err != nil {
			return fmt.Errorf("%w: delete album memberships: %v", ErrDB, err)
		}
		if err := op.DB.Where("album_id = ?", albumID).Delete(&models.PhotoAlbum{}).Error; err != nil {
			return fmt.Errorf("%w: delete album: %v", ErrDB, err)
		}
		op.Changes.Mark(EntityAlbum, int64(albumID), BuildAlbumURI(albumID), ChangeDelete)
		return nil
	})
}

// AddAssetsToAlbum adds assets to a user, source, or smart album. Existing
// memberships are left alone.
func (s *Store) AddAssetsToAlbum(ctx context.Context, albumID int32, fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return ErrInputEmpty
	}
	return s.runInTxn(ctx, func(op *OpContext) error {
		album, err := loadAlbum(op.DB, albumID)
		if err != nil {
			return err
		}
		if album.IsSystem() {
			return fmt.Errorf("system album %d membership is derived, not assignable", albumID)
		}
		if err := op.CaptureBefore(fileIDs); err != nil {
			return err
		}

		if err := insertMemberships(op.DB, album, fileIDs); err != nil {
			return err
		}
		return op.CaptureAfter(fileIDs)
	})
}

// RemoveAssetsFromAlbum removes assets from a user, source, or smart album.
func (s *Store) RemoveAssetsFromAlbum(ctx context.Context, albumID int32, fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return ErrInputEmpty
	}
	return s.runInTxn(ctx, func(op *OpContext) error {
		album, err := loadAlbum(op.DB, albumID)
		if err != nil {
			return err
		}
		if album.IsSystem() {
			return fmt.Errorf("system album %d membership is derived, not assignable", albumID)
		}
		if err := op.CaptureBefore(fileIDs); err != nil {
			return err
		}

		mapModel := membershipModel(album)
		err = op.DB.Where("map_album = ? AND map_asset IN ?", albumID, fileIDs).
			Delete(mapModel).Error
		if err != nil {
			return fmt.Errorf("%w: remove memberships: %v", ErrDB, err)
		}
		return op.CaptureAfter(fileIDs)
	})
}

// ReplaceAnalysisMembership rewrites a smart album's membership to exactly
// the supplied asset set. The analysis pipeline calls this after each run.
func (s *Store) ReplaceAnalysisMembership(ctx context.Context, albumID int32, fileIDs []int64) error {
	return s.runInTxn(ctx, func(op *OpContext) error {
		album, err := loadAlbum(op.DB, albumID)
		if err != nil {
			return err
		}
		if album.AlbumType != models.AlbumTypeSmart {
			return fmt.Errorf("album %d is not an analysis album", albumID)
		}

		var current []int64
		err = op.DB.Model(&models.AnalysisPhotoMap{}).
			Where("map_album = ?", albumID).
			Pluck("map_asset", &current).Error
		if err != nil {
			return fmt.Errorf("%w: load analysis memberships: %v", ErrDB, err)
		}

		touched := append(append([]int64{}, current...), fileIDs...)
		if err := op.CaptureBefore(touched); err != nil {
			return err
		}

		err = op.DB.Where("map_album = ?", albumID).Delete(&models.AnalysisPhotoMap{}).Error
		if err != nil {
			return fmt.Errorf("%w: clear analysis memberships: %v", ErrDB, err)
		}
		if err := insertMemberships(op.DB, album, fileIDs); err != nil {
			return err
		}
		if len(touched) == 0 {
			return nil
		}
		return op.CaptureAfter(touched)
	})
}

// RefreshAllAlbums recomputes every album from scratch inside one write
// transaction and tells listeners to reload. Used at startup and by the
// maintenance schedule.
func (s *Store) RefreshAllAlbums(ctx context.Context) error {
	txn, err := s.txns.Start(ctx, false)
	if err != nil {
		return err
	}
	defer txn.Release()

	engine := NewAggregateEngine(txn.DB(), s.logger, s.metrics)
	if err := engine.RefreshAllAlbums(); err != nil {
		return err
	}
	if err := txn.Finish(); err != nil {
		return err
	}

	cs := NewChangeSet()
	cs.MarkRecheck()
	s.notifier.Dispatch(ctx, cs)
	return nil
}

func loadAlbum(db *gorm.DB, albumID int32) (*models.PhotoAlbum, error) {
	var album models.PhotoAlbum
	if err := db.Where("album_id = ?", albumID).First(&album).Error; err != nil {
		return nil, fmt.Errorf("%w: load album %d: %v", ErrDB, albumID, err)
	}
	return &album, nil
}

// membershipModel picks the join table an album's memberships live in.
func membershipModel(album *models.PhotoAlbum) interface{} {
	switch album.AlbumType {
	case models.AlbumTypeSource:
		return &models.SourcePhotoMap{}
	case models.AlbumTypeSmart:
		return &models.AnalysisPhotoMap{}
	default:
		return &models.PhotoMap{}
	}
}

func insertMemberships(db *gorm.DB, album *models.PhotoAlbum, fileIDs []int64) error {
	insert := db.Clauses(clause.OnConflict{DoNothing: true})
	switch album.AlbumType {
	case models.AlbumTypeSource:
		rows := make([]models.SourcePhotoMap, 0, len(fileIDs))
		for _, id := range fileIDs {
			rows = append(rows, models.SourcePhotoMap{MapAlbum: album.AlbumID, MapAsset: id, Dirty: models.DirtyNew})
		}
		if len(rows) == 0 {
			return nil
		}
		if err := insert.Create(&rows).Error; err != nil {
			return fmt.Errorf("%w: insert source memberships: %v", ErrDB, err)
		}
	case models.AlbumTypeSmart:
		rows := make([]models.AnalysisPhotoMap, 0, len(fileIDs))
		for _, id := range fileIDs {
			rows = append(rows, models.AnalysisPhotoMap{MapAlbum: album.AlbumID, MapAsset: id})
		}
		if len(rows) == 0 {
			return nil
		}
		if err := insert.Create(&rows).Error; err != nil {
			return fmt.Errorf("%w: insert analysis memberships: %v", ErrDB, err)
		}
	default:
		rows := make([]models.PhotoMap, 0, len(fileIDs))
		for _, id := range fileIDs {
			rows = append(rows, models.PhotoMap{MapAlbum: album.AlbumID, MapAsset: id, Dirty: models.DirtyNew})
		}
		if len(rows) == 0 {
			return nil
		}
		if err := insert.Create(&rows).Error; err != nil {
			return fmt.Errorf("%w: insert memberships: %v", ErrDB, err)
		}
	}
	return nil
}
