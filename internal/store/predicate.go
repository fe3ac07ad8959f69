package store

import (
	"fmt"

	"gorm.io/gorm"

	"photostore/internal/models"
)

// AlbumPredicate is the tagged-variant membership predicate for one album in
// one hidden view. Every variant compiles to a parameterized query through
// the single Apply interpreter; no subtype owns its own SQL string building.
type AlbumPredicate struct {
	Subtype   models.AlbumSubtype
	AlbumID   int32             // join-backed albums only
	View      models.HiddenView // ignored by HIDDEN and TRASH
	MediaType models.MediaType  // optional narrowing for sub-counts, zero means none
}

// PredicateFor builds the predicate matching an album row in the given view.
func PredicateFor(album *models.PhotoAlbum, view models.HiddenView) AlbumPredicate {
	return AlbumPredicate{
		Subtype: album.AlbumSubtype,
		AlbumID: album.AlbumID,
		View:    view,
	}
}

// WithMediaType returns a copy narrowed to one media type, used for the
// image/video sub-count queries.
func (p AlbumPredicate) WithMediaType(mt models.MediaType) AlbumPredicate {
	p.MediaType = mt
	return p
}

// applyCommon attaches the common "visible system asset" clauses for the
// predicate's view.
func (p AlbumPredicate) applyCommon(q *gorm.DB) *gorm.DB {
	return q.
		Where("Photos.clean_flag = ?", models.CleanFlagNotClean).
		Where("Photos.sync_status = ?", models.SyncStatusVisible).
		Where("Photos.dirty != ?", models.DirtyDeleted).
		Where("Photos.time_pending = 0").
		Where("Photos.date_trashed = 0").
		Where("Photos.hidden = ?", p.View == models.ViewHidden)
}

// Apply compiles the predicate onto a Photos query. Unknown subtypes are
// rejected before touching the store.
func (p AlbumPredicate) Apply(db *gorm.DB) (*gorm.DB, error) {
	q := db.Model(&models.Photo{})

	switch p.Subtype {
	case models.SubtypeFavorite:
		q = p.applyCommon(q).Where("Photos.is_favorite = ?", true)

	case models.SubtypeVideo:
		q = p.applyCommon(q).Where("Photos.media_type = ?", models.MediaTypeVideo)

	case models.SubtypeImage:
		q = p.applyCommon(q).Where("Photos.media_type = ?", models.MediaTypeImage)

	case models.SubtypeScreenshotAlbum:
		q = p.applyCommon(q).Where("Photos.subtype = ?", models.SubtypeScreenshot)

	case models.SubtypeCameraAlbum:
		q = p.applyCommon(q).Where("Photos.subtype = ?", models.SubtypeCamera)

	case models.SubtypeHidden:
		q = q.
			Where("Photos.hidden = ?", true).
			Where("Photos.clean_flag = ?", models.CleanFlagNotClean).
			Where("Photos.sync_status = ?", models.SyncStatusVisible).
			Where("Photos.dirty != ?", models.DirtyDeleted).
			Where("Photos.time_pending = 0").
			Where("Photos.date_trashed = 0")

	case models.SubtypeTrash:
		q = q.
			Where("Photos.date_trashed > 0").
			Where("Photos.clean_flag = ?", models.CleanFlagNotClean).
			Where("Photos.sync_status = ?", models.SyncStatusVisible).
			Where("Photos.dirty != ?", models.DirtyDeleted)

	case models.SubtypeUserGeneric:
		q = p.applyCommon(q).
			Joins("JOIN PhotoMap ON PhotoMap.map_asset = Photos.file_id").
			Where("PhotoMap.map_album = ?", p.AlbumID).
			Where("PhotoMap.dirty != ?", models.DirtyDeleted)

	case models.SubtypeSourceGeneric:
		q = p.applyCommon(q).
			Joins("JOIN SourcePhotoMap ON SourcePhotoMap.map_asset = Photos.file_id").
			Where("SourcePhotoMap.map_album = ?", p.AlbumID).
			Where("SourcePhotoMap.dirty != ?", models.DirtyDeleted)

	case models.SubtypePortrait, models.SubtypeShootingMode, models.SubtypeHighlight:
		// Analysis membership ignores dirty/clean state.
		q = q.
			Joins("JOIN AnalysisPhotoMap ON AnalysisPhotoMap.map_asset = Photos.file_id").
			Where("AnalysisPhotoMap.map_album = ?", p.AlbumID).
			Where("Photos.date_trashed = 0").
			Where("Photos.time_pending = 0").
			Where("Photos.hidden = ?", p.View == models.ViewHidden)

	default:
		return nil, fmt.Errorf("album subtype %d has no membership predicate", p.Subtype)
	}

	if p.MediaType != models.MediaTypeDefault {
		q = q.Where("Photos.media_type = ?", p.MediaType)
	}

	return q, nil
}
