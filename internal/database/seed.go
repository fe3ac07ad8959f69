package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"photostore/internal/models"
)

// systemAlbumNames maps each predicate-backed album to its display name.
var systemAlbumNames = map[models.AlbumSubtype]string{
	models.SubtypeFavorite:        "Favorites",
	models.SubtypeVideo:           "Videos",
	models.SubtypeHidden:          "Hidden",
	models.SubtypeTrash:           "Recently Deleted",
	models.SubtypeScreenshotAlbum: "Screenshots",
	models.SubtypeCameraAlbum:     "Camera",
	models.SubtypeImage:           "Photos",
}

// SeedSystemAlbums creates the predicate-backed system albums once, at store
// init. Existing rows are left untouched so their aggregates survive restarts.
func SeedSystemAlbums(db *gorm.DB) error {
	for _, subtype := range models.SystemAlbumSubtypes {
		var count int64
		err := db.Model(&models.PhotoAlbum{}).
			Where("album_type = ? AND album_subtype = ?", models.AlbumTypeSystem, subtype).
			Count(&count).Error
		if err != nil {
			return errors.Wrapf(err, "failed to probe system album %d", subtype)
		}
		if count > 0 {
			continue
		}

		album := models.PhotoAlbum{
			AlbumType:    models.AlbumTypeSystem,
			AlbumSubtype: subtype,
			AlbumName:    systemAlbumNames[subtype],
			DateModified: time.Now().Unix(),
			Dirty:        models.DirtySynced,
		}
		if err := db.Create(&album).Error; err != nil {
			return errors.Wrapf(err, "failed to seed system album %d", subtype)
		}
	}

	return nil
}
