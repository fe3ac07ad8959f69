package test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"photostore/internal/database"
	"photostore/internal/models"
)

// GetTestDB opens a private in-memory media store with the full schema,
// triggers, and seeded system albums.
func GetTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	// A named shared in-memory database keeps every pooled connection on
	// the same schema.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	migrator := database.NewMigrationManager(db, nil)
	require.NoError(t, migrator.Migrate())

	tearDown := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return db, tearDown
}

// SystemAlbum loads a seeded system album row by subtype.
func SystemAlbum(t *testing.T, db *gorm.DB, subtype models.AlbumSubtype) *models.PhotoAlbum {
	t.Helper()
	var album models.PhotoAlbum
	err := db.Where("album_type = ? AND album_subtype = ?", models.AlbumTypeSystem, subtype).
		First(&album).Error
	require.NoError(t, err)
	return &album
}

// CreateTestAsset inserts one visible image asset and returns it. Mutators
// tweak fields before the insert.
func CreateTestAsset(t *testing.T, db *gorm.DB, mutators ...func(*models.Photo)) *models.Photo {
	t.Helper()
	now := time.Now().Unix()
	photo := &models.Photo{
		Data:         "/storage/emulated/0/DCIM/Camera/test.jpg",
		Title:        "test",
		DisplayName:  "test.jpg",
		MediaType:    models.MediaTypeImage,
		DateAdded:    now,
		DateModified: now,
		DateTaken:    now,
		Dirty:        models.DirtySynced,
		Position:     models.PositionLocal,
	}
	for _, mutate := range mutators {
		mutate(photo)
	}
	require.NoError(t, db.Create(photo).Error)
	return photo
}

// CreateTestAlbum inserts a user album.
func CreateTestAlbum(t *testing.T, db *gorm.DB, name string) *models.PhotoAlbum {
	t.Helper()
	album := &models.PhotoAlbum{
		AlbumType:    models.AlbumTypeUser,
		AlbumSubtype: models.SubtypeUserGeneric,
		AlbumName:    name,
		DateModified: time.Now().Unix(),
		Dirty:        models.DirtySynced,
	}
	require.NoError(t, db.Create(album).Error)
	return album
}
