package database

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"photostore/internal/logging"
	"photostore/internal/models"
)

// MigrationManager manages database migrations
type MigrationManager struct {
	db     *gorm.DB
	logger *zerolog.Logger
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger *zerolog.Logger) *MigrationManager {
	return &MigrationManager{
		db:     db,
		logger: logger,
	}
}

// Migrate runs database migrations
func (m *MigrationManager) Migrate() error {
	if err := m.migrateTables(); err != nil {
		return errors.Wrap(err, "failed to migrate tables")
	}

	if err := m.createTriggers(); err != nil {
		return errors.Wrap(err, "failed to create triggers")
	}

	if err := SeedSystemAlbums(m.db); err != nil {
		return errors.Wrap(err, "failed to seed system albums")
	}

	if m.logger != nil {
		m.logger.Info().Msg("Database migrations completed successfully")
	}
	return nil
}

// migrateTables handles migration of all tables via GORM
func (m *MigrationManager) migrateTables() error {
	if err := m.db.AutoMigrate(
		&models.Photo{},
		&models.PhotoAlbum{},
		&models.PhotoMap{},
		&models.AnalysisPhotoMap{},
		&models.SourcePhotoMap{},
		&logging.LogEntry{},
	); err != nil {
		return errors.Wrap(err, "failed to auto-migrate tables")
	}

	return nil
}

// createTriggers installs the declarative triggers that mark albums dirty
// when membership rows change. Counts and covers are never touched here:
// the refresh engine is the single authority for aggregate maintenance, so
// these triggers only flip sync state and can never double-apply a delta.
func (m *MigrationManager) createTriggers() error {
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS photo_map_insert_album_dirty
		 AFTER INSERT ON PhotoMap
		 BEGIN
		   UPDATE PhotoAlbum SET dirty = 2, date_modified = strftime('%s','now')
		   WHERE album_id = NEW.map_album AND dirty != 1;
		 END;`,
		`CREATE TRIGGER IF NOT EXISTS photo_map_delete_album_dirty
		 AFTER DELETE ON PhotoMap
		 BEGIN
		   UPDATE PhotoAlbum SET dirty = 2, date_modified = strftime('%s','now')
		   WHERE album_id = OLD.map_album AND dirty != 1;
		 END;`,
		`CREATE TRIGGER IF NOT EXISTS source_map_insert_album_dirty
		 AFTER INSERT ON SourcePhotoMap
		 BEGIN
		   UPDATE PhotoAlbum SET dirty = 2, date_modified = strftime('%s','now')
		   WHERE album_id = NEW.map_album AND dirty != 1;
		 END;`,
	}

	for _, trigger := range triggers {
		if err := m.db.Exec(trigger).Error; err != nil {
			return errors.Wrap(err, "failed to create trigger")
		}
	}

	return nil
}
