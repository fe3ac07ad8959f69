package store

import (
	"context"
	"fmt"

	"photostore/internal/models"
	"photostore/internal/pagination"
)

const defaultPageSize = 50

// ListAlbums returns one page of albums ordered by manual order then id.
// Reads go straight to the pool; they never take the writer slot.
func (s *Store) ListAlbums(ctx context.Context, page, pageSize int) ([]models.PhotoAlbum, pagination.Metadata, error) {
	page, pageSize = pagination.Normalize(page, pageSize, defaultPageSize)

	q := s.db.WithContext(ctx).Model(&models.PhotoAlbum{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, pagination.Metadata{}, fmt.Errorf("%w: count albums: %v", ErrDB, err)
	}

	var albums []models.PhotoAlbum
	err := q.Order("album_order ASC, album_id ASC").
		Offset(pagination.CalculateOffset(page, pageSize)).
		Limit(pageSize).
		Find(&albums).Error
	if err != nil {
		return nil, pagination.Metadata{}, fmt.Errorf("%w: list albums: %v", ErrDB, err)
	}
	return albums, pagination.Calculate(total, page, pageSize), nil
}

// ListAlbumAssets returns one page of an album's members in the given view,
// newest first, using the same membership predicate the refresh engine
// counts with.
func (s *Store) ListAlbumAssets(ctx context.Context, albumID int32, view models.HiddenView, page, pageSize int) ([]models.Photo, pagination.Metadata, error) {
	page, pageSize = pagination.Normalize(page, pageSize, defaultPageSize)

	album, err := loadAlbum(s.db.WithContext(ctx), albumID)
	if err != nil {
		return nil, pagination.Metadata{}, err
	}
	pred := PredicateFor(album, view)

	q, err := pred.Apply(s.db.WithContext(ctx))
	if err != nil {
		return nil, pagination.Metadata{}, err
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, pagination.Metadata{}, fmt.Errorf("%w: count album members: %v", ErrDB, err)
	}

	q, err = pred.Apply(s.db.WithContext(ctx))
	if err != nil {
		return nil, pagination.Metadata{}, err
	}
	var photos []models.Photo
	err = q.Order("Photos.date_taken DESC, Photos.file_id DESC").
		Offset(pagination.CalculateOffset(page, pageSize)).
		Limit(pageSize).
		Find(&photos).Error
	if err != nil {
		return nil, pagination.Metadata{}, fmt.Errorf("%w: list album members: %v", ErrDB, err)
	}
	return photos, pagination.Calculate(total, page, pageSize), nil
}
