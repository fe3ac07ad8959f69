package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Photo represents the Photos table, one row per media asset.
type Photo struct {
	FileID       int64        `gorm:"column:file_id;primaryKey;autoIncrement" json:"file_id"`
	Data         string       `gorm:"column:data;not null" json:"data"` // absolute storage path
	Size         int64        `gorm:"column:size;default:0" json:"size"`
	Title        string       `gorm:"column:title;size:255" json:"title"`
	DisplayName  string       `gorm:"column:display_name;size:255;not null" json:"display_name"`
	MediaType    MediaType    `gorm:"column:media_type;not null;index:idx_photos_media_type" json:"media_type"`
	Subtype      PhotoSubtype `gorm:"column:subtype;default:0" json:"subtype"`
	DateAdded    int64        `gorm:"column:date_added;default:0;index:idx_photos_date_added" json:"date_added"`
	DateModified int64        `gorm:"column:date_modified;default:0" json:"date_modified"`
	DateTaken    int64        `gorm:"column:date_taken;default:0;index:idx_photos_date_taken" json:"date_taken"`
	Duration     int32        `gorm:"column:duration;default:0" json:"duration"` // milliseconds, video/audio only
	IsFavorite   bool         `gorm:"column:is_favorite;default:false;index:idx_photos_favorite" json:"is_favorite"`
	DateTrashed  int64        `gorm:"column:date_trashed;default:0;index:idx_photos_trashed" json:"date_trashed"`
	Hidden       bool         `gorm:"column:hidden;default:false;index:idx_photos_hidden" json:"hidden"`
	TimePending  int64        `gorm:"column:time_pending;default:0" json:"time_pending"`
	Dirty        DirtyType    `gorm:"column:dirty" json:"dirty"`
	SyncStatus   SyncStatus   `gorm:"column:sync_status;default:0" json:"sync_status"`
	CleanFlag    CleanFlag    `gorm:"column:clean_flag;default:0" json:"clean_flag"`
	Position     Position     `gorm:"column:position;default:1" json:"position"`
	CloudID      string       `gorm:"column:cloud_id;size:255" json:"cloud_id"`
}

func (Photo) TableName() string {
	return "Photos"
}

// BeforeCreate stamps a cloud identity on brand-new rows so the sync layer
// can correlate them before the first upload.
func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.CloudID == "" {
		p.CloudID = uuid.NewString()
	}
	return nil
}

// PhotoAlbum represents the PhotoAlbum table. Aggregate columns (counts and
// covers, in both views) are owned by the refresh engine and must not be
// written by client operations.
type PhotoAlbum struct {
	AlbumID        int32        `gorm:"column:album_id;primaryKey;autoIncrement" json:"album_id"`
	AlbumType      AlbumType    `gorm:"column:album_type;not null;index:idx_album_type_subtype" json:"album_type"`
	AlbumSubtype   AlbumSubtype `gorm:"column:album_subtype;not null;index:idx_album_type_subtype" json:"album_subtype"`
	AlbumName      string       `gorm:"column:album_name;size:255" json:"album_name"`
	CoverURI       string       `gorm:"column:cover_uri" json:"cover_uri"`
	Count          int32        `gorm:"column:count;default:0" json:"count"`
	DateModified   int64        `gorm:"column:date_modified;default:0" json:"date_modified"`
	Dirty          DirtyType    `gorm:"column:dirty" json:"dirty"`
	CloudID        string       `gorm:"column:cloud_id;size:255" json:"cloud_id"`
	ContainsHidden bool         `gorm:"column:contains_hidden;default:false" json:"contains_hidden"`
	HiddenCount    int32        `gorm:"column:hidden_count;default:0" json:"hidden_count"`
	HiddenCover    string       `gorm:"column:hidden_cover" json:"hidden_cover"`
	ImageCount     int32        `gorm:"column:image_count;default:0" json:"image_count"`
	VideoCount     int32        `gorm:"column:video_count;default:0" json:"video_count"`
	AlbumOrder     int32        `gorm:"column:album_order;default:0" json:"album_order"`
}

func (PhotoAlbum) TableName() string {
	return "PhotoAlbum"
}

func (a *PhotoAlbum) BeforeCreate(tx *gorm.DB) error {
	if a.CloudID == "" {
		a.CloudID = uuid.NewString()
	}
	return nil
}

// IsSystem reports whether membership is decided purely by predicate, with
// no join rows.
func (a *PhotoAlbum) IsSystem() bool {
	return a.AlbumType == AlbumTypeSystem
}

// PhotoMap is the user-album membership join table.
type PhotoMap struct {
	MapAlbum int32     `gorm:"column:map_album;primaryKey" json:"map_album"`
	MapAsset int64     `gorm:"column:map_asset;primaryKey" json:"map_asset"`
	Dirty    DirtyType `gorm:"column:dirty" json:"dirty"`
}

func (PhotoMap) TableName() string {
	return "PhotoMap"
}

// AnalysisPhotoMap records membership produced by on-device content analysis
// (portrait grouping, shooting mode, highlights). It carries no dirty state:
// analysis membership is independent of cloud sync.
type AnalysisPhotoMap struct {
	MapAlbum int32 `gorm:"column:map_album;primaryKey" json:"map_album"`
	MapAsset int64 `gorm:"column:map_asset;primaryKey" json:"map_asset"`
}

func (AnalysisPhotoMap) TableName() string {
	return "AnalysisPhotoMap"
}

// SourcePhotoMap records membership in source (originating-app) albums.
type SourcePhotoMap struct {
	MapAlbum int32     `gorm:"column:map_album;primaryKey" json:"map_album"`
	MapAsset int64     `gorm:"column:map_asset;primaryKey" json:"map_asset"`
	Dirty    DirtyType `gorm:"column:dirty" json:"dirty"`
}

func (SourcePhotoMap) TableName() string {
	return "SourcePhotoMap"
}
