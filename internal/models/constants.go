package models

// MediaType classifies the payload of a Photo row.
type MediaType int32

const (
	MediaTypeDefault MediaType = 0
	MediaTypeFile    MediaType = 1
	MediaTypeImage   MediaType = 2
	MediaTypeVideo   MediaType = 3
	MediaTypeAudio   MediaType = 4
)

// PhotoSubtype refines MediaType for capture-source albums.
type PhotoSubtype int32

const (
	SubtypeDefault     PhotoSubtype = 0
	SubtypeScreenshot  PhotoSubtype = 1
	SubtypeCamera      PhotoSubtype = 2
	SubtypeMovingPhoto PhotoSubtype = 3
	SubtypeBurst       PhotoSubtype = 4
)

// AlbumType partitions albums by how membership is decided.
type AlbumType int32

const (
	AlbumTypeUser   AlbumType = 0
	AlbumTypeSystem AlbumType = 1024
	AlbumTypeSource AlbumType = 2048
	AlbumTypeSmart  AlbumType = 4096
)

// AlbumSubtype identifies a concrete album flavor within its type.
type AlbumSubtype int32

const (
	SubtypeUserGeneric AlbumSubtype = 1

	SubtypeFavorite        AlbumSubtype = 1025
	SubtypeVideo           AlbumSubtype = 1026
	SubtypeHidden          AlbumSubtype = 1027
	SubtypeTrash           AlbumSubtype = 1028
	SubtypeScreenshotAlbum AlbumSubtype = 1029
	SubtypeCameraAlbum     AlbumSubtype = 1030
	SubtypeImage           AlbumSubtype = 1031

	SubtypeSourceGeneric AlbumSubtype = 2049

	SubtypeShootingMode AlbumSubtype = 4097
	SubtypePortrait     AlbumSubtype = 4102
	SubtypeHighlight    AlbumSubtype = 4104
)

// SystemAlbumSubtypes lists every predicate-backed album seeded at store init.
var SystemAlbumSubtypes = []AlbumSubtype{
	SubtypeFavorite,
	SubtypeVideo,
	SubtypeHidden,
	SubtypeTrash,
	SubtypeScreenshotAlbum,
	SubtypeCameraAlbum,
	SubtypeImage,
}

// DirtyType is the per-row cloud sync state, distinct from visibility flags.
type DirtyType int32

const (
	DirtySynced  DirtyType = 0
	DirtyNew     DirtyType = 1
	DirtyMdirty  DirtyType = 2
	DirtySdirty  DirtyType = 3
	DirtyDeleted DirtyType = 4
)

// SyncStatus gates whether a row is visible to local queries while syncing.
type SyncStatus int32

const (
	SyncStatusVisible     SyncStatus = 0
	SyncStatusDownloading SyncStatus = 1
	SyncStatusUploading   SyncStatus = 2
)

// CleanFlag marks rows scheduled for physical removal.
type CleanFlag int32

const (
	CleanFlagNotClean  CleanFlag = 0
	CleanFlagNeedClean CleanFlag = 1
)

// HiddenView selects which of the two parallel aggregate states an album
// query addresses.
type HiddenView int32

const (
	ViewDefault HiddenView = 0
	ViewHidden  HiddenView = 1
)

// Position records where the asset payload currently lives.
type Position int32

const (
	PositionLocal Position = 1
	PositionCloud Position = 2
	PositionBoth  Position = 3
)
