package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"photostore/internal/models"
)

func TestBuildAssetURI(t *testing.T) {
	p := &models.Photo{
		FileID:      42,
		Data:        "/storage/emulated/0/DCIM/Camera/IMG_0042.jpg",
		DisplayName: "IMG_0042.jpg",
	}
	assert.Equal(t, "file://media/Photo/42/Camera/IMG_0042", BuildAssetURI(p))
}

func TestBuildAssetURIEscapesSegments(t *testing.T) {
	p := &models.Photo{
		FileID:      7,
		Data:        "/storage/emulated/0/Pictures/My Trip/beach day.jpg",
		DisplayName: "beach day.jpg",
	}
	assert.Equal(t, "file://media/Photo/7/My%20Trip/beach%20day", BuildAssetURI(p))
}

func TestBuildAssetURINoFolder(t *testing.T) {
	p := &models.Photo{
		FileID:      3,
		Data:        "/note.png",
		DisplayName: "note.png",
	}
	assert.Equal(t, "file://media/Photo/3/note", BuildAssetURI(p))
}

func TestBuildAlbumURI(t *testing.T) {
	assert.Equal(t, "file://media/PhotoAlbum/9", BuildAlbumURI(9))
}

func TestParseAssetID(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		id   int64
		ok   bool
	}{
		{"asset uri", "file://media/Photo/42/Camera/IMG_0042", 42, true},
		{"no extra segment", "file://media/Photo/5", 5, true},
		{"album uri", "file://media/PhotoAlbum/42", 0, false},
		{"empty", "", 0, false},
		{"non numeric", "file://media/Photo/abc/x", 0, false},
		{"zero id", "file://media/Photo/0/x", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseAssetID(tt.uri)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestSnapshotURIMatchesAssetURI(t *testing.T) {
	p := &models.Photo{
		FileID:      11,
		Data:        "/storage/emulated/0/DCIM/Camera/clip.mp4",
		DisplayName: "clip.mp4",
	}
	assert.Equal(t, BuildAssetURI(p), BuildSnapshotURI(SnapshotFromPhoto(p)))
}
