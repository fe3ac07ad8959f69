package store

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"photostore/internal/models"
)

// URI prefixes for first-class store entities. Cover URIs use the same
// formation rule as live asset URIs, so the cover of an album resolves
// through the ordinary asset lookup path.
const (
	PhotoURIPrefix = "file://media/Photo"
	AlbumURIPrefix = "file://media/PhotoAlbum"
)

// assetExtra derives the percent-encoded extra path segment of an asset URI
// from the containing folder name and the display title (the display name
// with its extension stripped).
func assetExtra(data, displayName string) string {
	folder := path.Base(path.Dir(data))
	if folder == "." || folder == "/" {
		folder = ""
	}
	title := strings.TrimSuffix(displayName, path.Ext(displayName))

	if folder == "" {
		return url.PathEscape(title)
	}
	return url.PathEscape(folder) + "/" + url.PathEscape(title)
}

// BuildAssetURI builds the canonical URI for a photo row.
func BuildAssetURI(p *models.Photo) string {
	return fmt.Sprintf("%s/%d/%s", PhotoURIPrefix, p.FileID, assetExtra(p.Data, p.DisplayName))
}

// BuildSnapshotURI builds the canonical URI from a captured snapshot, for
// rows that may no longer exist.
func BuildSnapshotURI(s *AssetSnapshot) string {
	return fmt.Sprintf("%s/%d/%s", PhotoURIPrefix, s.FileID, assetExtra(s.Data, s.DisplayName))
}

// BuildAlbumURI builds the canonical URI for an album row.
func BuildAlbumURI(albumID int32) string {
	return fmt.Sprintf("%s/%d", AlbumURIPrefix, albumID)
}

// ParseAssetID extracts the numeric file id from an asset URI. It returns
// false for empty or foreign URIs.
func ParseAssetID(uri string) (int64, bool) {
	if !strings.HasPrefix(uri, PhotoURIPrefix+"/") {
		return 0, false
	}
	rest := strings.TrimPrefix(uri, PhotoURIPrefix+"/")
	idPart, _, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
