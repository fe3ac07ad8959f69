package store

import (
	"github.com/rs/zerolog"

	"photostore/internal/models"
)

// AlbumKey identifies one album for classification and delta bookkeeping.
// System albums are identified by subtype alone (AlbumID zero); join-backed
// albums carry their row id.
type AlbumKey struct {
	Type    models.AlbumType
	Subtype models.AlbumSubtype
	AlbumID int32
}

// AlbumSet is the set of album identities one asset belongs to.
type AlbumSet map[AlbumKey]struct{}

func (s AlbumSet) add(key AlbumKey) {
	s[key] = struct{}{}
}

// Classifier decides album membership from asset state alone. It is a pure
// function over snapshots; it performs no queries.
type Classifier struct {
	logger *zerolog.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(logger *zerolog.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// knownSubtypes guards the graceful-degradation path for subtype-matched
// system albums.
var knownSubtypes = map[models.PhotoSubtype]bool{
	models.SubtypeDefault:     true,
	models.SubtypeScreenshot:  true,
	models.SubtypeCamera:      true,
	models.SubtypeMovingPhoto: true,
	models.SubtypeBurst:       true,
}

// visibleCommon is the common "visible system asset" predicate for the given
// hidden view: not cleaned, sync-visible, not logically deleted, not pending,
// not trashed, and hidden state matching the view.
func visibleCommon(s *AssetSnapshot, view models.HiddenView) bool {
	if s.CleanFlag != models.CleanFlagNotClean {
		return false
	}
	if s.SyncStatus != models.SyncStatusVisible {
		return false
	}
	if s.Dirty == models.DirtyDeleted {
		return false
	}
	if s.TimePending != 0 {
		return false
	}
	if s.DateTrashed != 0 {
		return false
	}
	return s.Hidden == (view == models.ViewHidden)
}

// AffectedAlbums returns the set of albums the asset belongs to in the given
// hidden view. The HIDDEN and TRASH albums are view-independent and are
// reported only in the default-view pass so a batch never counts them twice.
func (c *Classifier) AffectedAlbums(s *AssetSnapshot, view models.HiddenView) AlbumSet {
	set := make(AlbumSet)
	if s == nil {
		return set
	}

	common := visibleCommon(s, view)

	if common && s.IsFavorite {
		set.add(AlbumKey{Type: models.AlbumTypeSystem, Subtype: models.SubtypeFavorite})
	}
	if common && s.MediaType == models.MediaTypeVideo {
		set.add(AlbumKey{Type: models.AlbumTypeSystem, Subtype: models.SubtypeVideo})
	}
	if common && s.MediaType == models.MediaTypeImage {
		set.add(AlbumKey{Type: models.AlbumTypeSystem, Subtype: models.SubtypeImage})
	}

	if common {
		switch s.Subtype {
		case models.SubtypeScreenshot:
			set.add(AlbumKey{Type: models.AlbumTypeSystem, Subtype: models.SubtypeScreenshotAlbum})
		case models.SubtypeCamera:
			set.add(AlbumKey{Type: models.AlbumTypeSystem, Subtype: models.SubtypeCameraAlbum})
		default:
			if !knownSubtypes[s.Subtype] && c.logger != nil {
				// Unrecognized subtype classifies to no album. Intentional
				// graceful degradation, not a classification failure.
				c.logger.Debug().
					Int64("file_id", s.FileID).
					Int32("subtype", int32(s.Subtype)).
					Msg("Unrecognized photo subtype, no subtype album membership")
			}
		}
	}

	if view == models.ViewDefault {
		// HIDDEN: hidden view is implicit; clean/sync/pending/trash checks only.
		if s.Hidden &&
			s.CleanFlag == models.CleanFlagNotClean &&
			s.SyncStatus == models.SyncStatusVisible &&
			s.Dirty != models.DirtyDeleted &&
			s.TimePending == 0 &&
			s.DateTrashed == 0 {
			set.add(AlbumKey{Type: models.AlbumTypeSystem, Subtype: models.SubtypeHidden})
		}

		// TRASH: ignores hidden and pending state.
		if s.DateTrashed > 0 &&
			s.CleanFlag == models.CleanFlagNotClean &&
			s.SyncStatus == models.SyncStatusVisible &&
			s.Dirty != models.DirtyDeleted {
			set.add(AlbumKey{Type: models.AlbumTypeSystem, Subtype: models.SubtypeTrash})
		}
	}

	if common {
		for _, albumID := range s.UserAlbums {
			set.add(AlbumKey{Type: models.AlbumTypeUser, Subtype: models.SubtypeUserGeneric, AlbumID: albumID})
		}
		for _, albumID := range s.SourceAlbums {
			set.add(AlbumKey{Type: models.AlbumTypeSource, Subtype: models.SubtypeSourceGeneric, AlbumID: albumID})
		}
	}

	// Analysis membership has no dirty/clean gate: it is independent of
	// cloud sync state. The concrete smart subtype lives on the album row,
	// so the key carries the id alone.
	if s.DateTrashed == 0 && s.TimePending == 0 && s.Hidden == (view == models.ViewHidden) {
		for _, albumID := range s.AnalysisAlbums {
			set.add(AlbumKey{Type: models.AlbumTypeSmart, AlbumID: albumID})
		}
	}

	return set
}
