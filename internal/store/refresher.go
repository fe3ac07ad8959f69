package store

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"photostore/internal/logging"
	"photostore/internal/metrics"
	"photostore/internal/models"
)

// AlbumRefresher turns the change records of one write transaction into
// album aggregate updates. Small batches are classified and applied as
// signed deltas; a batch past the tracking threshold falls back to a full
// recompute of every album and a coarse recheck notification.
type AlbumRefresher struct {
	db         *gorm.DB
	classifier *Classifier
	engine     *AggregateEngine
	logger     *zerolog.Logger
	metrics    *metrics.Metrics
}

// NewAlbumRefresher creates a refresher bound to the active transaction.
func NewAlbumRefresher(db *gorm.DB, logger *zerolog.Logger, m *metrics.Metrics) *AlbumRefresher {
	return &AlbumRefresher{
		db:         db,
		classifier: NewClassifier(logger),
		engine:     NewAggregateEngine(db, logger, m),
		logger:     logger,
		metrics:    m,
	}
}

// Engine exposes the aggregate engine for full recomputes outside the
// change-record path.
func (r *AlbumRefresher) Engine() *AggregateEngine {
	return r.engine
}

// RefreshForChanges reconciles every album touched by the captured changes
// and marks album notifications on the change set. When the batch exceeded
// the tracking threshold it recomputes all albums and downgrades the set to
// a recheck.
func (r *AlbumRefresher) RefreshForChanges(cdm *ChangeDataManager, cs *ChangeSet) error {
	if cdm.CheckIsExceed() {
		if r.metrics != nil {
			r.metrics.ExceedFallbacksTotal.Inc()
		}
		logging.LogExceedFallback(r.logger, cdm.TouchedCount(), cdm.Threshold())
		if err := r.engine.RefreshAllAlbums(); err != nil {
			return err
		}
		cs.MarkRecheck()
		return nil
	}

	deltas := r.buildDeltas(cdm.Records())
	if len(deltas) == 0 {
		return nil
	}

	for key, delta := range deltas {
		if delta.empty() {
			continue
		}
		album, err := r.resolveAlbum(key)
		if err != nil {
			return err
		}
		if album == nil {
			// The album row itself was removed in this batch.
			continue
		}

		changed, err := r.engine.ApplyDelta(album, delta)
		if err != nil {
			if r.metrics != nil {
				r.metrics.RecomputeSkipsTotal.Inc()
			}
			logging.LogRecomputeSkipped(r.logger, album.AlbumID, err)
			continue
		}
		if changed {
			cs.Mark(EntityAlbum, int64(album.AlbumID), BuildAlbumURI(album.AlbumID), ChangeUpdate)
		}
	}
	return nil
}

// buildDeltas classifies every change record in both hidden views and folds
// the memberships gained and lost into per-album deltas.
func (r *AlbumRefresher) buildDeltas(records []*ChangeRecord) map[AlbumKey]*AlbumDelta {
	deltas := make(map[AlbumKey]*AlbumDelta)

	delta := func(key AlbumKey) *AlbumDelta {
		d, ok := deltas[key]
		if !ok {
			d = &AlbumDelta{}
			deltas[key] = d
		}
		return d
	}

	for _, rec := range records {
		rankMoved := coverInputsChanged(rec.Before, rec.After)

		for _, view := range []models.HiddenView{models.ViewDefault, models.ViewHidden} {
			before := r.classifier.AffectedAlbums(rec.Before, view)
			after := r.classifier.AffectedAlbums(rec.After, view)

			for key := range before {
				d := delta(key)
				vd := d.viewFor(view)
				if _, kept := after[key]; kept {
					if rankMoved {
						vd.recheck = true
					}
					// A media type flip moves the member between the
					// image and video sub-counts even when the
					// membership itself is unchanged.
					if view == models.ViewDefault && keyHasMediaSplit(key) &&
						rec.Before.MediaType != rec.After.MediaType {
						d.addMediaSplit(rec.Before.MediaType, -1)
						d.addMediaSplit(rec.After.MediaType, 1)
					}
					continue
				}
				vd.count--
				vd.lose(rec.FileID)
				if view == models.ViewDefault && keyHasMediaSplit(key) {
					d.addMediaSplit(rec.Before.MediaType, -1)
				}
			}

			for key := range after {
				if _, had := before[key]; had {
					continue
				}
				d := delta(key)
				vd := d.viewFor(view)
				vd.count++
				vd.gained = append(vd.gained, rec.After)
				if view == models.ViewDefault && keyHasMediaSplit(key) {
					d.addMediaSplit(rec.After.MediaType, 1)
				}
			}
		}
	}

	return deltas
}

func (d *AlbumDelta) viewFor(view models.HiddenView) *viewDelta {
	if view == models.ViewHidden {
		return &d.hid
	}
	return &d.def
}

func (d *AlbumDelta) addMediaSplit(mt models.MediaType, sign int32) {
	switch mt {
	case models.MediaTypeImage:
		d.image += sign
	case models.MediaTypeVideo:
		d.video += sign
	}
}

func keyHasMediaSplit(key AlbumKey) bool {
	return key.Type == models.AlbumTypeUser || key.Type == models.AlbumTypeSource
}

// coverInputsChanged reports whether an update moved fields that feed the
// cover's ordering rank or its URI.
func coverInputsChanged(before, after *AssetSnapshot) bool {
	if before == nil || after == nil {
		return false
	}
	return before.DateTaken != after.DateTaken ||
		before.Data != after.Data ||
		before.DisplayName != after.DisplayName ||
		before.Title != after.Title
}

// resolveAlbum loads the album row for a classification key. System albums
// resolve by subtype, everything else by id. A missing row resolves to nil:
// classification can reference an album deleted in the same batch.
func (r *AlbumRefresher) resolveAlbum(key AlbumKey) (*models.PhotoAlbum, error) {
	q := r.db.Model(&models.PhotoAlbum{})
	if key.Type == models.AlbumTypeSystem {
		q = q.Where("album_type = ? AND album_subtype = ?", key.Type, key.Subtype)
	} else {
		q = q.Where("album_id = ?", key.AlbumID)
	}

	var albums []models.PhotoAlbum
	if err := q.Limit(1).Find(&albums).Error; err != nil {
		return nil, fmt.Errorf("%w: resolve album %+v: %v", ErrDB, key, err)
	}
	if len(albums) == 0 {
		if r.logger != nil {
			r.logger.Debug().
				Int32("album_type", int32(key.Type)).
				Int32("album_subtype", int32(key.Subtype)).
				Int32("album_id", key.AlbumID).
				Msg("Classified album row not found, skipping")
		}
		return nil, nil
	}
	return &albums[0], nil
}
