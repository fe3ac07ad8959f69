package store

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"photostore/internal/logging"
	"photostore/internal/metrics"
	"photostore/internal/models"
)

// AggregateEngine recomputes album counts and covers, either by full
// re-aggregation or by applying signed deltas from change records. It is the
// only writer of PhotoAlbum aggregate columns.
type AggregateEngine struct {
	db      *gorm.DB
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

// NewAggregateEngine creates an engine bound to the active transaction.
// metrics may be nil.
func NewAggregateEngine(db *gorm.DB, logger *zerolog.Logger, m *metrics.Metrics) *AggregateEngine {
	return &AggregateEngine{db: db, logger: logger, metrics: m}
}

// hasMediaSplit reports whether the album maintains image/video sub-counts.
func hasMediaSplit(album *models.PhotoAlbum) bool {
	return album.AlbumType == models.AlbumTypeUser || album.AlbumType == models.AlbumTypeSource
}

// hasHiddenView reports whether the album maintains the parallel hidden-view
// aggregates. The HIDDEN and TRASH albums are single-view.
func hasHiddenView(album *models.PhotoAlbum) bool {
	return album.AlbumSubtype != models.SubtypeHidden && album.AlbumSubtype != models.SubtypeTrash
}

// viewDelta accumulates the signed changes for one album in one view.
type viewDelta struct {
	count   int32
	gained  []*AssetSnapshot
	lostIDs map[int64]struct{}
	recheck bool
}

func (d *viewDelta) lose(fileID int64) {
	if d.lostIDs == nil {
		d.lostIDs = make(map[int64]struct{})
	}
	d.lostIDs[fileID] = struct{}{}
}

func (d *viewDelta) empty() bool {
	return d.count == 0 && len(d.gained) == 0 && len(d.lostIDs) == 0 && !d.recheck
}

// AlbumDelta is the aggregated change for one album across a mutation batch.
type AlbumDelta struct {
	def   viewDelta
	hid   viewDelta
	image int32 // default-view media split
	video int32
}

func (d *AlbumDelta) empty() bool {
	return d.def.empty() && d.hid.empty() && d.image == 0 && d.video == 0
}

// aggregateView runs the full-mode member query for one album view and
// returns the count and cover.
func (e *AggregateEngine) aggregateView(album *models.PhotoAlbum, view models.HiddenView) (int32, string, error) {
	pred := PredicateFor(album, view)

	q, err := pred.Apply(e.db)
	if err != nil {
		return 0, "", err
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, "", fmt.Errorf("%w: count members: %v", ErrDB, err)
	}

	if count == 0 {
		return 0, "", nil
	}

	cover, err := e.queryCover(album, view)
	if err != nil {
		return 0, "", err
	}
	return int32(count), cover, nil
}

// queryCover runs the top-1 member query for the cover candidate. Ordering
// is date descending then id descending, so ties break toward the most
// recently inserted asset.
func (e *AggregateEngine) queryCover(album *models.PhotoAlbum, view models.HiddenView) (string, error) {
	pred := PredicateFor(album, view)

	q, err := pred.Apply(e.db)
	if err != nil {
		return "", err
	}

	var photos []models.Photo
	err = q.Order("Photos.date_taken DESC, Photos.file_id DESC").Limit(1).Find(&photos).Error
	if err != nil {
		return "", fmt.Errorf("%w: query cover candidate: %v", ErrDB, err)
	}
	if len(photos) == 0 {
		return "", nil
	}
	return BuildAssetURI(&photos[0]), nil
}

// countView runs the count query narrowed to one media type.
func (e *AggregateEngine) countView(album *models.PhotoAlbum, view models.HiddenView, mt models.MediaType) (int32, error) {
	pred := PredicateFor(album, view).WithMediaType(mt)

	q, err := pred.Apply(e.db)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: count members by type: %v", ErrDB, err)
	}
	return int32(count), nil
}

// RefreshAlbum recomputes every aggregate field of one album by full
// re-aggregation and writes only the fields whose value changed. It returns
// whether anything was written.
func (e *AggregateEngine) RefreshAlbum(album *models.PhotoAlbum) (bool, error) {
	start := time.Now()

	updates := make(map[string]interface{})

	count, cover, err := e.aggregateView(album, models.ViewDefault)
	if err != nil {
		return false, err
	}
	if count != album.Count {
		updates["count"] = count
	}
	if cover != album.CoverURI {
		updates["cover_uri"] = cover
	}

	if hasMediaSplit(album) {
		imageCount, err := e.countView(album, models.ViewDefault, models.MediaTypeImage)
		if err != nil {
			return false, err
		}
		videoCount, err := e.countView(album, models.ViewDefault, models.MediaTypeVideo)
		if err != nil {
			return false, err
		}
		if imageCount != album.ImageCount {
			updates["image_count"] = imageCount
		}
		if videoCount != album.VideoCount {
			updates["video_count"] = videoCount
		}
	}

	if hasHiddenView(album) {
		hiddenCount, hiddenCover, err := e.aggregateView(album, models.ViewHidden)
		if err != nil {
			return false, err
		}
		if hiddenCount != album.HiddenCount {
			updates["hidden_count"] = hiddenCount
		}
		if hiddenCover != album.HiddenCover {
			updates["hidden_cover"] = hiddenCover
		}
		containsHidden := hiddenCount > 0
		if containsHidden != album.ContainsHidden {
			updates["contains_hidden"] = containsHidden
		}
	}

	changed, err := e.writeAlbum(album, updates)
	if err != nil {
		return false, err
	}

	if e.metrics != nil {
		e.metrics.RefreshDurationSeconds.WithLabelValues("full").Observe(time.Since(start).Seconds())
	}
	logging.LogAlbumRefresh(e.logger, album.AlbumID, int32(album.AlbumSubtype), "full", changed)
	return changed, nil
}

// ApplyDelta applies an aggregated incremental change to one album. The
// cover is only re-queried when the delta evicts the current cover or the
// stored cover cannot be trusted; a gained asset that outranks the current
// cover replaces it without a member query.
func (e *AggregateEngine) ApplyDelta(album *models.PhotoAlbum, delta *AlbumDelta) (bool, error) {
	if delta == nil || delta.empty() {
		return false, nil
	}
	start := time.Now()

	updates := make(map[string]interface{})

	count, cover, err := e.applyViewDelta(album, models.ViewDefault, album.Count, album.CoverURI, &delta.def)
	if err != nil {
		return false, err
	}
	if count != album.Count {
		updates["count"] = count
	}
	if cover != album.CoverURI {
		updates["cover_uri"] = cover
	}

	if hasMediaSplit(album) {
		if delta.image != 0 {
			updates["image_count"] = clampCount(album.ImageCount + delta.image)
		}
		if delta.video != 0 {
			updates["video_count"] = clampCount(album.VideoCount + delta.video)
		}
	}

	if hasHiddenView(album) {
		hiddenCount, hiddenCover, err := e.applyViewDelta(album, models.ViewHidden, album.HiddenCount, album.HiddenCover, &delta.hid)
		if err != nil {
			return false, err
		}
		if hiddenCount != album.HiddenCount {
			updates["hidden_count"] = hiddenCount
		}
		if hiddenCover != album.HiddenCover {
			updates["hidden_cover"] = hiddenCover
		}
		containsHidden := hiddenCount > 0
		if containsHidden != album.ContainsHidden {
			updates["contains_hidden"] = containsHidden
		}
	}

	changed, err := e.writeAlbum(album, updates)
	if err != nil {
		return false, err
	}

	if e.metrics != nil {
		e.metrics.RefreshDurationSeconds.WithLabelValues("incremental").Observe(time.Since(start).Seconds())
	}
	logging.LogAlbumRefresh(e.logger, album.AlbumID, int32(album.AlbumSubtype), "incremental", changed)
	return changed, nil
}

// applyViewDelta resolves the new count and cover for one view.
func (e *AggregateEngine) applyViewDelta(album *models.PhotoAlbum, view models.HiddenView, curCount int32, curCover string, d *viewDelta) (int32, string, error) {
	if d.empty() {
		return curCount, curCover, nil
	}

	newCount := clampCount(curCount + d.count)
	if newCount == 0 {
		return 0, "", nil
	}

	requery := d.recheck || curCover == ""
	if !requery {
		id, ok := ParseAssetID(curCover)
		if !ok {
			requery = true
		} else if _, lost := d.lostIDs[id]; lost {
			// The delta evicted the current cover.
			requery = true
		}
	}

	cover := curCover
	if !requery && len(d.gained) > 0 {
		curDate, curID, err := e.coverRank(curCover)
		if err != nil {
			requery = true
		} else if best := bestSnapshot(d.gained); best != nil && best.rankAfter(curDate, curID) {
			cover = BuildSnapshotURI(best)
		}
	}

	if requery {
		fresh, err := e.queryCover(album, view)
		if err != nil {
			return 0, "", err
		}
		cover = fresh
	}

	return newCount, cover, nil
}

// coverRank looks up the ordering rank of the current cover asset by id.
func (e *AggregateEngine) coverRank(coverURI string) (int64, int64, error) {
	id, ok := ParseAssetID(coverURI)
	if !ok {
		return 0, 0, fmt.Errorf("unparseable cover uri %q", coverURI)
	}
	var photo models.Photo
	if err := e.db.Where("file_id = ?", id).First(&photo).Error; err != nil {
		return 0, 0, fmt.Errorf("%w: look up cover asset %d: %v", ErrDB, id, err)
	}
	return photo.DateTaken, photo.FileID, nil
}

// bestSnapshot returns the highest-ranked snapshot by (dateTaken, fileID).
func bestSnapshot(snaps []*AssetSnapshot) *AssetSnapshot {
	var best *AssetSnapshot
	for _, s := range snaps {
		if best == nil || s.rankAfter(best.DateTaken, best.FileID) {
			best = s
		}
	}
	return best
}

// writeAlbum conditionally persists changed aggregate fields and mirrors
// them into the in-memory row. A change bumps the album's modification
// stamp and marks it cloud-dirty unless it is still unsynced.
func (e *AggregateEngine) writeAlbum(album *models.PhotoAlbum, updates map[string]interface{}) (bool, error) {
	if len(updates) == 0 {
		return false, nil
	}

	updates["date_modified"] = time.Now().Unix()
	if album.Dirty == models.DirtySynced {
		updates["dirty"] = models.DirtyMdirty
	}

	err := e.db.Model(&models.PhotoAlbum{}).
		Where("album_id = ?", album.AlbumID).
		Updates(updates).Error
	if err != nil {
		if e.metrics != nil {
			e.metrics.AlbumWritesTotal.WithLabelValues("error").Inc()
		}
		return false, fmt.Errorf("%w: write album %d aggregates: %v", ErrDB, album.AlbumID, err)
	}

	applyAlbumUpdates(album, updates)
	if e.metrics != nil {
		e.metrics.AlbumWritesTotal.WithLabelValues("written").Inc()
	}
	return true, nil
}

// applyAlbumUpdates mirrors a written update map into the loaded row so
// repeated refreshes within one transaction see current values.
func applyAlbumUpdates(album *models.PhotoAlbum, updates map[string]interface{}) {
	for col, val := range updates {
		switch col {
		case "count":
			album.Count = val.(int32)
		case "cover_uri":
			album.CoverURI = val.(string)
		case "hidden_count":
			album.HiddenCount = val.(int32)
		case "hidden_cover":
			album.HiddenCover = val.(string)
		case "contains_hidden":
			album.ContainsHidden = val.(bool)
		case "image_count":
			album.ImageCount = val.(int32)
		case "video_count":
			album.VideoCount = val.(int32)
		case "date_modified":
			album.DateModified = val.(int64)
		case "dirty":
			album.Dirty = val.(models.DirtyType)
		}
	}
}

func clampCount(v int32) int32 {
	if v < 0 {
		return 0
	}
	return v
}

// RefreshAllAlbums recomputes every album by full re-aggregation. A failed
// recompute of one album is logged and skipped so unrelated albums still
// make progress.
func (e *AggregateEngine) RefreshAllAlbums() error {
	var albums []models.PhotoAlbum
	if err := e.db.Find(&albums).Error; err != nil {
		return fmt.Errorf("%w: load albums for full recompute: %v", ErrDB, err)
	}

	for i := range albums {
		if _, err := e.RefreshAlbum(&albums[i]); err != nil {
			if e.metrics != nil {
				e.metrics.RecomputeSkipsTotal.Inc()
			}
			logging.LogRecomputeSkipped(e.logger, albums[i].AlbumID, err)
		}
	}
	return nil
}
