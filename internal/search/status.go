package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/animerec/internal/catalog"
	"github.com/hyperjump/animerec/internal/features"
	"github.com/hyperjump/animerec/internal/storage"
)

// Status describes the snapshot in service.
type Status struct {
	SnapshotID     string            `json:"snapshot_id"`
	Fingerprint    string            `json:"fingerprint"`
	DatasetPath    string            `json:"dataset_path"`
	BuiltAt        time.Time         `json:"built_at"`
	Titles         int               `json:"titles"`
	IndexedTitles  uint64            `json:"indexed_titles"`
	Stats          catalog.LoadStats `json:"load_stats"`
	Dimensions     int               `json:"dimensions"`
	Genres         int               `json:"genres"`
	Types          int               `json:"types"`
	MembersMin     int64             `json:"members_min"`
	MembersMax     int64             `json:"members_max"`
	Rating         features.Bounds   `json:"rating"`
	Reloads        int               `json:"reloads"`
	LookupEntries  int64             `json:"lookup_cache_entries"`
	DiskUsageBytes int64             `json:"disk_usage_bytes"`
}

// Status reports on the current snapshot and the lookup store.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	snap, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	e.mu.RLock()
	reloads := e.reloads
	e.mu.RUnlock()

	cat := snap.Catalog
	st := &Status{
		SnapshotID:  snap.ID,
		Fingerprint: snap.Fingerprint.ID(),
		DatasetPath: snap.Fingerprint.Path,
		BuiltAt:     snap.BuiltAt,
		Titles:      cat.Len(),
		Stats:       cat.Stats(),
		Dimensions:  snap.Matrix.Dimensions(),
		Genres:      len(snap.Matrix.Vocabulary()),
		Types:       len(cat.Types()),
		Reloads:     reloads,
	}
	st.MembersMin, st.MembersMax = cat.MembersBounds()
	st.Rating, _ = snap.Matrix.Bounds(features.ColumnRating)
	if n, err := snap.Index.DocCount(); err == nil {
		st.IndexedTitles = n
	}
	if e.store != nil {
		if n, err := e.store.CountLookups(ctx); err == nil {
			st.LookupEntries = n
		} else {
			e.logger.Warn("count lookups", zap.Error(err))
		}
	}
	if len(e.diskPaths) > 0 {
		if u, err := storage.DiskUsage(e.diskPaths...); err == nil {
			st.DiskUsageBytes = u.Total
		} else {
			e.logger.Warn("disk usage", zap.Error(err))
		}
	}
	return st, nil
}
