// Package search serves filter and recommendation queries over the current catalog snapshot.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/animerec/internal/assemble"
	"github.com/hyperjump/animerec/internal/catalog"
	"github.com/hyperjump/animerec/internal/config"
	"github.com/hyperjump/animerec/internal/filter"
	"github.com/hyperjump/animerec/internal/indexer"
	"github.com/hyperjump/animerec/internal/lookup"
	"github.com/hyperjump/animerec/internal/metrics"
	"github.com/hyperjump/animerec/internal/models"
	"github.com/hyperjump/animerec/internal/recommend"
	"github.com/hyperjump/animerec/internal/storage"
)

var (
	// ErrNotLoaded is returned by queries issued before the first successful Reload.
	ErrNotLoaded = errors.New("catalog not loaded")
	// ErrUnknownTitle is returned when a title name is not in the catalog.
	ErrUnknownTitle = errors.New("unknown title")
)

const (
	// DefaultEnrichTimeout bounds the lookups made for one request.
	DefaultEnrichTimeout = 10 * time.Second
	suggestionsPerSeed   = 3
)

// Engine answers queries against one immutable snapshot at a time. Reload builds a new
// snapshot next to the current one and swaps it in; in-flight queries finish on the
// snapshot they started with.
type Engine struct {
	cache         *catalog.Cache
	indexer       *indexer.Indexer
	assembler     *assemble.Assembler
	lookup        lookup.ImageLookup
	store         storage.Storage
	config        *config.SearchConfig
	enrichTimeout time.Duration
	diskPaths     []string
	logger        *zap.Logger

	reloadMu sync.Mutex
	mu       sync.RWMutex
	current  *entry
	reloads  int
}

// entry pairs a snapshot with the queries still using it so its index is closed only
// after the last one is done.
type entry struct {
	snap  *indexer.Snapshot
	users sync.WaitGroup
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLookup sets the image/synopsis source used when a query asks for enrichment.
func WithLookup(l lookup.ImageLookup) EngineOption {
	return func(e *Engine) { e.lookup = l }
}

// WithStorage reports the lookup store's size in Status.
func WithStorage(s storage.Storage) EngineOption {
	return func(e *Engine) { e.store = s }
}

// WithEnrichTimeout bounds enrichment per request.
func WithEnrichTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.enrichTimeout = d
		}
	}
}

// WithDiskPaths sets the lookup database files whose size Status reports.
func WithDiskPaths(paths ...string) EngineOption {
	return func(e *Engine) { e.diskPaths = paths }
}

// WithIndexer replaces the snapshot builder.
func WithIndexer(idx *indexer.Indexer) EngineOption {
	return func(e *Engine) { e.indexer = idx }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine over the dataset behind cache. Call Reload before querying.
func NewEngine(cache *catalog.Cache, assembler *assemble.Assembler, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		cache:         cache,
		assembler:     assembler,
		lookup:        lookup.Nop{},
		config:        cfg,
		enrichTimeout: DefaultEnrichTimeout,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.indexer == nil {
		e.indexer = indexer.NewIndexer(indexer.WithLogger(e.logger))
	}
	return e
}

// Reload rebuilds the snapshot if the dataset changed since the last build, or always
// when force is set. It reports whether a new snapshot was installed. On error the
// current snapshot stays in service.
func (e *Engine) Reload(ctx context.Context, force bool) (bool, error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	if force {
		e.cache.Invalidate()
	}
	cat, fp, loaded, err := e.cache.Get()
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		return false, err
	}
	if !loaded && e.currentEntry() != nil {
		metrics.CatalogReloads.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	snap, err := e.indexer.Build(ctx, cat, fp)
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		return false, fmt.Errorf("build snapshot: %w", err)
	}

	e.mu.Lock()
	old := e.current
	e.current = &entry{snap: snap}
	e.reloads++
	e.mu.Unlock()

	if old != nil {
		go func() {
			old.users.Wait()
			if err := old.snap.Close(); err != nil {
				e.logger.Warn("close retired snapshot", zap.String("id", old.snap.ID), zap.Error(err))
			}
		}()
	}

	recordSnapshotMetrics(snap)
	metrics.CatalogReloads.WithLabelValues("success").Inc()
	e.logger.Info("catalog snapshot installed",
		zap.String("id", snap.ID),
		zap.String("dataset", fp.Path),
		zap.Int("titles", cat.Len()),
		zap.Int("dropped", cat.Stats().TotalDropped()),
		zap.Int("duplicates", cat.Stats().Duplicates),
	)
	return true, nil
}

func recordSnapshotMetrics(snap *indexer.Snapshot) {
	stats := snap.Catalog.Stats()
	metrics.CatalogTitles.Set(float64(snap.Catalog.Len()))
	metrics.FeatureDimensions.Set(float64(snap.Matrix.Dimensions()))
	metrics.CatalogDroppedRows.Reset()
	for reason, n := range stats.Dropped {
		metrics.CatalogDroppedRows.WithLabelValues(string(reason)).Set(float64(n))
	}
}

func (e *Engine) currentEntry() *entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// acquire pins the current snapshot until the returned release func is called.
func (e *Engine) acquire() (*indexer.Snapshot, func(), error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil, nil, ErrNotLoaded
	}
	ent := e.current
	ent.users.Add(1)
	return ent.snap, ent.users.Done, nil
}

// Snapshot returns the snapshot in service, or nil before the first load.
func (e *Engine) Snapshot() *indexer.Snapshot {
	if ent := e.currentEntry(); ent != nil {
		return ent.snap
	}
	return nil
}

// Filter runs an attribute filter. The response carries the number of matches before
// truncation in Total.
func (e *Engine) Filter(ctx context.Context, q *models.FilterQuery) (*models.FilterResponse, error) {
	start := time.Now()
	if err := ProcessFilterQuery(q, e.config); err != nil {
		return nil, err
	}
	snap, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	matched := filter.Apply(snap.Catalog.Titles(), q)
	filter.Sort(matched, q.Sort)
	total := len(matched)
	results := e.assembler.FromTitles(filter.Truncate(matched, q.Limit))
	if q.Enrich {
		e.enrich(ctx, results)
	}

	elapsed := time.Since(start)
	metrics.ObserveQuery("filter", elapsed, total == 0)
	return &models.FilterResponse{
		Results:   results,
		Total:     total,
		Empty:     total == 0,
		QueryTime: elapsed.Milliseconds(),
	}, nil
}

// Recommend ranks the catalog by similarity to the seed titles. Seeds that do not name a
// catalog title are reported in Unresolved along with close title names.
func (e *Engine) Recommend(ctx context.Context, q *models.SimilarQuery) (*models.RecommendResponse, error) {
	start := time.Now()
	if err := ProcessSimilarQuery(q, e.config); err != nil {
		return nil, err
	}
	snap, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	titles := snap.Catalog.Titles()
	resolved, unresolved := recommend.Resolve(titles, snap.Matrix, q.Titles)
	ranked := recommend.Rank(titles, snap.Matrix, resolved, q.Limit)
	results := e.assembler.Annotate(ranked)
	if q.Enrich {
		e.enrich(ctx, results)
	}

	resp := &models.RecommendResponse{
		Results:    results,
		Seeds:      resolved,
		Unresolved: unresolved,
		Empty:      len(results) == 0,
	}
	if resp.Seeds == nil {
		resp.Seeds = []string{}
	}
	if len(unresolved) > 0 {
		resp.Suggestions = e.suggest(ctx, snap, unresolved)
	}

	elapsed := time.Since(start)
	resp.QueryTime = elapsed.Milliseconds()
	metrics.ObserveQuery("recommend", elapsed, resp.Empty)
	return resp, nil
}

func (e *Engine) suggest(ctx context.Context, snap *indexer.Snapshot, names []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, name := range names {
		hits, err := snap.Index.Suggest(ctx, name, suggestionsPerSeed)
		if err != nil {
			e.logger.Debug("suggest failed", zap.String("name", name), zap.Error(err))
			continue
		}
		for _, h := range hits {
			if _, dup := seen[h]; !dup {
				seen[h] = struct{}{}
				out = append(out, h)
			}
		}
	}
	return out
}

func (e *Engine) enrich(ctx context.Context, results []*models.RankedResult) {
	ctx, cancel := context.WithTimeout(ctx, e.enrichTimeout)
	defer cancel()
	e.assembler.Enrich(ctx, results, e.lookup)
}

// SearchTitles finds catalog titles by name for seed selection.
func (e *Engine) SearchTitles(ctx context.Context, query string, limit int) ([]models.TitleMatch, error) {
	snap, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	limit = clampLimit(limit, e.config)
	hits, err := snap.Index.Search(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.TitleMatch, 0, len(hits))
	titles := snap.Catalog.Titles()
	for _, h := range hits {
		m := models.TitleMatch{Name: h.Name, Score: h.Score}
		if i, ok := snap.Catalog.Index(h.Name); ok {
			m.SeriesName = titles[i].SeriesName
		}
		out = append(out, m)
	}
	return out, nil
}

// Title returns the catalog title named name.
func (e *Engine) Title(name string) (*models.Title, error) {
	snap, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	i, ok := snap.Catalog.Index(strings.TrimSpace(name))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTitle, name)
	}
	t := snap.Catalog.Titles()[i]
	return &t, nil
}

// Info returns the image and synopsis for one catalog title. Excluded titles always get
// the placeholder and no synopsis.
func (e *Engine) Info(ctx context.Context, name string) (*models.TitleInfo, error) {
	t, err := e.Title(name)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, e.enrichTimeout)
	defer cancel()
	info := e.assembler.Info(ctx, t, e.lookup)
	return &info, nil
}

// Genres returns the genre vocabulary of the current snapshot.
func (e *Engine) Genres() ([]string, error) {
	snap, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return snap.Catalog.Genres(), nil
}

// Types returns the title formats of the current snapshot.
func (e *Engine) Types() ([]string, error) {
	snap, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return snap.Catalog.Types(), nil
}

// Close releases the current snapshot. The engine must not be used afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	ent := e.current
	e.current = nil
	e.mu.Unlock()
	if ent == nil {
		return nil
	}
	ent.users.Wait()
	return ent.snap.Close()
}
