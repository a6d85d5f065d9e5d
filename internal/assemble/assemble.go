// Package assemble turns filtered or ranked titles into display-ready results.
package assemble

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/animerec/internal/lookup"
	"github.com/hyperjump/animerec/internal/models"
	"github.com/hyperjump/animerec/pkg/utils"
)

// DefaultExcludedGenres are the genres whose titles are never enriched with images or synopses.
var DefaultExcludedGenres = []string{"Hentai", "Ecchi", "Horror", "Yaoi"}

// DefaultConcurrency bounds parallel lookups in Enrich.
const DefaultConcurrency = 4

// Assembler flags titles for display and merges enrichment data.
type Assembler struct {
	excluded    map[string]struct{}
	placeholder string
	concurrency int
	logger      *zap.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithPlaceholder sets the image URL used when no image may or can be shown.
func WithPlaceholder(url string) Option {
	return func(a *Assembler) {
		if url != "" {
			a.placeholder = url
		}
	}
}

// WithConcurrency sets the number of parallel lookups.
func WithConcurrency(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) {
		a.logger = l
	}
}

// New creates an Assembler for the excluded genres, compared case-insensitively.
// A nil slice uses DefaultExcludedGenres; an empty one excludes nothing.
func New(excluded []string, opts ...Option) *Assembler {
	if excluded == nil {
		excluded = DefaultExcludedGenres
	}
	a := &Assembler{
		excluded:    make(map[string]struct{}, len(excluded)),
		placeholder: lookup.DefaultPlaceholderURL,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, g := range excluded {
		if k := utils.FoldKey(g); k != "" {
			a.excluded[k] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Excluded reports whether t carries any excluded genre.
func (a *Assembler) Excluded(t *models.Title) bool {
	for _, g := range t.Genres {
		if _, ok := a.excluded[utils.FoldKey(g)]; ok {
			return true
		}
	}
	return false
}

// Placeholder returns the placeholder image URL.
func (a *Assembler) Placeholder() string {
	return a.placeholder
}

// FromTitles builds filter-mode results: no similarity, ranks in input order.
func (a *Assembler) FromTitles(titles []models.Title) []*models.RankedResult {
	out := make([]*models.RankedResult, 0, len(titles))
	for i := range titles {
		out = append(out, &models.RankedResult{
			Title:              titles[i],
			ExcludedForDisplay: a.Excluded(&titles[i]),
			Rank:               i + 1,
		})
	}
	return out
}

// Annotate sets the exclusion flag on ranked results. Results are copied, never dropped.
func (a *Assembler) Annotate(results []models.RankedResult) []*models.RankedResult {
	out := make([]*models.RankedResult, 0, len(results))
	for i := range results {
		r := results[i]
		r.ExcludedForDisplay = a.Excluded(&r.Title)
		out = append(out, &r)
	}
	return out
}

// Enrich fills ImageURL and Synopsis. Excluded results always get the placeholder and no
// synopsis; the others are looked up concurrently, and any failure or missing data falls
// back to the placeholder. Enrich never fails; cancellation of ctx leaves the remaining
// results with the placeholder.
func (a *Assembler) Enrich(ctx context.Context, results []*models.RankedResult, src lookup.ImageLookup) {
	if src == nil {
		src = lookup.Nop{}
	}
	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup
	for _, r := range results {
		r.ImageURL = a.placeholder
		r.Synopsis = ""
		if r.ExcludedForDisplay {
			continue
		}
		wg.Add(1)
		go func(r *models.RankedResult) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			a.fill(ctx, r, src)
		}(r)
	}
	wg.Wait()
}

// Info returns enrichment for a single title.
func (a *Assembler) Info(ctx context.Context, t *models.Title, src lookup.ImageLookup) models.TitleInfo {
	r := &models.RankedResult{Title: *t, ExcludedForDisplay: a.Excluded(t)}
	a.Enrich(ctx, []*models.RankedResult{r}, src)
	return models.TitleInfo{Name: t.Name, ImageURL: r.ImageURL, Synopsis: r.Synopsis}
}

func (a *Assembler) fill(ctx context.Context, r *models.RankedResult, src lookup.ImageLookup) {
	info, err := src.Lookup(ctx, r.Name)
	if err != nil {
		a.logger.Debug("lookup failed", zap.String("name", r.Name), zap.Error(err))
		return
	}
	if info == nil {
		return
	}
	if info.ImageURL != "" {
		r.ImageURL = info.ImageURL
	}
	r.Synopsis = info.Synopsis
}
