// Package catalog loads the raw anime dataset into a cleaned, deduplicated Catalog.
package catalog

import (
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/animerec/internal/models"
)

// LoadStats accounts for every raw row: RowsRead == Kept + Duplicates + sum(Dropped).
type LoadStats struct {
	RowsRead   int                       `json:"rows_read"`
	Kept       int                       `json:"kept"`
	Duplicates int                       `json:"duplicates"`
	Dropped    map[models.DropReason]int `json:"dropped"`
}

// TotalDropped returns the number of rows rejected by validation.
func (s LoadStats) TotalDropped() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Catalog is an immutable, popularity-ordered set of titles with at most one title per series.
type Catalog struct {
	titles []models.Title
	byName map[string]int
	stats  LoadStats
}

// Options configures cleaning.
type Options struct {
	// Franchises are tags that force a shared series name; nil uses DefaultFranchises.
	Franchises []string
	Logger     *zap.Logger
}

// Load validates rows, derives series names and keeps the most popular title per series.
// Invalid rows are dropped and counted in the catalog's LoadStats, never reported as errors.
func Load(rows []models.RawRow, opts Options) *Catalog {
	franchises := opts.Franchises
	if franchises == nil {
		franchises = DefaultFranchises
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	series := seriesFunc(franchises)

	stats := LoadStats{RowsRead: len(rows), Dropped: make(map[models.DropReason]int)}
	valid := make([]models.Title, 0, len(rows))
	for _, raw := range rows {
		t, reason := models.NewTitle(raw, series)
		if reason != models.DropNone {
			stats.Dropped[reason]++
			logger.Debug("dropping row", zap.Int("line", raw.Line), zap.String("reason", string(reason)))
			continue
		}
		valid = append(valid, t)
	}

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Members > valid[j].Members })

	seen := make(map[string]struct{}, len(valid))
	titles := valid[:0]
	for _, t := range valid {
		if _, dup := seen[t.SeriesName]; dup {
			stats.Duplicates++
			continue
		}
		seen[t.SeriesName] = struct{}{}
		titles = append(titles, t)
	}
	stats.Kept = len(titles)

	logger.Info("catalog loaded",
		zap.Int("rows_read", stats.RowsRead),
		zap.Int("kept", stats.Kept),
		zap.Int("dropped", stats.TotalDropped()),
		zap.Int("duplicates", stats.Duplicates),
	)
	return newCatalog(titles, stats)
}

// New builds a catalog from titles that are already clean and deduplicated, keeping their order.
func New(titles []models.Title) *Catalog {
	cp := append([]models.Title(nil), titles...)
	return newCatalog(cp, LoadStats{RowsRead: len(cp), Kept: len(cp), Dropped: map[models.DropReason]int{}})
}

func newCatalog(titles []models.Title, stats LoadStats) *Catalog {
	byName := make(map[string]int, len(titles))
	for i, t := range titles {
		if _, ok := byName[t.Name]; !ok {
			byName[t.Name] = i
		}
	}
	return &Catalog{titles: titles, byName: byName, stats: stats}
}

// Titles returns the catalog's titles. Callers must not modify the returned slice.
func (c *Catalog) Titles() []models.Title {
	return c.titles
}

// Len returns the number of titles.
func (c *Catalog) Len() int {
	return len(c.titles)
}

// Stats returns the load statistics.
func (c *Catalog) Stats() LoadStats {
	return c.stats
}

// Index returns the position of the first title named name.
func (c *Catalog) Index(name string) (int, bool) {
	i, ok := c.byName[name]
	return i, ok
}

// Genres returns the sorted distinct genre tags.
func (c *Catalog) Genres() []string {
	set := make(map[string]struct{})
	for _, t := range c.titles {
		for _, g := range t.Genres {
			set[g] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Types returns the sorted distinct title formats.
func (c *Catalog) Types() []string {
	set := make(map[string]struct{})
	for _, t := range c.titles {
		set[t.Type] = struct{}{}
	}
	return sortedKeys(set)
}

// MembersBounds returns the smallest and largest member counts, or zeros for an empty catalog.
func (c *Catalog) MembersBounds() (lo, hi int64) {
	for i, t := range c.titles {
		if i == 0 || t.Members < lo {
			lo = t.Members
		}
		if i == 0 || t.Members > hi {
			hi = t.Members
		}
	}
	return lo, hi
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
