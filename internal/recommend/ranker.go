// Package recommend ranks catalog titles by content similarity to a set of seed titles.
package recommend

import (
	"sort"
	"strings"

	"github.com/hyperjump/animerec/internal/features"
	"github.com/hyperjump/animerec/internal/models"
	"github.com/hyperjump/animerec/internal/vector"
	"github.com/hyperjump/animerec/pkg/utils"
)

// DefaultTopN is used when Rank is called with topN <= 0.
const DefaultTopN = models.DefaultLimit

// Resolve splits seed names into those that name a valid row of m and those that do not.
// Names are trimmed and matched exactly; duplicates are reported once.
func Resolve(titles []models.Title, m *features.Matrix, seeds []string) (resolved, unresolved []string) {
	idx := seedIndices(titles, m, seeds)
	seen := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		name := strings.TrimSpace(s)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := idx.names[name]; ok {
			resolved = append(resolved, name)
		} else {
			unresolved = append(unresolved, name)
		}
	}
	return resolved, unresolved
}

// Rank scores every valid, non-seed row of m against the centroid of the seed vectors and
// returns the topN best matches, highest similarity first. Ties keep catalog order.
// When no seed resolves the result is empty. titles and m must be aligned by index.
func Rank(titles []models.Title, m *features.Matrix, seeds []string, topN int) []models.RankedResult {
	if topN <= 0 {
		topN = DefaultTopN
	}
	out := make([]models.RankedResult, 0)
	if m == nil {
		return out
	}
	idx := seedIndices(titles, m, seeds)
	if len(idx.rows) == 0 {
		return out
	}

	seedVecs := make([][]float64, 0, len(idx.rows))
	for _, i := range idx.rows {
		seedVecs = append(seedVecs, m.Vector(i))
	}
	query := vector.Centroid(seedVecs)

	type scored struct {
		row   int
		score float64
	}
	candidates := make([]scored, 0, len(m.ValidIndices()))
	for _, i := range m.ValidIndices() {
		if i >= len(titles) {
			break
		}
		if _, isSeed := idx.names[titles[i].Name]; isSeed {
			continue
		}
		candidates = append(candidates, scored{row: i, score: utils.Clamp01(vector.Cosine(m.Vector(i), query))})
	}
	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].score > candidates[b].score })

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	for rank, c := range candidates {
		score := c.score
		out = append(out, models.RankedResult{
			Title:      titles[c.row],
			Similarity: &score,
			Rank:       rank + 1,
		})
	}
	return out
}

type seedSet struct {
	rows  []int
	names map[string]struct{}
}

// seedIndices maps seed names to valid rows. A name that appears on several rows
// resolves to all of them.
func seedIndices(titles []models.Title, m *features.Matrix, seeds []string) seedSet {
	want := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		if s = strings.TrimSpace(s); s != "" {
			want[s] = struct{}{}
		}
	}
	set := seedSet{names: make(map[string]struct{}, len(want))}
	if len(want) == 0 || m == nil {
		return set
	}
	for _, i := range m.ValidIndices() {
		if i >= len(titles) {
			break
		}
		if _, ok := want[titles[i].Name]; ok {
			set.rows = append(set.rows, i)
			set.names[titles[i].Name] = struct{}{}
		}
	}
	return set
}
