// Package filter selects catalog titles by attribute predicates.
package filter

import (
	"sort"
	"strings"

	"github.com/hyperjump/animerec/internal/models"
)

// Apply returns the titles that satisfy every active constraint of q, in their original
// order. The input slice is not modified. A nil query matches everything.
func Apply(titles []models.Title, q *models.FilterQuery) []models.Title {
	out := make([]models.Title, 0)
	if q == nil {
		return append(out, titles...)
	}
	p := newPredicate(q)
	for i := range titles {
		if p.match(&titles[i]) {
			out = append(out, titles[i])
		}
	}
	return out
}

// Matches reports whether t satisfies q.
func Matches(t *models.Title, q *models.FilterQuery) bool {
	if q == nil {
		return true
	}
	return newPredicate(q).match(t)
}

// Sort orders titles in place by key, highest first. Ties keep their relative order.
// Any other key, such as SortCatalog, leaves the slice untouched.
func Sort(titles []models.Title, key string) {
	switch key {
	case models.SortRating:
		sort.SliceStable(titles, func(i, j int) bool { return titles[i].Rating > titles[j].Rating })
	case models.SortMembers:
		sort.SliceStable(titles, func(i, j int) bool { return titles[i].Members > titles[j].Members })
	}
}

// Truncate returns at most limit titles. A limit of zero or less keeps all of them.
func Truncate(titles []models.Title, limit int) []models.Title {
	if limit > 0 && len(titles) > limit {
		return titles[:limit]
	}
	return titles
}

// predicate caches the normalized parts of a query so that matching many titles
// does not repeat the work.
type predicate struct {
	q       *models.FilterQuery
	types   map[string]struct{}
	keyword string
}

func newPredicate(q *models.FilterQuery) predicate {
	p := predicate{q: q, keyword: strings.ToLower(strings.TrimSpace(q.Keyword))}
	if len(q.Types) > 0 {
		p.types = make(map[string]struct{}, len(q.Types))
		for _, t := range q.Types {
			p.types[t] = struct{}{}
		}
	}
	return p
}

func (p predicate) match(t *models.Title) bool {
	for _, g := range p.q.Genres {
		if !t.HasGenre(g) {
			return false
		}
	}
	if p.types != nil {
		if _, ok := p.types[t.Type]; !ok {
			return false
		}
	}
	if p.keyword != "" && !strings.Contains(strings.ToLower(t.Name), p.keyword) {
		return false
	}
	if p.q.RatingRange != nil && !p.q.RatingRange.Contains(t.Rating) {
		return false
	}
	if p.q.MembersRange != nil && !p.q.MembersRange.Contains(float64(t.Members)) {
		return false
	}
	return true
}
