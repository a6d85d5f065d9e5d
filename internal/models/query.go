package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Result count limits shared by filter and similarity queries.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Sort keys for filter results. SortDefault defers to the server's configured order.
const (
	SortDefault = ""
	SortCatalog = "catalog"
	SortRating  = "rating"
	SortMembers = "members"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// UnmarshalJSON decodes a range. A missing min or max leaves that side unbounded,
// so {"min": 7} means "at least 7".
func (r *Range) UnmarshalJSON(data []byte) error {
	var raw struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Min, r.Max = -math.MaxFloat64, math.MaxFloat64
	if raw.Min != nil {
		r.Min = *raw.Min
	}
	if raw.Max != nil {
		r.Max = *raw.Max
	}
	return nil
}

// Contains reports whether v lies in [Min, Max].
func (r *Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// FilterQuery is an attribute filter. Empty sets, an empty keyword and nil ranges
// impose no constraint; all active constraints must hold.
type FilterQuery struct {
	Genres       []string `json:"genres,omitempty"`
	Types        []string `json:"types,omitempty"`
	RatingRange  *Range   `json:"rating_range,omitempty"`
	MembersRange *Range   `json:"members_range,omitempty"`
	Keyword      string   `json:"keyword,omitempty"`
	Sort         string   `json:"sort,omitempty"`   // "", "catalog", "rating" or "members"
	Limit        int      `json:"limit,omitempty"`  // 0 uses the configured default; capped at the configured max
	Enrich       bool     `json:"enrich,omitempty"` // attach image/synopsis lookups
}

// Validate checks ranges and the sort key and trims the keyword.
func (q *FilterQuery) Validate() error {
	if q.RatingRange != nil && q.RatingRange.Min > q.RatingRange.Max {
		return fmt.Errorf("rating_range min %.2f is greater than max %.2f", q.RatingRange.Min, q.RatingRange.Max)
	}
	if q.MembersRange != nil && q.MembersRange.Min > q.MembersRange.Max {
		return fmt.Errorf("members_range min %.0f is greater than max %.0f", q.MembersRange.Min, q.MembersRange.Max)
	}
	switch q.Sort {
	case SortDefault, SortCatalog, SortRating, SortMembers:
	default:
		return fmt.Errorf("unknown sort key %q", q.Sort)
	}
	if q.Limit < 0 {
		q.Limit = 0
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Keyword = strings.TrimSpace(q.Keyword)
	return nil
}

// SimilarQuery asks for titles similar to the given seed titles.
type SimilarQuery struct {
	Titles []string `json:"titles"`
	Limit  int      `json:"limit,omitempty"`
	Enrich bool     `json:"enrich,omitempty"`
}

// Validate trims seed names, drops blanks and normalizes the limit.
// Returns an error if no seed titles remain.
func (q *SimilarQuery) Validate() error {
	seeds := q.Titles[:0]
	for _, s := range q.Titles {
		if s = strings.TrimSpace(s); s != "" {
			seeds = append(seeds, s)
		}
	}
	q.Titles = seeds
	if len(q.Titles) == 0 {
		return fmt.Errorf("at least one seed title is required")
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return nil
}
