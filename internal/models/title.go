// Package models defines core data structures for titles, queries, and results.
package models

import (
	"math"
	"strconv"
	"strings"
)

// Required dataset columns. A dataset missing any of these cannot be loaded.
const (
	ColumnName     = "name"
	ColumnGenre    = "genre"
	ColumnType     = "type"
	ColumnEpisodes = "episodes"
	ColumnRating   = "rating"
	ColumnMembers  = "members"
)

// RequiredColumns lists the columns every dataset must carry, in canonical order.
var RequiredColumns = []string{ColumnName, ColumnGenre, ColumnType, ColumnEpisodes, ColumnRating, ColumnMembers}

// UnknownGenre is the sentinel genre assigned when the genre field splits into nothing.
const UnknownGenre = "Unknown"

// GenreDelimiter separates genre tags in the raw genre field.
const GenreDelimiter = ","

// Title is one cleaned catalog entry. Titles are built by NewTitle and never mutated.
type Title struct {
	Name       string   `json:"name"`
	SeriesName string   `json:"series_name"`
	Genres     []string `json:"genre_list"`
	Type       string   `json:"type"`
	Rating     float64  `json:"rating"`
	Members    int64    `json:"members"`
	Episodes   int      `json:"episodes"`
}

// HasGenre reports whether the title carries the exact genre tag g.
func (t *Title) HasGenre(g string) bool {
	for _, tag := range t.Genres {
		if tag == g {
			return true
		}
	}
	return false
}

// RawRow is a dataset record before validation. Absent fields are missing from Fields;
// an empty cell is treated as absent.
type RawRow struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of column and whether it is present and non-empty.
func (r RawRow) Get(column string) (string, bool) {
	v, ok := r.Fields[column]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// DropReason names why a raw row was rejected. The empty reason means the row was kept.
type DropReason string

const (
	DropNone         DropReason = ""
	DropMissingField DropReason = "missing_field"
	DropBadEpisodes  DropReason = "bad_episodes"
	DropBadRating    DropReason = "bad_rating"
	DropBadMembers   DropReason = "bad_members"
)

// SeriesFunc derives the canonical series key from a title name.
type SeriesFunc func(name string) string

// NewTitle validates raw and builds a Title. When the row violates the schema it returns
// the zero Title and the reason; callers drop such rows.
func NewTitle(raw RawRow, series SeriesFunc) (Title, DropReason) {
	name, okName := raw.Get(ColumnName)
	genre, okGenre := raw.Get(ColumnGenre)
	typ, okType := raw.Get(ColumnType)
	ratingStr, okRating := raw.Get(ColumnRating)
	if !okName || !okGenre || !okType || !okRating {
		return Title{}, DropMissingField
	}

	episodesStr, _ := raw.Get(ColumnEpisodes)
	if !isDigits(episodesStr) {
		return Title{}, DropBadEpisodes
	}
	episodes, err := strconv.Atoi(episodesStr)
	if err != nil {
		return Title{}, DropBadEpisodes
	}

	rating, err := strconv.ParseFloat(ratingStr, 64)
	if err != nil || math.IsNaN(rating) || rating < 0 || rating > 10 {
		return Title{}, DropBadRating
	}

	membersStr, _ := raw.Get(ColumnMembers)
	members, ok := parseCount(membersStr)
	if !ok {
		return Title{}, DropBadMembers
	}

	t := Title{
		Name:     name,
		Genres:   SplitGenres(genre),
		Type:     typ,
		Rating:   rating,
		Members:  members,
		Episodes: episodes,
	}
	if series != nil {
		t.SeriesName = series(name)
	} else {
		t.SeriesName = name
	}
	return t, DropNone
}

// SplitGenres splits a raw genre field on GenreDelimiter and trims each tag.
// Empty tags are discarded; if nothing remains the result is [UnknownGenre].
func SplitGenres(field string) []string {
	parts := strings.Split(field, GenreDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{UnknownGenre}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseCount accepts a non-negative integer, or a float with no fractional part
// (spreadsheet exports often write "1000.0").
func parseCount(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, n >= 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
