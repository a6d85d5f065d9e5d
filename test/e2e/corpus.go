// Package e2e runs the HTTP API end to end over a generated catalog and a fake lookup service.
package e2e

import (
	"fmt"
	"strconv"

	"github.com/hyperjump/animerec/internal/models"
)

// Family is a group of titles sharing one genre pair and format. Titles from the same
// family are each other's nearest neighbours.
type Family struct {
	Name   string
	Genres []string
	Type   string
}

// Families are the title groups in the generated corpus.
var Families = []Family{
	{"Starlight Mecha", []string{"Mecha", "Space"}, "TV"},
	{"Crimson Blade", []string{"Samurai", "Historical"}, "TV"},
	{"Midnight Manor", []string{"Horror", "Supernatural"}, "TV"},
	{"Sakura Court", []string{"Romance", "School"}, "TV"},
	{"Pixel Quest", []string{"Game", "Adventure"}, "ONA"},
	{"Iron Pitch", []string{"Sports", "Drama"}, "TV"},
	{"Velvet Note", []string{"Music", "Slice of Life"}, "OVA"},
	{"Clockwork Sleuth", []string{"Mystery", "Police"}, "TV"},
	{"Laughing Fox", []string{"Comedy", "Parody"}, "Special"},
	{"Deep Blue Abyss", []string{"Sci-Fi", "Psychological"}, "Movie"},
}

// TitlesPerFamily is the number of distinct series per family.
const TitlesPerFamily = 10

// Row is one dataset row in column order.
type Row []string

// Corpus is a generated dataset with the counts a clean load must report.
type Corpus struct {
	Header     []string
	Rows       []Row
	Kept       int
	Duplicates int
	Dropped    int
}

// TitleName returns the name of the n-th title (0-based) of family f.
func TitleName(f, n int) string {
	return fmt.Sprintf("%s %02d", Families[f].Name, n+1)
}

// FamilyTitles returns every kept title name of family f.
func FamilyTitles(f int) []string {
	out := make([]string, TitlesPerFamily)
	for n := range out {
		out[n] = TitleName(f, n)
	}
	return out
}

// BuildCorpus returns 100 valid titles, one lower-popularity sequel per family that
// collapses into its series, and three malformed rows.
//
// Numeric columns depend only on a title's position within its family, so genre overlap
// decides similarity: rating = 6.0 + 0.3n, episodes = 12 + n, and members fall with n.
func BuildCorpus() *Corpus {
	c := &Corpus{Header: append([]string{"anime_id"}, models.RequiredColumns...)}
	id := 0
	add := func(name, genre, typ, episodes, rating, members string) {
		id++
		c.Rows = append(c.Rows, Row{strconv.Itoa(id), name, genre, typ, episodes, rating, members})
	}
	for f, fam := range Families {
		genre := fam.Genres[0] + ", " + fam.Genres[1]
		for n := 0; n < TitlesPerFamily; n++ {
			add(TitleName(f, n), genre, fam.Type,
				strconv.Itoa(12+n),
				strconv.FormatFloat(6.0+0.3*float64(n), 'f', 1, 64),
				strconv.Itoa(100000-1000*n-f))
			c.Kept++
		}
		add(TitleName(f, 0)+": Recap", genre, "Special", "1", "6.5", strconv.Itoa(10+f))
		c.Duplicates++
	}
	add("Broken Episodes", "Action", "TV", "Unknown", "7.0", "5000")
	add("Broken Rating", "Action", "TV", "12", "", "5000")
	add("Broken Members", "Action", "TV", "12", "7.0", "n/a")
	c.Dropped = 3
	return c
}

// RecommendCase seeds a recommendation and names titles that must make up its top results.
type RecommendCase struct {
	Seeds       []string
	Limit       int
	ExpectedTop []string
	Description string
}

// FilterCase is a filter query and the exact set of titles it must return.
type FilterCase struct {
	Query       models.FilterQuery
	Expected    []string
	Description string
}

// RecommendCases returns one single-seed case per family plus a two-family case.
func RecommendCases() []RecommendCase {
	var cases []RecommendCase
	for f := range Families {
		cases = append(cases, RecommendCase{
			Seeds:       []string{TitleName(f, 0)},
			Limit:       TitlesPerFamily - 1,
			ExpectedTop: FamilyTitles(f)[1:],
			Description: "single seed ranks its own family first: " + Families[f].Name,
		})
	}
	cases = append(cases, RecommendCase{
		Seeds: []string{TitleName(0, 0), TitleName(1, 0)},
		Limit: 6,
		ExpectedTop: []string{
			TitleName(0, 1), TitleName(0, 2), TitleName(0, 3),
			TitleName(1, 1), TitleName(1, 2), TitleName(1, 3),
		},
		Description: "two seeds blend both families",
	})
	return cases
}

// FilterCases returns filter queries with known answers.
func FilterCases() []FilterCase {
	top := func(f, from int) []string { return FamilyTitles(f)[from:] }
	var allHigh []string
	for f := range Families {
		allHigh = append(allHigh, top(f, 7)...)
	}
	return []FilterCase{
		{
			Query:       models.FilterQuery{Genres: []string{"Mecha"}},
			Expected:    FamilyTitles(0),
			Description: "single genre",
		},
		{
			Query:       models.FilterQuery{Genres: []string{"Sports", "Drama"}},
			Expected:    FamilyTitles(5),
			Description: "all listed genres must be present",
		},
		{
			Query:       models.FilterQuery{Genres: []string{"Sports", "Music"}},
			Expected:    nil,
			Description: "no family carries both genres",
		},
		{
			Query:       models.FilterQuery{Types: []string{"OVA", "Movie"}},
			Expected:    append(FamilyTitles(6), FamilyTitles(9)...),
			Description: "type membership",
		},
		{
			Query:       models.FilterQuery{Keyword: "MANOR"},
			Expected:    FamilyTitles(2),
			Description: "case-insensitive keyword",
		},
		{
			Query:       models.FilterQuery{RatingRange: &models.Range{Min: 8.05, Max: 10}},
			Expected:    allHigh,
			Description: "rating range",
		},
		{
			Query:       models.FilterQuery{Genres: []string{"Comedy"}, MembersRange: &models.Range{Min: 0, Max: 95000}},
			Expected:    top(8, 5),
			Description: "genre and members range combined",
		},
	}
}
