package recommend

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/hyperjump/animerec/internal/features"
	"github.com/hyperjump/animerec/internal/models"
)

func abcCatalog() []models.Title {
	return []models.Title{
		{Name: "A", SeriesName: "A", Genres: []string{"Action"}, Type: "TV", Rating: 8.0, Members: 1000, Episodes: 12},
		{Name: "B", SeriesName: "B", Genres: []string{"Action"}, Type: "TV", Rating: 7.5, Members: 900, Episodes: 12},
		{Name: "C", SeriesName: "C", Genres: []string{"Romance"}, Type: "Movie", Rating: 9.0, Members: 500, Episodes: 1},
	}
}

func resultNames(rs []models.RankedResult) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func TestRank_SharedGenreRanksHigher(t *testing.T) {
	titles := abcCatalog()
	got := Rank(titles, features.Encode(titles), []string{"A"}, 2)
	if !reflect.DeepEqual(resultNames(got), []string{"B", "C"}) {
		t.Fatalf("Rank() = %v, want [B C]", resultNames(got))
	}
	if *got[0].Similarity <= *got[1].Similarity {
		t.Errorf("B (%v) should score above C (%v)", *got[0].Similarity, *got[1].Similarity)
	}
	if got[0].Rank != 1 || got[1].Rank != 2 {
		t.Errorf("ranks = %d, %d", got[0].Rank, got[1].Rank)
	}
}

func TestRank_Deterministic(t *testing.T) {
	titles := genCatalog(80)
	m := features.Encode(titles)
	seeds := []string{"title-3", "title-40"}
	first := Rank(titles, m, seeds, 20)
	second := Rank(titles, features.Encode(titles), seeds, 20)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Name != second[i].Name || *first[i].Similarity != *second[i].Similarity {
			t.Fatalf("position %d differs: %s %v vs %s %v", i, first[i].Name, *first[i].Similarity, second[i].Name, *second[i].Similarity)
		}
	}
}

func TestRank_ExcludesSeedsAndStaysBounded(t *testing.T) {
	titles := genCatalog(60)
	m := features.Encode(titles)
	seeds := []string{"title-1", "title-2", "title-59"}
	got := Rank(titles, m, seeds, 100)
	if len(got) != 57 {
		t.Errorf("len = %d, want 57", len(got))
	}
	for _, r := range got {
		for _, s := range seeds {
			if r.Name == s {
				t.Fatalf("seed %q in output", s)
			}
		}
		if s := *r.Similarity; math.IsNaN(s) || s < 0 || s > 1 {
			t.Fatalf("similarity %v out of [0,1]", s)
		}
	}
	for i := 1; i < len(got); i++ {
		if *got[i].Similarity > *got[i-1].Similarity {
			t.Fatalf("not sorted at %d", i)
		}
	}
}

func TestRank_IdenticalFeaturesScoreOne(t *testing.T) {
	titles := abcCatalog()
	titles = append(titles, models.Title{Name: "A2", Genres: []string{"Action"}, Type: "TV", Rating: 8.0, Members: 1000, Episodes: 12})
	got := Rank(titles, features.Encode(titles), []string{"A"}, 1)
	if len(got) != 1 || got[0].Name != "A2" {
		t.Fatalf("Rank() = %v", resultNames(got))
	}
	if math.Abs(*got[0].Similarity-1) > 1e-12 {
		t.Errorf("similarity = %v, want 1", *got[0].Similarity)
	}
}

func TestRank_TopN(t *testing.T) {
	titles := genCatalog(30)
	m := features.Encode(titles)
	if got := Rank(titles, m, []string{"title-0"}, 5); len(got) != 5 {
		t.Errorf("topN=5 len = %d", len(got))
	}
	if got := Rank(titles, m, []string{"title-0"}, 0); len(got) != DefaultTopN {
		t.Errorf("default topN len = %d", len(got))
	}
	small := abcCatalog()
	if got := Rank(small, features.Encode(small), []string{"A"}, 5); len(got) != 2 {
		t.Errorf("fewer candidates than topN: len = %d", len(got))
	}
}

func TestRank_TiesKeepCatalogOrder(t *testing.T) {
	titles := []models.Title{
		{Name: "seed", Genres: []string{"Action"}, Rating: 5, Members: 10, Episodes: 1},
		{Name: "x", Genres: []string{"Drama"}, Rating: 5, Members: 10, Episodes: 1},
		{Name: "y", Genres: []string{"Drama"}, Rating: 5, Members: 10, Episodes: 1},
		{Name: "z", Genres: []string{"Drama"}, Rating: 5, Members: 10, Episodes: 1},
	}
	got := Rank(titles, features.Encode(titles), []string{"seed"}, 3)
	if !reflect.DeepEqual(resultNames(got), []string{"x", "y", "z"}) {
		t.Errorf("Rank() = %v", resultNames(got))
	}
	for _, r := range got {
		if *r.Similarity != 0 {
			t.Errorf("disjoint genres should score 0, got %v", *r.Similarity)
		}
	}
}

func TestRank_NoSeedsResolve(t *testing.T) {
	titles := abcCatalog()
	got := Rank(titles, features.Encode(titles), []string{"missing", "  "}, 5)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
	if got := Rank(titles, nil, []string{"A"}, 5); got == nil || len(got) != 0 {
		t.Errorf("nil matrix: %v", got)
	}
}

func TestResolve(t *testing.T) {
	titles := abcCatalog()
	resolved, unresolved := Resolve(titles, features.Encode(titles), []string{" A ", "Z", "A", "C"})
	if !reflect.DeepEqual(resolved, []string{"A", "C"}) {
		t.Errorf("resolved = %v", resolved)
	}
	if !reflect.DeepEqual(unresolved, []string{"Z"}) {
		t.Errorf("unresolved = %v", unresolved)
	}
}

func genCatalog(n int) []models.Title {
	genres := []string{"Action", "Comedy", "Drama", "Romance", "Sci-Fi", "Slice of Life"}
	titles := make([]models.Title, 0, n)
	for i := 0; i < n; i++ {
		titles = append(titles, models.Title{
			Name:     fmt.Sprintf("title-%d", i),
			Genres:   []string{genres[i%len(genres)], genres[(i*7+1)%len(genres)]},
			Type:     "TV",
			Rating:   5 + float64(i%50)/10,
			Members:  int64(1000 + (i*37)%5000),
			Episodes: 1 + i%26,
		})
	}
	return titles
}
