// Package integration runs the whole pipeline on a small dataset file.
package integration

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/animerec/internal/assemble"
	"github.com/hyperjump/animerec/internal/catalog"
	"github.com/hyperjump/animerec/internal/config"
	"github.com/hyperjump/animerec/internal/models"
	"github.com/hyperjump/animerec/internal/search"
)

// dataset holds the A/B/C example plus rows that exercise cleaning and dedup.
const dataset = `anime_id,name,genre,type,episodes,rating,members
1,A,Action,TV,12,8.0,1000
2,B,Action,TV,12,7.5,900
3,C,Romance,Movie,1,9.0,500
4,B: Recap,Action,Special,1,6.0,50
5,D,,TV,12,7.0,100
6,E,Action,TV,Unknown,7.0,100
`

func newEngine(t *testing.T) *search.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anime.csv")
	if err := os.WriteFile(path, []byte(dataset), 0600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.SearchConfig{DefaultLimit: 10, MaxLimit: 100, FilterSort: models.SortRating}
	engine := search.NewEngine(catalog.NewCache(path, catalog.ReadOptions{}, catalog.Options{}), assemble.New(nil), cfg)
	if _, err := engine.Reload(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func TestIntegration_RecommendExample(t *testing.T) {
	engine := newEngine(t)
	resp, err := engine.Recommend(context.Background(), &models.SimilarQuery{Titles: []string{"A"}, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	b, c := resp.Results[0], resp.Results[1]
	if b.Name != "B" || c.Name != "C" {
		t.Fatalf("order = %s, %s; want B, C", b.Name, c.Name)
	}
	if *b.Similarity <= *c.Similarity {
		t.Errorf("B (%.4f) should outrank C (%.4f)", *b.Similarity, *c.Similarity)
	}
	if *b.Similarity < 0.9 {
		t.Errorf("B similarity %.4f, want close to 1", *b.Similarity)
	}
	for _, r := range resp.Results {
		if s := *r.Similarity; s < 0 || s > 1 || math.IsNaN(s) {
			t.Errorf("%s similarity %v out of [0,1]", r.Name, s)
		}
	}
}

func TestIntegration_CleaningAndDedup(t *testing.T) {
	engine := newEngine(t)
	st, err := engine.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Titles != 3 {
		t.Errorf("titles = %d, want 3", st.Titles)
	}
	if st.Stats.RowsRead != 6 || st.Stats.Duplicates != 1 || st.Stats.TotalDropped() != 2 {
		t.Errorf("stats = %+v", st.Stats)
	}
	if st.Stats.Dropped[models.DropMissingField] != 1 || st.Stats.Dropped[models.DropBadEpisodes] != 1 {
		t.Errorf("drop reasons = %v", st.Stats.Dropped)
	}

	b, err := engine.Title("B")
	if err != nil {
		t.Fatal(err)
	}
	if b.Members != 900 || b.Type != "TV" {
		t.Errorf("dedup kept the wrong B: %+v", b)
	}
	if _, err := engine.Title("B: Recap"); err == nil {
		t.Error("B: Recap should have been collapsed into series B")
	}
}

func TestIntegration_FilterDefaultOrder(t *testing.T) {
	engine := newEngine(t)
	resp, err := engine.Filter(context.Background(), &models.FilterQuery{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"C", "A", "B"}
	if len(resp.Results) != len(want) {
		t.Fatalf("results = %d", len(resp.Results))
	}
	for i, r := range resp.Results {
		if r.Name != want[i] {
			t.Errorf("result %d = %s, want %s", i, r.Name, want[i])
		}
		if r.Similarity != nil {
			t.Errorf("filter result %s carries a similarity", r.Name)
		}
	}
}
