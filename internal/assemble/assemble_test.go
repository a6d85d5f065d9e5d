package assemble

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/animerec/internal/lookup"
	"github.com/hyperjump/animerec/internal/models"
)

func titles() []models.Title {
	return []models.Title{
		{Name: "Clean", Genres: []string{"Action"}},
		{Name: "Scary", Genres: []string{"Mystery", "horror"}},
		{Name: "Lewd", Genres: []string{"ECCHI"}},
	}
}

func TestFromTitles_FlagsWithoutRemoving(t *testing.T) {
	out := New(nil).FromTitles(titles())
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	want := []bool{false, true, true}
	for i, r := range out {
		if r.ExcludedForDisplay != want[i] {
			t.Errorf("%s excluded = %v, want %v", r.Name, r.ExcludedForDisplay, want[i])
		}
		if r.Similarity != nil {
			t.Errorf("%s has a similarity in filter mode", r.Name)
		}
		if r.Rank != i+1 {
			t.Errorf("%s rank = %d", r.Name, r.Rank)
		}
	}
}

func TestNew_CustomAndEmptySets(t *testing.T) {
	if New([]string{}).Excluded(&titles()[1]) {
		t.Error("empty set should exclude nothing")
	}
	a := New([]string{" action "})
	if !a.Excluded(&titles()[0]) || a.Excluded(&titles()[1]) {
		t.Error("custom set not applied")
	}
}

func TestAnnotate(t *testing.T) {
	s := 0.5
	in := []models.RankedResult{{Title: titles()[2], Similarity: &s, Rank: 1}}
	out := New(nil).Annotate(in)
	if !out[0].ExcludedForDisplay || *out[0].Similarity != 0.5 {
		t.Errorf("got %+v", out[0])
	}
	if in[0].ExcludedForDisplay {
		t.Error("Annotate modified its input")
	}
}

func TestEnrich(t *testing.T) {
	var asked atomic.Int32
	src := lookup.Func(func(ctx context.Context, name string) (*models.TitleInfo, error) {
		asked.Add(1)
		return &models.TitleInfo{Name: name, ImageURL: "https://cdn.example/" + name + ".jpg", Synopsis: "about " + name}, nil
	})
	a := New(nil, WithPlaceholder("https://placeholder.example/150"))
	results := a.FromTitles(titles())
	a.Enrich(context.Background(), results, src)

	if results[0].ImageURL != "https://cdn.example/Clean.jpg" || results[0].Synopsis != "about Clean" {
		t.Errorf("clean result = %+v", results[0])
	}
	for _, r := range results[1:] {
		if r.ImageURL != "https://placeholder.example/150" || r.Synopsis != "" {
			t.Errorf("excluded %s got %q / %q", r.Name, r.ImageURL, r.Synopsis)
		}
	}
	if asked.Load() != 1 {
		t.Errorf("lookup called %d times, want 1", asked.Load())
	}
}

func TestEnrich_ToleratesFailures(t *testing.T) {
	tests := []struct {
		name string
		src  lookup.ImageLookup
	}{
		{"error", lookup.Func(func(context.Context, string) (*models.TitleInfo, error) { return nil, errors.New("down") })},
		{"no data", lookup.Nop{}},
		{"nil source", nil},
		{"empty image", lookup.Func(func(_ context.Context, n string) (*models.TitleInfo, error) {
			return &models.TitleInfo{Name: n}, nil
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(nil)
			results := a.FromTitles(titles()[:1])
			a.Enrich(context.Background(), results, tt.src)
			if results[0].ImageURL != lookup.DefaultPlaceholderURL {
				t.Errorf("ImageURL = %q", results[0].ImageURL)
			}
		})
	}
}

func TestEnrich_RespectsCancellation(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	src := lookup.Func(func(ctx context.Context, name string) (*models.TitleInfo, error) {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	a := New(nil, WithConcurrency(1))
	var many []models.Title
	for i := 0; i < 20; i++ {
		many = append(many, models.Title{Name: "t", Genres: []string{"Action"}})
	}
	results := a.FromTitles(many)
	done := make(chan struct{})
	go func() {
		a.Enrich(ctx, results, src)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enrich did not return after cancellation")
	}
}

func TestInfo(t *testing.T) {
	src := lookup.Func(func(_ context.Context, n string) (*models.TitleInfo, error) {
		return &models.TitleInfo{Name: n, ImageURL: "img", Synopsis: "syn"}, nil
	})
	a := New(nil)
	if got := a.Info(context.Background(), &titles()[0], src); got.ImageURL != "img" || got.Synopsis != "syn" {
		t.Errorf("Info = %+v", got)
	}
	if got := a.Info(context.Background(), &titles()[1], src); got.ImageURL != a.Placeholder() || got.Synopsis != "" {
		t.Errorf("excluded Info = %+v", got)
	}
}
