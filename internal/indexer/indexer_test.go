package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/animerec/internal/catalog"
	"github.com/hyperjump/animerec/internal/fileid"
	"github.com/hyperjump/animerec/internal/keyword"
	"github.com/hyperjump/animerec/internal/models"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]models.Title{
		{Name: "Cowboy Bebop", SeriesName: "Cowboy Bebop", Genres: []string{"Action", "Sci-Fi"}, Type: "TV", Rating: 8.8, Members: 480000, Episodes: 26},
		{Name: "Mushishi", SeriesName: "Mushishi", Genres: []string{"Mystery"}, Type: "TV", Rating: 8.7, Members: 160000, Episodes: 26},
	})
}

func TestIndexer_Build(t *testing.T) {
	fp := fileid.Fingerprint{Path: "/data/anime.csv", ModTime: 1, Size: 2}
	snap, err := NewIndexer().Build(context.Background(), testCatalog(), fp)
	if err != nil {
		t.Fatal(err)
	}
	defer snap.Close()

	if snap.ID == "" || snap.BuiltAt.IsZero() {
		t.Errorf("snapshot identity not set: %+v", snap)
	}
	if snap.Fingerprint != fp {
		t.Errorf("fingerprint = %+v", snap.Fingerprint)
	}
	if snap.Matrix.Len() != 2 || snap.Matrix.Dimensions() != 6 {
		t.Errorf("matrix len=%d dims=%d", snap.Matrix.Len(), snap.Matrix.Dimensions())
	}
	n, err := snap.Index.DocCount()
	if err != nil || n != 2 {
		t.Errorf("DocCount = %d, %v", n, err)
	}
	hits, err := snap.Index.Search(context.Background(), "bebop", 5)
	if err != nil || len(hits) == 0 || hits[0].Name != "Cowboy Bebop" {
		t.Errorf("Search = %v, %v", hits, err)
	}
}

func TestIndexer_BuildIDsDiffer(t *testing.T) {
	idx := NewIndexer()
	a, err := idx.Build(context.Background(), testCatalog(), fileid.Fingerprint{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := idx.Build(context.Background(), testCatalog(), fileid.Fingerprint{})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if a.ID == b.ID {
		t.Error("every build should get a fresh ID")
	}
}

func TestIndexer_BuildIndexError(t *testing.T) {
	boom := errors.New("boom")
	idx := NewIndexer(WithIndexFactory(func() (keyword.TitleIndex, error) { return nil, boom }))
	if _, err := idx.Build(context.Background(), testCatalog(), fileid.Fingerprint{}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}
