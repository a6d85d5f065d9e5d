package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/animerec/internal/models"
)

func TestSQLiteStorage_Lookups(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStorage(filepath.Join(dir, "nested", "lookups.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, err := store.GetLookup(ctx, "Mushishi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec := &LookupRecord{
		Info:  models.TitleInfo{Name: "Mushishi", ImageURL: "https://cdn.example/m.jpg", Synopsis: "Ginko wanders."},
		Found: true,
	}
	if err := store.PutLookup(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if rec.FetchedAt.IsZero() {
		t.Error("FetchedAt should be set")
	}

	got, err := store.GetLookup(ctx, "Mushishi")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Found || got.Info.ImageURL != rec.Info.ImageURL || got.Info.Synopsis != rec.Info.Synopsis {
		t.Errorf("got %+v", got)
	}

	rec.Found = false
	rec.Info.ImageURL = ""
	if err := store.PutLookup(ctx, rec); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetLookup(ctx, "Mushishi")
	if got.Found || got.Info.ImageURL != "" {
		t.Errorf("upsert did not replace: %+v", got)
	}

	n, err := store.CountLookups(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountLookups = %d, %v", n, err)
	}

	if err := store.PutLookup(ctx, &LookupRecord{}); err == nil {
		t.Error("expected error for record without name")
	}
}

func TestSQLiteStorage_DeleteLookupsBefore(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "lookups.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	_ = store.PutLookup(ctx, &LookupRecord{Info: models.TitleInfo{Name: "old"}, Found: true, FetchedAt: old})
	_ = store.PutLookup(ctx, &LookupRecord{Info: models.TitleInfo{Name: "new"}, Found: true})

	n, err := store.DeleteLookupsBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if _, err := store.GetLookup(ctx, "new"); err != nil {
		t.Errorf("new lookup should survive: %v", err)
	}
}
