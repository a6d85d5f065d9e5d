package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeDataset(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestCache_ReusesUntilFingerprintChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anime.csv")
	base := time.Now().Add(-time.Hour)
	writeDataset(t, path, sampleCSV, base)

	c := NewCache(path, ReadOptions{}, Options{})
	cat1, fp1, loaded, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if !loaded || cat1.Len() != 3 {
		t.Fatalf("first Get: loaded=%v len=%d", loaded, cat1.Len())
	}

	cat2, fp2, loaded, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if loaded || cat2 != cat1 || fp2 != fp1 {
		t.Error("second Get should return the cached catalog")
	}

	writeDataset(t, path, sampleCSV+"1,Mushishi,\"Adventure, Mystery\",TV,26,8.78,169703\n", base.Add(time.Minute))
	cat3, fp3, loaded, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if !loaded || cat3.Len() != 4 || fp3 == fp1 {
		t.Errorf("changed dataset should reload: loaded=%v len=%d", loaded, cat3.Len())
	}
	if c.Loads() != 2 {
		t.Errorf("Loads() = %d, want 2", c.Loads())
	}
}

func TestCache_Invalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anime.csv")
	writeDataset(t, path, sampleCSV, time.Now())
	c := NewCache(path, ReadOptions{}, Options{})
	if _, _, _, err := c.Get(); err != nil {
		t.Fatal(err)
	}
	c.Invalidate()
	if _, _, loaded, err := c.Get(); err != nil || !loaded {
		t.Errorf("Get after Invalidate: loaded=%v err=%v", loaded, err)
	}
	if c.Path() != path {
		t.Errorf("Path() = %q", c.Path())
	}
}

func TestCache_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, _, _, err := NewCache(filepath.Join(dir, "missing.csv"), ReadOptions{}, Options{}).Get(); err == nil {
		t.Error("expected error for missing dataset")
	}
	path := filepath.Join(dir, "bad.csv")
	writeDataset(t, path, "name,genre\nA,Action\n", time.Now())
	_, _, _, err := NewCache(path, ReadOptions{}, Options{}).Get()
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}
