package catalog

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/animerec/internal/fileid"
)

// Cache memoizes the catalog built from one dataset file. The cached catalog is reused
// while the file's fingerprint is unchanged; a new fingerprint or Invalidate forces a reload.
type Cache struct {
	path     string
	readOpts ReadOptions
	opts     Options
	logger   *zap.Logger

	mu      sync.Mutex
	fp      fileid.Fingerprint
	catalog *Catalog
	loads   int
}

// NewCache creates a cache for the dataset at path. Nothing is read until Get.
func NewCache(path string, readOpts ReadOptions, opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{path: path, readOpts: readOpts, opts: opts, logger: logger}
}

// Path returns the dataset path.
func (c *Cache) Path() string {
	return c.path
}

// Get returns the catalog for the current version of the dataset, loading it if the
// fingerprint changed since the last call. The returned bool reports whether a load happened.
func (c *Cache) Get() (*Catalog, fileid.Fingerprint, bool, error) {
	fp, err := fileid.Of(c.path)
	if err != nil {
		return nil, fileid.Fingerprint{}, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog != nil && c.fp == fp {
		return c.catalog, c.fp, false, nil
	}

	rows, err := ReadFile(c.path, c.readOpts)
	if err != nil {
		return nil, fileid.Fingerprint{}, false, fmt.Errorf("read dataset %s: %w", c.path, err)
	}
	cat := Load(rows, c.opts)
	c.catalog = cat
	c.fp = fp
	c.loads++
	c.logger.Debug("catalog cache refreshed", zap.String("path", fp.Path), zap.String("fingerprint", fp.ID()))
	return cat, fp, true, nil
}

// Invalidate drops the cached catalog so the next Get reloads from disk.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = nil
	c.fp = fileid.Fingerprint{}
}

// Loads returns how many times the dataset has been read.
func (c *Cache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}
