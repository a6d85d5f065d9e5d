package lookup

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/animerec/internal/metrics"
	"github.com/hyperjump/animerec/internal/models"
	"github.com/hyperjump/animerec/internal/storage"
)

// DefaultTTL is how long a stored lookup is trusted before it is fetched again.
const DefaultTTL = 7 * 24 * time.Hour

// Cached layers an in-memory LRU and an optional persistent store in front of another
// ImageLookup. Both hits and "no data" answers are cached; transport errors are not.
type Cached struct {
	next   ImageLookup
	mem    *LRU
	store  storage.Storage
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// CachedOption configures a Cached lookup.
type CachedOption func(*Cached)

// WithStore persists lookups in s.
func WithStore(s storage.Storage) CachedOption {
	return func(c *Cached) {
		c.store = s
	}
}

// WithTTL sets how long stored lookups stay valid.
func WithTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) {
		c.ttl = ttl
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *zap.Logger) CachedOption {
	return func(c *Cached) {
		c.logger = l
	}
}

// NewCached wraps next with a cache of memSize entries.
func NewCached(next ImageLookup, memSize int, opts ...CachedOption) *Cached {
	c := &Cached{
		next:   next,
		mem:    NewLRU(memSize),
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the cached answer for name or asks the wrapped lookup.
func (c *Cached) Lookup(ctx context.Context, name string) (*models.TitleInfo, error) {
	if info, ok := c.mem.Get(name); ok {
		metrics.RecordLookup("memory", "hit")
		return info, nil
	}

	if c.store != nil {
		rec, err := c.store.GetLookup(ctx, name)
		switch {
		case err == nil && c.now().Sub(rec.FetchedAt) < c.ttl:
			metrics.RecordLookup("sqlite", "hit")
			info := recordInfo(rec)
			c.mem.Set(name, info)
			return info, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			c.logger.Warn("lookup store read failed", zap.String("name", name), zap.Error(err))
		}
	}

	info, err := c.next.Lookup(ctx, name)
	switch {
	case errors.Is(err, ErrNotFound):
		info, err = nil, nil
	case err != nil:
		metrics.RecordLookup("remote", "error")
		return nil, err
	}
	if info == nil {
		metrics.RecordLookup("remote", "miss")
	} else {
		metrics.RecordLookup("remote", "hit")
	}

	c.mem.Set(name, info)
	if c.store != nil {
		rec := &storage.LookupRecord{Info: models.TitleInfo{Name: name}, FetchedAt: c.now().UTC()}
		if info != nil {
			rec.Info = *info
			rec.Info.Name = name
			rec.Found = true
		}
		if err := c.store.PutLookup(ctx, rec); err != nil {
			c.logger.Warn("lookup store write failed", zap.String("name", name), zap.Error(err))
		}
	}
	return info, nil
}

// Len returns the number of entries in the memory cache.
func (c *Cached) Len() int {
	return c.mem.Len()
}

func recordInfo(rec *storage.LookupRecord) *models.TitleInfo {
	if !rec.Found {
		return nil
	}
	info := rec.Info
	return &info
}
