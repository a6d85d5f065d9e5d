// Package indexer builds immutable search snapshots from a loaded catalog.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/animerec/internal/catalog"
	"github.com/hyperjump/animerec/internal/features"
	"github.com/hyperjump/animerec/internal/fileid"
	"github.com/hyperjump/animerec/internal/keyword"
)

// Snapshot is everything a query needs, built once per catalog version and never mutated.
type Snapshot struct {
	ID          string
	Catalog     *catalog.Catalog
	Matrix      *features.Matrix
	Index       keyword.TitleIndex
	Fingerprint fileid.Fingerprint
	BuiltAt     time.Time
}

// Close releases the snapshot's title index.
func (s *Snapshot) Close() error {
	if s.Index == nil {
		return nil
	}
	return s.Index.Close()
}

// Indexer builds snapshots.
type Indexer struct {
	newIndex func() (keyword.TitleIndex, error)
	logger   *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for build events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithIndexFactory replaces the title index constructor.
func WithIndexFactory(f func() (keyword.TitleIndex, error)) IndexerOption {
	return func(idx *Indexer) { idx.newIndex = f }
}

// NewIndexer creates an indexer backed by in-memory Bleve title indices.
func NewIndexer(opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		newIndex: func() (keyword.TitleIndex, error) { return keyword.NewBleveIndex() },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Build encodes the catalog and indexes its titles into a new snapshot.
func (idx *Indexer) Build(ctx context.Context, cat *catalog.Catalog, fp fileid.Fingerprint) (*Snapshot, error) {
	start := time.Now()
	titles := cat.Titles()
	matrix := features.Encode(titles)

	ti, err := idx.newIndex()
	if err != nil {
		return nil, fmt.Errorf("create title index: %w", err)
	}
	if err := ti.IndexTitles(ctx, titles); err != nil {
		_ = ti.Close()
		return nil, fmt.Errorf("index titles: %w", err)
	}

	snap := &Snapshot{
		ID:          uuid.New().String(),
		Catalog:     cat,
		Matrix:      matrix,
		Index:       ti,
		Fingerprint: fp,
		BuiltAt:     time.Now().UTC(),
	}
	idx.logger.Info("snapshot built",
		zap.String("id", snap.ID),
		zap.Int("titles", len(titles)),
		zap.Int("valid", len(matrix.ValidIndices())),
		zap.Int("dimensions", matrix.Dimensions()),
		zap.Duration("took", time.Since(start)),
	)
	return snap, nil
}
