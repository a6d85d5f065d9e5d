// Package storage persists title lookup results so enrichment survives restarts.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/animerec/internal/models"
)

// ErrNotFound is returned when no lookup is stored for a title.
var ErrNotFound = errors.New("lookup not found")

// LookupRecord is a stored lookup. A record with Found == false remembers that the
// remote service had no data for the title.
type LookupRecord struct {
	Info      models.TitleInfo
	Found     bool
	FetchedAt time.Time
}

// Storage defines lookup persistence operations.
type Storage interface {
	GetLookup(ctx context.Context, name string) (*LookupRecord, error)
	PutLookup(ctx context.Context, rec *LookupRecord) error
	DeleteLookupsBefore(ctx context.Context, before time.Time) (int64, error)
	CountLookups(ctx context.Context) (int64, error)

	Close() error
}
