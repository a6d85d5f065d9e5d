// Package lookup fetches title images and synopses from an external catalog service.
//
// Lookups are best effort. Callers treat a nil TitleInfo, or any error, as "no data" and
// fall back to a placeholder image.
package lookup

import (
	"context"
	"errors"

	"github.com/hyperjump/animerec/internal/models"
)

// DefaultPlaceholderURL is shown when a title has no image or must not be enriched.
const DefaultPlaceholderURL = "https://via.placeholder.com/150"

var (
	// ErrNotFound means the service has no entry for the title.
	ErrNotFound = errors.New("title not found")
	// ErrRateLimited means the service rejected the request with HTTP 429.
	ErrRateLimited = errors.New("rate limited by lookup service")
)

// ImageLookup resolves a title name to its image and synopsis.
// A nil TitleInfo with a nil error means no data.
type ImageLookup interface {
	Lookup(ctx context.Context, name string) (*models.TitleInfo, error)
}

// Func adapts a function to ImageLookup.
type Func func(ctx context.Context, name string) (*models.TitleInfo, error)

// Lookup calls f.
func (f Func) Lookup(ctx context.Context, name string) (*models.TitleInfo, error) {
	return f(ctx, name)
}

// Nop never returns data. It is used when lookups are disabled and in tests.
type Nop struct{}

// Lookup always returns nil, nil.
func (Nop) Lookup(context.Context, string) (*models.TitleInfo, error) {
	return nil, nil
}
